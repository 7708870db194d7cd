package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func limitedRouter(rl *RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(rl.Middleware())
	router.POST("/webhook/recording", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return router
}

func postFrom(router *gin.Engine, ip string) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/webhook/recording", nil)
	req.RemoteAddr = ip + ":12345"
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit_AllowsNormalRequests(t *testing.T) {
	router := limitedRouter(NewRateLimiter(10, 10))

	if code := postFrom(router, "192.168.1.1"); code != http.StatusOK {
		t.Errorf("status = %d, expected 200", code)
	}
}

func TestRateLimit_BlocksExcessiveRequests(t *testing.T) {
	router := limitedRouter(NewRateLimiter(1, 2))

	var lastCode int
	for i := 0; i < 5; i++ {
		lastCode = postFrom(router, "10.0.0.1")
	}

	if lastCode != http.StatusTooManyRequests {
		t.Errorf("status = %d after burst exceeded, expected 429", lastCode)
	}
}

func TestRateLimit_IndependentPerIP(t *testing.T) {
	router := limitedRouter(NewRateLimiter(1, 1))

	if code := postFrom(router, "10.0.0.1"); code != http.StatusOK {
		t.Errorf("first IP: status = %d, expected 200", code)
	}

	// A second recorder address gets its own bucket.
	if code := postFrom(router, "10.0.0.2"); code != http.StatusOK {
		t.Errorf("second IP: status = %d, expected 200", code)
	}
}
