package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ollama/ollama/api"
	"github.com/sashabaranov/go-openai"
	"github.com/seojun-park/mockterview/backend/internal/config"
	"github.com/seojun-park/mockterview/backend/internal/models"
	"github.com/seojun-park/mockterview/backend/pkg/logger"
	"google.golang.org/genai"
	"gorm.io/gorm"
)

// SourceCitation is one document citation backing the generated model answer.
type SourceCitation struct {
	SourceType   string `json:"source_type"`
	CitedContent string `json:"cited_content"`
}

// ModelAnswerResult is the generator's output: the answer text plus the
// citations it drew from the candidate's documents.
type ModelAnswerResult struct {
	ModelAnswer string           `json:"model_answer"`
	Sources     []SourceCitation `json:"sources"`
}

// ModelAnswerGenerator produces a model answer for an analyzed attempt. The
// call is long-running and must be bounded; implementations own the timeout.
type ModelAnswerGenerator interface {
	Generate(ctx context.Context, gc *GenerationContext, transcript string) (*ModelAnswerResult, error)
}

// ModelAnswerService generates model answers through the configured LLM
// backends, trying them in order until one succeeds.
type ModelAnswerService struct {
	db     *gorm.DB
	config *config.AIConfig
}

func NewModelAnswerService(db *gorm.DB, cfg *config.AIConfig) *ModelAnswerService {
	return &ModelAnswerService{db: db, config: cfg}
}

func (s *ModelAnswerService) Generate(ctx context.Context, gc *GenerationContext, transcript string) (*ModelAnswerResult, error) {
	prompt := s.buildPrompt(gc, transcript)

	timeout := time.Duration(s.config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	llmConfigs := s.getOrderedLLMConfigs()
	if len(llmConfigs) == 0 {
		return nil, fmt.Errorf("no LLM configuration available")
	}

	var lastErr error
	for i, llmConfig := range llmConfigs {
		logger.Infof("[ModelAnswer] Attempting LLM %d/%d: %s (model: %s)", i+1, len(llmConfigs), llmConfig.Name, llmConfig.Model)

		content, err := s.callLLM(ctx, &llmConfig, prompt)
		if err == nil {
			logger.Infof("[ModelAnswer] Success with LLM: %s", llmConfig.Name)
			return parseModelAnswer(content), nil
		}

		lastErr = err
		logger.Warnf("[ModelAnswer] LLM %s failed: %v, trying next...", llmConfig.Name, err)
	}

	return nil, fmt.Errorf("all LLMs failed, last error: %w", lastErr)
}

// buildPrompt fills the stored prompt template for the attempt variant.
func (s *ModelAnswerService) buildPrompt(gc *GenerationContext, transcript string) string {
	kind := models.PromptKindQuestion
	if gc.Kind == KindPresentation {
		kind = models.PromptKindPresentation
	}

	var template models.PromptTemplate
	prompt := ""
	if err := s.db.Where("kind = ? AND is_default = ?", kind, true).First(&template).Error; err == nil {
		prompt = template.Content
	} else if err := s.db.Where("kind = ?", kind).First(&template).Error; err == nil {
		prompt = template.Content
	} else {
		logger.Warnf("[ModelAnswer] No prompt template for kind %s, using built-in", kind)
		prompt = builtinPrompt
	}

	var documents strings.Builder
	for _, doc := range gc.Documents {
		fmt.Fprintf(&documents, "[%s]\n%s\n\n", doc.DocType, doc.Content)
	}

	replacer := strings.NewReplacer(
		"{{enterprise}}", gc.Enterprise,
		"{{position}}", gc.Position,
		"{{question}}", gc.QuestionText,
		"{{title}}", gc.Title,
		"{{situation}}", gc.Situation,
		"{{transcript}}", transcript,
		"{{documents}}", documents.String(),
	)
	return replacer.Replace(prompt)
}

const builtinPrompt = `You are an interview coach. Question: {{question}}{{title}}
Candidate transcript: {{transcript}}
Documents: {{documents}}
Respond with JSON: {"model_answer": "...", "sources": []}`

// getOrderedLLMConfigs returns the backends to try: the default first, then
// the remaining active ones, then the config-file fallback if the database
// holds nothing.
func (s *ModelAnswerService) getOrderedLLMConfigs() []models.LLMConfig {
	var configs []models.LLMConfig

	var defaultConfig models.LLMConfig
	if err := s.db.Where("is_default = ? AND is_active = ?", true, true).First(&defaultConfig).Error; err == nil {
		configs = append(configs, defaultConfig)
	}

	var backupConfigs []models.LLMConfig
	existingIDs := make(map[uint]bool)
	for _, c := range configs {
		existingIDs[c.ID] = true
	}
	s.db.Where("is_active = ?", true).Order("id ASC").Find(&backupConfigs)
	for _, c := range backupConfigs {
		if !existingIDs[c.ID] {
			configs = append(configs, c)
		}
	}

	if len(configs) == 0 && s.config.APIKey != "" {
		configs = append(configs, models.LLMConfig{
			Name:    "fallback",
			BaseURL: s.config.BaseURL,
			APIKey:  s.config.APIKey,
			Model:   s.config.Model,
		})
	}

	return configs
}

// callLLM dispatches to the appropriate provider-specific function based on Provider field
func (s *ModelAnswerService) callLLM(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	logger.Infof("[ModelAnswer] Using provider: %s, model: %s, baseURL: %s", llmConfig.Provider, llmConfig.Model, llmConfig.BaseURL)

	switch llmConfig.Provider {
	case "anthropic":
		return s.callAnthropic(ctx, llmConfig, prompt)
	case "ollama":
		return s.callOllama(ctx, llmConfig, prompt)
	case "gemini":
		return s.callGemini(ctx, llmConfig, prompt)
	case "azure":
		return s.callAzure(ctx, llmConfig, prompt)
	default:
		// openai and other OpenAI-compatible services
		return s.callOpenAI(ctx, llmConfig, prompt)
	}
}

// callOpenAI handles OpenAI and OpenAI-compatible APIs (including custom endpoints)
func (s *ModelAnswerService) callOpenAI(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	clientConfig := openai.DefaultConfig(llmConfig.APIKey)
	if llmConfig.BaseURL != "" {
		clientConfig.BaseURL = llmConfig.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	temperature := float32(0.3)
	if llmConfig.Temperature > 0 {
		temperature = float32(llmConfig.Temperature)
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: llmConfig.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: temperature,
	})

	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content
	logger.Infof("[ModelAnswer] OpenAI response length: %d chars", len(content))
	return content, nil
}

// callAnthropic handles Anthropic Claude API using the native SDK
func (s *ModelAnswerService) callAnthropic(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	client := anthropic.NewClient(
		option.WithAPIKey(llmConfig.APIKey),
	)

	maxTokens := int64(llmConfig.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 4096
	}

	model := llmConfig.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	logger.Infof("[ModelAnswer] Anthropic response length: %d chars", len(content))
	return content, nil
}

// callOllama handles Ollama API using the native SDK
func (s *ModelAnswerService) callOllama(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	baseURL := llmConfig.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid Ollama base URL: %w", err)
	}
	client := api.NewClient(u, http.DefaultClient)

	model := llmConfig.Model
	if model == "" {
		model = "llama3"
	}

	var content strings.Builder
	err = client.Chat(ctx, &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Options: map[string]interface{}{
			"temperature": llmConfig.Temperature,
		},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})

	if err != nil {
		return "", fmt.Errorf("Ollama API error: %w", err)
	}

	result := content.String()
	logger.Infof("[ModelAnswer] Ollama response length: %d chars", len(result))
	return result, nil
}

// callGemini handles Google Gemini API using the native SDK
func (s *ModelAnswerService) callGemini(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: llmConfig.APIKey,
	})
	if err != nil {
		return "", fmt.Errorf("Gemini client error: %w", err)
	}

	model := llmConfig.Model
	if model == "" {
		model = "gemini-3.0-flash"
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	content := resp.Text()
	logger.Infof("[ModelAnswer] Gemini response length: %d chars", len(content))
	return content, nil
}

// callAzure handles Azure OpenAI API using special configuration
func (s *ModelAnswerService) callAzure(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	// Azure requires BaseURL format: https://{resource-name}.openai.azure.com
	// Model field is used as deployment name
	cfg := openai.DefaultAzureConfig(llmConfig.APIKey, llmConfig.BaseURL)
	client := openai.NewClientWithConfig(cfg)

	temperature := float32(0.3)
	if llmConfig.Temperature > 0 {
		temperature = float32(llmConfig.Temperature)
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: llmConfig.Model, // In Azure, this is the deployment name
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
	})

	if err != nil {
		return "", fmt.Errorf("Azure OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from Azure OpenAI")
	}

	content := resp.Choices[0].Message.Content
	logger.Infof("[ModelAnswer] Azure OpenAI response length: %d chars", len(content))
	return content, nil
}

// parseModelAnswer extracts the structured result from the model output.
// Models wrap JSON in markdown fences or fall back to prose; a response that
// cannot be parsed becomes a citation-less answer rather than an error.
func parseModelAnswer(content string) *ModelAnswerResult {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var result ModelAnswerResult
	if err := json.Unmarshal([]byte(trimmed), &result); err == nil && result.ModelAnswer != "" {
		return &result
	}

	return &ModelAnswerResult{ModelAnswer: content}
}
