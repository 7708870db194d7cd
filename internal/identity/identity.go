// Package identity defines the composite recording identity that correlates
// an external recording to an answer attempt. The recording subsystem names
// recordings "{rootUuid}~{index}" with a 0-based index, while attempts are
// numbered from 1; ParseRecordingID is the single place that conversion lives.
package identity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Separator between the root uuid and the zero-based recording index.
const Separator = "~"

var ErrEmptyRecordingID = errors.New("recording id is empty")

// AttemptIdentity is the decoded (rootUuid, attemptNumber) pair.
// AttemptNumber is 1-based.
type AttemptIdentity struct {
	RootUUID      string
	AttemptNumber int
}

// ParseRecordingID decodes a wire-format recording id.
// "abc~0" → (abc, 1); "abc~4" → (abc, 5); "abc" → (abc, 1).
// The empty string and non-numeric or negative indexes are rejected.
func ParseRecordingID(s string) (AttemptIdentity, error) {
	if s == "" {
		return AttemptIdentity{}, ErrEmptyRecordingID
	}

	root, idx, found := strings.Cut(s, Separator)
	if root == "" {
		return AttemptIdentity{}, ErrEmptyRecordingID
	}
	if !found {
		return AttemptIdentity{RootUUID: root, AttemptNumber: 1}, nil
	}

	n, err := strconv.Atoi(idx)
	if err != nil {
		return AttemptIdentity{}, fmt.Errorf("invalid recording index %q: %w", idx, err)
	}
	if n < 0 {
		return AttemptIdentity{}, fmt.Errorf("negative recording index %d", n)
	}

	return AttemptIdentity{RootUUID: root, AttemptNumber: n + 1}, nil
}

// RecordingID re-encodes the identity into wire format. The pipeline itself
// only decodes; this exists for logging and tests.
func (id AttemptIdentity) RecordingID() string {
	return id.RootUUID + Separator + strconv.Itoa(id.AttemptNumber-1)
}

func (id AttemptIdentity) String() string {
	return fmt.Sprintf("%s#%d", id.RootUUID, id.AttemptNumber)
}
