package inference

import (
	"context"
	"fmt"
)

// Prediction is one classification candidate in backend-native order.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type (
	TextRecognizer interface {
		Name() string
		RecognizeText(ctx context.Context, image []byte, mimeType string) (string, error)
	}

	ImageClassifier interface {
		Name() string
		ClassifyImage(ctx context.Context, image []byte, mimeType string, limit int) ([]Prediction, error)
	}

	ReplyGenerator interface {
		Name() string
		GenerateReply(ctx context.Context, systemContext string, userMessage string) (string, error)
	}
)

// BackendError is the single failure shape every adapter returns. Network
// errors, missing credentials, malformed model output and empty results are
// all folded into it at the adapter boundary.
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func backendErr(backend string, err error) *BackendError {
	return &BackendError{Backend: backend, Err: err}
}

func backendErrf(backend string, format string, args ...any) *BackendError {
	return &BackendError{Backend: backend, Err: fmt.Errorf(format, args...)}
}

// BuildChatPrompt is the single prompt shape fed to the local generator. The
// local model echoes the prompt back in front of its completion, so the
// normalizer strips exactly this prefix before surfacing the reply.
func BuildChatPrompt(systemContext string, userMessage string) string {
	return systemContext + "\n\nUser: " + userMessage + "\nAssistant:"
}
