package inference

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// ErrAllBackendsFailed wraps the collected BackendErrors once a whole chain
// is exhausted.
var ErrAllBackendsFailed = errors.New("all backends failed")

const defaultAttemptTimeout = 30 * time.Second

// Orchestrator holds one priority-ordered adapter chain per capability and
// walks it sequentially: first success wins, failures cascade to the next
// tier. At most one adapter is in flight per request.
type Orchestrator struct {
	recognizers []TextRecognizer
	classifiers []ImageClassifier
	generators  []ReplyGenerator
	timeout     time.Duration
}

func NewOrchestrator(recognizers []TextRecognizer, classifiers []ImageClassifier, generators []ReplyGenerator) *Orchestrator {
	return &Orchestrator{
		recognizers: recognizers,
		classifiers: classifiers,
		generators:  generators,
		timeout:     defaultAttemptTimeout,
	}
}

func allFailed(capability string, attempts []error) error {
	if len(attempts) == 0 {
		return fmt.Errorf("%w: no %s backends configured", ErrAllBackendsFailed, capability)
	}
	return fmt.Errorf("%w: %w", ErrAllBackendsFailed, errors.Join(attempts...))
}

// RecognizeText returns the recognized text plus the name of the backend
// that produced it.
func (o *Orchestrator) RecognizeText(ctx context.Context, image []byte, mimeType string) (string, string, error) {
	var attempts []error
	for _, adapter := range o.recognizers {
		attemptCtx, cancel := context.WithTimeout(ctx, o.timeout)
		text, err := adapter.RecognizeText(attemptCtx, image, mimeType)
		cancel()
		if err == nil {
			return text, adapter.Name(), nil
		}
		log.Printf("text recognition via %s failed: %v", adapter.Name(), err)
		attempts = append(attempts, err)
	}
	return "", "", allFailed("text recognition", attempts)
}

// ClassifyImage returns up to limit predictions plus the satisfying backend.
func (o *Orchestrator) ClassifyImage(ctx context.Context, image []byte, mimeType string, limit int) ([]Prediction, string, error) {
	var attempts []error
	for _, adapter := range o.classifiers {
		attemptCtx, cancel := context.WithTimeout(ctx, o.timeout)
		predictions, err := adapter.ClassifyImage(attemptCtx, image, mimeType, limit)
		cancel()
		if err == nil {
			return predictions, adapter.Name(), nil
		}
		log.Printf("image classification via %s failed: %v", adapter.Name(), err)
		attempts = append(attempts, err)
	}
	return nil, "", allFailed("image classification", attempts)
}

// GenerateReply returns the raw generated text plus the satisfying backend.
// The caller normalizes the text per backend before surfacing it.
func (o *Orchestrator) GenerateReply(ctx context.Context, systemContext string, userMessage string) (string, string, error) {
	var attempts []error
	for _, adapter := range o.generators {
		attemptCtx, cancel := context.WithTimeout(ctx, o.timeout)
		reply, err := adapter.GenerateReply(attemptCtx, systemContext, userMessage)
		cancel()
		if err == nil {
			return reply, adapter.Name(), nil
		}
		log.Printf("reply generation via %s failed: %v", adapter.Name(), err)
		attempts = append(attempts, err)
	}
	return "", "", allFailed("reply generation", attempts)
}
