package domain

import (
	"errors"
)

var (
	MessageSuccessChat = "chat reply generated successfully"
	MessageFailedChat  = "failed to generate chat reply"

	ErrEmptyMessage = errors.New("message must not be empty")
	ErrChatFailed   = errors.New("chat reply failed on every backend")
)

type (
	ChatRequest struct {
		Message string `json:"message" validate:"required"`
	}

	ChatResponse struct {
		Reply string `json:"reply"`
	}
)
