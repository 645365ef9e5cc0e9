package repository

import (
	"context"
	"errors"
)

var (
	// ErrNoCredential no API key is configured for the generative service
	ErrNoCredential = errors.New("generative API credential missing")

	// ErrTransport any remote or network failure while talking to the model
	ErrTransport = errors.New("generative API transport failure")
)

// AIRepository opens conversations with the generative-language service
type AIRepository interface {
	// NewSession creates a session bound to the fixed system prompt and temperature
	NewSession(ctx context.Context) (ChatSession, error)
}

// ChatSession ongoing conversational context. Not safe for concurrent sends.
type ChatSession interface {
	// SendMessage forwards one utterance and returns the model's text reply
	SendMessage(ctx context.Context, text string) (string, error)
}
