package repository

import (
	"context"

	"github.com/alexdev/devbot/internal/domain/entity"
)

// ChatRepository message stores of the live chat widgets
type ChatRepository interface {
	// Append adds a message at the end of the widget's store
	Append(ctx context.Context, widgetID string, message entity.Message) error

	// History returns the widget's messages in append order (last limit when limit > 0)
	History(ctx context.Context, widgetID string, limit int) ([]entity.Message, error)

	// Drop discards the widget's store
	Drop(ctx context.Context, widgetID string) error
}

// TranscriptRepository append-only archive of finished exchanges
type TranscriptRepository interface {
	SaveExchange(ctx context.Context, exchange entity.Exchange) error
	ListExchanges(ctx context.Context, widgetID string, limit int) ([]entity.Exchange, error)
	Close() error
}
