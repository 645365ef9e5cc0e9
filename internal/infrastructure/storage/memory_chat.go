package storage

import (
	"context"
	"sync"

	"github.com/alexdev/devbot/internal/domain/entity"
	"github.com/alexdev/devbot/internal/domain/repository"
)

type memoryChatRepository struct {
	mu      sync.RWMutex
	stores  map[string][]entity.Message
	maxSize int
}

// NewMemoryChatRepository in-memory message stores. maxSize 0 keeps everything.
func NewMemoryChatRepository(maxSize int) repository.ChatRepository {
	return &memoryChatRepository{
		stores:  make(map[string][]entity.Message),
		maxSize: maxSize,
	}
}

// Append adds message at the end of the widget's store
func (m *memoryChatRepository) Append(ctx context.Context, widgetID string, message entity.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	messages := append(m.stores[widgetID], message)

	// oldest turns go first once the cap is hit
	if m.maxSize > 0 && len(messages) > m.maxSize {
		messages = append([]entity.Message(nil), messages[len(messages)-m.maxSize:]...)
	}

	m.stores[widgetID] = messages
	return nil
}

// History copy of the widget's messages in append order
func (m *memoryChatRepository) History(ctx context.Context, widgetID string, limit int) ([]entity.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	messages := m.stores[widgetID]
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}

	return append([]entity.Message{}, messages...), nil
}

// Drop discards the widget's store
func (m *memoryChatRepository) Drop(ctx context.Context, widgetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.stores, widgetID)
	return nil
}
