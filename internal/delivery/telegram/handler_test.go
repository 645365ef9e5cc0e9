package telegram

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/alexdev/devbot/internal/domain/repository"
	"github.com/alexdev/devbot/internal/infrastructure/parser"
	"github.com/alexdev/devbot/internal/infrastructure/storage"
	"github.com/alexdev/devbot/internal/usecase"
)

type recordingSender struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		r.texts = append(r.texts, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func (r *recordingSender) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.texts) == 0 {
		return ""
	}
	return r.texts[len(r.texts)-1]
}

type stackSession struct{}

func (stackSession) SendMessage(ctx context.Context, text string) (string, error) {
	return "React, TypeScript, Node.js.", nil
}

type stackAI struct{}

func (stackAI) NewSession(ctx context.Context) (repository.ChatSession, error) {
	return stackSession{}, nil
}

const adminID = 7

func newTestHandler(t *testing.T, ai repository.AIRepository) (*BotHandler, *recordingSender, usecase.ChatUseCase) {
	t.Helper()

	chat := usecase.NewChatUseCase(ai, storage.NewMemoryChatRepository(0), nil, usecase.ChatOptions{})
	contact := usecase.NewContactUseCase(usecase.ContactOptions{SubmitDelay: time.Hour, ResetDelay: time.Hour})
	portfolio := usecase.NewPortfolioUseCase(
		storage.NewMemoryPortfolioRepository(storage.BuiltinCatalog()),
		parser.NewExcelParser(zerolog.Nop()),
	)

	s := &recordingSender{}
	h := newBotHandler(s, []int64{adminID}, chat, contact, portfolio, zerolog.Nop())
	return h, s, chat
}

func command(chatID int64, text string) *tgbotapi.Message {
	end := len(text)
	for i, r := range text {
		if r == ' ' {
			end = i
			break
		}
	}
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{ID: chatID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}},
	}
}

func text(chatID int64, body string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text: body,
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: chatID},
	}
}

func TestStartSendStop(t *testing.T) {
	h, s, chat := newTestHandler(t, stackAI{})
	ctx := context.Background()

	h.handleMessage(ctx, text(1, "hello"))
	assert.Contains(t, s.last(), "/start")

	h.handleMessage(ctx, command(1, "/start"))
	assert.Equal(t, usecase.GreetingText, s.last())

	h.handleMessage(ctx, text(1, "What is your stack?"))
	assert.Equal(t, "React, TypeScript, Node.js.", s.last())

	state, err := chat.GetWidget(ctx, WidgetID(1))
	require.NoError(t, err)
	require.Len(t, state.Messages, 3)
	assert.Equal(t, "What is your stack?", state.Messages[1].Text)

	h.handleMessage(ctx, command(1, "/stop"))
	assert.Contains(t, s.last(), "Chat closed")

	h.handleMessage(ctx, text(1, "still there?"))
	assert.Contains(t, s.last(), "closed")

	h.handleMessage(ctx, command(1, "/start"))
	assert.Contains(t, s.last(), "Welcome back")

	h.handleMessage(ctx, command(1, "/history"))
	assert.Contains(t, s.last(), "You [")
	assert.Contains(t, s.last(), "React, TypeScript, Node.js.")
}

func TestDemoModeStart(t *testing.T) {
	h, s, _ := newTestHandler(t, nil)

	h.handleMessage(context.Background(), command(2, "/start"))
	assert.Contains(t, s.last(), "demo mode")

	h.handleMessage(context.Background(), text(2, "hi"))
	assert.Equal(t, usecase.DemoNoticeText, s.last())
}

func TestPortfolioCommands(t *testing.T) {
	h, s, _ := newTestHandler(t, stackAI{})
	ctx := context.Background()

	h.handleMessage(ctx, command(3, "/skills ai"))
	assert.Contains(t, s.last(), "Gemini API")
	assert.NotContains(t, s.last(), "React")

	h.handleMessage(ctx, command(3, "/skills pottery"))
	assert.Contains(t, s.last(), "Unknown category")

	h.handleMessage(ctx, command(3, "/projects"))
	assert.Contains(t, s.last(), "1. Neon Nexus")
}

func TestContactCommand(t *testing.T) {
	h, s, _ := newTestHandler(t, stackAI{})
	ctx := context.Background()

	h.handleMessage(ctx, command(4, "/contact"))
	assert.Contains(t, s.last(), "Usage")

	h.handleMessage(ctx, command(4, "/contact Jane | not-an-email | hi"))
	assert.Contains(t, s.last(), "email")

	h.handleMessage(ctx, command(4, "/contact Jane | jane@example.com | Let's talk"))
	assert.Contains(t, s.last(), "Thanks")
}

func TestDocumentUpload(t *testing.T) {
	h, s, _ := newTestHandler(t, stackAI{})
	ctx := context.Background()

	f := excelize.NewFile()
	_, err := f.NewSheet("Projects")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Projects", "A1", &[]string{"Title", "Tags"}))
	require.NoError(t, f.SetSheetRow("Projects", "A2", &[]string{"Orbit", "Go"}))
	require.NoError(t, f.DeleteSheet("Sheet1"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	h.download = func(fileID string) ([]byte, error) { return buf.Bytes(), nil }

	doc := &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: 99},
		From:     &tgbotapi.User{ID: 99},
		Document: &tgbotapi.Document{FileID: "f1", FileName: "catalog.xlsx", FileSize: buf.Len()},
	}
	h.handleMessage(ctx, doc)
	assert.Contains(t, s.last(), "Only the site owner")

	doc.From.ID = adminID
	doc.Document.FileName = "catalog.csv"
	h.handleMessage(ctx, doc)
	assert.Contains(t, s.last(), ".xlsx")

	doc.Document.FileName = "catalog.xlsx"
	h.handleMessage(ctx, doc)
	assert.Contains(t, s.last(), "1 projects")

	h.handleMessage(ctx, command(99, "/projects"))
	assert.Contains(t, s.last(), "Orbit")
}

func TestUnknownCommand(t *testing.T) {
	h, s, _ := newTestHandler(t, stackAI{})

	h.handleMessage(context.Background(), command(5, "/dance"))
	assert.Contains(t, s.last(), "/help")
}

type gatedSession struct{ ai *gatedAI }

func (s gatedSession) SendMessage(ctx context.Context, text string) (string, error) {
	s.ai.calls.Add(1)
	<-s.ai.release
	return "done", nil
}

type gatedAI struct {
	calls   atomic.Int32
	release chan struct{}
}

func (a *gatedAI) NewSession(ctx context.Context) (repository.ChatSession, error) {
	return gatedSession{ai: a}, nil
}

func TestServeWaitsForInFlightHandlers(t *testing.T) {
	ai := &gatedAI{release: make(chan struct{})}
	h, s, _ := newTestHandler(t, ai)

	h.handleMessage(context.Background(), command(8, "/start"))

	updates := make(chan tgbotapi.Update, 1)
	updates <- tgbotapi.Update{Message: text(8, "slow question")}

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- h.serve(ctx, updates) }()

	require.Eventually(t, func() bool { return ai.calls.Load() == 1 }, time.Second, 2*time.Millisecond)
	cancel()

	select {
	case <-served:
		t.Fatal("serve returned while a handler was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(ai.release)
	select {
	case err := <-served:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("serve did not return")
	}
	assert.Equal(t, "done", s.last())
}
