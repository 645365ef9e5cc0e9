package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexdev/devbot/internal/domain/entity"
	"github.com/alexdev/devbot/internal/domain/repository"
	"github.com/alexdev/devbot/internal/logger"
)

const (
	GreetingText   = "Hi! I'm DevBot. Ask me about Alex's projects or skills."
	DemoNoticeText = "I am currently in demo mode because no API_KEY was detected. Please add a valid Gemini API Key to unlock my full potential!"
	ApologyText    = "Sorry, I encountered an error connecting to the neural network."
)

var (
	ErrWidgetNotFound = errors.New("chat widget not found")
	ErrWidgetClosed   = errors.New("chat widget is closed")
	// ErrSendSuppressed the input is blank or a reply is still pending
	ErrSendSuppressed = errors.New("send suppressed")
	// ErrWidgetDisposed the widget was torn down while a reply was pending
	ErrWidgetDisposed = errors.New("chat widget disposed")
)

// ChatOptions widget timings
type ChatOptions struct {
	DemoDelay      time.Duration
	RequestTimeout time.Duration
	WidgetTTL      time.Duration
}

// ChatUseCase chat widgets: open/close, send, dispose
type ChatUseCase interface {
	// CreateWidget mounts a new, closed widget seeded with the greeting
	CreateWidget(ctx context.Context) (*entity.WidgetState, error)

	// EnsureWidget returns the widget with id, mounting it when missing
	EnsureWidget(ctx context.Context, id string) (*entity.WidgetState, error)

	GetWidget(ctx context.Context, id string) (*entity.WidgetState, error)
	Toggle(ctx context.Context, id string) (*entity.WidgetState, error)
	Open(ctx context.Context, id string) (*entity.WidgetState, error)
	Close(ctx context.Context, id string) (*entity.WidgetState, error)

	// Send appends the utterance and then the reply; returns both messages
	Send(ctx context.Context, id, text string) ([]entity.Message, error)

	// Dispose tears the widget down, cancelling a pending reply
	Dispose(ctx context.Context, id string) error

	// EvictIdle disposes widgets idle longer than the TTL
	EvictIdle(ctx context.Context) int

	// Run evicts idle widgets until ctx is done
	Run(ctx context.Context) error

	// DemoMode reports whether widgets run without a credential
	DemoMode() bool
}

type widget struct {
	id   string
	demo bool

	mu         sync.Mutex
	open       bool
	awaiting   bool
	disposed   bool
	session    repository.ChatSession
	lastActive time.Time

	// ctx lives as long as the widget; pending replies derive from it
	ctx    context.Context
	cancel context.CancelFunc
}

type chatUseCase struct {
	aiRepo      repository.AIRepository
	chatRepo    repository.ChatRepository
	transcripts repository.TranscriptRepository
	opts        ChatOptions

	mu      sync.Mutex
	widgets map[string]*widget

	now func() time.Time
}

// NewChatUseCase creates the ChatUseCase. A nil aiRepo puts every widget in
// demo mode; transcripts may be nil.
func NewChatUseCase(
	aiRepo repository.AIRepository,
	chatRepo repository.ChatRepository,
	transcripts repository.TranscriptRepository,
	opts ChatOptions,
) ChatUseCase {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.WidgetTTL <= 0 {
		opts.WidgetTTL = 30 * time.Minute
	}

	return &chatUseCase{
		aiRepo:      aiRepo,
		chatRepo:    chatRepo,
		transcripts: transcripts,
		opts:        opts,
		widgets:     make(map[string]*widget),
		now:         time.Now,
	}
}

func (u *chatUseCase) DemoMode() bool {
	return u.aiRepo == nil
}

// CreateWidget mounts a widget under a fresh ID
func (u *chatUseCase) CreateWidget(ctx context.Context) (*entity.WidgetState, error) {
	return u.EnsureWidget(ctx, uuid.New().String())
}

// EnsureWidget get-or-mount by ID
func (u *chatUseCase) EnsureWidget(ctx context.Context, id string) (*entity.WidgetState, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty id", ErrWidgetNotFound)
	}

	u.mu.Lock()
	w, exists := u.widgets[id]
	if !exists {
		wctx, cancel := context.WithCancel(context.Background())
		w = &widget{
			id:         id,
			demo:       u.DemoMode(),
			lastActive: u.now(),
			ctx:        wctx,
			cancel:     cancel,
		}
		greeting := entity.Message{Role: entity.RoleModel, Text: GreetingText, Timestamp: u.now()}
		if err := u.chatRepo.Append(ctx, id, greeting); err != nil {
			u.mu.Unlock()
			cancel()
			return nil, fmt.Errorf("failed to seed widget: %w", err)
		}
		u.widgets[id] = w
	}
	u.mu.Unlock()

	if !exists {
		logger.Ctx(ctx).Info().Str(logger.FieldWidgetID, id).Bool("demo_mode", w.demo).Msg("chat widget mounted")
	}

	return u.state(ctx, w)
}

func (u *chatUseCase) GetWidget(ctx context.Context, id string) (*entity.WidgetState, error) {
	w, err := u.lookup(id)
	if err != nil {
		return nil, err
	}
	return u.state(ctx, w)
}

func (u *chatUseCase) Toggle(ctx context.Context, id string) (*entity.WidgetState, error) {
	return u.setOpen(ctx, id, func(open bool) bool { return !open })
}

func (u *chatUseCase) Open(ctx context.Context, id string) (*entity.WidgetState, error) {
	return u.setOpen(ctx, id, func(bool) bool { return true })
}

func (u *chatUseCase) Close(ctx context.Context, id string) (*entity.WidgetState, error) {
	return u.setOpen(ctx, id, func(bool) bool { return false })
}

// setOpen flips visibility only; the message store is never touched
func (u *chatUseCase) setOpen(ctx context.Context, id string, next func(bool) bool) (*entity.WidgetState, error) {
	w, err := u.lookup(id)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return nil, ErrWidgetNotFound
	}
	w.open = next(w.open)
	w.lastActive = u.now()
	w.mu.Unlock()

	return u.state(ctx, w)
}

// Send runs one send. The check-and-set of awaiting happens under the widget
// lock, so at most one reply is pending per widget.
func (u *chatUseCase) Send(ctx context.Context, id, text string) ([]entity.Message, error) {
	w, err := u.lookup(id)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	switch {
	case w.disposed:
		w.mu.Unlock()
		return nil, ErrWidgetNotFound
	case !w.open:
		w.mu.Unlock()
		return nil, ErrWidgetClosed
	case w.awaiting || strings.TrimSpace(text) == "":
		w.mu.Unlock()
		return nil, ErrSendSuppressed
	}

	question := entity.Message{Role: entity.RoleUser, Text: text, Timestamp: u.now()}
	if err := u.chatRepo.Append(ctx, w.id, question); err != nil {
		w.mu.Unlock()
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	w.awaiting = true
	w.lastActive = u.now()
	w.mu.Unlock()

	reply, outcome, replyErr := u.reply(ctx, w, text)

	w.mu.Lock()
	w.awaiting = false
	w.lastActive = u.now()
	if replyErr != nil || w.disposed {
		w.mu.Unlock()
		return nil, ErrWidgetDisposed
	}
	answer := entity.Message{Role: entity.RoleModel, Text: reply, Timestamp: u.now()}
	if err := u.chatRepo.Append(ctx, w.id, answer); err != nil {
		w.mu.Unlock()
		return nil, fmt.Errorf("failed to save reply: %w", err)
	}
	w.mu.Unlock()

	u.archive(ctx, w.id, question, answer, outcome)

	return []entity.Message{question, answer}, nil
}

// reply produces the model-side text: live reply, demo notice or apology.
// Transport errors never escape; only widget teardown does.
func (u *chatUseCase) reply(ctx context.Context, w *widget, text string) (string, entity.Outcome, error) {
	log := logger.Ctx(ctx).With().Str(logger.FieldWidgetID, w.id).Logger()

	if w.demo {
		return u.demoReply(w)
	}

	callCtx, cancel := context.WithTimeout(w.ctx, u.opts.RequestTimeout)
	defer cancel()
	callCtx = logger.WithLogger(callCtx, log)

	session, err := u.ensureSession(callCtx, w)
	var answer string
	if err == nil {
		answer, err = session.SendMessage(callCtx, text)
	}

	if w.ctx.Err() != nil {
		return "", "", ErrWidgetDisposed
	}

	switch {
	case err == nil:
		return answer, entity.OutcomeReply, nil
	case errors.Is(err, repository.ErrNoCredential):
		log.Warn().Err(err).Msg("no credential, answering in demo mode")
		return u.demoReply(w)
	default:
		log.Error().Err(err).Msg("chat transport failed")
		return ApologyText, entity.OutcomeApology, nil
	}
}

func (u *chatUseCase) demoReply(w *widget) (string, entity.Outcome, error) {
	if u.opts.DemoDelay > 0 {
		timer := time.NewTimer(u.opts.DemoDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-w.ctx.Done():
			return "", "", ErrWidgetDisposed
		}
	}
	return DemoNoticeText, entity.OutcomeDemo, nil
}

// ensureSession creates the widget's session on first use. Callers hold the
// awaiting flag, so no two goroutines get here for the same widget.
func (u *chatUseCase) ensureSession(ctx context.Context, w *widget) (repository.ChatSession, error) {
	w.mu.Lock()
	session := w.session
	w.mu.Unlock()
	if session != nil {
		return session, nil
	}

	session, err := u.aiRepo.NewSession(ctx)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.session = session
	w.mu.Unlock()

	logger.Ctx(ctx).Debug().Msg("chat session created")
	return session, nil
}

func (u *chatUseCase) archive(ctx context.Context, widgetID string, question, answer entity.Message, outcome entity.Outcome) {
	if u.transcripts == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	exchange := entity.Exchange{
		ID:         uuid.New().String(),
		WidgetID:   widgetID,
		Question:   question.Text,
		Answer:     answer.Text,
		Outcome:    outcome,
		AskedAt:    question.Timestamp,
		AnsweredAt: answer.Timestamp,
	}
	if err := u.transcripts.SaveExchange(ctx, exchange); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str(logger.FieldWidgetID, widgetID).Msg("failed to archive exchange")
	}
}

// Dispose unmounts the widget and drops its store
func (u *chatUseCase) Dispose(ctx context.Context, id string) error {
	u.mu.Lock()
	w, ok := u.widgets[id]
	if ok {
		delete(u.widgets, id)
	}
	u.mu.Unlock()

	if !ok {
		return ErrWidgetNotFound
	}

	u.teardown(ctx, w)
	return nil
}

func (u *chatUseCase) teardown(ctx context.Context, w *widget) {
	w.mu.Lock()
	w.disposed = true
	w.session = nil
	w.mu.Unlock()
	w.cancel()

	if err := u.chatRepo.Drop(ctx, w.id); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str(logger.FieldWidgetID, w.id).Msg("failed to drop message store")
	}
	logger.Ctx(ctx).Info().Str(logger.FieldWidgetID, w.id).Msg("chat widget disposed")
}

// EvictIdle disposes widgets without a pending reply idle longer than the TTL
func (u *chatUseCase) EvictIdle(ctx context.Context) int {
	cutoff := u.now().Add(-u.opts.WidgetTTL)

	var stale []*widget
	u.mu.Lock()
	for id, w := range u.widgets {
		w.mu.Lock()
		idle := !w.awaiting && w.lastActive.Before(cutoff)
		w.mu.Unlock()
		if idle {
			delete(u.widgets, id)
			stale = append(stale, w)
		}
	}
	u.mu.Unlock()

	for _, w := range stale {
		u.teardown(ctx, w)
	}
	return len(stale)
}

// Run evicts idle widgets until ctx is done, then disposes the rest
func (u *chatUseCase) Run(ctx context.Context) error {
	interval := u.opts.WidgetTTL / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			u.disposeAll(context.WithoutCancel(ctx))
			return ctx.Err()
		case <-ticker.C:
			if n := u.EvictIdle(ctx); n > 0 {
				logger.Ctx(ctx).Info().Int("evicted", n).Msg("idle chat widgets evicted")
			}
		}
	}
}

func (u *chatUseCase) disposeAll(ctx context.Context) {
	u.mu.Lock()
	all := make([]*widget, 0, len(u.widgets))
	for id, w := range u.widgets {
		delete(u.widgets, id)
		all = append(all, w)
	}
	u.mu.Unlock()

	for _, w := range all {
		u.teardown(ctx, w)
	}
}

func (u *chatUseCase) lookup(id string) (*widget, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	w, ok := u.widgets[id]
	if !ok {
		return nil, ErrWidgetNotFound
	}
	return w, nil
}

func (u *chatUseCase) state(ctx context.Context, w *widget) (*entity.WidgetState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.disposed {
		return nil, ErrWidgetNotFound
	}

	messages, err := u.chatRepo.History(ctx, w.id, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	return &entity.WidgetState{
		ID:       w.id,
		Open:     w.open,
		Awaiting: w.awaiting,
		DemoMode: w.demo,
		Messages: messages,
	}, nil
}
