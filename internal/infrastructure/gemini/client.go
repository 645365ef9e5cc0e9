package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"

	"github.com/alexdev/devbot/internal/domain/repository"
)

// EmptyReplyText stands in for a reply that carried no text parts
const EmptyReplyText = "I processed that, but couldn't generate a text response."

// Options Gemini client settings
type Options struct {
	APIKey      string
	Model       string
	Temperature float32

	// SystemPrompt is asked once per session, so catalog updates reach new chats
	SystemPrompt func(ctx context.Context) (string, error)

	// MaxConcurrent upstream calls in flight across all sessions
	MaxConcurrent int

	// MinInterval between two upstream calls
	MinInterval time.Duration

	Tracer trace.Tracer
	Meter  metric.Meter
}

type geminiClient struct {
	client *genai.Client
	opts   Options

	sem   chan struct{}
	mu    sync.Mutex
	last  time.Time
	delay time.Duration

	tracer   trace.Tracer
	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

// NewGeminiClient creates the Gemini-backed AIRepository.
// An empty API key yields repository.ErrNoCredential.
func NewGeminiClient(ctx context.Context, opts Options) (repository.AIRepository, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, repository.ErrNoCredential
	}
	if opts.Model == "" {
		opts.Model = "gemini-2.0-flash"
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 3
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	g := &geminiClient{
		client: client,
		opts:   opts,
		sem:    make(chan struct{}, opts.MaxConcurrent),
		delay:  opts.MinInterval,
		tracer: opts.Tracer,
	}

	if opts.Meter != nil {
		if g.requests, err = opts.Meter.Int64Counter(
			"gemini.requests",
			metric.WithDescription("Gemini chat requests by outcome"),
		); err != nil {
			return nil, fmt.Errorf("failed to create request counter: %w", err)
		}
		if g.latency, err = opts.Meter.Float64Histogram(
			"gemini.request.duration",
			metric.WithDescription("Gemini chat request duration in milliseconds"),
			metric.WithUnit("ms"),
		); err != nil {
			return nil, fmt.Errorf("failed to create latency histogram: %w", err)
		}
	}

	return g, nil
}

// NewSession starts a chat bound to the system prompt and temperature
func (g *geminiClient) NewSession(ctx context.Context) (repository.ChatSession, error) {
	model := g.client.GenerativeModel(g.opts.Model)
	model.SetTemperature(g.opts.Temperature)

	if g.opts.SystemPrompt != nil {
		prompt, err := g.opts.SystemPrompt(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to build system prompt: %w", err)
		}
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(prompt)},
		}
	}

	return &chatSession{owner: g, chat: model.StartChat()}, nil
}

// Close releases the underlying client
func (g *geminiClient) Close() error {
	return g.client.Close()
}

type chatSession struct {
	owner *geminiClient
	chat  *genai.ChatSession
}

// SendMessage single attempt, no retry
func (s *chatSession) SendMessage(ctx context.Context, text string) (string, error) {
	g := s.owner

	if g.tracer != nil {
		var span trace.Span
		ctx, span = g.tracer.Start(ctx, "gemini.send_message",
			trace.WithAttributes(attribute.String("gemini.model", g.opts.Model)))
		defer span.End()
	}

	release, err := g.acquire(ctx)
	if err != nil {
		return "", s.fail(ctx, time.Now(), err)
	}
	defer release()

	start := time.Now()
	resp, err := s.chat.SendMessage(ctx, genai.Text(text))
	if err != nil {
		return "", s.fail(ctx, start, err)
	}

	g.record(ctx, start, "ok")
	reply := extractText(resp)
	if strings.TrimSpace(reply) == "" {
		return EmptyReplyText, nil
	}
	return reply, nil
}

func (s *chatSession) fail(ctx context.Context, start time.Time, err error) error {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.owner.record(ctx, start, "error")
	return fmt.Errorf("%w: %w", repository.ErrTransport, err)
}

func (g *geminiClient) record(ctx context.Context, start time.Time, outcome string) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	if g.requests != nil {
		g.requests.Add(ctx, 1, attrs)
	}
	if g.latency != nil {
		g.latency.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
	}
}

// extractText concatenates the text parts of every candidate
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var result strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				result.WriteString(string(t))
			}
		}
	}
	return result.String()
}

// acquire bounds concurrency and spaces calls at least delay apart
func (g *geminiClient) acquire(ctx context.Context) (func(), error) {
	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	release := func() { <-g.sem }

	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if !g.last.IsZero() {
		if sleep := g.delay - now.Sub(g.last); sleep > 0 {
			timer := time.NewTimer(sleep)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				release()
				return nil, ctx.Err()
			}
			now = time.Now()
		}
	}
	g.last = now

	return release, nil
}
