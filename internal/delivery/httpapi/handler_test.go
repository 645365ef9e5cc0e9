package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexdev/devbot/internal/domain/entity"
	"github.com/alexdev/devbot/internal/domain/repository"
	"github.com/alexdev/devbot/internal/infrastructure/storage"
	"github.com/alexdev/devbot/internal/usecase"
)

type echoSession struct{}

func (echoSession) SendMessage(ctx context.Context, text string) (string, error) {
	return "echo: " + text, nil
}

type echoAI struct{}

func (echoAI) NewSession(ctx context.Context) (repository.ChatSession, error) {
	return echoSession{}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorInfo      `json:"error"`
}

func newRouter(t *testing.T, withArchive bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var transcripts repository.TranscriptRepository
	if withArchive {
		repo, err := storage.NewSQLiteTranscriptRepository(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = repo.Close() })
		transcripts = repo
	}

	chat := usecase.NewChatUseCase(echoAI{}, storage.NewMemoryChatRepository(0), transcripts, usecase.ChatOptions{})
	contact := usecase.NewContactUseCase(usecase.ContactOptions{SubmitDelay: time.Hour, ResetDelay: time.Hour})
	portfolio := usecase.NewPortfolioUseCase(storage.NewMemoryPortfolioRepository(storage.BuiltinCatalog()), nil)

	r := gin.New()
	NewHandler(chat, contact, portfolio, transcripts).RegisterRoutes(r)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func createWidget(t *testing.T, r *gin.Engine) entity.WidgetState {
	t.Helper()
	w, env := do(t, r, http.MethodPost, "/api/v1/widgets", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var state entity.WidgetState
	require.NoError(t, json.Unmarshal(env.Data, &state))
	return state
}

func TestWidgetConversation(t *testing.T) {
	r := newRouter(t, true)
	state := createWidget(t, r)
	require.Len(t, state.Messages, 1)
	assert.Equal(t, usecase.GreetingText, state.Messages[0].Text)

	w, env := do(t, r, http.MethodPost, "/api/v1/widgets/"+state.ID+"/messages", SendRequest{Text: "hi"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "WIDGET_CLOSED", env.Error.Code)

	w, _ = do(t, r, http.MethodPost, "/api/v1/widgets/"+state.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = do(t, r, http.MethodPost, "/api/v1/widgets/"+state.ID+"/messages", SendRequest{Text: "hi"})
	require.Equal(t, http.StatusOK, w.Code)
	var result SendResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.Len(t, result.Messages, 2)
	assert.Equal(t, "echo: hi", result.Messages[1].Text)

	w, env = do(t, r, http.MethodPost, "/api/v1/widgets/"+state.ID+"/messages", SendRequest{Text: "  "})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SEND_SUPPRESSED", env.Error.Code)

	w, env = do(t, r, http.MethodGet, "/api/v1/transcripts?widget_id="+state.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var exchanges []entity.Exchange
	require.NoError(t, json.Unmarshal(env.Data, &exchanges))
	require.Len(t, exchanges, 1)
	assert.Equal(t, entity.OutcomeReply, exchanges[0].Outcome)

	w, _ = do(t, r, http.MethodDelete, "/api/v1/widgets/"+state.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, env = do(t, r, http.MethodGet, "/api/v1/widgets/"+state.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
}

func TestSendRejectsMalformedBody(t *testing.T) {
	r := newRouter(t, false)
	state := createWidget(t, r)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/widgets/"+state.ID+"/messages", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContactEndpoints(t *testing.T) {
	r := newRouter(t, false)

	w, env := do(t, r, http.MethodPost, "/api/v1/contact", ContactRequest{Name: "Jane", Email: "nope", Message: "hi"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_FORM", env.Error.Code)

	w, env = do(t, r, http.MethodPost, "/api/v1/contact", ContactRequest{Name: "Jane", Email: "jane@example.com", Message: "hi"})
	require.Equal(t, http.StatusAccepted, w.Code)
	var form entity.ContactForm
	require.NoError(t, json.Unmarshal(env.Data, &form))
	assert.Equal(t, entity.ContactSubmitting, form.Status)

	w, env = do(t, r, http.MethodGet, "/api/v1/contact/"+form.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &form))
	assert.Equal(t, entity.ContactSubmitting, form.Status)

	w, _ = do(t, r, http.MethodGet, "/api/v1/contact/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPortfolioEndpoints(t *testing.T) {
	r := newRouter(t, false)

	w, env := do(t, r, http.MethodGet, "/api/v1/skills?category=devops", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var skills []entity.Skill
	require.NoError(t, json.Unmarshal(env.Data, &skills))
	require.NotEmpty(t, skills)
	for _, s := range skills {
		assert.Equal(t, entity.CategoryDevOps, s.Category)
	}

	w, _ = do(t, r, http.MethodGet, "/api/v1/skills?category=baking", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = do(t, r, http.MethodGet, "/api/v1/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var projects []entity.Project
	require.NoError(t, json.Unmarshal(env.Data, &projects))
	require.Len(t, projects, 3)

	w, _ = do(t, r, http.MethodGet, "/api/v1/projects/"+projects[0].ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/v1/projects/404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTranscriptsDisabled(t *testing.T) {
	r := newRouter(t, false)

	w, env := do(t, r, http.MethodGet, "/api/v1/transcripts", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "ARCHIVE_DISABLED", env.Error.Code)
}

func TestHealth(t *testing.T) {
	r := newRouter(t, false)

	w, env := do(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"demo_mode":false`)
}
