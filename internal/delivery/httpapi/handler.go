package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexdev/devbot/internal/domain/entity"
	"github.com/alexdev/devbot/internal/domain/repository"
	"github.com/alexdev/devbot/internal/logger"
	"github.com/alexdev/devbot/internal/usecase"
)

const maxTranscriptLimit = 500

// SendRequest body of POST /widgets/:id/messages
type SendRequest struct {
	Text string `json:"text"`
}

// ContactRequest body of POST /contact
type ContactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// SendResult messages appended by one send
type SendResult struct {
	Messages []entity.Message `json:"messages"`
}

// Handler HTTP surface of the portfolio backend
type Handler struct {
	chat        usecase.ChatUseCase
	contact     usecase.ContactUseCase
	portfolio   usecase.PortfolioUseCase
	transcripts repository.TranscriptRepository
	startedAt   time.Time
}

// NewHandler transcripts may be nil when the archive is disabled
func NewHandler(
	chat usecase.ChatUseCase,
	contact usecase.ContactUseCase,
	portfolio usecase.PortfolioUseCase,
	transcripts repository.TranscriptRepository,
) *Handler {
	return &Handler{
		chat:        chat,
		contact:     contact,
		portfolio:   portfolio,
		transcripts: transcripts,
		startedAt:   time.Now(),
	}
}

// RegisterRoutes registers all routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api/v1")
	{
		widgets := api.Group("/widgets")
		{
			widgets.POST("", h.CreateWidget)
			widgets.GET("/:id", h.GetWidget)
			widgets.POST("/:id/toggle", h.ToggleWidget)
			widgets.POST("/:id/open", h.OpenWidget)
			widgets.POST("/:id/close", h.CloseWidget)
			widgets.POST("/:id/messages", h.SendMessage)
			widgets.DELETE("/:id", h.DisposeWidget)
		}

		api.POST("/contact", h.SubmitContact)
		api.GET("/contact/:id", h.ContactStatus)

		api.GET("/skills", h.ListSkills)
		api.GET("/projects", h.ListProjects)
		api.GET("/projects/:id", h.GetProject)

		api.GET("/transcripts", h.ListTranscripts)
	}
}

// Health liveness plus the credential mode
func (h *Handler) Health(c *gin.Context) {
	success(c, gin.H{
		"status":    "ok",
		"demo_mode": h.chat.DemoMode(),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// CreateWidget mounts a widget
func (h *Handler) CreateWidget(c *gin.Context) {
	ctx := c.Request.Context()

	state, err := h.chat.CreateWidget(ctx)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to create widget")
		internalError(c, "failed to create widget")
		return
	}

	created(c, state)
}

func (h *Handler) GetWidget(c *gin.Context) {
	state, err := h.chat.GetWidget(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.widgetError(c, err, "failed to get widget")
		return
	}
	success(c, state)
}

func (h *Handler) ToggleWidget(c *gin.Context) {
	state, err := h.chat.Toggle(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.widgetError(c, err, "failed to toggle widget")
		return
	}
	success(c, state)
}

func (h *Handler) OpenWidget(c *gin.Context) {
	state, err := h.chat.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.widgetError(c, err, "failed to open widget")
		return
	}
	success(c, state)
}

func (h *Handler) CloseWidget(c *gin.Context) {
	state, err := h.chat.Close(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.widgetError(c, err, "failed to close widget")
		return
	}
	success(c, state)
}

// SendMessage runs one send and returns the two appended messages
func (h *Handler) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("failed to bind send request")
		badRequest(c, err.Error())
		return
	}

	messages, err := h.chat.Send(ctx, c.Param("id"), req.Text)
	if err != nil {
		h.widgetError(c, err, "failed to send message")
		return
	}

	success(c, SendResult{Messages: messages})
}

func (h *Handler) DisposeWidget(c *gin.Context) {
	if err := h.chat.Dispose(c.Request.Context(), c.Param("id")); err != nil {
		h.widgetError(c, err, "failed to dispose widget")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) widgetError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, usecase.ErrWidgetNotFound):
		notFound(c, "widget not found")
	case errors.Is(err, usecase.ErrWidgetClosed):
		fail(c, http.StatusConflict, "WIDGET_CLOSED", "open the widget before sending")
	case errors.Is(err, usecase.ErrSendSuppressed):
		fail(c, http.StatusConflict, "SEND_SUPPRESSED", "message is empty or a reply is still pending")
	case errors.Is(err, usecase.ErrWidgetDisposed):
		fail(c, http.StatusGone, "WIDGET_DISPOSED", "widget was closed while the reply was pending")
	default:
		logger.Ctx(c.Request.Context()).Error().Err(err).Str(logger.FieldWidgetID, c.Param("id")).Msg(message)
		internalError(c, message)
	}
}

// SubmitContact creates a form and submits it
func (h *Handler) SubmitContact(c *gin.Context) {
	ctx := c.Request.Context()

	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	form, err := h.contact.Submit(ctx, "", entity.ContactFields{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidForm):
			fail(c, http.StatusUnprocessableEntity, "INVALID_FORM", err.Error())
		case errors.Is(err, usecase.ErrFormBusy):
			fail(c, http.StatusConflict, "FORM_BUSY", "form is already being submitted")
		default:
			logger.Ctx(ctx).Error().Err(err).Msg("failed to submit contact form")
			internalError(c, "failed to submit contact form")
		}
		return
	}

	accepted(c, form)
}

func (h *Handler) ContactStatus(c *gin.Context) {
	form, err := h.contact.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrFormNotFound) {
			notFound(c, "contact form not found")
			return
		}
		internalError(c, "failed to get contact form")
		return
	}
	success(c, form)
}

// ListSkills optional ?category=
func (h *Handler) ListSkills(c *gin.Context) {
	ctx := c.Request.Context()

	skills, err := h.portfolio.Skills(ctx, c.Query("category"))
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownCategory) {
			badRequest(c, err.Error())
			return
		}
		logger.Ctx(ctx).Error().Err(err).Msg("failed to list skills")
		internalError(c, "failed to list skills")
		return
	}
	success(c, skills)
}

// ListProjects optional ?tag=
func (h *Handler) ListProjects(c *gin.Context) {
	ctx := c.Request.Context()

	projects, err := h.portfolio.Projects(ctx, c.Query("tag"))
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to list projects")
		internalError(c, "failed to list projects")
		return
	}
	success(c, projects)
}

func (h *Handler) GetProject(c *gin.Context) {
	ctx := c.Request.Context()

	project, err := h.portfolio.Project(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			notFound(c, "project not found")
			return
		}
		logger.Ctx(ctx).Error().Err(err).Msg("failed to get project")
		internalError(c, "failed to get project")
		return
	}
	success(c, project)
}

// ListTranscripts archived exchanges, oldest first
func (h *Handler) ListTranscripts(c *gin.Context) {
	ctx := c.Request.Context()

	if h.transcripts == nil {
		fail(c, http.StatusServiceUnavailable, "ARCHIVE_DISABLED", "transcript archive is not configured")
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(n, maxTranscriptLimit)
	}

	exchanges, err := h.transcripts.ListExchanges(ctx, c.Query("widget_id"), limit)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to list transcripts")
		internalError(c, "failed to list transcripts")
		return
	}
	success(c, exchanges)
}
