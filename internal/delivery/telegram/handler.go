package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/alexdev/devbot/internal/logger"
	"github.com/alexdev/devbot/internal/usecase"
)

const (
	// Telegram rejects longer texts
	maxMessageLen = 4096
	maxUploadSize = 5 * 1024 * 1024
)

// sender the part of the Bot API the handler talks to
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BotHandler Telegram front end: every chat is one chat widget
type BotHandler struct {
	bot    *tgbotapi.BotAPI
	sender sender
	log    zerolog.Logger

	chatUseCase      usecase.ChatUseCase
	contactUseCase   usecase.ContactUseCase
	portfolioUseCase usecase.PortfolioUseCase

	admins   map[int64]bool
	download func(fileID string) ([]byte, error)
}

// NewBotHandler connects to the Bot API with token
func NewBotHandler(
	token string,
	adminIDs []int64,
	chatUseCase usecase.ChatUseCase,
	contactUseCase usecase.ContactUseCase,
	portfolioUseCase usecase.PortfolioUseCase,
	log zerolog.Logger,
) (*BotHandler, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	h := newBotHandler(bot, adminIDs, chatUseCase, contactUseCase, portfolioUseCase, log)
	h.bot = bot
	h.download = h.downloadFile
	return h, nil
}

func newBotHandler(
	s sender,
	adminIDs []int64,
	chatUseCase usecase.ChatUseCase,
	contactUseCase usecase.ContactUseCase,
	portfolioUseCase usecase.PortfolioUseCase,
	log zerolog.Logger,
) *BotHandler {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}

	return &BotHandler{
		sender:           s,
		log:              log.With().Str(logger.FieldService, "telegram").Logger(),
		chatUseCase:      chatUseCase,
		contactUseCase:   contactUseCase,
		portfolioUseCase: portfolioUseCase,
		admins:           admins,
	}
}

// Start long-polls updates until ctx is done
func (h *BotHandler) Start(ctx context.Context) error {
	h.log.Info().Str("bot", h.bot.Self.UserName).Msg("telegram bot started")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)
	defer h.bot.StopReceivingUpdates()

	return h.serve(ctx, updates)
}

// serve dispatches updates until ctx is done or the channel closes, then
// waits for the in-flight handlers.
func (h *BotHandler) serve(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("telegram bot stopping")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}

			wg.Add(1)
			go func(message *tgbotapi.Message) {
				defer wg.Done()
				h.handleMessage(ctx, message)
			}(update.Message)
		}
	}
}

// WidgetID widget key for a Telegram chat
func WidgetID(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

func (h *BotHandler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}

	ctx = logger.WithLogger(ctx, h.log.With().
		Int64(logger.FieldChatID, message.Chat.ID).
		Str(logger.FieldWidgetID, WidgetID(message.Chat.ID)).
		Logger())

	switch {
	case message.Document != nil:
		h.handleDocumentMessage(ctx, message)
	case message.IsCommand():
		h.handleCommand(ctx, message)
	case message.Text != "":
		h.handleTextMessage(ctx, message)
	}
}

func (h *BotHandler) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		h.handleStartCommand(ctx, message)
	case "stop":
		h.handleStopCommand(ctx, message)
	case "help":
		h.sendMessage(message.Chat.ID, helpMessage())
	case "history":
		h.handleHistoryCommand(ctx, message)
	case "skills":
		h.handleSkillsCommand(ctx, message)
	case "projects":
		h.handleProjectsCommand(ctx, message)
	case "contact":
		h.handleContactCommand(ctx, message)
	default:
		h.sendMessage(message.Chat.ID, "Unknown command. Try /help.")
	}
}

// handleStartCommand mounts and opens the chat's widget
func (h *BotHandler) handleStartCommand(ctx context.Context, message *tgbotapi.Message) {
	id := WidgetID(message.Chat.ID)

	if _, err := h.chatUseCase.EnsureWidget(ctx, id); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to mount widget")
		h.sendMessage(message.Chat.ID, "Something went wrong, please try again.")
		return
	}

	state, err := h.chatUseCase.Open(ctx, id)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to open widget")
		h.sendMessage(message.Chat.ID, "Something went wrong, please try again.")
		return
	}

	// a fresh widget holds just the greeting; a reopened one is shown as is
	greeting := usecase.GreetingText
	if len(state.Messages) > 1 {
		greeting = "Welcome back! Your conversation is right where you left it. /history shows it."
	}
	if state.DemoMode {
		greeting += "\n\n(demo mode)"
	}
	h.sendMessage(message.Chat.ID, greeting)
}

func (h *BotHandler) handleStopCommand(ctx context.Context, message *tgbotapi.Message) {
	if _, err := h.chatUseCase.Close(ctx, WidgetID(message.Chat.ID)); err != nil {
		if errors.Is(err, usecase.ErrWidgetNotFound) {
			h.sendMessage(message.Chat.ID, "The chat is not open. Send /start to begin.")
			return
		}
		logger.Ctx(ctx).Error().Err(err).Msg("failed to close widget")
		return
	}
	h.sendMessage(message.Chat.ID, "Chat closed. Your messages are kept; /start opens it again.")
}

func (h *BotHandler) handleHistoryCommand(ctx context.Context, message *tgbotapi.Message) {
	state, err := h.chatUseCase.GetWidget(ctx, WidgetID(message.Chat.ID))
	if err != nil {
		h.sendMessage(message.Chat.ID, "No conversation yet. Send /start to begin.")
		return
	}

	h.sendLong(message.Chat.ID, FormatHistory(state.Messages))
}

func (h *BotHandler) handleSkillsCommand(ctx context.Context, message *tgbotapi.Message) {
	skills, err := h.portfolioUseCase.Skills(ctx, message.CommandArguments())
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownCategory) {
			h.sendMessage(message.Chat.ID, "Unknown category. Try Frontend, Backend, DevOps or AI.")
			return
		}
		logger.Ctx(ctx).Error().Err(err).Msg("failed to list skills")
		h.sendMessage(message.Chat.ID, "Failed to load skills.")
		return
	}

	h.sendLong(message.Chat.ID, FormatSkills(skills))
}

func (h *BotHandler) handleProjectsCommand(ctx context.Context, message *tgbotapi.Message) {
	projects, err := h.portfolioUseCase.Projects(ctx, message.CommandArguments())
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to list projects")
		h.sendMessage(message.Chat.ID, "Failed to load projects.")
		return
	}

	h.sendLong(message.Chat.ID, FormatProjects(projects))
}

// handleContactCommand /contact name | email | message
func (h *BotHandler) handleContactCommand(ctx context.Context, message *tgbotapi.Message) {
	fields, ok := ParseContactArgs(message.CommandArguments())
	if !ok {
		h.sendMessage(message.Chat.ID, "Usage: /contact Your Name | you@example.com | Your message")
		return
	}

	form, err := h.contactUseCase.Submit(ctx, "", fields)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidForm) {
			h.sendMessage(message.Chat.ID, "Please check the form: "+strings.TrimPrefix(err.Error(), usecase.ErrInvalidForm.Error()+": "))
			return
		}
		logger.Ctx(ctx).Error().Err(err).Msg("failed to submit contact form")
		h.sendMessage(message.Chat.ID, "Failed to send the message.")
		return
	}

	logger.Ctx(ctx).Info().Str(logger.FieldFormID, form.ID).Msg("contact form received")
	h.sendMessage(message.Chat.ID, "Thanks! Your message is on its way.")
}

// handleTextMessage plain text is a send on the chat's widget
func (h *BotHandler) handleTextMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if _, err := h.sender.Send(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		logger.Ctx(ctx).Debug().Err(err).Msg("typing action failed")
	}

	appended, err := h.chatUseCase.Send(ctx, WidgetID(chatID), message.Text)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrWidgetNotFound), errors.Is(err, usecase.ErrWidgetClosed):
			h.sendMessage(chatID, "The chat is closed. Send /start to open it.")
		case errors.Is(err, usecase.ErrSendSuppressed):
			h.sendMessage(chatID, "Still thinking about your last message...")
		case errors.Is(err, usecase.ErrWidgetDisposed):
			// torn down mid-reply
		default:
			logger.Ctx(ctx).Error().Err(err).Msg("send failed")
			h.sendMessage(chatID, usecase.ApologyText)
		}
		return
	}

	h.sendLong(chatID, appended[len(appended)-1].Text)
}

// handleDocumentMessage catalog workbook upload, admins only
func (h *BotHandler) handleDocumentMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if message.From == nil || !h.admins[message.From.ID] {
		h.sendMessage(chatID, "Only the site owner can upload files.")
		return
	}

	doc := message.Document
	if doc.FileSize > maxUploadSize {
		h.sendMessage(chatID, "The file must not exceed 5MB.")
		return
	}
	if !strings.HasSuffix(strings.ToLower(doc.FileName), ".xlsx") {
		h.sendMessage(chatID, "Only .xlsx workbooks are accepted.")
		return
	}

	data, err := h.download(doc.FileID)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("file download failed")
		h.sendMessage(chatID, "Failed to download the file.")
		return
	}

	catalog, err := h.portfolioUseCase.ImportCatalogFromBytes(ctx, data, doc.FileName)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("file", doc.FileName).Msg("catalog import failed")
		h.sendMessage(chatID, fmt.Sprintf("Failed to import the catalog: %v", err))
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("Catalog updated from %s: %d projects, %d skills.\nNew chats will see the new project list.",
		doc.FileName, len(catalog.Projects), len(catalog.Skills)))
}

func (h *BotHandler) downloadFile(fileID string) ([]byte, error) {
	url, err := h.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxUploadSize+1))
}

func (h *BotHandler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.sender.Send(msg); err != nil {
		h.log.Error().Err(err).Int64(logger.FieldChatID, chatID).Msg("failed to send message")
	}
}

// sendLong splits text over several messages when needed
func (h *BotHandler) sendLong(chatID int64, text string) {
	for _, part := range SplitMessage(text, maxMessageLen) {
		h.sendMessage(chatID, part)
	}
}

func helpMessage() string {
	return `I'm DevBot, Alex's portfolio assistant.

/start - open the chat
/stop - close the chat (messages are kept)
/history - show the conversation
/skills [category] - skills, e.g. /skills backend
/projects [tag] - projects, e.g. /projects react
/contact Name | email | message - leave a message

Anything else you type is sent to me.`
}
