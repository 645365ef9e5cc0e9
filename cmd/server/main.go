package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/alexdev/devbot/config"
	"github.com/alexdev/devbot/internal/delivery/httpapi"
	"github.com/alexdev/devbot/internal/delivery/telegram"
	"github.com/alexdev/devbot/internal/domain/repository"
	"github.com/alexdev/devbot/internal/infrastructure/gemini"
	"github.com/alexdev/devbot/internal/infrastructure/parser"
	"github.com/alexdev/devbot/internal/infrastructure/storage"
	"github.com/alexdev/devbot/internal/logger"
	"github.com/alexdev/devbot/internal/telemetry"
	"github.com/alexdev/devbot/internal/usecase"
)

const serviceName = "devbot"

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// run logs its own error before closing the log file
	if err := run(cfg); err != nil {
		os.Exit(1)
	}
}

// run wires and serves until a signal arrives. Every resource opened here is
// released by a defer, so errors are returned rather than fatal.
func run(cfg *config.Config) (err error) {
	logCloser := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Pretty:      cfg.LogPretty,
		ServiceName: serviceName,
		File:        cfg.LogFile,
	})
	defer logCloser.Close()
	log := logger.L()
	defer func() {
		if err != nil {
			log.Error().Err(err).Msg("devbot stopped with error")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	providers, err := telemetry.Init(ctx, serviceName, cfg.TelemetryFile, log)
	if err != nil {
		return fmt.Errorf("failed to init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	// Portfolio
	portfolioRepo := storage.NewMemoryPortfolioRepository(storage.BuiltinCatalog())
	portfolioUseCase := usecase.NewPortfolioUseCase(portfolioRepo, parser.NewExcelParser(log))
	if cfg.PortfolioCatalogPath != "" {
		if _, err := portfolioUseCase.ImportCatalog(ctx, cfg.PortfolioCatalogPath); err != nil {
			log.Warn().Err(err).Str("path", cfg.PortfolioCatalogPath).Msg("catalog import failed, using built-in catalog")
		}
	}

	// Chat transport; nil means demo mode
	var aiRepo repository.AIRepository
	if cfg.HasCredential() {
		aiRepo, err = gemini.NewGeminiClient(ctx, gemini.Options{
			APIKey:       cfg.GeminiAPIKey,
			Model:        cfg.GeminiModel,
			Temperature:  cfg.GeminiTemperature,
			SystemPrompt: portfolioUseCase.SystemPrompt,
			Tracer:       providers.Tracer,
			Meter:        providers.Meter,
		})
		if err != nil {
			return fmt.Errorf("failed to create Gemini client: %w", err)
		}
		if closer, ok := aiRepo.(io.Closer); ok {
			defer closer.Close()
		}
	} else {
		log.Warn().Msg("no GEMINI_API_KEY or API_KEY set, chat runs in demo mode")
	}

	// Transcript archive
	var transcripts repository.TranscriptRepository
	if cfg.ChatDBPath != "" {
		transcripts, err = storage.NewSQLiteTranscriptRepository(cfg.ChatDBPath)
		if err != nil {
			return fmt.Errorf("failed to open transcript archive %s: %w", cfg.ChatDBPath, err)
		}
		defer transcripts.Close()
	}

	chatUseCase := usecase.NewChatUseCase(
		aiRepo,
		storage.NewMemoryChatRepository(cfg.ChatMaxMessages),
		transcripts,
		usecase.ChatOptions{
			DemoDelay:      cfg.ChatDemoDelay,
			RequestTimeout: cfg.ChatRequestTimeout,
			WidgetTTL:      cfg.ChatWidgetTTL,
		},
	)
	contactUseCase := usecase.NewContactUseCase(usecase.ContactOptions{
		SubmitDelay: cfg.ContactSubmitDelay,
		ResetDelay:  cfg.ContactResetDelay,
	})

	// HTTP
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(log))
	httpapi.NewHandler(chatUseCase, contactUseCase, portfolioUseCase, transcripts).RegisterRoutes(r)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Bool("demo_mode", chatUseCase.DemoMode()).Msg("devbot starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		if err := chatUseCase.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBotHandler(cfg.TelegramToken, cfg.TelegramAdminIDs, chatUseCase, contactUseCase, portfolioUseCase, log)
		if err != nil {
			return fmt.Errorf("failed to create telegram bot: %w", err)
		}
		g.Go(func() error {
			if err := bot.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("devbot stopped")
	return nil
}
