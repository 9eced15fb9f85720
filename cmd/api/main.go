package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vraj62023/MultimodalChatbot/internal/config"
	"github.com/vraj62023/MultimodalChatbot/internal/handler"
	"github.com/vraj62023/MultimodalChatbot/internal/provider/gemini"
	"github.com/vraj62023/MultimodalChatbot/internal/provider/groq"
	aiservice "github.com/vraj62023/MultimodalChatbot/internal/service/ai"
	authservice "github.com/vraj62023/MultimodalChatbot/internal/service/auth"
	chatservice "github.com/vraj62023/MultimodalChatbot/internal/service/chat"
	"github.com/vraj62023/MultimodalChatbot/internal/store/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load .env file
	if err := godotenv.Load(); err != nil {
		logger.Warn("failed to load .env file, continuing with system environment", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.Open(cfg.Store.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Store.Path, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	users := sqlite.NewUsers(db)
	conversations := sqlite.NewConversations(db)

	authSvc := authservice.NewService(users, authservice.Config{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
	})

	primary := gemini.New(gemini.Config{
		APIKey:  cfg.Providers.Gemini.APIKey,
		Model:   cfg.Providers.Gemini.Model,
		BaseURL: cfg.Providers.Gemini.BaseURL,
	})
	secondary := groq.New(groq.Config{
		APIKey:      cfg.Providers.Groq.APIKey,
		Model:       cfg.Providers.Groq.Model,
		VisionModel: cfg.Providers.Groq.VisionModel,
		BaseURL:     cfg.Providers.Groq.BaseURL,
	})
	aiSvc := aiservice.NewService(primary, secondary, logger)

	chatSvc := chatservice.NewService(conversations, aiSvc, chatservice.Options{
		ShortTermLimit:          cfg.Context.ShortTermLimit,
		RecentConversations:     cfg.Context.RecentConversations,
		MessagesPerConversation: cfg.Context.MessagesPerConversation,
	}, logger)

	router := handler.NewRouter(authSvc, chatSvc, handler.Config{
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
		RateLimitRPM:   cfg.HTTP.RateLimitRPM,
		RateLimitBurst: cfg.HTTP.RateLimitBurst,
	})

	startServer(ctx, logger, cfg.Server, router)
}

func startServer(ctx context.Context, logger *slog.Logger, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("chatbot backend listening", "addr", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
