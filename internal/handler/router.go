package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	authhandler "github.com/vraj62023/MultimodalChatbot/internal/handler/auth"
	chathandler "github.com/vraj62023/MultimodalChatbot/internal/handler/chat"
	"github.com/vraj62023/MultimodalChatbot/internal/middleware"
	authservice "github.com/vraj62023/MultimodalChatbot/internal/service/auth"
	chatservice "github.com/vraj62023/MultimodalChatbot/internal/service/chat"
	"github.com/vraj62023/MultimodalChatbot/pkg/utils"
)

// Config carries the router tuning knobs.
type Config struct {
	MaxUploadBytes int64
	RateLimitRPM   int
	RateLimitBurst int
}

// NewRouter wires HTTP routes to core services.
func NewRouter(authSvc *authservice.Service, chatSvc *chatservice.Service, cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS)

	authHandler := authhandler.New(authSvc)
	chatHandler := chathandler.New(chatSvc, cfg.MaxUploadBytes)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPM, cfg.RateLimitBurst)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/auth", authHandler.RegisterRoutes)

		api.Route("/chats", func(chats chi.Router) {
			chats.Use(middleware.RequireAuth(authSvc))
			chatHandler.RegisterRoutes(chats, limiter.Handler)
		})
	})

	return r
}
