package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every setting the service reads from the environment.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Auth      AuthConfig
	Providers ProvidersConfig
	Context   ContextConfig
	HTTP      HTTPConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	contextCfg, err := loadContextConfig()
	if err != nil {
		return nil, err
	}

	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Store:     StoreConfig{Path: getEnvOrDefault("SQLITE_PATH", "data/chatbot.db")},
		Auth:      auth,
		Providers: loadProvidersConfig(),
		Context:   contextCfg,
		HTTP:      httpCfg,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5000"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":5000" or "127.0.0.1:5000" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// StoreConfig describes the SQLite database location.
type StoreConfig struct {
	Path string
}

// AuthConfig describes token signing secrets and lifetimes.
type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func loadAuthConfig() (AuthConfig, error) {
	accessSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if accessSecret == "" {
		return AuthConfig{}, fmt.Errorf("JWT_SECRET must be set")
	}

	refreshSecret := strings.TrimSpace(os.Getenv("JWT_REFRESH_SECRET"))
	if refreshSecret == "" {
		return AuthConfig{}, fmt.Errorf("JWT_REFRESH_SECRET must be set")
	}

	accessMinutes, err := parseIntEnv("JWT_ACCESS_TTL_MINUTES", 15)
	if err != nil {
		return AuthConfig{}, err
	}

	refreshHours, err := parseIntEnv("JWT_REFRESH_TTL_HOURS", 7*24)
	if err != nil {
		return AuthConfig{}, err
	}

	return AuthConfig{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     time.Duration(accessMinutes) * time.Minute,
		RefreshTTL:    time.Duration(refreshHours) * time.Hour,
	}, nil
}

// ProviderConfig describes one completion backend.
type ProviderConfig struct {
	APIKey      string
	Model       string
	VisionModel string
	BaseURL     string
}

// ProvidersConfig holds both backends. Gemini is the primary, Groq the
// fallback.
type ProvidersConfig struct {
	Gemini ProviderConfig
	Groq   ProviderConfig
}

func loadProvidersConfig() ProvidersConfig {
	return ProvidersConfig{
		Gemini: ProviderConfig{
			APIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			Model:   getEnvOrDefault("GEMINI_MODEL", ""),
			BaseURL: getEnvOrDefault("GEMINI_BASE_URL", ""),
		},
		Groq: ProviderConfig{
			APIKey:      strings.TrimSpace(os.Getenv("GROQ_API_KEY")),
			Model:       getEnvOrDefault("GROQ_MODEL", ""),
			VisionModel: getEnvOrDefault("GROQ_VISION_MODEL", ""),
			BaseURL:     getEnvOrDefault("GROQ_BASE_URL", ""),
		},
	}
}

// ContextConfig tunes the prompt context windows.
type ContextConfig struct {
	ShortTermLimit          int
	RecentConversations     int
	MessagesPerConversation int
}

func loadContextConfig() (ContextConfig, error) {
	shortTerm, err := parseIntEnv("CONTEXT_SHORT_TERM_LIMIT", 6)
	if err != nil {
		return ContextConfig{}, err
	}

	recentChats, err := parseIntEnv("CONTEXT_RECENT_CHATS", 4)
	if err != nil {
		return ContextConfig{}, err
	}

	perChat, err := parseIntEnv("CONTEXT_MESSAGES_PER_CHAT", 2)
	if err != nil {
		return ContextConfig{}, err
	}

	return ContextConfig{
		ShortTermLimit:          shortTerm,
		RecentConversations:     recentChats,
		MessagesPerConversation: perChat,
	}, nil
}

// HTTPConfig tunes the request-layer limits.
type HTTPConfig struct {
	MaxUploadBytes int64
	RateLimitRPM   int
	RateLimitBurst int
}

func loadHTTPConfig() (HTTPConfig, error) {
	uploadMB, err := parseIntEnv("MAX_UPLOAD_MB", 5)
	if err != nil {
		return HTTPConfig{}, err
	}

	rpm, err := parseIntEnv("RATE_LIMIT_PER_MINUTE", 10)
	if err != nil {
		return HTTPConfig{}, err
	}

	burst, err := parseIntEnv("RATE_LIMIT_BURST", 10)
	if err != nil {
		return HTTPConfig{}, err
	}

	return HTTPConfig{
		MaxUploadBytes: int64(uploadMB) << 20,
		RateLimitRPM:   rpm,
		RateLimitBurst: burst,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
