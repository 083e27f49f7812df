package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting the backend reads from the environment.
type Config struct {
	Server    ServerConfig
	OpenAI    OpenAIConfig
	Duffel    DuffelConfig
	Hotelbeds HotelbedsConfig
	Google    GoogleConfig
	Stripe    StripeConfig
	Auth      AuthConfig
	SMTP      SMTPConfig
	Store     StoreConfig
	Demo      DemoConfig
	Log       LogConfig
}

// Load reads the full configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadOpenAIConfig()
	if err != nil {
		return nil, err
	}

	smtp, err := loadSMTPConfig()
	if err != nil {
		return nil, err
	}

	demo, err := loadDemoConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		OpenAI:    ai,
		Duffel:    loadDuffelConfig(),
		Hotelbeds: loadHotelbedsConfig(),
		Google:    loadGoogleConfig(),
		Stripe:    loadStripeConfig(),
		Auth:      loadAuthConfig(),
		SMTP:      smtp,
		Store:     loadStoreConfig(),
		Demo:      demo,
		Log:       logCfg,
	}, nil
}

// ServerConfig describes the HTTP listen address.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		// The original container contract exposes 8000.
		port = "8000"
	}

	if strings.Contains(port, ":") {
		// Accept ":8000" or "127.0.0.1:8000" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// OpenAIConfig holds chat-model settings. The backend runs in demo mode
// when no API key is configured.
type OpenAIConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	StreamResponse bool
}

// Enabled reports whether the key required for live replies is present.
func (c OpenAIConfig) Enabled() bool {
	return c.APIKey != "" && c.Model != ""
}

// NewChatModel builds the eino chat model from this configuration.
func (c OpenAIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("OPENAI_API_KEY and OPENAI_MODEL are required for agent mode")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &openai.ChatModelConfig{
		BaseURL:     c.BaseURL,
		APIKey:      c.APIKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return openai.NewChatModel(ctx, cfg)
}

func loadOpenAIConfig() (OpenAIConfig, error) {
	temperature, err := parseOptionalFloatEnv("OPENAI_TEMPERATURE")
	if err != nil {
		return OpenAIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("OPENAI_TOP_P")
	if err != nil {
		return OpenAIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("OPENAI_MAX_TOKENS")
	if err != nil {
		return OpenAIConfig{}, err
	}

	stream, err := parseBoolEnv("OPENAI_STREAM", true)
	if err != nil {
		return OpenAIConfig{}, err
	}

	return OpenAIConfig{
		APIKey:         strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		Model:          getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		BaseURL:        strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
		StreamResponse: stream,
	}, nil
}

// DuffelConfig holds flight API credentials.
type DuffelConfig struct {
	Token   string
	BaseURL string
}

// Enabled reports whether flight search can reach Duffel.
func (c DuffelConfig) Enabled() bool { return c.Token != "" }

func loadDuffelConfig() DuffelConfig {
	return DuffelConfig{
		Token:   strings.TrimSpace(os.Getenv("DUFFEL_API_KEY")),
		BaseURL: getEnvOrDefault("DUFFEL_BASE_URL", ""),
	}
}

// HotelbedsConfig holds hotel API credentials.
type HotelbedsConfig struct {
	APIKey  string
	Secret  string
	BaseURL string
}

// Enabled reports whether hotel search can reach Hotelbeds.
func (c HotelbedsConfig) Enabled() bool { return c.APIKey != "" && c.Secret != "" }

func loadHotelbedsConfig() HotelbedsConfig {
	return HotelbedsConfig{
		APIKey:  strings.TrimSpace(os.Getenv("HOTELBEDS_API_KEY")),
		Secret:  strings.TrimSpace(os.Getenv("HOTELBEDS_SECRET")),
		BaseURL: getEnvOrDefault("HOTELBEDS_BASE_URL", ""),
	}
}

// GoogleConfig holds the Maps Platform key. OSM endpoints need no key.
type GoogleConfig struct {
	APIKey string
}

func loadGoogleConfig() GoogleConfig {
	return GoogleConfig{APIKey: strings.TrimSpace(os.Getenv("GOOGLE_MAPS_API_KEY"))}
}

// StripeConfig holds the payment gateway secret.
type StripeConfig struct {
	SecretKey string
}

// Enabled reports whether card payments can be processed.
func (c StripeConfig) Enabled() bool { return c.SecretKey != "" }

func loadStripeConfig() StripeConfig {
	return StripeConfig{SecretKey: strings.TrimSpace(os.Getenv("STRIPE_SECRET_KEY"))}
}

// AuthConfig is derived from JWT_SECRET; login tokens are disabled when it
// is unset and logins succeed without issuing one.
type AuthConfig struct {
	JWTSecret string
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{JWTSecret: strings.TrimSpace(os.Getenv("JWT_SECRET"))}
}

// SMTPConfig holds booking-confirmation mail settings. Mail is skipped
// silently when the host is unset.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func loadSMTPConfig() (SMTPConfig, error) {
	port, err := parseOptionalIntEnv("SMTP_PORT")
	if err != nil {
		return SMTPConfig{}, err
	}
	smtpPort := 587
	if port != nil {
		smtpPort = *port
	}

	user := strings.TrimSpace(os.Getenv("SMTP_USERNAME"))
	return SMTPConfig{
		Host:     strings.TrimSpace(os.Getenv("SMTP_HOST")),
		Port:     smtpPort,
		Username: user,
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     getEnvOrDefault("SMTP_FROM", user),
	}, nil
}

// StoreConfig locates the SQLite database file.
type StoreConfig struct {
	Path string
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{Path: getEnvOrDefault("SQLITE_PATH", "data/nomada.db")}
}

// DemoConfig tunes the canned-reply flow used when no chat model is
// configured.
type DemoConfig struct {
	ReplyDelayMillis int
	ScriptPath       string
}

func loadDemoConfig() (DemoConfig, error) {
	delay, err := parseOptionalIntEnv("NOMADA_REPLY_DELAY_MS")
	if err != nil {
		return DemoConfig{}, err
	}
	delayMillis := 1200
	if delay != nil {
		if *delay < 0 {
			return DemoConfig{}, fmt.Errorf("NOMADA_REPLY_DELAY_MS must not be negative")
		}
		delayMillis = *delay
	}

	return DemoConfig{
		ReplyDelayMillis: delayMillis,
		ScriptPath:       strings.TrimSpace(os.Getenv("NOMADA_REPLY_SCRIPT")),
	}, nil
}

// LogConfig controls log level and output format.
type LogConfig struct {
	Level  string
	Pretty bool
}

func loadLogConfig() (LogConfig, error) {
	pretty, err := parseBoolEnv("LOG_PRETTY", false)
	if err != nil {
		return LogConfig{}, err
	}
	return LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Pretty: pretty,
	}, nil
}

func getEnvOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return &value, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return &value, nil
}

func parseBoolEnv(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return value, nil
}
