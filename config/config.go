package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config application configuration
type Config struct {
	// GeminiAPIKey empty means demo mode
	GeminiAPIKey      string
	GeminiModel       string
	GeminiTemperature float32

	HTTPAddr      string
	TelegramToken string

	// TelegramAdminIDs users allowed to upload a catalog workbook
	TelegramAdminIDs []int64

	ChatDBPath           string
	PortfolioCatalogPath string

	ChatRequestTimeout time.Duration
	ChatDemoDelay      time.Duration
	ChatWidgetTTL      time.Duration
	ChatMaxMessages    int

	ContactSubmitDelay time.Duration
	ContactResetDelay  time.Duration

	LogLevel      string
	LogPretty     bool
	LogFile       string
	TelemetryFile string
}

// HasCredential reports whether live mode is possible
func (c *Config) HasCredential() bool {
	return c.GeminiAPIKey != ""
}

// Load reads .env (when present) and the environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	config := &Config{
		GeminiAPIKey:         strings.TrimSpace(v.GetString("GEMINI_API_KEY")),
		GeminiModel:          v.GetString("GEMINI_MODEL"),
		GeminiTemperature:    float32(v.GetFloat64("GEMINI_TEMPERATURE")),
		HTTPAddr:             v.GetString("HTTP_ADDR"),
		TelegramToken:        strings.TrimSpace(v.GetString("TELEGRAM_BOT_TOKEN")),
		ChatDBPath:           v.GetString("CHAT_DB_PATH"),
		PortfolioCatalogPath: v.GetString("PORTFOLIO_CATALOG_PATH"),
		ChatRequestTimeout:   v.GetDuration("CHAT_REQUEST_TIMEOUT"),
		ChatDemoDelay:        v.GetDuration("CHAT_DEMO_DELAY"),
		ChatWidgetTTL:        v.GetDuration("CHAT_WIDGET_TTL"),
		ChatMaxMessages:      v.GetInt("CHAT_MAX_MESSAGES"),
		ContactSubmitDelay:   v.GetDuration("CONTACT_SUBMIT_DELAY"),
		ContactResetDelay:    v.GetDuration("CONTACT_RESET_DELAY"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogPretty:            v.GetBool("LOG_PRETTY"),
		LogFile:              v.GetString("LOG_FILE"),
		TelemetryFile:        v.GetString("TELEMETRY_FILE"),
	}

	// the page itself reads API_KEY
	if config.GeminiAPIKey == "" {
		config.GeminiAPIKey = strings.TrimSpace(v.GetString("API_KEY"))
	}

	adminIDs, err := parseIDs(v.GetString("TELEGRAM_ADMIN_IDS"))
	if err != nil {
		return nil, fmt.Errorf("TELEGRAM_ADMIN_IDS: %w", err)
	}
	config.TelegramAdminIDs = adminIDs

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("GEMINI_TEMPERATURE", 0.7)
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("CHAT_REQUEST_TIMEOUT", "30s")
	v.SetDefault("CHAT_DEMO_DELAY", "1s")
	v.SetDefault("CHAT_WIDGET_TTL", "30m")
	v.SetDefault("CHAT_MAX_MESSAGES", 0)
	v.SetDefault("CONTACT_SUBMIT_DELAY", "2s")
	v.SetDefault("CONTACT_RESET_DELAY", "3s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
}

func (c *Config) validate() error {
	if c.GeminiTemperature < 0 || c.GeminiTemperature > 2 {
		return fmt.Errorf("GEMINI_TEMPERATURE must be within [0, 2], got %v", c.GeminiTemperature)
	}
	if c.ChatRequestTimeout <= 0 {
		return fmt.Errorf("CHAT_REQUEST_TIMEOUT must be positive")
	}
	if c.ChatDemoDelay < 0 || c.ContactSubmitDelay < 0 || c.ContactResetDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	if c.ChatWidgetTTL <= 0 {
		return fmt.Errorf("CHAT_WIDGET_TTL must be positive")
	}
	if c.ChatMaxMessages < 0 {
		return fmt.Errorf("CHAT_MAX_MESSAGES must not be negative")
	}
	return nil
}

// parseIDs "1, 2;3" -> [1 2 3]
func parseIDs(raw string) ([]int64, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' '
	})

	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
