package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"stop_guard/internal/protect"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Config holds everything a stop_guard run needs.
type Config struct {
	// Alpaca credentials
	APIKeyID     string
	APISecretKey string
	APIBaseURL   string

	// Evaluation
	LimitMarkupBps int
	StopMarkupBps  int
	MinGainPercent int
	MinValue       *decimal.Decimal
	Symbols        []string

	// Execution
	Apply       bool
	Concurrency int
	CLI         string

	// Logging
	LogLevel      string
	LogFile       string
	MaxLogSizeMB  int64
	MaxLogBackups int

	ReportFile string
	Schedule   string

	TelegramBotToken string
	TelegramChatID   string
}

var secretVars = map[string]bool{
	"APCA_API_KEY_ID":     true,
	"APCA_API_SECRET_KEY": true,
	"TELEGRAM_BOT_TOKEN":  true,
}

var brokerVars = []string{"APCA_API_KEY_ID", "APCA_API_SECRET_KEY", "APCA_API_BASE_URL"}

// Load reads a .env file, if present, and builds the configuration from the
// environment.
func Load() (*Config, error) {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		APIKeyID:     os.Getenv("APCA_API_KEY_ID"),
		APISecretKey: os.Getenv("APCA_API_SECRET_KEY"),
		APIBaseURL:   os.Getenv("APCA_API_BASE_URL"),

		LimitMarkupBps: getEnvAsInt("STOP_GUARD_LIMIT_MARKUP_BPS", protect.DefaultLimitMarkupBps),
		StopMarkupBps:  getEnvAsInt("STOP_GUARD_STOP_MARKUP_BPS", protect.DefaultStopMarkupBps),
		MinGainPercent: getEnvAsInt("STOP_GUARD_MIN_GAIN_PERCENT", protect.DefaultMinGainPercent),
		Symbols:        getEnvAsList("STOP_GUARD_SYMBOLS"),

		Apply:       getEnvAsBool("STOP_GUARD_APPLY", false),
		Concurrency: getEnvAsInt("STOP_GUARD_CONCURRENCY", 4),
		CLI:         getEnv("APCACLI", "apcacli"),

		LogLevel:      getEnv("STOP_GUARD_LOG_LEVEL", "warn"),
		LogFile:       getEnv("STOP_GUARD_LOG_FILE", ""),
		MaxLogSizeMB:  int64(getEnvAsInt("STOP_GUARD_LOG_MAX_MB", 10)),
		MaxLogBackups: getEnvAsInt("STOP_GUARD_LOG_BACKUPS", 3),

		ReportFile: getEnv("STOP_GUARD_REPORT_FILE", "stop_guard_report.json"),
		Schedule:   getEnv("STOP_GUARD_SCHEDULE", "@every 15m"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
	}

	minValue, err := getEnvAsDecimal("STOP_GUARD_MIN_VALUE")
	if err != nil {
		return nil, err
	}
	cfg.MinValue = minValue

	if err := cfg.Params().Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Params returns the evaluation parameters.
func (c *Config) Params() protect.Params {
	return protect.Params{
		LimitMarkupBps: c.LimitMarkupBps,
		StopMarkupBps:  c.StopMarkupBps,
		MinGainPercent: c.MinGainPercent,
		MinValue:       c.MinValue,
	}
}

// RequireBrokerCredentials fails if any of the Alpaca variables is unset.
func (c *Config) RequireBrokerCredentials() error {
	values := map[string]string{
		"APCA_API_KEY_ID":     c.APIKeyID,
		"APCA_API_SECRET_KEY": c.APISecretKey,
		"APCA_API_BASE_URL":   c.APIBaseURL,
	}
	var missing []string
	for _, key := range brokerVars {
		if values[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	return nil
}

// TelegramEnabled reports whether pass summaries can be sent.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

// LogEnvFile prints the variables defined in the .env file, masking
// secret values.
func LogEnvFile(log zerolog.Logger) {
	envMap, err := godotenv.Read()
	if err != nil {
		return
	}

	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		log.Debug().Str("key", key).Str("value", maskValue(key, envMap[key])).Msg(".env variable")
	}
}

// maskValue shows only the last 4 characters of secrets.
func maskValue(key, val string) string {
	if !secretVars[key] {
		return val
	}
	if len(val) > 4 {
		return "***" + val[len(val)-4:]
	}
	return "***"
}

func getEnvAsList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}
