package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	APIPort   string
	LogLevel  string
	LogFormat string

	StoragePath string

	PostgresDSN string

	NATSURL     string
	NATSSubject string

	RetentionDelaySeconds int
	SweepIntervalSeconds  int
	SweepMaxAgeSeconds    int

	ExtractionStrategies string
	OCRLanguages         string

	HeaderKeywords      string
	HeaderScriptSignals string
	HeaderFillColor     string
	StyleRulesFile      string

	MaxColumnWidth int
	MaxUploadMB    int

	APIRateLimitRPS             float64
	APIRateLimitBurst           int
	APIMaxConcurrentConversions int
	APIBackpressureWaitMS       int
	APIMaxConnections           int

	JobHistoryCapacity int

	LegacyRouteEnabled bool
}

func Load() Config {
	return Config{
		APIPort:   mustEnv("API_PORT", "8080"),
		LogLevel:  mustEnv("LOG_LEVEL", "info"),
		LogFormat: mustEnv("LOG_FORMAT", "json"),

		StoragePath: mustEnv("STORAGE_PATH", "./data/uploads"),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "conversions.completed"),

		RetentionDelaySeconds: mustEnvInt("RETENTION_DELAY_SECONDS", 180),
		SweepIntervalSeconds:  mustEnvInt("SWEEP_INTERVAL_SECONDS", 180),
		SweepMaxAgeSeconds:    mustEnvInt("SWEEP_MAX_AGE_SECONDS", 300),

		ExtractionStrategies: mustEnv("EXTRACTION_STRATEGIES", "lattice,stream,layout,unicode,ocr"),
		OCRLanguages:         mustEnv("OCR_LANGUAGES", "eng"),

		HeaderKeywords:      mustEnv("HEADER_KEYWORDS", "date,description,particulars,amount,debit,credit,balance,total,invoice"),
		HeaderScriptSignals: mustEnv("HEADER_SCRIPT_SIGNALS", "दिनांक,विवरण,राशि,कुल"),
		HeaderFillColor:     mustEnv("HEADER_FILL_COLOR", "DDEBF7"),
		StyleRulesFile:      mustEnv("STYLE_RULES_FILE", ""),

		MaxColumnWidth: mustEnvInt("MAX_COLUMN_WIDTH", 50),
		MaxUploadMB:    mustEnvInt("MAX_UPLOAD_MB", 25),

		APIRateLimitRPS:             mustEnvFloat("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst:           mustEnvInt("API_RATE_LIMIT_BURST", 10),
		APIMaxConcurrentConversions: mustEnvInt("API_MAX_CONCURRENT_CONVERSIONS", 4),
		APIBackpressureWaitMS:       mustEnvInt("API_BACKPRESSURE_WAIT_MS", 250),
		APIMaxConnections:           mustEnvInt("API_MAX_CONNECTIONS", 256),

		JobHistoryCapacity: mustEnvInt("JOB_HISTORY_CAPACITY", 1000),

		LegacyRouteEnabled: mustEnvBool("LEGACY_ROUTE_ENABLED", true),
	}
}

// SplitList splits a comma separated setting, dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
