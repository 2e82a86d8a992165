package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"STORAGE_PATH", "POSTGRES_DSN", "NATS_URL", "NATS_SUBJECT",
		"RETENTION_DELAY_SECONDS", "SWEEP_INTERVAL_SECONDS", "SWEEP_MAX_AGE_SECONDS",
		"EXTRACTION_STRATEGIES", "OCR_LANGUAGES", "MAX_COLUMN_WIDTH", "API_RATE_LIMIT_RPS",
		"LEGACY_ROUTE_ENABLED",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.StoragePath != "./data/uploads" {
		t.Fatalf("expected default storage path, got %q", cfg.StoragePath)
	}
	if cfg.PostgresDSN != "" || cfg.NATSURL != "" {
		t.Fatalf("expected optional backends disabled by default, got dsn=%q nats=%q", cfg.PostgresDSN, cfg.NATSURL)
	}
	if cfg.NATSSubject != "conversions.completed" {
		t.Fatalf("expected default subject, got %q", cfg.NATSSubject)
	}
	if cfg.RetentionDelaySeconds != 180 || cfg.SweepIntervalSeconds != 180 || cfg.SweepMaxAgeSeconds != 300 {
		t.Fatalf("unexpected retention defaults: %d/%d/%d", cfg.RetentionDelaySeconds, cfg.SweepIntervalSeconds, cfg.SweepMaxAgeSeconds)
	}
	if cfg.ExtractionStrategies != "lattice,stream,layout,unicode,ocr" {
		t.Fatalf("expected full strategy chain, got %q", cfg.ExtractionStrategies)
	}
	if cfg.OCRLanguages != "eng" {
		t.Fatalf("expected default ocr language eng, got %q", cfg.OCRLanguages)
	}
	if cfg.MaxColumnWidth != 50 {
		t.Fatalf("expected max column width 50, got %d", cfg.MaxColumnWidth)
	}
	if cfg.APIRateLimitRPS != 0 {
		t.Fatalf("expected rate limit disabled, got %v", cfg.APIRateLimitRPS)
	}
	if !cfg.LegacyRouteEnabled {
		t.Fatalf("expected legacy route enabled by default")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("RETENTION_DELAY_SECONDS", "30")
	t.Setenv("SWEEP_MAX_AGE_SECONDS", "not-a-number")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("LEGACY_ROUTE_ENABLED", "false")
	t.Setenv("OCR_LANGUAGES", "eng,hin")

	cfg := Load()
	if cfg.RetentionDelaySeconds != 30 {
		t.Fatalf("expected retention override 30, got %d", cfg.RetentionDelaySeconds)
	}
	if cfg.SweepMaxAgeSeconds != 300 {
		t.Fatalf("expected invalid value to fall back to 300, got %d", cfg.SweepMaxAgeSeconds)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.LegacyRouteEnabled {
		t.Fatalf("expected legacy route disabled")
	}
	if got := SplitList(cfg.OCRLanguages); len(got) != 2 || got[1] != "hin" {
		t.Fatalf("expected two ocr languages, got %v", got)
	}
}

func TestSplitListDropsBlanks(t *testing.T) {
	got := SplitList(" total, ,date ,")
	if len(got) != 2 || got[0] != "total" || got[1] != "date" {
		t.Fatalf("unexpected list %v", got)
	}
}

func TestHeaderRuleFromEnvironment(t *testing.T) {
	cfg := Config{HeaderKeywords: "total, amount", HeaderScriptSignals: "दिनांक", HeaderFillColor: "#ddebf7"}

	rule, err := cfg.HeaderRule()
	if err != nil {
		t.Fatalf("HeaderRule() error = %v", err)
	}
	if len(rule.Keywords) != 2 || rule.Keywords[1] != "amount" {
		t.Fatalf("unexpected keywords %v", rule.Keywords)
	}
	if len(rule.ScriptSignals) != 1 || rule.ScriptSignals[0] != "दिनांक" {
		t.Fatalf("unexpected script signals %v", rule.ScriptSignals)
	}
	if rule.FillColor != "DDEBF7" {
		t.Fatalf("expected normalized fill color, got %q", rule.FillColor)
	}
}

func TestHeaderRuleFileOverridesEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "style.yaml")
	content := "header:\n  keywords: [\"invoice no\", \"qty\"]\n  fill_color: \"fff2cc\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write style file: %v", err)
	}
	cfg := Config{HeaderKeywords: "total", HeaderScriptSignals: "कुल", HeaderFillColor: "DDEBF7", StyleRulesFile: path}

	rule, err := cfg.HeaderRule()
	if err != nil {
		t.Fatalf("HeaderRule() error = %v", err)
	}
	if len(rule.Keywords) != 2 || rule.Keywords[0] != "invoice no" {
		t.Fatalf("expected file keywords, got %v", rule.Keywords)
	}
	if len(rule.ScriptSignals) != 1 || rule.ScriptSignals[0] != "कुल" {
		t.Fatalf("expected env script signals to survive, got %v", rule.ScriptSignals)
	}
	if rule.FillColor != "FFF2CC" {
		t.Fatalf("expected file fill color, got %q", rule.FillColor)
	}
}

func TestHeaderRuleRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "style.yaml")
	if err := os.WriteFile(path, []byte("header: [unterminated"), 0o644); err != nil {
		t.Fatalf("write style file: %v", err)
	}
	if _, err := (Config{StyleRulesFile: path}).HeaderRule(); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := (Config{StyleRulesFile: filepath.Join(t.TempDir(), "missing.yaml")}).HeaderRule(); err == nil {
		t.Fatalf("expected read error")
	}
}
