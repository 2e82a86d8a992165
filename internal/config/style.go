package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
)

type styleRulesFile struct {
	Header struct {
		Keywords      []string `yaml:"keywords"`
		ScriptSignals []string `yaml:"script_signals"`
		FillColor     string   `yaml:"fill_color"`
	} `yaml:"header"`
}

// HeaderRule builds the header styling rule from the environment. When
// StyleRulesFile is set its non-empty fields replace the environment values.
func (c Config) HeaderRule() (domain.HeaderRule, error) {
	rule := domain.HeaderRule{
		Keywords:      SplitList(c.HeaderKeywords),
		ScriptSignals: SplitList(c.HeaderScriptSignals),
		FillColor:     normalizeColor(c.HeaderFillColor),
	}
	if strings.TrimSpace(c.StyleRulesFile) == "" {
		return rule, nil
	}

	raw, err := os.ReadFile(c.StyleRulesFile)
	if err != nil {
		return domain.HeaderRule{}, fmt.Errorf("read style rules: %w", err)
	}
	var file styleRulesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return domain.HeaderRule{}, fmt.Errorf("parse style rules %s: %w", c.StyleRulesFile, err)
	}

	if len(file.Header.Keywords) > 0 {
		rule.Keywords = file.Header.Keywords
	}
	if len(file.Header.ScriptSignals) > 0 {
		rule.ScriptSignals = file.Header.ScriptSignals
	}
	if color := normalizeColor(file.Header.FillColor); color != "" {
		rule.FillColor = color
	}
	return rule, nil
}

func normalizeColor(raw string) string {
	return strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(raw), "#"))
}
