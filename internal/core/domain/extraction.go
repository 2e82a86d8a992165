package domain

import (
	"fmt"
	"strings"
	"time"
)

type StrategyName string

const (
	StrategyLatticeTable StrategyName = "lattice"
	StrategyStreamTable  StrategyName = "stream"
	StrategyLayoutText   StrategyName = "layout"
	StrategyUnicodeText  StrategyName = "unicode"
	StrategyOCR          StrategyName = "ocr"
)

// StrategyOrder is the fixed fallback priority.
var StrategyOrder = []StrategyName{
	StrategyLatticeTable,
	StrategyStreamTable,
	StrategyLayoutText,
	StrategyUnicodeText,
	StrategyOCR,
}

// StrategyPriority returns the rank of name in StrategyOrder, or len(StrategyOrder)
// for names outside it.
func StrategyPriority(name StrategyName) int {
	for i, known := range StrategyOrder {
		if known == name {
			return i
		}
	}
	return len(StrategyOrder)
}

// ParseStrategies reads a comma separated list of strategy names.
func ParseStrategies(raw string) ([]StrategyName, error) {
	var out []StrategyName
	seen := make(map[StrategyName]bool)
	for _, part := range strings.Split(raw, ",") {
		name := StrategyName(strings.ToLower(strings.TrimSpace(part)))
		if name == "" || seen[name] {
			continue
		}
		if StrategyPriority(name) == len(StrategyOrder) {
			return nil, WrapError(ErrInvalidInput, "parse strategies", fmt.Errorf("unknown strategy %q", name))
		}
		seen[name] = true
		out = append(out, name)
	}
	return out, nil
}

type Outcome string

const (
	OutcomeRows   Outcome = "rows"
	OutcomeEmpty  Outcome = "empty"
	OutcomeFailed Outcome = "failed"
)

// StrategyResult is what a single extraction attempt yields.
type StrategyResult struct {
	Outcome Outcome
	Blocks  []RowBlock
	Err     error
}

// Found wraps blocks as a result; blocks without rows collapse to Empty.
func Found(blocks ...RowBlock) StrategyResult {
	kept := make([]RowBlock, 0, len(blocks))
	for _, block := range blocks {
		if len(block.Rows) > 0 {
			kept = append(kept, block)
		}
	}
	if len(kept) == 0 {
		return Empty()
	}
	return StrategyResult{Outcome: OutcomeRows, Blocks: kept}
}

func Empty() StrategyResult {
	return StrategyResult{Outcome: OutcomeEmpty}
}

func Failed(err error) StrategyResult {
	return StrategyResult{Outcome: OutcomeFailed, Err: err}
}

// StrategyAttempt records one strategy invocation inside a chain run.
type StrategyAttempt struct {
	Strategy StrategyName  `json:"strategy"`
	Outcome  Outcome       `json:"outcome"`
	Rows     int           `json:"rows"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Extraction is the result of the first strategy that found content.
type Extraction struct {
	Strategy StrategyName
	Blocks   []RowBlock
	Attempts []StrategyAttempt
}
