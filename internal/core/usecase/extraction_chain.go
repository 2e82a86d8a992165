package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
	"github.com/kirillkom/pdf-to-excel/internal/core/ports"
)

// ExtractionChain runs strategies in priority order until one yields rows.
type ExtractionChain struct {
	strategies []ports.ExtractionStrategy
	recorder   ports.ConversionRecorder
}

func NewExtractionChain(recorder ports.ConversionRecorder, strategies ...ports.ExtractionStrategy) *ExtractionChain {
	ordered := make([]ports.ExtractionStrategy, 0, len(strategies))
	for _, s := range strategies {
		if s != nil {
			ordered = append(ordered, s)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return domain.StrategyPriority(ordered[i].Name()) < domain.StrategyPriority(ordered[j].Name())
	})
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &ExtractionChain{strategies: ordered, recorder: recorder}
}

// Strategies returns the strategy names in the order they will be attempted.
func (c *ExtractionChain) Strategies() []domain.StrategyName {
	names := make([]domain.StrategyName, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

func (c *ExtractionChain) Extract(ctx context.Context, documentPath string) (*domain.Extraction, error) {
	attempts := make([]domain.StrategyAttempt, 0, len(c.strategies))

	for _, strategy := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extraction interrupted: %w", err)
		}

		start := time.Now()
		result := attempt(ctx, strategy, documentPath)
		elapsed := time.Since(start)

		record := domain.StrategyAttempt{
			Strategy: strategy.Name(),
			Outcome:  result.Outcome,
			Rows:     domain.CountRows(result.Blocks),
			Duration: elapsed,
		}
		if result.Err != nil {
			record.Error = result.Err.Error()
		}
		attempts = append(attempts, record)
		c.recorder.ObserveStrategyAttempt(record.Strategy, record.Outcome, elapsed)

		switch result.Outcome {
		case domain.OutcomeRows:
			slog.Info("extraction_strategy_succeeded",
				"strategy", record.Strategy,
				"rows", record.Rows,
				"blocks", len(result.Blocks),
				"duration_ms", float64(elapsed.Microseconds())/1000.0,
			)
			return &domain.Extraction{
				Strategy: record.Strategy,
				Blocks:   result.Blocks,
				Attempts: attempts,
			}, nil
		case domain.OutcomeFailed:
			slog.Warn("extraction_strategy_failed", "strategy", record.Strategy, "error", result.Err)
		default:
			slog.Debug("extraction_strategy_empty", "strategy", record.Strategy)
		}
	}

	return nil, domain.WrapError(
		domain.ErrNoContentFound,
		"extract rows",
		fmt.Errorf("%d strategies yielded no rows", len(attempts)),
	)
}

// attempt shields the chain from a strategy that panics.
func attempt(ctx context.Context, strategy ports.ExtractionStrategy, documentPath string) (result domain.StrategyResult) {
	defer func() {
		if r := recover(); r != nil {
			result = domain.Failed(domain.WrapError(
				domain.ErrExtractor,
				string(strategy.Name()),
				fmt.Errorf("panic: %v", r),
			))
		}
	}()

	result = strategy.Attempt(ctx, documentPath)
	if result.Outcome == domain.OutcomeRows && domain.CountRows(result.Blocks) == 0 {
		return domain.Empty()
	}
	if result.Outcome == "" {
		return domain.Empty()
	}
	return result
}

type noopRecorder struct{}

func (noopRecorder) ObserveStrategyAttempt(domain.StrategyName, domain.Outcome, time.Duration) {}
func (noopRecorder) ObserveConversion(domain.StrategyName, domain.JobStatus, time.Duration)    {}
