package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
	"github.com/kirillkom/pdf-to-excel/internal/infrastructure/resilience"
)

func TestEncodeEvent(t *testing.T) {
	payload, err := encodeEvent(domain.ConversionEvent{
		JobID:    "job-1",
		Status:   domain.JobStatusCompleted,
		Strategy: domain.StrategyLatticeTable,
		Rows:     4,
	})
	if err != nil {
		t.Fatalf("encodeEvent() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["job_id"] != "job-1" || decoded["strategy"] != "lattice" || decoded["status"] != "completed" {
		t.Fatalf("unexpected payload: %s", payload)
	}
	if ts, _ := decoded["timestamp"].(string); ts == "" || ts == (time.Time{}).Format(time.RFC3339) {
		t.Fatalf("expected timestamp to be filled, got %q", ts)
	}
}

func TestEncodeEventRequiresJobID(t *testing.T) {
	if _, err := encodeEvent(domain.ConversionEvent{}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestClassifyNATSError(t *testing.T) {
	if class := classifyNATSError(context.Canceled); class.Retryable || class.RecordFailure {
		t.Fatalf("expected cancellation to be neither retried nor recorded, got %+v", class)
	}
	if class := classifyNATSError(fmt.Errorf("nats publish: %w", nats.ErrConnectionClosed)); !class.Retryable {
		t.Fatalf("expected closed connection to be retryable")
	}
	if class := classifyNATSError(errors.New("bad subject")); class.Retryable {
		t.Fatalf("expected unknown error not to be retried")
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	err := wrapTemporaryIfNeeded(fmt.Errorf("nats publish: %w", nats.ErrNoServers))
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
	plain := errors.New("bad subject")
	if got := wrapTemporaryIfNeeded(plain); got != plain {
		t.Fatalf("expected permanent error unchanged, got %v", got)
	}
}

func fastExecutor(attempts int, breaker bool) *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:        attempts,
		RetryInitialBackoff:     time.Millisecond,
		RetryMaxBackoff:         2 * time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          breaker,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	})
}

func TestPublishRetriesBrokerOutage(t *testing.T) {
	calls := 0
	err := fastExecutor(3, false).Execute(context.Background(), "nats.publish", func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("nats publish: %w", nats.ErrTimeout)
		}
		return nil
	}, classifyNATSError)
	if err != nil {
		t.Fatalf("expected publish to succeed after retries, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestPublishDoesNotRetryOversizedPayload(t *testing.T) {
	calls := 0
	err := fastExecutor(3, false).Execute(context.Background(), "nats.publish", func(context.Context) error {
		calls++
		return nats.ErrMaxPayload
	}, classifyNATSError)
	if !errors.Is(err, nats.ErrMaxPayload) {
		t.Fatalf("expected ErrMaxPayload, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestPublishBreakerOpensOnRepeatedOutage(t *testing.T) {
	exec := fastExecutor(1, true)
	outage := func(context.Context) error { return nats.ErrNoServers }
	for i := 0; i < 2; i++ {
		if err := exec.Execute(context.Background(), "nats.publish", outage, classifyNATSError); !errors.Is(err, nats.ErrNoServers) {
			t.Fatalf("expected ErrNoServers, got %v", err)
		}
	}

	called := false
	err := exec.Execute(context.Background(), "nats.publish", func(context.Context) error {
		called = true
		return nil
	}, classifyNATSError)
	if called || !resilience.IsCircuitOpen(err) {
		t.Fatalf("expected open circuit to short-circuit publish, got called=%v err=%v", called, err)
	}
	if !domain.IsKind(wrapTemporaryIfNeeded(err), domain.ErrTemporary) {
		t.Fatalf("expected open circuit to surface as ErrTemporary, got %v", err)
	}
}

func TestPublishBreakerIgnoresRejectedPayloads(t *testing.T) {
	exec := fastExecutor(1, true)
	for i := 0; i < 4; i++ {
		_ = exec.Execute(context.Background(), "nats.publish", func(context.Context) error {
			return nats.ErrBadSubject
		}, classifyNATSError)
	}
	if err := exec.Execute(context.Background(), "nats.publish", func(context.Context) error { return nil }, classifyNATSError); err != nil {
		t.Fatalf("expected breaker to stay closed after rejected payloads, got %v", err)
	}
}
