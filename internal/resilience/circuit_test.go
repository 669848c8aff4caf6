package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_Transitions(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		ResetTimeout:     20 * time.Millisecond,
	})

	if cb.State() != CircuitClosed {
		t.Fatalf("new breaker should be closed, got %v", cb.State())
	}

	for i := 0; i < 3; i++ {
		if err := cb.Allow(); err != nil {
			t.Fatalf("attempt %d rejected while closed: %v", i, err)
		}
		cb.RecordResult(true)
	}

	if cb.State() != CircuitOpen {
		t.Fatalf("breaker should open at threshold, got %v", cb.State())
	}
	if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("open breaker must reject, got %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	if err := cb.Allow(); err != nil {
		t.Fatalf("expected half-open probe after reset timeout: %v", err)
	}
	cb.RecordResult(false)
	if cb.State() != CircuitClosed {
		t.Errorf("successful probe should close the breaker, got %v", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     10 * time.Millisecond,
	})

	_ = cb.Allow()
	cb.RecordResult(true)
	time.Sleep(15 * time.Millisecond)

	if err := cb.Allow(); err != nil {
		t.Fatalf("expected half-open probe: %v", err)
	}
	cb.RecordResult(true)
	if cb.State() != CircuitOpen {
		t.Errorf("failed probe should reopen, got %v", cb.State())
	}
}

func TestProviderBreakers_PerLabel(t *testing.T) {
	pb := NewProviderBreakers(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})

	a := pb.Get("serper-maps")
	b := pb.Get("apollo-people-search")
	if a == b {
		t.Fatal("labels must get independent breakers")
	}
	if pb.Get("serper-maps") != a {
		t.Fatal("same label must return the same breaker")
	}

	a.RecordResult(true)
	if a.State() != CircuitOpen {
		t.Fatal("expected open")
	}
	if b.State() != CircuitClosed {
		t.Error("one provider's failures must not affect another")
	}
}
