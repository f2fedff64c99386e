package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestReported(t *testing.T) {
	base := errors.New("boom")

	if reported(nil) != nil {
		t.Error("reported(nil) should be nil")
	}
	err := reported(base)
	if !Reported(err) {
		t.Error("Reported() = false for reported error")
	}
	if !Reported(fmt.Errorf("wrapped: %w", err)) {
		t.Error("Reported() should see through wrapping")
	}
	if !errors.Is(err, base) {
		t.Error("reported error should unwrap to its cause")
	}
	if Reported(base) {
		t.Error("Reported() = true for plain error")
	}
}

func TestFailed(t *testing.T) {
	if err := failed(true, "delete entity", "a"); err != nil {
		t.Errorf("failed(true) = %v", err)
	}
	err := failed(false, "delete entity", "a")
	if err == nil || !Reported(err) {
		t.Fatalf("failed(false) = %v, want reported error", err)
	}
	if err.Error() != "delete entity a failed" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestSpinOK(t *testing.T) {
	if err := spinOK(context.Background(), "working", "delete entity", "a", func(context.Context) bool { return true }); err != nil {
		t.Errorf("spinOK(success) = %v", err)
	}

	err := spinOK(context.Background(), "working", "delete entity", "a", func(context.Context) bool { return false })
	if !Reported(err) {
		t.Errorf("spinOK(failure) = %v, want reported error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = spinOK(ctx, "working", "delete entity", "a", func(context.Context) bool { return false })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("spinOK(cancelled) = %v, want context.Canceled", err)
	}
	if Reported(err) {
		t.Error("cancellation should not be marked as reported")
	}
}
