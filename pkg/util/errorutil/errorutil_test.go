package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestToDomainErrorPassesThroughDomainErrors(t *testing.T) {
	original := NewForbidden("nope")
	wrapped := fmt.Errorf("handler: %w", original)

	got := ToDomainError(wrapped)
	if got.Code != CodeForbidden || got.HTTPStatus != http.StatusForbidden {
		t.Fatalf("unexpected mapping: %+v", got)
	}
}

func TestToDomainErrorDeadlineIsTransient(t *testing.T) {
	got := ToDomainError(fmt.Errorf("query: %w", context.DeadlineExceeded))
	if got.Code != CodeTransient || got.HTTPStatus != http.StatusServiceUnavailable {
		t.Fatalf("expected transient, got %+v", got)
	}
}

func TestToDomainErrorUnknownIsInternal(t *testing.T) {
	got := ToDomainError(errors.New("boom"))
	if got.Code != CodeInternal || got.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal, got %+v", got)
	}
	if got.Message != "internal server error" {
		t.Fatalf("internal errors must not leak details, got %q", got.Message)
	}
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(NewTransient(errors.New("db down"))) {
		t.Fatalf("expected transient")
	}
	if IsTransient(NewConflict("dup", nil)) {
		t.Fatalf("conflict is not transient")
	}
	if MapError(nil) != nil {
		t.Fatalf("nil should map to nil")
	}
}
