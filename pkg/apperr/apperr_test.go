package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfWrappedError(t *testing.T) {
	base := New(KindConflict, "request_already_claimed", "request already claimed")
	wrapped := fmt.Errorf("claim request: %w", base)
	if KindOf(wrapped) != KindConflict {
		t.Fatalf("kind = %v, want KindConflict", KindOf(wrapped))
	}
	if CodeOf(wrapped) != "request_already_claimed" {
		t.Fatalf("code = %q, want request_already_claimed", CodeOf(wrapped))
	}
}

func TestKindOfPlainError(t *testing.T) {
	err := errors.New("boom")
	if KindOf(err) != KindInternal {
		t.Fatalf("plain errors must map to KindInternal")
	}
	if CodeOf(err) != "internal_error" {
		t.Fatalf("code = %q, want internal_error", CodeOf(err))
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindInternal, "storage_write_failed", "write upload content", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("wrapped error must unwrap to its cause")
	}
}
