package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	wrapped := fmt.Errorf("resolve credential: %w", ErrNotFound)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("wrapped ErrNotFound not detected by errors.Is")
	}
	if errors.Is(wrapped, ErrNoRule) {
		t.Error("ErrNoRule matched unrelated error")
	}
}

func TestDispatchError(t *testing.T) {
	cause := errors.New("telegram: Bad Request")
	err := NewDispatchError("sendPhoto", 42, cause)

	if got := err.Error(); got != "dispatch error (method=sendPhoto, chat=42): telegram: Bad Request" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("DispatchError does not unwrap to cause")
	}

	var de *DispatchError
	if !errors.As(err, &de) {
		t.Fatal("errors.As failed for DispatchError")
	}
	if de.Method != "sendPhoto" {
		t.Errorf("Method = %q, want sendPhoto", de.Method)
	}
}

func TestDispatchErrorWithoutChat(t *testing.T) {
	err := NewDispatchError("setWebhook", 0, errors.New("boom"))
	if got := err.Error(); got != "dispatch error (method=setWebhook): boom" {
		t.Errorf("Error() = %q", got)
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("credential", "must not be empty")
	if got := err.Error(); got != "validation failed on credential: must not be empty" {
		t.Errorf("Error() = %q", got)
	}
}
