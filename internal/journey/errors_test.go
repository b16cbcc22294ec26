package journey

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	err := Errf(CodeRejected, "user %s was rejected", "u1")
	if CodeOf(err) != CodeRejected {
		t.Errorf("CodeOf = %q, want %q", CodeOf(err), CodeRejected)
	}

	// Codes survive wrapping.
	wrapped := fmt.Errorf("redeem: %w", err)
	if !IsCode(wrapped, CodeRejected) {
		t.Error("code lost through wrapping")
	}

	if CodeOf(errors.New("plain")) != "" {
		t.Error("plain error should have no code")
	}
}
