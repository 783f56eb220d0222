// Copyright 2026 fanjia1024
// Tests for shared error helpers

package errors

import (
	"errors"
	"testing"
)

func TestWrapNilPassthrough(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should stay nil")
	}
	if Wrapf(nil, "session %s", "s1") != nil {
		t.Error("Wrapf(nil) should stay nil")
	}
}

func TestWrapPreservesSentinel(t *testing.T) {
	wrapped := Wrap(ErrRunActive, "submit rejected")
	if !errors.Is(wrapped, ErrRunActive) {
		t.Error("wrapped error should still match ErrRunActive")
	}
	if wrapped.Error() != "submit rejected: run already active" {
		t.Errorf("unexpected message: %s", wrapped.Error())
	}
}

func TestWrapfFormatting(t *testing.T) {
	wrapped := Wrapf(ErrNotFound, "session %s", "s1")
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("wrapped error should still match ErrNotFound")
	}
	if wrapped.Error() != "session s1: not found" {
		t.Errorf("unexpected message: %s", wrapped.Error())
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	if errors.Is(ErrRunActive, ErrNotFound) || errors.Is(ErrNotFound, ErrInvalidArg) {
		t.Error("sentinels must not match each other")
	}
}
