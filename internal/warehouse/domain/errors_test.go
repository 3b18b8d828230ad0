package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{Validationf("bad input"), KindValidation},
		{NotFoundf("missing"), KindNotFound},
		{Conflictf("taken"), KindConflict},
		{Integrityf("corrupt"), KindIntegrity},
		{Retryablef("raced"), KindRetryable},
		{errors.New("plain"), ""},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("KindOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := Conflictf("slot full")
	wrapped := fmt.Errorf("saving allocation: %w", inner)
	if got := KindOf(wrapped); got != KindConflict {
		t.Errorf("KindOf(wrapped) = %q, want conflict", got)
	}

	cause := errors.New("db down")
	classified := Wrap(KindRetryable, "lock timeout", cause)
	if got := KindOf(classified); got != KindRetryable {
		t.Errorf("KindOf = %q, want retryable_conflict", got)
	}
	if !errors.Is(classified, cause) {
		t.Error("wrapped cause lost")
	}
}

func TestErrorMessage(t *testing.T) {
	plain := Conflictf("slot %s full", "R1")
	if plain.Error() != "slot R1 full" {
		t.Errorf("Error() = %q", plain.Error())
	}

	withCause := Wrap(KindIntegrity, "reading order", errors.New("timeout"))
	if withCause.Error() != "reading order: timeout" {
		t.Errorf("Error() = %q", withCause.Error())
	}
}
