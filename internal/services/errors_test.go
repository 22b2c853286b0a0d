package services_test

import (
	"errors"
	"strings"
	"testing"

	"crchecker/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("exit status 1")
	err := services.Wrap(services.ErrDecodeFailed, "decode", "01 - Intro.flac", "flac failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrDecodeFailed) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"decode", "01 - Intro.flac", "flac failed", "exit status 1"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker for nil marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "verification failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{errors.New("boom"), "internal"},
		{services.Wrap(services.ErrCrcCountMismatch, "log", "", "3 crcs, 4 files", nil), "crc_count_mismatch"},
		{services.Wrap(services.ErrNoCrcsFound, "log", "", "", services.ErrEmptyLog), "no_crcs_found"},
		{services.Wrap(services.ErrEmptyLog, "", "", "", nil), "empty_log"},
		{services.Wrap(services.ErrDuplicateTrackPosition, "resolve", "", "", nil), "duplicate_track_position"},
	}
	for _, tt := range tests {
		if got := services.Kind(tt.err); got != tt.want {
			t.Fatalf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
