package albumlock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireExcludesSecondHolder(t *testing.T) {
	lockDir := filepath.Join(t.TempDir(), "locks")
	album := t.TempDir()

	first, err := Acquire(lockDir, album)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if _, err := Acquire(lockDir, album); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(first.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected lock file removed, stat err=%v", err)
	}

	again, err := Acquire(lockDir, album)
	if err != nil {
		t.Fatalf("re-Acquire: %v", err)
	}
	_ = again.Release()
}

func TestPathForIsStablePerAlbum(t *testing.T) {
	lockDir := t.TempDir()
	a, err := PathFor(lockDir, "/music/Album A")
	if err != nil {
		t.Fatal(err)
	}
	again, _ := PathFor(lockDir, "/music/Album A/")
	other, _ := PathFor(lockDir, "/music/Album B")
	if a != again {
		t.Fatalf("expected stable lock path, got %s and %s", a, again)
	}
	if a == other {
		t.Fatal("distinct albums must not share a lock")
	}
	if filepath.Dir(a) != lockDir || filepath.Ext(a) != ".lock" {
		t.Fatalf("unexpected lock path %s", a)
	}
}

func TestReleaseNil(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Fatalf("nil Release: %v", err)
	}
}
