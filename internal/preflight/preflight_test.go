package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crchecker/internal/config"
	"crchecker/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return testsupport.NewConfig(t)
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_DefaultConfig(t *testing.T) {
	cfg := testConfig(t)

	results := RunAll(context.Background(), cfg)
	// state + log directory + history database
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	if !strings.Contains(results[2].Detail, "(0 runs)") {
		t.Fatalf("unexpected history detail %q", results[2].Detail)
	}
}

func TestRunAll_HistoryDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.History.Enabled = false

	results := RunAll(context.Background(), cfg)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestCheckSystemDeps_Native(t *testing.T) {
	cfg := testConfig(t)
	cfg.Decoder.Backend = config.BackendNative
	if got := CheckSystemDeps(cfg); len(got) != 0 {
		t.Fatalf("expected no requirements for native backend, got %d", len(got))
	}
}

func TestCheckSystemDeps_External(t *testing.T) {
	cfg := testConfig(t)
	stub := filepath.Join(t.TempDir(), "flac")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg.Decoder.Binary = stub

	got := CheckSystemDeps(cfg)
	if len(got) != 1 || !got[0].Available {
		t.Fatalf("expected configured decoder available, got %#v", got)
	}
}
