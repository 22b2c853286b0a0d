package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crchecker/internal/history"
	"crchecker/internal/services"
	"crchecker/internal/testsupport"
)

func TestVerifyMatchingAlbum(t *testing.T) {
	env := setupCLITestEnv(t)
	crc := env.writeAlbum(t, "rip.log", true)

	out, _, err := runCLI(t, []string{"--path", env.albumDir}, env.configPath)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	requireContains(t, out, "CRChecker v0.0.2")
	requireContains(t, out, "Status: OK")
	requireContains(t, out, "Track 1: 01 - Intro.flac")
	requireContains(t, out, "Copy CRC: "+crc+" | Verified CRC: "+crc+" | Status: OK")

	if _, err := os.Stat(filepath.Join(env.albumDir, "crchecker.log")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("report saved without --save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.albumDir, "01 - Intro.raw")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("raw artifact left behind: %v", err)
	}
}

func TestVerifyMismatchStillSucceeds(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeAlbum(t, "rip.log", false)

	out, _, err := runCLI(t, []string{"--path", env.albumDir}, env.configPath)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	requireContains(t, out, "Status: FAILED")
	requireContains(t, out, "Copy CRC: DEADBEEF")
}

func TestVerifySaveWritesReport(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeAlbum(t, "rip.log", true)

	out, stderr, err := runCLI(t, []string{"--path", env.albumDir, "--save"}, env.configPath)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	reportPath := filepath.Join(env.albumDir, "crchecker.log")
	requireContains(t, stderr, "Report saved to "+reportPath)

	saved, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if string(saved) != strings.TrimSuffix(out, "\n") {
		t.Fatalf("saved report differs from printed report\nsaved: %q\nprinted: %q", saved, out)
	}

	// A second run must not offer the saved report as an extraction log.
	if _, _, err := runCLI(t, []string{"--path", env.albumDir}, env.configPath); err != nil {
		t.Fatalf("second verify: %v", err)
	}
}

func TestVerifyPromptsForLog(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeAlbum(t, "b.log", true)
	if err := os.WriteFile(filepath.Join(env.albumDir, "a.log"), []byte("no crcs here\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, stderr, err := runCLIWithInput(t, []string{"--path", env.albumDir}, env.configPath, "7\n1\n")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	requireContains(t, stderr, "Multiple log files were found:")
	requireContains(t, stderr, "0. a.log")
	requireContains(t, stderr, "1. b.log")
	requireContains(t, stderr, "Invalid choice.")
	requireContains(t, out, "Status: OK")
}

func TestVerifyAbortedSelection(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeAlbum(t, "b.log", true)
	testsupport.WriteFile(t, filepath.Join(env.albumDir, "a.log"), 16)

	out, _, err := runCLIWithInput(t, []string{"--path", env.albumDir}, env.configPath, "-1\n")
	if err != nil {
		t.Fatalf("aborted selection should exit cleanly, got %v", err)
	}
	if out != "" {
		t.Fatalf("expected no report, got %q", out)
	}
}

func TestVerifyMissingPathRecordsError(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"--path", filepath.Join(env.albumDir, "missing")}, env.configPath)
	if !errors.Is(err, services.ErrPathNotFound) {
		t.Fatalf("expected ErrPathNotFound, got %v", err)
	}

	store := testsupport.MustOpenHistory(t, env.cfg)
	entries, err := store.Recent(t.Context(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Status != history.StatusError || entries[0].ErrorKind != "path_not_found" {
		t.Fatalf("unexpected history %#v", entries)
	}
}

func TestVerifyMissingPathBeforeDecoderLookup(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Decoder.Binary = filepath.Join(env.albumDir, "no-such-flac")
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, []string{"--path", filepath.Join(env.albumDir, "missing")}, env.configPath)
	if !errors.Is(err, services.ErrPathNotFound) {
		t.Fatalf("expected ErrPathNotFound, got %v", err)
	}
	if errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("decoder lookup ran before path check: %v", err)
	}
}

func TestVerifyPathIsFile(t *testing.T) {
	env := setupCLITestEnv(t)
	file := filepath.Join(env.albumDir, "not-a-dir.flac")
	testsupport.WriteFile(t, file, 16)

	_, _, err := runCLI(t, []string{"--path", file}, env.configPath)
	if !errors.Is(err, services.ErrPathNotFound) {
		t.Fatalf("expected ErrPathNotFound for a file path, got %v", err)
	}
}

func TestVerifyRequiresPath(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, nil, env.configPath); err == nil {
		t.Fatal("expected missing --path to fail")
	}
}

func TestVerifyNoHistoryFlag(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeAlbum(t, "rip.log", true)

	if _, _, err := runCLI(t, []string{"--path", env.albumDir, "--no-history"}, env.configPath); err != nil {
		t.Fatalf("verify: %v", err)
	}
	store := testsupport.MustOpenHistory(t, env.cfg)
	entries, err := store.Recent(t.Context(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no history entries, got %d", len(entries))
	}
}

func TestVerifyRejectsUnknownBackend(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeAlbum(t, "rip.log", true)

	_, _, err := runCLI(t, []string{"--path", env.albumDir, "--backend", "ffmpeg"}, env.configPath)
	if err == nil {
		t.Fatal("expected unknown backend to be rejected")
	}
}
