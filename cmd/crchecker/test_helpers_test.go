package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"crchecker/internal/checksum"
	"crchecker/internal/config"
	"crchecker/internal/testsupport"
)

// stubFlac copies its input to the raw artifact, so the "decoded" audio of a
// track is its file contents.
const stubFlac = "#!/bin/sh\nfor f; do :; done\ncp \"$f\" \"${f%.*}.raw\"\n"

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	albumDir   string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub decoder is a shell script")
	}

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	if cfg.Decoder.Backend == config.BackendExternal {
		cfg.Decoder.Binary = filepath.Join(base, "bin", "flac")
		if err := os.MkdirAll(filepath.Dir(cfg.Decoder.Binary), 0o755); err != nil {
			t.Fatalf("mkdir bin: %v", err)
		}
		if err := os.WriteFile(cfg.Decoder.Binary, []byte(stubFlac), 0o755); err != nil {
			t.Fatalf("write stub flac: %v", err)
		}
	}

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		albumDir:   filepath.Join(base, "album"),
	}
}

// writeAlbum creates a single-track album and a log whose CRC matches the
// stub decoder's output, or not when match is false.
func (e *cliTestEnv) writeAlbum(t *testing.T, logName string, match bool) string {
	t.Helper()
	track := filepath.Join(e.albumDir, "01 - Intro.flac")
	testsupport.WriteFile(t, track, 4096)
	data, err := os.ReadFile(track)
	if err != nil {
		t.Fatal(err)
	}
	crc := checksum.Compute(data)
	if !match {
		crc = "DEADBEEF"
	}
	log := fmt.Sprintf("Exact Audio Copy V1.6 from 23. October 2020\r\n\r\nTrack  1\r\n\r\n     Copy CRC %s\r\n     Copy OK\r\n", crc)
	if err := os.WriteFile(filepath.Join(e.albumDir, logName), []byte(log), 0o644); err != nil {
		t.Fatal(err)
	}
	return crc
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, args, configPath, "")
}

func runCLIWithInput(t *testing.T, args []string, configPath, input string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(input))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
state_dir = %q
log_dir = %q
tools_dir = %q

[decoder]
backend = %q
binary = %q

[verify]
workers = 1

[history]
enabled = %t
path = %q
`,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Paths.ToolsDir,
		cfg.Decoder.Backend,
		cfg.Decoder.Binary,
		cfg.History.Enabled,
		cfg.History.Path,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
