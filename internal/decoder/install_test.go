package decoder

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"crchecker/internal/config"
	"crchecker/internal/services"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func serveArchive(t *testing.T, archive []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if filepath.Base(r.URL.Path) != "flac-1.4.3-win.zip" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(archive)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInstallerUnpacksArchive(t *testing.T) {
	archive := buildZip(t, map[string]string{
		"flac-1.4.3-win/Win64/flac.exe": "x64",
		"flac-1.4.3-win/Win32/flac.exe": "x86",
		"flac-1.4.3-win/README.txt":     "readme",
	})
	srv := serveArchive(t, archive)
	dest := t.TempDir()

	var lastWritten int64
	inst := NewInstaller(srv.URL+"/flac-1.4.3-win.zip", dest, time.Minute,
		WithDownloadProgress(func(written, _ int64) { lastWritten = written }))
	if err := inst.Install(context.Background()); err != nil {
		t.Fatalf("Install: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dest, "flac-1.4.3-win", "Win64", "flac.exe"))
	if err != nil || string(got) != "x64" {
		t.Fatalf("Win64 binary = %q, %v", got, err)
	}
	if lastWritten != int64(len(archive)) {
		t.Fatalf("progress reported %d bytes, want %d", lastWritten, len(archive))
	}
	entries, err := os.ReadDir(dest)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected staging directory removed, found %d entries", len(entries))
	}
}

func TestInstallerRejectsEscapingEntries(t *testing.T) {
	archive := buildZip(t, map[string]string{"../evil.exe": "boom"})
	srv := serveArchive(t, archive)
	parent := t.TempDir()
	dest := filepath.Join(parent, "tools")

	inst := NewInstaller(srv.URL+"/flac-1.4.3-win.zip", dest, time.Minute)
	if err := inst.Install(context.Background()); err == nil {
		t.Fatal("expected error for escaping archive entry")
	}
	if _, err := os.Stat(filepath.Join(parent, "evil.exe")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("escaping entry was written: %v", err)
	}
}

func TestInstallerHTTPError(t *testing.T) {
	srv := serveArchive(t, nil)
	inst := NewInstaller(srv.URL+"/missing.zip", t.TempDir(), time.Minute)
	if err := inst.Install(context.Background()); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestArchiveRoot(t *testing.T) {
	inst := NewInstaller("https://example.com/pub/flac-1.4.3-win.zip?mirror=1", t.TempDir(), 0)
	if got := inst.ArchiveRoot(); got != "flac-1.4.3-win" {
		t.Fatalf("ArchiveRoot = %q", got)
	}
}

func TestLocatorWindowsInstallsOnFirstUse(t *testing.T) {
	archive := buildZip(t, map[string]string{
		"flac-1.4.3-win/Win64/flac.exe": "x64",
		"flac-1.4.3-win/Win32/flac.exe": "x86",
	})
	srv := serveArchive(t, archive)
	tools := t.TempDir()

	for _, tt := range []struct {
		arch string
		dir  string
	}{{"amd64", "Win64"}, {"386", "Win32"}} {
		loc := &Locator{
			GOOS:      "windows",
			GOARCH:    tt.arch,
			ToolsDir:  tools,
			Installer: NewInstaller(srv.URL+"/flac-1.4.3-win.zip", tools, time.Minute),
		}
		desc, err := loc.Locate(context.Background())
		if err != nil {
			t.Fatalf("Locate(%s): %v", tt.arch, err)
		}
		want := filepath.Join(tools, "flac-1.4.3-win", tt.dir, "flac.exe")
		if desc.Binary != want || desc.Source != "tools" {
			t.Fatalf("Locate(%s) = %+v, want %s", tt.arch, desc, want)
		}
	}
}

func TestLocatorWindowsWithoutInstaller(t *testing.T) {
	loc := &Locator{GOOS: "windows", GOARCH: "amd64", ToolsDir: t.TempDir()}
	_, err := loc.Locate(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestLocatorPrefersConfiguredBinary(t *testing.T) {
	loc := &Locator{GOOS: "windows", Binary: "C:/tools/flac.exe"}
	desc, err := loc.Locate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if desc.Binary != "C:/tools/flac.exe" || desc.Source != "config" {
		t.Fatalf("unexpected descriptor %+v", desc)
	}
}

func TestLocatorUsesPath(t *testing.T) {
	loc := &Locator{GOOS: "linux", lookPath: func(name string) (string, error) {
		return "/usr/bin/" + name, nil
	}}
	desc, err := loc.Locate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if desc.Binary != "/usr/bin/flac" || desc.Source != "path" {
		t.Fatalf("unexpected descriptor %+v", desc)
	}

	loc.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	if _, err := loc.Locate(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestNewSelectsNativeBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Decoder.Backend = config.BackendNative
	dec, desc, err := New(context.Background(), &cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := dec.(*Native); !ok {
		t.Fatalf("expected *Native, got %T", dec)
	}
	if desc.Source != "native" {
		t.Fatalf("unexpected descriptor %+v", desc)
	}
}
