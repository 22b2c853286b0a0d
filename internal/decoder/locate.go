package decoder

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"crchecker/internal/config"
	"crchecker/internal/fileutil"
	"crchecker/internal/services"
)

// Locator resolves the decoder executable for a platform.
type Locator struct {
	GOOS     string
	GOARCH   string
	Binary   string
	ToolsDir string
	// Installer fetches the Windows release when it is missing. Nil
	// disables installation.
	Installer *Installer
	lookPath  func(string) (string, error)
}

// NewLocator builds a Locator for the running platform from configuration.
func NewLocator(cfg *config.Config, opts ...InstallerOption) *Locator {
	timeout := time.Duration(cfg.Decoder.DownloadTimeout) * time.Second
	return &Locator{
		GOOS:      runtime.GOOS,
		GOARCH:    runtime.GOARCH,
		Binary:    cfg.Decoder.Binary,
		ToolsDir:  cfg.Paths.ToolsDir,
		Installer: NewInstaller(cfg.Decoder.DownloadURL, cfg.Paths.ToolsDir, timeout, opts...),
		lookPath:  exec.LookPath,
	}
}

// Locate returns the configured binary when set. On Windows it returns the
// bundled flac.exe for the architecture, installing the release on first
// use. Elsewhere it resolves "flac" from PATH.
func Locate(ctx context.Context, cfg *config.Config, opts ...InstallerOption) (Descriptor, error) {
	return NewLocator(cfg, opts...).Locate(ctx)
}

// Locate resolves the descriptor; see the package-level Locate.
func (l *Locator) Locate(ctx context.Context) (Descriptor, error) {
	if binary := strings.TrimSpace(l.Binary); binary != "" {
		return Descriptor{Binary: binary, Source: "config"}, nil
	}
	if l.GOOS == "windows" {
		return l.locateBundled(ctx)
	}

	lookPath := l.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	resolved, err := lookPath("flac")
	if err != nil {
		return Descriptor{}, services.Wrap(services.ErrConfiguration, "decoder", "locate",
			"flac not found on PATH; install the flac package or set decoder.binary", err)
	}
	return Descriptor{Binary: resolved, Source: "path"}, nil
}

// BundledPath returns where the Windows release keeps flac.exe for the
// architecture.
func (l *Locator) BundledPath() string {
	root := "flac-1.4.3-win"
	if l.Installer != nil {
		root = l.Installer.ArchiveRoot()
	}
	return filepath.Join(l.ToolsDir, root, windowsArchDir(l.GOARCH), "flac.exe")
}

func (l *Locator) locateBundled(ctx context.Context) (Descriptor, error) {
	target := l.BundledPath()
	if fileutil.Exists(target) {
		return Descriptor{Binary: target, Source: "tools"}, nil
	}
	if l.Installer == nil {
		return Descriptor{}, services.Wrap(services.ErrConfiguration, "decoder", "locate",
			fmt.Sprintf("decoder missing at %s", target), nil)
	}
	if err := l.Installer.Install(ctx); err != nil {
		return Descriptor{}, services.Wrap(services.ErrConfiguration, "decoder", "install",
			"download flac decoder", err)
	}
	if !fileutil.Exists(target) {
		return Descriptor{}, services.Wrap(services.ErrConfiguration, "decoder", "install",
			fmt.Sprintf("archive did not contain %s", target), nil)
	}
	return Descriptor{Binary: target, Source: "tools"}, nil
}

func windowsArchDir(goarch string) string {
	switch goarch {
	case "386", "arm":
		return "Win32"
	default:
		return "Win64"
	}
}

// New builds the Decoder selected by configuration. The external backend
// locates (and on Windows installs) the executable first.
func New(ctx context.Context, cfg *config.Config, opts []Option, installOpts ...InstallerOption) (Decoder, Descriptor, error) {
	if cfg.Decoder.Backend == config.BackendNative {
		return NewNative(), Descriptor{Source: "native"}, nil
	}
	desc, err := Locate(ctx, cfg, installOpts...)
	if err != nil {
		return nil, Descriptor{}, err
	}
	if cfg.Decoder.TimeoutSeconds > 0 {
		opts = append([]Option{WithTimeout(time.Duration(cfg.Decoder.TimeoutSeconds) * time.Second)}, opts...)
	}
	cmd, err := NewCommand(desc, opts...)
	if err != nil {
		return nil, Descriptor{}, err
	}
	return cmd, desc, nil
}
