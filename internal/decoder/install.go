package decoder

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"crchecker/internal/fileutil"
	"crchecker/internal/logging"
)

const (
	defaultDownloadURL     = "https://ftp.osuosl.org/pub/xiph/releases/flac/flac-1.4.3-win.zip"
	defaultDownloadTimeout = 5 * time.Minute
	maxArchiveBytes        = 256 << 20
)

// Installer downloads the decoder release archive and unpacks it into a
// tools directory.
type Installer struct {
	url     string
	dest    string
	client  *http.Client
	logger  *slog.Logger
	observe func(written, total int64)
}

// InstallerOption configures an Installer.
type InstallerOption func(*Installer)

// WithHTTPClient overrides the HTTP client used for the download.
func WithHTTPClient(client *http.Client) InstallerOption {
	return func(i *Installer) {
		if client != nil {
			i.client = client
		}
	}
}

// WithInstallLogger attaches a logger to the installer.
func WithInstallLogger(logger *slog.Logger) InstallerOption {
	return func(i *Installer) {
		i.logger = logging.NewComponentLogger(logger, "decoder-install")
	}
}

// WithDownloadProgress registers a callback receiving bytes received so far
// and the advertised total (-1 when unknown).
func WithDownloadProgress(fn func(written, total int64)) InstallerOption {
	return func(i *Installer) {
		i.observe = fn
	}
}

// NewInstaller constructs an installer that unpacks url into dest.
func NewInstaller(url, dest string, timeout time.Duration, opts ...InstallerOption) *Installer {
	if strings.TrimSpace(url) == "" {
		url = defaultDownloadURL
	}
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}
	inst := &Installer{
		url:    strings.TrimSpace(url),
		dest:   dest,
		client: &http.Client{Timeout: timeout},
		logger: logging.NewComponentLogger(nil, "decoder-install"),
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst
}

// ArchiveRoot is the directory name the release archive unpacks to, derived
// from the archive file name ("flac-1.4.3-win.zip" -> "flac-1.4.3-win").
func (i *Installer) ArchiveRoot() string {
	name := path.Base(i.url)
	if q := strings.IndexAny(name, "?#"); q >= 0 {
		name = name[:q]
	}
	return strings.TrimSuffix(name, path.Ext(name))
}

// Install downloads and unpacks the archive. Entries are extracted into a
// staging directory first and moved into dest only when the whole archive
// unpacked cleanly.
func (i *Installer) Install(ctx context.Context) error {
	i.logger.Info("downloading decoder", logging.String("url", i.url))

	data, err := i.download(ctx)
	if err != nil {
		return err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open decoder archive: %w", err)
	}

	if err := os.MkdirAll(i.dest, 0o755); err != nil {
		return fmt.Errorf("create tools directory: %w", err)
	}
	staging, err := os.MkdirTemp(i.dest, ".install-*")
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	for _, file := range zr.File {
		if err := extractEntry(staging, file); err != nil {
			return err
		}
	}

	entries, err := os.ReadDir(staging)
	if err != nil {
		return fmt.Errorf("read staging directory: %w", err)
	}
	for _, entry := range entries {
		target := filepath.Join(i.dest, entry.Name())
		if fileutil.Exists(target) {
			if err := os.RemoveAll(target); err != nil {
				return fmt.Errorf("replace %s: %w", entry.Name(), err)
			}
		}
		if err := os.Rename(filepath.Join(staging, entry.Name()), target); err != nil {
			return fmt.Errorf("install %s: %w", entry.Name(), err)
		}
	}

	i.logger.Info("decoder installed",
		logging.String("dir", i.dest),
		logging.String("size", humanize.Bytes(uint64(len(data)))),
	)
	return nil
}

func (i *Installer) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.url, nil)
	if err != nil {
		return nil, fmt.Errorf("download decoder: %w", err)
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download decoder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download decoder: unexpected status %d", resp.StatusCode)
	}

	var body io.Reader = io.LimitReader(resp.Body, maxArchiveBytes+1)
	if i.observe != nil {
		body = &progressReader{r: body, total: resp.ContentLength, observe: i.observe}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("download decoder: %w", err)
	}
	if len(data) > maxArchiveBytes {
		return nil, fmt.Errorf("download decoder: archive exceeds %s", humanize.Bytes(maxArchiveBytes))
	}
	return data, nil
}

func extractEntry(root string, file *zip.File) error {
	name := filepath.FromSlash(file.Name)
	target := filepath.Join(root, name)
	rel, err := filepath.Rel(root, target)
	if err != nil || filepath.IsAbs(name) || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("decoder archive entry %q escapes destination", file.Name)
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(rel), err)
	}
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %s: %w", file.Name, err)
	}
	defer rc.Close()

	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create %s: %w", rel, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("extract %s: %w", rel, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("extract %s: %w", rel, err)
	}
	return nil
}

type progressReader struct {
	r       io.Reader
	written int64
	total   int64
	observe func(written, total int64)
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.written += int64(n)
		p.observe(p.written, p.total)
	}
	return n, err
}
