package decoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"crchecker/internal/fileutil"
	"crchecker/internal/logging"
	"crchecker/internal/services"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) error
}

// Option configures a Command.
type Option func(*Command)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Command) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithTimeout bounds a single decode. Zero or negative disables the limit.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Command) {
		c.timeout = timeout
	}
}

// WithLogger attaches a logger for decode diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Command) {
		c.logger = logging.NewComponentLogger(logger, "decoder")
	}
}

// Command decodes through the flac executable.
type Command struct {
	binary  string
	timeout time.Duration
	exec    Executor
	logger  *slog.Logger
	locks   *keyedMutex
}

// NewCommand constructs a Command for the located decoder.
func NewCommand(desc Descriptor, opts ...Option) (*Command, error) {
	if !desc.Valid() {
		return nil, services.Wrap(services.ErrConfiguration, "decoder", "init", "decoder binary required", nil)
	}
	cmd := &Command{
		binary: strings.TrimSpace(desc.Binary),
		exec:   commandExecutor{},
		logger: logging.NewComponentLogger(nil, "decoder"),
		locks:  newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(cmd)
	}
	return cmd, nil
}

// RawPath returns where the executable writes the decoded stream for path:
// the same directory, with the final extension replaced by ".raw".
func RawPath(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(path), stem+".raw")
}

// Decode runs the executable and returns the contents of its raw artifact.
// The artifact is always removed afterwards. An artifact that already exists
// before the run is left untouched and reported as a failure.
func (c *Command) Decode(ctx context.Context, path string) ([]byte, error) {
	rawPath := RawPath(path)
	unlock := c.locks.Lock(rawPath)
	defer unlock()

	if _, err := os.Lstat(rawPath); err == nil {
		return nil, services.Wrap(services.ErrDecodeFailed, "decode", "prepare",
			fmt.Sprintf("refusing to overwrite existing %s", filepath.Base(rawPath)), nil)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := append(append([]string{}, decodeArgs...), path)
	c.logger.Debug("running decoder",
		logging.String(logging.FieldFile, filepath.Base(path)),
		logging.String("binary", c.binary),
	)
	runErr := c.exec.Run(runCtx, c.binary, args)

	data, readErr := fileutil.ReadAndRemove(rawPath)
	if runErr != nil {
		return nil, services.Wrap(services.ErrDecodeFailed, "decode", "run",
			fmt.Sprintf("flac failed for %s", filepath.Base(path)), runErr)
	}
	if readErr != nil {
		if errors.Is(readErr, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrDecodeFailed, "decode", "read",
				fmt.Sprintf("flac produced no output for %s", filepath.Base(path)), nil)
		}
		return nil, services.Wrap(services.ErrDecodeFailed, "decode", "read",
			fmt.Sprintf("read decoded output for %s", filepath.Base(path)), readErr)
	}
	return data, nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return fmt.Errorf("%w: %s", err, detail)
		}
		return err
	}
	return nil
}

// keyedMutex serializes work per key while letting distinct keys proceed.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

// Lock acquires the lock for key and returns its release function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
