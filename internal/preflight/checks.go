package preflight

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"crchecker/internal/config"
	"crchecker/internal/decoder"
	"crchecker/internal/deps"
	"crchecker/internal/history"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := checkAccess(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckHistory opens the history database and reports how many runs it holds.
func CheckHistory(ctx context.Context, cfg *config.Config) Result {
	const name = "History database"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.History.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.History.Path, err)}
	}
	defer store.Close()

	entries, err := store.Recent(ctx, 0)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.History.Path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d runs)", cfg.History.Path, len(entries))}
}

// CheckSystemDeps evaluates the external tools the configured decoder
// backend needs. The native backend needs none.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	if cfg == nil || cfg.Decoder.Backend == config.BackendNative {
		return nil
	}
	bundled := ""
	if runtime.GOOS == "windows" {
		bundled = decoder.NewLocator(cfg).BundledPath()
	}
	return []deps.Status{deps.CheckDecoder(cfg.Decoder.Binary, bundled)}
}
