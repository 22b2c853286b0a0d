package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"crchecker/internal/albumlock"
	"crchecker/internal/config"
	"crchecker/internal/decoder"
	"crchecker/internal/discovery"
	"crchecker/internal/history"
	"crchecker/internal/logging"
	"crchecker/internal/preflight"
	"crchecker/internal/services"
	"crchecker/internal/tracktag"
	"crchecker/internal/verification"
)

func runVerify(cmd *cobra.Command, ctx *commandContext, albumPath string, save bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	logger = logging.NewComponentLogger(logger, "cli")
	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}
	stderr := cmd.ErrOrStderr()

	if check := preflight.CheckDirectoryAccess("State directory", cfg.Paths.StateDir); !check.Passed {
		return fmt.Errorf("state directory unusable: %s", check.Detail)
	}
	// Fail on a bad album path before locating or downloading a decoder.
	if _, err := discovery.Scan(albumPath, cfg.Scan.AudioExtension, cfg.Scan.LogExtension, cfg.Report.FileName); err != nil {
		recordFailure(runCtx, cfg, logger, albumPath, err)
		return err
	}
	lock, err := albumlock.Acquire(cfg.LockDir(), albumPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logging.WarnWithContext(logger, "album lock release failed", "lock_release_failed",
				logging.String("lock", lock.Path()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the lock file if no crchecker process is running"),
			)
		}
	}()

	dec, desc, err := decoder.New(runCtx, cfg,
		[]decoder.Option{decoder.WithLogger(logger)},
		decoder.WithInstallLogger(logger),
		decoder.WithDownloadProgress(newDownloadProgress(stderr)),
	)
	if err != nil {
		return err
	}
	logger.Debug("decoder selected",
		logging.String("backend", cfg.Decoder.Backend),
		logging.String("binary", desc.Binary),
		logging.String("source", desc.Source),
	)

	progress := newProgressReporter(stderr, logger)
	verifier, err := verification.New(verification.Options{
		Decoder:    dec,
		Resolver:   tracktag.NewResolver(logger),
		Chooser:    newPromptChooser(cmd.InOrStdin(), stderr),
		AudioExt:   cfg.Scan.AudioExtension,
		LogExt:     cfg.Scan.LogExtension,
		Marker:     cfg.Scan.CRCMarker,
		ReportName: cfg.Report.FileName,
		Workers:    cfg.Workers(),
		Progress:   progress.update,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	run, err := verifier.Verify(runCtx, albumPath)
	progress.finish()
	if err != nil {
		if errors.Is(err, services.ErrSelectionAborted) {
			logger.Info("log selection aborted", logging.String("album", albumPath))
			return nil
		}
		if !errors.Is(err, context.Canceled) {
			recordFailure(runCtx, cfg, logger, albumPath, err)
		}
		return err
	}

	report := verification.RenderReport(run, verification.Version)
	fmt.Fprintln(cmd.OutOrStdout(), report)

	if save || cfg.Report.Save {
		path, err := verification.SaveReport(run.AlbumPath, cfg.Report.FileName, cfg.Report.Encoding, report)
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Report saved to %s\n", path)
	}

	recordRun(runCtx, cfg, logger, run)
	return nil
}

// History is best effort: a broken database must not hide a verdict.
func recordRun(ctx context.Context, cfg *config.Config, logger *slog.Logger, run *verification.Run) {
	withHistory(cfg, logger, func(store *history.Store) error {
		return store.Record(ctx, run)
	})
}

func recordFailure(ctx context.Context, cfg *config.Config, logger *slog.Logger, albumPath string, cause error) {
	abs, err := filepath.Abs(albumPath)
	if err != nil {
		abs = albumPath
	}
	withHistory(cfg, logger, func(store *history.Store) error {
		_, err := store.RecordError(ctx, abs, cause, time.Now())
		return err
	})
}

func withHistory(cfg *config.Config, logger *slog.Logger, fn func(*history.Store) error) {
	if !cfg.History.Enabled {
		return
	}
	store, err := history.Open(cfg.History.Path)
	if err == nil {
		err = fn(store)
		_ = store.Close()
	}
	if err != nil {
		logging.WarnWithContext(logger, "history update failed", "history_write_failed",
			logging.String("path", cfg.History.Path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the history database or disable it with --no-history"),
			logging.String(logging.FieldImpact, "this run will not appear in crchecker history"),
		)
	}
}
