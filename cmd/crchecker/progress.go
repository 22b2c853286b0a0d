package main

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/schollz/progressbar/v3"

	"crchecker/internal/logging"
	"crchecker/internal/verification"
)

// progressReporter shows per-file progress: a bar on terminals, sampled log
// records everywhere else.
type progressReporter struct {
	out     io.Writer
	tty     bool
	logger  *slog.Logger
	sampler *logging.ProgressSampler

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newProgressReporter(out io.Writer, logger *slog.Logger) *progressReporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &progressReporter{
		out:     out,
		tty:     shouldColorize(out),
		logger:  logger,
		sampler: logging.NewProgressSampler(25),
	}
}

func (p *progressReporter) update(u verification.ProgressUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tty {
		if p.bar == nil {
			p.bar = progressbar.NewOptions(u.Total,
				progressbar.OptionSetWriter(p.out),
				progressbar.OptionSetDescription("Verifying files"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = p.bar.Set(u.Done)
		return
	}
	if p.sampler.ShouldLog(u.Done, u.Total) {
		p.logger.Info("verification progress",
			logging.Int("done", u.Done),
			logging.Int("total", u.Total),
			logging.Int(logging.FieldTrack, u.Record.Position),
			logging.String(logging.FieldFile, u.Record.FileName),
		)
	}
}

func (p *progressReporter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

// newDownloadProgress returns an observer for the decoder bundle download.
// Without a terminal it reports nothing; the installer logs completion.
func newDownloadProgress(out io.Writer) func(written, total int64) {
	if !shouldColorize(out) {
		return nil
	}
	var bar *progressbar.ProgressBar
	return func(written, total int64) {
		if bar == nil {
			if total <= 0 {
				total = -1
			}
			bar = progressbar.NewOptions64(total,
				progressbar.OptionSetWriter(out),
				progressbar.OptionSetDescription("Downloading flac"),
				progressbar.OptionShowBytes(true),
				progressbar.OptionOnCompletion(func() { fmt.Fprintln(out) }),
			)
		}
		_ = bar.Set64(written)
	}
}
