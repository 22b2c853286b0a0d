package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"crchecker/internal/checksum"
	"crchecker/internal/decoder"
	"crchecker/internal/discovery"
	"crchecker/internal/eaclog"
	"crchecker/internal/logging"
	"crchecker/internal/services"
)

// Pipeline stages, used in log fields and error context.
const (
	StageInitializing = "initializing"
	StageLogParsed    = "log_parsed"
	StageResolved     = "resolved"
	StagePerFileLoop  = "per_file_loop"
	StageAggregated   = "aggregated"
)

// Chooser picks one of several extraction logs. It returns the chosen index,
// or -1 to abort the run.
type Chooser interface {
	Choose(ctx context.Context, candidates []string) (int, error)
}

// ChooserFunc adapts a function to Chooser.
type ChooserFunc func(ctx context.Context, candidates []string) (int, error)

// Choose calls f.
func (f ChooserFunc) Choose(ctx context.Context, candidates []string) (int, error) {
	return f(ctx, candidates)
}

// TrackResolver maps an audio file to its 1-based position.
type TrackResolver interface {
	Resolve(path string, multiTrack bool) (int, error)
}

// ProgressUpdate is reported once per verified file.
type ProgressUpdate struct {
	Done   int
	Total  int
	Record TrackRecord
}

// Options configures a Verifier. Decoder and Resolver are required.
type Options struct {
	Decoder    decoder.Decoder
	Resolver   TrackResolver
	Chooser    Chooser
	AudioExt   string
	LogExt     string
	Marker     string
	ReportName string
	// Workers bounds concurrent decodes; values below 2 run sequentially.
	Workers  int
	Progress func(ProgressUpdate)
	Logger   *slog.Logger
	Now      func() time.Time
}

// Verifier checks album directories against their extraction logs.
type Verifier struct {
	opts   Options
	logger *slog.Logger
}

// New constructs a Verifier, filling defaults for unset options.
func New(opts Options) (*Verifier, error) {
	if opts.Decoder == nil {
		return nil, services.Wrap(services.ErrConfiguration, "verify", "init", "decoder required", nil)
	}
	if opts.Resolver == nil {
		return nil, services.Wrap(services.ErrConfiguration, "verify", "init", "track resolver required", nil)
	}
	if opts.AudioExt == "" {
		opts.AudioExt = ".flac"
	}
	if opts.LogExt == "" {
		opts.LogExt = ".log"
	}
	if opts.Marker == "" {
		opts.Marker = eaclog.DefaultMarker
	}
	if opts.ReportName == "" {
		opts.ReportName = DefaultReportName
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Verifier{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "verifier"),
	}, nil
}

// job pairs a discovered file with its resolved record.
type job struct {
	path   string
	record *TrackRecord
}

// Verify checks dir and returns the aggregated run. Any returned error means
// the verification could not be completed and no report should be produced.
func (v *Verifier) Verify(ctx context.Context, dir string) (*Run, error) {
	started := time.Now()
	run := &Run{ID: uuid.NewString()}
	ctx = services.WithRunID(ctx, run.ID)

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrPathNotFound, StageInitializing, "resolve path", dir, err)
	}
	run.AlbumPath = absDir

	ctx = services.WithStage(ctx, StageInitializing)
	album, logName, err := v.discover(ctx, absDir)
	if err != nil {
		return nil, err
	}
	run.LogFile = logName

	ctx = services.WithStage(ctx, StageLogParsed)
	sums, err := v.parseLog(ctx, filepath.Join(absDir, logName), len(album.Audio))
	if err != nil {
		return nil, err
	}
	run.Tracks = make([]*TrackRecord, len(sums))
	for i, sum := range sums {
		run.Tracks[i] = &TrackRecord{Position: i + 1, ExpectedChecksum: sum, Status: StatusPending}
	}

	ctx = services.WithStage(ctx, StageResolved)
	jobs, err := v.resolve(ctx, album, run.Tracks)
	if err != nil {
		return nil, err
	}

	ctx = services.WithStage(ctx, StagePerFileLoop)
	if err := v.process(ctx, jobs); err != nil {
		return nil, err
	}

	ctx = services.WithStage(ctx, StageAggregated)
	run.Status = aggregate(run.Tracks)
	run.Timestamp = v.opts.Now()
	run.Duration = time.Since(started)

	logger := logging.WithContext(ctx, v.logger)
	if run.Status == StatusOk {
		logger.Info("album verified",
			logging.String("album", filepath.Base(absDir)),
			logging.Int("tracks", len(run.Tracks)),
			logging.Duration("elapsed", run.Duration),
		)
	} else {
		logging.WarnWithContext(logger, "album failed verification", "checksum_mismatch",
			logging.String("album", filepath.Base(absDir)),
			logging.Int("failed_tracks", len(run.Failed())),
			logging.String(logging.FieldErrorHint, "re-rip or restore the failed tracks from a known good copy"),
			logging.String(logging.FieldImpact, "album does not match its extraction log"),
		)
	}
	return run, nil
}

func (v *Verifier) discover(ctx context.Context, dir string) (*discovery.Album, string, error) {
	album, err := discovery.Scan(dir, v.opts.AudioExt, v.opts.LogExt, v.opts.ReportName)
	if err != nil {
		return nil, "", err
	}
	if len(album.Audio) == 0 {
		return nil, "", services.Wrap(services.ErrNoAudioFiles, StageInitializing, "scan",
			fmt.Sprintf("no %s files in %s", v.opts.AudioExt, dir), nil)
	}
	switch len(album.Logs) {
	case 0:
		return nil, "", services.Wrap(services.ErrNoLogFile, StageInitializing, "scan",
			fmt.Sprintf("no %s files in %s", v.opts.LogExt, dir), nil)
	case 1:
		return album, album.Logs[0], nil
	}

	if v.opts.Chooser == nil {
		return nil, "", services.Wrap(services.ErrConfiguration, StageInitializing, "choose log",
			fmt.Sprintf("%d log files found and no way to choose", len(album.Logs)), nil)
	}
	choice, err := v.opts.Chooser.Choose(ctx, album.Logs)
	if err != nil {
		return nil, "", fmt.Errorf("choose log: %w", err)
	}
	if choice == -1 {
		return nil, "", services.Wrap(services.ErrSelectionAborted, StageInitializing, "choose log", "", nil)
	}
	if choice < 0 || choice >= len(album.Logs) {
		return nil, "", services.Wrap(services.ErrConfiguration, StageInitializing, "choose log",
			fmt.Sprintf("selection %d out of range", choice), nil)
	}
	return album, album.Logs[choice], nil
}

func (v *Verifier) parseLog(ctx context.Context, path string, fileCount int) (eaclog.Checksums, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNoLogFile, StageLogParsed, "read", filepath.Base(path), err)
	}
	text, err := eaclog.DecodeText(raw)
	if err != nil {
		return nil, services.Wrap(services.ErrEmptyLog, StageLogParsed, "decode", filepath.Base(path), err)
	}
	sums, err := eaclog.Parse(text, v.opts.Marker)
	if err != nil {
		if errors.Is(err, services.ErrEmptyLog) {
			return nil, services.Wrap(services.ErrNoCrcsFound, StageLogParsed, "parse", filepath.Base(path), err)
		}
		return nil, err
	}
	if len(sums) != fileCount {
		return nil, services.Wrap(services.ErrCrcCountMismatch, StageLogParsed, "count",
			fmt.Sprintf("%s lists %d checksums but %d audio files were found", filepath.Base(path), len(sums), fileCount), nil)
	}
	logging.WithContext(ctx, v.logger).Debug("log parsed",
		logging.String("log", filepath.Base(path)),
		logging.Int("checksums", len(sums)),
	)
	return sums, nil
}

func (v *Verifier) resolve(ctx context.Context, album *discovery.Album, records []*TrackRecord) ([]job, error) {
	paths := album.AudioPaths()
	multiTrack := len(paths) > 1
	owners := make(map[int]string, len(paths))
	jobs := make([]job, 0, len(paths))
	for i, path := range paths {
		name := album.Audio[i]
		position, err := v.opts.Resolver.Resolve(path, multiTrack)
		if err != nil {
			return nil, err
		}
		if position < 1 || position > len(records) {
			return nil, services.Wrap(services.ErrTrackOutOfRange, StageResolved, "resolve",
				fmt.Sprintf("%s is track %d but the log lists %d tracks", name, position, len(records)), nil)
		}
		if other, taken := owners[position]; taken {
			return nil, services.Wrap(services.ErrDuplicateTrackPosition, StageResolved, "resolve",
				fmt.Sprintf("%s and %s are both track %d", other, name, position), nil)
		}
		owners[position] = name
		record := records[position-1]
		record.FileName = name
		jobs = append(jobs, job{path: path, record: record})
	}
	logging.WithContext(ctx, v.logger).Debug("track positions resolved",
		logging.Int("files", len(jobs)),
		logging.Bool("multi_track", multiTrack),
	)
	return jobs, nil
}

func (v *Verifier) process(ctx context.Context, jobs []job) error {
	workers := v.opts.Workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	if workers <= 1 {
		for i, j := range jobs {
			result, err := v.verifyOne(ctx, j)
			if err != nil {
				return err
			}
			v.report(i+1, len(jobs), apply(j.record, result))
		}
		return nil
	}
	return v.processConcurrent(ctx, jobs, workers)
}

func (v *Verifier) processConcurrent(ctx context.Context, jobs []job, workers int) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan job)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		done     int
		firstErr error
	)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for j := range queue {
				result, err := v.verifyOne(runCtx, j)
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
						cancel()
					}
					mu.Unlock()
					continue
				}
				done++
				v.report(done, len(jobs), apply(j.record, result))
				mu.Unlock()
			}
		}()
	}

feed:
	for _, j := range jobs {
		select {
		case <-runCtx.Done():
			break feed
		case queue <- j:
		}
	}
	close(queue)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// checkResult is the outcome of one file, applied to its record by the
// caller so record updates stay under the caller's lock.
type checkResult struct {
	actual string
	status Status
}

func apply(record *TrackRecord, result checkResult) TrackRecord {
	record.ActualChecksum = result.actual
	record.Status = result.status
	return *record
}

// verifyOne decodes and checksums one file. It only reads the record.
func (v *Verifier) verifyOne(ctx context.Context, j job) (checkResult, error) {
	if err := ctx.Err(); err != nil {
		return checkResult{}, err
	}
	trackCtx := services.WithTrack(ctx, j.record.Position)
	logger := logging.WithContext(trackCtx, v.logger)

	data, err := v.opts.Decoder.Decode(trackCtx, j.path)
	if err != nil {
		if ctx.Err() != nil {
			return checkResult{}, ctx.Err()
		}
		logging.ErrorWithContext(logger, "decode failed", "decode_failed",
			logging.String(logging.FieldFile, j.record.FileName),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the file is a valid FLAC stream and the decoder is installed"),
		)
		if !errors.Is(err, services.ErrDecodeFailed) {
			err = services.Wrap(services.ErrDecodeFailed, StagePerFileLoop, "decode", j.record.FileName, err)
		}
		return checkResult{}, err
	}

	actual := checksum.Compute(data)
	status := StatusFailed
	if checksum.Equal(j.record.ExpectedChecksum, actual) {
		status = StatusOk
	}
	logger.Debug("track checked",
		logging.String(logging.FieldFile, j.record.FileName),
		logging.String("expected", j.record.ExpectedChecksum),
		logging.String("actual", actual),
		logging.String("status", string(status)),
	)
	return checkResult{actual: actual, status: status}, nil
}

func (v *Verifier) report(done, total int, record TrackRecord) {
	if v.opts.Progress == nil {
		return
	}
	v.opts.Progress(ProgressUpdate{Done: done, Total: total, Record: record})
}
