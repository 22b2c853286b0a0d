package services

import (
	"errors"
	"fmt"
	"strings"
)

// Fatal verification conditions. Every one of them ends the run without a
// report; per-track checksum mismatches are not errors.
var (
	ErrPathNotFound           = errors.New("path not found")
	ErrNoAudioFiles           = errors.New("no audio files")
	ErrNoLogFile              = errors.New("no log file")
	ErrSelectionAborted       = errors.New("log selection aborted")
	ErrEmptyLog               = errors.New("empty log")
	ErrNoCrcsFound            = errors.New("no crcs found")
	ErrCrcCountMismatch       = errors.New("crc count mismatch")
	ErrMissingTrackTag        = errors.New("missing track tag")
	ErrTrackOutOfRange        = errors.New("track number out of range")
	ErrDuplicateTrackPosition = errors.New("duplicate track position")
	ErrDecodeFailed           = errors.New("decode failed")
	ErrConfiguration          = errors.New("configuration error")
)

var kinds = []struct {
	marker error
	name   string
}{
	{ErrPathNotFound, "path_not_found"},
	{ErrNoAudioFiles, "no_audio_files"},
	{ErrNoLogFile, "no_log_file"},
	{ErrSelectionAborted, "selection_aborted"},
	{ErrNoCrcsFound, "no_crcs_found"},
	{ErrEmptyLog, "empty_log"},
	{ErrCrcCountMismatch, "crc_count_mismatch"},
	{ErrMissingTrackTag, "missing_track_tag"},
	{ErrTrackOutOfRange, "track_out_of_range"},
	{ErrDuplicateTrackPosition, "duplicate_track_position"},
	{ErrDecodeFailed, "decode_failed"},
	{ErrConfiguration, "configuration"},
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrConfiguration
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a stable snake_case name for the first catalogued marker found
// in err's chain, or "internal" when none matches.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			return k.name
		}
	}
	return "internal"
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "verification failure"
	}
	return strings.Join(parts, ": ")
}
