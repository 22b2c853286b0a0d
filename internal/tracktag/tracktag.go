// Package tracktag reads track positions from FLAC metadata.
package tracktag

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/meta"

	"crchecker/internal/logging"
	"crchecker/internal/services"
)

const trackNumberField = "TRACKNUMBER"

// Resolver maps audio files to 1-based track positions.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver constructs a resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logging.NewComponentLogger(logger, "tracktag")}
}

// Resolve returns the track position of path. A single-track album is
// always position 1 and the file is not read.
func (r *Resolver) Resolve(path string, multiTrack bool) (int, error) {
	if !multiTrack {
		return 1, nil
	}
	name := filepath.Base(path)

	raw, err := readVorbisTrack(path)
	if err != nil {
		r.logger.Debug("flac metadata parse failed; trying generic tag reader",
			logging.String(logging.FieldFile, name),
			logging.Error(err),
		)
		raw, err = readGenericTrack(path)
		if err != nil {
			return 0, services.Wrap(services.ErrMissingTrackTag, "resolve", "read tags",
				fmt.Sprintf("read tags of %s", name), err)
		}
	}
	if raw == "" {
		return 0, services.Wrap(services.ErrMissingTrackTag, "resolve", "lookup",
			fmt.Sprintf("%s has no %s tag", name, trackNumberField), nil)
	}
	position, ok := ParseTrackNumber(raw)
	if !ok {
		return 0, services.Wrap(services.ErrMissingTrackTag, "resolve", "parse",
			fmt.Sprintf("%s has unusable %s %q", name, trackNumberField, raw), nil)
	}
	return position, nil
}

// ParseTrackNumber reads the leading decimal integer of a TRACKNUMBER value,
// so "3/12" and "03" both give 3. Zero, negative, and non-numeric values are
// rejected.
func ParseTrackNumber(value string) (int, bool) {
	value = strings.TrimSpace(value)
	end := 0
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(value[:end])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func readVorbisTrack(path string) (string, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	for _, block := range stream.Blocks {
		comment, ok := block.Body.(*meta.VorbisComment)
		if !ok {
			continue
		}
		for _, field := range comment.Tags {
			if strings.EqualFold(field[0], trackNumberField) {
				return strings.TrimSpace(field[1]), nil
			}
		}
	}
	return "", nil
}

func readGenericTrack(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return "", err
	}
	if value, ok := m.Raw()[strings.ToLower(trackNumberField)]; ok {
		if s, ok := value.(string); ok {
			return strings.TrimSpace(s), nil
		}
	}
	if track, _ := m.Track(); track > 0 {
		return strconv.Itoa(track), nil
	}
	return "", nil
}
