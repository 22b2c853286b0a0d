package eaclog

import (
	"strings"

	"crchecker/internal/services"
)

// DefaultMarker introduces the checksum of the audio data actually copied.
const DefaultMarker = "Copy CRC"

// Checksums holds expected checksums in log order. Position p (1-based) is
// stored at index p-1.
type Checksums []string

// Parse extracts one checksum per line containing marker. Positions are
// assigned sequentially from 1 in order of appearance, ignoring any track
// number printed in the log. The value is the remainder of the line after
// the marker, trimmed and upper-cased; it is not validated here. Line
// length is unbounded.
func Parse(text, marker string) (Checksums, error) {
	if strings.TrimSpace(marker) == "" {
		marker = DefaultMarker
	}
	var sums Checksums
	for _, line := range strings.Split(text, "\n") {
		idx := strings.Index(line, marker)
		if idx < 0 {
			continue
		}
		value := strings.TrimRight(line[idx+len(marker):], "\r\n")
		sums = append(sums, strings.ToUpper(strings.TrimSpace(value)))
	}
	if len(sums) == 0 {
		return nil, services.Wrap(services.ErrEmptyLog, "log", "parse", "no \""+marker+"\" lines found", nil)
	}
	return sums, nil
}
