package verification

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"crchecker/internal/fileutil"
)

// DefaultReportEncoding is the legacy code page saved reports use.
const DefaultReportEncoding = "windows-1252"

// SaveReport writes text to dir/name in the named encoding. Characters the
// encoding cannot represent are replaced rather than failing the save.
// It returns the written path.
func SaveReport(dir, name, encodingName, text string) (string, error) {
	if name == "" {
		name = DefaultReportName
	}
	if strings.TrimSpace(encodingName) == "" {
		encodingName = DefaultReportEncoding
	}
	enc, err := htmlindex.Get(encodingName)
	if err != nil {
		return "", fmt.Errorf("report encoding %q: %w", encodingName, err)
	}
	encoded, err := encoding.ReplaceUnsupported(enc.NewEncoder()).String(text)
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := fileutil.WriteAtomic(path, []byte(encoded), 0o644); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return path, nil
}
