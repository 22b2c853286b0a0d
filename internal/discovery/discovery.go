// Package discovery enumerates the audio files and extraction logs of an
// album directory. Only the directory itself is scanned; subdirectories are
// ignored.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"crchecker/internal/services"
)

// Album lists the candidate files of one directory. Names are relative to
// Dir and sorted.
type Album struct {
	Dir   string
	Audio []string
	Logs  []string
}

// Scan reads dir once and classifies its regular files by extension.
// Extensions match case-insensitively. A file named exclude (the tool's own
// report) is never listed as a log.
func Scan(dir, audioExt, logExt, exclude string) (*Album, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrPathNotFound, "discover", "stat", dir, err)
		}
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrPathNotFound, "discover", "stat",
			fmt.Sprintf("%s is not a directory", dir), nil)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	album := &Album{Dir: dir}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		switch {
		case hasExt(name, audioExt):
			album.Audio = append(album.Audio, name)
		case hasExt(name, logExt) && !strings.EqualFold(name, exclude):
			album.Logs = append(album.Logs, name)
		}
	}
	sort.Strings(album.Audio)
	sort.Strings(album.Logs)
	return album, nil
}

// AudioPaths returns the audio files joined with the album directory.
func (a *Album) AudioPaths() []string {
	paths := make([]string, len(a.Audio))
	for i, name := range a.Audio {
		paths[i] = filepath.Join(a.Dir, name)
	}
	return paths
}

func hasExt(name, ext string) bool {
	if ext == "" {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ext)
}
