package deps

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// CheckDecoder reports the flac executable a verification would run,
// following the same order as decoder location: an explicitly configured
// binary, then the bundled copy in the tools directory (when bundled is
// non-empty), then "flac" on PATH. Nothing is downloaded.
func CheckDecoder(configured, bundled string) Status {
	result := Status{
		Name:        "FLAC decoder",
		Description: "Decodes audio to raw PCM for checksumming",
	}

	if cmd := strings.TrimSpace(configured); cmd != "" {
		result.Command = cmd
		if resolved, err := exec.LookPath(cmd); err == nil {
			result.Command = resolved
			result.Available = true
			return result
		}
		result.Detail = fmt.Sprintf("configured binary %q not found", cmd)
		return result
	}

	if bundled != "" {
		result.Command = bundled
		if info, err := os.Stat(bundled); err == nil && isExecutable(info) {
			result.Available = true
			return result
		}
		result.Optional = true
		result.Detail = "not installed yet; downloaded on first verification"
		return result
	}

	name := "flac"
	if resolved, err := exec.LookPath(name); err == nil {
		result.Command = resolved
		result.Available = true
		return result
	}
	result.Command = name
	result.Detail = fmt.Sprintf("binary %q not found", name)
	return result
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
