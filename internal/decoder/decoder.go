package decoder

import (
	"context"
	"strings"
)

// Decoder produces the raw little-endian signed PCM stream of an audio file.
type Decoder interface {
	Decode(ctx context.Context, path string) ([]byte, error)
}

// Descriptor identifies the decoder executable to run. It is produced by
// Locate and treated as opaque by callers.
type Descriptor struct {
	Binary string
	// Source records how Binary was chosen: "config", "tools", or "path".
	Source string
}

// Valid reports whether the descriptor names an executable.
func (d Descriptor) Valid() bool {
	return strings.TrimSpace(d.Binary) != ""
}

// decodeArgs are the flags that make flac emit headerless PCM in the same
// layout the native backend produces.
var decodeArgs = []string{
	"-d",
	"--totally-silent",
	"--force-raw-format",
	"--endian=little",
	"--sign=signed",
}
