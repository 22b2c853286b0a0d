package decoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mewkiz/flac"

	"crchecker/internal/services"
)

// Native decodes FLAC in-process.
type Native struct{}

// NewNative returns the in-process decoder.
func NewNative() *Native {
	return &Native{}
}

// Decode parses every frame of path and packs interleaved samples as
// little-endian signed integers of ceil(bps/8) bytes each.
func (Native) Decode(ctx context.Context, path string) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, services.Wrap(services.ErrDecodeFailed, "decode", "stat",
			fmt.Sprintf("stat %s", filepath.Base(path)), err)
	}
	stream, err := flac.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrDecodeFailed, "decode", "open",
			fmt.Sprintf("open %s", filepath.Base(path)), err)
	}
	defer stream.Close()

	info := stream.Info
	width := sampleWidth(int(info.BitsPerSample))
	out := make([]byte, 0, capacityHint(info.NSamples, int(info.NChannels), width, fi.Size()))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, services.Wrap(services.ErrDecodeFailed, "decode", "frame",
				fmt.Sprintf("decode %s", filepath.Base(path)), err)
		}
		channels := make([][]int32, len(frame.Subframes))
		for i, sub := range frame.Subframes {
			if len(sub.Samples) < int(frame.BlockSize) {
				return nil, services.Wrap(services.ErrDecodeFailed, "decode", "frame",
					fmt.Sprintf("%s: subframe holds %d samples, expected %d", filepath.Base(path), len(sub.Samples), frame.BlockSize), nil)
			}
			channels[i] = sub.Samples
		}
		out = appendSamples(out, channels, int(frame.BlockSize), width)
	}
	return out, nil
}

// Output larger than this many times the compressed size is not preallocated.
const maxExpansion = 16

const maxPrealloc = 1 << 30

// capacityHint sizes the output buffer from STREAMINFO. The header is
// untrusted: a hint beyond what fileSize can plausibly expand to, or beyond
// maxPrealloc, yields 0 and the buffer grows from decoded frames instead.
func capacityHint(nsamples uint64, channels, width int, fileSize int64) int {
	if nsamples == 0 || channels <= 0 || width <= 0 || fileSize <= 0 {
		return 0
	}
	limit := uint64(fileSize) * maxExpansion
	if limit > maxPrealloc {
		limit = maxPrealloc
	}
	if nsamples > limit {
		return 0
	}
	want := nsamples * uint64(channels) * uint64(width)
	if want > limit {
		return 0
	}
	return int(want)
}

func sampleWidth(bitsPerSample int) int {
	return (bitsPerSample + 7) / 8
}

// appendSamples interleaves n samples from each channel.
func appendSamples(dst []byte, channels [][]int32, n, width int) []byte {
	for i := 0; i < n; i++ {
		for _, ch := range channels {
			v := uint32(ch[i])
			for b := 0; b < width; b++ {
				dst = append(dst, byte(v>>(8*b)))
			}
		}
	}
	return dst
}
