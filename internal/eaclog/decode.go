package eaclog

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeText converts raw log bytes to a string. Byte order marks win; then
// BOM-less UTF-16 is recognised by its NUL byte pattern; then valid UTF-8 is
// taken as is; anything else is read as Windows-1252, the code page older
// ripping tools write on western systems.
func DecodeText(raw []byte) (string, error) {
	enc := detect(raw)
	if enc == nil {
		return string(raw), nil
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("decode log text: %w", err)
	}
	return string(out), nil
}

func detect(raw []byte) encoding.Encoding {
	switch {
	case bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}):
		return unicode.UTF8BOM
	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE}):
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	case bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
	}
	if order, ok := sniffUTF16(raw); ok {
		return unicode.UTF16(order, unicode.IgnoreBOM)
	}
	if utf8.Valid(raw) {
		return nil
	}
	return charmap.Windows1252
}

// sniffUTF16 looks for mostly-ASCII text encoded as UTF-16: one byte of every
// pair is NUL. At least 90% of the sampled pairs must agree.
func sniffUTF16(raw []byte) (unicode.Endianness, bool) {
	sample := raw
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	pairs := len(sample) / 2
	if pairs < 2 {
		return unicode.LittleEndian, false
	}
	var evenNUL, oddNUL int
	for i := 0; i+1 < len(sample); i += 2 {
		if sample[i] == 0 {
			evenNUL++
		}
		if sample[i+1] == 0 {
			oddNUL++
		}
	}
	threshold := pairs * 9 / 10
	switch {
	case oddNUL >= threshold && evenNUL == 0:
		return unicode.LittleEndian, true
	case evenNUL >= threshold && oddNUL == 0:
		return unicode.BigEndian, true
	}
	return unicode.LittleEndian, false
}
