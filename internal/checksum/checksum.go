// Package checksum computes and compares the CRC-32 values that rip logs
// record as "Copy CRC".
package checksum

import (
	"fmt"
	"hash/crc32"
	"strings"
)

// Width is the number of hex digits in a rendered checksum.
const Width = 8

// Compute returns the IEEE CRC-32 of data as eight upper-case hex digits.
// Empty input yields "00000000".
func Compute(data []byte) string {
	return Format(crc32.ChecksumIEEE(data))
}

// Format renders a CRC-32 value zero-padded to Width digits.
func Format(sum uint32) string {
	return fmt.Sprintf("%0*X", Width, sum)
}

// Normalize trims and upper-cases a checksum, left-padding hex values shorter
// than Width with zeros. Values that are not hex are returned trimmed and
// upper-cased so they still compare unequal to any computed checksum.
func Normalize(value string) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" || len(value) >= Width || !isHex(value) {
		return value
	}
	return strings.Repeat("0", Width-len(value)) + value
}

// Equal reports whether two checksums match after normalization.
func Equal(expected, actual string) bool {
	expected = Normalize(expected)
	return expected != "" && expected == Normalize(actual)
}

func isHex(value string) bool {
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
