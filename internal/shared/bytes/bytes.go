package bytes

import (
	"bytes"
	"fmt"

	"github.com/zeebo/xxh3"
)

// IsBytesAreEquals compares payloads, sampling three xxh3 probes for large
// slices instead of a full scan.
func IsBytesAreEquals(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) < 32 {
		return bytes.Equal(a, b)
	}

	ha := xxh3.Hash(a[:8]) ^ xxh3.Hash(a[len(a)/2:len(a)/2+8]) ^ xxh3.Hash(a[len(a)-8:])
	hb := xxh3.Hash(b[:8]) ^ xxh3.Hash(b[len(b)/2:len(b)/2+8]) ^ xxh3.Hash(b[len(b)-8:])
	return ha == hb
}

// FmtMem renders a byte count in the two largest applicable units.
func FmtMem(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%dGB %dMB", bytes/GB, (bytes%GB)/MB)
	case bytes >= MB:
		return fmt.Sprintf("%dMB %dKB", bytes/MB, (bytes%MB)/KB)
	case bytes >= KB:
		return fmt.Sprintf("%dKB %dB", bytes/KB, bytes%KB)
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}
