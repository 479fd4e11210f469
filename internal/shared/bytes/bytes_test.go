package bytes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsBytesAreEquals(t *testing.T) {
	require.True(t, IsBytesAreEquals([]byte("short"), []byte("short")))
	require.False(t, IsBytesAreEquals([]byte("short"), []byte("shorT")))
	require.False(t, IsBytesAreEquals([]byte("a"), []byte("ab")))

	big := []byte(strings.Repeat("payload-", 64))
	same := []byte(strings.Repeat("payload-", 64))
	require.True(t, IsBytesAreEquals(big, same))

	same[9] = 'X'
	require.False(t, IsBytesAreEquals(big, same))
}

func TestFmtMem(t *testing.T) {
	require.Equal(t, "512B", FmtMem(512))
	require.Equal(t, "1KB 0B", FmtMem(1024))
	require.Equal(t, "2MB 256KB", FmtMem(2*1024*1024+256*1024))
	require.Equal(t, "1GB 512MB", FmtMem(1024*1024*1024+512*1024*1024))
}
