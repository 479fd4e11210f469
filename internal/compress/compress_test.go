package compress

import (
	"bytes"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/fintide/go-hybrid-cache/internal/config"
	"github.com/stretchr/testify/require"
)

func newCompressor(threshold int) *Compressor {
	return New(&config.CompressionCfg{Level: 6, ThresholdBytes: threshold, MinGain: 0.2})
}

func TestCompressRoundTrip(t *testing.T) {
	c := newCompressor(1024)

	for _, payload := range [][]byte{
		[]byte("hello world"),
		[]byte(strings.Repeat(`{"ticker":"AAPL","price":189.12}`, 512)),
		{},
	} {
		packed, err := c.Compress(payload)
		require.NoError(t, err)

		restored, err := c.Decompress(packed)
		require.NoError(t, err)
		require.True(t, bytes.Equal(payload, restored))
	}
}

func TestDecompressCorruptedFails(t *testing.T) {
	c := newCompressor(1024)

	_, err := c.Decompress([]byte("definitely not gzip"))
	require.Error(t, err)
}

func TestSmartBelowThresholdUntouched(t *testing.T) {
	c := newCompressor(1024)

	payload := []byte(strings.Repeat("a", 512))
	out, compressed := c.Smart(payload)
	require.False(t, compressed)
	require.Equal(t, payload, out)
}

func TestSmartKeepsCompressedOnlyOnGain(t *testing.T) {
	c := newCompressor(1024)

	// Highly repetitive 5KB payload compresses far beyond the 20% bar.
	compressible := []byte(strings.Repeat(`{"ticker":"AAPL","sentiment":"bullish"}`, 140))
	out, compressed := c.Smart(compressible)
	require.True(t, compressed)
	require.LessOrEqual(t, float64(len(out)), float64(len(compressible))*0.8)

	restored, err := c.SmartOpen(out, compressed)
	require.NoError(t, err)
	require.Equal(t, compressible, restored)

	// Random bytes do not clear the gain bar and stay uncompressed.
	dense := make([]byte, 1536)
	_, err = rand.Read(dense)
	require.NoError(t, err)

	out, compressed = c.Smart(dense)
	require.False(t, compressed)
	require.Equal(t, dense, out)
}

func TestSmartDisabledConfig(t *testing.T) {
	c := New(nil)

	payload := []byte(strings.Repeat("b", 4096))
	out, compressed := c.Smart(payload)
	require.False(t, compressed)
	require.Equal(t, payload, out)
}
