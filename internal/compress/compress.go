// Package compress is the leaf compression utility shared by the record
// store and the coordinator provider. Payloads below the threshold are
// stored as-is; above it the compressed form is kept only when it clears
// the configured gain, which protects dense payloads (already-minified
// JSON of random tickers) from compression overhead.
package compress

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/fintide/go-hybrid-cache/internal/config"
)

type Compressor struct {
	cfg *config.CompressionCfg
}

func New(cfg *config.CompressionCfg) *Compressor {
	return &Compressor{cfg: cfg}
}

func (c *Compressor) Enabled() bool {
	return c.cfg.Enabled()
}

// Compress gzips data at the configured level.
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	level := gzip.DefaultCompression
	if c.cfg.Enabled() && c.cfg.Level != 0 {
		level = c.cfg.Level
	}

	var buf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("init gzip writer: %w", err)
	}
	if _, err = gw.Write(data); err != nil {
		return nil, fmt.Errorf("compress payload: %w", err)
	}
	if err = gw.Close(); err != nil {
		return nil, fmt.Errorf("finish compression: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress restores the exact original payload. A failure here is fatal
// for the single read that triggered it and is returned to the caller,
// never swallowed.
func (c *Compressor) Decompress(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open compressed payload: %w", err)
	}
	defer gr.Close()

	out, err := io.ReadAll(gr)
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}
	return out, nil
}

// Smart applies the worth-it heuristic: data under the threshold is
// returned untouched, and the compressed form is kept only when it is at
// least the configured gain smaller than the original.
func (c *Compressor) Smart(data []byte) (out []byte, compressed bool) {
	if !c.cfg.Enabled() || len(data) <= c.cfg.Threshold() {
		return data, false
	}

	packed, err := c.Compress(data)
	if err != nil {
		// Compression is an optimization; fall back to the original.
		return data, false
	}
	if float64(len(packed)) > float64(len(data))*(1-c.cfg.Gain()) {
		return data, false
	}
	return packed, true
}

// SmartOpen reverses Smart given the stored compressed flag.
func (c *Compressor) SmartOpen(data []byte, compressed bool) ([]byte, error) {
	if !compressed {
		return data, nil
	}
	return c.Decompress(data)
}
