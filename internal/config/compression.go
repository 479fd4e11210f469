package config

// CompressionCfg
//   - Supported levels:
//     CompressBestSpeed          = 1
//     CompressBestCompression    = 9
//     CompressDefaultCompression = 6  // flate.DefaultCompression
type CompressionCfg struct {
	// Level is the gzip level; 0 means the default level. To store
	// payloads uncompressed, disable the section instead.
	Level int `yaml:"level"`

	// ThresholdBytes is the serialized size below which payloads are
	// stored as-is. Example: 1024.
	ThresholdBytes int `yaml:"threshold"`

	// MinGain is the fraction of the original size that compression must
	// save for the compressed form to be kept. With MinGain 0.2 a payload
	// is kept compressed only when the result is at least 20% smaller;
	// otherwise the original is stored (dense payloads such as random
	// ticker JSON rarely clear the bar).
	MinGain float64 `yaml:"min_gain"`
}

func (cfg *CompressionCfg) Enabled() bool {
	return cfg != nil
}

func (cfg *CompressionCfg) Threshold() int {
	if cfg == nil || cfg.ThresholdBytes <= 0 {
		return 1024
	}
	return cfg.ThresholdBytes
}

func (cfg *CompressionCfg) Gain() float64 {
	if cfg == nil || cfg.MinGain <= 0 {
		return 0.2
	}
	return cfg.MinGain
}
