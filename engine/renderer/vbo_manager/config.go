package vbo_manager

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/Carmen-Shannon/oxy-render/common"
)

const (
	// DefaultUnderlyingBufferSize is the size of each pooled driver buffer (512KB).
	DefaultUnderlyingBufferSize = 512 * 1024
)

// DefaultSizeClasses is the slot size ladder, 1KB through 512KB.
var DefaultSizeClasses = []int{
	1 << 10, 1 << 11, 1 << 12, 1 << 13, 1 << 14,
	1 << 15, 1 << 16, 1 << 17, 1 << 18, 1 << 19,
}

// Config holds the pool tuning that can be set from a TOML file.
//
//	label = "scene"
//	size_classes = [1024, 2048, 4096]
//	underlying_buffer_size = 524288
//	reject_oversized = false
//	verbose = true
type Config struct {
	// Label prefixes the debug labels of every buffer the pool creates.
	Label string `toml:"label"`

	// SizeClasses is the ascending ladder of slot sizes. Every class must be a
	// power of two that divides UnderlyingBufferSize.
	SizeClasses []int `toml:"size_classes"`

	// UnderlyingBufferSize is the byte size of each pooled driver buffer.
	UnderlyingBufferSize int `toml:"underlying_buffer_size"`

	// RejectOversized makes requests larger than the largest size class fail with
	// ErrOversized instead of receiving a dedicated buffer.
	RejectOversized bool `toml:"reject_oversized"`

	// Verbose logs pool growth and dedicated allocations.
	Verbose bool `toml:"verbose"`
}

// DefaultConfig returns the default pool configuration.
//
// Returns:
//   - Config: the 1KB..512KB ladder over 512KB driver buffers
func DefaultConfig() Config {
	return Config{
		Label:                "vbo",
		SizeClasses:          append([]int(nil), DefaultSizeClasses...),
		UnderlyingBufferSize: DefaultUnderlyingBufferSize,
	}
}

// ParseConfig decodes a TOML document over the defaults. Keys missing from the
// document keep their default values.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Config: the decoded configuration
//   - error: if the document is malformed or the result fails validation
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse vbo manager config: %w", err)
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and decodes a TOML config file.
//
// Parameters:
//   - path: path to the TOML file
//
// Returns:
//   - Config: the decoded configuration
//   - error: if the file cannot be read or decoded
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read vbo manager config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// MinSizeClass is the smallest slot size. Uploads are padded to 4 bytes, and WebGPU
// buffer writes need 4-byte aligned offsets, so smaller slots would overlap.
const MinSizeClass = 4

// Validate checks the size-class ladder against the underlying buffer size.
//
// Returns:
//   - error: the first problem found, or nil
func (c Config) Validate() error {
	if c.UnderlyingBufferSize <= 0 {
		return fmt.Errorf("vbo_manager: underlying buffer size must be positive, got %d", c.UnderlyingBufferSize)
	}
	if len(c.SizeClasses) == 0 {
		return fmt.Errorf("vbo_manager: at least one size class is required")
	}
	prev := 0
	for _, class := range c.SizeClasses {
		if class <= 0 || class&(class-1) != 0 {
			return fmt.Errorf("vbo_manager: size class %d is not a power of two", class)
		}
		if class < MinSizeClass {
			return fmt.Errorf("vbo_manager: size class %d is below the %d byte copy alignment", class, MinSizeClass)
		}
		if class <= prev {
			return fmt.Errorf("vbo_manager: size classes must be strictly ascending, %d follows %d", class, prev)
		}
		if class > c.UnderlyingBufferSize || c.UnderlyingBufferSize%class != 0 {
			return fmt.Errorf("vbo_manager: size class %d does not divide underlying buffer size %d", class, c.UnderlyingBufferSize)
		}
		prev = class
	}
	return nil
}

// withDefaults fills unset fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	c.Label = common.Coalesce(c.Label, def.Label)
	c.UnderlyingBufferSize = common.Coalesce(c.UnderlyingBufferSize, def.UnderlyingBufferSize)
	if len(c.SizeClasses) == 0 {
		c.SizeClasses = def.SizeClasses
	}
	return c
}

// LargestClass returns the largest slot size in the ladder.
func (c Config) LargestClass() int {
	return c.SizeClasses[len(c.SizeClasses)-1]
}
