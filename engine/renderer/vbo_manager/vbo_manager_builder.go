package vbo_manager

// VBOManagerBuilderOption is a function that configures a VBOManager during construction.
type VBOManagerBuilderOption func(*vboManager)

// WithConfig replaces the whole pool configuration, typically one read by LoadConfig.
//
// Parameters:
//   - cfg: the configuration
//
// Returns:
//   - VBOManagerBuilderOption: a function that applies the configuration to a vboManager
func WithConfig(cfg Config) VBOManagerBuilderOption {
	return func(m *vboManager) {
		m.config = cfg
	}
}

// WithSizeClasses sets the slot size ladder.
//
// Parameters:
//   - classes: ascending power-of-two slot sizes
//
// Returns:
//   - VBOManagerBuilderOption: a function that applies the ladder to a vboManager
func WithSizeClasses(classes ...int) VBOManagerBuilderOption {
	return func(m *vboManager) {
		m.config.SizeClasses = append([]int(nil), classes...)
	}
}

// WithUnderlyingBufferSize sets the size of each pooled driver buffer.
//
// Parameters:
//   - size: buffer size in bytes
//
// Returns:
//   - VBOManagerBuilderOption: a function that applies the size to a vboManager
func WithUnderlyingBufferSize(size int) VBOManagerBuilderOption {
	return func(m *vboManager) {
		m.config.UnderlyingBufferSize = size
	}
}

// WithRejectOversized makes requests beyond the largest size class fail with
// ErrOversized instead of getting a dedicated buffer.
//
// Parameters:
//   - reject: true to reject oversized requests
//
// Returns:
//   - VBOManagerBuilderOption: a function that applies the policy to a vboManager
func WithRejectOversized(reject bool) VBOManagerBuilderOption {
	return func(m *vboManager) {
		m.config.RejectOversized = reject
	}
}

// WithVerbose enables logging of pool growth and dedicated allocations.
//
// Parameters:
//   - verbose: true to log
//
// Returns:
//   - VBOManagerBuilderOption: a function that applies the logging option to a vboManager
func WithVerbose(verbose bool) VBOManagerBuilderOption {
	return func(m *vboManager) {
		m.config.Verbose = verbose
	}
}

// WithLabel sets the prefix of every buffer label the pool creates.
//
// Parameters:
//   - label: the label prefix
//
// Returns:
//   - VBOManagerBuilderOption: a function that applies the label to a vboManager
func WithLabel(label string) VBOManagerBuilderOption {
	return func(m *vboManager) {
		m.config.Label = label
	}
}
