package bind_group_provider

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithStride makes the provider a ring whose bind groups address consecutive stride-sized
// ranges of the same buffer.
//
// Parameters:
//   - stride: the byte distance between ring entries
//
// Returns:
//   - BindGroupProviderOption: a function that sets the stride for this provider
func WithStride(stride uint64) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.stride = stride
	}
}
