package bind_group_provider

// BufferWrite is one queued write into a provider's buffer: Data lands at Offset bytes into the
// buffer bound at Binding.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// RingWrite builds the write for ring entry slot of a strided provider.
//
// Parameters:
//   - p: the ring provider
//   - binding: the buffer binding
//   - slot: the ring entry
//   - data: the entry contents
//
// Returns:
//   - BufferWrite: the write at slot*p.Stride()
func RingWrite(p BindGroupProvider, binding, slot int, data []byte) BufferWrite {
	return BufferWrite{Provider: p, Binding: binding, Offset: uint64(slot) * p.Stride(), Data: data}
}
