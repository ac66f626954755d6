package vbo_manager

// BucketStats describes one shared buffer group.
type BucketStats struct {
	Bucket    int
	Format    string
	SlotSize  int
	Buffers   int
	Slots     int
	Free      int
	Allocated int
}

// Stats is a snapshot of pool usage.
type Stats struct {
	Buckets []BucketStats

	DedicatedBuffers int
	DedicatedBytes   int

	// DriverAllocations counts every buffer ever created through the device,
	// pooled and dedicated.
	DriverAllocations int

	// Bindings is the number of live geometry bindings.
	Bindings int
}

// FreeSlots returns the total free slots across all buckets.
func (s Stats) FreeSlots() int {
	n := 0
	for _, b := range s.Buckets {
		n += b.Free
	}
	return n
}
