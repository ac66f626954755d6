package vbo_manager

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/device"
)

// bufferGroup is the shared pool for one (size class, format) bucket. Each
// underlying driver buffer is split into slotsPerBuffer equal slots; slot ids are
// global within the group so id / slotsPerBuffer picks the buffer and
// id % slotsPerBuffer picks the region inside it.
type bufferGroup struct {
	key            bucketKey
	desc           FormatDescriptor
	slotSize       int
	slotsPerBuffer int

	buffers   []device.Buffer
	free      []int
	allocated map[int]bool
}

func newBufferGroup(key bucketKey, desc FormatDescriptor, underlyingSize int) *bufferGroup {
	return &bufferGroup{
		key:            key,
		desc:           desc,
		slotSize:       key.class,
		slotsPerBuffer: underlyingSize / key.class,
		allocated:      make(map[int]bool),
	}
}

// grow allocates one more underlying buffer and queues its slots as free.
func (g *bufferGroup) grow(dev device.Device, label string) error {
	size := uint64(g.slotSize * g.slotsPerBuffer)
	name := fmt.Sprintf("%s/%s/%d#%d", label, g.desc, g.slotSize, len(g.buffers))
	buf, err := dev.CreateBuffer(name, size, g.desc.usage())
	if err != nil {
		return fmt.Errorf("failed to grow bucket %s/%d: %w", g.desc, g.slotSize, err)
	}
	base := len(g.buffers) * g.slotsPerBuffer
	g.buffers = append(g.buffers, buf)
	for i := 0; i < g.slotsPerBuffer; i++ {
		g.free = append(g.free, base+i)
	}
	return nil
}

// pop takes the oldest free slot id. The free list must not be empty.
func (g *bufferGroup) pop() int {
	id := g.free[0]
	g.free = g.free[1:]
	g.allocated[id] = true
	return id
}

func (g *bufferGroup) push(id int) {
	if !g.allocated[id] {
		panic(fmt.Sprintf("vbo_manager: slot %d in bucket %s/%d is not allocated", id, g.desc, g.slotSize))
	}
	delete(g.allocated, id)
	g.free = append(g.free, id)
}

func (g *bufferGroup) bufferFor(id int) device.Buffer {
	idx := id / g.slotsPerBuffer
	if idx < 0 || idx >= len(g.buffers) {
		panic(fmt.Sprintf("vbo_manager: slot %d outside bucket %s/%d", id, g.desc, g.slotSize))
	}
	return g.buffers[idx]
}

func (g *bufferGroup) offsetOf(id int) uint64 {
	return uint64((id % g.slotsPerBuffer) * g.slotSize)
}

func (g *bufferGroup) destroy(dev device.Device) {
	for _, buf := range g.buffers {
		dev.DestroyBuffer(buf)
	}
	g.buffers = nil
	g.free = nil
	g.allocated = make(map[int]bool)
}

// dedicatedBuffer is a private driver buffer holding exactly one slot.
type dedicatedBuffer struct {
	desc   FormatDescriptor
	buffer device.Buffer
	size   int
}
