package buffer_pool

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ui/common"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/backend"
	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"
)

// BufferType identifies which pool a buffer slot belongs to.
type BufferType int

const (
	// BufferTypeUniform holds per-frame uniform state. The renderer only uses slot 0.
	BufferTypeUniform BufferType = iota

	// BufferTypeIndex holds one mesh's 32-bit indices per slot.
	BufferTypeIndex

	// BufferTypeVertex holds one mesh's vertices per slot.
	BufferTypeVertex

	bufferTypeCount
)

// Usage returns the wgpu usage flags buffers of this type are created with.
func (t BufferType) Usage() wgpu.BufferUsage {
	switch t {
	case BufferTypeUniform:
		return wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	case BufferTypeIndex:
		return wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
	default:
		return wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	}
}

func (t BufferType) String() string {
	switch t {
	case BufferTypeUniform:
		return "uniform"
	case BufferTypeIndex:
		return "index"
	case BufferTypeVertex:
		return "vertex"
	}
	return fmt.Sprintf("BufferType(%d)", int(t))
}

// SizedBuffer is a GPU buffer together with the number of bytes it can hold.
type SizedBuffer struct {
	Buffer   backend.Buffer
	Capacity uint64
}

// Stats counts the pool's device activity since the last ResetStats.
type Stats struct {
	Allocations   int
	Reallocations int
	Writes        int
}

// bufferPool is the implementation of the BufferPool interface.
type bufferPool struct {
	device backend.Device
	queue  backend.Queue
	logger *log.Logger
	prefix string

	slots [bufferTypeCount][]SizedBuffer
	stats Stats
}

// BufferPool owns the growable vertex, index and uniform buffers of a renderer.
// A slot's capacity never shrinks: data that fits is written in place, data that does not
// replaces the buffer with one sized exactly to the data.
type BufferPool interface {
	// Ensure makes the buffer at slot of the given type hold data.
	// Slots are filled contiguously, so slot may be at most Len(kind).
	//
	// Parameters:
	//   - kind: the buffer type
	//   - slot: the slot index
	//   - data: the bytes to upload, padded to a multiple of four if needed
	//
	// Returns:
	//   - bool: true if a new buffer was created for the slot
	//   - error: ErrSlotOutOfRange, or a device error when creation or the queued write fails
	Ensure(kind BufferType, slot int, data []byte) (bool, error)

	// Buffer returns the buffer at a slot.
	//
	// Parameters:
	//   - kind: the buffer type
	//   - slot: the slot index
	//
	// Returns:
	//   - backend.Buffer: the buffer, or nil
	//   - bool: whether the slot exists
	Buffer(kind BufferType, slot int) (backend.Buffer, bool)

	// Capacity returns the byte capacity of a slot, or 0 if it does not exist.
	Capacity(kind BufferType, slot int) uint64

	// Len returns how many slots of the given type exist.
	Len(kind BufferType) int

	// Stats returns the activity counters.
	Stats() Stats

	// ResetStats zeroes the activity counters.
	ResetStats()

	// Release releases every buffer held by the pool.
	Release()
}

var _ BufferPool = &bufferPool{}

// NewBufferPool creates an empty BufferPool.
//
// Parameters:
//   - device: the device buffers are created on
//   - queue: the queue in-place writes are submitted on
//   - options: a variadic list of options to configure the pool
//
// Returns:
//   - BufferPool: the new pool
func NewBufferPool(device backend.Device, queue backend.Queue, options ...BufferPoolBuilderOption) BufferPool {
	p := &bufferPool{
		device: device,
		queue:  queue,
		logger: common.Logger(),
		prefix: "egui",
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bufferPool) Ensure(kind BufferType, slot int, data []byte) (bool, error) {
	if kind < 0 || kind >= bufferTypeCount {
		return false, fmt.Errorf("ensure %s buffer: unknown buffer type", kind)
	}
	slots := p.slots[kind]
	if slot < 0 || slot > len(slots) {
		return false, fmt.Errorf("ensure %s buffer %d with %d slots: %w", kind, slot, len(slots), common.ErrSlotOutOfRange)
	}

	data = common.AlignTo4(data)
	size := uint64(len(data))

	if slot < len(slots) && size <= slots[slot].Capacity {
		if err := p.queue.WriteBuffer(slots[slot].Buffer, 0, data); err != nil {
			return false, fmt.Errorf("write %s buffer %d: %w", kind, slot, err)
		}
		p.stats.Writes++
		return false, nil
	}

	buf, err := p.device.CreateBuffer(backend.BufferDescriptor{
		Label:    fmt.Sprintf("%s_%s_buffer_%d", p.prefix, kind, slot),
		Contents: data,
		Usage:    kind.Usage(),
	})
	if err != nil {
		return false, err
	}

	if slot == len(slots) {
		p.slots[kind] = append(slots, SizedBuffer{Buffer: buf, Capacity: size})
		p.stats.Allocations++
		return true, nil
	}

	p.logger.Debug("growing buffer", "kind", kind, "slot", slot, "from", slots[slot].Capacity, "to", size)
	slots[slot].Buffer.Release()
	slots[slot] = SizedBuffer{Buffer: buf, Capacity: size}
	p.stats.Reallocations++
	return true, nil
}

func (p *bufferPool) Buffer(kind BufferType, slot int) (backend.Buffer, bool) {
	if kind < 0 || kind >= bufferTypeCount || slot < 0 || slot >= len(p.slots[kind]) {
		return nil, false
	}
	return p.slots[kind][slot].Buffer, true
}

func (p *bufferPool) Capacity(kind BufferType, slot int) uint64 {
	if kind < 0 || kind >= bufferTypeCount || slot < 0 || slot >= len(p.slots[kind]) {
		return 0
	}
	return p.slots[kind][slot].Capacity
}

func (p *bufferPool) Len(kind BufferType) int {
	if kind < 0 || kind >= bufferTypeCount {
		return 0
	}
	return len(p.slots[kind])
}

func (p *bufferPool) Stats() Stats {
	return p.stats
}

func (p *bufferPool) ResetStats() {
	p.stats = Stats{}
}

func (p *bufferPool) Release() {
	for kind := range p.slots {
		for _, sb := range p.slots[kind] {
			sb.Buffer.Release()
		}
		p.slots[kind] = nil
	}
}
