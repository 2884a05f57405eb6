package backendtest

import (
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/backend"
	"github.com/cogentcore/webgpu/wgpu"
)

// Render pass operations recorded on Command.Op.
const (
	OpSetPipeline     = "SetPipeline"
	OpSetBindGroup    = "SetBindGroup"
	OpSetScissorRect  = "SetScissorRect"
	OpSetVertexBuffer = "SetVertexBuffer"
	OpSetIndexBuffer  = "SetIndexBuffer"
	OpDrawIndexed     = "DrawIndexed"
	OpPushDebugGroup  = "PushDebugGroup"
	OpPopDebugGroup   = "PopDebugGroup"
	OpEnd             = "End"
)

// Command is a single recorded render pass call. Only the fields relevant to Op are set.
type Command struct {
	Op     string
	Index  uint32
	Handle backend.Resource
	Rect   [4]uint32
	Count  uint32
	Label  string
	Format wgpu.IndexFormat
}

// Encoder records the render passes begun on it.
type Encoder struct {
	fail error

	Passes []*Pass
}

var _ backend.CommandEncoder = &Encoder{}

// NewEncoder returns an empty recording encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// FailNext makes the next BeginRenderPass return err.
func (e *Encoder) FailNext(err error) {
	e.fail = err
}

func (e *Encoder) BeginRenderPass(desc backend.RenderPassDescriptor) (backend.RenderPassEncoder, error) {
	if e.fail != nil {
		err := e.fail
		e.fail = nil
		return nil, err
	}
	p := &Pass{Descriptor: desc}
	e.Passes = append(e.Passes, p)
	return p, nil
}

// Pass records every command issued inside one render pass.
type Pass struct {
	Descriptor backend.RenderPassDescriptor
	Commands   []Command
	Ended      bool
}

var _ backend.RenderPassEncoder = &Pass{}

// Count returns how many commands with the given op were recorded.
func (p *Pass) Count(op string) int {
	n := 0
	for _, c := range p.Commands {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Filter returns the commands with the given op in recording order.
func (p *Pass) Filter(op string) []Command {
	var out []Command
	for _, c := range p.Commands {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Ops returns the op sequence of the pass.
func (p *Pass) Ops() []string {
	ops := make([]string, len(p.Commands))
	for i, c := range p.Commands {
		ops[i] = c.Op
	}
	return ops
}

func (p *Pass) record(c Command) {
	p.Commands = append(p.Commands, c)
}

func (p *Pass) SetPipeline(rp backend.RenderPipeline) {
	p.record(Command{Op: OpSetPipeline, Handle: rp})
}

func (p *Pass) SetBindGroup(index uint32, bg backend.BindGroup) {
	p.record(Command{Op: OpSetBindGroup, Index: index, Handle: bg})
}

func (p *Pass) SetScissorRect(x, y, width, height uint32) {
	p.record(Command{Op: OpSetScissorRect, Rect: [4]uint32{x, y, width, height}})
}

func (p *Pass) SetVertexBuffer(slot uint32, buf backend.Buffer) {
	p.record(Command{Op: OpSetVertexBuffer, Index: slot, Handle: buf})
}

func (p *Pass) SetIndexBuffer(buf backend.Buffer, format wgpu.IndexFormat) {
	p.record(Command{Op: OpSetIndexBuffer, Handle: buf, Format: format})
}

func (p *Pass) DrawIndexed(indexCount uint32) {
	p.record(Command{Op: OpDrawIndexed, Count: indexCount})
}

func (p *Pass) PushDebugGroup(label string) {
	p.record(Command{Op: OpPushDebugGroup, Label: label})
}

func (p *Pass) PopDebugGroup() {
	p.record(Command{Op: OpPopDebugGroup})
}

func (p *Pass) End() error {
	p.record(Command{Op: OpEnd})
	p.Ended = true
	return nil
}
