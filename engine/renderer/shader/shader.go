package shader

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderStage identifies a programmable pipeline stage.
type ShaderStage int

const (
	// ShaderStageVertex is the vertex stage.
	ShaderStageVertex ShaderStage = iota

	// ShaderStageFragment is the fragment stage.
	ShaderStageFragment
)

func (s ShaderStage) wgpu() wgpu.ShaderStage {
	switch s {
	case ShaderStageVertex:
		return wgpu.ShaderStageVertex
	case ShaderStageFragment:
		return wgpu.ShaderStageFragment
	default:
		return wgpu.ShaderStageNone
	}
}

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderStage(%d)", int(s))
	}
}

// UIShaderKey is the key of the built-in UI shader.
const UIShaderKey = "egui_shader"

//go:embed ui.wgsl
var uiSource string

// ErrMissingEntryPoint is returned when a render shader lacks a vertex or fragment entry point.
var ErrMissingEntryPoint = errors.New("shader: missing entry point")

// shader is the implementation of the Shader interface.
// It holds the reflected data required to build the bind group layouts and the render pipeline.
type shader struct {
	key                        string
	source                     string
	entryPoints                map[ShaderStage]string
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	vertexLayouts              []wgpu.VertexBufferLayout
}

// Shader defines the interface for a parsed WGSL render shader. It exposes the shader's key, source,
// the entry point of each stage, the bind group layout descriptors and the vertex buffer layouts
// reflected from the source.
type Shader interface {
	// Key retrieves the unique identifier for this shader, also used as the shader module label.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// EntryPoint returns the entry point function name of a stage.
	//
	// Parameters:
	//   - stage: the shader stage
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main"), empty if the stage has none
	EntryPoint(stage ShaderStage) string

	// BindGroupLayoutDescriptor retrieves the bind group layout descriptor for a group index.
	// The returned descriptor's Label is empty; the caller names the layout it creates.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, or an empty descriptor if the group is not declared
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves all parsed bind group layout descriptors.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name declared at a group and binding index.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not found
	BindGroupVarName(group, binding int) string

	// VertexLayouts retrieves the vertex buffer layouts of the vertex entry point, one per input struct.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the vertex buffer layouts
	VertexLayouts() []wgpu.VertexBufferLayout
}

var _ Shader = &shader{}

// NewShader parses WGSL source into a Shader.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - source: the WGSL source code, which must declare a @vertex and a @fragment entry point
//
// Returns:
//   - Shader: the parsed shader
//   - error: ErrMissingEntryPoint if either entry point is absent
func NewShader(key, source string) (Shader, error) {
	stripped := stripComments(source)
	s := &shader{
		key:         key,
		source:      source,
		entryPoints: make(map[ShaderStage]string, 2),
	}
	for _, stage := range []ShaderStage{ShaderStageVertex, ShaderStageFragment} {
		entry := parseEntryPoint(stripped, stage)
		if entry == "" {
			return nil, fmt.Errorf("%w: %s in %s", ErrMissingEntryPoint, stage, key)
		}
		s.entryPoints[stage] = entry
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames = parseBindGroupLayouts(stripped, s.entryPoints)
	s.vertexLayouts = parseVertexLayouts(stripped)
	return s, nil
}

// UI returns the built-in UI shader. The embedded source always parses.
func UI() Shader {
	s, err := NewShader(UIShaderKey, uiSource)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint(stage ShaderStage) string {
	return s.entryPoints[stage]
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	if names, ok := s.bindingVarNames[group]; ok {
		return names[binding]
	}
	return ""
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}
