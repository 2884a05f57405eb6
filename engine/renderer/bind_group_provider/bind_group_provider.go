package bind_group_provider

import (
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/backend"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// The following fields are GPU allocated resources owned by this provider and released with it.

	// bindGroup is the GPU bind group created for this provider, or nil if not initialized.
	bindGroup backend.BindGroup
	// buffers holds the GPU buffers created for this provider, keyed by binding index.
	buffers map[int]backend.Buffer
	// textures holds the GPU textures backing the texture views, keyed by binding index.
	textures map[int]backend.Texture
	// textureViews holds the GPU texture views created for this provider, keyed by binding index.
	textureViews map[int]backend.TextureView
	// samplers holds the GPU samplers created for this provider, keyed by binding index.
	samplers map[int]backend.Sampler
}

// BindGroupProvider owns a bind group together with the GPU resources it was built from.
// The system texture, each user texture slot and the uniform state are each held in one
// provider so releasing a slot releases exactly the resources that slot created.
// Resources that were not handed to the provider (shared layouts, borrowed native
// texture views) are never released by it.
type BindGroupProvider interface {
	// Release releases every GPU resource held by this provider.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the created bind group for shader binding.
	// Returns nil if GPU resources have not been initialized.
	//
	// Returns:
	//   - backend.BindGroup: the bind group, or nil
	BindGroup() backend.BindGroup

	// Buffer returns the buffer owned at a binding index, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - backend.Buffer: the buffer, or nil
	Buffer(binding int) backend.Buffer

	// Texture returns the texture owned at a binding index, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - backend.Texture: the texture, or nil
	Texture(binding int) backend.Texture

	// TextureView returns the texture view owned at a binding index, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - backend.TextureView: the texture view, or nil
	TextureView(binding int) backend.TextureView

	// Sampler returns the sampler owned at a binding index, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - backend.Sampler: the sampler, or nil
	Sampler(binding int) backend.Sampler

	// SetBindGroup sets the bind group, releasing any previous one.
	//
	// Parameters:
	//   - bg: the bind group to take ownership of
	SetBindGroup(bg backend.BindGroup)

	// SetBuffer takes ownership of a buffer at a binding index, releasing any previous one.
	SetBuffer(binding int, buf backend.Buffer)

	// SetTexture takes ownership of a texture at a binding index, releasing any previous one.
	SetTexture(binding int, tex backend.Texture)

	// SetTextureView takes ownership of a texture view at a binding index, releasing any previous one.
	SetTextureView(binding int, tv backend.TextureView)

	// SetSampler takes ownership of a sampler at a binding index, releasing any previous one.
	SetSampler(binding int, s backend.Sampler)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: the debug label of the provider
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		buffers:      make(map[int]backend.Buffer),
		textures:     make(map[int]backend.Texture),
		textureViews: make(map[int]backend.TextureView),
		samplers:     make(map[int]backend.Sampler),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() backend.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) Buffer(binding int) backend.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Texture(binding int) backend.Texture {
	return p.textures[binding]
}

func (p *bindGroupProvider) TextureView(binding int) backend.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) Sampler(binding int) backend.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) SetBindGroup(bg backend.BindGroup) {
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBuffer(binding int, buf backend.Buffer) {
	replace(p.buffers, binding, buf)
}

func (p *bindGroupProvider) SetTexture(binding int, tex backend.Texture) {
	replace(p.textures, binding, tex)
}

func (p *bindGroupProvider) SetTextureView(binding int, tv backend.TextureView) {
	replace(p.textureViews, binding, tv)
}

func (p *bindGroupProvider) SetSampler(binding int, s backend.Sampler) {
	replace(p.samplers, binding, s)
}

func (p *bindGroupProvider) Release() {
	// the bind group references the views, so it goes first
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	releaseAll(p.textureViews)
	releaseAll(p.textures)
	releaseAll(p.samplers)
	releaseAll(p.buffers)
}

func replace[R backend.Resource](m map[int]R, binding int, r R) {
	if old, ok := m[binding]; ok && backend.Resource(old) != backend.Resource(r) {
		old.Release()
	}
	if any(r) == nil {
		delete(m, binding)
		return
	}
	m[binding] = r
}

func releaseAll[R backend.Resource](m map[int]R) {
	for i, r := range m {
		r.Release()
		delete(m, i)
	}
}
