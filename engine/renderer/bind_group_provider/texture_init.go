package bind_group_provider

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ui/common"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/backend"
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureBinding is the binding index of the sampled texture inside a texture bind group.
const TextureBinding = 0

// InitTexture creates an sRGBA8 texture from staged pixels, uploads them, and builds a bind group
// exposing the texture's view at TextureBinding of layout. The returned provider owns the texture,
// the view and the bind group. On failure every resource created so far is released.
//
// Parameters:
//   - device: the device to create resources on
//   - queue: the queue the upload is submitted on
//   - layout: the texture bind group layout
//   - label: the debug label used for all created resources
//   - stagingData: the premultiplied sRGBA pixels and their dimensions
//
// Returns:
//   - BindGroupProvider: the provider holding the new resources
//   - error: common.ErrInvalidTexture for an empty or mis-sized payload, or the failing device call
func InitTexture(device backend.Device, queue backend.Queue, layout backend.BindGroupLayout, label string, stagingData common.TextureStagingData) (BindGroupProvider, error) {
	want := uint64(stagingData.Width) * uint64(stagingData.Height) * 4
	if want == 0 || uint64(len(stagingData.Pixels)) != want {
		return nil, fmt.Errorf("%s: %w: %d bytes for %dx%d sRGBA", label, common.ErrInvalidTexture, len(stagingData.Pixels), stagingData.Width, stagingData.Height)
	}

	tex, err := device.CreateTexture(backend.TextureDescriptor{
		Label:  label,
		Width:  stagingData.Width,
		Height: stagingData.Height,
		Format: wgpu.TextureFormatRGBA8UnormSrgb,
		Usage:  wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}

	err = queue.WriteTexture(tex, stagingData.Pixels, backend.TextureDataLayout{
		BytesPerRow:  stagingData.BytesPerRow(),
		RowsPerImage: stagingData.Height,
		Width:        stagingData.Width,
		Height:       stagingData.Height,
	})
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("write texture %q: %w", label, err)
	}

	view, err := device.CreateTextureView(tex)
	if err != nil {
		tex.Release()
		return nil, err
	}

	p := NewBindGroupProvider(label, WithTexture(TextureBinding, tex, view))
	bg, err := device.CreateBindGroup(backend.BindGroupDescriptor{
		Label:  label + "_bind_group",
		Layout: layout,
		Entries: []backend.BindGroupEntry{
			{Binding: TextureBinding, TextureView: view},
		},
	})
	if err != nil {
		p.Release()
		return nil, err
	}
	p.SetBindGroup(bg)

	return p, nil
}

// InitNativeTexture builds a texture bind group around a view the caller already owns.
// The returned provider owns only the bind group; the view is left untouched on Release.
//
// Parameters:
//   - device: the device to create the bind group on
//   - layout: the texture bind group layout
//   - label: the debug label of the bind group
//   - view: the externally owned texture view
//
// Returns:
//   - BindGroupProvider: the provider holding the bind group
//   - error: if the bind group could not be created
func InitNativeTexture(device backend.Device, layout backend.BindGroupLayout, label string, view backend.TextureView) (BindGroupProvider, error) {
	bg, err := device.CreateBindGroup(backend.BindGroupDescriptor{
		Label:  label + "_bind_group",
		Layout: layout,
		Entries: []backend.BindGroupEntry{
			{Binding: TextureBinding, TextureView: view},
		},
	})
	if err != nil {
		return nil, err
	}
	return NewBindGroupProvider(label, WithBindGroup(bg)), nil
}
