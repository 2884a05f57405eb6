package user_texture

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-ui/common"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-ui/engine/renderer/bind_group_provider"
	"github.com/charmbracelet/log"
)

// pendingUpload is an allocated id whose pixels have not reached the GPU yet.
type pendingUpload struct {
	id   uint64
	data common.TextureStagingData
}

// userTextureTable is the implementation of the UserTextureTable interface.
type userTextureTable struct {
	layout backend.BindGroupLayout
	logger *log.Logger
	label  string

	// nextID is the id handed out by the next Allocate or RegisterNative.
	nextID  uint64
	slots   []bind_group_provider.BindGroupProvider
	pending []pendingUpload
}

// UserTextureTable maps user texture ids to GPU bind groups.
// Ids are handed out in strictly increasing order starting at 0 and are never reused:
// freeing an id leaves a permanent hole in the table.
type UserTextureTable interface {
	// Allocate assigns the next id and queues the pixels for upload on the next Flush.
	//
	// Parameters:
	//   - width: the texture width in pixels
	//   - height: the texture height in pixels
	//   - pixels: premultiplied sRGBA pixels, 4 bytes per pixel
	//
	// Returns:
	//   - common.TextureID: the user texture reference for the new id
	Allocate(width, height int, pixels []byte) common.TextureID

	// Flush creates the GPU texture and bind group of every pending allocation.
	// An entry whose pixels are not width*height*4 bytes is dropped and its id stays absent;
	// the entries after it are still uploaded. On a device error the failing entry and
	// everything after it stay queued.
	//
	// Parameters:
	//   - device: the device to create resources on
	//   - queue: the queue uploads are submitted on
	//
	// Returns:
	//   - error: common.ErrInvalidTexture for every dropped entry, joined with the first device error
	Flush(device backend.Device, queue backend.Queue) error

	// RegisterNative wraps a texture view the caller already owns under the next id.
	// The bind group is created immediately, bypassing the pending queue.
	//
	// Parameters:
	//   - device: the device to create the bind group on
	//   - view: the externally owned texture view
	//
	// Returns:
	//   - common.TextureID: the user texture reference for the new id
	//   - error: if the bind group could not be created; no id is consumed in that case
	RegisterNative(device backend.Device, view backend.TextureView) (common.TextureID, error)

	// Free releases the resources of a user texture. Unknown, already freed and system ids are ignored.
	// A still pending allocation is dropped from the queue.
	//
	// Parameters:
	//   - id: the texture to free
	Free(id common.TextureID)

	// Resolve returns the bind group of a resident user texture.
	//
	// Parameters:
	//   - id: the user texture id
	//
	// Returns:
	//   - backend.BindGroup: the texture bind group
	//   - error: ErrTextureNotAllocated when id was never handed out, ErrTextureFreed when the slot is empty
	Resolve(id uint64) (backend.BindGroup, error)

	// Pending returns how many allocations are waiting for Flush.
	Pending() int

	// Len returns the size of the slot table, including holes.
	Len() int

	// Release releases every resident texture and drops pending uploads. Ids are not reset.
	Release()
}

var _ UserTextureTable = &userTextureTable{}

// NewUserTextureTable creates an empty UserTextureTable.
//
// Parameters:
//   - layout: the texture bind group layout every bind group is built against
//   - options: a variadic list of options to configure the table
//
// Returns:
//   - UserTextureTable: the new table
func NewUserTextureTable(layout backend.BindGroupLayout, options ...UserTextureTableBuilderOption) UserTextureTable {
	t := &userTextureTable{
		layout: layout,
		logger: common.Logger(),
		label:  "egui_user_texture",
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

func (t *userTextureTable) Allocate(width, height int, pixels []byte) common.TextureID {
	id := t.nextID
	t.nextID++
	t.pending = append(t.pending, pendingUpload{
		id: id,
		data: common.TextureStagingData{
			Pixels: pixels,
			Width:  uint32(width),
			Height: uint32(height),
		},
	})
	return common.UserTexture(id)
}

func (t *userTextureTable) Flush(device backend.Device, queue backend.Queue) error {
	var errs []error
	for i, p := range t.pending {
		label := fmt.Sprintf("%s_%d", t.label, p.id)
		provider, err := bind_group_provider.InitTexture(device, queue, t.layout, label, p.data)
		if errors.Is(err, common.ErrInvalidTexture) {
			t.logger.Warn("dropped invalid user texture", "id", p.id, "err", err)
			errs = append(errs, fmt.Errorf("flush user texture %d: %w", p.id, err))
			continue
		}
		if err != nil {
			t.pending = t.pending[i:]
			return errors.Join(append(errs, fmt.Errorf("flush user texture %d: %w", p.id, err))...)
		}
		t.store(p.id, provider)
	}
	t.pending = t.pending[:0]
	return errors.Join(errs...)
}

func (t *userTextureTable) RegisterNative(device backend.Device, view backend.TextureView) (common.TextureID, error) {
	id := t.nextID
	provider, err := bind_group_provider.InitNativeTexture(device, t.layout, fmt.Sprintf("%s_%d", t.label, id), view)
	if err != nil {
		return common.TextureID{}, fmt.Errorf("register native texture: %w", err)
	}
	t.nextID++
	t.store(id, provider)
	return common.UserTexture(id), nil
}

// store places a provider at the id's slot, growing the table with holes as needed.
func (t *userTextureTable) store(id uint64, provider bind_group_provider.BindGroupProvider) {
	for uint64(len(t.slots)) <= id {
		t.slots = append(t.slots, nil)
	}
	t.slots[id] = provider
}

func (t *userTextureTable) Free(id common.TextureID) {
	if !id.IsUser() {
		return
	}
	for i, p := range t.pending {
		if p.id == id.ID {
			t.pending = append(t.pending[:i], t.pending[i+1:]...)
			return
		}
	}
	if id.ID >= uint64(len(t.slots)) || t.slots[id.ID] == nil {
		return
	}
	t.slots[id.ID].Release()
	t.slots[id.ID] = nil
	t.logger.Debug("freed user texture", "id", id.ID)
}

func (t *userTextureTable) Resolve(id uint64) (backend.BindGroup, error) {
	if id >= t.nextID {
		return nil, fmt.Errorf("resolve user texture %d: %w", id, common.ErrTextureNotAllocated)
	}
	if id >= uint64(len(t.slots)) || t.slots[id] == nil {
		return nil, fmt.Errorf("resolve user texture %d: %w", id, common.ErrTextureFreed)
	}
	return t.slots[id].BindGroup(), nil
}

func (t *userTextureTable) Pending() int {
	return len(t.pending)
}

func (t *userTextureTable) Len() int {
	return len(t.slots)
}

func (t *userTextureTable) Release() {
	for i, p := range t.slots {
		if p != nil {
			p.Release()
			t.slots[i] = nil
		}
	}
	t.pending = nil
}
