package systems

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

/** @brief Configuration of the bindless storage-image table system. */
type BindlessImageSystemConfig struct {
	/** @brief Number of slots the table starts with. The table only grows. */
	InitialLength uint32
}

/**
 * @brief BindlessImageSystem owns the bindless storage-image table the
 * output_image field of a dispatch descriptor indexes. Same staging and
 * commit discipline as the acceleration-structure table; the two tables are
 * independent and share nothing but the descriptor set they live in.
 */
type BindlessImageSystem struct {
	renderer *renderer.Renderer
	table    []metadata.ImageHandle
	staged   map[uint32]metadata.ImageHandle
	mutex    sync.RWMutex
}

func NewBindlessImageSystem(config *BindlessImageSystemConfig, r *renderer.Renderer) (*BindlessImageSystem, error) {
	if config.InitialLength == 0 {
		return nil, fmt.Errorf("func NewBindlessImageSystem - config.InitialLength must be > 0")
	}
	if err := r.ImageTableResize(config.InitialLength); err != nil {
		return nil, err
	}
	return &BindlessImageSystem{
		renderer: r,
		table:    make([]metadata.ImageHandle, config.InitialLength),
		staged:   make(map[uint32]metadata.ImageHandle),
	}, nil
}

func (s *BindlessImageSystem) Shutdown() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.table = nil
	s.staged = nil
	return nil
}

func (s *BindlessImageSystem) Length() uint32 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return uint32(len(s.table))
}

func (s *BindlessImageSystem) Resize(newLength uint32) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	oldLength := uint32(len(s.table))
	if newLength <= oldLength {
		return fmt.Errorf("image table may only grow (have %d, requested %d)", oldLength, newLength)
	}
	if err := s.renderer.ImageTableResize(newLength); err != nil {
		return err
	}
	grown := make([]metadata.ImageHandle, newLength)
	copy(grown, s.table)
	s.table = grown
	return nil
}

// AcquireTarget creates a render target through the backend and stages it
// into the given slot. The name only shows up in logs and captures.
func (s *BindlessImageSystem) AcquireTarget(slot uint32, name string, width, height uint32) (metadata.ImageHandle, error) {
	if name == "" {
		name = fmt.Sprintf("render-target-%s", uuid.New().String())
	}
	handle, err := s.renderer.CreateRenderTarget(name, width, height)
	if err != nil {
		return 0, err
	}
	if err := s.Write(slot, handle); err != nil {
		return 0, err
	}
	return handle, nil
}

func (s *BindlessImageSystem) Write(slot uint32, handle metadata.ImageHandle) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if slot >= uint32(len(s.table)) {
		return fmt.Errorf("slot %d: %w (table length %d)", slot, core.ErrSlotOutOfRange, len(s.table))
	}
	s.staged[slot] = handle
	return nil
}

func (s *BindlessImageSystem) Commit() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for slot, handle := range s.staged {
		if err := s.renderer.ImageTableWrite(slot, handle); err != nil {
			return err
		}
		s.table[slot] = handle
	}
	s.staged = make(map[uint32]metadata.ImageHandle)
	return nil
}

// Resolve returns the committed handle at slot. Unchecked, constant time.
func (s *BindlessImageSystem) Resolve(slot uint32) metadata.ImageHandle {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.table[slot]
}

func (s *BindlessImageSystem) Populated(slot uint32) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return slot < uint32(len(s.table)) && s.table[slot] != 0
}
