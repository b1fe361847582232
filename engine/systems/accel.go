package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

/** @brief Configuration of the acceleration-structure table system. */
type AccelTableSystemConfig struct {
	/** @brief Number of slots the table starts with. The table only grows. */
	InitialLength uint32
}

/**
 * @brief AccelTableSystem owns the bindless acceleration-structure table.
 * Writes are staged on the host and pushed to the renderer only at Commit,
 * which the system manager calls strictly between frames. Resolution is a
 * plain indexed read of the committed mirror; shaders do the same on their
 * side, so a dispatch referencing an unpopulated slot is a host bug that
 * validation in the dispatch system must have caught earlier.
 */
type AccelTableSystem struct {
	renderer *renderer.Renderer
	// Committed slot contents, mirroring what the descriptor table holds.
	table []metadata.AccelerationStructureHandle
	// Writes staged since the last Commit, keyed by slot.
	staged map[uint32]metadata.AccelerationStructureHandle
	mutex  sync.RWMutex
}

func NewAccelTableSystem(config *AccelTableSystemConfig, r *renderer.Renderer) (*AccelTableSystem, error) {
	if config.InitialLength == 0 {
		return nil, fmt.Errorf("func NewAccelTableSystem - config.InitialLength must be > 0")
	}
	if err := r.AccelTableResize(config.InitialLength); err != nil {
		return nil, err
	}
	return &AccelTableSystem{
		renderer: r,
		table:    make([]metadata.AccelerationStructureHandle, config.InitialLength),
		staged:   make(map[uint32]metadata.AccelerationStructureHandle),
	}, nil
}

func (s *AccelTableSystem) Shutdown() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.table = nil
	s.staged = nil
	return nil
}

// Length returns the current slot count of the table.
func (s *AccelTableSystem) Length() uint32 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return uint32(len(s.table))
}

// Resize grows the table to newLength slots. Existing bindings keep their
// slots; shrinking is refused because dispatches may still carry old indices.
func (s *AccelTableSystem) Resize(newLength uint32) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	oldLength := uint32(len(s.table))
	if newLength <= oldLength {
		return fmt.Errorf("acceleration table may only grow (have %d, requested %d)", oldLength, newLength)
	}
	if err := s.renderer.AccelTableResize(newLength); err != nil {
		return err
	}
	grown := make([]metadata.AccelerationStructureHandle, newLength)
	copy(grown, s.table)
	s.table = grown

	core.EventFire(core.EventContext{
		Type: core.EVENT_CODE_ACCEL_TABLE_RESIZED,
		Data: &core.TableResizedEvent{
			OldLength: oldLength,
			NewLength: newLength,
		},
	})
	return nil
}

// Write stages a slot update. It becomes visible to Resolve and to shaders
// only after the next Commit; until then both keep seeing the old binding.
func (s *AccelTableSystem) Write(slot uint32, handle metadata.AccelerationStructureHandle) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if slot >= uint32(len(s.table)) {
		return fmt.Errorf("slot %d: %w (table length %d)", slot, core.ErrSlotOutOfRange, len(s.table))
	}
	s.staged[slot] = handle
	return nil
}

// Commit pushes every staged write to the renderer and into the committed
// mirror. Must run strictly between frames; the renderer backend rejects
// table writes while a frame is in flight.
func (s *AccelTableSystem) Commit() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for slot, handle := range s.staged {
		if err := s.renderer.AccelTableWrite(slot, handle); err != nil {
			return err
		}
		s.table[slot] = handle
	}
	s.staged = make(map[uint32]metadata.AccelerationStructureHandle)
	return nil
}

// Resolve returns the committed handle at slot. Unchecked, constant time.
func (s *AccelTableSystem) Resolve(slot uint32) metadata.AccelerationStructureHandle {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.table[slot]
}

// Populated reports whether slot is in range and holds a committed handle.
// This is the check dispatch descriptor construction relies on.
func (s *AccelTableSystem) Populated(slot uint32) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return slot < uint32(len(s.table)) && s.table[slot] != 0
}
