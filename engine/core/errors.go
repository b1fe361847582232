package core

import (
	"errors"
)

var (
	// A bindless table slot outside the current table length was addressed
	// by host-side code. Shader-side resolution is never checked; population
	// is where this must be caught.
	ErrSlotOutOfRange = errors.New("bindless table slot out of range")
	// A dispatched index refers to a slot that was never populated.
	ErrSlotNotPopulated = errors.New("bindless table slot not populated")
	// A material identifier outside the closed set was supplied by a scene.
	ErrInvalidMaterial = errors.New("material identifier outside the closed set")
	// The per-dispatch time went backwards within a rendering session.
	ErrTimeNotMonotonic = errors.New("dispatch time is not monotonically non-decreasing")
	// Reserved padding of a push-constant record carried non-zero bytes.
	ErrPaddingNotZero = errors.New("reserved padding must be zero-filled")
	// The backend does not implement the requested operation; the owning
	// collaborator is expected to provide it.
	ErrExternalCollaborator = errors.New("operation owned by an external collaborator")
	ErrUnknown              = errors.New("unknown")
)
