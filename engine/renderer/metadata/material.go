package metadata

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine/core"
)

/**
 * @brief MaterialID selects the BRDF a closest-hit invocation runs for the
 * instance it hit. It rides on the instance custom index, not inside the
 * push-constant block. The set is closed and a stable ABI with precompiled
 * shading code; adding a value is a breaking change for any shader that
 * switches on it.
 */
type MaterialID uint32

const (
	MaterialGround MaterialID = iota
	MaterialRedMetal
	MaterialBlueReflective
	MaterialGreen

	// One past the last valid identifier.
	materialIDCount
)

// Valid reports whether m is inside the closed identifier set.
func (m MaterialID) Valid() bool {
	return m < materialIDCount
}

func (m MaterialID) String() string {
	switch m {
	case MaterialGround:
		return "ground"
	case MaterialRedMetal:
		return "red_metal"
	case MaterialBlueReflective:
		return "blue_reflective"
	case MaterialGreen:
		return "green"
	}
	return fmt.Sprintf("material(%d)", uint32(m))
}

// MaterialIDFromCustomIndex converts an instance custom index into a
// MaterialID. Anything outside the closed set is a configuration error
// of whoever built the instance, never a silent default.
func MaterialIDFromCustomIndex(index uint32) (MaterialID, error) {
	m := MaterialID(index)
	if !m.Valid() {
		return 0, fmt.Errorf("custom index %d: %w", index, core.ErrInvalidMaterial)
	}
	return m, nil
}
