package metadata

import "github.com/spaghettifunk/lumen/engine/math"

// Sun-like directional light. Compiled-in, immutable for the lifetime of
// the process; the shading side carries the same literals in rt_shared.h.
var (
	/** @brief Unit direction towards the light, normalized from (0.5, 0.8, -0.3). */
	LightDir = math.NewVec3(0.5, 0.8, -0.3).Normalize()
	/** @brief Warm white light colour. */
	LightColor = math.NewVec3(1.0, 0.95, 0.8)
)
