package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

/** @brief Configuration of the geometry system. */
type GeometrySystemConfig struct {
	/** @brief Max number of geometries that can be registered at once. */
	MaxGeometryCount uint32
}

/**
 * @brief GeometrySystem registers uploaded geometries and hands out their
 * device-address pairs. Uploads go through the renderer backend, which packs
 * positions at 12 bytes and indices at 4 and returns base addresses honoring
 * the 16-byte vertex alignment the reference buffers declare.
 */
type GeometrySystem struct {
	config     *GeometrySystemConfig
	renderer   *renderer.Renderer
	registered map[uint32]*metadata.Geometry
	byName     map[string]uint32
	mutex      sync.RWMutex
}

func NewGeometrySystem(config *GeometrySystemConfig, r *renderer.Renderer) (*GeometrySystem, error) {
	if config.MaxGeometryCount == 0 {
		err := fmt.Errorf("func NewGeometrySystem - config.MaxGeometryCount must be > 0")
		core.LogWarn(err.Error())
		return nil, err
	}
	return &GeometrySystem{
		config:     config,
		renderer:   r,
		registered: make(map[uint32]*metadata.Geometry),
		byName:     make(map[string]uint32),
	}, nil
}

func (gs *GeometrySystem) Shutdown() error {
	gs.mutex.Lock()
	defer gs.mutex.Unlock()
	for id, geometry := range gs.registered {
		gs.renderer.DestroyGeometry(geometry)
		core.IdentifierReleaseID(id)
	}
	gs.registered = make(map[uint32]*metadata.Geometry)
	gs.byName = make(map[string]uint32)
	return nil
}

/**
 * @brief Registers and uploads a new geometry from the given config.
 *
 * @param config The geometry configuration.
 * @return A pointer to the uploaded geometry or nil with an error if failed.
 */
func (gs *GeometrySystem) AcquireFromConfig(config *metadata.GeometryConfig) (*metadata.Geometry, error) {
	gs.mutex.Lock()
	defer gs.mutex.Unlock()

	if uint32(len(gs.registered)) >= gs.config.MaxGeometryCount {
		return nil, fmt.Errorf("unable to obtain free slot for geometry. Adjust configuration to allow more space")
	}
	if _, exists := gs.byName[config.Name]; exists {
		return nil, fmt.Errorf("geometry `%s` is already registered", config.Name)
	}

	geometry := &metadata.Geometry{
		ID:   core.IdentifierAcquireNewID(config.Name),
		Name: config.Name,
	}
	if err := gs.renderer.CreateGeometry(geometry, config.Vertices, config.Indices); err != nil {
		core.IdentifierReleaseID(geometry.ID)
		return nil, err
	}
	if uint64(geometry.VertexAddress)%metadata.VertexAddressAlignment != 0 {
		gs.renderer.DestroyGeometry(geometry)
		core.IdentifierReleaseID(geometry.ID)
		return nil, fmt.Errorf("geometry `%s` vertex address %#x not %d-byte aligned",
			config.Name, uint64(geometry.VertexAddress), metadata.VertexAddressAlignment)
	}

	gs.registered[geometry.ID] = geometry
	gs.byName[geometry.Name] = geometry.ID
	return geometry, nil
}

// AcquireByName returns a registered geometry by name.
func (gs *GeometrySystem) AcquireByName(name string) (*metadata.Geometry, error) {
	gs.mutex.RLock()
	defer gs.mutex.RUnlock()
	id, exists := gs.byName[name]
	if !exists {
		return nil, fmt.Errorf("no geometry registered under `%s`", name)
	}
	return gs.registered[id], nil
}

// Release destroys a registered geometry and frees its identifier. The
// arena space stays allocated; its addresses simply stop being handed out.
func (gs *GeometrySystem) Release(geometry *metadata.Geometry) {
	if geometry == nil {
		core.LogWarn("GeometrySystem.Release called with nil geometry. Nothing was done.")
		return
	}
	gs.mutex.Lock()
	defer gs.mutex.Unlock()

	if _, exists := gs.registered[geometry.ID]; !exists {
		core.LogWarn("geometry `%s` is not registered. Nothing was done.", geometry.Name)
		return
	}
	gs.renderer.DestroyGeometry(geometry)
	delete(gs.byName, geometry.Name)
	delete(gs.registered, geometry.ID)
	core.IdentifierReleaseID(geometry.ID)
}

// VertexAt reads one packed vertex through a geometry device address,
// matching what a shader-side buffer reference would fetch.
func (gs *GeometrySystem) VertexAt(address metadata.DeviceAddress, i uint32) math.Vec3 {
	return gs.renderer.VertexAt(address, i)
}

// IndexAt reads one packed index through a geometry device address.
func (gs *GeometrySystem) IndexAt(address metadata.DeviceAddress, i uint32) uint32 {
	return gs.renderer.IndexAt(address, i)
}

/**
 * @brief Generates configuration for a flat plane centered at the origin,
 * lying in the xz plane. Two triangles, four vertices.
 *
 * @param size The overall edge length of the plane. Must be non-zero.
 * @param name The name of the generated geometry.
 * @return A geometry configuration which can then be fed into AcquireFromConfig().
 */
func GeneratePlaneConfig(size float32, name string) *metadata.GeometryConfig {
	if size == 0 {
		core.LogWarn("Size must be nonzero. Defaulting to one.")
		size = 1.0
	}
	half := size * 0.5
	return &metadata.GeometryConfig{
		Name: name,
		Vertices: []math.Vec3{
			math.NewVec3(-half, 0.0, -half),
			math.NewVec3(half, 0.0, -half),
			math.NewVec3(half, 0.0, half),
			math.NewVec3(-half, 0.0, half),
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

/**
 * @brief Generates configuration for an axis-aligned cube centered at the
 * origin. Eight vertices, twelve triangles.
 *
 * @param size The overall edge length of the cube. Must be non-zero.
 * @param name The name of the generated geometry.
 * @return A geometry configuration which can then be fed into AcquireFromConfig().
 */
func GenerateCubeConfig(size float32, name string) *metadata.GeometryConfig {
	if size == 0 {
		core.LogWarn("Size must be nonzero. Defaulting to one.")
		size = 1.0
	}
	half := size * 0.5
	return &metadata.GeometryConfig{
		Name: name,
		Vertices: []math.Vec3{
			math.NewVec3(-half, -half, -half),
			math.NewVec3(half, -half, -half),
			math.NewVec3(half, half, -half),
			math.NewVec3(-half, half, -half),
			math.NewVec3(-half, -half, half),
			math.NewVec3(half, -half, half),
			math.NewVec3(half, half, half),
			math.NewVec3(-half, half, half),
		},
		Indices: []uint32{
			0, 2, 1, 0, 3, 2, // back
			4, 5, 6, 4, 6, 7, // front
			0, 4, 7, 0, 7, 3, // left
			1, 6, 5, 1, 2, 6, // right
			3, 7, 6, 3, 6, 2, // top
			0, 1, 5, 0, 5, 4, // bottom
		},
	}
}
