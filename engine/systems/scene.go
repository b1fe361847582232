package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// appliedScene records what one scene name currently owns: the table slots
// its instances were staged into and the instances themselves. A re-apply of
// the same name reuses the slots and replaces the instances.
type appliedScene struct {
	slots     []uint32
	instances []*metadata.Instance
}

/**
 * @brief SceneSystem turns a parsed scene description into uploaded
 * geometries, built acceleration structures and staged table writes. A scene
 * is applied atomically from the tables' point of view: every write it
 * stages becomes visible in the same Commit, so no dispatch observes half a
 * scene. Applying a name that is already live replaces its previous
 * application in place; slots it no longer needs are staged empty. It also
 * listens for on-disk scene changes and re-applies the file.
 */
type SceneSystem struct {
	renderer   *renderer.Renderer
	geometries *GeometrySystem
	accels     *AccelTableSystem

	// Live scenes by name, plus application order for stable iteration.
	applied  map[string]*appliedScene
	order    []string
	nextSlot uint32
	mutex    sync.Mutex
}

func NewSceneSystem(r *renderer.Renderer, geometries *GeometrySystem, accels *AccelTableSystem) (*SceneSystem, error) {
	if geometries == nil || accels == nil {
		return nil, fmt.Errorf("func NewSceneSystem - geometry and accel table systems are required")
	}
	ss := &SceneSystem{
		renderer:   r,
		geometries: geometries,
		accels:     accels,
		applied:    make(map[string]*appliedScene),
	}
	core.EventRegister(core.EVENT_CODE_SCENE_CHANGED, ss.onSceneChanged)
	return ss, nil
}

func (ss *SceneSystem) Shutdown() error {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()
	ss.applied = make(map[string]*appliedScene)
	ss.order = nil
	return nil
}

// Instances returns the instances of every applied scene, in application
// order and, within one scene, in table-slot order.
func (ss *SceneSystem) Instances() []*metadata.Instance {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()
	var instances []*metadata.Instance
	for _, name := range ss.order {
		instances = append(instances, ss.applied[name].instances...)
	}
	return instances
}

/**
 * @brief Applies a scene description. Validation is all-or-nothing; a single
 * invalid material identifier rejects the whole scene before anything is
 * uploaded or staged. If the scene name was already applied, its slots are
 * reused and its instances replaced, so repeated applications never grow the
 * tables beyond what the largest version of the scene needed.
 *
 * @param config The parsed scene description.
 * @return The table slots the scene's instances were staged into, in
 * instance order, or an error.
 */
func (ss *SceneSystem) ApplyScene(config *metadata.SceneConfig) ([]uint32, error) {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()

	// Materials first; the set is closed and nothing defaults.
	for _, instance := range config.Instances {
		if _, err := metadata.MaterialIDFromCustomIndex(instance.Material); err != nil {
			return nil, fmt.Errorf("scene `%s` instance of `%s`: %w", config.Name, instance.Geometry, err)
		}
	}

	for _, geometryConfig := range config.Geometries {
		if _, err := ss.geometries.AcquireByName(geometryConfig.Name); err == nil {
			continue
		}
		var gc *metadata.GeometryConfig
		switch geometryConfig.Kind {
		case "plane":
			gc = GeneratePlaneConfig(geometryConfig.Size, geometryConfig.Name)
		case "cube":
			gc = GenerateCubeConfig(geometryConfig.Size, geometryConfig.Name)
		default:
			return nil, fmt.Errorf("scene `%s`: unknown geometry kind `%s`", config.Name, geometryConfig.Kind)
		}
		if _, err := ss.geometries.AcquireFromConfig(gc); err != nil {
			return nil, err
		}
	}

	previous := ss.applied[config.Name]
	reusable := uint32(0)
	if previous != nil {
		reusable = uint32(len(previous.slots))
	}

	// Fresh slots are only needed for instances beyond what the previous
	// application of this scene already owns.
	instanceCount := uint32(len(config.Instances))
	if instanceCount > reusable {
		needed := ss.nextSlot + instanceCount - reusable
		if needed > ss.accels.Length() {
			length := ss.accels.Length()
			for length < needed {
				length *= 2
			}
			if err := ss.accels.Resize(length); err != nil {
				return nil, err
			}
		}
	}

	slots := make([]uint32, 0, len(config.Instances))
	instances := make([]*metadata.Instance, 0, len(config.Instances))
	for i, instanceConfig := range config.Instances {
		geometry, err := ss.geometries.AcquireByName(instanceConfig.Geometry)
		if err != nil {
			return nil, fmt.Errorf("scene `%s`: %w", config.Name, err)
		}
		handle, err := ss.renderer.CreateAccelerationStructure(geometry)
		if err != nil {
			return nil, err
		}
		var slot uint32
		if uint32(i) < reusable {
			slot = previous.slots[i]
		} else {
			slot = ss.nextSlot
			ss.nextSlot++
		}
		if err := ss.accels.Write(slot, handle); err != nil {
			return nil, err
		}
		slots = append(slots, slot)

		material, _ := metadata.MaterialIDFromCustomIndex(instanceConfig.Material)
		position := math.NewVec3Zero()
		if len(instanceConfig.Position) == 3 {
			position = math.NewVec3(instanceConfig.Position[0], instanceConfig.Position[1], instanceConfig.Position[2])
		}
		scale := instanceConfig.Scale
		if scale == 0 {
			scale = 1.0
		}
		instances = append(instances, &metadata.Instance{
			GeometryName: instanceConfig.Geometry,
			Material:     material,
			Position:     position,
			Scale:        scale,
		})
	}

	// Slots the previous application held but this one no longer fills are
	// staged empty, so they stop resolving at the next Commit.
	if previous != nil && len(slots) < len(previous.slots) {
		for _, slot := range previous.slots[len(slots):] {
			if err := ss.accels.Write(slot, 0); err != nil {
				return nil, err
			}
		}
	}

	if previous == nil {
		ss.order = append(ss.order, config.Name)
	}
	ss.applied[config.Name] = &appliedScene{
		slots:     slots,
		instances: instances,
	}

	core.LogInfo("scene `%s` applied: %d geometries, %d instances", config.Name, len(config.Geometries), len(config.Instances))
	return slots, nil
}

// ApplySceneFile parses and applies a TOML scene file.
func (ss *SceneSystem) ApplySceneFile(path string) ([]uint32, error) {
	config, err := loaders.LoadScene(path)
	if err != nil {
		return nil, err
	}
	return ss.ApplyScene(config)
}

func (ss *SceneSystem) onSceneChanged(context core.EventContext) {
	event, ok := context.Data.(*core.SceneChangedEvent)
	if !ok {
		core.LogWarn("scene change event carried unexpected payload %T", context.Data)
		return
	}
	core.LogInfo("scene file `%s` changed, re-applying", event.Path)
	if _, err := ss.ApplySceneFile(event.Path); err != nil {
		core.LogError("failed to re-apply scene `%s`: %s", event.Path, err.Error())
	}
}
