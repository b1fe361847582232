package systems

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/headless"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

func newTestManager(t *testing.T) (*SystemManager, *headless.HeadlessRenderer) {
	t.Helper()
	require.NoError(t, core.MetricsInitialize())
	r, err := renderer.New(renderer.Headless, nil)
	require.NoError(t, err)
	require.NoError(t, r.Initialize("systems-test", 64, 64))

	sm, err := NewSystemManager(r)
	require.NoError(t, err)

	backend, ok := r.Backend().(*headless.HeadlessRenderer)
	require.True(t, ok)
	return sm, backend
}

func TestAccelTableStagedWritesInvisibleUntilCommit(t *testing.T) {
	sm, _ := newTestManager(t)
	accels := sm.AccelTableSystem()

	require.NoError(t, accels.Write(3, 0xabc))
	assert.False(t, accels.Populated(3))
	assert.Zero(t, accels.Resolve(3))

	require.NoError(t, accels.Commit())
	assert.True(t, accels.Populated(3))
	assert.Equal(t, metadata.AccelerationStructureHandle(0xabc), accels.Resolve(3))
}

func TestAccelTableBoundsAndGrowth(t *testing.T) {
	sm, _ := newTestManager(t)
	accels := sm.AccelTableSystem()

	err := accels.Write(accels.Length(), 1)
	assert.True(t, errors.Is(err, core.ErrSlotOutOfRange))

	old := accels.Length()
	assert.Error(t, accels.Resize(old)) // grow-only
	require.NoError(t, accels.Resize(old*2))
	assert.Equal(t, old*2, accels.Length())
	assert.NoError(t, accels.Write(old, 7))
}

func TestGeometrySystemRegistration(t *testing.T) {
	sm, _ := newTestManager(t)
	gs := sm.GeometrySystem()

	geometry, err := gs.AcquireFromConfig(GenerateCubeConfig(2.0, "cube"))
	require.NoError(t, err)
	assert.NotZero(t, geometry.VertexAddress)
	assert.Zero(t, uint64(geometry.VertexAddress)%metadata.VertexAddressAlignment)
	assert.Equal(t, uint32(8), geometry.VertexCount)
	assert.Equal(t, uint32(36), geometry.IndexCount)

	same, err := gs.AcquireByName("cube")
	require.NoError(t, err)
	assert.Equal(t, geometry, same)

	_, err = gs.AcquireFromConfig(GenerateCubeConfig(1.0, "cube"))
	assert.Error(t, err) // duplicate name

	gs.Release(geometry)
	_, err = gs.AcquireByName("cube")
	assert.Error(t, err)
}

func TestGeometryReadBackThroughAddresses(t *testing.T) {
	sm, _ := newTestManager(t)
	gs := sm.GeometrySystem()

	config := GeneratePlaneConfig(10.0, "ground")
	geometry, err := gs.AcquireFromConfig(config)
	require.NoError(t, err)

	for i, want := range config.Vertices {
		assert.Equal(t, want, gs.VertexAt(geometry.VertexAddress, uint32(i)))
	}
	for i, want := range config.Indices {
		assert.Equal(t, want, gs.IndexAt(geometry.IndexAddress, uint32(i)))
	}
}

func TestDispatchValidation(t *testing.T) {
	sm, backend := newTestManager(t)
	ds := sm.DispatchSystem()
	gs := sm.GeometrySystem()

	geometry, err := gs.AcquireFromConfig(GenerateCubeConfig(1.0, "cube"))
	require.NoError(t, err)

	// Nothing committed yet.
	_, err = ds.BuildConstants(0, 0, geometry, 0)
	assert.True(t, errors.Is(err, core.ErrSlotNotPopulated))

	_, err = ds.BuildConstants(0, sm.AccelTableSystem().Length(), geometry, 0)
	assert.True(t, errors.Is(err, core.ErrSlotOutOfRange))

	handle, err := backend.CreateAccelerationStructure(geometry)
	require.NoError(t, err)
	require.NoError(t, sm.AccelTableSystem().Write(0, handle))
	require.NoError(t, sm.AccelTableSystem().Commit())

	// Accel slot is fine now but the output image is still unbound.
	_, err = ds.BuildConstants(0, 0, geometry, 0)
	assert.True(t, errors.Is(err, core.ErrSlotNotPopulated))

	_, err = sm.BindlessImageSystem().AcquireTarget(0, "out", 32, 32)
	require.NoError(t, err)
	require.NoError(t, sm.BindlessImageSystem().Commit())

	constants, err := ds.BuildConstants(0, 0, geometry, 1.0)
	require.NoError(t, err)
	assert.Equal(t, geometry.VertexAddress, constants.VertexAddress)
	assert.Equal(t, geometry.IndexAddress, constants.IndexAddress)

	// Session time never steps backwards across descriptors.
	_, err = ds.BuildConstants(0, 0, geometry, 0.5)
	assert.True(t, errors.Is(err, core.ErrTimeNotMonotonic))
	_, err = ds.BuildConstants(0, 0, geometry, 1.0)
	assert.NoError(t, err)
}

func TestSceneRejectsInvalidMaterialAtomically(t *testing.T) {
	sm, _ := newTestManager(t)
	ss := sm.SceneSystem()

	_, err := ss.ApplyScene(&metadata.SceneConfig{
		Name: "broken",
		Geometries: []metadata.SceneGeometryConfig{
			{Name: "ground", Kind: "plane", Size: 10},
		},
		Instances: []metadata.SceneInstanceConfig{
			{Geometry: "ground", Material: 0},
			{Geometry: "ground", Material: 9}, // outside the closed set
		},
	})
	assert.True(t, errors.Is(err, core.ErrInvalidMaterial))

	// Nothing may have been staged or registered.
	require.NoError(t, sm.AccelTableSystem().Commit())
	assert.False(t, sm.AccelTableSystem().Populated(0))
	_, err = sm.GeometrySystem().AcquireByName("ground")
	assert.Error(t, err)
	assert.Empty(t, ss.Instances())
}

func TestSceneApplyStagesSequentialSlots(t *testing.T) {
	sm, _ := newTestManager(t)
	ss := sm.SceneSystem()

	slots, err := ss.ApplyScene(&metadata.SceneConfig{
		Name: "demo",
		Geometries: []metadata.SceneGeometryConfig{
			{Name: "ground", Kind: "plane", Size: 10},
			{Name: "cube", Kind: "cube", Size: 2},
		},
		Instances: []metadata.SceneInstanceConfig{
			{Geometry: "ground", Material: uint32(metadata.MaterialGround)},
			{Geometry: "cube", Material: uint32(metadata.MaterialRedMetal), Position: []float32{1, 1, 1}, Scale: 1},
			{Geometry: "cube", Material: uint32(metadata.MaterialGreen), Position: []float32{-1, 1, 0}, Scale: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2}, slots)

	// Staged only; commit makes every binding visible at once.
	assert.False(t, sm.AccelTableSystem().Populated(0))
	require.NoError(t, sm.AccelTableSystem().Commit())
	for _, slot := range slots {
		assert.True(t, sm.AccelTableSystem().Populated(slot))
	}

	instances := ss.Instances()
	require.Len(t, instances, 3)
	assert.Equal(t, metadata.MaterialGround, instances[0].Material)
	assert.Equal(t, float32(1.0), instances[0].Scale) // zero scale defaults to one
	assert.Equal(t, metadata.MaterialGreen, instances[2].Material)
}

// Re-applying a scene file, as the hot-reload path does on every save, must
// replace the previous application: same slots, same instance count, no
// leftover bindings.
func TestSceneFileReapplyReplacesPrevious(t *testing.T) {
	sm, _ := newTestManager(t)
	ss := sm.SceneSystem()

	path := filepath.Join(t.TempDir(), "scene.toml")
	require.NoError(t, os.WriteFile(path, []byte(`name = "reload"

[[geometries]]
name = "cube"
kind = "cube"
size = 1.0

[[instances]]
geometry = "cube"
material = 1
`), 0o644))

	first, err := ss.ApplySceneFile(path)
	require.NoError(t, err)
	require.Equal(t, []uint32{0}, first)

	second, err := ss.ApplySceneFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, ss.Instances(), 1)

	require.NoError(t, sm.AccelTableSystem().Commit())
	assert.True(t, sm.AccelTableSystem().Populated(0))
	assert.False(t, sm.AccelTableSystem().Populated(1))
}

func TestSceneReapplyGrowsAndShrinksInPlace(t *testing.T) {
	sm, _ := newTestManager(t)
	ss := sm.SceneSystem()

	version := func(count int) *metadata.SceneConfig {
		config := &metadata.SceneConfig{
			Name: "editable",
			Geometries: []metadata.SceneGeometryConfig{
				{Name: "cube", Kind: "cube", Size: 1},
			},
		}
		for i := 0; i < count; i++ {
			config.Instances = append(config.Instances, metadata.SceneInstanceConfig{
				Geometry: "cube",
				Material: uint32(metadata.MaterialGreen),
			})
		}
		return config
	}

	slots, err := ss.ApplyScene(version(1))
	require.NoError(t, err)
	require.Equal(t, []uint32{0}, slots)

	// Growing reuses slot 0 and extends with fresh slots.
	slots, err = ss.ApplyScene(version(3))
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2}, slots)
	assert.Len(t, ss.Instances(), 3)

	// Shrinking keeps slot 0 and stages the leftovers empty.
	slots, err = ss.ApplyScene(version(1))
	require.NoError(t, err)
	assert.Equal(t, []uint32{0}, slots)
	assert.Len(t, ss.Instances(), 1)

	require.NoError(t, sm.AccelTableSystem().Commit())
	assert.True(t, sm.AccelTableSystem().Populated(0))
	assert.False(t, sm.AccelTableSystem().Populated(1))
	assert.False(t, sm.AccelTableSystem().Populated(2))

	// A different scene never collides with slots another name owns.
	other, err := ss.ApplyScene(&metadata.SceneConfig{
		Name: "second",
		Geometries: []metadata.SceneGeometryConfig{
			{Name: "cube", Kind: "cube", Size: 1},
		},
		Instances: []metadata.SceneInstanceConfig{
			{Geometry: "cube", Material: uint32(metadata.MaterialGround)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint32{3}, other)
	assert.Len(t, ss.Instances(), 2)
}

func TestSceneUnknownGeometryKind(t *testing.T) {
	sm, _ := newTestManager(t)

	_, err := sm.SceneSystem().ApplyScene(&metadata.SceneConfig{
		Name: "bad-kind",
		Geometries: []metadata.SceneGeometryConfig{
			{Name: "thing", Kind: "sphere", Size: 1},
		},
	})
	assert.Error(t, err)
}

// Full frame path: scene bound at slot 2 is exactly what a dispatch with
// accel_index=2 traverses, writing the image bound at output_image=0.
func TestDrawFrameRoutesDispatches(t *testing.T) {
	sm, backend := newTestManager(t)
	dispatchesBefore := core.MetricsDispatches()

	slots, err := sm.SceneSystem().ApplyScene(&metadata.SceneConfig{
		Name: "routing",
		Geometries: []metadata.SceneGeometryConfig{
			{Name: "ground", Kind: "plane", Size: 10},
			{Name: "cube", Kind: "cube", Size: 2},
		},
		Instances: []metadata.SceneInstanceConfig{
			{Geometry: "ground", Material: uint32(metadata.MaterialGround)},
			{Geometry: "cube", Material: uint32(metadata.MaterialBlueReflective)},
			{Geometry: "cube", Material: uint32(metadata.MaterialGreen)},
		},
	})
	require.NoError(t, err)
	require.Equal(t, []uint32{0, 1, 2}, slots)

	_, err = sm.BindlessImageSystem().AcquireTarget(0, "main", 64, 64)
	require.NoError(t, err)

	// DrawFrame commits the staged tables itself; descriptors can only be
	// validated afterwards, so commit here to build them up front.
	require.NoError(t, sm.AccelTableSystem().Commit())
	require.NoError(t, sm.BindlessImageSystem().Commit())

	geometry, err := sm.GeometrySystem().AcquireByName("cube")
	require.NoError(t, err)
	constants, err := sm.DispatchSystem().BuildConstants(0, 2, geometry, 0.25)
	require.NoError(t, err)

	packet := &metadata.RenderPacket{
		DeltaTime:  0.016,
		Width:      64,
		Height:     64,
		Dispatches: []*metadata.RayDispatchConstants{constants},
	}
	require.NoError(t, sm.DrawFrame(packet))

	traces := backend.Traces()
	require.Len(t, traces, 1)
	assert.Equal(t, sm.AccelTableSystem().Resolve(2), traces[0].Accel)
	assert.Equal(t, sm.BindlessImageSystem().Resolve(0), traces[0].Output)
	assert.Equal(t, dispatchesBefore+1, core.MetricsDispatches())
}
