package testbed

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/headless"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

const outputImageSlot uint32 = 0

type TestGame struct {
	*engine.Game
}

type gameState struct {
	width  uint32
	height uint32

	// Elapsed session time fed into the dispatch descriptors.
	elapsed float64

	// Table slot and geometry of every scene instance, in dispatch order.
	slots      []uint32
	geometries []*metadata.Geometry

	captured bool
}

func NewTestGame() (*TestGame, error) {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				StartPosX:    100,
				StartPosY:    100,
				StartWidth:   1280,
				StartHeight:  720,
				Name:         "Lumen Ray Tracer",
				LogLevel:     core.LogLevelDebug,
				RendererType: renderer.Headless,
				AssetsDir:    "assets",
			},
			State: &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize

	return tg, nil
}

// demoScene scatters a handful of cubes over a ground plane. Every material
// comes from the closed identifier set.
func demoScene() *metadata.SceneConfig {
	config := &metadata.SceneConfig{
		Name: "demo",
		Geometries: []metadata.SceneGeometryConfig{
			{Name: "ground", Kind: "plane", Size: 50.0},
			{Name: "cube", Kind: "cube", Size: 2.0},
		},
		Instances: []metadata.SceneInstanceConfig{
			{Geometry: "ground", Material: uint32(metadata.MaterialGround), Position: []float32{0, 0, 0}, Scale: 1.0},
		},
	}
	materials := []metadata.MaterialID{
		metadata.MaterialRedMetal,
		metadata.MaterialBlueReflective,
		metadata.MaterialGreen,
	}
	for i, material := range materials {
		config.Instances = append(config.Instances, metadata.SceneInstanceConfig{
			Geometry: "cube",
			Material: uint32(material),
			Position: []float32{
				math.FRandomInRange(-10.0, 10.0),
				float32(i) + 1.0,
				math.FRandomInRange(-10.0, 10.0),
			},
			Scale: math.FRandomInRange(0.5, 2.0),
		})
	}
	return config
}

func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")

	if g.SystemManager == nil {
		return fmt.Errorf("the engine is not yet initialized with all the system managers")
	}

	state := g.State.(*gameState)
	state.width = g.ApplicationConfig.StartWidth
	state.height = g.ApplicationConfig.StartHeight

	slots, err := g.SystemManager.SceneSystem().ApplyScene(demoScene())
	if err != nil {
		return err
	}
	state.slots = slots

	for _, instance := range g.SystemManager.SceneSystem().Instances() {
		geometry, err := g.SystemManager.GeometrySystem().AcquireByName(instance.GeometryName)
		if err != nil {
			return err
		}
		state.geometries = append(state.geometries, geometry)
	}

	if _, err := g.SystemManager.BindlessImageSystem().AcquireTarget(outputImageSlot, "main-target", state.width, state.height); err != nil {
		return err
	}

	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	state.elapsed += deltaTime
	return nil
}

func (g *TestGame) Render(packet *metadata.RenderPacket, deltaTime float64) error {
	state := g.State.(*gameState)

	packet.Width = state.width
	packet.Height = state.height

	// One dispatch per instance; all of them write the same output image and
	// share the session time.
	for i, slot := range state.slots {
		constants, err := g.SystemManager.DispatchSystem().BuildConstants(outputImageSlot, slot, state.geometries[i], float32(state.elapsed))
		if err != nil {
			return err
		}
		packet.Dispatches = append(packet.Dispatches, constants)
	}

	// Grab one frame to disk once the scene has animated a little.
	if !state.captured && state.elapsed > 1.0 {
		state.captured = true
		g.captureFrame()
	}

	return nil
}

func (g *TestGame) captureFrame() {
	backend, ok := g.SystemManager.Renderer().Backend().(*headless.HeadlessRenderer)
	if !ok {
		return
	}
	handle := g.SystemManager.BindlessImageSystem().Resolve(outputImageSlot)
	target := backend.Target(handle)
	if target == nil {
		core.LogError("frame capture failed: no target bound at slot %d", outputImageSlot)
		return
	}
	if err := headless.CaptureBMP(target, "capture.bmp"); err != nil {
		core.LogError("frame capture failed: %s", err.Error())
		return
	}
	core.LogInfo("captured frame to capture.bmp after %d dispatches", core.MetricsDispatches())
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.State.(*gameState)

	state.width = width
	state.height = height

	return nil
}
