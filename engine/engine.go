package engine

import (
	"fmt"
	"os"

	"github.com/spaghettifunk/lumen/engine/assets"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/platform"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	isRunning     bool
	isSuspended   bool
	platform      *platform.Platform
	renderer      *renderer.Renderer
	assetManager  *assets.AssetManager
	systemManager *systems.SystemManager
	width         uint32
	height        uint32
	clock         *core.Clock
	lastTime      float64
}

func New(g *Game) (*Engine, error) {
	core.SetLogLevel(g.ApplicationConfig.LogLevel)

	p, err := platform.New()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	r, err := renderer.New(g.ApplicationConfig.RendererType, p)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	sm, err := systems.NewSystemManager(r)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	g.SystemManager = sm

	return &Engine{
		currentStage:  EngineStageUninitialized,
		gameInstance:  g,
		clock:         core.NewClock(),
		platform:      p,
		renderer:      r,
		assetManager:  am,
		systemManager: sm,
		isRunning:     true,
		isSuspended:   false,
		width:         g.ApplicationConfig.StartWidth,
		height:        g.ApplicationConfig.StartHeight,
		lastTime:      0,
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	// initialize events
	if !core.EventSystemInitialize() {
		return fmt.Errorf("failed to initialize the event system")
	}
	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	// register some events
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e.onEvent)
	core.EventRegister(core.EVENT_CODE_RESIZED, e.onResized)
	core.EventRegister(core.EVENT_CODE_ACCEL_TABLE_RESIZED, e.onTableResized)

	// The headless backend needs neither a window nor a device.
	if e.gameInstance.ApplicationConfig.RendererType == renderer.Vulkan {
		if err := e.platform.Startup(e.gameInstance.ApplicationConfig.Name,
			e.gameInstance.ApplicationConfig.StartPosX,
			e.gameInstance.ApplicationConfig.StartPosY,
			e.gameInstance.ApplicationConfig.StartWidth,
			e.gameInstance.ApplicationConfig.StartHeight); err != nil {
			return err
		}
	}

	if err := e.renderer.Initialize(e.gameInstance.ApplicationConfig.Name, e.width, e.height); err != nil {
		return err
	}

	// initialize subsystems
	assetsDir := e.gameInstance.ApplicationConfig.AssetsDir
	if assetsDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		assetsDir = fmt.Sprintf("%s/assets", wd)
	}
	if err := e.assetManager.Initialize(assetsDir); err != nil {
		return err
	}

	if err := e.gameInstance.FnInitialize(); err != nil {
		return err
	}

	if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
		return err
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning

	e.clock.Start()
	e.clock.Update()

	e.lastTime = e.clock.Elapsed()

	// start goroutine to process all the events around the engine
	go core.ProcessEvents()

	for e.isRunning {
		if e.gameInstance.ApplicationConfig.RendererType == renderer.Vulkan {
			e.platform.PumpMessages()
		}

		if !e.isSuspended {
			// Update clock and get delta time.
			e.clock.Update()

			var currentTime float64 = e.clock.Elapsed()
			var delta float64 = (currentTime - e.lastTime)

			if err := e.gameInstance.FnUpdate(delta); err != nil {
				core.LogFatal("Game update failed, shutting down.")
				e.isRunning = false
				break
			}

			packet := &metadata.RenderPacket{
				DeltaTime: delta,
				Width:     e.width,
				Height:    e.height,
			}

			// The game fills the packet with its dispatch descriptors.
			if err := e.gameInstance.FnRender(packet, delta); err != nil {
				core.LogFatal("Game render failed, shutting down.")
				e.isRunning = false
				break
			}

			if err := e.systemManager.DrawFrame(packet); err != nil {
				core.LogError("frame draw failed: %s", err.Error())
				e.isRunning = false
				break
			}

			core.MetricsUpdate(delta)

			// Update last time
			e.lastTime = currentTime
		}
	}

	return nil
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	e.isRunning = false

	if err := e.assetManager.Shutdown(); err != nil {
		return err
	}
	if err := e.systemManager.Shutdown(); err != nil {
		return err
	}
	if err := e.renderer.Shutdown(); err != nil {
		return err
	}
	if err := core.EventSystemShutdown(); err != nil {
		return err
	}
	if e.gameInstance.ApplicationConfig.RendererType == renderer.Vulkan {
		if err := e.platform.Shutdown(); err != nil {
			return err
		}
	}
	return nil
}

// GetFramebufferSize returns the width and height (in this order)
// of the application Framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onEvent(context core.EventContext) {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		{
			core.LogInfo("EVENT_CODE_APPLICATION_QUIT recieved, shutting down.")
			e.isRunning = false
		}
	}
}

func (e *Engine) onTableResized(context core.EventContext) {
	te, ok := context.Data.(*core.TableResizedEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}
	core.LogDebug("acceleration table resized: %d -> %d slots", te.OldLength, te.NewLength)
}

func (e *Engine) onResized(context core.EventContext) {
	if context.Type == core.EVENT_CODE_RESIZED {
		se, ok := context.Data.(core.SystemEvent)
		if !ok {
			core.LogError("wrong event associated with the event type `%d`", context.Type)
			return
		}

		width := se.WindowWidth
		height := se.WindowHeight

		// Check if different. If so, trigger a resize event.
		if width != e.width || height != e.height {
			e.width = width
			e.height = height

			core.LogDebug("Window resize: %d, %d", width, height)

			// Handle minimization
			if width == 0 || height == 0 {
				core.LogInfo("Window minimized, suspending application.")
				e.isSuspended = true
				return
			}
			if e.isSuspended {
				core.LogInfo("Window restored, resuming application.")
				e.isSuspended = false
			}
			e.gameInstance.FnOnResize(width, height)
			if err := e.renderer.OnResize(uint16(width), uint16(height)); err != nil {
				core.LogError(err.Error())
			}
		}
	}
}
