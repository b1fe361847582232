package engine

import (
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/systems"
)

type ApplicationConfig struct {
	Name        string
	StartPosX   uint32
	StartPosY   uint32
	StartWidth  uint32
	StartHeight uint32
	LogLevel    core.LogLevel
	// Which renderer backend to drive. Headless runs without a device.
	RendererType renderer.RendererType
	// Directory the asset manager indexes and watches.
	AssetsDir string
}

type Game struct {
	ApplicationConfig *ApplicationConfig
	SystemManager     *systems.SystemManager
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnOnResize        OnResize
}

type Initialize func() error
type Update func(deltaTime float64) error
type Render func(packet *metadata.RenderPacket, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
