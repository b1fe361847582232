package systems

import (
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type SystemManager struct {
	renderer *renderer.Renderer

	accelTableSystem    *AccelTableSystem
	bindlessImageSystem *BindlessImageSystem
	geometrySystem      *GeometrySystem
	dispatchSystem      *DispatchSystem
	sceneSystem         *SceneSystem
}

func NewSystemManager(r *renderer.Renderer) (*SystemManager, error) {
	ats, err := NewAccelTableSystem(&AccelTableSystemConfig{
		InitialLength: 16,
	}, r)
	if err != nil {
		return nil, err
	}
	bis, err := NewBindlessImageSystem(&BindlessImageSystemConfig{
		InitialLength: 16,
	}, r)
	if err != nil {
		return nil, err
	}
	gs, err := NewGeometrySystem(&GeometrySystemConfig{
		MaxGeometryCount: 1000,
	}, r)
	if err != nil {
		return nil, err
	}
	ds, err := NewDispatchSystem(r, ats, bis)
	if err != nil {
		return nil, err
	}
	ss, err := NewSceneSystem(r, gs, ats)
	if err != nil {
		return nil, err
	}
	return &SystemManager{
		renderer:            r,
		accelTableSystem:    ats,
		bindlessImageSystem: bis,
		geometrySystem:      gs,
		dispatchSystem:      ds,
		sceneSystem:         ss,
	}, nil
}

func (sm *SystemManager) Renderer() *renderer.Renderer {
	return sm.renderer
}

func (sm *SystemManager) AccelTableSystem() *AccelTableSystem {
	return sm.accelTableSystem
}

func (sm *SystemManager) BindlessImageSystem() *BindlessImageSystem {
	return sm.bindlessImageSystem
}

func (sm *SystemManager) GeometrySystem() *GeometrySystem {
	return sm.geometrySystem
}

func (sm *SystemManager) DispatchSystem() *DispatchSystem {
	return sm.dispatchSystem
}

func (sm *SystemManager) SceneSystem() *SceneSystem {
	return sm.sceneSystem
}

// DrawFrame renders one packet. Table commits run strictly before the frame
// begins; every dispatch of the frame then sees the same committed tables.
func (sm *SystemManager) DrawFrame(packet *metadata.RenderPacket) error {
	if err := sm.accelTableSystem.Commit(); err != nil {
		return err
	}
	if err := sm.bindlessImageSystem.Commit(); err != nil {
		return err
	}

	if err := sm.renderer.BeginFrame(packet.DeltaTime); err != nil {
		return err
	}
	for _, constants := range packet.Dispatches {
		if err := sm.dispatchSystem.Dispatch(constants, packet.Width, packet.Height); err != nil {
			return err
		}
	}
	return sm.renderer.EndFrame(packet.DeltaTime)
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.sceneSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.dispatchSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.geometrySystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.bindlessImageSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.accelTableSystem.Shutdown(); err != nil {
		return err
	}
	return nil
}
