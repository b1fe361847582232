package loaders

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// SceneLoader parses TOML scene descriptions.
type SceneLoader struct{}

func (sl *SceneLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	if assetType != metadata.ResourceTypeScene {
		return nil, fmt.Errorf("SceneLoader cannot load resource type %d", assetType)
	}
	config, err := LoadScene(path)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Name:     config.Name,
		FullPath: path,
		Data:     config,
	}, nil
}

func (sl *SceneLoader) Unload(resource *metadata.Resource) error {
	resource.Data = nil
	return nil
}

// LoadScene parses a TOML scene file into a SceneConfig.
func LoadScene(path string) (*metadata.SceneConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file `%s`: %w", path, err)
	}
	config := &metadata.SceneConfig{}
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse scene file `%s`: %w", path, err)
	}
	if config.Name == "" {
		return nil, fmt.Errorf("scene file `%s` has no name", path)
	}
	return config, nil
}
