package loaders

import (
	"fmt"
	"os"

	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// ShaderLoader reads compiled shader binaries (SPIR-V) off disk.
type ShaderLoader struct{}

func (sl *ShaderLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	if assetType != metadata.ResourceTypeShader {
		return nil, fmt.Errorf("ShaderLoader cannot load resource type %d", assetType)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shader `%s`: %w", path, err)
	}
	return &metadata.Resource{
		Name:     path,
		FullPath: path,
		DataSize: uint64(len(data)),
		Data:     data,
	}, nil
}

func (sl *ShaderLoader) Unload(resource *metadata.Resource) error {
	resource.Data = nil
	return nil
}
