package loaders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

const sceneTOML = `name = "demo"

[[geometries]]
name = "ground"
kind = "plane"
size = 50.0

[[geometries]]
name = "cube"
kind = "cube"
size = 2.0

[[instances]]
geometry = "ground"
material = 0

[[instances]]
geometry = "cube"
material = 2
position = [1.0, 1.0, -3.0]
scale = 1.5
`

func writeScene(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScene(t *testing.T) {
	config, err := LoadScene(writeScene(t, sceneTOML))
	require.NoError(t, err)

	assert.Equal(t, "demo", config.Name)
	require.Len(t, config.Geometries, 2)
	assert.Equal(t, "plane", config.Geometries[0].Kind)
	assert.Equal(t, float32(50.0), config.Geometries[0].Size)

	require.Len(t, config.Instances, 2)
	assert.Equal(t, uint32(2), config.Instances[1].Material)
	assert.Equal(t, []float32{1.0, 1.0, -3.0}, config.Instances[1].Position)
	assert.Equal(t, float32(1.5), config.Instances[1].Scale)
}

func TestLoadSceneRejectsUnnamed(t *testing.T) {
	_, err := LoadScene(writeScene(t, `[[geometries]]
name = "cube"
kind = "cube"
size = 1.0
`))
	assert.Error(t, err)
}

func TestLoadSceneMissingFile(t *testing.T) {
	_, err := LoadScene(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestSceneLoaderResource(t *testing.T) {
	path := writeScene(t, sceneTOML)
	loader := &SceneLoader{}

	resource, err := loader.Load(path, metadata.ResourceTypeScene, nil)
	require.NoError(t, err)
	assert.Equal(t, "demo", resource.Name)
	assert.Equal(t, path, resource.FullPath)
	_, ok := resource.Data.(*metadata.SceneConfig)
	assert.True(t, ok)

	require.NoError(t, loader.Unload(resource))
	assert.Nil(t, resource.Data)

	_, err = loader.Load(path, metadata.ResourceTypeShader, nil)
	assert.Error(t, err)
}
