package headless

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/image/bmp"
)

func TestCaptureBMP(t *testing.T) {
	hr := New()
	target, err := hr.CreateRenderTarget("capture", 8, 4)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "frame.bmp")
	require.NoError(t, CaptureBMP(hr.Target(target), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := bmp.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())
}

func TestCaptureBMPNilTarget(t *testing.T) {
	assert.Error(t, CaptureBMP(nil, filepath.Join(t.TempDir(), "frame.bmp")))
}
