package headless

import (
	"fmt"
	"image"
	"os"

	"golang.org/x/image/bmp"
)

// CaptureBMP writes the current contents of a render target to disk as a
// BMP, the readback path for headless runs.
func CaptureBMP(target *RenderTarget, path string) error {
	if target == nil {
		return fmt.Errorf("no render target to capture")
	}
	img := image.NewRGBA(image.Rect(0, 0, int(target.Width), int(target.Height)))
	copy(img.Pix, target.Pixels)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := bmp.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode `%s`: %w", path, err)
	}
	return nil
}
