package gpu

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// TextureData is a decoded image as tightly packed RGBA8 texels.
type TextureData struct {
	Width  uint32
	Height uint32
	Texels []byte
}

// BytesPerRow is the row pitch of the texel data.
func (t *TextureData) BytesPerRow() uint32 {
	return t.Width * 4
}

// DecodeTexture decodes any registered image format (png, jpeg, bmp, tiff,
// webp) into RGBA8 texels.
func DecodeTexture(r io.Reader) (*TextureData, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("gpu: decode texture: %w", err)
	}

	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	if len(rgba.Pix) == 0 {
		return nil, fmt.Errorf("gpu: decode texture: empty %s image", format)
	}

	return &TextureData{
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		Texels: rgba.Pix,
	}, nil
}

func LoadTextureFile(path string) (*TextureData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gpu: open texture: %w", err)
	}
	defer f.Close()

	return DecodeTexture(f)
}
