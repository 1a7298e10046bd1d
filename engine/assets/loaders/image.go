package loaders

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/engine/renderer/metadata"
)

/**
 * @brief Decodes png, jpeg, bmp, tiff and webp files into tightly packed
 * RGBA8 pixels.
 */
type ImageLoader struct{}

func (il *ImageLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	flip := false
	if p, ok := params.(*metadata.ImageResourceParams); ok && p != nil {
		flip = p.FlipY
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, core.WrapAssetLoad(err, "failed to open image `%s`", path)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, core.WrapAssetLoad(err, "failed to decode image `%s`", path)
	}
	data := ToRGBA(img, flip)
	if data.Width == 0 || data.Height == 0 {
		return nil, core.AssetLoadErrorf("image `%s` has no pixels", path)
	}
	core.LogDebug("decoded %s image `%s` (%dx%d)", format, path, data.Width, data.Height)

	return &metadata.Resource{
		Name:     "image",
		FullPath: path,
		DataSize: uint64(len(data.Pixels)),
		Data:     data,
	}, nil
}

// ToRGBA converts any decoded image into RGBA8 rows, top to bottom unless flip is set.
func ToRGBA(img image.Image, flip bool) *metadata.ImageResourceData {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	pixels := rgba.Pix
	if flip {
		stride := rgba.Stride
		h := rgba.Bounds().Dy()
		flipped := make([]uint8, len(pixels))
		for y := 0; y < h; y++ {
			copy(flipped[y*stride:(y+1)*stride], pixels[(h-1-y)*stride:(h-y)*stride])
		}
		pixels = flipped
	}

	return &metadata.ImageResourceData{
		ChannelCount: 4,
		Width:        uint32(b.Dx()),
		Height:       uint32(b.Dy()),
		Pixels:       pixels,
	}
}
