package inference

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// PrepareInput converts an image into an NCHW float32 tensor for model
// input, resizing to the target dimensions with Lanczos3.
//
// Arguments:
//   - img: The image to prepare.
//   - width: Model input width in pixels.
//   - height: Model input height in pixels.
//
// Returns:
//   - *tensor.Dense: A [1, 3, height, width] buffer with channels
//     normalized to [0, 1].
//   - error: An error if the target dimensions are invalid.
func PrepareInput(img image.Image, width, height int) (*tensor.Dense, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid input dimensions %dx%d", width, height)
	}

	channelSize := width * height
	data := make([]float32, channelSize*3)
	red := data[0:channelSize]
	green := data[channelSize : channelSize*2]
	blue := data[channelSize*2 : channelSize*3]

	img = resize.Resize(uint(width), uint(height), img, resize.Lanczos3)

	i := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			red[i] = float32(r>>8) / 255.0
			green[i] = float32(g>>8) / 255.0
			blue[i] = float32(b>>8) / 255.0
			i++
		}
	}

	return tensor.New(
		tensor.WithShape(1, 3, height, width),
		tensor.WithBacking(data),
	), nil
}
