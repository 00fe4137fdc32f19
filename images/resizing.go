package images

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ImageFormat represents supported source image formats.
type ImageFormat string

const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
)

// FormatForPath guesses the image format from a file extension.
func FormatForPath(path string) (ImageFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".png":
		return FormatPNG, nil
	default:
		return "", errors.Errorf("unsupported image extension: %s", filepath.Ext(path))
	}
}

// DecodeResize decodes an encoded image and resizes it to the given
// dimensions using OpenCV, which is considerably faster than the pure-Go
// path for large map rasters. The result is a Go-native image.Image.
//
// Arguments:
//   - data: The encoded image bytes.
//   - width: Target width.
//   - height: Target height.
//
// Returns:
//   - image.Image: The decoded, resized image.
//   - error: An error if decoding or resizing fails.
func DecodeResize(data []byte, width, height int) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image data")
	}
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid dimensions: width=%d, height=%d", width, height)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil || mat.Empty() {
		return nil, errors.Wrap(err, "failed to decode image")
	}
	defer mat.Close()

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(mat, &resized, image.Pt(width, height), 0, 0, gocv.InterpolationArea)

	img, err := resized.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert resized mat")
	}
	return img, nil
}

// Decode decodes an encoded image at its native resolution without
// OpenCV, for callers that cannot carry the cgo dependency at runtime.
//
// Arguments:
//   - data: The encoded image bytes.
//   - format: The image format of the bytes.
//
// Returns:
//   - image.Image: The decoded image.
//   - error: An error if decoding fails.
func Decode(data []byte, format ImageFormat) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image data")
	}
	switch format {
	case FormatJPEG:
		img, err := jpeg.Decode(bytes.NewReader(data))
		return img, errors.Wrap(err, "failed to decode JPEG")
	case FormatPNG:
		img, err := png.Decode(bytes.NewReader(data))
		return img, errors.Wrap(err, "failed to decode PNG")
	default:
		return nil, errors.Errorf("unsupported image format: %s", format)
	}
}
