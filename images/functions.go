// Package images - provides high-performance, idempotent image processing operations
// optimized for machine learning preprocessing pipelines.
package images

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"runtime"
	"sync"
)

// ResampleFilter defines the resampling algorithm used for image scaling.
type ResampleFilter int

const (
	// NearestNeighborFilter uses nearest-neighbor interpolation (fastest, lowest quality).
	NearestNeighborFilter ResampleFilter = iota
	// BilinearFilter uses bilinear interpolation (fast, good quality).
	BilinearFilter
	// BicubicFilter uses bicubic interpolation (slower, better quality).
	BicubicFilter
	// LanczosFilter uses Lanczos resampling with a=3 (slowest, best quality).
	LanczosFilter
)

// kernel represents a resampling kernel function.
type kernel struct {
	// Support is the radius of the kernel in pixels.
	Support float64
	// At evaluates the kernel at distance x.
	At func(x float64) float64
}

// kernels maps each filter type to its kernel function.
var kernels = map[ResampleFilter]kernel{
	NearestNeighborFilter: {
		Support: 0.5,
		At: func(x float64) float64 {
			if math.Abs(x) < 0.5 {
				return 1.0
			}
			return 0.0
		},
	},
	BilinearFilter: {
		Support: 1.0,
		At: func(x float64) float64 {
			// Triangle function: linear falloff with distance.
			x = math.Abs(x)
			if x < 1.0 {
				return 1.0 - x
			}
			return 0.0
		},
	},
	BicubicFilter: {
		Support: 2.0,
		At: func(x float64) float64 {
			// Mitchell-Netravali cubic with B=0, C=0.5 (Catmull-Rom).
			x = math.Abs(x)
			if x < 1.0 {
				return (1.5*x-2.5)*x*x + 1.0
			}
			if x < 2.0 {
				return ((-0.5*x+2.5)*x-4.0)*x + 2.0
			}
			return 0.0
		},
	},
	LanczosFilter: {
		Support: 3.0,
		At: func(x float64) float64 {
			if x == 0.0 {
				return 1.0
			}
			x = math.Abs(x)
			if x >= 3.0 {
				return 0.0
			}
			// sinc(x) * sinc(x/3)
			pix := math.Pi * x
			return (math.Sin(pix) / pix) * (math.Sin(pix/3.0) / (pix / 3.0))
		},
	},
}

// Contribution represents a single source pixel's contribution to an
// output pixel.
type Contribution struct {
	pixel  int
	weight float64
}

// Resize performs high-quality image resizing using the specified resampling filter.
// The implementation uses separable filtering for efficiency, processing
// horizontal and vertical dimensions independently.
//
// Arguments:
//   - img: The source image to resize.
//   - width: The target width in pixels.
//   - height: The target height in pixels.
//   - filter: The resampling filter to use for interpolation.
//
// Returns:
//   - The resized image. The caller always receives a new image, even when
//     the dimensions already match.
func Resize(img image.Image, width, height int, filter ResampleFilter) image.Image {
	if width <= 0 || height <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}

	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	if srcWidth == width && srcHeight == height {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
		return dst
	}

	if filter == NearestNeighborFilter {
		return ResizeNearestNeighbor(img, width, height)
	}

	// Horizontal pass first, then vertical (separable filtering).
	intermediate := image.NewRGBA(image.Rect(0, 0, width, srcHeight))
	resizeHorizontal(img, intermediate, filter)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	resizeVertical(intermediate, dst, filter)

	return dst
}

// ResizeNearestNeighbor performs fast nearest-neighbor resizing.
//
// Arguments:
//   - src: The source image.
//   - width: Target width.
//   - height: Target height.
//
// Returns:
//   - The resized image using nearest-neighbor sampling.
func ResizeNearestNeighbor(src image.Image, width, height int) image.Image {
	bounds := src.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	dst := image.NewRGBA(image.Rect(0, 0, width, height))

	xRatio := float64(srcWidth) / float64(width)
	yRatio := float64(srcHeight) / float64(height)

	Parallel(height, func(partStart, partEnd int) {
		for y := partStart; y < partEnd; y++ {
			srcY := int(float64(y)*yRatio + 0.5)
			if srcY >= srcHeight {
				srcY = srcHeight - 1
			}
			for x := 0; x < width; x++ {
				srcX := int(float64(x)*xRatio + 0.5)
				if srcX >= srcWidth {
					srcX = srcWidth - 1
				}
				dst.Set(x, y, src.At(bounds.Min.X+srcX, bounds.Min.Y+srcY))
			}
		}
	})

	return dst
}

// contributionsFor precomputes the weighted source pixel ranges for each
// destination index along one axis.
func contributionsFor(srcSize, dstSize int, filter ResampleFilter) [][]Contribution {
	k := kernels[filter]
	scale := float64(srcSize) / float64(dstSize)

	// When downsampling the filter support expands with the scale.
	filterScale := math.Max(scale, 1.0)
	support := k.Support * filterScale

	contributions := make([][]Contribution, dstSize)
	for i := 0; i < dstSize; i++ {
		center := (float64(i) + 0.5) * scale
		left := int(math.Floor(center - support))
		right := int(math.Ceil(center + support))
		if left < 0 {
			left = 0
		}
		if right >= srcSize {
			right = srcSize - 1
		}

		var weights []Contribution
		var sum float64
		for src := left; src <= right; src++ {
			distance := math.Abs(float64(src) - center + 0.5)
			weight := k.At(distance / filterScale)
			if weight != 0 {
				weights = append(weights, Contribution{pixel: src, weight: weight})
				sum += weight
			}
		}

		// Normalize weights to sum to 1.0 to preserve brightness.
		if sum != 0 {
			for j := range weights {
				weights[j].weight /= sum
			}
		}
		contributions[i] = weights
	}
	return contributions
}

// resizeHorizontal performs the horizontal pass of separable filtering.
func resizeHorizontal(src image.Image, dst *image.RGBA, filter ResampleFilter) {
	srcBounds := src.Bounds()
	dstWidth := dst.Bounds().Dx()
	height := srcBounds.Dy()

	contributions := contributionsFor(srcBounds.Dx(), dstWidth, filter)

	Parallel(height, func(partStart, partEnd int) {
		for y := partStart; y < partEnd; y++ {
			srcY := srcBounds.Min.Y + y
			for x := 0; x < dstWidth; x++ {
				var r, g, b, a float64
				for _, c := range contributions[x] {
					srcR, srcG, srcB, srcA := src.At(srcBounds.Min.X+c.pixel, srcY).RGBA()
					r += float64(srcR>>8) * c.weight
					g += float64(srcG>>8) * c.weight
					b += float64(srcB>>8) * c.weight
					a += float64(srcA>>8) * c.weight
				}
				dst.SetRGBA(x, y, color.RGBA{
					R: uint8(Clamp(r, 0, 255) + 0.5),
					G: uint8(Clamp(g, 0, 255) + 0.5),
					B: uint8(Clamp(b, 0, 255) + 0.5),
					A: uint8(Clamp(a, 0, 255) + 0.5),
				})
			}
		}
	})
}

// resizeVertical performs the vertical pass of separable filtering.
func resizeVertical(src *image.RGBA, dst *image.RGBA, filter ResampleFilter) {
	srcBounds := src.Bounds()
	dstHeight := dst.Bounds().Dy()
	width := srcBounds.Dx()

	contributions := contributionsFor(srcBounds.Dy(), dstHeight, filter)

	Parallel(dstHeight, func(partStart, partEnd int) {
		for y := partStart; y < partEnd; y++ {
			for x := 0; x < width; x++ {
				var r, g, b, a float64
				for _, c := range contributions[y] {
					srcR, srcG, srcB, srcA := src.RGBAAt(x, c.pixel).R, src.RGBAAt(x, c.pixel).G,
						src.RGBAAt(x, c.pixel).B, src.RGBAAt(x, c.pixel).A
					r += float64(srcR) * c.weight
					g += float64(srcG) * c.weight
					b += float64(srcB) * c.weight
					a += float64(srcA) * c.weight
				}
				dst.SetRGBA(x, y, color.RGBA{
					R: uint8(Clamp(r, 0, 255) + 0.5),
					G: uint8(Clamp(g, 0, 255) + 0.5),
					B: uint8(Clamp(b, 0, 255) + 0.5),
					A: uint8(Clamp(a, 0, 255) + 0.5),
				})
			}
		}
	})
}

// Crop extracts the sub-image covered by rect, clamped to the source
// bounds. The result is a fresh RGBA image whose origin is (0, 0).
// Degenerate requests (empty after clamping) return a 1x1 transparent
// image rather than nil so downstream stages never dereference a nil
// crop.
func Crop(src image.Image, rect Rect) *image.RGBA {
	bounds := src.Bounds()
	clamped := rect.Clamp(float32(bounds.Dx()), float32(bounds.Dy()))

	x0 := int(clamped.X1)
	y0 := int(clamped.Y1)
	x1 := int(clamped.X2 + 0.5)
	y1 := int(clamped.Y2 + 0.5)
	if x1 <= x0 || y1 <= y0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}

	dst := image.NewRGBA(image.Rect(0, 0, x1-x0, y1-y0))
	draw.Draw(dst, dst.Bounds(), src, image.Pt(bounds.Min.X+x0, bounds.Min.Y+y0), draw.Src)
	return dst
}

// CompositeMaskAlpha writes a mask's alpha plane into the crop's alpha
// channel, resampling the mask when its dimensions differ from the
// crop's. RGB channels are untouched.
func CompositeMaskAlpha(crop *image.RGBA, mask *Mask) {
	if mask == nil {
		return
	}
	w := crop.Bounds().Dx()
	h := crop.Bounds().Dy()
	resized := mask
	if mask.Width != w || mask.Height != h {
		resized = mask.ResizeTo(w, h)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := crop.RGBAAt(x, y)
			c.A = uint8(Clamp(float64(resized.At(x, y))*255, 0, 255) + 0.5)
			crop.SetRGBA(x, y, c)
		}
	}
}

// Grayscale converts an image to grayscale using the standard luminance
// weights (ITU-R BT.601).
func Grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	Parallel(bounds.Dy(), func(partStart, partEnd int) {
		for y := partStart; y < partEnd; y++ {
			for x := 0; x < bounds.Dx(); x++ {
				r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				lum := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
				dst.SetGray(x, y, color.Gray{Y: uint8(Clamp(lum, 0, 255) + 0.5)})
			}
		}
	})

	return dst
}

// Clamp restricts a float64 value to the [min, max] range.
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Clamp32 restricts a float32 value to the [min, max] range.
func Clamp32(value, min, max float32) float32 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Parallel executes a function in parallel across multiple goroutines,
// partitioning [0, dataSize) by CPU count. Small inputs run serially
// since goroutine overhead dominates.
//
// Arguments:
//   - dataSize: The size of the data to process.
//   - fn: Function to execute for each partition (receives start and end indices).
func Parallel(dataSize int, fn func(partStart, partEnd int)) {
	numGoroutines := runtime.NumCPU()

	if dataSize < numGoroutines*2 {
		fn(0, dataSize)
		return
	}

	partSize := dataSize / numGoroutines

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		partStart := i * partSize
		partEnd := partStart + partSize
		if i == numGoroutines-1 {
			partEnd = dataSize
		}
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(partStart, partEnd)
	}

	wg.Wait()
}
