package pipeline

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/mapscene-ai/go-scene/images"
	"github.com/mapscene-ai/go-scene/regions"
)

// maskCoefficientsKey is the detection metadata key the decoder stores
// per-candidate mask coefficients under.
const maskCoefficientsKey = "mask_coefficients"

// MaterializeMasks attaches pixel masks to segments whose detections
// carry mask coefficients, using the model's prototype buffer.
//
// The prototype tensor is expected in [1, P, mh, mw] layout where P is
// the coefficient count; each output pixel is the sigmoid of the
// coefficient-weighted prototype sum, cropped to the segment's box in
// the prototype's downscaled frame. Segments without coefficients are
// left untouched.
//
// Arguments:
//   - segments: The segments to attach masks to, boxes in image pixels.
//   - protos: The prototype buffer, or nil to skip materialization.
//   - imageWidth: Source image width in pixels.
//   - imageHeight: Source image height in pixels.
//
// Returns:
//   - error: An error if the prototype buffer has an unusable shape.
func MaterializeMasks(segments []*regions.Segment, protos *tensor.Dense, imageWidth, imageHeight int) error {
	if protos == nil || len(segments) == 0 {
		return nil
	}

	shape := protos.Shape()
	if len(shape) != 4 || shape[0] != 1 {
		return errors.Errorf("expected prototype shape [1,P,h,w], got %v", shape)
	}
	data, ok := protos.Data().([]float32)
	if !ok {
		return errors.New("prototype buffer must hold float32 data")
	}

	protoCount, protoH, protoW := shape[1], shape[2], shape[3]
	planeSize := protoH * protoW

	for _, seg := range segments {
		coeffs := coefficientsOf(seg)
		if coeffs == nil {
			continue
		}
		if len(coeffs) != protoCount {
			return errors.Errorf(
				"coefficient count %d does not match prototype count %d",
				len(coeffs), protoCount,
			)
		}
		seg.Mask = renderMask(seg.Box, coeffs, data, protoW, protoH, planeSize, imageWidth, imageHeight)
	}
	return nil
}

// coefficientsOf pulls the decoder's mask coefficients out of a
// segment's detection metadata.
func coefficientsOf(seg *regions.Segment) []float32 {
	if seg == nil || seg.Detection.Metadata == nil {
		return nil
	}
	coeffs, _ := seg.Detection.Metadata[maskCoefficientsKey].([]float32)
	return coeffs
}

// renderMask evaluates the prototype combination over the segment box.
// The mask frame matches the box at prototype resolution, clamped to at
// least one pixel per axis.
func renderMask(
	box images.Rect,
	coeffs []float32,
	protoData []float32,
	protoW, protoH, planeSize int,
	imageWidth, imageHeight int,
) *images.Mask {
	scaleX := float32(protoW) / float32(imageWidth)
	scaleY := float32(protoH) / float32(imageHeight)

	maskW := int(box.Width() * scaleX)
	maskH := int(box.Height() * scaleY)
	if maskW < 1 {
		maskW = 1
	}
	if maskH < 1 {
		maskH = 1
	}

	originX := box.X1 * scaleX
	originY := box.Y1 * scaleY

	mask := images.NewMask(maskW, maskH)
	for y := 0; y < maskH; y++ {
		py := int(originY) + y
		if py < 0 {
			py = 0
		}
		if py >= protoH {
			py = protoH - 1
		}
		for x := 0; x < maskW; x++ {
			px := int(originX) + x
			if px < 0 {
				px = 0
			}
			if px >= protoW {
				px = protoW - 1
			}

			var sum float32
			for p, c := range coeffs {
				sum += c * protoData[p*planeSize+py*protoW+px]
			}
			mask.Set(x, y, sigmoid(sum))
		}
	}
	return mask
}

func sigmoid(v float32) float32 {
	return 1 / (1 + math32.Exp(-v))
}
