package images

import (
	"image"
)

// MaskThreshold is the alpha value above which a mask pixel counts as
// inside the region. Model mask heads emit soft probabilities; 0.5 is
// the conventional cut.
const MaskThreshold = 0.5

// Mask is a W x H plane of float32 alpha samples in [0, 1] encoding
// per-pixel region membership. The mask's coordinate frame is
// normalized to the bounding box of the segment that owns it: mask
// pixel (0, 0) maps to the box's top-left corner and (W-1, H-1) to its
// bottom-right, regardless of the box's size in image space.
type Mask struct {
	Width  int
	Height int
	// Pix holds Width*Height alpha samples in row-major order.
	Pix []float32
}

// NewMask allocates a zeroed mask of the given dimensions. Returns nil
// for non-positive dimensions.
func NewMask(width, height int) *Mask {
	if width <= 0 || height <= 0 {
		return nil
	}
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height),
	}
}

// MaskFromAlpha extracts the alpha channel of an image into a Mask,
// scaled to [0, 1].
func MaskFromAlpha(img image.Image) *Mask {
	bounds := img.Bounds()
	m := NewMask(bounds.Dx(), bounds.Dy())
	if m == nil {
		return nil
	}
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			_, _, _, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			m.Pix[y*m.Width+x] = float32(a) / 0xffff
		}
	}
	return m
}

// At returns the alpha sample at integer pixel (x, y). Out-of-range
// coordinates are clamped to the nearest valid index, matching how
// point containment tests map image coordinates into mask space.
func (m *Mask) At(x, y int) float32 {
	if x < 0 {
		x = 0
	} else if x >= m.Width {
		x = m.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= m.Height {
		y = m.Height - 1
	}
	return m.Pix[y*m.Width+x]
}

// Set writes the alpha sample at pixel (x, y). Out-of-range writes are
// dropped.
func (m *Mask) Set(x, y int, alpha float32) {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return
	}
	m.Pix[y*m.Width+x] = alpha
}

// SampleBilinear samples the mask at normalized coordinates (u, v) in
// [0, 1] using bilinear interpolation between the four surrounding
// pixels. This is the resolution-independent lookup used when two masks
// with different dimensions are compared over a shared image region.
//
// Arguments:
//   - u, v: Normalized position inside the mask's own frame.
//
// Returns:
//   - float32: The interpolated alpha value.
func (m *Mask) SampleBilinear(u, v float32) float32 {
	fx := Clamp32(u, 0, 1) * float32(m.Width-1)
	fy := Clamp32(v, 0, 1) * float32(m.Height-1)

	x0 := int(fx)
	y0 := int(fy)
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 >= m.Width {
		x1 = m.Width - 1
	}
	if y1 >= m.Height {
		y1 = m.Height - 1
	}

	dx := fx - float32(x0)
	dy := fy - float32(y0)

	top := m.Pix[y0*m.Width+x0]*(1-dx) + m.Pix[y0*m.Width+x1]*dx
	bottom := m.Pix[y1*m.Width+x0]*(1-dx) + m.Pix[y1*m.Width+x1]*dx
	return top*(1-dy) + bottom*dy
}

// Inside reports whether the pixel at (x, y) is part of the region,
// thresholding the alpha sample at MaskThreshold.
func (m *Mask) Inside(x, y int) bool {
	return m.At(x, y) >= MaskThreshold
}

// Area counts the pixels whose alpha passes MaskThreshold.
func (m *Mask) Area() int {
	count := 0
	for _, a := range m.Pix {
		if a >= MaskThreshold {
			count++
		}
	}
	return count
}

// ResizeTo resamples the mask to the given dimensions with bilinear
// interpolation. Returns a new mask; the receiver is unchanged. Returns
// nil for non-positive target dimensions.
func (m *Mask) ResizeTo(width, height int) *Mask {
	if width <= 0 || height <= 0 {
		return nil
	}
	if width == m.Width && height == m.Height {
		out := NewMask(width, height)
		copy(out.Pix, m.Pix)
		return out
	}
	out := NewMask(width, height)
	for y := 0; y < height; y++ {
		v := float32(0)
		if height > 1 {
			v = float32(y) / float32(height-1)
		}
		for x := 0; x < width; x++ {
			u := float32(0)
			if width > 1 {
				u = float32(x) / float32(width-1)
			}
			out.Pix[y*width+x] = m.SampleBilinear(u, v)
		}
	}
	return out
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	out := NewMask(m.Width, m.Height)
	copy(out.Pix, m.Pix)
	return out
}

// Fill sets every sample to the given alpha.
func (m *Mask) Fill(alpha float32) {
	for i := range m.Pix {
		m.Pix[i] = alpha
	}
}
