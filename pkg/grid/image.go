package grid

import (
	"image"
	"image/color"
)

// ImageOptions controls how image pixels become depth samples.
type ImageOptions struct {
	// ZeroIsMissing maps a raw pixel value of zero to Missing.
	ZeroIsMissing bool
	// Scale multiplies the normalized [0,1] depth. Zero means 1.
	Scale float32
}

// Image samples a decoded single-channel image. 8-bit pixels normalize by
// 255 and 16-bit pixels by 65535; other color models are converted to
// 16-bit gray first.
type Image struct {
	img  image.Image
	opts ImageOptions
}

var _ Grid = (*Image)(nil)

// FromImage wraps img as a depth grid. The image is sampled lazily and
// must not change during a conversion.
func FromImage(img image.Image, opts ImageOptions) *Image {
	if opts.Scale == 0 {
		opts.Scale = 1
	}
	return &Image{img: img, opts: opts}
}

func (g *Image) Width() int  { return g.img.Bounds().Dx() }
func (g *Image) Height() int { return g.img.Bounds().Dy() }

func (g *Image) Depth(x, y int) (float32, error) {
	b := g.img.Bounds()
	if err := checkRange(x, y, b.Dx(), b.Dy()); err != nil {
		return 0, err
	}
	px, py := b.Min.X+x, b.Min.Y+y

	var raw, full float32
	switch src := g.img.(type) {
	case *image.Gray:
		raw, full = float32(src.GrayAt(px, py).Y), 255
	case *image.Gray16:
		raw, full = float32(src.Gray16At(px, py).Y), 65535
	default:
		c := color.Gray16Model.Convert(src.At(px, py)).(color.Gray16)
		raw, full = float32(c.Y), 65535
	}

	if raw == 0 && g.opts.ZeroIsMissing {
		return Missing, nil
	}
	return raw / full * g.opts.Scale, nil
}
