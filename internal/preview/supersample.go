package preview

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample scales a premultiplied render to size×size with CatmullRom
// and returns it unpremultiplied. Scaling premultiplied pixels keeps
// transparent edges from bleeding dark halos.
func Downsample(src *image.RGBA, size int) *image.NRGBA {
	b := src.Bounds()
	if b.Dx() != size || b.Dy() != size {
		dst := image.NewRGBA(image.Rect(0, 0, size, size))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		src = dst
	}
	return unpremultiply(src)
}

func unpremultiply(src *image.RGBA) *image.NRGBA {
	b := src.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			si, di := src.PixOffset(x, y), out.PixOffset(x, y)
			a := src.Pix[si+3]
			out.Pix[di+3] = a
			if a == 0 {
				continue
			}
			for k := 0; k < 3; k++ {
				out.Pix[di+k] = clamp8(float64(src.Pix[si+k]) * 255 / float64(a))
			}
		}
	}
	return out
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
