package imgproc

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
	"strings"

	"github.com/NguyenNhat4/color-booking-app-backend/internal/domain"
)

// ParseHexColor parses a 6-hex-digit color code with an optional leading
// "#". Anything else is rejected.
func ParseHexColor(code string) (color.NRGBA, error) {
	s := strings.TrimPrefix(code, "#")
	if len(s) != 6 {
		return color.NRGBA{}, domain.Ef(domain.KindInvalidColorCode, "color.parse",
			"color code %q must have exactly 6 hex digits", code)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, domain.Ef(domain.KindInvalidColorCode, "color.parse",
			"color code %q is not valid hex", code)
	}
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xFF,
	}, nil
}

// Composite blends the target color over base through the mask. Blending
// is straight (non-premultiplied) alpha, linear per channel:
//
//	out = base*(1-a) + color*a
//
// where a = round(255*opacity), scaled by the mask's per-pixel coverage.
// All arithmetic is integer with round-to-nearest, so identical inputs
// produce bit-identical output. The result is flattened to opaque RGB;
// no alpha channel survives.
func Composite(base image.Image, mask *image.Alpha, target color.NRGBA, opacity float64) (*image.NRGBA, error) {
	if opacity < 0 || opacity > 1 {
		return nil, domain.Ef(domain.KindInvalidArgument, "composite",
			"opacity %v outside [0,1]", opacity)
	}

	w, h := base.Bounds().Dx(), base.Bounds().Dy()
	if mask.Bounds().Dx() != w || mask.Bounds().Dy() != h {
		return nil, domain.Ef(domain.KindInvalidArgument, "composite",
			"mask %dx%d does not match canvas %dx%d",
			mask.Bounds().Dx(), mask.Bounds().Dy(), w, h)
	}

	// Straight-alpha working buffer anchored at the origin.
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), base, base.Bounds().Min, draw.Src)

	alpha := uint32(math.Round(255 * opacity))
	tr, tg, tb := uint32(target.R), uint32(target.G), uint32(target.B)

	for y := 0; y < h; y++ {
		mi := y * mask.Stride
		oi := y * out.Stride
		for x := 0; x < w; x++ {
			e := (alpha*uint32(mask.Pix[mi+x]) + 127) / 255
			p := out.Pix[oi+x*4 : oi+x*4+4 : oi+x*4+4]
			if e != 0 {
				p[0] = blendChannel(uint32(p[0]), tr, e)
				p[1] = blendChannel(uint32(p[1]), tg, e)
				p[2] = blendChannel(uint32(p[2]), tb, e)
			}
			p[3] = 0xFF
		}
	}
	return out, nil
}

func blendChannel(base, target, alpha uint32) uint8 {
	return uint8((base*(255-alpha) + target*alpha + 127) / 255)
}
