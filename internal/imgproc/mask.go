package imgproc

import (
	"image"
	"image/draw"

	"golang.org/x/image/vector"

	"github.com/NguyenNhat4/color-booking-app-backend/internal/domain"
)

// RasterizeRegion converts a region descriptor into an alpha mask the size
// of the target canvas. Interior pixels carry full coverage (255); pixels
// crossed by a slanted polygon edge carry the rasterizer's partial
// coverage. Geometry outside the canvas clips: it contributes nothing and
// is not an error. A degenerate (zero-area) polygon yields an all-zero
// mask, a silent no-op region.
func RasterizeRegion(region domain.RegionDescriptor, width, height int) (*image.Alpha, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, domain.Ef(domain.KindInvalidArgument, "mask.rasterize",
			"canvas %dx%d is empty", width, height)
	}

	mask := image.NewAlpha(image.Rect(0, 0, width, height))
	switch region.Type {
	case domain.RegionRectangle:
		fillRectangle(mask, region.Coordinates[0], region.Coordinates[1])
	case domain.RegionPolygon:
		fillPolygon(mask, region.Coordinates)
	}
	return mask, nil
}

// fillRectangle fills the axis-aligned box spanned by two opposite
// corners. Min/max of each axis is taken, so corner order does not matter.
func fillRectangle(mask *image.Alpha, a, b domain.Point) {
	x0, x1 := minMax(a.X, b.X)
	y0, y1 := minMax(a.Y, b.Y)

	r := image.Rect(x0, y0, x1, y1).Intersect(mask.Bounds())
	if r.Empty() {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := mask.Pix[y*mask.Stride+r.Min.X : y*mask.Stride+r.Max.X]
		for i := range row {
			row[i] = 0xFF
		}
	}
}

// fillPolygon rasterizes the closed point list with the nonzero winding
// rule. The path from the last point back to the first is implicit.
func fillPolygon(mask *image.Alpha, pts []domain.Point) {
	r := vector.NewRasterizer(mask.Bounds().Dx(), mask.Bounds().Dy())
	r.DrawOp = draw.Src

	r.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		r.LineTo(float32(p.X), float32(p.Y))
	}
	r.ClosePath()
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
}

// MaskEmpty reports whether no pixel of the mask carries any coverage.
func MaskEmpty(mask *image.Alpha) bool {
	for _, p := range mask.Pix {
		if p != 0 {
			return false
		}
	}
	return true
}

func minMax(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
