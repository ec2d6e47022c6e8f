package imgproc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NguyenNhat4/color-booking-app-backend/internal/domain"
)

func rect(a, b domain.Point) domain.RegionDescriptor {
	return domain.RegionDescriptor{
		Type:        domain.RegionRectangle,
		Coordinates: []domain.Point{a, b},
	}
}

func polygon(pts ...domain.Point) domain.RegionDescriptor {
	return domain.RegionDescriptor{Type: domain.RegionPolygon, Coordinates: pts}
}

func TestRasterizeRectangle(t *testing.T) {
	mask, err := RasterizeRegion(rect(domain.Point{X: 2, Y: 3}, domain.Point{X: 7, Y: 9}), 10, 12)
	require.NoError(t, err)

	assert.Equal(t, uint8(0xFF), mask.AlphaAt(2, 3).A)
	assert.Equal(t, uint8(0xFF), mask.AlphaAt(6, 8).A)
	assert.Equal(t, uint8(0), mask.AlphaAt(7, 9).A) // exclusive max edge
	assert.Equal(t, uint8(0), mask.AlphaAt(0, 0).A)
	assert.Equal(t, uint8(0), mask.AlphaAt(9, 11).A)
}

func TestRasterizeRectangleCornerOrderInvariant(t *testing.T) {
	a := domain.Point{X: 1, Y: 2}
	b := domain.Point{X: 8, Y: 6}

	m1, err := RasterizeRegion(rect(a, b), 10, 10)
	require.NoError(t, err)
	m2, err := RasterizeRegion(rect(b, a), 10, 10)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(m1.Pix, m2.Pix))
}

func TestRasterizeRectangleClipsToCanvas(t *testing.T) {
	mask, err := RasterizeRegion(rect(domain.Point{X: -5, Y: -5}, domain.Point{X: 100, Y: 100}), 8, 8)
	require.NoError(t, err)

	for _, p := range mask.Pix {
		assert.Equal(t, uint8(0xFF), p)
	}
}

func TestRasterizePolygonTriangle(t *testing.T) {
	mask, err := RasterizeRegion(polygon(
		domain.Point{X: 0, Y: 0},
		domain.Point{X: 10, Y: 0},
		domain.Point{X: 0, Y: 10},
	), 10, 10)
	require.NoError(t, err)

	assert.Equal(t, uint8(0xFF), mask.AlphaAt(1, 1).A)
	assert.Equal(t, uint8(0xFF), mask.AlphaAt(2, 2).A)
	assert.Equal(t, uint8(0), mask.AlphaAt(9, 9).A)
	assert.Equal(t, uint8(0), mask.AlphaAt(8, 8).A)
}

func TestRasterizePolygonImplicitClose(t *testing.T) {
	// Pixel-aligned square given without repeating the first point.
	mask, err := RasterizeRegion(polygon(
		domain.Point{X: 2, Y: 2},
		domain.Point{X: 8, Y: 2},
		domain.Point{X: 8, Y: 8},
		domain.Point{X: 2, Y: 8},
	), 10, 10)
	require.NoError(t, err)

	assert.Equal(t, uint8(0xFF), mask.AlphaAt(4, 4).A)
	assert.Equal(t, uint8(0xFF), mask.AlphaAt(2, 2).A)
	assert.Equal(t, uint8(0), mask.AlphaAt(0, 0).A)
	assert.Equal(t, uint8(0), mask.AlphaAt(9, 5).A)
}

func TestRasterizeDegeneratePolygonIsEmpty(t *testing.T) {
	// Collinear points span zero area: a silent no-op region, not an error.
	mask, err := RasterizeRegion(polygon(
		domain.Point{X: 1, Y: 1},
		domain.Point{X: 5, Y: 5},
		domain.Point{X: 9, Y: 9},
	), 12, 12)
	require.NoError(t, err)

	assert.True(t, MaskEmpty(mask))
}

func TestRasterizePolygonOutsideCanvasIsEmpty(t *testing.T) {
	mask, err := RasterizeRegion(polygon(
		domain.Point{X: 100, Y: 100},
		domain.Point{X: 120, Y: 100},
		domain.Point{X: 110, Y: 120},
	), 10, 10)
	require.NoError(t, err)

	assert.True(t, MaskEmpty(mask))
}

func TestRasterizeRejectsBadRegions(t *testing.T) {
	tests := []struct {
		name   string
		region domain.RegionDescriptor
	}{
		{"polygon with 2 points", polygon(domain.Point{X: 1, Y: 1}, domain.Point{X: 5, Y: 5})},
		{"rectangle with 3 points", domain.RegionDescriptor{
			Type:        domain.RegionRectangle,
			Coordinates: []domain.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}},
		}},
		{"unknown type", domain.RegionDescriptor{
			Type:        "circle",
			Coordinates: []domain.Point{{X: 0, Y: 0}, {X: 5, Y: 5}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RasterizeRegion(tt.region, 10, 10)
			assert.True(t, domain.IsKind(err, domain.KindInvalidRegion))
		})
	}
}
