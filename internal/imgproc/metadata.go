package imgproc

import (
	"bytes"
	"image"

	"github.com/NguyenNhat4/color-booking-app-backend/internal/domain"
)

// Metadata describes a stored image without loading its pixel data.
type Metadata struct {
	Width     int
	Height    int
	Format    string
	SizeBytes int64
}

// ExtractMetadata decodes just the header of a stored object. It is the
// backstop that catches uploads which passed the extension check but are
// not actually valid images.
func ExtractMetadata(data []byte) (Metadata, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Metadata{}, domain.E(domain.KindDecodeFailure, "metadata.decode", err)
	}
	return Metadata{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Format:    format,
		SizeBytes: int64(len(data)),
	}, nil
}
