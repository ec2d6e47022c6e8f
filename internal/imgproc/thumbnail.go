package imgproc

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"

	"github.com/NguyenNhat4/color-booking-app-backend/internal/domain"
)

// Thumbnail downsamples src to fit within maxWidth x maxHeight, preserving
// aspect ratio, and encodes it as JPEG. Images already smaller than the
// box are never upscaled. Encoding is deterministic, so thumbnailing the
// same source twice yields byte-identical output.
func Thumbnail(src image.Image, maxWidth, maxHeight, quality int) ([]byte, error) {
	fitted := imaging.Fit(src, maxWidth, maxHeight, imaging.Lanczos)
	return EncodeJPEG(fitted, quality)
}

// EncodeJPEG flattens img into a JPEG at the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, domain.E(domain.KindInternal, "encode.jpeg", err)
	}
	return buf.Bytes(), nil
}

// Decode reads a full raster from encoded bytes.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.E(domain.KindDecodeFailure, "decode", err)
	}
	return img, nil
}
