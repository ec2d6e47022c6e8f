// Package imgproc holds the pixel-level pieces of the pipeline: upload
// validation, metadata extraction, region rasterization, color
// compositing and thumbnailing. Everything here is pure computation over
// in-memory buffers; storage and persistence live elsewhere.
package imgproc

import (
	"bytes"
	"image"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/NguyenNhat4/color-booking-app-backend/internal/domain"
)

// Validator gates an upload against format, size and dimension policy
// before any storage write happens. It has no side effects.
type Validator struct {
	maxFileSize int64
	maxWidth    int
	maxHeight   int
	allowedExts map[string]struct{}
}

func NewValidator(maxFileSize int64, maxWidth, maxHeight int, allowedExts []string) *Validator {
	exts := make(map[string]struct{}, len(allowedExts))
	for _, e := range allowedExts {
		exts[strings.ToLower(e)] = struct{}{}
	}
	return &Validator{
		maxFileSize: maxFileSize,
		maxWidth:    maxWidth,
		maxHeight:   maxHeight,
		allowedExts: exts,
	}
}

// CheckFilename verifies the file extension against the allow-list.
// The extension is trusted deliberately; content sniffing is not done here.
// The decode in ValidateUpload is the backstop for mislabeled bytes.
func (v *Validator) CheckFilename(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := v.allowedExts[ext]; !ok {
		return domain.Ef(domain.KindInvalidFormat, "validate.format",
			"unsupported file extension %q", ext)
	}
	return nil
}

func (v *Validator) CheckSize(size int64) error {
	if size > v.maxFileSize {
		return domain.Ef(domain.KindTooLarge, "validate.size",
			"file size %d exceeds limit %d", size, v.maxFileSize)
	}
	return nil
}

func (v *Validator) CheckDimensions(width, height int) error {
	if width > v.maxWidth || height > v.maxHeight {
		return domain.Ef(domain.KindDimensionsExceeded, "validate.dimensions",
			"%dx%d exceeds maximum %dx%d", width, height, v.maxWidth, v.maxHeight)
	}
	return nil
}

// ValidateUpload runs the full gate over an in-memory upload: extension,
// byte ceiling, then a header-only decode for the dimension check. It
// returns the normalized extension. All checks complete before the caller
// performs any storage write, so a rejection never leaves artifacts.
func (v *Validator) ValidateUpload(filename string, data []byte) (string, error) {
	if err := v.CheckFilename(filename); err != nil {
		return "", err
	}
	if err := v.CheckSize(int64(len(data))); err != nil {
		return "", err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", domain.E(domain.KindDecodeFailure, "validate.decode", err)
	}
	if err := v.CheckDimensions(cfg.Width, cfg.Height); err != nil {
		return "", err
	}
	return strings.ToLower(filepath.Ext(filename)), nil
}
