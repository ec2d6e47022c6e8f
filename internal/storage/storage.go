// Package storage owns the artifact layout: four namespaces (originals,
// thumbnails, processed, demo), each independently addressable by
// generated filename. Thumbnail names derive from their source name by a
// fixed suffix, so a serving layer can compute thumbnail locations
// without a database lookup.
package storage

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Namespace is one of the four artifact classes.
type Namespace string

const (
	NamespaceOriginals  Namespace = "images"
	NamespaceThumbnails Namespace = "thumbnails"
	NamespaceProcessed  Namespace = "processed"
	NamespaceDemo       Namespace = "demo"
)

// Manager persists artifacts under namespaces. Implementations must
// guarantee that a partially-written object is never readable under its
// final name; the orchestrator relies on that for write-then-commit
// ordering.
type Manager interface {
	Store(ctx context.Context, ns Namespace, name string, data []byte) error
	Read(ctx context.Context, ns Namespace, name string) ([]byte, error)
	Delete(ctx context.Context, ns Namespace, name string) error
	Exists(ctx context.Context, ns Namespace, name string) (bool, error)
}

// OriginalName generates a collision-resistant filename for an upload:
// the owner id plus a random 12-hex suffix and the original extension.
// Random suffixes avoid leaking sequential ids.
func OriginalName(ownerID, ext string) string {
	return fmt.Sprintf("%s_%s%s", ownerID, randomHex12(), strings.ToLower(ext))
}

// ProcessedName names a composited raster after its processed-asset id.
func ProcessedName(processedID string) string {
	return processedID + ".jpg"
}

// ThumbName derives a thumbnail filename from its source filename.
// "room_ab12.jpg" becomes "room_ab12_thumb.jpg".
func ThumbName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return base + "_thumb.jpg"
}

// ContentTypeForName resolves a MIME type from a filename extension,
// defaulting to JPEG.
func ContentTypeForName(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "image/jpeg"
}

func randomHex12() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}
