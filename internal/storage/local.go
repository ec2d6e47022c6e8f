package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/NguyenNhat4/color-booking-app-backend/internal/domain"
)

// Local stores artifacts on the filesystem under a root directory, one
// subdirectory per namespace, created lazily on first use.
type Local struct {
	root string
	log  *zap.Logger
}

func NewLocal(root string, log *zap.Logger) *Local {
	return &Local{root: root, log: log}
}

func (l *Local) path(ns Namespace, name string) string {
	return filepath.Join(l.root, string(ns), filepath.Base(name))
}

// Store writes to a temporary file and renames it into place, so a
// partial write is never visible under the final name.
func (l *Local) Store(ctx context.Context, ns Namespace, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return domain.E(domain.KindStorageFailure, "storage.local.store", err)
	}

	dst := l.path(ns, name)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return domain.E(domain.KindStorageFailure, "storage.local.mkdir", err)
	}

	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return domain.E(domain.KindStorageFailure, "storage.local.write", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return domain.E(domain.KindStorageFailure, "storage.local.rename", err)
	}

	l.log.Debug("Artifact stored",
		zap.String("namespace", string(ns)),
		zap.String("name", name),
		zap.Int("size", len(data)))
	return nil
}

func (l *Local) Read(ctx context.Context, ns Namespace, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.E(domain.KindStorageFailure, "storage.local.read", err)
	}
	data, err := os.ReadFile(l.path(ns, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.Ef(domain.KindNotFound, "storage.local.read",
				"%s/%s does not exist", ns, name)
		}
		return nil, domain.E(domain.KindStorageFailure, "storage.local.read", err)
	}
	return data, nil
}

// Delete removes an artifact. A missing file is not an error; cleanup
// paths may delete the same artifact twice.
func (l *Local) Delete(ctx context.Context, ns Namespace, name string) error {
	if err := ctx.Err(); err != nil {
		return domain.E(domain.KindStorageFailure, "storage.local.delete", err)
	}
	if err := os.Remove(l.path(ns, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return domain.E(domain.KindStorageFailure, "storage.local.delete", err)
	}
	return nil
}

func (l *Local) Exists(ctx context.Context, ns Namespace, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, domain.E(domain.KindStorageFailure, "storage.local.exists", err)
	}
	_, err := os.Stat(l.path(ns, name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, domain.E(domain.KindStorageFailure, "storage.local.exists",
		fmt.Errorf("stat %s/%s: %w", ns, name, err))
}
