package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/NguyenNhat4/color-booking-app-backend/internal/domain"
)

// AssetRepository persists the three record kinds over sqlx. All reads
// that take an owner id filter by it in the query itself, so a miss and a
// foreign-owned row are indistinguishable to callers.
type AssetRepository struct {
	db *sqlx.DB
}

func NewAssetRepository(db *sqlx.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

func (r *AssetRepository) InsertSource(ctx context.Context, a *domain.SourceAsset) error {
	const q = `INSERT INTO images
		(id, user_id, original_filename, file_size, width, height, storage_name, room_type, description, upload_time)
		VALUES (:id, :user_id, :original_filename, :file_size, :width, :height, :storage_name, :room_type, :description, :upload_time)`
	if _, err := r.db.NamedExecContext(ctx, q, a); err != nil {
		return domain.E(domain.KindStorageFailure, "repo.insert_source", err)
	}
	return nil
}

func (r *AssetRepository) GetSourceByOwner(ctx context.Context, id, ownerID string) (*domain.SourceAsset, error) {
	var a domain.SourceAsset
	err := r.db.GetContext(ctx, &a,
		`SELECT * FROM images WHERE id = ? AND user_id = ?`, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Ef(domain.KindNotFound, "repo.get_source", "image %s not found", id)
	}
	if err != nil {
		return nil, domain.E(domain.KindStorageFailure, "repo.get_source", err)
	}
	return &a, nil
}

func (r *AssetRepository) ListSourcesByOwner(ctx context.Context, ownerID string, offset, limit int) ([]domain.SourceAsset, error) {
	assets := []domain.SourceAsset{}
	err := r.db.SelectContext(ctx, &assets,
		`SELECT * FROM images WHERE user_id = ? ORDER BY upload_time DESC, id LIMIT ? OFFSET ?`,
		ownerID, limit, offset)
	if err != nil {
		return nil, domain.E(domain.KindStorageFailure, "repo.list_sources", err)
	}
	return assets, nil
}

func (r *AssetRepository) InsertProcessed(ctx context.Context, p *domain.ProcessedAsset) error {
	const q = `INSERT INTO processed_images
		(id, original_image_id, user_id, color_code, color_name, storage_name, region_data,
		 surface_type, blend_mode, opacity, processing_time, created_at)
		VALUES (:id, :original_image_id, :user_id, :color_code, :color_name, :storage_name, :region_data,
		 :surface_type, :blend_mode, :opacity, :processing_time, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, q, p); err != nil {
		return domain.E(domain.KindStorageFailure, "repo.insert_processed", err)
	}
	return nil
}

func (r *AssetRepository) GetProcessedByOwner(ctx context.Context, id, ownerID string) (*domain.ProcessedAsset, error) {
	var p domain.ProcessedAsset
	err := r.db.GetContext(ctx, &p,
		`SELECT * FROM processed_images WHERE id = ? AND user_id = ?`, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Ef(domain.KindNotFound, "repo.get_processed", "processed image %s not found", id)
	}
	if err != nil {
		return nil, domain.E(domain.KindStorageFailure, "repo.get_processed", err)
	}
	return &p, nil
}

func (r *AssetRepository) ListProcessedByOwner(ctx context.Context, ownerID string, offset, limit int) ([]domain.ProcessedAsset, error) {
	assets := []domain.ProcessedAsset{}
	err := r.db.SelectContext(ctx, &assets,
		`SELECT * FROM processed_images WHERE user_id = ? ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		ownerID, limit, offset)
	if err != nil {
		return nil, domain.E(domain.KindStorageFailure, "repo.list_processed", err)
	}
	return assets, nil
}

func (r *AssetRepository) ListActiveDemo(ctx context.Context) ([]domain.DemoAsset, error) {
	assets := []domain.DemoAsset{}
	err := r.db.SelectContext(ctx, &assets,
		`SELECT * FROM demo_images WHERE is_active = 1 ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, domain.E(domain.KindStorageFailure, "repo.list_demo", err)
	}
	return assets, nil
}

func (r *AssetRepository) InsertDemo(ctx context.Context, d *domain.DemoAsset) error {
	const q = `INSERT INTO demo_images
		(id, name, description, storage_name, thumbnail_name, room_type, style, width, height, is_active, created_at)
		VALUES (:id, :name, :description, :storage_name, :thumbnail_name, :room_type, :style, :width, :height, :is_active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, q, d); err != nil {
		return domain.E(domain.KindStorageFailure, "repo.insert_demo", err)
	}
	return nil
}

// DeleteSourceCascade removes a source record and all of its processed
// children inside one transaction: children first, then the parent. It
// returns the deleted rows so the caller can remove the files afterwards
// (rows commit before file removal; an interrupted cleanup leaves
// unreferenced files, never dangling records).
func (r *AssetRepository) DeleteSourceCascade(ctx context.Context, id, ownerID string) (*domain.SourceAsset, []domain.ProcessedAsset, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, domain.E(domain.KindStorageFailure, "repo.delete_cascade", err)
	}
	defer tx.Rollback()

	var src domain.SourceAsset
	err = tx.GetContext(ctx, &src,
		`SELECT * FROM images WHERE id = ? AND user_id = ?`, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, domain.Ef(domain.KindNotFound, "repo.delete_cascade", "image %s not found", id)
	}
	if err != nil {
		return nil, nil, domain.E(domain.KindStorageFailure, "repo.delete_cascade", err)
	}

	children := []domain.ProcessedAsset{}
	if err := tx.SelectContext(ctx, &children,
		`SELECT * FROM processed_images WHERE original_image_id = ?`, id); err != nil {
		return nil, nil, domain.E(domain.KindStorageFailure, "repo.delete_cascade", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM processed_images WHERE original_image_id = ?`, id); err != nil {
		return nil, nil, domain.E(domain.KindStorageFailure, "repo.delete_cascade", err)
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM images WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return nil, nil, domain.E(domain.KindStorageFailure, "repo.delete_cascade", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return nil, nil, domain.E(domain.KindStorageFailure, "repo.delete_cascade",
			fmt.Errorf("expected to delete 1 image row, deleted %d", n))
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, domain.E(domain.KindStorageFailure, "repo.delete_cascade", err)
	}
	return &src, children, nil
}
