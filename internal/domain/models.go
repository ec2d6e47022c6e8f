package domain

import (
	"time"
)

// SourceAsset is an uploaded, unmodified room photo and its metadata.
// Width, height and file size are taken from the decoded bytes at creation
// and never from client-declared values; the record is immutable afterwards.
type SourceAsset struct {
	ID               string    `db:"id" json:"image_id"`
	UserID           string    `db:"user_id" json:"-"`
	OriginalFilename string    `db:"original_filename" json:"original_filename"`
	FileSize         int64     `db:"file_size" json:"file_size"`
	Width            int       `db:"width" json:"width"`
	Height           int       `db:"height" json:"height"`
	StorageName      string    `db:"storage_name" json:"-"`
	RoomType         *string   `db:"room_type" json:"room_type,omitempty"`
	Description      *string   `db:"description" json:"description,omitempty"`
	UploadTime       time.Time `db:"upload_time" json:"upload_time"`
}

// ProcessedAsset is a derived raster with one region recolored. It always
// references the SourceAsset it was produced from and shares its owner.
type ProcessedAsset struct {
	ID              string           `db:"id" json:"processed_image_id"`
	OriginalImageID string           `db:"original_image_id" json:"original_image_id"`
	UserID          string           `db:"user_id" json:"-"`
	ColorCode       string           `db:"color_code" json:"color_code"`
	ColorName       string           `db:"color_name" json:"color_name"`
	StorageName     string           `db:"storage_name" json:"-"`
	Region          RegionDescriptor `db:"region_data" json:"region"`
	SurfaceType     string           `db:"surface_type" json:"surface_type"`
	BlendMode       string           `db:"blend_mode" json:"blend_mode"`
	Opacity         float64          `db:"opacity" json:"opacity"`
	ProcessingTime  float64          `db:"processing_time" json:"processing_time"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
}

// DemoAsset is a seeded room photo users can try the visualizer on.
// Read-only from the pipeline's perspective.
type DemoAsset struct {
	ID            string    `db:"id" json:"demo_id"`
	Name          string    `db:"name" json:"name"`
	Description   *string   `db:"description" json:"description,omitempty"`
	StorageName   string    `db:"storage_name" json:"-"`
	ThumbnailName *string   `db:"thumbnail_name" json:"-"`
	RoomType      string    `db:"room_type" json:"room_type"`
	Style         *string   `db:"style" json:"style,omitempty"`
	Width         int       `db:"width" json:"width"`
	Height        int       `db:"height" json:"height"`
	IsActive      bool      `db:"is_active" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
