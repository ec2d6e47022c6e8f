package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Storage    StorageConfig
	Upload     UploadConfig
	Processing ProcessingConfig
}

type ServerConfig struct {
	Host string
	Port string
}

type DatabaseConfig struct {
	Path string
}

// StorageConfig selects and parameterises the artifact store.
// Backend is either "local" or "s3".
type StorageConfig struct {
	Backend string
	Root    string
	S3      S3Config
}

type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
	Region          string
}

type UploadConfig struct {
	MaxFileSize       int64
	MaxWidth          int
	MaxHeight         int
	AllowedExtensions []string
}

type ProcessingConfig struct {
	ThumbnailWidth   int
	ThumbnailHeight  int
	ThumbnailQuality int
	OutputQuality    int
	DefaultOpacity   float64
}

func Load() (*Config, error) {
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", "8001")
	viper.SetDefault("DB_PATH", "./data/colorbooking.db")
	viper.SetDefault("STORAGE_BACKEND", "local")
	viper.SetDefault("STORAGE_ROOT", "./storage")
	viper.SetDefault("S3_ENDPOINT", "")
	viper.SetDefault("S3_ACCESS_KEY_ID", "")
	viper.SetDefault("S3_SECRET_ACCESS_KEY", "")
	viper.SetDefault("S3_USE_SSL", false)
	viper.SetDefault("S3_BUCKET_NAME", "room-images")
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("UPLOAD_MAX_FILE_SIZE", 10*1024*1024) // 10 MiB
	viper.SetDefault("UPLOAD_MAX_WIDTH", 4096)
	viper.SetDefault("UPLOAD_MAX_HEIGHT", 4096)
	viper.SetDefault("UPLOAD_ALLOWED_EXTENSIONS", []string{".jpg", ".jpeg", ".png", ".heic"})
	viper.SetDefault("THUMBNAIL_WIDTH", 300)
	viper.SetDefault("THUMBNAIL_HEIGHT", 300)
	viper.SetDefault("THUMBNAIL_QUALITY", 85)
	viper.SetDefault("OUTPUT_QUALITY", 90)
	viper.SetDefault("DEFAULT_OPACITY", 0.8)

	viper.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("SERVER_HOST"),
			Port: viper.GetString("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Path: viper.GetString("DB_PATH"),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(viper.GetString("STORAGE_BACKEND")),
			Root:    viper.GetString("STORAGE_ROOT"),
			S3: S3Config{
				Endpoint:        viper.GetString("S3_ENDPOINT"),
				AccessKeyID:     viper.GetString("S3_ACCESS_KEY_ID"),
				SecretAccessKey: viper.GetString("S3_SECRET_ACCESS_KEY"),
				UseSSL:          viper.GetBool("S3_USE_SSL"),
				BucketName:      viper.GetString("S3_BUCKET_NAME"),
				Region:          viper.GetString("S3_REGION"),
			},
		},
		Upload: UploadConfig{
			MaxFileSize:       viper.GetInt64("UPLOAD_MAX_FILE_SIZE"),
			MaxWidth:          viper.GetInt("UPLOAD_MAX_WIDTH"),
			MaxHeight:         viper.GetInt("UPLOAD_MAX_HEIGHT"),
			AllowedExtensions: viper.GetStringSlice("UPLOAD_ALLOWED_EXTENSIONS"),
		},
		Processing: ProcessingConfig{
			ThumbnailWidth:   viper.GetInt("THUMBNAIL_WIDTH"),
			ThumbnailHeight:  viper.GetInt("THUMBNAIL_HEIGHT"),
			ThumbnailQuality: viper.GetInt("THUMBNAIL_QUALITY"),
			OutputQuality:    viper.GetInt("OUTPUT_QUALITY"),
			DefaultOpacity:   viper.GetFloat64("DEFAULT_OPACITY"),
		},
	}

	if cfg.Storage.Backend != "local" && cfg.Storage.Backend != "s3" {
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	return cfg, nil
}
