package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/NguyenNhat4/color-booking-app-backend/internal/config"
	"github.com/NguyenNhat4/color-booking-app-backend/internal/handler"
	"github.com/NguyenNhat4/color-booking-app-backend/internal/repository"
	"github.com/NguyenNhat4/color-booking-app-backend/internal/service"
	"github.com/NguyenNhat4/color-booking-app-backend/internal/storage"
)

type Server struct {
	httpServer *http.Server
	db         *sqlx.DB
	cfg        *config.Config
	log        *zap.Logger
}

// NewStorage builds the artifact store selected by configuration.
func NewStorage(cfg *config.Config, log *zap.Logger) (storage.Manager, error) {
	switch cfg.Storage.Backend {
	case "s3":
		return storage.NewS3(&cfg.Storage.S3, log)
	default:
		return storage.NewLocal(cfg.Storage.Root, log), nil
	}
}

func New(cfg *config.Config, log *zap.Logger) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	db, err := repository.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store, err := NewStorage(cfg, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create storage: %w", err)
	}

	repo := repository.NewAssetRepository(db)
	imageService := service.NewImageService(repo, store, cfg, log)
	h := handler.NewHandler(imageService, store, cfg, log)

	router.GET("/health", h.HealthCheck)

	api := router.Group("/api/images")
	{
		api.POST("/upload", h.UploadImage)
		api.POST("/:id/apply-color", h.ApplyColor)
		api.DELETE("/:id", h.DeleteImage)
		api.GET("/demo", h.ListDemoImages)
		api.GET("/mine", h.ListMyImages)
		api.GET("/processed", h.ListMyProcessedImages)
	}

	files := router.Group("/images")
	{
		files.GET("/files/:filename", h.ServeFrom(storage.NamespaceOriginals))
		files.GET("/thumbnails/:filename", h.ServeFrom(storage.NamespaceThumbnails))
		files.GET("/processed/:filename", h.ServeFrom(storage.NamespaceProcessed))
		files.GET("/demo/:filename", h.ServeFrom(storage.NamespaceDemo))
	}

	server := &Server{
		httpServer: &http.Server{
			Addr:           cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:        router,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxHeaderBytes: 1 << 20, // 1 MB
		},
		db:  db,
		cfg: cfg,
		log: log,
	}

	log.Info("Server created successfully",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("storage_backend", cfg.Storage.Backend))

	return server, nil
}

func (s *Server) Run() error {
	s.log.Info("Server is running", zap.String("address", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	err := s.httpServer.Shutdown(ctx)
	if dbErr := s.db.Close(); err == nil {
		err = dbErr
	}
	return err
}
