package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/NguyenNhat4/color-booking-app-backend/internal/config"
	"github.com/NguyenNhat4/color-booking-app-backend/internal/domain"
	"github.com/NguyenNhat4/color-booking-app-backend/internal/service"
	"github.com/NguyenNhat4/color-booking-app-backend/internal/storage"
)

// Handler exposes the pipeline over HTTP. Authentication happens in the
// fronting auth layer; the caller identity arrives as the X-User-ID
// header and is treated as opaque.
type Handler struct {
	service service.ImageService
	store   storage.Manager
	cfg     *config.Config
	log     *zap.Logger
}

func NewHandler(svc service.ImageService, store storage.Manager, cfg *config.Config, log *zap.Logger) *Handler {
	return &Handler{
		service: svc,
		store:   store,
		cfg:     cfg,
		log:     log,
	}
}

func (h *Handler) ownerID(c *gin.Context) (string, bool) {
	id := c.GetHeader("X-User-ID")
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   gin.H{"code": "UNAUTHORIZED", "message": "Missing user identity"},
		})
		return "", false
	}
	return id, true
}

func (h *Handler) UploadImage(c *gin.Context) {
	owner, ok := h.ownerID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "NO_FILE", "message": "No image file provided"},
		})
		return
	}

	// Declared size gate before buffering; the validator re-checks the
	// actual byte count.
	if file.Size > h.cfg.Upload.MaxFileSize {
		h.writeError(c, domain.Ef(domain.KindTooLarge, "handler.upload",
			"declared size %d exceeds limit", file.Size))
		return
	}

	f, err := file.Open()
	if err != nil {
		h.log.Error("Failed to open multipart file", zap.Error(err))
		h.writeError(c, domain.E(domain.KindInternal, "handler.upload", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.log.Error("Failed to read multipart file", zap.Error(err))
		h.writeError(c, domain.E(domain.KindInternal, "handler.upload", err))
		return
	}

	asset, err := h.service.Upload(c.Request.Context(), service.UploadInput{
		Data:        data,
		Filename:    file.Filename,
		OwnerID:     owner,
		RoomType:    optionalForm(c, "room_type"),
		Description: optionalForm(c, "description"),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Image uploaded successfully",
		"data": gin.H{
			"image_id":      asset.ID,
			"original_url":  "/images/files/" + asset.StorageName,
			"thumbnail_url": "/images/thumbnails/" + storage.ThumbName(asset.StorageName),
			"upload_time":   asset.UploadTime,
			"file_size":     asset.FileSize,
			"dimensions":    gin.H{"width": asset.Width, "height": asset.Height},
		},
	})
}

type applyColorRequest struct {
	ColorCode   string                  `json:"color_code" binding:"required"`
	ColorName   string                  `json:"color_name" binding:"required"`
	Region      domain.RegionDescriptor `json:"region" binding:"required"`
	SurfaceType string                  `json:"surface_type"`
	BlendMode   string                  `json:"blend_mode"`
	Opacity     *float64                `json:"opacity"`
}

func (h *Handler) ApplyColor(c *gin.Context) {
	owner, ok := h.ownerID(c)
	if !ok {
		return
	}

	var req applyColorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "INVALID_REQUEST", "message": err.Error()},
		})
		return
	}

	opacity := h.cfg.Processing.DefaultOpacity
	if req.Opacity != nil {
		opacity = *req.Opacity
	}

	processed, err := h.service.ApplyColor(c.Request.Context(), service.ApplyColorInput{
		SourceAssetID: c.Param("id"),
		OwnerID:       owner,
		Region:        req.Region,
		ColorCode:     req.ColorCode,
		ColorName:     req.ColorName,
		SurfaceType:   req.SurfaceType,
		BlendMode:     req.BlendMode,
		Opacity:       opacity,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Color applied successfully",
		"data": gin.H{
			"processed_image_id": processed.ID,
			"processed_url":      "/images/processed/" + processed.StorageName,
			"thumbnail_url":      "/images/thumbnails/" + storage.ThumbName(processed.StorageName),
			"processing_time":    processed.ProcessingTime,
			"applied_color": gin.H{
				"color_code": processed.ColorCode,
				"color_name": processed.ColorName,
			},
		},
	})
}

func (h *Handler) ListDemoImages(c *gin.Context) {
	demos, err := h.service.ListDemoAssets(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	list := make([]gin.H, 0, len(demos))
	for _, d := range demos {
		thumb := d.StorageName
		if d.ThumbnailName != nil {
			thumb = *d.ThumbnailName
		}
		list = append(list, gin.H{
			"demo_id":       d.ID,
			"name":          d.Name,
			"description":   d.Description,
			"image_url":     "/images/demo/" + d.StorageName,
			"thumbnail_url": "/images/demo/" + thumb,
			"room_type":     d.RoomType,
			"style":         d.Style,
			"dimensions":    gin.H{"width": d.Width, "height": d.Height},
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Demo images retrieved successfully",
		"data":    gin.H{"demo_images": list},
	})
}

func (h *Handler) ListMyImages(c *gin.Context) {
	owner, ok := h.ownerID(c)
	if !ok {
		return
	}

	assets, err := h.service.ListOwned(c.Request.Context(), owner,
		queryInt(c, "offset", 0), queryInt(c, "limit", 20))
	if err != nil {
		h.writeError(c, err)
		return
	}

	list := make([]gin.H, 0, len(assets))
	for _, a := range assets {
		list = append(list, gin.H{
			"image_id":          a.ID,
			"original_filename": a.OriginalFilename,
			"file_size":         a.FileSize,
			"dimensions":        gin.H{"width": a.Width, "height": a.Height},
			"room_type":         a.RoomType,
			"description":       a.Description,
			"upload_time":       a.UploadTime,
			"image_url":         "/images/files/" + a.StorageName,
			"thumbnail_url":     "/images/thumbnails/" + storage.ThumbName(a.StorageName),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Images retrieved successfully",
		"data":    gin.H{"images": list},
	})
}

func (h *Handler) ListMyProcessedImages(c *gin.Context) {
	owner, ok := h.ownerID(c)
	if !ok {
		return
	}

	assets, err := h.service.ListProcessed(c.Request.Context(), owner,
		queryInt(c, "offset", 0), queryInt(c, "limit", 20))
	if err != nil {
		h.writeError(c, err)
		return
	}

	list := make([]gin.H, 0, len(assets))
	for _, p := range assets {
		list = append(list, gin.H{
			"processed_image_id": p.ID,
			"original_image_id":  p.OriginalImageID,
			"color_code":         p.ColorCode,
			"color_name":         p.ColorName,
			"surface_type":       p.SurfaceType,
			"blend_mode":         p.BlendMode,
			"opacity":            p.Opacity,
			"processing_time":    p.ProcessingTime,
			"created_at":         p.CreatedAt,
			"processed_url":      "/images/processed/" + p.StorageName,
			"thumbnail_url":      "/images/thumbnails/" + storage.ThumbName(p.StorageName),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Processed images retrieved successfully",
		"data":    gin.H{"processed_images": list},
	})
}

func (h *Handler) DeleteImage(c *gin.Context) {
	owner, ok := h.ownerID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteSourceAsset(c.Request.Context(), c.Param("id"), owner); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Image deleted successfully",
	})
}

// ServeFrom streams an artifact from one storage namespace, so both
// backends serve through the same route.
func (h *Handler) ServeFrom(ns storage.Namespace) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("filename")
		data, err := h.store.Read(c.Request.Context(), ns, name)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.Data(http.StatusOK, storage.ContentTypeForName(name), data)
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

var kindMessages = map[domain.Kind]string{
	domain.KindInvalidFormat:      "Unsupported image format",
	domain.KindTooLarge:           "Image file is too large",
	domain.KindDimensionsExceeded: "Image dimensions are too large",
	domain.KindDecodeFailure:      "Image data could not be decoded",
	domain.KindInvalidColorCode:   "Invalid color code",
	domain.KindInvalidRegion:      "Invalid region data",
	domain.KindInvalidArgument:    "Invalid request parameter",
	domain.KindNotFound:           "Image not found",
}

func (h *Handler) writeError(c *gin.Context, err error) {
	kind := domain.KindOf(err)

	status := http.StatusInternalServerError
	message := "Internal server error"
	switch {
	case kind == domain.KindNotFound:
		status = http.StatusNotFound
		message = kindMessages[kind]
	case domain.ClientCaused(err):
		status = http.StatusBadRequest
		message = kindMessages[kind]
	default:
		h.log.Error("Request failed", zap.String("kind", string(kind)), zap.Error(err))
	}

	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    string(kind),
			"message": message,
		},
	})
}

func optionalForm(c *gin.Context, key string) *string {
	if v, ok := c.GetPostForm(key); ok && v != "" {
		return &v
	}
	return nil
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
