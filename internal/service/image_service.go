package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/NguyenNhat4/color-booking-app-backend/internal/config"
	"github.com/NguyenNhat4/color-booking-app-backend/internal/domain"
	"github.com/NguyenNhat4/color-booking-app-backend/internal/imgproc"
	"github.com/NguyenNhat4/color-booking-app-backend/internal/repository"
	"github.com/NguyenNhat4/color-booking-app-backend/internal/storage"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// UploadInput carries one upload through the intake pipeline. OwnerID is
// the authenticated identity supplied by the fronting auth layer.
type UploadInput struct {
	Data        []byte
	Filename    string
	OwnerID     string
	RoomType    *string
	Description *string
}

// ApplyColorInput describes one color-application request.
type ApplyColorInput struct {
	SourceAssetID string
	OwnerID       string
	Region        domain.RegionDescriptor
	ColorCode     string
	ColorName     string
	SurfaceType   string
	BlendMode     string
	Opacity       float64
}

// DemoInput registers a demo room photo (seeded out-of-band).
type DemoInput struct {
	Data        []byte
	Filename    string
	Name        string
	Description *string
	RoomType    string
	Style       *string
}

type ImageService interface {
	Upload(ctx context.Context, in UploadInput) (*domain.SourceAsset, error)
	ApplyColor(ctx context.Context, in ApplyColorInput) (*domain.ProcessedAsset, error)
	ListOwned(ctx context.Context, ownerID string, offset, limit int) ([]domain.SourceAsset, error)
	ListProcessed(ctx context.Context, ownerID string, offset, limit int) ([]domain.ProcessedAsset, error)
	ListDemoAssets(ctx context.Context) ([]domain.DemoAsset, error)
	DeleteSourceAsset(ctx context.Context, id, ownerID string) error
	RegisterDemoAsset(ctx context.Context, in DemoInput) (*domain.DemoAsset, error)
}

type imageService struct {
	repo      *repository.AssetRepository
	store     storage.Manager
	validator *imgproc.Validator
	cfg       *config.Config
	log       *zap.Logger
}

func NewImageService(repo *repository.AssetRepository, store storage.Manager, cfg *config.Config, log *zap.Logger) ImageService {
	return &imageService{
		repo:  repo,
		store: store,
		validator: imgproc.NewValidator(
			cfg.Upload.MaxFileSize,
			cfg.Upload.MaxWidth,
			cfg.Upload.MaxHeight,
			cfg.Upload.AllowedExtensions,
		),
		cfg: cfg,
		log: log,
	}
}

// artifact is one file written during a pipeline run, tracked so a later
// failure can compensate by deleting everything written so far.
type artifact struct {
	ns   storage.Namespace
	name string
}

// removeArtifacts deletes written files in reverse order of creation.
// Cleanup must proceed even when the request context is already dead.
func (s *imageService) removeArtifacts(ctx context.Context, written []artifact) {
	cleanupCtx := context.WithoutCancel(ctx)
	for i := len(written) - 1; i >= 0; i-- {
		a := written[i]
		if err := s.store.Delete(cleanupCtx, a.ns, a.name); err != nil {
			s.log.Warn("Failed to remove artifact during cleanup",
				zap.String("namespace", string(a.ns)),
				zap.String("name", a.name),
				zap.Error(err))
		}
	}
}

// Upload runs the intake pipeline: validate, store the original, extract
// metadata from the stored bytes, thumbnail, persist the record. Any
// failure after the first write triggers a compensating delete of every
// artifact written so far; a rejected upload never leaves files behind.
func (s *imageService) Upload(ctx context.Context, in UploadInput) (*domain.SourceAsset, error) {
	if in.OwnerID == "" {
		return nil, domain.Ef(domain.KindInvalidArgument, "upload", "owner id is required")
	}

	ext, err := s.validator.ValidateUpload(in.Filename, in.Data)
	if err != nil {
		return nil, err
	}

	var written []artifact
	fail := func(err error) (*domain.SourceAsset, error) {
		s.removeArtifacts(ctx, written)
		return nil, err
	}

	name := storage.OriginalName(in.OwnerID, ext)
	if err := s.store.Store(ctx, storage.NamespaceOriginals, name, in.Data); err != nil {
		return fail(err)
	}
	written = append(written, artifact{storage.NamespaceOriginals, name})

	// Metadata comes from the stored object, not the request buffer, so
	// the persisted dimensions always match an independent decode of what
	// is actually on disk.
	stored, err := s.store.Read(ctx, storage.NamespaceOriginals, name)
	if err != nil {
		return fail(err)
	}
	meta, err := imgproc.ExtractMetadata(stored)
	if err != nil {
		return fail(err)
	}

	img, err := imgproc.Decode(stored)
	if err != nil {
		return fail(err)
	}
	thumb, err := imgproc.Thumbnail(img,
		s.cfg.Processing.ThumbnailWidth,
		s.cfg.Processing.ThumbnailHeight,
		s.cfg.Processing.ThumbnailQuality)
	if err != nil {
		return fail(err)
	}
	thumbName := storage.ThumbName(name)
	if err := s.store.Store(ctx, storage.NamespaceThumbnails, thumbName, thumb); err != nil {
		return fail(err)
	}
	written = append(written, artifact{storage.NamespaceThumbnails, thumbName})

	asset := &domain.SourceAsset{
		ID:               domain.NewAssetID(),
		UserID:           in.OwnerID,
		OriginalFilename: in.Filename,
		FileSize:         meta.SizeBytes,
		Width:            meta.Width,
		Height:           meta.Height,
		StorageName:      name,
		RoomType:         in.RoomType,
		Description:      in.Description,
		UploadTime:       time.Now().UTC(),
	}
	if err := s.repo.InsertSource(ctx, asset); err != nil {
		return fail(err)
	}

	s.log.Info("Image uploaded",
		zap.String("id", asset.ID),
		zap.String("user_id", in.OwnerID),
		zap.String("filename", in.Filename),
		zap.Int("width", meta.Width),
		zap.Int("height", meta.Height),
		zap.Int64("size", meta.SizeBytes))
	return asset, nil
}

// ApplyColor runs the compositing pipeline: resolve the source (existence
// and ownership collapse into one not-found), rasterize the region,
// blend, store the result and its thumbnail, persist the record.
func (s *imageService) ApplyColor(ctx context.Context, in ApplyColorInput) (*domain.ProcessedAsset, error) {
	if in.OwnerID == "" {
		return nil, domain.Ef(domain.KindInvalidArgument, "apply_color", "owner id is required")
	}
	if err := in.Region.Validate(); err != nil {
		return nil, err
	}
	target, err := imgproc.ParseHexColor(in.ColorCode)
	if err != nil {
		return nil, err
	}
	if in.Opacity < 0 || in.Opacity > 1 {
		return nil, domain.Ef(domain.KindInvalidArgument, "apply_color",
			"opacity %v outside [0,1]", in.Opacity)
	}
	if in.SurfaceType == "" {
		in.SurfaceType = "wall"
	}
	// blend_mode is recorded verbatim; only "normal" blending exists, any
	// other value is accepted but composes identically.
	if in.BlendMode == "" {
		in.BlendMode = "normal"
	}

	src, err := s.repo.GetSourceByOwner(ctx, in.SourceAssetID, in.OwnerID)
	if err != nil {
		return nil, err
	}

	data, err := s.store.Read(ctx, storage.NamespaceOriginals, src.StorageName)
	if err != nil {
		return nil, err
	}
	base, err := imgproc.Decode(data)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	mask, err := imgproc.RasterizeRegion(in.Region, base.Bounds().Dx(), base.Bounds().Dy())
	if err != nil {
		return nil, err
	}
	if imgproc.MaskEmpty(mask) {
		s.log.Debug("Region rasterized to an empty mask",
			zap.String("image_id", src.ID),
			zap.String("region_type", string(in.Region.Type)))
	}

	composited, err := imgproc.Composite(base, mask, target, in.Opacity)
	if err != nil {
		return nil, err
	}
	raster, err := imgproc.EncodeJPEG(composited, s.cfg.Processing.OutputQuality)
	if err != nil {
		return nil, err
	}

	var written []artifact
	fail := func(err error) (*domain.ProcessedAsset, error) {
		s.removeArtifacts(ctx, written)
		return nil, err
	}

	procID := domain.NewProcessedID()
	procName := storage.ProcessedName(procID)
	if err := s.store.Store(ctx, storage.NamespaceProcessed, procName, raster); err != nil {
		return fail(err)
	}
	written = append(written, artifact{storage.NamespaceProcessed, procName})

	thumb, err := imgproc.Thumbnail(composited,
		s.cfg.Processing.ThumbnailWidth,
		s.cfg.Processing.ThumbnailHeight,
		s.cfg.Processing.ThumbnailQuality)
	if err != nil {
		return fail(err)
	}
	thumbName := storage.ThumbName(procName)
	if err := s.store.Store(ctx, storage.NamespaceThumbnails, thumbName, thumb); err != nil {
		return fail(err)
	}
	written = append(written, artifact{storage.NamespaceThumbnails, thumbName})

	processed := &domain.ProcessedAsset{
		ID:              procID,
		OriginalImageID: src.ID,
		UserID:          in.OwnerID,
		ColorCode:       in.ColorCode,
		ColorName:       in.ColorName,
		StorageName:     procName,
		Region:          in.Region,
		SurfaceType:     in.SurfaceType,
		BlendMode:       in.BlendMode,
		Opacity:         in.Opacity,
		ProcessingTime:  time.Since(start).Seconds(),
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.repo.InsertProcessed(ctx, processed); err != nil {
		return fail(err)
	}

	s.log.Info("Color applied",
		zap.String("processed_id", procID),
		zap.String("image_id", src.ID),
		zap.String("color", in.ColorCode),
		zap.Float64("opacity", in.Opacity),
		zap.Float64("processing_time", processed.ProcessingTime))
	return processed, nil
}

func (s *imageService) ListOwned(ctx context.Context, ownerID string, offset, limit int) ([]domain.SourceAsset, error) {
	offset, limit = clampPage(offset, limit)
	return s.repo.ListSourcesByOwner(ctx, ownerID, offset, limit)
}

func (s *imageService) ListProcessed(ctx context.Context, ownerID string, offset, limit int) ([]domain.ProcessedAsset, error) {
	offset, limit = clampPage(offset, limit)
	return s.repo.ListProcessedByOwner(ctx, ownerID, offset, limit)
}

func (s *imageService) ListDemoAssets(ctx context.Context) ([]domain.DemoAsset, error) {
	return s.repo.ListActiveDemo(ctx)
}

// DeleteSourceAsset removes a source record with its processed children
// (rows in one transaction, children before parent) and then the files.
// File removal is best-effort once the rows are gone: an interrupted run
// leaves unreferenced files, never records pointing at nothing.
func (s *imageService) DeleteSourceAsset(ctx context.Context, id, ownerID string) error {
	src, children, err := s.repo.DeleteSourceCascade(ctx, id, ownerID)
	if err != nil {
		return err
	}

	var files []artifact
	for _, c := range children {
		files = append(files,
			artifact{storage.NamespaceProcessed, c.StorageName},
			artifact{storage.NamespaceThumbnails, storage.ThumbName(c.StorageName)})
	}
	files = append(files,
		artifact{storage.NamespaceThumbnails, storage.ThumbName(src.StorageName)},
		artifact{storage.NamespaceOriginals, src.StorageName})
	s.removeArtifacts(ctx, files)

	s.log.Info("Image deleted",
		zap.String("id", id),
		zap.String("user_id", ownerID),
		zap.Int("processed_children", len(children)))
	return nil
}

// RegisterDemoAsset runs a demo photo through the same intake pieces and
// records it as an active demo entry. Invoked by the seeding command.
func (s *imageService) RegisterDemoAsset(ctx context.Context, in DemoInput) (*domain.DemoAsset, error) {
	if in.Name == "" || in.RoomType == "" {
		return nil, domain.Ef(domain.KindInvalidArgument, "register_demo", "name and room type are required")
	}
	ext, err := s.validator.ValidateUpload(in.Filename, in.Data)
	if err != nil {
		return nil, err
	}

	var written []artifact
	fail := func(err error) (*domain.DemoAsset, error) {
		s.removeArtifacts(ctx, written)
		return nil, err
	}

	id := domain.NewDemoID()
	name := id + ext
	if err := s.store.Store(ctx, storage.NamespaceDemo, name, in.Data); err != nil {
		return fail(err)
	}
	written = append(written, artifact{storage.NamespaceDemo, name})

	meta, err := imgproc.ExtractMetadata(in.Data)
	if err != nil {
		return fail(err)
	}
	img, err := imgproc.Decode(in.Data)
	if err != nil {
		return fail(err)
	}
	thumb, err := imgproc.Thumbnail(img,
		s.cfg.Processing.ThumbnailWidth,
		s.cfg.Processing.ThumbnailHeight,
		s.cfg.Processing.ThumbnailQuality)
	if err != nil {
		return fail(err)
	}
	thumbName := storage.ThumbName(name)
	if err := s.store.Store(ctx, storage.NamespaceDemo, thumbName, thumb); err != nil {
		return fail(err)
	}
	written = append(written, artifact{storage.NamespaceDemo, thumbName})

	demo := &domain.DemoAsset{
		ID:            id,
		Name:          in.Name,
		Description:   in.Description,
		StorageName:   name,
		ThumbnailName: &thumbName,
		RoomType:      in.RoomType,
		Style:         in.Style,
		Width:         meta.Width,
		Height:        meta.Height,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.InsertDemo(ctx, demo); err != nil {
		return fail(err)
	}

	s.log.Info("Demo image registered",
		zap.String("id", id),
		zap.String("name", in.Name),
		zap.String("room_type", in.RoomType))
	return demo, nil
}

func clampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return offset, limit
}
