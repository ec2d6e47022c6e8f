package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NguyenNhat4/color-booking-app-backend/internal/config"
	"github.com/NguyenNhat4/color-booking-app-backend/internal/domain"
	"github.com/NguyenNhat4/color-booking-app-backend/internal/repository"
	"github.com/NguyenNhat4/color-booking-app-backend/internal/storage"
)

func testConfig() *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{
			MaxFileSize:       10 * 1024 * 1024,
			MaxWidth:          4096,
			MaxHeight:         4096,
			AllowedExtensions: []string{".jpg", ".jpeg", ".png", ".heic"},
		},
		Processing: config.ProcessingConfig{
			ThumbnailWidth:   300,
			ThumbnailHeight:  300,
			ThumbnailQuality: 85,
			OutputQuality:    90,
			DefaultOpacity:   0.8,
		},
	}
}

type harness struct {
	svc   ImageService
	store storage.Manager
	root  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := repository.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	root := t.TempDir()
	store := storage.NewLocal(root, zap.NewNop())
	svc := NewImageService(repository.NewAssetRepository(db), store, testConfig(), zap.NewNop())

	return &harness{svc: svc, store: store, root: root}
}

// countFiles walks the storage root counting regular files; rejected
// pipelines must leave it at zero.
func (h *harness) countFiles(t *testing.T) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(h.root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	require.NoError(t, err)
	return n
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func gradientJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 90, A: 255})
		}
	}
	return encodeJPEG(t, img)
}

func solidJPEG(t *testing.T, width, height int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return encodeJPEG(t, img)
}

func upload(t *testing.T, h *harness, owner string, data []byte) *domain.SourceAsset {
	t.Helper()
	asset, err := h.svc.Upload(context.Background(), UploadInput{
		Data:     data,
		Filename: "room.jpg",
		OwnerID:  owner,
	})
	require.NoError(t, err)
	return asset
}

func rectRegion(x1, y1, x2, y2 int) domain.RegionDescriptor {
	return domain.RegionDescriptor{
		Type:        domain.RegionRectangle,
		Coordinates: []domain.Point{{X: x1, Y: y1}, {X: x2, Y: y2}},
	}
}

func TestUploadCreatesAssetAndArtifacts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	data := gradientJPEG(t, 1280, 720)

	roomType := "living_room"
	asset, err := h.svc.Upload(ctx, UploadInput{
		Data:     data,
		Filename: "holiday room.jpg",
		OwnerID:  "alice",
		RoomType: &roomType,
	})
	require.NoError(t, err)

	assert.Equal(t, 1280, asset.Width)
	assert.Equal(t, 720, asset.Height)
	assert.Equal(t, int64(len(data)), asset.FileSize)
	assert.Equal(t, "holiday room.jpg", asset.OriginalFilename)
	assert.Regexp(t, `^img_[0-9a-f]{12}$`, asset.ID)

	ok, err := h.store.Exists(ctx, storage.NamespaceOriginals, asset.StorageName)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = h.store.Exists(ctx, storage.NamespaceThumbnails, storage.ThumbName(asset.StorageName))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, h.countFiles(t))

	// Stored metadata matches an independent decode of the stored bytes.
	stored, err := h.store.Read(ctx, storage.NamespaceOriginals, asset.StorageName)
	require.NoError(t, err)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.Equal(t, cfg.Width, asset.Width)
	assert.Equal(t, cfg.Height, asset.Height)

	listed, err := h.svc.ListOwned(ctx, "alice", 0, 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, asset.ID, listed[0].ID)
}

func TestRejectedUploadLeavesNoArtifacts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   UploadInput
		kind domain.Kind
	}{
		{
			name: "bad extension",
			in:   UploadInput{Data: gradientJPEG(t, 10, 10), Filename: "room.gif", OwnerID: "alice"},
			kind: domain.KindInvalidFormat,
		},
		{
			name: "not an image",
			in:   UploadInput{Data: []byte("plain text pretending"), Filename: "room.jpg", OwnerID: "alice"},
			kind: domain.KindDecodeFailure,
		},
		{
			name: "heic extension with undecodable body",
			in:   UploadInput{Data: []byte{0x00, 0x01, 0x02}, Filename: "room.heic", OwnerID: "alice"},
			kind: domain.KindDecodeFailure,
		},
		{
			name: "missing owner",
			in:   UploadInput{Data: gradientJPEG(t, 10, 10), Filename: "room.jpg"},
			kind: domain.KindInvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Upload(ctx, tt.in)
			assert.True(t, domain.IsKind(err, tt.kind), "got %v", err)
			assert.Equal(t, 0, h.countFiles(t))
		})
	}
}

func TestRejectedOversizeUploadLeavesNoArtifacts(t *testing.T) {
	db, err := repository.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := testConfig()
	cfg.Upload.MaxFileSize = 512
	root := t.TempDir()
	store := storage.NewLocal(root, zap.NewNop())
	svc := NewImageService(repository.NewAssetRepository(db), store, cfg, zap.NewNop())
	h := &harness{svc: svc, store: store, root: root}

	_, err = svc.Upload(context.Background(), UploadInput{
		Data:     gradientJPEG(t, 200, 200),
		Filename: "room.jpg",
		OwnerID:  "alice",
	})
	assert.True(t, domain.IsKind(err, domain.KindTooLarge))
	assert.Equal(t, 0, h.countFiles(t))
}

func TestApplyColorScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	base := color.RGBA{R: 100, G: 110, B: 120, A: 255}
	asset := upload(t, h, "alice", solidJPEG(t, 900, 700, base))

	processed, err := h.svc.ApplyColor(ctx, ApplyColorInput{
		SourceAssetID: asset.ID,
		OwnerID:       "alice",
		Region:        rectRegion(100, 150, 800, 600),
		ColorCode:     "#FFE4B5",
		ColorName:     "Moccasin",
		Opacity:       0.8,
	})
	require.NoError(t, err)

	assert.Regexp(t, `^proc_[0-9a-f]{12}$`, processed.ID)
	assert.Equal(t, asset.ID, processed.OriginalImageID)
	assert.Equal(t, "wall", processed.SurfaceType)
	assert.Equal(t, "normal", processed.BlendMode)
	assert.GreaterOrEqual(t, processed.ProcessingTime, 0.0)

	raster, err := h.store.Read(ctx, storage.NamespaceProcessed, processed.StorageName)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(raster))
	require.NoError(t, err)

	// Masked-region average within rounding-and-JPEG distance of blending
	// RGB(255,228,181) at 80% over the base; untouched region stays put.
	assertAvgColor(t, img, image.Rect(150, 200, 750, 550), 224, 204, 169, 6)
	assertAvgColor(t, img, image.Rect(10, 10, 80, 120), 100, 110, 120, 6)

	// Original plus thumbnail, processed raster plus thumbnail.
	assert.Equal(t, 4, h.countFiles(t))

	listed, err := h.svc.ListProcessed(ctx, "alice", 0, 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, processed.ID, listed[0].ID)
	assert.Equal(t, rectRegion(100, 150, 800, 600), listed[0].Region)
}

func assertAvgColor(t *testing.T, img image.Image, r image.Rectangle, wantR, wantG, wantB float64, tol float64) {
	t.Helper()
	var sr, sg, sb, n float64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			sr += float64(cr >> 8)
			sg += float64(cg >> 8)
			sb += float64(cb >> 8)
			n++
		}
	}
	assert.InDelta(t, wantR, sr/n, tol)
	assert.InDelta(t, wantG, sg/n, tol)
	assert.InDelta(t, wantB, sb/n, tol)
}

func TestApplyColorDeterministic(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	asset := upload(t, h, "alice", gradientJPEG(t, 320, 240))
	in := ApplyColorInput{
		SourceAssetID: asset.ID,
		OwnerID:       "alice",
		Region: domain.RegionDescriptor{
			Type:        domain.RegionPolygon,
			Coordinates: []domain.Point{{X: 20, Y: 15}, {X: 290, Y: 40}, {X: 150, Y: 220}},
		},
		ColorCode: "4B9CD3",
		ColorName: "Carolina Blue",
		Opacity:   0.65,
	}

	first, err := h.svc.ApplyColor(ctx, in)
	require.NoError(t, err)
	second, err := h.svc.ApplyColor(ctx, in)
	require.NoError(t, err)

	// Two uncoordinated runs each produce their own record.
	assert.NotEqual(t, first.ID, second.ID)

	b1, err := h.store.Read(ctx, storage.NamespaceProcessed, first.StorageName)
	require.NoError(t, err)
	b2, err := h.store.Read(ctx, storage.NamespaceProcessed, second.StorageName)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(b1, b2))
}

func TestApplyColorForeignOwnerIsNotFound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	asset := upload(t, h, "alice", gradientJPEG(t, 100, 100))
	before := h.countFiles(t)

	_, err := h.svc.ApplyColor(ctx, ApplyColorInput{
		SourceAssetID: asset.ID,
		OwnerID:       "mallory",
		Region:        rectRegion(0, 0, 50, 50),
		ColorCode:     "#FFFFFF",
		ColorName:     "White",
		Opacity:       0.8,
	})
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
	assert.Equal(t, before, h.countFiles(t))
}

func TestApplyColorRejectsBeforeAnyWork(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	asset := upload(t, h, "alice", gradientJPEG(t, 100, 100))
	before := h.countFiles(t)

	tests := []struct {
		name string
		in   ApplyColorInput
		kind domain.Kind
	}{
		{
			name: "polygon with 2 points",
			in: ApplyColorInput{
				SourceAssetID: asset.ID, OwnerID: "alice",
				Region: domain.RegionDescriptor{
					Type:        domain.RegionPolygon,
					Coordinates: []domain.Point{{X: 1, Y: 1}, {X: 5, Y: 5}},
				},
				ColorCode: "#FFFFFF", ColorName: "White", Opacity: 0.8,
			},
			kind: domain.KindInvalidRegion,
		},
		{
			name: "invalid color code",
			in: ApplyColorInput{
				SourceAssetID: asset.ID, OwnerID: "alice",
				Region:    rectRegion(0, 0, 50, 50),
				ColorCode: "#XYZ123", ColorName: "Mystery", Opacity: 0.8,
			},
			kind: domain.KindInvalidColorCode,
		},
		{
			name: "opacity out of range",
			in: ApplyColorInput{
				SourceAssetID: asset.ID, OwnerID: "alice",
				Region:    rectRegion(0, 0, 50, 50),
				ColorCode: "#FFFFFF", ColorName: "White", Opacity: 1.2,
			},
			kind: domain.KindInvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.ApplyColor(ctx, tt.in)
			assert.True(t, domain.IsKind(err, tt.kind), "got %v", err)
			assert.Equal(t, before, h.countFiles(t))
		})
	}
}

func TestApplyColorEmptyRegionIsNoOp(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	asset := upload(t, h, "alice", solidJPEG(t, 60, 60, color.RGBA{R: 40, G: 80, B: 160, A: 255}))

	// Collinear polygon: zero area, silently produces an unmodified copy.
	processed, err := h.svc.ApplyColor(ctx, ApplyColorInput{
		SourceAssetID: asset.ID,
		OwnerID:       "alice",
		Region: domain.RegionDescriptor{
			Type:        domain.RegionPolygon,
			Coordinates: []domain.Point{{X: 1, Y: 1}, {X: 20, Y: 20}, {X: 40, Y: 40}},
		},
		ColorCode: "#FF0000",
		ColorName: "Red",
		Opacity:   1.0,
	})
	require.NoError(t, err)

	raster, err := h.store.Read(ctx, storage.NamespaceProcessed, processed.StorageName)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(raster))
	require.NoError(t, err)
	assertAvgColor(t, img, image.Rect(5, 5, 55, 55), 40, 80, 160, 6)
}

func TestDeleteSourceAssetCascades(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	asset := upload(t, h, "alice", gradientJPEG(t, 200, 150))
	for i := 0; i < 2; i++ {
		_, err := h.svc.ApplyColor(ctx, ApplyColorInput{
			SourceAssetID: asset.ID,
			OwnerID:       "alice",
			Region:        rectRegion(0, 0, 100, 100),
			ColorCode:     "#00FF00",
			ColorName:     "Green",
			Opacity:       0.5,
		})
		require.NoError(t, err)
	}
	require.Equal(t, 6, h.countFiles(t))

	require.NoError(t, h.svc.DeleteSourceAsset(ctx, asset.ID, "alice"))

	assert.Equal(t, 0, h.countFiles(t))
	owned, err := h.svc.ListOwned(ctx, "alice", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, owned)
	processed, err := h.svc.ListProcessed(ctx, "alice", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, processed)
}

func TestRegisterDemoAssetAndList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	style := "modern"
	demo, err := h.svc.RegisterDemoAsset(ctx, DemoInput{
		Data:     gradientJPEG(t, 800, 600),
		Filename: "bright_living_room.jpg",
		Name:     "Bright living room",
		RoomType: "living_room",
		Style:    &style,
	})
	require.NoError(t, err)

	assert.Regexp(t, `^demo_[0-9a-f]{12}$`, demo.ID)
	assert.Equal(t, 800, demo.Width)
	assert.Equal(t, 600, demo.Height)
	require.NotNil(t, demo.ThumbnailName)

	ok, err := h.store.Exists(ctx, storage.NamespaceDemo, demo.StorageName)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = h.store.Exists(ctx, storage.NamespaceDemo, *demo.ThumbnailName)
	require.NoError(t, err)
	assert.True(t, ok)

	demos, err := h.svc.ListDemoAssets(ctx)
	require.NoError(t, err)
	require.Len(t, demos, 1)
	assert.Equal(t, demo.ID, demos[0].ID)
}
