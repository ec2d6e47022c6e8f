// Command seed registers demo room photos. It walks a directory whose
// first-level subdirectories name the room type (living_room, bedroom,
// ...) and runs every image inside through the intake pieces, so demo
// entries get the same validation, metadata and thumbnails as uploads.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/NguyenNhat4/color-booking-app-backend/internal/config"
	"github.com/NguyenNhat4/color-booking-app-backend/internal/repository"
	"github.com/NguyenNhat4/color-booking-app-backend/internal/server"
	"github.com/NguyenNhat4/color-booking-app-backend/internal/service"
	"github.com/NguyenNhat4/color-booking-app-backend/pkg/logger"
)

func main() {
	dir := flag.String("dir", "./seed-images", "directory of demo images, one subdirectory per room type")
	style := flag.String("style", "", "optional style tag applied to every seeded image")
	flag.Parse()

	log, err := logger.NewSugared()
	if err != nil {
		os.Stderr.WriteString("CRITICAL: Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	db, err := repository.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal("Failed to open database: ", err)
	}
	defer db.Close()

	store, err := server.NewStorage(cfg, log.Desugar())
	if err != nil {
		log.Fatal("Failed to create storage: ", err)
	}

	svc := service.NewImageService(repository.NewAssetRepository(db), store, cfg, log.Desugar())

	ctx := context.Background()
	seeded, skipped := 0, 0

	err = filepath.WalkDir(*dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			log.Warnf("Skipping %s: %v", path, err)
			skipped++
			return nil
		}

		rel, _ := filepath.Rel(*dir, path)
		roomType := "living_room"
		if parts := strings.Split(filepath.ToSlash(rel), "/"); len(parts) > 1 {
			roomType = parts[0]
		}

		in := service.DemoInput{
			Data:     data,
			Filename: d.Name(),
			Name:     displayName(d.Name()),
			RoomType: roomType,
		}
		if *style != "" {
			in.Style = style
		}

		if _, err := svc.RegisterDemoAsset(ctx, in); err != nil {
			log.Warnf("Skipping %s: %v", path, err)
			skipped++
			return nil
		}
		seeded++
		return nil
	})
	if err != nil {
		log.Fatal("Walk failed: ", err)
	}

	log.Infof("Seeding complete: %d registered, %d skipped", seeded, skipped)
}

func displayName(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	if base == "" {
		return filename
	}
	return strings.ToUpper(base[:1]) + base[1:]
}
