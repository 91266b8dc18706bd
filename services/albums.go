package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"churchsite/database"

	"gorm.io/gorm"
)

type AlbumService struct {
	db *gorm.DB
}

func NewAlbumService(db *gorm.DB) *AlbumService {
	return &AlbumService{db: db}
}

func (s *AlbumService) GetAll(ctx context.Context) ([]database.Album, error) {
	return findAll[database.Album](ctx, s.db, "albums", "date DESC, id DESC", nil)
}

func (s *AlbumService) GetByID(ctx context.Context, id uint) (*database.Album, error) {
	return findByID[database.Album](ctx, s.db, id, "album")
}

func (s *AlbumService) GetByCategory(ctx context.Context, category string) ([]database.Album, error) {
	return findAll[database.Album](ctx, s.db, "albums by category", "date DESC, id DESC", "category = ?", category)
}

// Images returns the album's images in display order.
func (s *AlbumService) Images(ctx context.Context, albumID uint) ([]database.AlbumImage, error) {
	return findAll[database.AlbumImage](ctx, s.db, "album images", "image_order ASC, id ASC", "album_id = ?", albumID)
}

// Create stores the album and its images in one transaction. The first URL
// becomes the thumbnail.
func (s *AlbumService) Create(ctx context.Context, a *database.Album, imageURLs []string) (*database.Album, error) {
	if err := validateAlbum(a); err != nil {
		return nil, err
	}

	a.ID = 0
	a.ImageCount = len(imageURLs)
	a.ImageURL = ""
	if len(imageURLs) > 0 {
		a.ImageURL = imageURLs[0]
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		return insertImages(tx, a.ID, 0, imageURLs)
	})
	if err != nil {
		return nil, fmt.Errorf("error creating album: %w", err)
	}
	return a, nil
}

// Update applies the album's editable fields, removes the images in
// removedIDs and appends newURLs after the remaining images. The image count
// and thumbnail are recomputed from the stored rows before commit.
func (s *AlbumService) Update(ctx context.Context, a *database.Album, removedIDs []uint, newURLs []string) (*database.Album, error) {
	if err := validateAlbum(a); err != nil {
		return nil, err
	}

	var saved database.Album
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&saved, a.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("album %d: %w", a.ID, ErrNotFound)
			}
			return err
		}

		if len(removedIDs) > 0 {
			err := tx.Where("album_id = ? AND id IN ?", a.ID, removedIDs).Delete(&database.AlbumImage{}).Error
			if err != nil {
				return err
			}
		}

		var maxOrder sql.NullInt64
		err := tx.Model(&database.AlbumImage{}).Where("album_id = ?", a.ID).
			Select("MAX(image_order)").Row().Scan(&maxOrder)
		if err != nil {
			return err
		}
		next := 0
		if maxOrder.Valid {
			next = int(maxOrder.Int64) + 1
		}
		if err := insertImages(tx, a.ID, next, newURLs); err != nil {
			return err
		}

		saved.Title = a.Title
		saved.Description = a.Description
		saved.Date = a.Date
		saved.Category = a.Category
		if err := recount(tx, &saved); err != nil {
			return err
		}
		return tx.Save(&saved).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating album %d: %w", a.ID, err)
	}
	return &saved, nil
}

// Delete removes the album and its images together.
func (s *AlbumService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("album_id = ?", id).Delete(&database.AlbumImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&database.Album{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("error deleting album %d: %w", id, err)
	}
	return nil
}

// ReconcileImageCounts recomputes image_count and the thumbnail of every
// album from its stored images and returns how many albums were corrected.
func (s *AlbumService) ReconcileImageCounts(ctx context.Context) (int, error) {
	albums, err := s.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	fixed := 0
	for i := range albums {
		a := albums[i]
		before := a
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := recount(tx, &a); err != nil {
				return err
			}
			if a.ImageCount == before.ImageCount && a.ImageURL == before.ImageURL {
				return nil
			}
			fixed++
			return tx.Model(&database.Album{}).Where("id = ?", a.ID).
				Updates(map[string]any{"image_count": a.ImageCount, "image_url": a.ImageURL}).Error
		})
		if err != nil {
			return fixed, fmt.Errorf("error reconciling album %d: %w", a.ID, err)
		}
	}
	return fixed, nil
}

func insertImages(tx *gorm.DB, albumID uint, firstOrder int, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	images := make([]database.AlbumImage, 0, len(urls))
	for i, url := range urls {
		images = append(images, database.AlbumImage{
			AlbumID:    albumID,
			ImageURL:   url,
			ImageOrder: firstOrder + i,
		})
	}
	return tx.Create(&images).Error
}

// recount sets a.ImageCount and a.ImageURL from the stored image rows.
func recount(tx *gorm.DB, a *database.Album) error {
	var count int64
	if err := tx.Model(&database.AlbumImage{}).Where("album_id = ?", a.ID).Count(&count).Error; err != nil {
		return err
	}
	a.ImageCount = int(count)

	var first database.AlbumImage
	err := tx.Where("album_id = ?", a.ID).Order("image_order ASC, id ASC").First(&first).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		a.ImageURL = ""
	case err != nil:
		return err
	default:
		a.ImageURL = first.ImageURL
	}
	return nil
}

func validateAlbum(a *database.Album) error {
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" {
		return fmt.Errorf("%w: album title is required", ErrInvalid)
	}
	return nil
}
