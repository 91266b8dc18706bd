package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"churchsite/database"

	"gorm.io/gorm"
)

type NewsService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewNewsService(db *gorm.DB) *NewsService {
	return &NewsService{db: db, now: time.Now}
}

func (s *NewsService) GetAll(ctx context.Context) ([]database.News, error) {
	return findAll[database.News](ctx, s.db, "news", newestFirst, nil)
}

func (s *NewsService) GetByID(ctx context.Context, id uint) (*database.News, error) {
	return findByID[database.News](ctx, s.db, id, "news")
}

func (s *NewsService) GetPublished(ctx context.Context) ([]database.News, error) {
	return findAll[database.News](ctx, s.db, "published news", "published_at DESC, id DESC",
		"status = ?", database.NewsStatusPublished)
}

func (s *NewsService) GetByCategory(ctx context.Context, category string) ([]database.News, error) {
	return findAll[database.News](ctx, s.db, "news by category", newestFirst, "category = ?", category)
}

func (s *NewsService) GetByStatus(ctx context.Context, status string) ([]database.News, error) {
	if err := checkNewsStatus(status); err != nil {
		return nil, err
	}
	return findAll[database.News](ctx, s.db, "news by status", newestFirst, "status = ?", status)
}

func (s *NewsService) Create(ctx context.Context, n *database.News) (*database.News, error) {
	if n.Status == "" {
		n.Status = database.NewsStatusDraft
	}
	if err := validateNews(n); err != nil {
		return nil, err
	}

	n.ID = 0
	n.PublishedAt = stampPublished(n.Status == database.NewsStatusPublished, nil, s.now())

	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, fmt.Errorf("error creating news: %w", err)
	}
	return n, nil
}

// Update copies the editable fields of n onto the stored row with id n.ID.
func (s *NewsService) Update(ctx context.Context, n *database.News) (*database.News, error) {
	if err := validateNews(n); err != nil {
		return nil, err
	}

	existing, err := s.GetByID(ctx, n.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("news %d: %w", n.ID, ErrNotFound)
	}

	existing.Title = n.Title
	existing.Description = n.Description
	existing.Content = n.Content
	existing.Category = n.Category
	existing.Author = n.Author
	existing.ImageURL = n.ImageURL
	existing.Status = n.Status
	existing.PublishedAt = stampPublished(n.Status == database.NewsStatusPublished, existing.PublishedAt, s.now())

	if err := s.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, fmt.Errorf("error updating news %d: %w", n.ID, err)
	}
	return existing, nil
}

func (s *NewsService) Delete(ctx context.Context, id uint) error {
	return deleteByID[database.News](ctx, s.db, id, "news")
}

func checkNewsStatus(status string) error {
	if status != database.NewsStatusDraft && status != database.NewsStatusPublished {
		return fmt.Errorf("%w %q for news", ErrInvalidStatus, status)
	}
	return nil
}

func validateNews(n *database.News) error {
	n.Title = strings.TrimSpace(n.Title)
	if n.Title == "" {
		return fmt.Errorf("%w: news title is required", ErrInvalid)
	}
	return checkNewsStatus(n.Status)
}
