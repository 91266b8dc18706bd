// Package services holds one service per stored entity. Services are thin
// wrappers over gorm that add the status bookkeeping and multi-row writes
// each entity needs.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned by writes that target a missing row. Reads
	// return a nil entity instead.
	ErrNotFound      = errors.New("record not found")
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalid       = errors.New("invalid input")
)

const newestFirst = "created_at DESC, id DESC"

// findByID returns nil, nil when no row has the id.
func findByID[T any](ctx context.Context, db *gorm.DB, id uint, what string) (*T, error) {
	var row T
	err := db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching %s %d: %w", what, id, err)
	}
	return &row, nil
}

func findAll[T any](ctx context.Context, db *gorm.DB, what, order string, query any, args ...any) ([]T, error) {
	rows := []T{}
	tx := db.WithContext(ctx)
	if query != nil {
		tx = tx.Where(query, args...)
	}
	if err := tx.Order(order).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error fetching %s: %w", what, err)
	}
	return rows, nil
}

func deleteByID[T any](ctx context.Context, db *gorm.DB, id uint, what string) error {
	var row T
	if err := db.WithContext(ctx).Delete(&row, id).Error; err != nil {
		return fmt.Errorf("error deleting %s %d: %w", what, id, err)
	}
	return nil
}

// stampPublished keeps the first publication time for as long as the row
// stays in its published status and clears it otherwise.
func stampPublished(published bool, current *time.Time, now time.Time) *time.Time {
	if !published {
		return nil
	}
	if current != nil {
		return current
	}
	t := now.UTC()
	return &t
}
