package services

import (
	"context"
	"errors"
	"fmt"

	"churchsite/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MassService manages the single row of parish contact and mass-time settings.
type MassService struct {
	db *gorm.DB
}

func NewMassService(db *gorm.DB) *MassService {
	return &MassService{db: db}
}

// Get returns the settings row, or nil if none was saved yet.
func (s *MassService) Get(ctx context.Context) (*database.MassSettings, error) {
	var settings database.MassSettings
	err := s.db.WithContext(ctx).Order("id ASC").First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching mass settings: %w", err)
	}
	return &settings, nil
}

// massSettingsID is the primary key of the only settings row.
const massSettingsID = 1

// Save writes the settings row, creating it on first use. The write is a
// single upsert on a fixed id, so concurrent first saves still leave one row.
func (s *MassService) Save(ctx context.Context, in *database.MassSettings) (*database.MassSettings, error) {
	saved := database.MassSettings{
		ID:         massSettingsID,
		ChurchName: in.ChurchName,
		Email:      in.Email,
		MassTime:   in.MassTime,
		Address:    in.Address,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"church_name", "email", "mass_time", "address", "updated_at"}),
	}).Create(&saved).Error
	if err != nil {
		return nil, fmt.Errorf("error saving mass settings: %w", err)
	}
	return &saved, nil
}
