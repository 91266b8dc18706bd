package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"churchsite/database"
	"churchsite/registration"

	"gorm.io/gorm"
)

type EventService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db, now: time.Now}
}

func (s *EventService) GetAll(ctx context.Context) ([]database.Event, error) {
	return findAll[database.Event](ctx, s.db, "events", newestFirst, nil)
}

func (s *EventService) GetByID(ctx context.Context, id uint) (*database.Event, error) {
	return findByID[database.Event](ctx, s.db, id, "event")
}

// GetUpcoming returns the events open to the public, soonest first.
func (s *EventService) GetUpcoming(ctx context.Context) ([]database.Event, error) {
	return findAll[database.Event](ctx, s.db, "upcoming events", "date ASC, id ASC",
		"status = ?", database.EventStatusUpcoming)
}

func (s *EventService) GetByCategory(ctx context.Context, category string) ([]database.Event, error) {
	return findAll[database.Event](ctx, s.db, "events by category", "date ASC, id ASC", "category = ?", category)
}

func (s *EventService) GetByStatus(ctx context.Context, status string) ([]database.Event, error) {
	if err := checkEventStatus(status); err != nil {
		return nil, err
	}
	return findAll[database.Event](ctx, s.db, "events by status", newestFirst, "status = ?", status)
}

// Create inserts e with the given registration mode.
func (s *EventService) Create(ctx context.Context, e *database.Event, mode registration.Mode) (*database.Event, error) {
	if e.Status == "" {
		e.Status = database.EventStatusDraft
	}
	if err := validateEvent(e); err != nil {
		return nil, err
	}
	if err := e.SetRegistrationMode(mode); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	e.ID = 0
	e.PublishedAt = stampPublished(e.Status == database.EventStatusUpcoming, nil, s.now())

	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, fmt.Errorf("error creating event: %w", err)
	}
	return e, nil
}

// Update copies the editable fields of e and the registration mode onto the
// stored row with id e.ID.
func (s *EventService) Update(ctx context.Context, e *database.Event, mode registration.Mode) (*database.Event, error) {
	if err := validateEvent(e); err != nil {
		return nil, err
	}

	existing, err := s.GetByID(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("event %d: %w", e.ID, ErrNotFound)
	}

	existing.Title = e.Title
	existing.Description = e.Description
	existing.Date = e.Date
	existing.Time = e.Time
	existing.Location = e.Location
	existing.Category = e.Category
	existing.Attendees = e.Attendees
	existing.ImageURL = e.ImageURL
	existing.Status = e.Status
	existing.PublishedAt = stampPublished(e.Status == database.EventStatusUpcoming, existing.PublishedAt, s.now())
	if err := existing.SetRegistrationMode(mode); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if err := s.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, fmt.Errorf("error updating event %d: %w", e.ID, err)
	}
	return existing, nil
}

// SetRegistrationMode switches how event id takes registrations without
// touching its other fields. Existing registrations are kept.
func (s *EventService) SetRegistrationMode(ctx context.Context, id uint, mode registration.Mode) (*database.Event, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	if err := existing.SetRegistrationMode(mode); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	err = s.db.WithContext(ctx).Model(&database.Event{}).Where("id = ?", id).
		Updates(map[string]any{
			"registration_form": existing.RegistrationForm,
			"external_link":     existing.ExternalLink,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("error updating registration mode of event %d: %w", id, err)
	}
	return existing, nil
}

// Mode returns the registration mode of e. Rows written before the mode was
// enforced may carry both a form and a link; the form wins and the problem
// is logged.
func (s *EventService) Mode(e *database.Event) registration.Mode {
	mode, err := e.RegistrationMode()
	if errors.Is(err, registration.ErrInconsistentMode) {
		log.Printf("Event %d has both a registration form and an external link, using the form", e.ID)
	} else if err != nil {
		log.Printf("Event %d has an unreadable registration form: %v", e.ID, err)
	}
	return mode
}

// Delete removes the event and its registrations together.
func (s *EventService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&database.EventRegistration{}).Error; err != nil {
			return err
		}
		return tx.Delete(&database.Event{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("error deleting event %d: %w", id, err)
	}
	return nil
}

func checkEventStatus(status string) error {
	if status != database.EventStatusDraft && status != database.EventStatusUpcoming {
		return fmt.Errorf("%w %q for event", ErrInvalidStatus, status)
	}
	return nil
}

func validateEvent(e *database.Event) error {
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		return fmt.Errorf("%w: event title is required", ErrInvalid)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: event date is required", ErrInvalid)
	}
	return checkEventStatus(e.Status)
}
