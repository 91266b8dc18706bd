package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"churchsite/database"
	"churchsite/registration"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrRegistrationClosed is returned when an event does not take registrations
// through its own form.
var ErrRegistrationClosed = errors.New("event does not accept form registrations")

type RegistrationService struct {
	db     *gorm.DB
	events *EventService
}

func NewRegistrationService(db *gorm.DB, events *EventService) *RegistrationService {
	return &RegistrationService{db: db, events: events}
}

// Submit validates data against the event's form and stores it. Nothing is
// written when validation fails.
func (s *RegistrationService) Submit(ctx context.Context, event *database.Event, data map[string]string) (*database.EventRegistration, error) {
	mode := s.events.Mode(event)
	if mode.Kind() != registration.KindForm {
		return nil, ErrRegistrationClosed
	}

	clean, err := registration.Validate(mode.Fields(), data)
	if err != nil {
		return nil, err
	}

	reg := &database.EventRegistration{
		EventID:          event.ID,
		RegistrationData: datatypes.NewJSONType(clean),
	}
	if err := s.db.WithContext(ctx).Create(reg).Error; err != nil {
		return nil, fmt.Errorf("error saving registration for event %d: %w", event.ID, err)
	}
	return reg, nil
}

func (s *RegistrationService) ListByEvent(ctx context.Context, eventID uint) ([]database.EventRegistration, error) {
	return findAll[database.EventRegistration](ctx, s.db, "registrations", "created_at ASC, id ASC", "event_id = ?", eventID)
}

func (s *RegistrationService) CountByEvent(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&database.EventRegistration{}).Where("event_id = ?", eventID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("error counting registrations for event %d: %w", eventID, err)
	}
	return count, nil
}

// ExportCSV writes every registration of event as CSV, columns in form order.
func (s *RegistrationService) ExportCSV(ctx context.Context, w io.Writer, event *database.Event) error {
	regs, err := s.ListByEvent(ctx, event.ID)
	if err != nil {
		return err
	}

	entries := make([]registration.Entry, 0, len(regs))
	for _, r := range regs {
		entries = append(entries, registration.Entry{
			SubmittedAt: r.CreatedAt,
			Data:        r.RegistrationData.Data(),
		})
	}

	return registration.ExportCSV(w, s.events.Mode(event).Fields(), entries)
}
