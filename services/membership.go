package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"churchsite/database"
	"churchsite/registration"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MembershipService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{db: db, now: time.Now}
}

func (s *MembershipService) GetAll(ctx context.Context) ([]database.MembershipRegistration, error) {
	return findAll[database.MembershipRegistration](ctx, s.db, "membership registrations", newestFirst, nil)
}

func (s *MembershipService) GetByID(ctx context.Context, id uint) (*database.MembershipRegistration, error) {
	return findByID[database.MembershipRegistration](ctx, s.db, id, "membership registration")
}

func (s *MembershipService) GetByStatus(ctx context.Context, status string) ([]database.MembershipRegistration, error) {
	if err := checkMembershipStatus(status); err != nil {
		return nil, err
	}
	return findAll[database.MembershipRegistration](ctx, s.db, "membership registrations by status", newestFirst,
		"registration_status = ?", status)
}

// Create stores a public application. Applications always start pending and
// carry no processing details.
func (s *MembershipService) Create(ctx context.Context, m *database.MembershipRegistration) (*database.MembershipRegistration, error) {
	if err := validateMembership(m); err != nil {
		return nil, err
	}

	m.ID = 0
	m.RegistrationStatus = database.MembershipPending
	m.ProcessedBy = ""
	m.ProcessedAt = nil
	m.Notes = ""
	m.CreatedAt = time.Time{}
	m.UpdatedAt = time.Time{}

	if m.AdditionalMembers.Data() == nil {
		m.AdditionalMembers = datatypes.NewJSONType([]database.AdditionalMember{})
	}

	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, fmt.Errorf("error creating membership registration: %w", err)
	}
	return m, nil
}

// UpdateStatus records an admin decision on an application.
func (s *MembershipService) UpdateStatus(ctx context.Context, id uint, status, processedBy, notes string) (*database.MembershipRegistration, error) {
	if err := checkMembershipStatus(status); err != nil {
		return nil, err
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("membership registration %d: %w", id, ErrNotFound)
	}

	existing.RegistrationStatus = status
	existing.ProcessedBy = processedBy
	existing.Notes = notes
	if status == database.MembershipPending {
		existing.ProcessedAt = nil
	} else {
		t := s.now().UTC()
		existing.ProcessedAt = &t
	}

	err = s.db.WithContext(ctx).Model(existing).Select("registration_status", "processed_by", "notes", "processed_at", "updated_at").
		Updates(existing).Error
	if err != nil {
		return nil, fmt.Errorf("error updating membership registration %d: %w", id, err)
	}
	return existing, nil
}

func (s *MembershipService) Delete(ctx context.Context, id uint) error {
	return deleteByID[database.MembershipRegistration](ctx, s.db, id, "membership registration")
}

func checkMembershipStatus(status string) error {
	switch status {
	case database.MembershipPending, database.MembershipApproved, database.MembershipRejected:
		return nil
	}
	return fmt.Errorf("%w %q for membership registration", ErrInvalidStatus, status)
}

func validateMembership(m *database.MembershipRegistration) error {
	m.FirstName = strings.TrimSpace(m.FirstName)
	m.LastName = strings.TrimSpace(m.LastName)
	m.Phone = strings.TrimSpace(m.Phone)
	m.Email = strings.TrimSpace(m.Email)
	m.SpouseEmail = strings.TrimSpace(m.SpouseEmail)

	members := m.AdditionalMembers.Data()
	for i := range members {
		members[i].Name = strings.TrimSpace(members[i].Name)
	}
	if members != nil {
		m.AdditionalMembers = datatypes.NewJSONType(members)
	}

	verr := &registration.ValidationError{}
	if err := collect(verr, "", "", registration.Struct(m)); err != nil {
		return err
	}
	for i, am := range members {
		field, msg := fmt.Sprintf("additional_members[%d].", i), fmt.Sprintf("Additional member %d: ", i+1)
		if err := collect(verr, field, msg, registration.Struct(am)); err != nil {
			return err
		}
	}
	return verr.Err()
}

// collect moves the problems of a validation error into verr, prefixing
// their field names and messages. Any other error is returned as is.
func collect(verr *registration.ValidationError, fieldPrefix, msgPrefix string, err error) error {
	var fieldErrs *registration.ValidationError
	if !errors.As(err, &fieldErrs) {
		return err
	}
	for _, p := range fieldErrs.Problems {
		verr.Add(fieldPrefix+p.Field, "%s%s", msgPrefix, p.Message)
	}
	return nil
}
