package database

import (
	"time"

	"churchsite/registration"

	"gorm.io/datatypes"
)

const (
	NewsStatusDraft     = "draft"
	NewsStatusPublished = "published"

	EventStatusDraft    = "draft"
	EventStatusUpcoming = "upcoming"

	MembershipPending  = "pending"
	MembershipApproved = "approved"
	MembershipRejected = "rejected"
)

type News struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Content     string     `gorm:"type:text" json:"content"`
	Category    string     `gorm:"index" json:"category"`
	Author      string     `json:"author"`
	Status      string     `gorm:"index;not null;default:draft" json:"status"`
	ImageURL    string     `json:"image_url"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (News) TableName() string { return "news" }

type Event struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Date        time.Time `gorm:"index" json:"date"`
	Time        string    `json:"time"`
	Location    string    `json:"location"`
	Category    string    `gorm:"index" json:"category"`
	Attendees   string    `json:"attendees"`
	Status      string    `gorm:"index;not null;default:draft" json:"status"`
	ImageURL    string    `json:"image_url"`

	// Written only through SetRegistrationMode so that at most one of them
	// is active.
	ExternalLink     *string        `json:"external_link"`
	RegistrationForm datatypes.JSON `json:"registration_form"`

	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Event) TableName() string { return "events" }

func (e *Event) RegistrationMode() (registration.Mode, error) {
	return registration.Decode(e.RegistrationForm, e.ExternalLink)
}

func (e *Event) SetRegistrationMode(m registration.Mode) error {
	form, link, err := m.Columns()
	if err != nil {
		return err
	}
	e.RegistrationForm = datatypes.JSON(form)
	e.ExternalLink = link
	return nil
}

type EventRegistration struct {
	ID               uint                                  `gorm:"primaryKey" json:"id"`
	EventID          uint                                  `gorm:"index;not null" json:"event_id"`
	RegistrationData datatypes.JSONType[map[string]string] `json:"registration_data"`
	CreatedAt        time.Time                             `json:"created_at"`
}

func (EventRegistration) TableName() string { return "event_registrations" }

type Album struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Date        time.Time `json:"date"`
	Category    string    `gorm:"index" json:"category"`
	// ImageURL is the thumbnail: the lowest-ordered image of the album.
	ImageURL   string    `json:"image_url"`
	ImageCount int       `gorm:"not null;default:0" json:"image_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Album) TableName() string { return "albums" }

type AlbumImage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AlbumID    uint      `gorm:"index;not null" json:"album_id"`
	ImageURL   string    `gorm:"not null" json:"image_url"`
	ImageOrder int       `gorm:"not null;default:0" json:"image_order"`
	CreatedAt  time.Time `json:"created_at"`
}

func (AlbumImage) TableName() string { return "album_images" }

type AdditionalMember struct {
	Name               string `json:"name" validate:"required"`
	DateOfBirth        string `json:"dateOfBirth"`
	DateOfBaptism      string `json:"dateOfBaptism"`
	DateOfConfirmation string `json:"dateOfConfirmation"`
}

type MembershipRegistration struct {
	ID uint `gorm:"primaryKey" json:"id"`

	FirstName          string `gorm:"not null" json:"first_name" validate:"required"`
	LastName           string `gorm:"not null" json:"last_name" validate:"required"`
	DateOfBirth        string `json:"date_of_birth"`
	DateOfBaptism      string `json:"date_of_baptism"`
	DateOfConfirmation string `json:"date_of_confirmation"`
	Gender             string `json:"gender"`
	MaritalStatus      string `json:"marital_status"`
	Address            string `gorm:"type:text" json:"address"`
	Phone              string `json:"phone"`
	Email              string `json:"email" validate:"required_without=Phone,omitempty,email"`
	Occupation         string `json:"occupation"`

	SpouseName               string `json:"spouse_name"`
	SpouseDateOfBirth        string `json:"spouse_date_of_birth"`
	SpouseDateOfBaptism      string `json:"spouse_date_of_baptism"`
	SpouseDateOfConfirmation string `json:"spouse_date_of_confirmation"`
	SpousePhone              string `json:"spouse_phone"`
	SpouseEmail              string `json:"spouse_email" validate:"omitempty,email"`

	AdditionalMembers datatypes.JSONType[[]AdditionalMember] `json:"additional_members"`

	RegistrationStatus string     `gorm:"index;not null;default:pending" json:"registration_status"`
	Notes              string     `gorm:"type:text" json:"notes"`
	ProcessedBy        string     `json:"processed_by"`
	ProcessedAt        *time.Time `json:"processed_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (MembershipRegistration) TableName() string { return "membership_registrations" }

func (m *MembershipRegistration) FullName() string {
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}

type MassSettings struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ChurchName string    `json:"church_name"`
	Email      string    `json:"email"`
	MassTime   string    `gorm:"type:text" json:"mass_time"`
	Address    string    `gorm:"type:text" json:"address"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (MassSettings) TableName() string { return "mass" }

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }

func AllModels() []any {
	return []any{
		&User{},
		&News{},
		&Event{},
		&EventRegistration{},
		&Album{},
		&AlbumImage{},
		&MembershipRegistration{},
		&MassSettings{},
	}
}
