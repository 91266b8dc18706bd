// Package registration models the sign-up forms attached to events: the field
// descriptors an admin builds, the way an event accepts registrations, and
// validation and export of the submitted answers.
package registration

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type FieldType string

const (
	FieldText   FieldType = "text"
	FieldEmail  FieldType = "email"
	FieldTel    FieldType = "tel"
	FieldNumber FieldType = "number"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldEmail, FieldTel, FieldNumber:
		return true
	}
	return false
}

// FormField describes one input of a registration form. ID is the key the
// submitted value is stored under and must not change once registrations exist.
type FormField struct {
	ID          string    `json:"id"`
	Type        FieldType `json:"type"`
	Label       string    `json:"label"`
	Required    bool      `json:"required"`
	Placeholder string    `json:"placeholder"`
}

// Form is the stored shape of an event's registration_form column.
type Form struct {
	Enabled bool        `json:"enabled"`
	Fields  []FormField `json:"fields"`
}

func DefaultFields() []FormField {
	return []FormField{
		{ID: "name", Type: FieldText, Label: "Full Name", Required: true, Placeholder: "Enter your full name"},
		{ID: "phone", Type: FieldTel, Label: "Phone Number", Required: true, Placeholder: "Enter your phone number"},
		{ID: "email", Type: FieldEmail, Label: "Email", Required: false, Placeholder: "Enter your email"},
		{ID: "age", Type: FieldNumber, Label: "Age", Required: false, Placeholder: "Enter your age"},
	}
}

// NewField mints a field with a fresh stable id.
func NewField(fieldType FieldType, label string, required bool, placeholder string) FormField {
	return FormField{
		ID:          "field_" + uuid.NewString(),
		Type:        fieldType,
		Label:       label,
		Required:    required,
		Placeholder: placeholder,
	}
}

// NormalizeFields fills in missing ids and types and rejects fields that
// cannot be rendered or would collide on their storage key.
func NormalizeFields(fields []FormField) ([]FormField, error) {
	out := make([]FormField, 0, len(fields))
	seen := make(map[string]bool, len(fields))

	for i, f := range fields {
		f.Label = strings.TrimSpace(f.Label)
		f.ID = strings.TrimSpace(f.ID)
		if f.Label == "" {
			return nil, fmt.Errorf("field %d has no label", i+1)
		}
		if f.Type == "" {
			f.Type = FieldText
		}
		if !f.Type.Valid() {
			return nil, fmt.Errorf("field %q has unsupported type %q", f.Label, f.Type)
		}
		if f.ID == "" {
			f.ID = NewField(f.Type, f.Label, f.Required, f.Placeholder).ID
		}
		if seen[f.ID] {
			return nil, fmt.Errorf("duplicate field id %q", f.ID)
		}
		seen[f.ID] = true
		out = append(out, f)
	}

	return out, nil
}
