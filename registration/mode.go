package registration

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

type Kind string

const (
	KindNone         Kind = "none"
	KindForm         Kind = "form"
	KindExternalLink Kind = "external_link"
)

// Mode is how an event accepts registrations. Exactly one of the variants is
// active; construct it with NoRegistration, FormMode or ExternalLinkMode.
type Mode struct {
	kind   Kind
	fields []FormField
	link   string
}

func NoRegistration() Mode {
	return Mode{kind: KindNone}
}

func FormMode(fields []FormField) (Mode, error) {
	if len(fields) == 0 {
		fields = DefaultFields()
	}
	normalized, err := NormalizeFields(fields)
	if err != nil {
		return Mode{}, err
	}
	return Mode{kind: KindForm, fields: normalized}, nil
}

func ExternalLinkMode(link string) (Mode, error) {
	link = strings.TrimSpace(link)
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Mode{}, fmt.Errorf("external registration link must be an absolute http(s) URL: %q", link)
	}
	return Mode{kind: KindExternalLink, link: link}, nil
}

func (m Mode) Kind() Kind {
	if m.kind == "" {
		return KindNone
	}
	return m.kind
}

// Fields returns the form fields, or nil unless the mode is KindForm.
func (m Mode) Fields() []FormField {
	return m.fields
}

// Link returns the external URL, or "" unless the mode is KindExternalLink.
func (m Mode) Link() string {
	return m.link
}

// ErrInconsistentMode is returned by Decode when a stored row has both an
// enabled form and an external link.
var ErrInconsistentMode = errors.New("event has both a registration form and an external link")

// Columns encodes m onto the legacy pair of nullable columns
// (registration_form, external_link).
func (m Mode) Columns() (form []byte, link *string, err error) {
	switch m.Kind() {
	case KindForm:
		form, err = json.Marshal(Form{Enabled: true, Fields: m.fields})
		return form, nil, err
	case KindExternalLink:
		l := m.link
		return nil, &l, nil
	default:
		return nil, nil, nil
	}
}

// Decode reads a mode back from the stored columns. When both are active the
// form wins and ErrInconsistentMode is returned together with the mode.
func Decode(form []byte, link *string) (Mode, error) {
	var f Form
	if len(form) > 0 && string(form) != "null" {
		if err := json.Unmarshal(form, &f); err != nil {
			return NoRegistration(), fmt.Errorf("error decoding registration form: %w", err)
		}
	}

	hasLink := link != nil && strings.TrimSpace(*link) != ""

	switch {
	case f.Enabled && hasLink:
		return Mode{kind: KindForm, fields: f.Fields}, ErrInconsistentMode
	case f.Enabled:
		return Mode{kind: KindForm, fields: f.Fields}, nil
	case hasLink:
		return Mode{kind: KindExternalLink, link: strings.TrimSpace(*link)}, nil
	default:
		return NoRegistration(), nil
	}
}
