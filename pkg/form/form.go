// Package form models the contact form of the coaching site without any
// rendering surface: an explicit state record, a pure reducer for field
// edits, and a submitting client with a single-flight guard.
package form

import (
	"regexp"
	"strings"
)

// Field names used by the form and by the server's per-field issue details.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPhone           = "phone"
	FieldServiceInterest = "service_interest"
	FieldMessage         = "message"
)

// ServiceOptions are the offering labels the form's service select renders.
var ServiceOptions = []string{
	"Private Lessons",
	"Group Lessons",
	"Video Analysis",
	"Tournament Coaching",
	"General Inquiry",
}

// Status is the form lifecycle state.
type Status int

const (
	StatusIdle Status = iota
	StatusSubmitting
	StatusSuccess
	StatusError
)

// Fields holds the mutable draft of the inquiry.
type Fields struct {
	Name            string
	Email           string
	Phone           string
	ServiceInterest string
	Message         string
}

// State is the complete observable state of the form: the draft, the
// per-field validation errors (only for fields currently invalid), the
// lifecycle status and the banner message shown on errors.
type State struct {
	Fields       Fields
	Errors       map[string]string
	Status       Status
	ErrorMessage string
}

// NewState returns a blank idle form.
func NewState() State {
	return State{Errors: map[string]string{}}
}

// SetField applies one field edit and returns the new state. Phone input is
// reformatted on every edit; an existing validation error on the edited
// field is cleared, other fields' errors are kept.
func SetField(s State, field, value string) State {
	if field == FieldPhone {
		value = FormatPhone(value)
	}

	next := s
	next.Fields = setFieldValue(s.Fields, field, value)

	if _, ok := s.Errors[field]; ok {
		next.Errors = make(map[string]string, len(s.Errors))
		for k, v := range s.Errors {
			if k != field {
				next.Errors[k] = v
			}
		}
	}

	return next
}

// SendAnother returns to a blank form after a successful submission.
func SendAnother(s State) State {
	return NewState()
}

func setFieldValue(f Fields, field, value string) Fields {
	switch field {
	case FieldName:
		f.Name = value
	case FieldEmail:
		f.Email = value
	case FieldPhone:
		f.Phone = value
	case FieldServiceInterest:
		f.ServiceInterest = value
	case FieldMessage:
		f.Message = value
	}
	return f
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate applies the pre-submission rules and returns one message per
// invalid field. An empty map means the draft may be submitted.
func Validate(f Fields) map[string]string {
	errs := map[string]string{}

	if strings.TrimSpace(f.Name) == "" {
		errs[FieldName] = "Name is required"
	}

	if strings.TrimSpace(f.Email) == "" {
		errs[FieldEmail] = "Email is required"
	} else if !emailPattern.MatchString(f.Email) {
		errs[FieldEmail] = "Please enter a valid email address"
	}

	if f.ServiceInterest == "" {
		errs[FieldServiceInterest] = "Please select a service"
	}

	if strings.TrimSpace(f.Message) == "" {
		errs[FieldMessage] = "Please include a message"
	}

	return errs
}
