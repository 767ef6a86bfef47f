package domain

import (
	"fmt"
	"strings"
)

// Field names double as JSON keys, error keys and UpdateField keys.
const (
	FieldFullName       = "fullName"
	FieldEmail          = "email"
	FieldPhone          = "phone"
	FieldDateOfBirth    = "dateOfBirth"
	FieldAddress        = "address"
	FieldCity           = "city"
	FieldState          = "state"
	FieldPostalCode     = "postalCode"
	FieldServiceType    = "serviceType"
	FieldRequestDetails = "requestDetails"
	FieldUrgencyLevel   = "urgencyLevel"
	FieldDocuments      = "documents"
	FieldTermsAccepted  = "termsAccepted"
)

// UrgencyUnset is the default urgency value. It is not a selectable level.
const UrgencyUnset = "normal"

// FormData is the application being filled in.
type FormData struct {
	// Personal Information
	FullName    string `json:"fullName" yaml:"fullName"`
	Email       string `json:"email" yaml:"email"`
	Phone       string `json:"phone" yaml:"phone"`
	DateOfBirth string `json:"dateOfBirth" yaml:"dateOfBirth"`

	// Address Information
	Address    string `json:"address" yaml:"address"`
	City       string `json:"city" yaml:"city"`
	State      string `json:"state" yaml:"state"`
	PostalCode string `json:"postalCode" yaml:"postalCode"`

	// Service Request
	ServiceType    string `json:"serviceType" yaml:"serviceType"`
	RequestDetails string `json:"requestDetails" yaml:"requestDetails"`
	UrgencyLevel   string `json:"urgencyLevel" yaml:"urgencyLevel"`

	Documents []Document `json:"documents" yaml:"documents"`

	TermsAccepted bool `json:"termsAccepted" yaml:"termsAccepted"`
}

// NewFormData returns the empty defaults a new session starts with.
func NewFormData() FormData {
	return FormData{
		UrgencyLevel: UrgencyUnset,
		Documents:    []Document{},
	}
}

// Clone returns a copy that shares no slices with f.
func (f FormData) Clone() FormData {
	out := f
	out.Documents = make([]Document, len(f.Documents))
	copy(out.Documents, f.Documents)
	return out
}

// TextFields lists the keys that hold free or enumerated text.
var TextFields = []string{
	FieldFullName, FieldEmail, FieldPhone, FieldDateOfBirth,
	FieldAddress, FieldCity, FieldState, FieldPostalCode,
	FieldServiceType, FieldRequestDetails, FieldUrgencyLevel,
}

// IsTextField reports whether key names a text field.
func IsTextField(key string) bool {
	for _, f := range TextFields {
		if f == key {
			return true
		}
	}
	return false
}

// Get returns the value stored under key.
func (f *FormData) Get(key string) (any, error) {
	if p := f.textField(key); p != nil {
		return *p, nil
	}
	switch key {
	case FieldTermsAccepted:
		return f.TermsAccepted, nil
	case FieldDocuments:
		return f.Documents, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, key)
}

// Set assigns value to the field named key. Documents are managed by the
// registry and cannot be set here.
func (f *FormData) Set(key string, value any) error {
	if p := f.textField(key); p != nil {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s expects text, got %T", ErrFieldType, key, value)
		}
		*p = s
		return nil
	}
	switch key {
	case FieldTermsAccepted:
		switch v := value.(type) {
		case bool:
			f.TermsAccepted = v
		case string:
			b, ok := parseBool(v)
			if !ok {
				return fmt.Errorf("%w: %s expects a boolean, got %q", ErrFieldType, key, v)
			}
			f.TermsAccepted = b
		default:
			return fmt.Errorf("%w: %s expects a boolean, got %T", ErrFieldType, key, value)
		}
		return nil
	case FieldDocuments:
		return fmt.Errorf("%w: documents are added through uploads", ErrFieldType)
	}
	return fmt.Errorf("%w: %q", ErrUnknownField, key)
}

func (f *FormData) textField(key string) *string {
	switch key {
	case FieldFullName:
		return &f.FullName
	case FieldEmail:
		return &f.Email
	case FieldPhone:
		return &f.Phone
	case FieldDateOfBirth:
		return &f.DateOfBirth
	case FieldAddress:
		return &f.Address
	case FieldCity:
		return &f.City
	case FieldState:
		return &f.State
	case FieldPostalCode:
		return &f.PostalCode
	case FieldServiceType:
		return &f.ServiceType
	case FieldRequestDetails:
		return &f.RequestDetails
	case FieldUrgencyLevel:
		return &f.UrgencyLevel
	}
	return nil
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "on":
		return true, true
	case "false", "no", "n", "0", "off", "":
		return false, true
	}
	return false, false
}
