package validation

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/govform/pkg/domain"
)

const (
	// MinimumAge is the applicant age required on the date of validation.
	MinimumAge = 18

	// RequestDetailsMin and RequestDetailsMax bound the trimmed description.
	RequestDetailsMin = 10
	RequestDetailsMax = 500

	phoneMinDigits = 10
	phoneMaxDigits = 15

	dateLayout = "2006-01-02"
)

var (
	emailPattern  = regexp.MustCompile(`\S+@\S+\.\S+`)
	phonePattern  = regexp.MustCompile(`^[0-9()\-\s+]+$`)
	postalPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// Validator checks FormData one step at a time.
type Validator struct {
	now func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock overrides the source of "today".
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

// New creates a Validator using the wall clock unless overridden.
func New(opts ...Option) *Validator {
	v := &Validator{now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs the validator of a single step. Steps outside the valid
// range produce no errors.
func (v *Validator) Validate(data domain.FormData, step domain.Step) domain.FieldErrors {
	errs := domain.FieldErrors{}
	switch step {
	case domain.StepPersonal:
		v.personal(data, errs)
	case domain.StepAddress:
		address(data, errs)
	case domain.StepService:
		service(data, errs)
	case domain.StepDocuments:
		documents(data, errs)
	}
	return errs
}

// ValidateAll merges the errors of every step.
func (v *Validator) ValidateAll(data domain.FormData) domain.FieldErrors {
	all := domain.FieldErrors{}
	for _, step := range domain.Steps() {
		for k, msg := range v.Validate(data, step) {
			all[k] = msg
		}
	}
	return all
}

func (v *Validator) personal(data domain.FormData, errs domain.FieldErrors) {
	if blank(data.FullName) {
		errs[domain.FieldFullName] = "Full name is required"
	}

	switch {
	case blank(data.Email):
		errs[domain.FieldEmail] = "Email is required"
	case !emailPattern.MatchString(data.Email):
		errs[domain.FieldEmail] = "Email format is invalid"
	}

	switch {
	case blank(data.Phone):
		errs[domain.FieldPhone] = "Phone number is required"
	case !validPhone(data.Phone):
		errs[domain.FieldPhone] = "Phone number format is invalid"
	}

	if msg := v.dateOfBirth(data.DateOfBirth); msg != "" {
		errs[domain.FieldDateOfBirth] = msg
	}
}

func (v *Validator) dateOfBirth(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "Date of birth is required"
	}

	now := v.now()
	dob, err := time.ParseInLocation(dateLayout, raw, now.Location())
	if err != nil {
		return "Invalid date format"
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if dob.After(today) {
		return "Date of birth cannot be in the future"
	}

	// Calendar subtraction: the 18th birthday falls on the same month/day.
	// time.Date normalises Feb 29 on non-leap years to Mar 1.
	adult := time.Date(dob.Year()+MinimumAge, dob.Month(), dob.Day(), 0, 0, 0, 0, now.Location())
	if adult.After(today) {
		return "You must be at least 18 years old"
	}
	return ""
}

func validPhone(s string) bool {
	if !phonePattern.MatchString(s) {
		return false
	}
	digits := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= phoneMinDigits && digits <= phoneMaxDigits
}

func address(data domain.FormData, errs domain.FieldErrors) {
	if blank(data.Address) {
		errs[domain.FieldAddress] = "Street address is required"
	}
	if blank(data.City) {
		errs[domain.FieldCity] = "City is required"
	}

	switch {
	case blank(data.State):
		errs[domain.FieldState] = "State is required"
	case !domain.Contains(domain.Regions, data.State):
		errs[domain.FieldState] = "Please select a valid state"
	}

	switch postal := strings.TrimSpace(data.PostalCode); {
	case postal == "":
		errs[domain.FieldPostalCode] = "Postal/ZIP code is required"
	case !postalPattern.MatchString(postal):
		errs[domain.FieldPostalCode] = "Postal/ZIP code format is invalid (e.g., 12345 or 12345-6789)"
	}
}

func service(data domain.FormData, errs domain.FieldErrors) {
	switch {
	case blank(data.ServiceType):
		errs[domain.FieldServiceType] = "Service type is required"
	case !domain.Contains(domain.ServiceTypes, data.ServiceType):
		errs[domain.FieldServiceType] = "Please select a valid service type"
	}

	details := strings.TrimSpace(data.RequestDetails)
	switch n := utf8.RuneCountInString(details); {
	case n == 0:
		errs[domain.FieldRequestDetails] = "Request details are required"
	case n < RequestDetailsMin:
		errs[domain.FieldRequestDetails] = "Please provide more details (at least 10 characters)"
	case n > RequestDetailsMax:
		errs[domain.FieldRequestDetails] = "Request details must be 500 characters or fewer"
	}

	if !domain.Contains(domain.UrgencyLevels, data.UrgencyLevel) {
		errs[domain.FieldUrgencyLevel] = "Urgency level is required"
	}
}

func documents(data domain.FormData, errs domain.FieldErrors) {
	if len(data.Documents) == 0 {
		errs[domain.FieldDocuments] = "At least one document must be uploaded"
	}
	if !data.TermsAccepted {
		errs[domain.FieldTermsAccepted] = "You must accept the terms and conditions"
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
