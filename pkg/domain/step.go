package domain

import (
	"fmt"
	"strconv"
)

// Step identifies one page of the wizard.
type Step int

const (
	StepPersonal Step = iota
	StepAddress
	StepService
	StepDocuments
)

// TotalSteps is the fixed number of pages.
const TotalSteps = 4

// FirstStep and LastStep bound every step index.
const (
	FirstStep = StepPersonal
	LastStep  = Step(TotalSteps - 1)
)

var stepNames = [TotalSteps]string{"personal", "address", "service", "documents"}

var stepTitles = [TotalSteps]string{
	"Personal Information",
	"Address Information",
	"Service Request",
	"Document Upload",
}

// Valid reports whether s is within [FirstStep, LastStep].
func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

// Clamp forces s into the valid range.
func (s Step) Clamp() Step {
	if s < FirstStep {
		return FirstStep
	}
	if s > LastStep {
		return LastStep
	}
	return s
}

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Title is the human readable page title.
func (s Step) Title() string {
	if !s.Valid() {
		return s.String()
	}
	return stepTitles[s]
}

// Fields lists the keys a step is responsible for.
func (s Step) Fields() []string {
	switch s {
	case StepPersonal:
		return []string{FieldFullName, FieldEmail, FieldPhone, FieldDateOfBirth}
	case StepAddress:
		return []string{FieldAddress, FieldCity, FieldState, FieldPostalCode}
	case StepService:
		return []string{FieldServiceType, FieldRequestDetails, FieldUrgencyLevel}
	case StepDocuments:
		return []string{FieldDocuments, FieldTermsAccepted}
	}
	return nil
}

// ParseStep accepts a step name or its index.
func ParseStep(s string) (Step, error) {
	for i, name := range stepNames {
		if name == s {
			return Step(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && Step(n).Valid() {
		return Step(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrStepOutOfRange, s)
}

// Steps returns every step in order.
func Steps() []Step {
	out := make([]Step, TotalSteps)
	for i := range out {
		out[i] = Step(i)
	}
	return out
}
