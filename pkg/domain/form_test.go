package domain

import (
	"errors"
	"testing"
)

func TestFormData_Set(t *testing.T) {
	f := NewFormData()

	if err := f.Set(FieldCity, "Springfield"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.City != "Springfield" {
		t.Errorf("expected city to be set, got %q", f.City)
	}

	if err := f.Set(FieldTermsAccepted, "yes"); err != nil || !f.TermsAccepted {
		t.Errorf("expected terms accepted from string, err=%v", err)
	}

	if err := f.Set("favouriteColour", "blue"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
	if err := f.Set(FieldEmail, 42); !errors.Is(err, ErrFieldType) {
		t.Errorf("expected ErrFieldType, got %v", err)
	}
	if err := f.Set(FieldDocuments, []Document{}); !errors.Is(err, ErrFieldType) {
		t.Errorf("documents must not be settable, got %v", err)
	}
}

func TestParseStep(t *testing.T) {
	tests := []struct {
		in      string
		want    Step
		wantErr bool
	}{
		{"personal", StepPersonal, false},
		{"documents", StepDocuments, false},
		{"2", StepService, false},
		{"4", 0, true},
		{"-1", 0, true},
		{"review", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseStep(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStep(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseStep(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStep_Clamp(t *testing.T) {
	if Step(-3).Clamp() != FirstStep {
		t.Error("expected negative steps to clamp to the first step")
	}
	if Step(9).Clamp() != LastStep {
		t.Error("expected large steps to clamp to the last step")
	}
	if len(Regions) != 56 {
		t.Errorf("expected 56 regions, got %d", len(Regions))
	}
	if len(ServiceTypes) != 10 {
		t.Errorf("expected 10 service types, got %d", len(ServiceTypes))
	}
}
