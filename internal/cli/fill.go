package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/govform/internal/presentation/tui"
	"github.com/aretw0/govform/pkg/domain"
	"github.com/aretw0/govform/pkg/sanitize"
	"github.com/aretw0/govform/pkg/wizard"
)

// Navigation choices offered after each step.
const (
	choiceContinue = "Continue"
	choiceBack     = "Back"
	choiceSave     = "Save and quit"
	choiceSubmit   = "Submit application"
	choiceRestart  = "Start over"
)

// ErrSavedForLater is returned by Fill when the user chose to stop.
var ErrSavedForLater = errors.New("progress saved for later")

// FillOptions configures the interactive wizard.
type FillOptions struct {
	// Render turns markdown into terminal output. Nil prints it raw.
	Render func(string) (string, error)
	// Load reads an upload from a path. Defaults to LoadFile.
	Load func(path string) (domain.File, error)
}

type fieldPrompt struct {
	label   string
	help    string
	options []string
	long    bool
}

var fieldPrompts = map[string]fieldPrompt{
	domain.FieldFullName:       {label: "Full name"},
	domain.FieldEmail:          {label: "Email"},
	domain.FieldPhone:          {label: "Phone", help: "10 to 15 digits; spaces, dashes, parentheses and + are allowed"},
	domain.FieldDateOfBirth:    {label: "Date of birth", help: "YYYY-MM-DD; applicants must be 18 or older"},
	domain.FieldAddress:        {label: "Street address"},
	domain.FieldCity:           {label: "City"},
	domain.FieldState:          {label: "State", options: domain.Regions},
	domain.FieldPostalCode:     {label: "ZIP code", help: "12345 or 12345-6789"},
	domain.FieldServiceType:    {label: "Service type", options: domain.ServiceTypes},
	domain.FieldRequestDetails: {label: "Request details (10 to 500 characters)", long: true},
	domain.FieldUrgencyLevel:   {label: "Urgency", options: domain.UrgencyLevels},
}

// Fill runs the wizard on the terminal until the application is submitted,
// the user saves for later or a prompt is aborted.
func Fill(ctx context.Context, form *wizard.Machine, p tui.Prompter, opts FillOptions) (domain.Snapshot, error) {
	if opts.Load == nil {
		opts.Load = LoadFile
	}
	render := func(md string) string {
		if opts.Render == nil {
			return md
		}
		out, err := opts.Render(md)
		if err != nil {
			return md
		}
		return out
	}

	for {
		s := form.Snapshot()
		if s.Submitted {
			_ = p.Info(ctx, render(tui.Summary(s)))
			return s, nil
		}

		if err := p.Info(ctx, tui.StepHeader(int(s.CurrentStep)+1, s.TotalSteps, s.CurrentStep.Title())); err != nil {
			return s, err
		}
		for _, f := range s.Errors.Fields() {
			_ = p.Info(ctx, tui.ErrorLine(f, s.Errors[f]))
		}

		var err error
		if s.CurrentStep == domain.StepDocuments {
			err = fillDocuments(ctx, form, p, s, opts.Load)
		} else {
			err = fillFields(ctx, form, p, s)
		}
		if err != nil {
			return form.Snapshot(), err
		}

		choices := []string{choiceContinue}
		if s.CurrentStep == domain.LastStep {
			choices = []string{choiceSubmit}
		}
		if s.CurrentStep > domain.FirstStep {
			choices = append(choices, choiceBack)
		}
		choices = append(choices, choiceSave, choiceRestart)

		choice, err := p.Select(ctx, "What next?", choices, choices[0])
		if err != nil {
			return form.Snapshot(), err
		}

		switch choice {
		case choiceContinue:
			if err := form.Advance(ctx); err != nil && !isValidation(err) {
				return form.Snapshot(), err
			}
		case choiceBack:
			if err := form.Retreat(ctx); err != nil {
				return form.Snapshot(), err
			}
		case choiceSave:
			if err := form.SaveProgress(ctx); err != nil {
				return form.Snapshot(), err
			}
			return form.Snapshot(), ErrSavedForLater
		case choiceRestart:
			sure, err := p.Confirm(ctx, "Clear every answer and saved progress?", false)
			if err != nil {
				return form.Snapshot(), err
			}
			if sure {
				form.Reset(ctx)
			}
		case choiceSubmit:
			if err := submit(ctx, form, p, render); err != nil {
				return form.Snapshot(), err
			}
		}
	}
}

func isValidation(err error) bool {
	var verr *wizard.ValidationError
	return errors.As(err, &verr)
}

func fillFields(ctx context.Context, form *wizard.Machine, p tui.Prompter, s domain.Snapshot) error {
	for _, key := range s.CurrentStep.Fields() {
		fp := fieldPrompts[key]
		current, _ := s.Data.Get(key)
		def, _ := current.(string)

		var (
			answer string
			err    error
		)
		switch {
		case len(fp.options) > 0:
			answer, err = p.Select(ctx, fp.label, fp.options, def)
		case fp.long:
			answer, err = p.Multiline(ctx, fp.label, def)
		default:
			answer, err = p.Input(ctx, fp.label, def, fp.help)
		}
		if err != nil {
			return err
		}

		clean, err := sanitize.Text(answer)
		if err != nil {
			_ = p.Info(ctx, tui.ErrorLine(key, err.Error()))
			continue
		}
		if err := form.UpdateField(key, clean); err != nil {
			return err
		}
	}
	return nil
}

func fillDocuments(ctx context.Context, form *wizard.Machine, p tui.Prompter, s domain.Snapshot, load func(string) (domain.File, error)) error {
	for _, d := range s.Data.Documents {
		_ = p.Info(ctx, "  • "+d.Name)
	}

	for {
		path, err := p.Input(ctx, "Path of a document to upload (empty to finish)", "", "PDF, JPEG, PNG or HEIC up to 10 MiB")
		if err != nil {
			return err
		}
		path = strings.TrimSpace(path)
		if path == "" {
			break
		}

		f, err := load(path)
		if err != nil {
			_ = p.Info(ctx, tui.ErrorLine(domain.FieldDocuments, err.Error()))
			continue
		}
		if _, err := form.AddDocument(ctx, f); err != nil {
			// Rejections are also reported through the notifier.
			_ = p.Info(ctx, tui.ErrorLine(domain.FieldDocuments, err.Error()))
			continue
		}
		_ = p.Info(ctx, fmt.Sprintf("  • %s", f.Name))
	}

	accept, err := p.Confirm(ctx, "I accept the terms and conditions", s.Data.TermsAccepted)
	if err != nil {
		return err
	}
	return form.UpdateField(domain.FieldTermsAccepted, accept)
}

func submit(ctx context.Context, form *wizard.Machine, p tui.Prompter, render func(string) string) error {
	if err := form.RequestSubmit(ctx); err != nil {
		if isValidation(err) {
			return nil
		}
		return err
	}

	_ = p.Info(ctx, render(tui.Summary(form.Snapshot())))
	ok, err := p.Confirm(ctx, "Submit this application?", true)
	if err != nil {
		return err
	}
	if !ok {
		return form.CancelSubmit(ctx)
	}

	if err := form.ConfirmSubmit(ctx); err != nil {
		return err
	}
	_ = p.Info(ctx, "Submitting application...")
	_, err = form.WaitSubmitted(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		// A gateway failure leaves the form on the last step for another try.
		_ = p.Info(ctx, tui.ErrorLine("submission", err.Error()))
		return nil
	}
	return err
}
