package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/aretw0/govform/pkg/documents"
	"github.com/aretw0/govform/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// Summary renders a snapshot as markdown: the review shown before
// submission and the receipt shown after it.
func Summary(s domain.Snapshot) string {
	var b strings.Builder
	d := s.Data

	if s.Submitted && s.Receipt != nil {
		b.WriteString("# Application Submitted\n\n")
		fmt.Fprintf(&b, "**Confirmation number:** `%s`  \n", s.Receipt.ConfirmationNumber)
		fmt.Fprintf(&b, "**Submitted at:** %s\n\n", s.Receipt.SubmittedAt.Format("January 2, 2006 15:04 MST"))
	} else {
		fmt.Fprintf(&b, "# Application Review\n\nStep %d of %d: %s\n\n", int(s.CurrentStep)+1, s.TotalSteps, s.CurrentStep.Title())
	}

	section := func(title string, rows [][2]string) {
		fmt.Fprintf(&b, "## %s\n\n| Field | Value |\n|---|---|\n", title)
		for _, r := range rows {
			v := r[1]
			if v == "" {
				v = "_not provided_"
			}
			fmt.Fprintf(&b, "| %s | %s |\n", r[0], strings.ReplaceAll(v, "|", "\\|"))
		}
		b.WriteString("\n")
	}

	section(domain.StepPersonal.Title(), [][2]string{
		{"Full name", d.FullName}, {"Email", d.Email}, {"Phone", d.Phone}, {"Date of birth", d.DateOfBirth},
	})
	section(domain.StepAddress.Title(), [][2]string{
		{"Street", d.Address}, {"City", d.City}, {"State", d.State}, {"Postal code", d.PostalCode},
	})
	urgency := d.UrgencyLevel
	if urgency == domain.UrgencyUnset {
		urgency = ""
	}
	section(domain.StepService.Title(), [][2]string{
		{"Service", d.ServiceType}, {"Urgency", urgency}, {"Details", strings.ReplaceAll(d.RequestDetails, "\n", " ")},
	})

	fmt.Fprintf(&b, "## %s\n\n", domain.StepDocuments.Title())
	if len(d.Documents) == 0 {
		b.WriteString("_No documents uploaded._\n\n")
	}
	for _, doc := range d.Documents {
		if doc.File != nil {
			fmt.Fprintf(&b, "- %s (%s)\n", doc.Name, documents.FormatSize(doc.File.Size))
		} else {
			fmt.Fprintf(&b, "- %s\n", doc.Name)
		}
	}
	terms := "not accepted"
	if d.TermsAccepted {
		terms = "accepted"
	}
	fmt.Fprintf(&b, "\nTerms and conditions: **%s**\n", terms)

	if len(s.Errors) > 0 {
		b.WriteString("\n## Needs attention\n\n")
		for _, f := range s.Errors.Fields() {
			fmt.Fprintf(&b, "- **%s**: %s\n", f, s.Errors[f])
		}
	}
	return b.String()
}
