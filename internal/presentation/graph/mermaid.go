package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/govform/pkg/domain"
)

// Node ids of the submission states.
const (
	nodeStart     = "start"
	nodeConfirm   = "confirm"
	nodePending   = "pending"
	nodeSubmitted = "submitted"
)

// Overlay marks the progress of one session on the diagram.
type Overlay struct {
	Visited []string
	Current string
}

// OverlayFor derives the overlay of a snapshot. Steps before the current
// one count as visited; once submission starts the gate state is current.
func OverlayFor(s domain.Snapshot) *Overlay {
	o := &Overlay{Visited: []string{nodeStart}}
	for _, step := range domain.Steps() {
		if step < s.CurrentStep {
			o.Visited = append(o.Visited, step.String())
		}
	}
	switch {
	case s.Submitted:
		o.Visited = append(o.Visited, s.CurrentStep.String(), nodeConfirm, nodePending)
		o.Current = nodeSubmitted
	case s.Submission == domain.SubmissionPending:
		o.Visited = append(o.Visited, s.CurrentStep.String(), nodeConfirm)
		o.Current = nodePending
	case s.Submission == domain.SubmissionAwaiting:
		o.Visited = append(o.Visited, s.CurrentStep.String())
		o.Current = nodeConfirm
	default:
		o.Current = s.CurrentStep.String()
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the application flow.
// It applies semantic styling:
// - Start and Submitted: ((Circle))
// - Steps (Input): [/Parallelogram/]
// - Confirmation gate: {Diamond}
// - Processing: [[Subroutine]]
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	node := func(id, opener, label, closer string) {
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", sanitizeMermaidID(id), opener, label, closer))
	}
	edge := func(from, arrow, to string) {
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", sanitizeMermaidID(from), arrow, sanitizeMermaidID(to)))
	}

	node(nodeStart, "((", "start", "))")
	steps := domain.Steps()
	for _, step := range steps {
		node(step.String(), "[/", step.Title(), "/]")
	}
	node(nodeConfirm, "{", "Confirm submission", "}")
	node(nodePending, "[[", "Processing", "]]")
	node(nodeSubmitted, "((", "Submitted", "))")

	edge(nodeStart, "-->", steps[0].String())
	for i := 0; i+1 < len(steps); i++ {
		edge(steps[i].String(), `-- "valid" -->`, steps[i+1].String())
		edge(steps[i+1].String(), `-. "back" .->`, steps[i].String())
	}

	last := steps[len(steps)-1].String()
	edge(last, `-- "submit" -->`, nodeConfirm)
	edge(nodeConfirm, `-- "confirm" -->`, nodePending)
	edge(nodeConfirm, `-. "cancel" .->`, last)
	edge(nodePending, "-->", nodeSubmitted)
	edge(nodePending, `-. "failed" .->`, last)

	// A new application starts over from the first step.
	edge(nodeSubmitted, "-. ⚡ reset .->", steps[0].String())

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.Visited {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" && id != overlay.Current {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.Current != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.Current)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
