package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the govform banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"   __ _  _____   __/ _| ___  _ __ _ __ ___  ", "#1d4ed8"},
		{"  / _` |/ _ \\ \\ / / |_ / _ \\| '__| '_ ` _ \\ ", "#2563eb"},
		{" | (_| | (_) \\ V /|  _| (_) | |  | | | | | |", "#3b82f6"},
		{"  \\__, |\\___/ \\_/ |_|  \\___/|_|  |_| |_| |_|", "#60a5fa"},
		{"  |___/                                      ", "#93c5fd"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, termenv.String("  "+v).Faint())
	}
	fmt.Fprintln(w)
}

// StepHeader renders "Step 2 of 4: Address Information".
func StepHeader(current, total int, title string) string {
	p := termenv.ColorProfile()
	return termenv.String(fmt.Sprintf("Step %d of %d: %s", current, total, title)).
		Foreground(p.Color("#2563eb")).Bold().String()
}

// ErrorLine renders a field error.
func ErrorLine(field, msg string) string {
	p := termenv.ColorProfile()
	return termenv.String(fmt.Sprintf("  ✗ %s: %s", field, msg)).Foreground(p.Color("#dc2626")).String()
}

// Notice renders a notification title and description.
func Notice(destructive bool, title, desc string) string {
	p := termenv.ColorProfile()
	color := "#16a34a"
	if destructive {
		color = "#dc2626"
	}
	s := termenv.String("● " + title).Foreground(p.Color(color)).Bold().String()
	if desc != "" {
		s += " " + desc
	}
	return s
}
