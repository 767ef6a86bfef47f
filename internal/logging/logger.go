package logging

import (
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// Redacted replaces attribute values whose keys look personal.
const Redacted = "[REDACTED]"

// DefaultRedactPatterns match attribute keys carrying applicant data.
var DefaultRedactPatterns = []string{
	`(?i)full_?name`, `(?i)e_?mail`, `(?i)phone`, `(?i)date_?of_?birth`, `(?i)^dob$`,
	`(?i)^address$`, `(?i)postal_?code`,
}

// Option configures the handler built by New.
type Option func(*config)

type config struct {
	out    io.Writer
	format string
	redact []*regexp.Regexp
}

// WithOutput changes the destination (default os.Stderr).
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		c.out = w
	}
}

// WithFormat selects "text" (default) or "json".
func WithFormat(format string) Option {
	return func(c *config) {
		c.format = strings.ToLower(format)
	}
}

// WithRedaction masks values of attributes whose keys match any pattern.
func WithRedaction(patterns ...string) Option {
	return func(c *config) {
		for _, p := range patterns {
			c.redact = append(c.redact, regexp.MustCompile(p))
		}
	}
}

// New creates a configured application logger.
// It writes to Stderr (to separate from Stdout flow UI/JSON-RPC).
// It standardizes common keys (e.g., "error" -> "err").
func New(level slog.Level, opts ...Option) *slog.Logger {
	cfg := &config{out: os.Stderr, format: "text"}
	for _, opt := range opts {
		opt(cfg)
	}

	handlerOpts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			for _, p := range cfg.redact {
				if p.MatchString(a.Key) {
					return slog.String(a.Key, Redacted)
				}
			}
			return a
		},
	}

	if cfg.format == "json" {
		return slog.New(slog.NewJSONHandler(cfg.out, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(cfg.out, handlerOpts))
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Unknown values fall back to info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
