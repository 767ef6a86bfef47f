package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"

	"github.com/aretw0/govform/pkg/ports"
)

// Mask replaces masked values.
const Mask = "***"

// ErrReadOnly is returned by writes through a masked view.
var ErrReadOnly = errors.New("masked view is read-only")

// DefaultPIIPatterns match the personal fields of an application.
var DefaultPIIPatterns = []string{
	`(?i)^fullName$`, `(?i)^email$`, `(?i)^phone$`, `(?i)^dateOfBirth$`,
	`(?i)^address$`, `(?i)^postalCode$`,
}

type piiMiddleware struct {
	next     ports.SlotStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a read-only view that masks values of JSON object
// keys matching the patterns. Operators inspecting drafts go through it.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := CompilePatterns(patternStrings)
	return func(next ports.SlotStore) ports.SlotStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

// CompilePatterns compiles the given expressions, panicking on a bad one.
func CompilePatterns(patternStrings []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return patterns
}

func (m *piiMiddleware) Get(ctx context.Context, key string) (string, error) {
	value, err := m.next.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return MaskJSON(value, m.patterns), nil
}

func (m *piiMiddleware) Set(ctx context.Context, key, value string) error {
	return ErrReadOnly
}

func (m *piiMiddleware) Delete(ctx context.Context, key string) error {
	return ErrReadOnly
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// MaskJSON masks matching keys of a JSON object. Values that are not JSON
// objects are returned unchanged.
func MaskJSON(value string, patterns []*regexp.Regexp) string {
	var obj map[string]any
	if err := json.Unmarshal([]byte(value), &obj); err != nil || obj == nil {
		return value
	}
	maskMap(obj, patterns)
	out, err := json.Marshal(obj)
	if err != nil {
		return value
	}
	return string(out)
}

// Helpers

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		if Matches(k, patterns) {
			m[k] = Mask
			continue
		}
		switch t := v.(type) {
		case map[string]any:
			maskMap(t, patterns)
		case []any:
			for _, item := range t {
				if sub, ok := item.(map[string]any); ok {
					maskMap(sub, patterns)
				}
			}
		}
	}
}

// Matches reports whether key matches any pattern.
func Matches(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
