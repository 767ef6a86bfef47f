package http

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var openapiYAML []byte

// Spec is the parsed OpenAPI description served on /openapi.yaml.
type Spec struct {
	raw []byte
	doc *openapi3.T
}

// LoadSpec parses and validates the embedded document.
func LoadSpec() (*Spec, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openapiYAML)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("openapi: invalid document: %w", err)
	}
	return &Spec{raw: openapiYAML, doc: doc}, nil
}

// Raw returns the YAML source.
func (s *Spec) Raw() []byte { return s.raw }

// Version is info.version of the document.
func (s *Spec) Version() string {
	if s.doc.Info == nil {
		return ""
	}
	return s.doc.Info.Version
}

// Operations lists "METHOD /path" for every documented operation, sorted.
func (s *Spec) Operations() []string {
	var ops []string
	for path, item := range s.doc.Paths.Map() {
		for method := range item.Operations() {
			ops = append(ops, strings.ToUpper(method)+" "+path)
		}
	}
	sort.Strings(ops)
	return ops
}

// HasOperation reports whether method and path are documented.
func (s *Spec) HasOperation(method, path string) bool {
	item := s.doc.Paths.Find(path)
	if item == nil {
		return false
	}
	return item.GetOperation(strings.ToUpper(method)) != nil
}

