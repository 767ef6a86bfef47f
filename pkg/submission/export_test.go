package submission

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/govform/pkg/domain"
)

func TestExport(t *testing.T) {
	data := domain.NewFormData()
	data.FullName = "Jane Doe"
	data.UrgencyLevel = domain.UrgencyStandard
	data.TermsAccepted = true
	data.Documents = []domain.Document{{
		ID: "doc_1", Name: "passport.pdf",
		File:    &domain.File{Name: "passport.pdf", Data: []byte("binary")},
		Preview: "preview:doc_1",
	}}

	at := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	e := NewExport(data, "X7K2QZ", at)

	assert.Equal(t, "gov-service-application-X7K2QZ.json", e.FileName())

	raw, err := e.JSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "X7K2QZ", decoded["confirmationNumber"])
	assert.Equal(t, "2024-06-15T12:00:00Z", decoded["submissionDate"])
	assert.Equal(t, "Jane Doe", decoded["fullName"])
	assert.Equal(t, []any{map[string]any{"id": "doc_1", "name": "passport.pdf"}}, decoded["documents"])
	assert.NotContains(t, string(raw), "binary")
	assert.NotContains(t, string(raw), "preview")
}
