package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaType(t *testing.T) {
	tests := map[string]string{
		"scan.PDF":   "application/pdf",
		"photo.jpg":  "image/jpeg",
		"photo.png":  "image/png",
		"photo.heic": "image/heic",
		"notes":      "application/octet-stream",
	}
	for path, want := range tests {
		assert.Equal(t, want, MediaType(path), path)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "id.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0o600))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id.pdf", f.Name)
	assert.Equal(t, "application/pdf", f.MediaType)
	assert.Equal(t, int64(8), f.Size)
	assert.Equal(t, []byte("%PDF-1.7"), f.Data)

	_, err = LoadFile(dir)
	assert.Error(t, err)
	_, err = LoadFile(filepath.Join(dir, "nope.pdf"))
	assert.Error(t, err)
}
