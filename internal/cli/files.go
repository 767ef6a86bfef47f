package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/govform/pkg/documents"
	"github.com/aretw0/govform/pkg/domain"
)

// extensions missing from common mime tables.
var extraTypes = map[string]string{
	".heic": "image/heic",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// MediaType guesses a media type from the file extension.
func MediaType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := extraTypes[ext]; ok {
		return t
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return "application/octet-stream"
	}
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return t
}

// LoadFile reads an upload from disk. Oversized files are reported with
// their size without being read.
func LoadFile(path string) (domain.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.File{}, err
	}
	if info.IsDir() {
		return domain.File{}, fmt.Errorf("%s is a directory", path)
	}

	f := domain.File{
		Name:      filepath.Base(path),
		MediaType: MediaType(path),
		Size:      info.Size(),
	}
	if f.Size > documents.MaxFileSize {
		return f, nil
	}
	if f.Data, err = os.ReadFile(path); err != nil {
		return domain.File{}, err
	}
	return f, nil
}
