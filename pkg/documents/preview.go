package documents

import (
	"fmt"
	"sync"

	"github.com/aretw0/govform/pkg/domain"
)

// PreviewProvider derives a preview resource from an uploaded file and
// hands back an opaque handle for it.
type PreviewProvider interface {
	Create(docID string, f *domain.File) (string, error)
	Open(handle string) ([]byte, string, error)
	Release(handle string)
}

type preview struct {
	data      []byte
	mediaType string
}

// MemoryPreviews keeps preview bytes in process memory.
type MemoryPreviews struct {
	mu    sync.Mutex
	items map[string]preview
}

// NewMemoryPreviews creates an empty preview cache.
func NewMemoryPreviews() *MemoryPreviews {
	return &MemoryPreviews{items: make(map[string]preview)}
}

func (m *MemoryPreviews) Create(docID string, f *domain.File) (string, error) {
	if f == nil {
		return "", nil
	}
	handle := "preview:" + docID
	data := make([]byte, len(f.Data))
	copy(data, f.Data)

	m.mu.Lock()
	m.items[handle] = preview{data: data, mediaType: f.MediaType}
	m.mu.Unlock()
	return handle, nil
}

func (m *MemoryPreviews) Open(handle string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[handle]
	if !ok {
		return nil, "", fmt.Errorf("%w: preview %s released", domain.ErrDocumentNotFound, handle)
	}
	return p.data, p.mediaType, nil
}

func (m *MemoryPreviews) Release(handle string) {
	m.mu.Lock()
	delete(m.items, handle)
	m.mu.Unlock()
}

// Live is the number of handles not yet released.
func (m *MemoryPreviews) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
