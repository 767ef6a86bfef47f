package documents

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/aretw0/govform/pkg/domain"
)

// MaxFileSize is the largest accepted upload, in bytes.
const MaxFileSize int64 = 10 * 1024 * 1024

// AcceptedTypes are the media types an upload may declare.
var AcceptedTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"image/heic",
}

// RejectReason tells why an upload was refused.
type RejectReason string

const (
	ReasonType RejectReason = "unsupported_type"
	ReasonSize RejectReason = "too_large"
)

// RejectionError is returned by Add when a file does not meet the policy.
// The registry is left untouched.
type RejectionError struct {
	FileName  string
	MediaType string
	Size      int64
	Reason    RejectReason
}

func (e *RejectionError) Error() string {
	if e.Reason == ReasonSize {
		return fmt.Sprintf("File %s exceeds the maximum size of 10MB.", e.FileName)
	}
	return fmt.Sprintf("File type %s is not accepted. Please upload PDF, JPEG, PNG, or HEIC files.", e.MediaType)
}

// Check applies the acceptance policy to a file without registering it.
func Check(f domain.File) error {
	if !domain.Contains(AcceptedTypes, strings.ToLower(f.MediaType)) {
		return &RejectionError{FileName: f.Name, MediaType: f.MediaType, Size: f.Size, Reason: ReasonType}
	}
	if f.Size > MaxFileSize {
		return &RejectionError{FileName: f.Name, MediaType: f.MediaType, Size: f.Size, Reason: ReasonSize}
	}
	return nil
}

// FormatSize renders a byte count with 1024-based units, as shown to users.
func FormatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// Registry is the ordered, id-unique list of documents of one session.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	docs     []domain.Document
	previews PreviewProvider
	ids      *IDGenerator
}

// Option configures a Registry.
type Option func(*Registry)

// WithPreviewProvider sets where preview handles come from.
func WithPreviewProvider(p PreviewProvider) Option {
	return func(r *Registry) {
		r.previews = p
	}
}

// WithIDGenerator shares an id source between registries.
func WithIDGenerator(g *IDGenerator) Option {
	return func(r *Registry) {
		r.ids = g
	}
}

// NewRegistry creates an empty registry backed by an in-memory preview cache.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	if r.previews == nil {
		r.previews = NewMemoryPreviews()
	}
	if r.ids == nil {
		r.ids = DefaultIDs
	}
	return r
}

// Add validates f and appends it as a new document.
func (r *Registry) Add(f domain.File) (domain.Document, error) {
	if err := Check(f); err != nil {
		return domain.Document{}, err
	}

	file := f
	doc := domain.Document{
		ID:   r.ids.Next(),
		Name: f.Name,
		File: &file,
	}
	handle, err := r.previews.Create(doc.ID, &file)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to create preview for %s: %w", f.Name, err)
	}
	doc.Preview = handle

	r.mu.Lock()
	r.docs = append(r.docs, doc)
	r.mu.Unlock()

	return doc, nil
}

// Remove drops the document with the given id and releases its preview.
// It reports whether a document was removed; an absent id is a no-op.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	idx := -1
	for i, d := range r.docs {
		if d.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return false
	}
	doc := r.docs[idx]
	r.docs = append(r.docs[:idx:idx], r.docs[idx+1:]...)
	r.mu.Unlock()

	r.release(doc)
	return true
}

// Replace swaps the whole list, releasing every preview previously held.
// Incoming documents keep whatever handles they carry.
func (r *Registry) Replace(docs []domain.Document) {
	next := make([]domain.Document, len(docs))
	copy(next, docs)

	r.mu.Lock()
	old := r.docs
	r.docs = next
	r.mu.Unlock()

	for _, d := range old {
		r.release(d)
	}
}

// Clear empties the registry, releasing every preview.
func (r *Registry) Clear() {
	r.Replace(nil)
}

// List returns a copy of the documents in upload order.
func (r *Registry) List() []domain.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Document, len(r.docs))
	copy(out, r.docs)
	return out
}

// Len is the number of documents held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

// Get looks a document up by id.
func (r *Registry) Get(id string) (domain.Document, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.ID == id {
			return d, true
		}
	}
	return domain.Document{}, false
}

// Preview returns the preview bytes and media type of a document.
func (r *Registry) Preview(id string) ([]byte, string, error) {
	doc, ok := r.Get(id)
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}
	if doc.Preview == "" {
		return nil, "", fmt.Errorf("%w: %s has no preview", domain.ErrDocumentNotFound, id)
	}
	return r.previews.Open(doc.Preview)
}

func (r *Registry) release(d domain.Document) {
	if d.Preview != "" {
		r.previews.Release(d.Preview)
	}
}

// IDGenerator hands out time-based document ids that are strictly
// increasing within the process even when the clock does not move.
type IDGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// DefaultIDs is the process-wide id source.
var DefaultIDs = NewIDGenerator(time.Now)

// NewIDGenerator creates a generator reading the given clock.
func NewIDGenerator(now func() time.Time) *IDGenerator {
	return &IDGenerator{now: now}
}

// Next returns a fresh id of the form doc_<unix-nanos>.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.now().UnixNano()
	if n <= g.last {
		n = g.last + 1
	}
	g.last = n
	return "doc_" + strconv.FormatInt(n, 10)
}
