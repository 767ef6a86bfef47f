package documents

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/govform/pkg/domain"
)

// countingPreviews records how often each handle is released.
type countingPreviews struct {
	*MemoryPreviews
	mu       sync.Mutex
	released map[string]int
}

func newCountingPreviews() *countingPreviews {
	return &countingPreviews{MemoryPreviews: NewMemoryPreviews(), released: map[string]int{}}
}

func (c *countingPreviews) Release(handle string) {
	c.mu.Lock()
	c.released[handle]++
	c.mu.Unlock()
	c.MemoryPreviews.Release(handle)
}

func pdf(name string, size int64) domain.File {
	return domain.File{Name: name, MediaType: "application/pdf", Size: size, Data: []byte("%PDF")}
}

func TestRegistry_AddAndList(t *testing.T) {
	r := NewRegistry()

	a, err := r.Add(pdf("passport.pdf", 1024))
	require.NoError(t, err)
	b, err := r.Add(domain.File{Name: "photo.PNG", MediaType: "image/png", Size: 2048})
	require.NoError(t, err)

	docs := r.List()
	require.Len(t, docs, 2)
	assert.Equal(t, a.ID, docs[0].ID)
	assert.Equal(t, b.ID, docs[1].ID)
	assert.Equal(t, "passport.pdf", docs[0].Name)
	assert.NotNil(t, docs[0].File)
	assert.NotEmpty(t, docs[0].Preview)
	assert.Regexp(t, `^doc_\d+$`, a.ID)
}

func TestRegistry_RejectsType(t *testing.T) {
	r := NewRegistry()

	_, err := r.Add(domain.File{Name: "cat.gif", MediaType: "image/gif", Size: 10})

	var rej *RejectionError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, ReasonType, rej.Reason)
	assert.Equal(t, "File type image/gif is not accepted. Please upload PDF, JPEG, PNG, or HEIC files.", err.Error())
	assert.Zero(t, r.Len())
}

func TestRegistry_RejectsSize(t *testing.T) {
	r := NewRegistry()

	_, err := r.Add(pdf("exact.pdf", MaxFileSize))
	require.NoError(t, err, "a file of exactly the limit is accepted")

	_, err = r.Add(pdf("huge.pdf", MaxFileSize+1))
	var rej *RejectionError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, ReasonSize, rej.Reason)
	assert.Equal(t, "File huge.pdf exceeds the maximum size of 10MB.", err.Error())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RemoveReleasesOnce(t *testing.T) {
	previews := newCountingPreviews()
	r := NewRegistry(WithPreviewProvider(previews))

	doc, err := r.Add(pdf("a.pdf", 1))
	require.NoError(t, err)

	assert.True(t, r.Remove(doc.ID))
	assert.False(t, r.Remove(doc.ID), "second remove is a no-op")
	assert.False(t, r.Remove("doc_missing"))

	assert.Equal(t, 1, previews.released[doc.Preview])
	assert.Zero(t, previews.Live())
}

func TestRegistry_ClearAndReplaceRelease(t *testing.T) {
	previews := newCountingPreviews()
	r := NewRegistry(WithPreviewProvider(previews))

	a, _ := r.Add(pdf("a.pdf", 1))
	b, _ := r.Add(pdf("b.pdf", 1))

	r.Replace([]domain.Document{{ID: "doc_restored", Name: "old.pdf"}})
	assert.Equal(t, 1, previews.released[a.Preview])
	assert.Equal(t, 1, previews.released[b.Preview])
	assert.Equal(t, []domain.Document{{ID: "doc_restored", Name: "old.pdf"}}, r.List())

	r.Clear()
	assert.Zero(t, r.Len())
	assert.Len(t, previews.released, 2, "restored documents carry no handle to release")
}

func TestRegistry_IDsUniqueAfterRemove(t *testing.T) {
	frozen := time.Unix(1700000000, 0)
	r := NewRegistry(WithIDGenerator(NewIDGenerator(func() time.Time { return frozen })))

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		doc, err := r.Add(pdf("x.pdf", 1))
		require.NoError(t, err)
		assert.False(t, seen[doc.ID], "duplicate id %s", doc.ID)
		seen[doc.ID] = true
		r.Remove(doc.ID)
	}
}

func TestRegistry_Preview(t *testing.T) {
	r := NewRegistry()
	doc, err := r.Add(pdf("a.pdf", 4))
	require.NoError(t, err)

	data, mediaType, err := r.Preview(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), data)
	assert.Equal(t, "application/pdf", mediaType)

	r.Remove(doc.ID)
	_, _, err = r.Preview(doc.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "1.0 KiB", FormatSize(1024))
	assert.Equal(t, "10 MiB", FormatSize(MaxFileSize))
}
