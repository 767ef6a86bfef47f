package domain

// File is an uploaded binary owned by the session that received it.
// Only MediaType and Size are trusted for acceptance decisions.
type File struct {
	Name      string `json:"name"`
	MediaType string `json:"mediaType"`
	Size      int64  `json:"size"`
	Data      []byte `json:"-"`
}

// Document is an entry of the uploaded documents list.
type Document struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`

	// File is nil on every persisted snapshot and after a restore.
	File *File `json:"file" yaml:"-"`

	// Preview is the handle of the derived preview resource. It must be
	// released by the registry when the document goes away.
	Preview string `json:"preview,omitempty" yaml:"-"`
}

// Stripped returns the document without its transient handles.
func (d Document) Stripped() Document {
	return Document{ID: d.ID, Name: d.Name}
}

// DocumentRef is the export shape of a document.
type DocumentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Ref reduces the document to its id and name.
func (d Document) Ref() DocumentRef {
	return DocumentRef{ID: d.ID, Name: d.Name}
}
