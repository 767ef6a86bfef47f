// Package documents implements the ordered registry of uploaded documents.
//
// The registry enforces the acceptance policy (declared media type and size)
// and owns the preview handle of every document it holds: a handle is
// released exactly once, when its document is removed, replaced or cleared.
package documents
