// Package models holds the client data types: work items, blobs, generation
// modes and the editable parameters.
package models

import (
	"net/http"
	"path/filepath"
)

// Blob is an opaque binary resource with the metadata needed to hand it to
// the remote generator or write it to disk. Data is treated as immutable once
// the blob is constructed; copies share the underlying array.
type Blob struct {
	Name        string
	ContentType string
	Data        []byte
}

// NewBlob builds a Blob, sniffing the content type when ct is empty.
func NewBlob(name, ct string, data []byte) Blob {
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return Blob{Name: filepath.Base(name), ContentType: ct, Data: data}
}

func (b Blob) Size() int { return len(b.Data) }

func (b Blob) IsZero() bool { return b.Name == "" && len(b.Data) == 0 }
