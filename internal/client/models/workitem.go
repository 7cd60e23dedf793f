package models

import "time"

// WorkItem is one saved unit of work in the workspace: an uploaded image and,
// once generated, the derived 3D model with the settings that produced it.
type WorkItem struct {
	// ID is time ordered and assigned once at creation.
	ID string

	Source Blob

	// Artifact is nil until the first successful generation.
	Artifact *Blob
	// ArtifactURL is the session-local handle of Artifact. It is not
	// persisted and is re-issued when the workspace is hydrated.
	ArtifactURL string

	DisplayName  string
	CreatedAt    time.Time
	LastModified time.Time

	Snapshot *Snapshot
}

func (w WorkItem) HasArtifact() bool { return w.Artifact != nil }

// Status is the listing label for the item.
func (w WorkItem) Status() string {
	if w.HasArtifact() {
		return "generated"
	}
	return "source only"
}

// Clone returns a copy whose pointer fields do not alias w.
func (w WorkItem) Clone() WorkItem {
	c := w
	if w.Artifact != nil {
		a := *w.Artifact
		c.Artifact = &a
	}
	if w.Snapshot != nil {
		s := *w.Snapshot
		c.Snapshot = &s
	}
	return c
}
