package models

import "time"

// StoredImage describes a single file in the storage backend. There is no
// separate metadata record: every field is derived from the file itself, so
// the backend stays the single source of truth.
type StoredImage struct {
	Filename     string
	OriginalName string
	Size         int64
	CreatedAt    time.Time
}
