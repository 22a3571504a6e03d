package domain

import "time"

// ContentType describes what kind of artifact a content record holds.
type ContentType string

const (
	ContentHTML    ContentType = "html"
	ContentPackage ContentType = "package" // locally extracted SCORM/quiz package
	ContentVideo   ContentType = "video"
)

// ContentRecord is one deliverable artifact. Its scenario role is derived
// transitively through the owning TrainingScenario, never stored here.
// The HTML body lives in exactly one of three places, checked in priority
// order: the row itself, object storage under StorageKey, or the local
// package directory.
type ContentRecord struct {
	ID          string      `json:"id" db:"id"`
	ContentType ContentType `json:"content_type" db:"content_type"`
	HTMLBody    *string     `json:"html_body" db:"html_body"`
	StorageKey  *string     `json:"storage_key" db:"storage_key"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}
