package models

import "time"

// Upload is a file attached to a challenge, stored in object storage
// under ObjectKey. The public URL is derived at read time and never
// persisted.
type Upload struct {
	ID          int       `json:"id" db:"id"`
	ChallengeID int       `json:"challenge_id" db:"challenge_id"`
	UploaderID  int       `json:"uploader_id" db:"uploader_id"`
	Filename    string    `json:"filename" db:"filename"`
	ObjectKey   string    `json:"-" db:"object_key"`
	ContentType string    `json:"content_type" db:"content_type"`
	SizeBytes   int64     `json:"size_bytes" db:"size_bytes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	URL      *string `json:"url,omitempty" db:"-"`
	Uploader *User   `json:"uploader,omitempty" db:"-"`
}
