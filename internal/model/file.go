package model

import "time"

// File is a stored resume. Content is kept inline when no bucket is
// configured, otherwise StorageObjectName points at the bucket object.
type File struct {
	ID                int       `gorm:"primaryKey" json:"id"`
	Content           []byte    `json:"-"`
	Extension         string    `gorm:"type:text" json:"extension"`
	ContentType       string    `gorm:"type:text" json:"contentType"`
	StorageObjectName *string   `gorm:"type:text" json:"-"`
	CreatedAt         time.Time `json:"createdAt"`
}
