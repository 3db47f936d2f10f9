package models

import "time"

// FileKind classifies the content of an uploaded file
type FileKind string

const (
	FileKindImage    FileKind = "image"
	FileKindDocument FileKind = "document"
)

// FileSlot marks what an uploaded file is used for
type FileSlot string

const (
	FileSlotDocument FileSlot = "document"
	FileSlotQRCode   FileSlot = "qr_code"
)

// WeddingFile is an uploaded asset stored under the uploads directory
type WeddingFile struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	OriginalName string    `json:"original_name"`
	FilePath     string    `json:"file_path"`
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
	FileType     FileKind  `json:"file_type"`
	Type         FileSlot  `json:"type"`
	CreatedAt    time.Time `json:"created_at"`
}
