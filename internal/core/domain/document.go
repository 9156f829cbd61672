package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Document is a source file going through the ingestion pipeline. The chat core
// never sees documents directly, only retrieved chunks.
type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	Namespace   string         `json:"namespace,omitempty"`
	Pages       int            `json:"pages,omitempty"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ExtractedText is the extractor output. Pages is zero when the source format
// has no page concept.
type ExtractedText struct {
	Text  string
	Pages int
}
