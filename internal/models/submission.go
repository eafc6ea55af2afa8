// internal/models/submission.go
package models

// FileFormat is the format identified from a file's leading bytes.
type FileFormat string

const (
	FormatPDF     FileFormat = "pdf"
	FormatDOC     FileFormat = "doc"
	FormatDOCX    FileFormat = "docx"
	FormatUnknown FileFormat = "unknown"
)

// UploadedFile is one named part of a multipart upload.
type UploadedFile struct {
	Field            string     `json:"field"`
	Filename         string     `json:"filename"`
	DeclaredMimeType string     `json:"declaredMimeType"`
	SizeBytes        int64      `json:"sizeBytes"`
	Content          []byte     `json:"-"`
	VerifiedFormat   FileFormat `json:"verifiedFormat,omitempty"`
}

// Receipt is the CMS acknowledgement of a created entry.
type Receipt struct {
	ID         string `json:"id"`
	Collection string `json:"collection"`
}

// Media is a file stored in the CMS media library.
type Media struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}
