// Package fileguard accepts uploaded documents only when the declared type
// is allow-listed and the leading bytes identify a known document format.
package fileguard

import (
	"bytes"
	"fmt"

	"submission-intake/internal/common/errors"
	"submission-intake/internal/common/logger"
	"submission-intake/internal/common/metrics"
	"submission-intake/internal/models"
)

// Rejection reasons surfaced to the client.
const (
	ReasonMissing         = "missing"
	ReasonSize            = "size"
	ReasonDeclaredType    = "declared-type"
	ReasonContentMismatch = "content-mismatch"
)

var signatures = []struct {
	magic  []byte
	format models.FileFormat
}{
	{[]byte{0x25, 0x50, 0x44, 0x46}, models.FormatPDF},
	{[]byte{0xD0, 0xCF, 0x11, 0xE0}, models.FormatDOC},
	{[]byte{0x50, 0x4B, 0x03, 0x04}, models.FormatDOCX},
}

var declaredFormats = map[string]models.FileFormat{
	MimePDF:  models.FormatPDF,
	MimeDOC:  models.FormatDOC,
	MimeDOCX: models.FormatDOCX,
}

// Sniff identifies the format from the first four bytes of content.
// A ZIP header is reported as docx; the container is not opened.
func Sniff(content []byte) models.FileFormat {
	for _, sig := range signatures {
		if bytes.HasPrefix(content, sig.magic) {
			return sig.format
		}
	}
	return models.FormatUnknown
}

type Guard struct {
	config  *Config
	allowed map[string]bool
	logger  logger.Logger
}

func NewGuard(config *Config, log logger.Logger) *Guard {
	allowed := make(map[string]bool, len(config.AllowedTypes))
	for _, t := range config.AllowedTypes {
		allowed[t] = true
	}
	return &Guard{
		config:  config,
		allowed: allowed,
		logger:  log.WithFields(map[string]interface{}{"component": "fileguard"}),
	}
}

// Check runs size, declared type and content checks in that order and
// stops at the first failure. On success file.VerifiedFormat is set.
func (g *Guard) Check(file *models.UploadedFile) error {
	if file == nil {
		return g.reject("", ReasonMissing, "file is required")
	}

	size := file.SizeBytes
	if size == 0 {
		size = int64(len(file.Content))
	}
	if size > g.config.MaxFileSize {
		return g.reject(file.Field, ReasonSize,
			fmt.Sprintf("%s exceeds the maximum size of %d MB", file.Field, g.config.MaxFileSize/(1024*1024)))
	}

	if !g.allowed[file.DeclaredMimeType] {
		return g.reject(file.Field, ReasonDeclaredType,
			fmt.Sprintf("%s must be a PDF or Word document", file.Field))
	}

	format := Sniff(file.Content)
	if format == models.FormatUnknown {
		return g.reject(file.Field, ReasonContentMismatch,
			fmt.Sprintf("%s content does not match a supported document format", file.Field))
	}
	if g.config.StrictTypeMatch {
		if expected, ok := declaredFormats[file.DeclaredMimeType]; ok && expected != format {
			return g.reject(file.Field, ReasonContentMismatch,
				fmt.Sprintf("%s content does not match its declared type", file.Field))
		}
	}

	file.VerifiedFormat = format
	return nil
}

func (g *Guard) reject(field, reason, message string) error {
	metrics.FilesRejected.WithLabelValues(reason).Inc()
	g.logger.Info("File rejected", map[string]interface{}{
		"field":  field,
		"reason": reason,
	})
	return errors.NewFileRejectedError(field, reason, message)
}
