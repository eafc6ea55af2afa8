package fileguard

import "fmt"

const (
	MimePDF  = "application/pdf"
	MimeDOC  = "application/msword"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// DefaultMaxFileSize is 5 MiB.
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

// Config holds the upload acceptance policy.
type Config struct {
	MaxFileSize  int64
	AllowedTypes []string
	// StrictTypeMatch additionally requires the sniffed format to agree
	// with the declared MIME type.
	StrictTypeMatch bool
}

func DefaultConfig() *Config {
	return &Config{
		MaxFileSize:  DefaultMaxFileSize,
		AllowedTypes: []string{MimePDF, MimeDOC, MimeDOCX},
	}
}

func (c *Config) Validate() error {
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive")
	}
	if len(c.AllowedTypes) == 0 {
		return fmt.Errorf("at least one allowed type is required")
	}
	return nil
}
