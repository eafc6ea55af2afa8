package upload

import (
	"context"

	"submission-intake/internal/common/logger"
	"submission-intake/internal/models"
	"submission-intake/internal/pipeline"
	"submission-intake/internal/pipeline/ratelimit"
)

// MediaStore uploads and removes files in the CMS media library.
type MediaStore interface {
	UploadMedia(ctx context.Context, file *models.UploadedFile) (*models.Media, error)
	DeleteMedia(ctx context.Context, id string) error
}

type ServiceDependencies struct {
	Logger   logger.Logger
	Limiter  ratelimit.Limiter
	Media    MediaStore
	Observer pipeline.Observer
}

type Output struct {
	ResumeURL      string  `json:"resumeUrl"`
	CoverLetterURL *string `json:"coverLetterUrl"`
}
