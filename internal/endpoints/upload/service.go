// Package upload accepts a résumé and an optional cover letter, checks
// both with the file guard, and stores them in the CMS media library.
package upload

import (
	"context"

	"submission-intake/internal/common/errors"
	"submission-intake/internal/common/logger"
	"submission-intake/internal/models"
	"submission-intake/internal/pipeline"
	"submission-intake/internal/pipeline/fileguard"
)

type Service struct {
	config   *Config
	media    MediaStore
	pipeline *pipeline.Pipeline
	logger   logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	s := &Service{
		config: config,
		media:  deps.Media,
		logger: deps.Logger.WithFields(map[string]interface{}{"endpoint": Endpoint}),
	}
	s.pipeline = pipeline.New(pipeline.Definition{
		Endpoint:       Endpoint,
		Limiter:        deps.Limiter,
		Window:         config.Window,
		Guard:          fileguard.NewGuard(config.Files, deps.Logger),
		RequiredFiles:  []string{FieldResume},
		Forward:        s.store,
		ForwardTimeout: config.Timeout,
		Observer:       deps.Observer,
	}, deps.Logger)
	return s
}

// Admit consumes one rate-limit attempt before the multipart body is parsed.
func (s *Service) Admit(ctx context.Context, req *pipeline.Request) error {
	return s.pipeline.Admit(ctx, req)
}

func (s *Service) Execute(ctx context.Context, req *pipeline.Request) (*Output, error) {
	outcome, err := s.pipeline.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	out := &Output{}
	out.ResumeURL, _ = outcome.Result.Data["resumeUrl"].(string)
	if url, ok := outcome.Result.Data["coverLetterUrl"].(string); ok {
		out.CoverLetterURL = &url
	}
	return out, nil
}

// store uploads the files one at a time, résumé first. Every file has
// already passed the guard, so a failure here is an upstream failure.
func (s *Service) store(ctx context.Context, req *pipeline.Request, _ map[string]interface{}) (*pipeline.Result, error) {
	resume, err := s.media.UploadMedia(ctx, req.File(FieldResume))
	if err != nil {
		return nil, errors.AsStandardError(err).WithReasons("Failed to upload " + FieldResume)
	}
	result := &pipeline.Result{
		RecordID: resume.ID,
		Data:     map[string]interface{}{"resumeUrl": resume.URL},
	}

	coverLetter := req.File(FieldCoverLetter)
	if coverLetter == nil {
		return result, nil
	}

	media, err := s.media.UploadMedia(ctx, coverLetter)
	if err != nil {
		s.cleanup(ctx, req, resume)
		return nil, errors.AsStandardError(err).WithReasons("Failed to upload " + FieldCoverLetter)
	}
	result.Data["coverLetterUrl"] = media.URL
	return result, nil
}

// cleanup removes the orphaned résumé after a failed cover letter upload.
// A failed delete is logged and otherwise ignored.
func (s *Service) cleanup(ctx context.Context, req *pipeline.Request, resume *models.Media) {
	if !s.config.CleanupPartial || resume.ID == "" {
		s.logger.Warn("Orphaned upload left in media library", map[string]interface{}{
			"mediaId":   resume.ID,
			"requestId": req.RequestID,
		})
		return
	}
	if err := s.media.DeleteMedia(context.WithoutCancel(ctx), resume.ID); err != nil {
		s.logger.Error("Compensating delete failed", map[string]interface{}{
			"mediaId":   resume.ID,
			"requestId": req.RequestID,
			"error":     err.Error(),
		})
		return
	}
	s.logger.Info("Removed orphaned upload", map[string]interface{}{
		"mediaId":   resume.ID,
		"requestId": req.RequestID,
	})
}
