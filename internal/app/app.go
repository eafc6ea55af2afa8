// Package app assembles the endpoint handlers from the loaded configuration.
package app

import (
	"fmt"
	"net/http"

	"submission-intake/internal/common/config"
	"submission-intake/internal/common/logger"
	"submission-intake/internal/endpoints/contact"
	"submission-intake/internal/endpoints/jobapplication"
	"submission-intake/internal/endpoints/providerapplication"
	"submission-intake/internal/endpoints/shared"
	"submission-intake/internal/endpoints/upload"
	"submission-intake/internal/pipeline"
	"submission-intake/internal/pipeline/botfilter"
	"submission-intake/internal/pipeline/ratelimit"
	"submission-intake/internal/server"

	"github.com/redis/go-redis/v9"
)

// CMS is everything the endpoints need from the system of record.
type CMS interface {
	shared.EntryCreator
	upload.MediaStore
}

type Dependencies struct {
	Logger   logger.Logger
	CMS      CMS
	Verifier *botfilter.Verifier
	Observer pipeline.Observer
	// Redis backs the limiters when the redis backend is configured.
	Redis redis.Cmdable
}

// NewLimiter returns the limiter for one endpoint. Every endpoint gets its
// own counter so attempts on one form never count against another.
func NewLimiter(cfg *config.Config, rdb redis.Cmdable, endpoint string, rl ratelimit.Config) (ratelimit.Limiter, error) {
	if err := rl.Validate(); err != nil {
		return nil, fmt.Errorf("rate limit for %s: %w", endpoint, err)
	}
	switch cfg.RateLimit.Backend {
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("redis rate limit backend selected but no redis client configured")
		}
		return ratelimit.NewRedisLimiter(rdb, endpoint, rl), nil
	default:
		return ratelimit.NewMemoryLimiter(rl), nil
	}
}

// NewHandlers builds every endpoint handler, disabled endpoints included:
// they answer 503 rather than 404.
func NewHandlers(cfg *config.Config, deps Dependencies) (server.Handlers, error) {
	var handlers server.Handlers

	forms := []struct {
		name  string
		service func(shared.ServiceDependencies, *shared.EndpointConfig) *shared.FormService
		handler func(*shared.EndpointConfig, shared.ServiceInterface, logger.Logger) *shared.FormHandler
		target  *http.Handler
	}{
		{contact.Endpoint, contact.NewService, contact.NewHandler, &handlers.Contact},
		{jobapplication.Endpoint, jobapplication.NewService, jobapplication.NewHandler, &handlers.JobApplication},
		{providerapplication.Endpoint, providerapplication.NewService, providerapplication.NewHandler, &handlers.ProviderApplication},
	}

	for _, form := range forms {
		epCfg, err := shared.FromConfig(cfg, form.name)
		if err != nil {
			return handlers, err
		}
		if err := epCfg.Validate(); err != nil {
			return handlers, fmt.Errorf("endpoint %s: %w", form.name, err)
		}
		limiter, err := NewLimiter(cfg, deps.Redis, form.name, epCfg.RateLimit())
		if err != nil {
			return handlers, err
		}
		service := form.service(shared.ServiceDependencies{
			Logger:   deps.Logger,
			Limiter:  limiter,
			Verifier: deps.Verifier,
			CMS:      deps.CMS,
			Observer: deps.Observer,
		}, epCfg)
		*form.target = form.handler(epCfg, service, deps.Logger)
	}

	upCfg := upload.FromConfig(cfg)
	if err := upCfg.Validate(); err != nil {
		return handlers, fmt.Errorf("endpoint %s: %w", upload.Endpoint, err)
	}
	limiter, err := NewLimiter(cfg, deps.Redis, upload.Endpoint, upCfg.RateLimit())
	if err != nil {
		return handlers, err
	}
	service := upload.NewService(upload.ServiceDependencies{
		Logger:   deps.Logger,
		Limiter:  limiter,
		Media:    deps.CMS,
		Observer: deps.Observer,
	}, upCfg)
	handlers.Upload = upload.NewHandler(upCfg, service, deps.Logger)

	return handlers, nil
}
