// Package botfilter implements the honeypot check and reCAPTCHA score verification.
package botfilter

import (
	"context"
	"net/url"

	httpclient "submission-intake/internal/common/http"
	"submission-intake/internal/common/logger"
	"submission-intake/internal/common/metrics"
)

// CheckHoneypot reports whether the hidden field was filled in. Humans never
// see the field, so any content at all marks the request as automated.
func CheckHoneypot(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	default:
		return true
	}
}

type Verifier struct {
	config *Config
	client *httpclient.Client
	logger logger.Logger
}

func NewVerifier(config *Config, log logger.Logger) *Verifier {
	return &Verifier{
		config: config,
		client: httpclient.NewClient(config.Timeout),
		logger: log.WithFields(map[string]interface{}{"component": "botfilter"}),
	}
}

// Enabled reports whether a secret key is configured.
func (v *Verifier) Enabled() bool {
	return v.config.SecretKey != ""
}

// Verify checks token against the scoring service.
func (v *Verifier) Verify(ctx context.Context, token, clientIdentifier string) Verdict {
	if !v.Enabled() {
		return Verdict{Status: NotConfigured}
	}
	if token == "" {
		return Verdict{Status: Rejected, ErrorCodes: []string{"missing-input-response"}}
	}

	form := url.Values{
		"secret":   {v.config.SecretKey},
		"response": {token},
	}
	if clientIdentifier != "" && clientIdentifier != "unknown" {
		form.Set("remoteip", clientIdentifier)
	}

	var resp siteVerifyResponse
	if err := v.client.PostForm(ctx, v.config.VerifyURL, form, &resp); err != nil {
		metrics.UpstreamRequests.WithLabelValues("recaptcha_verify", "error").Inc()
		v.logger.Warn("reCAPTCHA verification failed", map[string]interface{}{
			"error":    err.Error(),
			"clientId": clientIdentifier,
		})
		return Verdict{Status: VerificationError, Err: err}
	}
	metrics.UpstreamRequests.WithLabelValues("recaptcha_verify", "ok").Inc()

	if !resp.Success || resp.Score < v.config.MinScore {
		v.logger.Info("reCAPTCHA rejected token", map[string]interface{}{
			"score":      resp.Score,
			"action":     resp.Action,
			"errorCodes": resp.ErrorCodes,
			"clientId":   clientIdentifier,
		})
		return Verdict{Status: Rejected, Score: resp.Score, ErrorCodes: resp.ErrorCodes}
	}

	return Verdict{Status: Verified, Score: resp.Score}
}
