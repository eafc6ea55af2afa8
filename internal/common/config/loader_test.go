package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const minimalYAML = `
cms:
  url: https://cms.example.com/
  api_token: token
`

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile(writeYAML(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "submission-intake", cfg.App.Name)
	assert.Equal(t, "https://cms.example.com", cfg.CMS.URL)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, time.Hour, GetDuration(cfg.RateLimit.Window))
	assert.Equal(t, 0.5, cfg.Security.Recaptcha.MinScore)
	assert.Equal(t, int64(5*1024*1024), cfg.Uploads.MaxFileSize)

	contact := GetEndpointConfig(cfg, EndpointContact)
	assert.Equal(t, 10, contact.MaxAttempts)
	assert.Equal(t, "contact-submissions", contact.Collection)
	assert.Equal(t, BotPolicyFakeAccept, GetEndpointConfig(cfg, EndpointProviderApplication).OnBotDetected)
	assert.Equal(t, 5, GetEndpointConfig(cfg, EndpointJobApplication).MaxAttempts)
	assert.True(t, IsEndpointEnabled(cfg, EndpointUpload))
	assert.True(t, cfg.Uploads.CleanupPartial)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)
}

func TestLoadFromFile_PartialEndpointOverrideKeepsEnabled(t *testing.T) {
	cfg, err := LoadFromFile(writeYAML(t, minimalYAML+`
endpoints:
  contact:
    max_attempts: 20
  upload:
    timeout: 5000
`))
	require.NoError(t, err)

	contact := GetEndpointConfig(cfg, EndpointContact)
	assert.True(t, contact.Enabled)
	assert.Equal(t, 20, contact.MaxAttempts)
	assert.Equal(t, "contact-submissions", contact.Collection)
	assert.True(t, IsEndpointEnabled(cfg, EndpointUpload))
	assert.True(t, IsEndpointEnabled(cfg, EndpointJobApplication))
}

func TestLoadFromFile_ExplicitZeroValuesAreKept(t *testing.T) {
	cfg, err := LoadFromFile(writeYAML(t, minimalYAML+`
security:
  recaptcha:
    min_score: 0
uploads:
  cleanup_partial: false
tracing:
  sample_ratio: 0
`))
	require.NoError(t, err)

	assert.Equal(t, 0.0, cfg.Security.Recaptcha.MinScore)
	assert.False(t, cfg.Uploads.CleanupPartial)
	assert.Equal(t, 0.0, cfg.Tracing.SampleRatio)
}

func TestLoadFromFile_EndpointOverrides(t *testing.T) {
	cfg, err := LoadFromFile(writeYAML(t, minimalYAML+`
endpoints:
  contact:
    enabled: false
    max_attempts: 3
  job-application:
    enabled: true
    collection: careers
`))
	require.NoError(t, err)

	contact := GetEndpointConfig(cfg, EndpointContact)
	assert.False(t, contact.Enabled)
	assert.Equal(t, 3, contact.MaxAttempts)
	assert.Equal(t, "contact-submissions", contact.Collection)
	assert.False(t, IsEndpointEnabled(cfg, EndpointContact))

	job := GetEndpointConfig(cfg, EndpointJobApplication)
	assert.Equal(t, "careers", job.Collection)
	assert.Equal(t, 5, job.MaxAttempts)
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	t.Setenv("INTAKE_TEST_CMS_TOKEN", "from-env")
	t.Setenv("RECAPTCHA_SECRET_KEY", "secret-from-env")

	cfg, err := LoadFromFile(writeYAML(t, `
cms:
  url: https://cms.example.com
  api_token: ${INTAKE_TEST_CMS_TOKEN}
`))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.CMS.APIToken)
	assert.Equal(t, "secret-from-env", cfg.Security.Recaptcha.SecretKey)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing cms url", "cms:\n  api_token: token\n"},
		{"unset token variable", "cms:\n  url: https://cms.example.com\n  api_token: ${INTAKE_TEST_UNSET_TOKEN}\n"},
		{"unknown backend", minimalYAML + "rate_limit:\n  backend: memcached\n"},
		{"redis without address", minimalYAML + "rate_limit:\n  backend: redis\n"},
		{"unknown bot policy", minimalYAML + "endpoints:\n  contact:\n    on_bot_detected: ignore\n"},
		{"journal without host", minimalYAML + "database:\n  postgres:\n    enabled: true\n"},
		{"sns without topic", minimalYAML + "integrations:\n  aws:\n    sns:\n      enabled: true\n"},
		{"min score above one", minimalYAML + "security:\n  recaptcha:\n    min_score: 1.5\n"},
		{"negative sample ratio", minimalYAML + "tracing:\n  sample_ratio: -0.1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CMS_API_TOKEN", "")
			t.Setenv("REDIS_URL", "")
			t.Setenv("INTAKE_ALERT_TOPIC_ARN", "")
			_, err := LoadFromFile(writeYAML(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "intake", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=intake sslmode=disable", p.GetDSN())
}
