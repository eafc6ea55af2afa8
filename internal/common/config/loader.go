// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Endpoint names used as keys of Config.Endpoints.
const (
	EndpointContact             = "contact"
	EndpointJobApplication      = "job-application"
	EndpointProviderApplication = "provider-application"
	EndpointUpload              = "upload"
)

const (
	BotPolicyReject     = "reject"
	BotPolicyFakeAccept = "fake_accept"
)

var endpointDefaults = map[string]EndpointConfig{
	EndpointContact: {
		Enabled:       true,
		MaxAttempts:   10,
		OnBotDetected: BotPolicyReject,
		Collection:    "contact-submissions",
		Timeout:       10000,
	},
	EndpointJobApplication: {
		Enabled:       true,
		MaxAttempts:   5,
		OnBotDetected: BotPolicyReject,
		Collection:    "job-applications",
		Timeout:       10000,
	},
	EndpointProviderApplication: {
		Enabled:       true,
		MaxAttempts:   5,
		OnBotDetected: BotPolicyFakeAccept,
		Collection:    "provider-applications",
		Timeout:       10000,
	},
	EndpointUpload: {
		Enabled:     true,
		MaxAttempts: 10,
		Timeout:     20000,
	},
}

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// Enable ENV override like CMS_URL -> cms.url
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // environment overlay is optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			// An unset variable expands to "" so required-field checks catch it.
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	overrideString(&cfg.CMS.URL, "CMS_URL")
	overrideString(&cfg.CMS.APIToken, "CMS_API_TOKEN")
	overrideString(&cfg.Security.Recaptcha.SecretKey, "RECAPTCHA_SECRET_KEY")
	overrideString(&cfg.Database.Redis.Address, "REDIS_URL")
	overrideString(&cfg.Database.Redis.Password, "REDIS_PASSWORD")
	overrideString(&cfg.Database.Postgres.User, "DB_USER")
	overrideString(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	overrideString(&cfg.Integrations.Zoho.AuthToken, "ZOHO_CRM_OAUTH_TOKEN")
	overrideString(&cfg.Integrations.AWS.SNS.TopicARN, "INTAKE_ALERT_TOPIC_ARN")
}

func overrideString(target *string, envKey string) {
	if *target != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*target = val
	}
}

// setDefaults registers defaults for settings whose zero value is a valid
// choice, so an explicit false or 0 in the file is kept.
func setDefaults(v *viper.Viper) {
	v.SetDefault("security.recaptcha.min_score", 0.5)
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("uploads.cleanup_partial", true)
	for name, def := range endpointDefaults {
		v.SetDefault("endpoints."+name+".enabled", def.Enabled)
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "submission-intake"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}

	if cfg.CMS.Timeout == 0 {
		cfg.CMS.Timeout = 10000
	}
	cfg.CMS.URL = strings.TrimRight(cfg.CMS.URL, "/")

	if cfg.Security.Recaptcha.VerifyURL == "" {
		cfg.Security.Recaptcha.VerifyURL = "https://www.google.com/recaptcha/api/siteverify"
	}
	if cfg.Security.Recaptcha.Timeout == 0 {
		cfg.Security.Recaptcha.Timeout = 5000
	}

	if cfg.RateLimit.Backend == "" {
		cfg.RateLimit.Backend = "memory"
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = 3600000
	}

	if cfg.Endpoints == nil {
		cfg.Endpoints = map[string]EndpointConfig{}
	}
	for name, def := range endpointDefaults {
		ep, exists := cfg.Endpoints[name]
		if !exists {
			cfg.Endpoints[name] = def
			continue
		}
		if ep.MaxAttempts == 0 {
			ep.MaxAttempts = def.MaxAttempts
		}
		if ep.OnBotDetected == "" {
			ep.OnBotDetected = def.OnBotDetected
		}
		if ep.Collection == "" {
			ep.Collection = def.Collection
		}
		if ep.Timeout == 0 {
			ep.Timeout = def.Timeout
		}
		cfg.Endpoints[name] = ep
	}

	if cfg.Uploads.MaxFileSize == 0 {
		cfg.Uploads.MaxFileSize = 5 * 1024 * 1024
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "intake-events"
	}

	if cfg.Integrations.Zoho.BaseURL == "" {
		cfg.Integrations.Zoho.BaseURL = "https://www.zohoapis.com/crm/v3"
	}
	if cfg.Integrations.Zoho.LeadSource == "" {
		cfg.Integrations.Zoho.LeadSource = "Website"
	}

	if cfg.Camunda.MessageName == "" {
		cfg.Camunda.MessageName = "submission-accepted"
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 5000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.CMS.URL == "" {
		return fmt.Errorf("cms.url is required")
	}
	if cfg.CMS.APIToken == "" {
		return fmt.Errorf("cms.api_token is required")
	}

	if cfg.Security.Recaptcha.MinScore < 0 || cfg.Security.Recaptcha.MinScore > 1 {
		return fmt.Errorf("security.recaptcha.min_score must be between 0 and 1")
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be between 0 and 1")
	}

	switch cfg.RateLimit.Backend {
	case "memory":
	case "redis":
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required for the redis rate limit backend")
		}
	default:
		return fmt.Errorf("rate_limit.backend must be memory or redis, got %q", cfg.RateLimit.Backend)
	}

	for name, ep := range cfg.Endpoints {
		if ep.MaxAttempts <= 0 {
			return fmt.Errorf("endpoints.%s.max_attempts must be positive", name)
		}
		if ep.OnBotDetected != "" && ep.OnBotDetected != BotPolicyReject && ep.OnBotDetected != BotPolicyFakeAccept {
			return fmt.Errorf("endpoints.%s.on_bot_detected must be %s or %s", name, BotPolicyReject, BotPolicyFakeAccept)
		}
	}

	if cfg.Database.Postgres.Enabled && cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required when the journal is enabled")
	}
	if cfg.Database.Elasticsearch.Enabled && len(cfg.Database.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("database.elasticsearch.addresses is required when indexing is enabled")
	}
	if cfg.Integrations.AWS.SES.Enabled && (cfg.Integrations.AWS.SES.FromEmail == "" || cfg.Integrations.AWS.SES.ToEmail == "") {
		return fmt.Errorf("integrations.aws.ses.from_email and to_email are required")
	}
	if cfg.Integrations.AWS.SNS.Enabled && cfg.Integrations.AWS.SNS.TopicARN == "" {
		return fmt.Errorf("integrations.aws.sns.topic_arn is required")
	}
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetEndpointConfig retrieves endpoint-specific configuration with fallback to defaults
func GetEndpointConfig(cfg *Config, name string) EndpointConfig {
	if ep, exists := cfg.Endpoints[name]; exists {
		return ep
	}
	if def, exists := endpointDefaults[name]; exists {
		return def
	}
	return EndpointConfig{Enabled: true, MaxAttempts: 5, OnBotDetected: BotPolicyReject, Timeout: 10000}
}

// IsEndpointEnabled checks if a specific endpoint is enabled
func IsEndpointEnabled(cfg *Config, name string) bool {
	if ep, exists := cfg.Endpoints[name]; exists {
		return ep.Enabled
	}
	return true
}
