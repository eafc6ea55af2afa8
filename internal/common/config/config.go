// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig                 `mapstructure:"app"`
	Server       ServerConfig              `mapstructure:"server"`
	CMS          CMSConfig                 `mapstructure:"cms"`
	Security     SecurityConfig            `mapstructure:"security"`
	RateLimit    RateLimitConfig           `mapstructure:"rate_limit"`
	Endpoints    map[string]EndpointConfig `mapstructure:"endpoints"`
	Uploads      UploadConfig              `mapstructure:"uploads"`
	Database     DatabaseConfig            `mapstructure:"database"`
	Integrations IntegrationConfig         `mapstructure:"integrations"`
	Camunda      CamundaConfig             `mapstructure:"camunda"`
	Logging      LoggingConfig             `mapstructure:"logging"`
	Tracing      TracingConfig             `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host            string   `mapstructure:"host"`
	Port            int      `mapstructure:"port"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CMSConfig points at the headless CMS acting as system of record.
type CMSConfig struct {
	URL      string `mapstructure:"url"`
	APIToken string `mapstructure:"api_token"`
	Timeout  int    `mapstructure:"timeout"` // milliseconds
}

// --- Security Configuration ---
type SecurityConfig struct {
	Recaptcha RecaptchaConfig `mapstructure:"recaptcha"`
}

// RecaptchaConfig leaves SecretKey empty to disable score verification.
type RecaptchaConfig struct {
	SecretKey string  `mapstructure:"secret_key"`
	VerifyURL string  `mapstructure:"verify_url"`
	MinScore  float64 `mapstructure:"min_score"`
	Timeout   int     `mapstructure:"timeout"` // milliseconds
}

// RateLimitConfig selects the limiter backend shared by all endpoints.
type RateLimitConfig struct {
	Backend string `mapstructure:"backend"` // memory | redis
	Window  int    `mapstructure:"window"`  // milliseconds
}

// EndpointConfig holds the settings applicable to every submission endpoint.
type EndpointConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	MaxAttempts   int    `mapstructure:"max_attempts"`
	OnBotDetected string `mapstructure:"on_bot_detected"` // reject | fake_accept
	Collection    string `mapstructure:"collection"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
}

type UploadConfig struct {
	MaxFileSize     int64 `mapstructure:"max_file_size"` // bytes
	StrictTypeMatch bool  `mapstructure:"strict_type_match"`
	CleanupPartial  bool  `mapstructure:"cleanup_partial"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// IntegrationConfig holds settings for CRM, e-mail and alerting services.
type IntegrationConfig struct {
	Zoho struct {
		Enabled    bool   `mapstructure:"enabled"`
		BaseURL    string `mapstructure:"base_url"`
		AuthToken  string `mapstructure:"oauth_token"`
		LeadSource string `mapstructure:"lead_source"`
	} `mapstructure:"zoho"`

	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
			ToEmail   string `mapstructure:"to_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled  bool   `mapstructure:"enabled"`
			TopicARN string `mapstructure:"topic_arn"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// CamundaConfig enables publishing of accepted submissions to a follow-up process.
type CamundaConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BrokerAddress string `mapstructure:"broker_address"`
	MessageName   string `mapstructure:"message_name"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TracingConfig exports pipeline spans to a Jaeger collector when an
// endpoint is set.
type TracingConfig struct {
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}
