package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Transport names accepted by MCP_TRANSPORT.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Auth modes accepted by HTTP_AUTH_MODE.
const (
	AuthNone   = "none"
	AuthAPIKey = "api-key"
	AuthJWT    = "jwt"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"production"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Telegram Bot API
	TelegramBotToken    string        `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	TelegramAPIBaseURL  string        `envconfig:"TELEGRAM_API_BASE_URL" default:"https://api.telegram.org"`
	TelegramHTTPTimeout time.Duration `envconfig:"TELEGRAM_HTTP_TIMEOUT" default:"0s"` // 0 = no client timeout

	// MCP
	Transport     string `envconfig:"MCP_TRANSPORT" default:"stdio"`
	ServerName    string `envconfig:"MCP_SERVER_NAME" default:"telegram-mcp"`
	ServerVersion string `envconfig:"MCP_SERVER_VERSION" default:"0.1.0"`
	ConfigFile    string `envconfig:"MCP_CONFIG_FILE"`

	// HTTP transport and management listener
	HTTPListenAddr  string `envconfig:"HTTP_LISTEN_ADDR" default:":8080"`
	MgmtListenAddr  string `envconfig:"MGMT_LISTEN_ADDR"` // stdio mode only; empty disables probes
	HTTPAuthMode    string `envconfig:"HTTP_AUTH_MODE" default:"none"`
	HTTPAPIKey      string `envconfig:"HTTP_API_KEY"`
	HTTPJWTSecret   string `envconfig:"HTTP_JWT_SECRET"`
	HTTPCORSOrigins string `envconfig:"HTTP_CORS_ORIGINS"`
}

// File is the optional YAML overlay pointed to by MCP_CONFIG_FILE.
// Non-empty values override the environment.
type File struct {
	Server struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"server"`

	Telegram struct {
		APIBaseURL string        `yaml:"api_base_url"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"telegram"`

	HTTP struct {
		ListenAddr  string `yaml:"listen_addr"`
		MgmtAddr    string `yaml:"mgmt_addr"`
		AuthMode    string `yaml:"auth_mode"`
		APIKey      string `yaml:"api_key"`
		JWTSecret   string `yaml:"jwt_secret"`
		CORSOrigins string `yaml:"cors_origins"`
	} `yaml:"http"`
}

// HTTPEnabled returns true if MCP requests are served over HTTP.
func (c *Config) HTTPEnabled() bool {
	return strings.EqualFold(c.Transport, TransportHTTP)
}

// MgmtEnabled returns true if a probe/metrics listener runs next to stdio.
func (c *Config) MgmtEnabled() bool {
	return !c.HTTPEnabled() && c.MgmtListenAddr != ""
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Transport) {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("invalid MCP_TRANSPORT %q (must be %q or %q)", c.Transport, TransportStdio, TransportHTTP)
	}

	switch c.HTTPAuthMode {
	case AuthNone:
	case AuthAPIKey:
		if c.HTTPAPIKey == "" {
			return fmt.Errorf("HTTP_AUTH_MODE=%s requires HTTP_API_KEY", AuthAPIKey)
		}
	case AuthJWT:
		if c.HTTPJWTSecret == "" {
			return fmt.Errorf("HTTP_AUTH_MODE=%s requires HTTP_JWT_SECRET", AuthJWT)
		}
	default:
		return fmt.Errorf("invalid HTTP_AUTH_MODE %q", c.HTTPAuthMode)
	}

	if c.TelegramHTTPTimeout < 0 {
		return fmt.Errorf("invalid TELEGRAM_HTTP_TIMEOUT %v (must not be negative)", c.TelegramHTTPTimeout)
	}
	return nil
}

// Load reads configuration from environment variables, then applies the
// YAML overlay if MCP_CONFIG_FILE is set.
func Load() (*Config, error) {
	return LoadWithPrefix("")
}

// LoadWithPrefix reads configuration with a prefix.
func LoadWithPrefix(prefix string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cfg.ConfigFile != "" {
		f, err := LoadFile(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg.apply(f)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads and parses a YAML overlay, expanding env vars.
func LoadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	f, err := ParseFile(raw)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return f, nil
}

// ParseFile parses a YAML overlay from bytes.
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Config) apply(f *File) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.ServerName, f.Server.Name)
	set(&c.ServerVersion, f.Server.Version)
	set(&c.TelegramAPIBaseURL, f.Telegram.APIBaseURL)
	set(&c.HTTPListenAddr, f.HTTP.ListenAddr)
	set(&c.MgmtListenAddr, f.HTTP.MgmtAddr)
	set(&c.HTTPAuthMode, f.HTTP.AuthMode)
	set(&c.HTTPAPIKey, f.HTTP.APIKey)
	set(&c.HTTPJWTSecret, f.HTTP.JWTSecret)
	set(&c.HTTPCORSOrigins, f.HTTP.CORSOrigins)
	if f.Telegram.Timeout > 0 {
		c.TelegramHTTPTimeout = f.Telegram.Timeout
	}
}

// envVarPattern matches ${VAR_NAME} and $VAR_NAME.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars replaces ${VAR} and $VAR with the environment value.
// Missing vars become empty strings.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimPrefix(match, "${")
		name = strings.TrimSuffix(name, "}")
		name = strings.TrimPrefix(name, "$")
		return os.Getenv(name)
	})
}
