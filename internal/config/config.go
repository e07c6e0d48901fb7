package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Auth modes for the login frame.
const (
	AuthModeToken      = "token"
	AuthModeIdentifier = "identifier"
)

// Config holds client and reference-server configuration values.
type Config struct {
	LogLevel string       `mapstructure:"log_level" yaml:"log_level"`
	Client   ClientConfig `mapstructure:"client" yaml:"client"`
	Server   ServerConfig `mapstructure:"server" yaml:"server"`
}

// ClientConfig configures the chat engine.
type ClientConfig struct {
	APIURL         string        `mapstructure:"api_url" yaml:"api_url"`
	WSURL          string        `mapstructure:"ws_url" yaml:"ws_url"`
	AuthMode       string        `mapstructure:"auth_mode" yaml:"auth_mode"`
	DialTimeout    time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ReadLimit      int64         `mapstructure:"read_limit" yaml:"read_limit"`
	SearchDebounce time.Duration `mapstructure:"search_debounce" yaml:"search_debounce"`
	SearchRate     float64       `mapstructure:"search_rate" yaml:"search_rate"`
	SearchBurst    int           `mapstructure:"search_burst" yaml:"search_burst"`
}

// ServerConfig configures the reference backend started by `privora serve`.
type ServerConfig struct {
	Addr                 string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout    time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout      time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath         string        `mapstructure:"database_path" yaml:"database_path"`
	JWTSecret            string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer            string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience          string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL               time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`
	AutoVerifyEmail      bool          `mapstructure:"auto_verify_email" yaml:"auto_verify_email"`
	AllowIdentifierLogin bool          `mapstructure:"allow_identifier_login" yaml:"allow_identifier_login"`
	LoginTimeout         time.Duration `mapstructure:"login_timeout" yaml:"login_timeout"`
	MessageRate          float64       `mapstructure:"message_rate" yaml:"message_rate"`
	MessageBurst         int           `mapstructure:"message_burst" yaml:"message_burst"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		LogLevel: "info",
		Client: ClientConfig{
			APIURL:         "http://localhost:8080",
			AuthMode:       AuthModeToken,
			DialTimeout:    10 * time.Second,
			WriteTimeout:   5 * time.Second,
			ReadLimit:      1 << 20,
			SearchDebounce: 300 * time.Millisecond,
			SearchRate:     2,
			SearchBurst:    4,
		},
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   5 * time.Second,
			DatabasePath:      "privora.db",
			JWTSecret:         "change-me",
			JWTIssuer:         "privora",
			JWTAudience:       "privora",
			JWTTTL:            24 * time.Hour,
			AutoVerifyEmail:   true,
			LoginTimeout:      10 * time.Second,
			MessageRate:       10,
			MessageBurst:      20,
		},
	}
}

// WSEndpoint returns the websocket URL. An explicit ws_url wins; otherwise
// the URL is derived from api_url by swapping the scheme and appending /ws.
func (c ClientConfig) WSEndpoint() (string, error) {
	if c.WSURL != "" {
		return c.WSURL, nil
	}
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return "", fmt.Errorf("parse api_url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported api_url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = ""
	return u.String(), nil
}

// Validate checks values that have no sane fallback.
func (c ClientConfig) Validate() error {
	switch c.AuthMode {
	case AuthModeToken, AuthModeIdentifier:
	default:
		return fmt.Errorf("invalid auth_mode %q", c.AuthMode)
	}
	if c.APIURL == "" && c.WSURL == "" {
		return fmt.Errorf("api_url or ws_url is required")
	}
	return nil
}
