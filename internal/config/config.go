package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`

	// MaxMessageBytes caps a single inbound WebSocket frame. Notepad updates carry
	// the whole document, so this is also the largest notepad a client can push.
	MaxMessageBytes int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	ClientQueueSize int   `mapstructure:"client_queue_size" yaml:"client_queue_size"`
	// WSRateLimit is the number of inbound frames per minute per connection. Zero disables it.
	WSRateLimit int `mapstructure:"ws_rate_limit" yaml:"ws_rate_limit"`

	LiveKit LiveKitConfig `mapstructure:"livekit" yaml:"livekit"`
}

// LiveKitConfig configures voice channels for live sessions.
// Voice is disabled while APIKey is empty.
type LiveKitConfig struct {
	URL       string `mapstructure:"url" yaml:"url"`
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`
	APISecret string `mapstructure:"api_secret" yaml:"api_secret"`
}

// Enabled reports whether enough credentials are set to issue join tokens.
func (c LiveKitConfig) Enabled() bool {
	return c.APIKey != "" && c.APISecret != "" && c.URL != ""
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		DatabasePath:      "collabspace.db",
		JWTSecret:         "change-me",
		JWTIssuer:         "collabspace",
		JWTAudience:       "collabspace",
		JWTTTL:            24 * time.Hour,
		MaxMessageBytes:   1 << 20,
		ClientQueueSize:   32,
		WSRateLimit:       600,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.JWTIssuer != "" {
		c.JWTIssuer = other.JWTIssuer
	}
	if other.JWTAudience != "" {
		c.JWTAudience = other.JWTAudience
	}
	if other.JWTTTL != 0 {
		c.JWTTTL = other.JWTTTL
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.ClientQueueSize != 0 {
		c.ClientQueueSize = other.ClientQueueSize
	}
	if other.WSRateLimit != 0 {
		c.WSRateLimit = other.WSRateLimit
	}
	if other.LiveKit.URL != "" {
		c.LiveKit.URL = other.LiveKit.URL
	}
	if other.LiveKit.APIKey != "" {
		c.LiveKit.APIKey = other.LiveKit.APIKey
	}
	if other.LiveKit.APISecret != "" {
		c.LiveKit.APISecret = other.LiveKit.APISecret
	}
}
