package config

import "time"

// ICEServer is a STUN/TURN entry handed to browsers for peer connections.
type ICEServer struct {
	URLs       []string `mapstructure:"urls" yaml:"urls" json:"urls"`
	Username   string   `mapstructure:"username" yaml:"username,omitempty" json:"username,omitempty"`
	Credential string   `mapstructure:"credential" yaml:"credential,omitempty" json:"credential,omitempty"`
}

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	DefaultRoom     string        `mapstructure:"default_room" yaml:"default_room"`
	MaxMessageBytes int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	SendBuffer      int           `mapstructure:"send_buffer" yaml:"send_buffer"`
	PingInterval    time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout" yaml:"ping_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	// EventRate is the sustained number of inbound events per second per connection.
	EventRate         float64 `mapstructure:"event_rate" yaml:"event_rate"`
	EventBurst        int     `mapstructure:"event_burst" yaml:"event_burst"`
	HTTPRatePerMinute int     `mapstructure:"http_rate_per_minute" yaml:"http_rate_per_minute"`

	ICEServers []ICEServer `mapstructure:"ice_servers" yaml:"ice_servers"`

	// JournalPath enables the SQLite SOS journal when non-empty.
	JournalPath string `mapstructure:"journal_path" yaml:"journal_path"`

	OperatorSecret string        `mapstructure:"operator_secret" yaml:"operator_secret"`
	OperatorIssuer string        `mapstructure:"operator_issuer" yaml:"operator_issuer"`
	OperatorTTL    time.Duration `mapstructure:"operator_ttl" yaml:"operator_ttl"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":3000",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		DefaultRoom:       "public",
		MaxMessageBytes:   64 * 1024,
		SendBuffer:        64,
		PingInterval:      25 * time.Second,
		PingTimeout:       20 * time.Second,
		EventRate:         20,
		EventBurst:        40,
		HTTPRatePerMinute: 100,
		ICEServers: []ICEServer{
			{URLs: []string{"stun:stun.l.google.com:19302"}},
		},
		OperatorIssuer: "tracker",
		OperatorTTL:    24 * time.Hour,
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
	if other.DefaultRoom != "" {
		c.DefaultRoom = other.DefaultRoom
	}
	if other.JournalPath != "" {
		c.JournalPath = other.JournalPath
	}
	if other.OperatorSecret != "" {
		c.OperatorSecret = other.OperatorSecret
	}
}
