package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Default configuration values (production)
const (
	DefaultRelayURL  = "ws://localhost:8080/ws"
	DefaultShareBase = "http://localhost:8080/"
	DefaultSTUN      = "stun:stun.l.google.com:19302"
	DefaultPort      = 8080
)

// EnvPrefix is prepended to every environment variable the app reads,
// e.g. SCREENSHARE_RELAY_URL.
const EnvPrefix = "SCREENSHARE"

// Config holds application configuration
type Config struct {
	// RelayURL is the WebSocket endpoint of the relay service
	RelayURL string `mapstructure:"relay_url"`

	// ShareBase is the page viewers open; the room id is added as ?room=
	ShareBase string `mapstructure:"share_base"`

	// STUN servers for WebRTC. TURN is not supported.
	STUNServers []string `mapstructure:"stun_servers"`

	// Port the relay service listens on
	Port int `mapstructure:"port"`
}

// Options for loading config with CLI flag overrides
type Options struct {
	RelayURL   string
	ShareBase  string
	STUNServer string
	Port       int

	// ConfigFile is an optional YAML file. When empty, screenshare.yaml is
	// looked up in the working directory and silently skipped if absent.
	ConfigFile string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Config file
// 4. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("relay_url", DefaultRelayURL)
	v.SetDefault("share_base", DefaultShareBase)
	v.SetDefault("stun_servers", []string{DefaultSTUN})
	v.SetDefault("port", DefaultPort)

	v.SetConfigType("yaml")
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("screenshare")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// STUN_SERVER is the single-server shorthand kept for compatibility.
	if stun := v.GetString("stun_server"); stun != "" {
		v.Set("stun_servers", []string{stun})
	}

	if opts.RelayURL != "" {
		v.Set("relay_url", opts.RelayURL)
	}
	if opts.ShareBase != "" {
		v.Set("share_base", opts.ShareBase)
	}
	if opts.STUNServer != "" {
		v.Set("stun_servers", []string{opts.STUNServer})
	}
	if opts.Port != 0 {
		v.Set("port", opts.Port)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.RelayURL)
	if err != nil {
		return fmt.Errorf("invalid relay URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid relay URL %q: scheme must be ws or wss", c.RelayURL)
	}
	if _, err := url.Parse(c.ShareBase); err != nil {
		return fmt.Errorf("invalid share base: %w", err)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// RoomLink returns the link a viewer opens to join roomID.
func (c *Config) RoomLink(roomID string) string {
	u, err := url.Parse(c.ShareBase)
	if err != nil {
		return c.ShareBase + "?room=" + url.QueryEscape(roomID)
	}
	q := u.Query()
	q.Set("room", roomID)
	u.RawQuery = q.Encode()
	return u.String()
}

// RelayHTTPURL returns the relay's HTTP base derived from its WebSocket URL.
func (c *Config) RelayHTTPURL() string {
	u, err := url.Parse(c.RelayURL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "wss":
		u.Scheme = "https"
	default:
		u.Scheme = "http"
	}
	u.Path = strings.TrimSuffix(u.Path, "/ws")
	u.RawQuery = ""
	return strings.TrimSuffix(u.String(), "/")
}

// ParseRoom accepts either a bare room id or a share link carrying ?room=.
func ParseRoom(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	if strings.Contains(input, "room=") {
		if u, err := url.Parse(input); err == nil {
			if room := u.Query().Get("room"); room != "" {
				return room
			}
		}
	}
	return input
}
