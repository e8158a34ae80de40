package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"farmview.ai/internal/conn"
	"farmview.ai/internal/history"
)

type Config struct {
	Endpoint  EndpointSpec  `yaml:"endpoint"`
	Reconnect ReconnectSpec `yaml:"reconnect"`
	History   HistorySpec   `yaml:"history"`
	Journal   JournalSpec   `yaml:"journal"`
	Log       LogSpec       `yaml:"log"`
	Catalog   CatalogSpec   `yaml:"catalog"`
}

type EndpointSpec struct {
	URL  string `yaml:"url,omitempty"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
	TLS  bool   `yaml:"tls,omitempty"`
}

type ReconnectSpec struct {
	BaseDelayMS int `yaml:"base_delay_ms"`
	MaxDelayMS  int `yaml:"max_delay_ms"`
	MaxAttempts int `yaml:"max_attempts"`
}

type HistorySpec struct {
	Capacity        int `yaml:"capacity"`
	OverlayCapacity int `yaml:"overlay_capacity"`
}

// JournalSpec enables frame journaling when Dir is set. Index is an
// optional SQLite path.
type JournalSpec struct {
	Dir   string `yaml:"dir,omitempty"`
	Index string `yaml:"index,omitempty"`
}

type LogSpec struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// CatalogSpec points at a replacement market catalog; empty means the
// built-in one.
type CatalogSpec struct {
	Path string `yaml:"path,omitempty"`
}

func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Defaults() Config {
	p := conn.DefaultPolicy()
	return Config{
		Endpoint: EndpointSpec{Host: "localhost", Port: 8080, Path: "/stream"},
		Reconnect: ReconnectSpec{
			BaseDelayMS: int(p.BaseDelay / time.Millisecond),
			MaxDelayMS:  int(p.MaxDelay / time.Millisecond),
			MaxAttempts: p.MaxAttempts,
		},
		History: HistorySpec{
			Capacity:        history.DefaultCapacity,
			OverlayCapacity: history.DefaultOverlayCapacity,
		},
		Log: LogSpec{Level: "info", Format: "text"},
	}
}

// Normalize fills zero values left by a partial file.
func (c *Config) Normalize() {
	d := Defaults()
	c.Endpoint.URL = strings.TrimSpace(c.Endpoint.URL)
	c.Endpoint.Host = strings.TrimSpace(c.Endpoint.Host)
	if c.Endpoint.URL == "" {
		if c.Endpoint.Host == "" {
			c.Endpoint.Host = d.Endpoint.Host
		}
		if c.Endpoint.Port == 0 {
			c.Endpoint.Port = d.Endpoint.Port
		}
		if c.Endpoint.Path == "" {
			c.Endpoint.Path = d.Endpoint.Path
		}
	}
	if c.Reconnect.BaseDelayMS == 0 {
		c.Reconnect.BaseDelayMS = d.Reconnect.BaseDelayMS
	}
	if c.Reconnect.MaxDelayMS == 0 {
		c.Reconnect.MaxDelayMS = d.Reconnect.MaxDelayMS
	}
	if c.Reconnect.MaxAttempts == 0 {
		c.Reconnect.MaxAttempts = d.Reconnect.MaxAttempts
	}
	if c.History.Capacity == 0 {
		c.History.Capacity = d.History.Capacity
	}
	if c.History.OverlayCapacity == 0 {
		c.History.OverlayCapacity = d.History.OverlayCapacity
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

func (c Config) Validate() error {
	if err := c.Endpoint.Endpoint().Validate(); err != nil {
		return err
	}
	if c.Endpoint.Port < 0 || c.Endpoint.Port > 65535 {
		return fmt.Errorf("endpoint.port out of range: %d", c.Endpoint.Port)
	}
	if c.Reconnect.BaseDelayMS < 0 || c.Reconnect.MaxDelayMS < 0 {
		return fmt.Errorf("reconnect delays must be positive")
	}
	if c.Reconnect.MaxDelayMS < c.Reconnect.BaseDelayMS {
		return fmt.Errorf("reconnect.max_delay_ms (%d) below base_delay_ms (%d)", c.Reconnect.MaxDelayMS, c.Reconnect.BaseDelayMS)
	}
	if c.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("reconnect.max_attempts must be >= 0")
	}
	if c.History.Capacity < 0 || c.History.OverlayCapacity < 0 {
		return fmt.Errorf("history capacities must be positive")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if c.Journal.Index != "" && c.Journal.Dir == "" {
		return fmt.Errorf("journal.index requires journal.dir")
	}
	return nil
}

func (e EndpointSpec) Endpoint() conn.Endpoint {
	return conn.Endpoint{URL: e.URL, Host: e.Host, Port: e.Port, Path: e.Path, TLS: e.TLS}
}

func (r ReconnectSpec) Policy() conn.Policy {
	return conn.Policy{
		BaseDelay:   time.Duration(r.BaseDelayMS) * time.Millisecond,
		MaxDelay:    time.Duration(r.MaxDelayMS) * time.Millisecond,
		MaxAttempts: r.MaxAttempts,
	}
}
