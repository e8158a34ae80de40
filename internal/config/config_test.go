package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load("../../configs/farmview.yaml")
	if err != nil {
		t.Fatalf("load farmview.yaml: %v", err)
	}
	if got := cfg.Endpoint.Endpoint().String(); got != "ws://localhost:8080/stream" {
		t.Fatalf("endpoint=%q", got)
	}
	p := cfg.Reconnect.Policy()
	if p.BaseDelay != time.Second || p.MaxDelay != 5*time.Second || p.MaxAttempts != 10 {
		t.Fatalf("policy=%+v", p)
	}
	if cfg.Journal.Dir == "" || cfg.Journal.Index == "" {
		t.Fatalf("journal should be enabled in the example file: %+v", cfg.Journal)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.History.Capacity != 50 || cfg.History.OverlayCapacity != 5 {
		t.Fatalf("history=%+v", cfg.History)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Fatalf("log=%+v", cfg.Log)
	}
	if cfg.Journal.Dir != "" {
		t.Fatalf("journal should be off by default")
	}
}

func TestLoad_PartialFileIsNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	body := "endpoint:\n  url: wss://farm.example.com/stream\nreconnect:\n  max_attempts: 3\nlog:\n  level: DEBUG\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.Endpoint.Endpoint().String(); got != "wss://farm.example.com/stream" {
		t.Fatalf("endpoint=%q", got)
	}
	p := cfg.Reconnect.Policy()
	if p.MaxAttempts != 3 || p.BaseDelay != time.Second || p.MaxDelay != 5*time.Second {
		t.Fatalf("policy=%+v", p)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("level=%q", cfg.Log.Level)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
		want string
	}{
		{"scheme", func(c *Config) { c.Endpoint.URL = "http://x/stream" }, "scheme"},
		{"delays", func(c *Config) { c.Reconnect.BaseDelayMS = 9000 }, "max_delay_ms"},
		{"level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"index", func(c *Config) { c.Journal.Index = "x.sqlite" }, "journal.dir"},
	}
	for _, tc := range cases {
		cfg := Defaults()
		tc.mut(&cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: err=%v want mention of %q", tc.name, err, tc.want)
		}
	}
}
