package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8081" {
		t.Fatalf("default port = %s", cfg.Port)
	}
	if cfg.HistoryDefaultDays != 30 || cfg.HistoryMaxDays != 366 {
		t.Fatalf("default history bounds = %d/%d", cfg.HistoryDefaultDays, cfg.HistoryMaxDays)
	}
	if cfg.RolloverTTL != 48*time.Hour {
		t.Fatalf("default rollover TTL = %v", cfg.RolloverTTL)
	}
	if cfg.CloseOutSchedule != "@hourly" {
		t.Fatalf("default schedule = %s", cfg.CloseOutSchedule)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("HISTORY_DEFAULT_DAYS", "7")
	t.Setenv("ROLLOVER_TTL", "1h")
	t.Setenv("REDIS_URL", "localhost:6379")
	cfg := Load()
	if cfg.Port != "9000" || cfg.HistoryDefaultDays != 7 || cfg.RolloverTTL != time.Hour {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.RedisURL != "localhost:6379" {
		t.Fatalf("redis url = %s", cfg.RedisURL)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Port:               "8081",
			SQLiteDBPath:       "perdiem.db",
			HistoryDefaultDays: 30,
			HistoryMaxDays:     366,
			RolloverTTL:        time.Hour,
			RefreshBatchSize:   50,
			CloseOutSchedule:   "@hourly",
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"bad port", func(c *Config) { c.Port = "notaport" }, "invalid port"},
		{"port range", func(c *Config) { c.Port = "70000" }, "invalid port"},
		{"empty db path", func(c *Config) { c.SQLiteDBPath = "" }, "database path"},
		{"bad amqp scheme", func(c *Config) { c.AMQPURL = "http://localhost" }, "AMQP URL scheme"},
		{"amqp without queue", func(c *Config) { c.AMQPURL = "amqp://localhost"; c.AMQPExchange = "x" }, "queue name"},
		{"bad secret", func(c *Config) { c.SigningSecret = "base64:!!!" }, "signing secret"},
		{"history default", func(c *Config) { c.HistoryDefaultDays = 0 }, "default history days"},
		{"history max below default", func(c *Config) { c.HistoryMaxDays = 10 }, "max history days"},
		{"short ttl", func(c *Config) { c.RolloverTTL = time.Second }, "rollover TTL"},
		{"batch size", func(c *Config) { c.RefreshBatchSize = 0 }, "refresh batch size"},
		{"empty schedule", func(c *Config) { c.CloseOutSchedule = "" }, "schedule"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("error %q does not mention %q", err, tc.wantMsg)
			}
		})
	}
}

func TestSigningKey(t *testing.T) {
	c := &Config{SigningSecret: "base64:c2VjcmV0a2V5"}
	key, err := c.SigningKey()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(key) != "secretkey" {
		t.Fatalf("key = %q", key)
	}

	c = &Config{SigningSecret: "c2VjcmV0a2V5"}
	if key, err = c.SigningKey(); err != nil || string(key) != "secretkey" {
		t.Fatalf("unprefixed decode: %q %v", key, err)
	}

	c = &Config{}
	if key, err = c.SigningKey(); err != nil || key != nil {
		t.Fatalf("empty secret should yield nil key, got %q %v", key, err)
	}
}
