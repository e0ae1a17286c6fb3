package config

import (
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BatchSize != 5000 {
		t.Errorf("expected batch size 5000, got %d", cfg.BatchSize)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("expected port 5432, got %d", cfg.DBPort)
	}
	if cfg.MappingFile == "" {
		t.Error("expected a default mapping file")
	}
}

func TestConnectionString(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DBHost = "db.example.com"
	cfg.DBName = "places"
	cfg.DBUser = "loader"

	connStr := cfg.ConnectionString()
	for _, want := range []string{"host=db.example.com", "dbname=places", "user=loader"} {
		if !strings.Contains(connStr, want) {
			t.Errorf("expected %q in connection string %q", want, connStr)
		}
	}
	if strings.Contains(connStr, "password") {
		t.Error("empty password should not appear in connection string")
	}

	cfg.DBPassword = "hunter2"
	if !strings.Contains(cfg.ConnectionString(), "password=hunter2") {
		t.Error("expected password in connection string")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InputFile = "extract.osm.pbf"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing input", func(c *Config) { c.InputFile = "" }},
		{"missing mapping", func(c *Config) { c.MappingFile = "" }},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }},
		{"zero progress interval", func(c *Config) { c.ProgressInterval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.InputFile = "extract.osm.pbf"
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
