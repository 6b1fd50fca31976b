package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoadFromMap_Defaults(t *testing.T) {
	cfg, err := LoadFromMap(map[string]string{})
	if err != nil {
		t.Fatalf("LoadFromMap failed: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.DatabaseDriver != DriverSQLite {
		t.Errorf("expected sqlite driver, got %s", cfg.DatabaseDriver)
	}
	if cfg.RequireProvisioning {
		t.Error("expected provisioning to be disabled by default")
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("expected 30s shutdown timeout, got %s", cfg.ShutdownTimeout)
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.Addr())
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("expected info level, got %v", cfg.SlogLevel())
	}
}

func TestLoadFromMap_Overrides(t *testing.T) {
	cfg, err := LoadFromMap(map[string]string{
		"PORT":                 "9090",
		"DATABASE_DRIVER":      "MySQL",
		"DATABASE_URL":         "user:pass@tcp(localhost:3306)/keys?parseTime=true",
		"LOG_LEVEL":            "debug",
		"ADMIN_TOKEN":          "s3cret",
		"BOOTSTRAP_ADMIN_IPS":  "127.0.0.1,::1",
		"REQUIRE_PROVISIONING": "true",
		"OTEL_SAMPLING_RATE":   "0.25",
	})
	if err != nil {
		t.Fatalf("LoadFromMap failed: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.DatabaseDriver != DriverMySQL {
		t.Errorf("expected mysql driver, got %s", cfg.DatabaseDriver)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.SlogLevel())
	}
	if len(cfg.BootstrapAdminIPs) != 2 || cfg.BootstrapAdminIPs[1] != "::1" {
		t.Errorf("unexpected bootstrap admins: %v", cfg.BootstrapAdminIPs)
	}
	if !cfg.RequireProvisioning {
		t.Error("expected provisioning to be required")
	}
	if cfg.OtelSamplingRate != 0.25 {
		t.Errorf("expected sampling rate 0.25, got %v", cfg.OtelSamplingRate)
	}
}

func TestLoadFromMap_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"port out of range", map[string]string{"PORT": "70000"}, "PORT"},
		{"port not a number", map[string]string{"PORT": "abc"}, "loading config"},
		{"unknown driver", map[string]string{"DATABASE_DRIVER": "postgres"}, "DATABASE_DRIVER"},
		{"unknown log level", map[string]string{"LOG_LEVEL": "TRACE"}, "LOG_LEVEL"},
		{"bad bootstrap ip", map[string]string{"BOOTSTRAP_ADMIN_IPS": "10.0.0.1,nope"}, "BOOTSTRAP_ADMIN_IPS"},
		{"sampling rate", map[string]string{"OTEL_SAMPLING_RATE": "1.5"}, "OTEL_SAMPLING_RATE"},
		{"shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "0s"}, "SHUTDOWN_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromMap(tt.env)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}
