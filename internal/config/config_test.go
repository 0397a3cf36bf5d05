package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.JWTIssuer != "admin" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "admin")
	}
	if cfg.AccessTTL() != time.Hour {
		t.Errorf("AccessTTL = %v, want 1h", cfg.AccessTTL())
	}
	if cfg.SessionTTL() != 30*24*time.Hour {
		t.Errorf("SessionTTL = %v, want 720h", cfg.SessionTTL())
	}
	if cfg.SessionBackend != BackendRedis {
		t.Errorf("SessionBackend = %q, want redis", cfg.SessionBackend)
	}
	if got := cfg.AllowListPaths(); len(got) != 2 || got[0] != "/login" || got[1] != "/demo/sayHello" {
		t.Errorf("AllowListPaths = %v", got)
	}
	if !cfg.MetricsEnabled || cfg.AuditEnabled {
		t.Errorf("unexpected feature defaults metrics=%v audit=%v", cfg.MetricsEnabled, cfg.AuditEnabled)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("ACCESS_EXPIRE_MILLIS", "60000")
	t.Setenv("ALLOW_LIST", " /login , ,/health")
	t.Setenv("SESSION_BACKEND", "memory")
	t.Setenv("BCRYPT_COST", "4")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
	}
	if cfg.AccessTTL() != time.Minute {
		t.Errorf("AccessTTL = %v, want 1m", cfg.AccessTTL())
	}
	if got := cfg.AllowListPaths(); len(got) != 2 || got[1] != "/health" {
		t.Errorf("AllowListPaths = %v", got)
	}
	if cfg.BcryptCost != 4 {
		t.Errorf("BcryptCost = %d, want 4", cfg.BcryptCost)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "HTTP_ADDR=:7777\nJWT_SECRET=file-secret-file-secret-file-secret\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("HTTP_ADDR", ":6666")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":6666" {
		t.Errorf("env var must override file, got %q", cfg.HTTPAddr)
	}
	if cfg.JWTSecret != "file-secret-file-secret-file-secret" {
		t.Errorf("JWTSecret = %q, want value from file", cfg.JWTSecret)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bcrypt cost":     {"BCRYPT_COST": "3"},
		"backend":         {"SESSION_BACKEND": "etcd"},
		"log level":       {"LOG_LEVEL": "loud"},
		"log format":      {"LOG_FORMAT": "xml"},
		"memory throttle": {"SESSION_BACKEND": "memory", "LOGIN_THROTTLE_MAX": "5"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := LoadFile(""); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestToEngineConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "engine-secret-engine-secret-engine!")
	t.Setenv("REFRESH_EXPIRE_MILLIS", "86400000")
	t.Setenv("LOGIN_THROTTLE_MAX", "3")
	t.Setenv("AUDIT_ENABLED", "true")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ec := cfg.ToEngineConfig()
	if err := ec.Validate(); err != nil {
		t.Fatalf("engine config invalid: %v", err)
	}
	if ec.Session.TTL != 24*time.Hour {
		t.Errorf("Session.TTL = %v, want 24h", ec.Session.TTL)
	}
	if !ec.LoginThrottle.Enabled || ec.LoginThrottle.MaxAttempts != 3 || ec.LoginThrottle.Window != 15*time.Minute {
		t.Errorf("unexpected throttle %+v", ec.LoginThrottle)
	}
	if !ec.Audit.Enabled {
		t.Error("expected audit enabled")
	}
	if ec.Auth.TokenHeader != "access_token" {
		t.Errorf("TokenHeader = %q", ec.Auth.TokenHeader)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: "warn", LogFormat: "text"}
	log := cfg.Logger(&buf)
	log.Info("hidden")
	log.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected log output %q", out)
	}
}
