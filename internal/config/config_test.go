package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8080" || cfg.Addr() != ":8080" {
		t.Errorf("Port = %q, Addr = %q", cfg.Port, cfg.Addr())
	}
	if cfg.StoreDriver != DriverSQLite || cfg.SQLitePath != "events.db" {
		t.Errorf("store defaults = %q %q", cfg.StoreDriver, cfg.SQLitePath)
	}
	if cfg.TrackAttendance {
		t.Error("attendance tracking should be off by default")
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
	want := []string{"/events", "/profile", "/api/events", "/api/me"}
	if strings.Join(cfg.ProtectedPrefixes, ",") != strings.Join(want, ",") {
		t.Errorf("ProtectedPrefixes = %v, want %v", cfg.ProtectedPrefixes, want)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "AUTH_JWT_SECRET=from-file\nSTORE_DRIVER=Mongo\nPORT=9000\nPROTECTED_PREFIXES=/events, ,/admin\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	// Registered with t.Setenv so the values loaded from the file are
	// restored after the test.
	for _, k := range []string{"AUTH_JWT_SECRET", "STORE_DRIVER", "PORT", "PROTECTED_PREFIXES"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("PORT", "7000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.JWTSecret != "from-file" {
		t.Errorf("JWTSecret = %q, want from-file", cfg.JWTSecret)
	}
	if cfg.StoreDriver != DriverMongo {
		t.Errorf("StoreDriver = %q, want mongo", cfg.StoreDriver)
	}
	if cfg.Port != "7000" {
		t.Errorf("Port = %q, environment should win over the file", cfg.Port)
	}
	if strings.Join(cfg.ProtectedPrefixes, ",") != "/events,/admin" {
		t.Errorf("ProtectedPrefixes = %v", cfg.ProtectedPrefixes)
	}
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("RSVP_TRACK_ATTENDANCE", "sometimes")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		JWTSecret:       "secret",
		StoreDriver:     DriverSQLite,
		SQLitePath:      "events.db",
		ShutdownTimeout: time.Second,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "AUTH_JWT_SECRET"},
		{"unknown driver", func(c *Config) { c.StoreDriver = "postgres" }, "STORE_DRIVER"},
		{"mongo without database", func(c *Config) {
			c.StoreDriver = DriverMongo
			c.MongoURI = "mongodb://localhost"
		}, "MONGO_DATABASE"},
		{"zero shutdown", func(c *Config) { c.ShutdownTimeout = 0 }, "SHUTDOWN_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestLoadStoreSkipsSessionSettings(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("SQLITE_PATH", "seed.db")

	cfg, err := LoadStore(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadStore() error = %v", err)
	}
	if cfg.SQLitePath != "seed.db" {
		t.Errorf("SQLitePath = %q", cfg.SQLitePath)
	}
	if cfg.SignInURL != "/sign-in" || cfg.SignUpURL != "/sign-up" {
		t.Errorf("auth URLs = %q %q", cfg.SignInURL, cfg.SignUpURL)
	}

	t.Setenv("STORE_DRIVER", "postgres")
	if _, err := LoadStore(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("LoadStore() should still reject an unknown driver")
	}
}
