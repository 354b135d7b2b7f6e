package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
app:
  port: "9090"
storage:
  driver: sqlite
  sqlite_path: /tmp/from-file.db
auth:
  jwt_secret: file-secret
  min_password_length: 10
intake:
  secret: file-intake
kafka:
  brokers: ["k1:9092"]
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("INTAKE_SECRET", "env-intake")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Port != "9090" {
		t.Fatalf("expected port from file, got %q", cfg.App.Port)
	}
	if cfg.Storage.Driver != StorageDriverSQLite || cfg.Storage.SQLitePath != "/tmp/from-file.db" {
		t.Fatalf("unexpected storage config: %+v", cfg.Storage)
	}
	if cfg.Intake.Secret != "env-intake" {
		t.Fatalf("expected env override for intake secret, got %q", cfg.Intake.Secret)
	}
	if cfg.Auth.MinPasswordLength != 10 {
		t.Fatalf("expected min password length from file, got %d", cfg.Auth.MinPasswordLength)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.Kafka.Brokers)
	}
	if cfg.Intake.DefaultTitle != "(no subject)" {
		t.Fatalf("expected default title, got %q", cfg.Intake.DefaultTitle)
	}
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = "mongo"
	cfg.Auth.JWTSecret = "s"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestValidateRequiresPostgresDSN(t *testing.T) {
	cfg := Default()
	cfg.Auth.JWTSecret = "s"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing DSN")
	}
	cfg.Postgres.DSN = "postgres://localhost/helpdesk"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCollaboratorTimeoutDefaults(t *testing.T) {
	if got := (AppConfig{}).CollaboratorTimeout(); got != 5*time.Second {
		t.Fatalf("expected 5s default, got %v", got)
	}
	if got := (AppConfig{CollaboratorTimeoutSeconds: 2}).CollaboratorTimeout(); got != 2*time.Second {
		t.Fatalf("expected 2s, got %v", got)
	}
}
