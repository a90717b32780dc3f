package config

import "testing"

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SECRET_KEY", "shh")
	t.Setenv("REMOTE_APIS", `[]`)

	_, err := Load()
	if err == nil {
		t.Error("expected error when DATABASE_URL is missing")
	}
}

func TestLoad_RequiresSecretKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("REMOTE_APIS", `[]`)

	_, err := Load()
	if err == nil {
		t.Error("expected error when SECRET_KEY is missing")
	}
}

func TestLoad_RequiresRemoteAPIs(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("SECRET_KEY", "shh")
	t.Setenv("REMOTE_APIS", "")

	_, err := Load()
	if err == nil {
		t.Error("expected error when REMOTE_APIS is missing")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("SECRET_KEY", "shh")
	t.Setenv("REMOTE_APIS", `[]`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != 6161 {
		t.Errorf("HTTPPort = %d, want 6161", cfg.HTTPPort)
	}
	if cfg.MaxConnections != 10 {
		t.Errorf("MaxConnections = %d, want 10", cfg.MaxConnections)
	}
	if cfg.TokenTTLSeconds != 3600 {
		t.Errorf("TokenTTLSeconds = %d, want 3600", cfg.TokenTTLSeconds)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %s, want info", cfg.LogLevel)
	}
}

func TestLoad_ParsesRemoteAPIs(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("SECRET_KEY", "shh")
	t.Setenv("REMOTE_APIS", `[{"service":"cams","hash":"$2a$...","roles":["publish","update"]}]`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.RemoteAPIs) != 1 || cfg.RemoteAPIs[0].Service != "cams" {
		t.Fatalf("RemoteAPIs = %+v, want one entry for cams", cfg.RemoteAPIs)
	}
	if len(cfg.RemoteAPIs[0].Roles) != 2 {
		t.Fatalf("Roles = %v, want 2 entries", cfg.RemoteAPIs[0].Roles)
	}
}

func TestLoad_InvalidRemoteAPIs(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("SECRET_KEY", "shh")
	t.Setenv("REMOTE_APIS", `not json`)

	_, err := Load()
	if err == nil {
		t.Error("expected error for malformed REMOTE_APIS")
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://custom/db")
	t.Setenv("SECRET_KEY", "shh")
	t.Setenv("REMOTE_APIS", `[]`)
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("MAX_CONNECTIONS", "30")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CAMS_BASE_URL", "http://cams.internal")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPPort != 9999 {
		t.Errorf("HTTPPort = %d, want 9999", cfg.HTTPPort)
	}
	if cfg.MaxConnections != 30 {
		t.Errorf("MaxConnections = %d, want 30", cfg.MaxConnections)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
	if cfg.CAMSBaseURL != "http://cams.internal" {
		t.Errorf("CAMSBaseURL = %s, want override", cfg.CAMSBaseURL)
	}
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("SECRET_KEY", "shh")
	t.Setenv("REMOTE_APIS", `[]`)
	t.Setenv("HTTP_PORT", "not-a-number")

	_, err := Load()
	if err == nil {
		t.Error("expected error for non-numeric HTTP_PORT")
	}
}
