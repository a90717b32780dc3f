package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"fletcher/internal/apierr"
	"fletcher/internal/config"
)

func testConfig(t *testing.T, service, key string, roles []string) *config.Config {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt.GenerateFromPassword: %v", err)
	}
	return &config.Config{
		SecretKey:       "test-secret",
		TokenTTLSeconds: 3600,
		RemoteAPIs: []config.RemoteAPI{
			{Service: service, Hash: string(hashed), Roles: roles},
		},
	}
}

func TestAuthenticate_ValidCredentials(t *testing.T) {
	cfg := testConfig(t, "cams", "abc123", []string{"publish", "update"})
	s := New(cfg)

	auth, err := s.Authenticate("cams", "abc123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if auth.Service != "cams" {
		t.Errorf("Service = %s, want cams", auth.Service)
	}
	if auth.IssuedBy != "Fletcher" {
		t.Errorf("IssuedBy = %s, want Fletcher", auth.IssuedBy)
	}
	if auth.TokenType != "Bearer" {
		t.Errorf("TokenType = %s, want Bearer", auth.TokenType)
	}
	if auth.TTL != 3600 {
		t.Errorf("TTL = %d, want 3600", auth.TTL)
	}
	if auth.AccessToken == "" {
		t.Error("AccessToken is empty")
	}
}

func TestAuthenticate_WrongKey(t *testing.T) {
	cfg := testConfig(t, "cams", "abc123", []string{"publish"})
	s := New(cfg)

	_, err := s.Authenticate("cams", "wrong")
	if !apierr.OfKind(err, apierr.KindUnauthorized) {
		t.Fatalf("err = %v, want Unauthorized", err)
	}
}

func TestAuthenticate_UnknownService(t *testing.T) {
	cfg := testConfig(t, "cams", "abc123", []string{"publish"})
	s := New(cfg)

	_, err := s.Authenticate("nope", "abc123")
	if !apierr.OfKind(err, apierr.KindUnauthorized) {
		t.Fatalf("err = %v, want Unauthorized", err)
	}
}

func TestVerifyToken_RoundTrip(t *testing.T) {
	cfg := testConfig(t, "cams", "abc123", []string{"publish", "update"})
	s := New(cfg)

	auth, err := s.Authenticate("cams", "abc123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	principal, err := s.VerifyToken(auth.AccessToken)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if principal.Service != "cams" {
		t.Errorf("Service = %s, want cams", principal.Service)
	}
	if !principal.HasRole(RolePublish) {
		t.Error("expected publish role")
	}
	if principal.HasRole(RoleDisable) {
		t.Error("did not expect disable role")
	}
}

func TestVerifyToken_Malformed(t *testing.T) {
	cfg := testConfig(t, "cams", "abc123", []string{"publish"})
	s := New(cfg)

	if _, err := s.VerifyToken("not-a-jwt"); !apierr.OfKind(err, apierr.KindUnauthorized) {
		t.Fatalf("err = %v, want Unauthorized", err)
	}
}

func TestRequireRole(t *testing.T) {
	p := &Principal{Service: "cams", Roles: []Role{RolePublish}}

	if err := RequireRole(p, RolePublish); err != nil {
		t.Errorf("RequireRole(publish): %v", err)
	}
	if err := RequireRole(p, RoleDisable); !apierr.OfKind(err, apierr.KindForbidden) {
		t.Fatalf("RequireRole(disable) = %v, want Forbidden", err)
	}
	if err := RequireRole(nil, RolePublish); !apierr.OfKind(err, apierr.KindForbidden) {
		t.Fatalf("RequireRole(nil) = %v, want Forbidden", err)
	}
}
