// Package auth issues and verifies the bearer tokens Fletcher's API uses
// to authenticate remote compute platforms and operator tooling.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"fletcher/internal/apierr"
	"fletcher/internal/config"
)

// Role is the closed set of permissions a caller can be granted,
// matching the original Fletcher's Role enum (disable, pause, publish,
// update).
type Role string

const (
	RoleDisable Role = "disable"
	RolePause   Role = "pause"
	RolePublish Role = "publish"
	RoleUpdate  Role = "update"
)

func (r Role) String() string { return string(r) }

// claims are the JWT claims Fletcher signs: {sub: service, roles, iat, exp}.
type claims struct {
	Roles []Role `json:"roles"`
	jwt.RegisteredClaims
}

// Authenticated is the response body of POST /api/authenticate, carrying
// the original implementation's exact response shape.
type Authenticated struct {
	AccessToken string `json:"access_token"`
	Issued      int64  `json:"issued"`
	IssuedBy    string `json:"issued_by"`
	Expires     int64  `json:"expires"`
	Roles       []Role `json:"roles"`
	Service     string `json:"service"`
	TokenType   string `json:"token_type"`
	TTL         int64  `json:"ttl"`
}

const issuedBy = "Fletcher"

// Service verifies remote-service credentials and issues signed bearer
// tokens. It holds no Store dependency — the remote service registry is
// loaded once from configuration at startup (spec.md §6, REMOTE_APIS).
type Service struct {
	secretKey  []byte
	remoteAPIs map[string]config.RemoteAPI
	ttl        time.Duration
}

func New(cfg *config.Config) *Service {
	byService := make(map[string]config.RemoteAPI, len(cfg.RemoteAPIs))
	for _, r := range cfg.RemoteAPIs {
		byService[r.Service] = r
	}
	return &Service{
		secretKey:  []byte(cfg.SecretKey),
		remoteAPIs: byService,
		ttl:        time.Duration(cfg.TokenTTLSeconds) * time.Second,
	}
}

// Authenticate verifies service/key against the configured bcrypt hash
// and, on success, issues a signed bearer token.
func (s *Service) Authenticate(service, key string) (*Authenticated, error) {
	remote, ok := s.remoteAPIs[service]
	if !ok {
		return nil, apierr.New(apierr.KindUnauthorized, fmt.Sprintf("unknown service %q", service))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(remote.Hash), []byte(key)); err != nil {
		return nil, apierr.New(apierr.KindUnauthorized, "invalid key")
	}

	roles := make([]Role, len(remote.Roles))
	for i, r := range remote.Roles {
		roles[i] = Role(r)
	}

	now := time.Now()
	expires := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   service,
			Issuer:    issuedBy,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})

	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindInternal, "sign token", err)
	}

	return &Authenticated{
		AccessToken: signed,
		Issued:      now.Unix(),
		IssuedBy:    issuedBy,
		Expires:     expires.Unix(),
		Roles:       roles,
		Service:     service,
		TokenType:   "Bearer",
		TTL:         int64(s.ttl.Seconds()),
	}, nil
}

// Principal is the authenticated identity attached to a request context
// after successful bearer-token verification.
type Principal struct {
	Service string
	Roles   []Role
}

// HasRole reports whether the principal was granted role.
func (p Principal) HasRole(role Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// VerifyToken parses and validates a bearer token, and checks that the
// service it names is still present in the remote-service registry —
// the original's jwt_checker re-validates this on every request rather
// than trusting a stale claim.
func (s *Service) VerifyToken(tokenString string) (*Principal, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil || !parsed.Valid {
		return nil, apierr.New(apierr.KindUnauthorized, "invalid or expired token")
	}

	c, ok := parsed.Claims.(*claims)
	if !ok {
		return nil, apierr.New(apierr.KindUnauthorized, "invalid token claims")
	}

	if _, ok := s.remoteAPIs[c.Subject]; !ok {
		return nil, apierr.New(apierr.KindUnauthorized, fmt.Sprintf("unknown service %q", c.Subject))
	}

	return &Principal{Service: c.Subject, Roles: c.Roles}, nil
}

// RequireRole reports whether the principal may perform an operation
// gated by role, mirroring the original's check_role.
func RequireRole(p *Principal, role Role) error {
	if p == nil || !p.HasRole(role) {
		service := ""
		if p != nil {
			service = p.Service
		}
		return apierr.New(apierr.KindForbidden, fmt.Sprintf("service %q lacks role %q", service, role))
	}
	return nil
}
