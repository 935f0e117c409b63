// Package auth verifies bearer tokens and checks the caller may import.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/joseph-ayodele/hr-ingest/constants"
	"github.com/joseph-ayodele/hr-ingest/internal/common"
)

// RoleLookup resolves a user's role. repository.RoleRepository implements it.
type RoleLookup interface {
	RoleForUser(ctx context.Context, userID string) (string, error)
}

// Caller is an authenticated, authorized user.
type Caller struct {
	UserID string
	Role   string
}

type Authenticator struct {
	secret []byte
	issuer string
	ttl    time.Duration
	roles  RoleLookup
	log    *slog.Logger
	now    func() time.Time
}

type Option func(*Authenticator)

// WithClock overrides time.Now for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

func New(cfg common.AuthConfig, roles RoleLookup, logger *slog.Logger, opts ...Option) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	a := &Authenticator{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		roles:  roles,
		log:    logger,
		now:    time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Verify checks an HS256 token and returns its subject.
func (a *Authenticator) Verify(token string) (string, error) {
	if token == "" {
		return "", &common.AuthError{Reason: "missing bearer token"}
	}
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(a.issuer))
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, parserOpts...)
	if err != nil || !parsed.Valid {
		return "", &common.AuthError{Reason: "invalid token", Err: err}
	}
	if claims.Subject == "" {
		return "", &common.AuthError{Reason: "token has no subject"}
	}
	return claims.Subject, nil
}

// Authorize verifies the token and requires an import role.
func (a *Authenticator) Authorize(ctx context.Context, authorization string) (*Caller, error) {
	token, ok := BearerToken(authorization)
	if !ok {
		return nil, &common.AuthError{Reason: "missing bearer token"}
	}
	userID, err := a.Verify(token)
	if err != nil {
		a.log.Warn("auth.token.rejected", "err", err)
		return nil, err
	}

	role, err := a.roles.RoleForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			a.log.Warn("auth.role.missing", "user_id", userID)
			return nil, &common.ForbiddenError{UserID: userID}
		}
		return nil, fmt.Errorf("role lookup: %w", err)
	}
	if _, ok := constants.ImportRoles[role]; !ok {
		a.log.Warn("auth.role.forbidden", "user_id", userID, "role", role)
		return nil, &common.ForbiddenError{UserID: userID, Role: role}
	}
	a.log.Debug("auth.ok", "user_id", userID, "role", role)
	return &Caller{UserID: userID, Role: role}, nil
}

// IssueToken mints an HS256 token for userID.
func (a *Authenticator) IssueToken(userID string) (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}
