package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/hr-ingest/constants"
	"github.com/joseph-ayodele/hr-ingest/internal/common"
)

type roleMap map[string]string

func (m roleMap) RoleForUser(_ context.Context, userID string) (string, error) {
	if userID == "broken" {
		return "", errors.New("connection reset")
	}
	role, ok := m[userID]
	if !ok {
		return "", fmt.Errorf("role for %q: %w", userID, common.ErrNotFound)
	}
	return role, nil
}

var cfg = common.AuthConfig{JWTSecret: "test-secret", Issuer: "hr-ingest", TokenTTL: time.Hour}

func newAuth(opts ...Option) *Authenticator {
	roles := roleMap{
		"hr-1":    constants.RoleHR,
		"admin-1": constants.RoleSuperAdmin,
		"emp-1":   constants.RoleEmployee,
	}
	return New(cfg, roles, nil, opts...)
}

func TestAuthorize(t *testing.T) {
	a := newAuth()
	ctx := context.Background()

	for _, user := range []string{"hr-1", "admin-1"} {
		tok, err := a.IssueToken(user)
		require.NoError(t, err)
		caller, err := a.Authorize(ctx, "Bearer "+tok)
		require.NoError(t, err)
		assert.Equal(t, user, caller.UserID)
	}
}

func TestAuthorize_Forbidden(t *testing.T) {
	a := newAuth()
	ctx := context.Background()

	for _, user := range []string{"emp-1", "nobody"} {
		tok, err := a.IssueToken(user)
		require.NoError(t, err)
		_, err = a.Authorize(ctx, "Bearer "+tok)
		var forbidden *common.ForbiddenError
		require.ErrorAs(t, err, &forbidden, user)
		assert.Equal(t, 403, common.HTTPStatus(err))
	}
}

func TestAuthorize_RoleLookupError(t *testing.T) {
	a := newAuth()
	tok, err := a.IssueToken("broken")
	require.NoError(t, err)
	_, err = a.Authorize(context.Background(), "Bearer "+tok)
	require.Error(t, err)
	assert.Equal(t, 500, common.HTTPStatus(err))
}

func TestAuthorize_Unauthorized(t *testing.T) {
	a := newAuth()
	good, err := a.IssueToken("hr-1")
	require.NoError(t, err)

	past := newAuth(WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }))
	expired, err := past.IssueToken("hr-1")
	require.NoError(t, err)

	other := New(common.AuthConfig{JWTSecret: "other-secret", Issuer: "hr-ingest"}, roleMap{}, nil)
	wrongKey, err := other.IssueToken("hr-1")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "hr-1",
		Issuer:    "hr-ingest",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "hr-ingest",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic " + good,
		"empty bearer":   "Bearer ",
		"garbage":        "Bearer not-a-token",
		"expired":        "Bearer " + expired,
		"wrong key":      "Bearer " + wrongKey,
		"alg none":       "Bearer " + none,
		"no subject":     "Bearer " + noSub,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := a.Authorize(context.Background(), header)
			var authErr *common.AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, 401, common.HTTPStatus(err))
		})
	}
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = BearerToken("Bearer")
	assert.False(t, ok)
}
