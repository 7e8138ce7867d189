package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdg-garage/ecopoints-api/internal/models"
	"github.com/gdg-garage/ecopoints-api/internal/services"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, 24*time.Hour)

	pair, err := issuer.Issue(42)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Access, pair.Refresh)

	id, err := issuer.Parse(pair.Access, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	id, err = issuer.Parse(pair.Refresh, TokenTypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = issuer.Parse(pair.Refresh, TokenTypeAccess)
	assert.Error(t, err, "refresh token must not authenticate requests")
	_, err = issuer.Parse(pair.Access, TokenTypeRefresh)
	assert.Error(t, err)
}

func TestParseRejectsForeignAndExpiredTokens(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, 24*time.Hour)

	other := NewTokenIssuer("other-secret", time.Hour, time.Hour)
	foreign, err := other.IssueAccess(1)
	require.NoError(t, err)
	_, err = issuer.Parse(foreign, TokenTypeAccess)
	assert.Error(t, err)

	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, err := issuer.IssueAccess(1)
	require.NoError(t, err)
	issuer.now = time.Now
	_, err = issuer.Parse(stale, TokenTypeAccess)
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 1, "typ": TokenTypeAccess})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Parse(unsigned, TokenTypeAccess)
	assert.Error(t, err)

	_, err = issuer.Parse("garbage", TokenTypeAccess)
	assert.Error(t, err)
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	active := f.user(t, "active", models.RoleUser, true)
	disabled := f.user(t, "disabled", models.RoleUser, false)
	ctx := context.Background()

	pair, err := f.handler.Tokens().Issue(active.ID)
	require.NoError(t, err)

	refreshed, user, err := f.handler.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, active.ID, user.ID)
	assert.Equal(t, pair.Refresh, refreshed.Refresh)
	id, err := f.handler.Tokens().Parse(refreshed.Access, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, active.ID, id)

	var authn *services.AuthenticationError
	_, _, err = f.handler.Refresh(ctx, pair.Access)
	assert.True(t, errors.As(err, &authn), "access token must not refresh: %v", err)

	ghost, err := f.handler.Tokens().Issue(9999)
	require.NoError(t, err)
	_, _, err = f.handler.Refresh(ctx, ghost.Refresh)
	assert.True(t, errors.As(err, &authn), "got %v", err)

	off, err := f.handler.Tokens().Issue(disabled.ID)
	require.NoError(t, err)
	_, _, err = f.handler.Refresh(ctx, off.Refresh)
	var authz *services.AuthorizationError
	assert.True(t, errors.As(err, &authz), "got %v", err)
}

func TestPolicy(t *testing.T) {
	p := Policy{"login": Public, "award": AdminOnly}
	assert.Equal(t, Public, p.For("login"))
	assert.Equal(t, AdminOnly, p.For("award"))
	assert.Equal(t, Authenticated, p.For("anything-else"))
	assert.Equal(t, "admin", AdminOnly.String())
}
