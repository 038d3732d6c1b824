package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_IssueAndVerify(t *testing.T) {
	secret := "test-secret"
	mgr := NewJWTManager(secret)

	token, err := mgr.Issue("organiser@college.edu", true, 24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Parse and verify claims directly
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(*jwtClaims)
	require.True(t, ok)
	assert.Equal(t, "organiser@college.edu", claims.Subject)
	assert.Equal(t, "organiser@college.edu", claims.Email)
	assert.True(t, claims.Organiser)

	email, err := mgr.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "organiser@college.edu", email)
}

func TestJWTManager_VerifyRejectsBadToken(t *testing.T) {
	mgr := NewJWTManager("secret-a")

	_, err := mgr.Verify("not-a-token")
	require.Error(t, err)

	other := NewJWTManager("secret-b")
	token, err := other.Issue("u@college.edu", false, time.Hour)
	require.NoError(t, err)
	_, err = mgr.Verify(token)
	require.Error(t, err, "token signed with a different secret must be rejected")
}

func TestJWTManager_VerifyRejectsExpired(t *testing.T) {
	mgr := NewJWTManager("secret")
	token, err := mgr.Issue("u@college.edu", false, -time.Minute)
	require.NoError(t, err)
	_, err = mgr.Verify(token)
	require.Error(t, err)
}
