package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueVerifyRoundTrip(t *testing.T) {
	mgr, err := NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := mgr.Issue(7, "alice")
	require.NoError(t, err)

	claims, err := mgr.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	issuer, err := NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)
	verifier, err := NewTokenManager("ffffffffffffffffffffffffffffffff", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue(7, "alice")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	mgr, err := NewTokenManager(testSecret, time.Nanosecond)
	require.NoError(t, err)

	token, err := mgr.Issue(7, "alice")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = mgr.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	mgr, err := NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)

	for _, token := range []string{"", "abc", "a.b.c"} {
		_, err := mgr.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

func TestNewTokenManagerRejectsShortSecret(t *testing.T) {
	_, err := NewTokenManager("short", time.Hour)
	assert.Error(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2!")
	require.NoError(t, err)

	assert.True(t, CheckPassword("hunter2!", hash))
	assert.False(t, CheckPassword("hunter3!", hash))
}
