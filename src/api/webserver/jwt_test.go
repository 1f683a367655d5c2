package webserver

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokens(t *testing.T) {
	secret := []byte("k")
	sid := uuid.NewString()
	tok, err := issueSessionToken(sid, secret, time.Now())
	require.NoError(t, err)

	got, err := parseSessionToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, sid, got)

	_, err = parseSessionToken(tok, []byte("other"))
	assert.ErrorIs(t, err, errBadToken)

	expired, err := issueSessionToken(sid, secret, time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	_, err = parseSessionToken(expired, secret)
	assert.ErrorIs(t, err, errBadToken)

	notUUID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sid": "nope"}).SignedString(secret)
	require.NoError(t, err)
	_, err = parseSessionToken(notUUID, secret)
	assert.ErrorIs(t, err, errBadToken)
}

func TestTLSReloaderMissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := NewTLSReloader(filepath.Join(dir, "cert.pem"), filepath.Join(dir, "key.pem"), nil)
	assert.Error(t, err)
}
