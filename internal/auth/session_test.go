package auth

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	require.NoError(t, Init(time.Hour))

	token, err := CreateJWT("player-1", "kyoto-sakura-42")
	require.NoError(t, err)

	playerID, gameID, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "player-1", playerID)
	assert.Equal(t, "kyoto-sakura-42", gameID)
}

func TestTokenRejected(t *testing.T) {
	require.NoError(t, Init(0))
	token, err := CreateJWT("player-1", "g")
	require.NoError(t, err)

	_, _, err = AuthenticateJWT(token + "x")
	assert.Error(t, err, "tampered signature")

	_, _, err = AuthenticateJWT("not-a-token")
	assert.Error(t, err)

	// a restart rotates the key pair
	require.NoError(t, Init(0))
	_, _, err = AuthenticateJWT(token)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	require.NoError(t, Init(time.Hour))
	expired := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.MapClaims{
		"sub": "player-1",
		"gid": "g",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := expired.SignedString(privateKey)
	require.NoError(t, err)

	_, _, err = AuthenticateJWT(signed)
	assert.Error(t, err)
}

func TestMissingGameClaim(t *testing.T) {
	require.NoError(t, Init(0))
	tok := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.MapClaims{"sub": "player-1"})
	signed, err := tok.SignedString(privateKey)
	require.NoError(t, err)

	_, _, err = AuthenticateJWT(signed)
	assert.Error(t, err)
}

func TestRejectsOtherAlgorithms(t *testing.T) {
	require.NoError(t, Init(0))
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "player-1", "gid": "g"})
	signed, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, _, err = AuthenticateJWT(signed)
	assert.Error(t, err)
}

func TestInitFromPath(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	dir := t.TempDir()
	privPath := filepath.Join(dir, "key")
	pubPath := filepath.Join(dir, "key.pub")
	require.NoError(t, os.WriteFile(privPath, priv, 0o600))
	require.NoError(t, os.WriteFile(pubPath, pub, 0o644))

	require.NoError(t, InitFromPath(privPath, pubPath, 0))
	token, err := CreateJWT("p", "g")
	require.NoError(t, err)
	_, _, err = AuthenticateJWT(token)
	require.NoError(t, err)

	assert.Error(t, InitFromPath(filepath.Join(dir, "missing"), pubPath, 0))
}

func TestParseTokenExpireTime(t *testing.T) {
	for _, never := range []string{"", "0", "never"} {
		d, err := ParseTokenExpireTime(never)
		require.NoError(t, err)
		assert.Zero(t, d)
	}
	d, err := ParseTokenExpireTime("72h")
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, d)

	_, err = ParseTokenExpireTime("soon")
	assert.Error(t, err)
}
