package pseudonym

import (
	"crypto/hmac"
	stdsha256 "crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSecret struct {
	secret []byte
	err    error
}

func (s staticSecret) Secret() ([]byte, error) {
	return s.secret, s.err
}

func TestTraceTokenDeterministic(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")

	a := TraceToken(secret, "111", "222")
	b := TraceToken(secret, "111", "222")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	assert.NotEqual(t, a, TraceToken(secret, "112", "222"))
	assert.NotEqual(t, a, TraceToken(secret, "111", "223"))
	assert.NotEqual(t, a, TraceToken([]byte("another secret"), "111", "222"))
	assert.NotEqual(t, TraceToken(secret, "1", "23"), TraceToken(secret, "12", "3"))
}

func TestTraceTokenMatchesStandardHMAC(t *testing.T) {
	secret := []byte("offline-secret")
	mac := hmac.New(stdsha256.New, secret)
	mac.Write([]byte("42:4242"))

	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), TraceToken(secret, "42", "4242"))
}

func TestTraceTokenKnownVector(t *testing.T) {
	// the state document keeps the secret as 64 hex characters and the key
	// is those characters, not the decoded bytes
	hexSecret := "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

	assert.Equal(t,
		"06e6891439f42bf753c6176ee23ed0c23517d2f76ea9222b2829d5648005e284",
		TraceToken([]byte(hexSecret), "111", "222"))

	decoded, err := hex.DecodeString(hexSecret)
	require.NoError(t, err)
	assert.Equal(t,
		"f9891b3651aae1aa74629556bdcc8e8f0b257dcf24d1f9cdfa1a80d8358c48d9",
		TraceToken(decoded, "111", "222"))
}

func TestTraceTokenDoesNotContainAuthor(t *testing.T) {
	token := TraceToken([]byte("k"), "123456789012345678", "1")
	assert.False(t, strings.Contains(token, "123456789012345678"))
}

func TestVerify(t *testing.T) {
	secret := []byte("k")
	token := TraceToken(secret, "1", "2")

	assert.True(t, Verify(secret, "1", "2", token))
	assert.False(t, Verify(secret, "1", "3", token))
	assert.False(t, Verify(secret, "1", "2", "not-hex"))
}

func TestPseudonymizer(t *testing.T) {
	p := New(staticSecret{secret: []byte("k")})

	token, err := p.Token("1", "2")
	require.NoError(t, err)
	assert.Equal(t, TraceToken([]byte("k"), "1", "2"), token)

	ok, err := p.Verify("1", "2", token)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = New(staticSecret{}).Token("1", "2")
	assert.ErrorIs(t, err, ErrNoSecret)

	boom := errors.New("boom")
	_, err = New(staticSecret{err: boom}).Token("1", "2")
	assert.ErrorIs(t, err, boom)
}
