// Package pseudonym derives the trace tokens that let moderators follow an
// author across posts without the author's id ever being stored.
package pseudonym

import (
	"crypto/hmac"
	"encoding/hex"
	"errors"

	sha256 "github.com/minio/sha256-simd"
)

var ErrNoSecret = errors.New("pseudonym secret is empty")

// TraceToken returns hex(HMAC-SHA256(secret, authorID + ":" + submissionID)).
// The separator keeps ("1", "23") and ("12", "3") apart.
func TraceToken(secret []byte, authorID, submissionID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(authorID))
	mac.Write([]byte{':'})
	mac.Write([]byte(submissionID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the token and compares it in constant time.
func Verify(secret []byte, authorID, submissionID, token string) bool {
	want, err := hex.DecodeString(token)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(authorID))
	mac.Write([]byte{':'})
	mac.Write([]byte(submissionID))
	return hmac.Equal(mac.Sum(nil), want)
}

// SecretSource yields the process secret.
type SecretSource interface {
	Secret() ([]byte, error)
}

type Pseudonymizer struct {
	source SecretSource
}

func New(source SecretSource) *Pseudonymizer {
	return &Pseudonymizer{source: source}
}

// Token derives the trace token for an author's submission with the current secret.
func (p *Pseudonymizer) Token(authorID, submissionID string) (string, error) {
	secret, err := p.source.Secret()
	if err != nil {
		return "", err
	}
	if len(secret) == 0 {
		return "", ErrNoSecret
	}
	return TraceToken(secret, authorID, submissionID), nil
}

// Verify checks whether token belongs to (authorID, submissionID).
func (p *Pseudonymizer) Verify(authorID, submissionID, token string) (bool, error) {
	secret, err := p.source.Secret()
	if err != nil {
		return false, err
	}
	return Verify(secret, authorID, submissionID, token), nil
}
