package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
)

var ErrEmptyToken = errors.New("token and hash cannot be empty")

// AccessTokenBytes is the entropy of an issued access token (256 bits).
const AccessTokenBytes = 32

// IssuedToken is a freshly minted access token. Token goes to the client,
// Hash is what the issuer keeps.
type IssuedToken struct {
	Token string
	Hash  string
}

func randomToken(n int) (string, error) {
	if n <= 0 {
		n = AccessTokenBytes
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// IssueToken mints a URL-safe opaque token of AccessTokenBytes random bytes.
func IssueToken() (*IssuedToken, error) {
	token, err := randomToken(AccessTokenBytes)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: token, Hash: HashToken(token)}, nil
}

// HashToken is the hex SHA-256 of token. Tokens are only ever stored hashed.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// MatchToken compares token against a stored hash in constant time.
func MatchToken(token, storedHash string) (bool, error) {
	if token == "" || storedHash == "" {
		return false, ErrEmptyToken
	}
	computed := HashToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1, nil
}
