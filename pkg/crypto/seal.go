package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrEmptyPassphrase = errors.New("passphrase is required")
	ErrSealedTampered  = errors.New("sealed value is corrupt or the passphrase is wrong")
)

const sealSaltLength = 16

// Sealer encrypts small secrets at rest under a passphrase. Each value gets
// its own salt; the key is derived with argon2id and the value is sealed
// with XChaCha20-Poly1305.
//
// Output layout (base64url, unpadded): salt | nonce | ciphertext+tag
type Sealer struct {
	passphrase []byte

	// key derivation cost
	memory     uint32
	iterations uint32
	threads    uint8
}

func NewSealer(passphrase string) (*Sealer, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	return &Sealer{
		passphrase: []byte(passphrase),
		memory:     19 * 1024,
		iterations: 2,
		threads:    1,
	}, nil
}

func (s *Sealer) key(salt []byte) []byte {
	return argon2.IDKey(s.passphrase, salt, s.iterations, s.memory, s.threads, chacha20poly1305.KeySize)
}

func (s *Sealer) Seal(plaintext string) (string, error) {
	salt := make([]byte, sealSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	aead, err := chacha20poly1305.NewX(s.key(salt))
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := make([]byte, 0, len(salt)+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, []byte(plaintext), salt)

	return base64.RawURLEncoding.EncodeToString(out), nil
}

func (s *Sealer) Open(sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSealedTampered, err)
	}
	if len(raw) < sealSaltLength+chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return "", ErrSealedTampered
	}

	salt := raw[:sealSaltLength]
	nonce := raw[sealSaltLength : sealSaltLength+chacha20poly1305.NonceSizeX]
	ciphertext := raw[sealSaltLength+chacha20poly1305.NonceSizeX:]

	aead, err := chacha20poly1305.NewX(s.key(salt))
	if err != nil {
		return "", err
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, salt)
	if err != nil {
		return "", ErrSealedTampered
	}
	return string(plaintext), nil
}
