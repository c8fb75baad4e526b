package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const (
	// KeySize is the AES-256 key length in bytes
	KeySize = 32

	// AES-GCM nonce size
	NonceSize = 12 // 96 bits (standard for GCM)

	// TagSize is the GCM authentication tag length
	TagSize = 16
)

var (
	ErrInvalidCiphertext    = errors.New("invalid ciphertext")
	ErrInvalidKey           = errors.New("invalid key: must be 32 bytes")
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// GenerateKey returns a fresh random 256-bit key
func GenerateKey() ([]byte, error) {
	return randomBytes(KeySize)
}

func randomBytes(length int) ([]byte, error) {
	b := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}

	return b, nil
}

// EncodeKey renders a key the way it is stored in the settings document
func EncodeKey(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}

// DecodeKey parses a base64 key and checks its length
func DecodeKey(keyB64 string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 key: %w", err)
	}
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	return key, nil
}

// Seal encrypts plaintext with AES-256-GCM.
// The result is nonce || ciphertext || tag.
func Seal(plaintext []byte, key []byte) ([]byte, error) {
	nonce, err := randomBytes(NonceSize)
	if err != nil {
		return nil, err
	}

	return sealAESGCM(plaintext, key, nonce)
}

// Open verifies and decrypts a sealed payload produced by Seal
func Open(sealed []byte, key []byte) ([]byte, error) {
	if len(sealed) < NonceSize+TagSize {
		return nil, ErrInvalidCiphertext
	}

	return openAESGCM(sealed, key)
}

// Encrypt seals plaintext and returns it as base64 text
func Encrypt(plaintext []byte, key []byte) (string, error) {
	sealed, err := Seal(plaintext, key)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a base64 sealed payload
func Decrypt(ciphertextB64 string, key []byte) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrInvalidCiphertext, err)
	}

	return Open(sealed, key)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return gcm, nil
}

// sealAESGCM prepends the nonce to the ciphertext
func sealAESGCM(plaintext []byte, key []byte, nonce []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func openAESGCM(sealed []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := sealed[:NonceSize]

	plaintext, err := gcm.Open(nil, nonce, sealed[NonceSize:], nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	return plaintext, nil
}
