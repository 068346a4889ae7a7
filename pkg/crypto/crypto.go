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

var encryptionKey []byte

// SetEncryptionKey derives the AES-256 key used for credential storage.
// The key must be at least 16 bytes; shorter keys are rejected so a
// misconfigured deployment fails at startup, not at dispatch time.
func SetEncryptionKey(key string) error {
	if len(key) < 16 {
		return fmt.Errorf("encryption key must be at least 16 bytes, got %d", len(key))
	}
	finalKey := make([]byte, 32)
	copy(finalKey, []byte(key))
	encryptionKey = finalKey
	return nil
}

// Encrypt seals a plain text string with AES-GCM and returns it base64 encoded.
func Encrypt(plainText string) (string, error) {
	if len(encryptionKey) == 0 {
		return "", errors.New("encryption key not configured")
	}
	if plainText == "" {
		return "", errors.New("cannot encrypt empty string")
	}

	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt opens a base64 encoded AES-GCM ciphertext.
func Decrypt(cipherText string) (string, error) {
	if len(encryptionKey) == 0 {
		return "", errors.New("encryption key not configured")
	}

	data, err := base64.StdEncoding.DecodeString(cipherText)
	if err != nil {
		return "", fmt.Errorf("ciphertext is not valid base64: %w", err)
	}

	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}

	return string(plaintext), nil
}
