package services

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// sessionIDMaxLen guards against oversized cookie payloads
const sessionIDMaxLen = 64

// AuthService seals session ids into cookie values. Credentials themselves
// never leave process memory.
type AuthService struct {
	encryptionKey []byte
}

// NewAuthService uses key when it is exactly 32 bytes, otherwise generates an
// ephemeral key (sessions then end on restart)
func NewAuthService(key string) *AuthService {
	if len(key) != 32 {
		newKey := make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, newKey); err != nil {
			panic("failed to generate random key")
		}
		return &AuthService{encryptionKey: newKey}
	}
	return &AuthService{encryptionKey: []byte(key)}
}

// SealSessionID encrypts a session id into a cookie-safe string
func (s *AuthService) SealSessionID(id string) (string, error) {
	if id == "" || len(id) > sessionIDMaxLen {
		return "", errors.New("invalid session id")
	}

	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(id), nil)
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// OpenSessionID decodes a cookie value back into the session id
func (s *AuthService) OpenSessionID(sealed string) (string, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(sealed)
	if err != nil {
		return "", err
	}

	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return "", errors.New("malformed ciphertext")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	if len(plaintext) == 0 || len(plaintext) > sessionIDMaxLen {
		return "", errors.New("invalid session id")
	}
	return string(plaintext), nil
}

func (s *AuthService) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
