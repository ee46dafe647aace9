// Package crypto encrypts and decrypts the secrets kept in catchlottery configuration
// files (SMTP password, bot tokens, API credentials).
//
// Encrypted values carry the "enc:" prefix followed by base64 AES-256-GCM ciphertext.
// Values without the prefix are plain text and pass through unchanged.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 16
	iterations = 100000
	keySize    = 32 // AES-256

	// Prefix marks an encrypted configuration value
	Prefix = "enc:"
)

// ErrNoKey is returned when an encrypted value is found but no secret key is configured
var ErrNoKey = errors.New("encrypted value found but no secret key configured")

// Encryptor handles encryption and decryption of configuration secrets
type Encryptor struct {
	key []byte
}

// NewEncryptor creates a new encryptor with the given passphrase. It returns nil for an
// empty passphrase; a nil Encryptor passes plain values through and rejects encrypted ones.
func NewEncryptor(passphrase string) *Encryptor {
	if passphrase == "" {
		return nil
	}

	// Fixed salt derived from the passphrase so a value encrypted once can be pasted into
	// any config file that shares the key
	salt := sha256.Sum256([]byte(passphrase + "catchlottery-secret"))

	key := pbkdf2.Key([]byte(passphrase), salt[:saltSize], iterations, keySize, sha256.New)

	return &Encryptor{key: key}
}

// IsEncrypted reports whether a configuration value carries the encryption prefix
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, Prefix)
}

// Encrypt encrypts plaintext using AES-GCM and returns the prefixed value
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	if e == nil || e.key == nil {
		return "", ErrNoKey
	}

	gcm, err := e.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return Prefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt returns the plaintext of a prefixed value. Values without the prefix are
// returned unchanged.
func (e *Encryptor) Decrypt(value string) (string, error) {
	if !IsEncrypted(value) {
		return value, nil
	}
	if e == nil || e.key == nil {
		return "", ErrNoKey
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, Prefix))
	if err != nil {
		return "", fmt.Errorf("decoding encrypted value: %w", err)
	}

	gcm, err := e.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, cipherData := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, cipherData, nil)
	if err != nil {
		return "", fmt.Errorf("decrypting value (wrong secret key?): %w", err)
	}

	return string(plaintext), nil
}

// DecryptAll decrypts each value in place
func (e *Encryptor) DecryptAll(values ...*string) error {
	for _, v := range values {
		if v == nil {
			continue
		}
		plain, err := e.Decrypt(*v)
		if err != nil {
			return err
		}
		*v = plain
	}
	return nil
}

func (e *Encryptor) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return gcm, nil
}
