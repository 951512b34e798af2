package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"dwhctl/internal/common"
	"dwhctl/internal/security"
	"dwhctl/pkg/errors"

	"golang.org/x/crypto/pbkdf2"
	"gopkg.in/ini.v1"
)

const (
	encryptedPrefix = "ENC["
	encryptedSuffix = "]"

	// EnvEncryptionKey supplies the passphrase for ENC[...] values.
	EnvEncryptionKey = "DWH_ENCRYPTION_KEY"

	keySalt       = "dwhctl-config-v1"
	keyIterations = 100000
)

// secretKeys lists the values encrypt-config protects.
var secretKeys = []struct{ Section, Key string }{
	{"AWS", "SECRET"},
	{"CLUSTER", "DB_PASSWORD"},
}

// getEncryptionKey derives the AES-256 key from DWH_ENCRYPTION_KEY or, when
// unset, from machine-specific data.
func getEncryptionKey() []byte {
	passphrase := os.Getenv(EnvEncryptionKey)
	if passphrase == "" {
		hostname, _ := os.Hostname()
		homeDir, _ := os.UserHomeDir()
		passphrase = fmt.Sprintf("%s-%s-dwhctl", hostname, homeDir)
	}
	return pbkdf2.Key([]byte(passphrase), []byte(keySalt), keyIterations, 32, sha256.New)
}

// EncryptValue encrypts a secret using AES-256-GCM and wraps it as ENC[...].
func EncryptValue(value string) (string, error) {
	if value == "" || IsEncrypted(value) || security.IsReference(value) {
		return value, nil
	}

	gcm, err := newGCM()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(value), nil)
	encoded := base64.StdEncoding.EncodeToString(ciphertext)

	return encryptedPrefix + encoded + encryptedSuffix, nil
}

// DecryptValue reverses EncryptValue. Plain values pass through.
func DecryptValue(encrypted string) (string, error) {
	if !IsEncrypted(encrypted) {
		return encrypted, nil
	}

	encoded := strings.TrimSuffix(strings.TrimPrefix(encrypted, encryptedPrefix), encryptedSuffix)
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode encrypted value: %w", err)
	}

	gcm, err := newGCM()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt value: %w", err)
	}

	return string(plaintext), nil
}

func newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(getEncryptionKey())
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// IsEncrypted checks if a string is encrypted
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, encryptedPrefix) && strings.HasSuffix(value, encryptedSuffix)
}

// EncryptFile encrypts the plaintext secrets of the configuration file in
// place and returns the keys it changed. With backup set, the original file
// is copied to <path>.bak first.
func EncryptFile(path string, backup bool) ([]string, error) {
	cleaned, err := common.CleanPath(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid config file path")
	}

	original, err := os.ReadFile(cleaned) // #nosec G304 - path is validated
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigNotFound, "failed to read configuration file").
			WithContext("path", path)
	}

	file, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, original)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse configuration file")
	}

	var changed []string
	for _, sk := range secretKeys {
		key := file.Section(sk.Section).Key(sk.Key)
		value := key.String()
		if value == "" || IsEncrypted(value) || security.IsReference(value) {
			continue
		}
		encrypted, err := EncryptValue(value)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeEncryptionFailed, "failed to encrypt configuration value").
				WithContext("key", sk.Section+"."+sk.Key)
		}
		key.SetValue(encrypted)
		changed = append(changed, sk.Section+"."+sk.Key)
	}

	if len(changed) == 0 {
		return nil, nil
	}

	if backup {
		if err := os.WriteFile(cleaned+".bak", original, common.FilePermissionSecure); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigWrite, "failed to write backup file")
		}
	}

	if err := writeFile(cleaned, file); err != nil {
		return nil, err
	}
	return changed, nil
}
