package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"dwhctl/internal/common"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/pbkdf2"
)

const (
	keyringService = "dwhctl"
	saltSize       = 32
	// PBKDF2 work factor for the file store master key
	pbkdf2Iterations = 100000
	keySize          = 32

	// ReferencePrefix marks a configuration value stored in the credential store.
	ReferencePrefix = "@credential:"
)

// CredentialStore keeps secrets such as DB_PASSWORD and the AWS secret out of
// dwh.cfg. It uses the OS keyring when one is available and falls back to
// AES-GCM encrypted files otherwise.
type CredentialStore struct {
	useKeyring bool
	dir        string
	masterKey  []byte
}

// NewCredentialStore picks the keyring when the platform has one.
func NewCredentialStore() (*CredentialStore, error) {
	home, _ := os.UserHomeDir()
	return newCredentialStore(filepath.Join(home, ".dwhctl", "credentials"), isKeyringAvailable())
}

// NewKeyringStore always uses the OS keyring.
func NewKeyringStore() *CredentialStore {
	return &CredentialStore{useKeyring: true}
}

// NewFileStore always uses encrypted files under dir.
func NewFileStore(dir string) (*CredentialStore, error) {
	return newCredentialStore(dir, false)
}

func newCredentialStore(dir string, useKeyring bool) (*CredentialStore, error) {
	cs := &CredentialStore{useKeyring: useKeyring, dir: dir}
	if !useKeyring {
		key, err := cs.loadMasterKey()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize master key: %w", err)
		}
		cs.masterKey = key
	}
	return cs, nil
}

// Backend names the storage in use, for display.
func (cs *CredentialStore) Backend() string {
	if cs.useKeyring {
		return "keyring"
	}
	return "file:" + cs.dir
}

// Set stores value under name, replacing any previous value.
func (cs *CredentialStore) Set(name, value string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if cs.useKeyring {
		if err := keyring.Set(keyringService, name, value); err != nil {
			return fmt.Errorf("failed to store in keyring: %w", err)
		}
		return nil
	}

	encrypted, err := cs.encrypt(value)
	if err != nil {
		return fmt.Errorf("failed to encrypt credential: %w", err)
	}
	if err := os.MkdirAll(cs.dir, common.DirPermissionSecure); err != nil {
		return err
	}
	path, err := cs.credentialPath(name)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(encrypted), common.FilePermissionSecure) // #nosec G304 - path is validated
}

// Get returns the value stored under name.
func (cs *CredentialStore) Get(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	if cs.useKeyring {
		value, err := keyring.Get(keyringService, name)
		if err != nil {
			return "", fmt.Errorf("failed to get %q from keyring: %w", name, err)
		}
		return value, nil
	}

	path, err := cs.credentialPath(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path) // #nosec G304 - path is validated
	if err != nil {
		return "", fmt.Errorf("failed to read credential %q: %w", name, err)
	}
	return cs.decrypt(string(data))
}

// Delete removes name from the store.
func (cs *CredentialStore) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if cs.useKeyring {
		return keyring.Delete(keyringService, name)
	}
	path, err := cs.credentialPath(name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// List returns stored names. The keyring cannot be enumerated, so only the
// file store supports listing.
func (cs *CredentialStore) List() ([]string, error) {
	if cs.useKeyring {
		return nil, fmt.Errorf("listing is not supported by the keyring backend")
	}
	entries, err := os.ReadDir(cs.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	names := []string{}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".cred") {
			names = append(names, strings.TrimSuffix(entry.Name(), ".cred"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Resolve expands an @credential:<name> reference; other values pass through.
func (cs *CredentialStore) Resolve(value string) (string, error) {
	if !IsReference(value) {
		return value, nil
	}
	return cs.Get(strings.TrimPrefix(value, ReferencePrefix))
}

// IsReference reports whether value points into the credential store.
func IsReference(value string) bool {
	return strings.HasPrefix(value, ReferencePrefix)
}

// Reference builds the configuration value that points at name.
func Reference(name string) string {
	return ReferencePrefix + name
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("credential name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("invalid credential name %q", name)
	}
	return nil
}

func (cs *CredentialStore) credentialPath(name string) (string, error) {
	path, err := common.ValidatePath(filepath.Join(cs.dir, name+".cred"), cs.dir)
	if err != nil {
		return "", fmt.Errorf("invalid credential file path: %w", err)
	}
	return path, nil
}

func (cs *CredentialStore) encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(cs.masterKey)
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

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (cs *CredentialStore) decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(ciphertext))
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(cs.masterKey)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, encrypted := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, encrypted, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt credential: %w", err)
	}
	return string(plaintext), nil
}

// loadMasterKey reads <dir>/.master (salt followed by key) or creates it.
func (cs *CredentialStore) loadMasterKey() ([]byte, error) {
	keyPath, err := common.ValidatePath(filepath.Join(cs.dir, ".master"), cs.dir)
	if err != nil {
		return nil, fmt.Errorf("invalid master key path: %w", err)
	}

	data, err := os.ReadFile(keyPath) // #nosec G304 - path is validated
	if err == nil {
		if len(data) != saltSize+keySize {
			return nil, fmt.Errorf("invalid master key file size")
		}
		return data[saltSize:], nil
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key := pbkdf2.Key([]byte(machineID()), salt, pbkdf2Iterations, keySize, sha256.New)

	if err := os.MkdirAll(cs.dir, common.DirPermissionSecure); err != nil {
		return nil, err
	}
	if err := os.WriteFile(keyPath, append(salt, key...), common.FilePermissionSecure); err != nil {
		return nil, err
	}
	return key, nil
}

func isKeyringAvailable() bool {
	switch os.Getenv("DWH_USE_KEYRING") {
	case "false", "0":
		return false
	case "true", "1":
		return true
	}

	switch runtime.GOOS {
	case "darwin", "windows":
		return true
	case "linux":
		return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
	}
	return false
}

func machineID() string {
	hostname, _ := os.Hostname()
	user := os.Getenv("USER")
	if user == "" {
		user = os.Getenv("USERNAME")
	}
	data := fmt.Sprintf("%s-%s-%s-%s", hostname, user, runtime.GOOS, runtime.GOARCH)
	hash := sha256.Sum256([]byte(data))
	return base64.StdEncoding.EncodeToString(hash[:])
}
