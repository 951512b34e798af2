package config

import (
	"dwhctl/internal/security"
	"dwhctl/pkg/errors"
	"dwhctl/pkg/models"
)

// SecretResolver expands @credential:<name> references.
type SecretResolver interface {
	Resolve(value string) (string, error)
}

// secretFields returns the configuration values that may hold secrets.
func secretFields(cfg *models.Config) map[string]*string {
	return map[string]*string{
		"AWS.KEY":             &cfg.AWS.Key,
		"AWS.SECRET":          &cfg.AWS.Secret,
		"CLUSTER.DB_USER":     &cfg.Cluster.DBUser,
		"CLUSTER.DB_PASSWORD": &cfg.Cluster.DBPassword,
	}
}

// ResolveSecrets decrypts ENC[...] values and looks up credential references
// in place. When resolver is nil the default credential store is opened on
// the first reference.
func ResolveSecrets(cfg *models.Config, resolver SecretResolver) error {
	for field, value := range secretFields(cfg) {
		if IsEncrypted(*value) {
			plain, err := DecryptValue(*value)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeEncryptionFailed, "failed to decrypt configuration value").
					WithContext("field", field).
					WithSuggestions("Set DWH_ENCRYPTION_KEY to the passphrase used by 'dwhctl encrypt-config'")
			}
			*value = plain
			continue
		}

		if !security.IsReference(*value) {
			continue
		}

		if resolver == nil {
			store, err := security.NewCredentialStore()
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeCredentialLookup, "failed to open credential store")
			}
			resolver = store
		}

		plain, err := resolver.Resolve(*value)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeCredentialLookup, "failed to retrieve credential").
				WithContext("field", field).
				WithSuggestions("Store it with 'dwhctl credentials set <name>'")
		}
		*value = plain
	}
	return nil
}

// PlaintextSecrets lists secret fields stored in clear text.
func PlaintextSecrets(cfg *models.Config) []string {
	var fields []string
	for _, field := range []string{"AWS.SECRET", "CLUSTER.DB_PASSWORD"} {
		value := *secretFields(cfg)[field]
		if value != "" && !IsEncrypted(value) && !security.IsReference(value) {
			fields = append(fields, field)
		}
	}
	return fields
}

// BindCredential points section.key in the file at path to the credential
// store entry name.
func BindCredential(path, section, key, name string) error {
	return SetValues(path, map[string]map[string]string{
		section: {key: security.Reference(name)},
	})
}
