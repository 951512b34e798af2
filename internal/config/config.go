package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"dwhctl/internal/common"
	"dwhctl/pkg/errors"
	"dwhctl/pkg/models"

	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
)

const (
	// DefaultConfigFile is looked up in the working directory.
	DefaultConfigFile = "dwh.cfg"
	// EnvConfigFile overrides the configuration path.
	EnvConfigFile = "DWH_CONFIG"
	// EnvPrefix prefixes per-key overrides, e.g. DWH_CLUSTER_DB_PASSWORD.
	EnvPrefix = "DWH"
)

// GetConfigFile resolves the configuration path from the --config flag bound
// in viper, then DWH_CONFIG, then the default.
func GetConfigFile() string {
	if path := viper.GetString("config"); path != "" {
		return path
	}
	if path := os.Getenv(EnvConfigFile); path != "" {
		return path
	}
	return DefaultConfigFile
}

// Exists reports whether a configuration file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Load reads the INI file at path, applies DWH_<SECTION>_<KEY> environment
// overrides and defaults. Secrets are returned as stored; use LoadResolved to
// expand them.
func Load(path string) (*models.Config, error) {
	cleaned, err := common.CleanPath(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid config file path").
			WithContext("path", path)
	}

	if !Exists(cleaned) {
		return nil, errors.New(errors.ErrCodeConfigNotFound, fmt.Sprintf("configuration file %s not found", path)).
			WithContext("path", path).
			WithSuggestions("Run 'dwhctl setup' to create one", "Pass --config or set DWH_CONFIG")
	}

	file, err := ini.LoadSources(ini.LoadOptions{Insensitive: false, IgnoreInlineComment: true}, cleaned)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse configuration file").
			WithContext("path", path)
	}

	applyEnvOverrides(file)

	if err := checkIntegers(file); err != nil {
		return nil, err.WithContext("path", path)
	}

	var cfg models.Config
	if err := file.StrictMapTo(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to map configuration values").
			WithContext("path", path)
	}

	normalize(&cfg)
	cfg.ApplyDefaults()
	return &cfg, nil
}

// LoadResolved loads path and expands ENC[...] and @credential: values.
// resolver may be nil, in which case the default credential store is opened
// only if a reference is present.
func LoadResolved(path string, resolver SecretResolver) (*models.Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := ResolveSecrets(cfg, resolver); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as a complete INI file with owner-only permissions.
func Save(path string, cfg *models.Config) error {
	file := ini.Empty()
	if err := ini.ReflectFrom(file, cfg); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigWrite, "failed to encode configuration")
	}
	return writeFile(path, file)
}

// SetValues updates individual keys in place, keeping every other key,
// section and comment. updates maps section to key to value.
func SetValues(path string, updates map[string]map[string]string) error {
	cleaned, err := common.CleanPath(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid config file path")
	}

	file, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, cleaned)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse configuration file").
			WithContext("path", path)
	}

	for section, keys := range updates {
		for key, value := range keys {
			file.Section(section).Key(key).SetValue(value)
		}
	}

	return writeFile(cleaned, file)
}

func writeFile(path string, file *ini.File) error {
	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigWrite, "failed to encode configuration")
	}
	if err := os.WriteFile(path, buf.Bytes(), common.FilePermissionSecure); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigWrite, "failed to write configuration file").
			WithContext("path", path)
	}
	return nil
}

// applyEnvOverrides sets any key for which DWH_<SECTION>_<KEY> is defined.
func applyEnvOverrides(file *ini.File) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	template := ini.Empty()
	_ = ini.ReflectFrom(template, &models.Config{})

	for _, section := range template.Sections() {
		for _, key := range section.KeyStrings() {
			if value := v.GetString(EnvKey(section.Name(), key)); value != "" {
				file.Section(section.Name()).Key(key).SetValue(value)
			}
		}
	}
}

// integerKeys lists the numeric settings as section and key.
var integerKeys = [][2]string{
	{"DWH", "DWH_NUM_NODES"},
	{"CLUSTER", "DB_PORT"},
}

// checkIntegers rejects numeric keys that do not parse. A blank value is
// dropped so the default applies.
func checkIntegers(file *ini.File) *errors.AppError {
	for _, k := range integerKeys {
		section, err := file.GetSection(k[0])
		if err != nil || !section.HasKey(k[1]) {
			continue
		}
		key := section.Key(k[1])
		value := Unquote(key.String())
		if value == "" {
			section.DeleteKey(k[1])
			continue
		}
		if _, err := strconv.Atoi(value); err != nil {
			return errors.ConfigError(
				fmt.Sprintf("%s.%s must be a whole number, got %q", k[0], k[1], value),
				k[0]+"."+k[1],
			)
		}
		key.SetValue(value)
	}
	return nil
}

// EnvKey is the viper key (without prefix) overriding section/key. Keys that
// already carry the section name, like DWH_NUM_NODES, are used as is.
func EnvKey(section, key string) string {
	name := section + "_" + key
	if strings.HasPrefix(key, section+"_") {
		name = key
	}
	return strings.ToLower(name)
}

// normalize strips the quotes older configuration files wrap values in.
func normalize(cfg *models.Config) {
	for _, s := range []*string{
		&cfg.S3.LogData, &cfg.S3.SongData, &cfg.S3.LogJSONPath,
		&cfg.IAMRole.ARN, &cfg.Cluster.Host, &cfg.AWS.Region,
	} {
		*s = Unquote(*s)
	}
}

// Unquote trims whitespace and one pair of matching surrounding quotes.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '\'' || first == '"') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}
