package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dwhctl/internal/security"
	"dwhctl/pkg/errors"
	"dwhctl/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

const sampleConfig = `# cluster settings
[AWS]
KEY = AKIAEXAMPLE
SECRET = wJalrXUtnFEMI
REGION = us-west-2

[DWH]
DWH_CLUSTER_TYPE = multi-node
DWH_NUM_NODES = 4
DWH_NODE_TYPE = dc2.large
DWH_CLUSTER_IDENTIFIER = dwhCluster
DWH_IAM_ROLE_NAME = dwhRole

[CLUSTER]
HOST =
DB_NAME = dwh
DB_USER = dwhuser
DB_PASSWORD = Passw0rd#1
DB_PORT = 5439

[IAM_ROLE]
ARN =

[S3]
; sources
LOG_DATA = 's3://udacity-dend/log_data'
SONG_DATA = 's3://udacity-dend/song_data'
LOG_JSONPATH = 's3://udacity-dend/log_json_path.json'
`

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dwh.cfg")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeSample(t, sampleConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "AKIAEXAMPLE", cfg.AWS.Key)
	assert.Equal(t, "us-west-2", cfg.AWS.Region)
	assert.Equal(t, 4, cfg.DWH.NumNodes)
	assert.Equal(t, "dwhCluster", cfg.DWH.ClusterIdentifier)
	assert.Equal(t, "Passw0rd#1", cfg.Cluster.DBPassword)
	assert.Equal(t, 5439, cfg.Cluster.DBPort)
	assert.Equal(t, "s3://udacity-dend/log_data", cfg.S3.LogData)
	assert.Equal(t, "s3://udacity-dend/song_data", cfg.S3.SongData)
	assert.Equal(t, "s3://udacity-dend/log_json_path.json", cfg.S3.LogJSONPath)
	assert.Equal(t, "require", cfg.Cluster.SSLMode)
	assert.Equal(t, "0.0.0.0/0", cfg.DWH.IngressCIDR)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cfg"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigNotFound, errors.GetErrorCode(err))
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeSample(t, sampleConfig)
	t.Setenv("DWH_CLUSTER_DB_PASSWORD", "from-env")
	t.Setenv("DWH_DWH_NUM_NODES", "8")
	t.Setenv("DWH_CLUSTER_HOST", "localhost")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Cluster.DBPassword)
	assert.Equal(t, 8, cfg.DWH.NumNodes)
	assert.Equal(t, "localhost", cfg.Cluster.Host)
}

func TestLoadMalformedIntegers(t *testing.T) {
	tests := []struct {
		name  string
		from  string
		to    string
		field string
	}{
		{"port", "DB_PORT = 5439", "DB_PORT = fifty", "CLUSTER.DB_PORT"},
		{"nodes", "DWH_NUM_NODES = 4", "DWH_NUM_NODES = four", "DWH.DWH_NUM_NODES"},
		{"fraction", "DB_PORT = 5439", "DB_PORT = 54.39", "CLUSTER.DB_PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSample(t, strings.Replace(sampleConfig, tt.from, tt.to, 1))

			_, err := Load(path)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetErrorCode(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoadMalformedIntegerFromEnv(t *testing.T) {
	path := writeSample(t, sampleConfig)
	t.Setenv("DWH_CLUSTER_DB_PORT", "abc")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLUSTER.DB_PORT")
}

func TestLoadBlankIntegerUsesDefault(t *testing.T) {
	path := writeSample(t, strings.Replace(sampleConfig, "DB_PORT = 5439", "DB_PORT =", 1))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultDBPort, cfg.Cluster.DBPort)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "cluster_db_password", EnvKey("CLUSTER", "DB_PASSWORD"))
	assert.Equal(t, "dwh_num_nodes", EnvKey("DWH", "DWH_NUM_NODES"))
	assert.Equal(t, "iam_role_arn", EnvKey("IAM_ROLE", "ARN"))
}

func TestSetValuesPreservesFile(t *testing.T) {
	path := writeSample(t, sampleConfig)

	err := SetValues(path, map[string]map[string]string{
		"IAM_ROLE": {"ARN": "arn:aws:iam::123456789012:role/dwhRole"},
		"CLUSTER":  {"HOST": "dwhcluster.abc.us-west-2.redshift.amazonaws.com"},
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "cluster settings")
	assert.Contains(t, string(raw), "sources")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:iam::123456789012:role/dwhRole", cfg.IAMRole.ARN)
	assert.Equal(t, "dwhcluster.abc.us-west-2.redshift.amazonaws.com", cfg.Cluster.Host)
	assert.Equal(t, "Passw0rd#1", cfg.Cluster.DBPassword)
	assert.Equal(t, "s3://udacity-dend/log_data", cfg.S3.LogData)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dwh.cfg")
	original := &models.Config{
		AWS:     models.AWS{Key: "k", Secret: "s", Region: "us-east-1"},
		DWH:     models.DWH{ClusterType: "single-node", NumNodes: 1, NodeType: "dc2.large", ClusterIdentifier: "c", IAMRoleName: "r"},
		Cluster: models.Cluster{DBName: "dwh", DBUser: "u", DBPassword: "p", DBPort: 5439},
		S3:      models.S3{LogData: "s3://b/log", SongData: "s3://b/song", LogJSONPath: "s3://b/paths.json"},
	}

	require.NoError(t, Save(path, original))
	assert.True(t, Exists(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, original.AWS, loaded.AWS)
	assert.Equal(t, original.DWH.ClusterType, loaded.DWH.ClusterType)
	assert.Equal(t, original.S3, loaded.S3)
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"'s3://bucket/a'", "s3://bucket/a"},
		{`"s3://bucket/a"`, "s3://bucket/a"},
		{"  s3://bucket/a ", "s3://bucket/a"},
		{"'mismatched\"", "'mismatched\""},
		{"'", "'"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Unquote(tt.in), tt.in)
	}
}

func TestValidate(t *testing.T) {
	path := writeSample(t, sampleConfig)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, Validate(cfg, ScopeProvision))

	err = Validate(cfg, ScopeWarehouse)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigMissing, errors.GetErrorCode(err))
	assert.Contains(t, err.Error(), "CLUSTER.HOST")

	err = Validate(cfg, ScopeLoad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IAM_ROLE.ARN")

	cfg.DWH.NumNodes = 1
	err = Validate(cfg, ScopeProvision)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetErrorCode(err))
}

func TestEncryptFileAndResolve(t *testing.T) {
	t.Setenv(EnvEncryptionKey, "unit-test-passphrase")
	path := writeSample(t, sampleConfig)

	changed, err := EncryptFile(path, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"AWS.SECRET", "CLUSTER.DB_PASSWORD"}, changed)
	assert.FileExists(t, path+".bak")

	raw, err := Load(path)
	require.NoError(t, err)
	assert.True(t, IsEncrypted(raw.Cluster.DBPassword))
	assert.Empty(t, PlaintextSecrets(raw))

	again, err := EncryptFile(path, false)
	require.NoError(t, err)
	assert.Empty(t, again)

	cfg, err := LoadResolved(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "Passw0rd#1", cfg.Cluster.DBPassword)
	assert.Equal(t, "wJalrXUtnFEMI", cfg.AWS.Secret)
}

func TestDecryptWithWrongKey(t *testing.T) {
	t.Setenv(EnvEncryptionKey, "first")
	encrypted, err := EncryptValue("secret")
	require.NoError(t, err)

	t.Setenv(EnvEncryptionKey, "second")
	_, err = DecryptValue(encrypted)
	assert.Error(t, err)
}

func TestResolveCredentialReference(t *testing.T) {
	keyring.MockInit()
	store := security.NewKeyringStore()
	require.NoError(t, store.Set("dwh-password", "from-keyring"))

	path := writeSample(t, sampleConfig)
	require.NoError(t, BindCredential(path, "CLUSTER", "DB_PASSWORD", "dwh-password"))

	raw, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "@credential:dwh-password", raw.Cluster.DBPassword)
	assert.Equal(t, []string{"AWS.SECRET"}, PlaintextSecrets(raw))

	cfg, err := LoadResolved(path, store)
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", cfg.Cluster.DBPassword)
}

func TestResolveMissingCredential(t *testing.T) {
	keyring.MockInit()
	cfg := &models.Config{Cluster: models.Cluster{DBPassword: "@credential:absent"}}

	err := ResolveSecrets(cfg, security.NewKeyringStore())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCredentialLookup, errors.GetErrorCode(err))
}
