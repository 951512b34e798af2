package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "credentials")

	t.Run("Create store", func(t *testing.T) {
		cs, err := NewFileStore(dir)
		require.NoError(t, err)
		assert.False(t, cs.useKeyring)
		assert.Len(t, cs.masterKey, keySize)
		assert.FileExists(t, filepath.Join(dir, ".master"))
	})

	t.Run("Store and retrieve credential", func(t *testing.T) {
		cs, err := NewFileStore(dir)
		require.NoError(t, err)

		require.NoError(t, cs.Set("db-password", "Passw0rd"))

		value, err := cs.Get("db-password")
		require.NoError(t, err)
		assert.Equal(t, "Passw0rd", value)

		raw, err := os.ReadFile(filepath.Join(dir, "db-password.cred"))
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "Passw0rd")
	})

	t.Run("Master key survives reopen", func(t *testing.T) {
		first, err := NewFileStore(dir)
		require.NoError(t, err)
		require.NoError(t, first.Set("aws-secret", "s3cr3t"))

		second, err := NewFileStore(dir)
		require.NoError(t, err)
		value, err := second.Get("aws-secret")
		require.NoError(t, err)
		assert.Equal(t, "s3cr3t", value)
	})

	t.Run("List credentials", func(t *testing.T) {
		cs, err := NewFileStore(dir)
		require.NoError(t, err)

		names, err := cs.List()
		require.NoError(t, err)
		assert.Equal(t, []string{"aws-secret", "db-password"}, names)
	})

	t.Run("Delete credential", func(t *testing.T) {
		cs, err := NewFileStore(dir)
		require.NoError(t, err)

		require.NoError(t, cs.Set("temp", "x"))
		require.NoError(t, cs.Delete("temp"))

		_, err = cs.Get("temp")
		assert.Error(t, err)
	})

	t.Run("Reject path-like names", func(t *testing.T) {
		cs, err := NewFileStore(dir)
		require.NoError(t, err)

		assert.Error(t, cs.Set("../escape", "x"))
		assert.Error(t, cs.Set("", "x"))
	})
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	cs := NewKeyringStore()

	require.NoError(t, cs.Set("db-password", "Passw0rd"))

	value, err := cs.Get("db-password")
	require.NoError(t, err)
	assert.Equal(t, "Passw0rd", value)
	assert.Equal(t, "keyring", cs.Backend())

	_, err = cs.List()
	assert.Error(t, err)

	require.NoError(t, cs.Delete("db-password"))
	_, err = cs.Get("db-password")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	keyring.MockInit()
	cs := NewKeyringStore()
	require.NoError(t, cs.Set("aws-secret", "abc123"))

	tests := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{name: "plain value", value: "literal", want: "literal"},
		{name: "empty value", value: "", want: ""},
		{name: "reference", value: Reference("aws-secret"), want: "abc123"},
		{name: "missing reference", value: "@credential:nope", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cs.Resolve(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
