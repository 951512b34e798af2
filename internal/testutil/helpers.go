package testutil

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dwhctl/internal/common"
)

// TestHelper provides common test utilities
type TestHelper struct {
	t *testing.T
}

// NewTestHelper creates a new test helper
func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// WriteFile writes content to a file in the given directory
func (h *TestHelper) WriteFile(dir, filename, content string) string {
	h.t.Helper()
	path := filepath.Join(dir, filename)

	// Create parent directories if needed
	if err := os.MkdirAll(filepath.Dir(path), common.DirPermissionSecure); err != nil {
		h.t.Fatalf("Failed to create directories: %v", err)
	}

	if err := os.WriteFile(path, []byte(content), common.FilePermissionSecure); err != nil {
		h.t.Fatalf("Failed to write file %s: %v", path, err)
	}

	return path
}

// WriteConfig writes a dwh.cfg into a fresh temp directory and returns its path.
func (h *TestHelper) WriteConfig(content string) string {
	h.t.Helper()
	return h.WriteFile(h.t.TempDir(), "dwh.cfg", content)
}

// CaptureOutput captures stdout and stderr during function execution
func (h *TestHelper) CaptureOutput(f func()) (stdout, stderr string) {
	oldStdout := os.Stdout
	rOut, wOut, _ := os.Pipe()
	os.Stdout = wOut

	oldStderr := os.Stderr
	rErr, wErr, _ := os.Pipe()
	os.Stderr = wErr

	f()

	wOut.Close()
	os.Stdout = oldStdout
	outBytes, _ := io.ReadAll(rOut)
	stdout = string(outBytes)

	wErr.Close()
	os.Stderr = oldStderr
	errBytes, _ := io.ReadAll(rErr)
	stderr = string(errBytes)

	return stdout, stderr
}

// AssertContains checks if a string contains a substring
func (h *TestHelper) AssertContains(haystack, needle string) {
	h.t.Helper()
	if !strings.Contains(haystack, needle) {
		h.t.Errorf("Expected to contain '%s', but got: %s", needle, haystack)
	}
}

// AssertNotContains checks if a string does not contain a substring
func (h *TestHelper) AssertNotContains(haystack, needle string) {
	h.t.Helper()
	if strings.Contains(haystack, needle) {
		h.t.Errorf("Expected not to contain '%s', but got: %s", needle, haystack)
	}
}

// SampleConfig is a complete dwh.cfg for a provisioned cluster.
const SampleConfig = `[AWS]
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
HOST = dwhcluster.abc123.us-west-2.redshift.amazonaws.com
DB_NAME = dwh
DB_USER = dwhuser
DB_PASSWORD = Passw0rd
DB_PORT = 5439

[IAM_ROLE]
ARN = arn:aws:iam::123456789012:role/dwhRole

[S3]
LOG_DATA = 's3://udacity-dend/log_data'
SONG_DATA = 's3://udacity-dend/song_data'
LOG_JSONPATH = 's3://udacity-dend/log_json_path.json'
`

// LocalConfig returns a dwh.cfg pointing the local engine at dir.
func LocalConfig(duckdbPath, logDir, songDir string) string {
	return SampleConfig + "\n[LOCAL]\nDUCKDB_PATH = " + duckdbPath +
		"\nLOG_DATA_DIR = " + logDir +
		"\nSONG_DATA_DIR = " + songDir + "\n"
}
