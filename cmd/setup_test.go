package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"dwhctl/internal/config"
	"dwhctl/internal/testutil"
	"dwhctl/internal/ui"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type answerAsker map[string]interface{}

func (a answerAsker) Ask(qs []*survey.Question, response interface{}) error {
	for _, q := range qs {
		if value, ok := a[q.Name]; ok {
			if err := core.WriteAnswer(response, q.Name, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a answerAsker) AskOne(p survey.Prompt, response interface{}) error {
	if b, ok := response.(*bool); ok {
		*b = true
	}
	return nil
}

func useWizardAnswers(t *testing.T, answers answerAsker) {
	t.Helper()
	original := newConfigWizard
	newConfigWizard = func() *ui.ConfigWizard { return ui.NewConfigWizardWithAsker(answers) }
	t.Cleanup(func() { newConfigWizard = original })
}

func TestSetupCommand(t *testing.T) {
	assert.NotNil(t, setupCmd)
	assert.Equal(t, "setup", setupCmd.Use)
	assert.NotNil(t, setupCmd.RunE)
}

func TestSetupWritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dwh.cfg")
	useWizardAnswers(t, answerAsker{
		"key":         "AKIANEW",
		"secret":      "new-secret",
		"region":      "eu-west-1",
		"identifier":  "sparkify",
		"clusterType": "multi-node",
		"numNodes":    "2",
		"nodeType":    "ra3.xlplus",
		"roleName":    "sparkifyRole",
		"dbName":      "sparkify",
		"dbUser":      "admin",
		"dbPassword":  "Passw0rd",
		"dbPort":      "5439",
		"logData":     "s3://bucket/log_data",
		"songData":    "s3://bucket/song_data",
		"logJSONPath": "s3://bucket/log_json_path.json",
	})

	_, err := executeCommand(t, "setup", "--config", path, "-q")
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.AWS.Region)
	assert.Equal(t, "sparkify", cfg.DWH.ClusterIdentifier)
	assert.Equal(t, 2, cfg.DWH.NumNodes)
	assert.Equal(t, "ra3.xlplus", cfg.DWH.NodeType)
	assert.Equal(t, "admin", cfg.Cluster.DBUser)
	assert.Equal(t, "s3://bucket/song_data", cfg.S3.SongData)
}

func TestSetupForceKeepsProvisionedValues(t *testing.T) {
	path := testutil.NewTestHelper(t).WriteConfig(testutil.SampleConfig)
	useWizardAnswers(t, answerAsker{
		"key": "AKIANEW", "secret": "s", "region": "us-west-2",
		"identifier": "dwhCluster", "clusterType": "single-node", "numNodes": "1", "nodeType": "dc2.large", "roleName": "dwhRole",
		"dbName": "dwh", "dbUser": "dwhuser", "dbPassword": "Passw0rd", "dbPort": "5439",
		"logData": "s3://udacity-dend/log_data", "songData": "s3://udacity-dend/song_data", "logJSONPath": "s3://udacity-dend/log_json_path.json",
	})

	_, err := executeCommand(t, "setup", "--force", "--config", path, "-q")
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:iam::123456789012:role/dwhRole", cfg.IAMRole.ARN)
	assert.True(t, strings.HasPrefix(cfg.Cluster.Host, "dwhcluster."))
	assert.Equal(t, "single-node", cfg.DWH.ClusterType)
	assert.Equal(t, 1, cfg.DWH.NumNodes)
}
