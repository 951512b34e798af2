package ui

import (
	"testing"

	"dwhctl/pkg/errors"
	"dwhctl/pkg/models"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/core"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedAsker answers questions by name and validates each answer the way
// the terminal would.
type scriptedAsker struct {
	answers   map[string]interface{}
	confirm   bool
	interrupt string
	asked     []string
}

func (a *scriptedAsker) Ask(qs []*survey.Question, response interface{}) error {
	for _, q := range qs {
		a.asked = append(a.asked, q.Name)
		if q.Name == a.interrupt {
			return terminal.InterruptErr
		}
		value, ok := a.answers[q.Name]
		if !ok {
			continue
		}
		if q.Validate != nil {
			if err := q.Validate(value); err != nil {
				return err
			}
		}
		if err := core.WriteAnswer(response, q.Name, value); err != nil {
			return err
		}
	}
	return nil
}

func (a *scriptedAsker) AskOne(p survey.Prompt, response interface{}) error {
	if b, ok := response.(*bool); ok {
		*b = a.confirm
	}
	return nil
}

func wizardAnswers() map[string]interface{} {
	return map[string]interface{}{
		"key":         "AKIAEXAMPLE",
		"secret":      "secret-key",
		"region":      "us-west-2",
		"identifier":  "dwhCluster",
		"clusterType": "multi-node",
		"numNodes":    "4",
		"nodeType":    "dc2.large",
		"roleName":    "dwhRole",
		"dbName":      "dwh",
		"dbUser":      "dwhuser",
		"dbPassword":  "Passw0rd",
		"dbPort":      "5439",
		"logData":     "s3://udacity-dend/log_data",
		"songData":    "s3://udacity-dend/song_data",
		"logJSONPath": "s3://udacity-dend/log_json_path.json",
	}
}

func TestConfigWizardRun(t *testing.T) {
	captureUI(t)

	asker := &scriptedAsker{answers: wizardAnswers(), confirm: true}
	cfg, err := NewConfigWizardWithAsker(asker).Run(nil)
	require.NoError(t, err)

	assert.Equal(t, "AKIAEXAMPLE", cfg.AWS.Key)
	assert.Equal(t, "us-west-2", cfg.AWS.Region)
	assert.Equal(t, "multi-node", cfg.DWH.ClusterType)
	assert.Equal(t, 4, cfg.DWH.NumNodes)
	assert.Equal(t, "dwhRole", cfg.DWH.IAMRoleName)
	assert.Equal(t, 5439, cfg.Cluster.DBPort)
	assert.Equal(t, "Passw0rd", cfg.Cluster.DBPassword)
	assert.Equal(t, "s3://udacity-dend/log_json_path.json", cfg.S3.LogJSONPath)
}

func TestConfigWizardSingleNode(t *testing.T) {
	captureUI(t)

	answers := wizardAnswers()
	answers["clusterType"] = "single-node"
	cfg, err := NewConfigWizardWithAsker(&scriptedAsker{answers: answers, confirm: true}).Run(nil)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.DWH.NumNodes)
}

func TestConfigWizardKeepsBase(t *testing.T) {
	captureUI(t)

	base := &models.Config{}
	base.IAMRole.ARN = "arn:aws:iam::123456789012:role/dwhRole"
	base.Cluster.Host = "dwhcluster.example.com"

	cfg, err := NewConfigWizardWithAsker(&scriptedAsker{answers: wizardAnswers(), confirm: true}).Run(base)
	require.NoError(t, err)

	assert.Equal(t, base.IAMRole.ARN, cfg.IAMRole.ARN)
	assert.Equal(t, base.Cluster.Host, cfg.Cluster.Host)
	assert.Empty(t, base.AWS.Key, "base must not be modified")
}

func TestConfigWizardCancelled(t *testing.T) {
	captureUI(t)

	t.Run("declined", func(t *testing.T) {
		_, err := NewConfigWizardWithAsker(&scriptedAsker{answers: wizardAnswers()}).Run(nil)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeUserInput))
	})

	t.Run("interrupted", func(t *testing.T) {
		asker := &scriptedAsker{answers: wizardAnswers(), interrupt: "dbPassword"}
		_, err := NewConfigWizardWithAsker(asker).Run(nil)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeUserInput))
		assert.NotContains(t, asker.asked, "logData")
	})
}

func TestConfigWizardValidation(t *testing.T) {
	captureUI(t)

	answers := wizardAnswers()
	answers["songData"] = "/tmp/song_data"
	_, err := NewConfigWizardWithAsker(&scriptedAsker{answers: answers, confirm: true}).Run(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://")
}

func TestWizardValidators(t *testing.T) {
	assert.NoError(t, validatePositiveInt("2"))
	assert.Error(t, validatePositiveInt("0"))
	assert.Error(t, validatePositiveInt("many"))
	assert.NoError(t, validateS3URI("s3://bucket/prefix"))
	assert.Error(t, validateS3URI("bucket/prefix"))
	assert.Equal(t, "fallback", orDefault("", "fallback"))
	assert.Equal(t, "value", orDefault("value", "fallback"))
}
