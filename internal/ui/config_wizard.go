package ui

import (
	"fmt"
	"strconv"
	"strings"

	"dwhctl/pkg/errors"
	"dwhctl/pkg/models"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// Asker runs survey prompts. Tests substitute a scripted implementation.
type Asker interface {
	Ask(qs []*survey.Question, response interface{}) error
	AskOne(p survey.Prompt, response interface{}) error
}

type surveyAsker struct{}

func (surveyAsker) Ask(qs []*survey.Question, response interface{}) error {
	return survey.Ask(qs, response)
}

func (surveyAsker) AskOne(p survey.Prompt, response interface{}) error {
	return survey.AskOne(p, response)
}

// ConfigWizard provides an interactive dwh.cfg setup
type ConfigWizard struct {
	asker       Asker
	currentStep int
	totalSteps  int
}

// NewConfigWizard creates a wizard prompting on the terminal.
func NewConfigWizard() *ConfigWizard {
	return NewConfigWizardWithAsker(surveyAsker{})
}

// NewConfigWizardWithAsker creates a wizard using asker for every prompt.
func NewConfigWizardWithAsker(asker Asker) *ConfigWizard {
	return &ConfigWizard{
		asker:       asker,
		currentStep: 1,
		totalSteps:  5,
	}
}

// Run walks through every section. Values in base are offered as defaults.
func (w *ConfigWizard) Run(base *models.Config) (*models.Config, error) {
	ShowHeader("dwhctl - Configuration Setup")

	config := &models.Config{}
	if base != nil {
		*config = *base
	}
	config.ApplyDefaults()

	steps := []func(*models.Config) error{
		w.configureAWSStep,
		w.configureClusterShapeStep,
		w.configureDatabaseStep,
		w.configureSourcesStep,
		w.reviewConfiguration,
	}
	for _, step := range steps {
		if err := step(config); err != nil {
			if err == terminal.InterruptErr {
				return nil, errors.New(errors.ErrCodeUserInput, "configuration cancelled")
			}
			return nil, err
		}
	}
	return config, nil
}

func (w *ConfigWizard) configureAWSStep(config *models.Config) error {
	w.showProgress("AWS Credentials")

	questions := []*survey.Question{
		{
			Name: "key",
			Prompt: &survey.Input{
				Message: "AWS access key id:",
				Default: config.AWS.Key,
				Help:    "Used to create the IAM role and the Redshift cluster",
			},
			Validate: survey.Required,
		},
		{
			Name: "secret",
			Prompt: &survey.Password{
				Message: "AWS secret access key:",
				Help:    "Run 'dwhctl encrypt-config' afterwards to encrypt it in place",
			},
			Validate: survey.Required,
		},
		{
			Name: "region",
			Prompt: &survey.Input{
				Message: "Region:",
				Default: config.AWS.Region,
			},
			Validate: survey.Required,
		},
	}

	answers := struct {
		Key    string
		Secret string
		Region string
	}{}

	if err := w.asker.Ask(questions, &answers); err != nil {
		return err
	}

	config.AWS = models.AWS{Key: answers.Key, Secret: answers.Secret, Region: answers.Region}
	w.currentStep++
	return nil
}

func (w *ConfigWizard) configureClusterShapeStep(config *models.Config) error {
	w.showProgress("Cluster")

	questions := []*survey.Question{
		{
			Name: "identifier",
			Prompt: &survey.Input{
				Message: "Cluster identifier:",
				Default: orDefault(config.DWH.ClusterIdentifier, "dwhCluster"),
			},
			Validate: survey.Required,
		},
		{
			Name: "clusterType",
			Prompt: &survey.Select{
				Message: "Cluster type:",
				Options: []string{"multi-node", "single-node"},
				Default: config.DWH.ClusterType,
			},
		},
		{
			Name: "numNodes",
			Prompt: &survey.Input{
				Message: "Number of nodes:",
				Default: strconv.Itoa(config.DWH.NumNodes),
			},
			Validate: validatePositiveInt,
		},
		{
			Name: "nodeType",
			Prompt: &survey.Input{
				Message: "Node type:",
				Default: config.DWH.NodeType,
			},
			Validate: survey.Required,
		},
		{
			Name: "roleName",
			Prompt: &survey.Input{
				Message: "IAM role name:",
				Default: orDefault(config.DWH.IAMRoleName, "dwhRole"),
				Help:    "Role Redshift assumes to read the S3 sources",
			},
			Validate: survey.Required,
		},
	}

	answers := struct {
		Identifier  string
		ClusterType string `survey:"clusterType"`
		NumNodes    string `survey:"numNodes"`
		NodeType    string `survey:"nodeType"`
		RoleName    string `survey:"roleName"`
	}{}

	if err := w.asker.Ask(questions, &answers); err != nil {
		return err
	}

	nodes, _ := strconv.Atoi(answers.NumNodes)
	if answers.ClusterType == "single-node" {
		nodes = 1
	}
	config.DWH.ClusterIdentifier = answers.Identifier
	config.DWH.ClusterType = answers.ClusterType
	config.DWH.NumNodes = nodes
	config.DWH.NodeType = answers.NodeType
	config.DWH.IAMRoleName = answers.RoleName

	w.currentStep++
	return nil
}

func (w *ConfigWizard) configureDatabaseStep(config *models.Config) error {
	w.showProgress("Database")

	questions := []*survey.Question{
		{
			Name:     "dbName",
			Prompt:   &survey.Input{Message: "Database name:", Default: orDefault(config.Cluster.DBName, "dwh")},
			Validate: survey.Required,
		},
		{
			Name:     "dbUser",
			Prompt:   &survey.Input{Message: "Master user:", Default: orDefault(config.Cluster.DBUser, "dwhuser")},
			Validate: survey.Required,
		},
		{
			Name: "dbPassword",
			Prompt: &survey.Password{
				Message: "Master password:",
				Help:    "8-64 characters with upper case, lower case and a digit",
			},
			Validate: survey.Required,
		},
		{
			Name:     "dbPort",
			Prompt:   &survey.Input{Message: "Port:", Default: strconv.Itoa(config.Cluster.DBPort)},
			Validate: validatePositiveInt,
		},
	}

	answers := struct {
		DBName     string `survey:"dbName"`
		DBUser     string `survey:"dbUser"`
		DBPassword string `survey:"dbPassword"`
		DBPort     string `survey:"dbPort"`
	}{}

	if err := w.asker.Ask(questions, &answers); err != nil {
		return err
	}

	port, _ := strconv.Atoi(answers.DBPort)
	config.Cluster.DBName = answers.DBName
	config.Cluster.DBUser = answers.DBUser
	config.Cluster.DBPassword = answers.DBPassword
	config.Cluster.DBPort = port

	w.currentStep++
	return nil
}

func (w *ConfigWizard) configureSourcesStep(config *models.Config) error {
	w.showProgress("Sources")

	questions := []*survey.Question{
		{
			Name:     "logData",
			Prompt:   &survey.Input{Message: "Event log prefix:", Default: orDefault(config.S3.LogData, "s3://udacity-dend/log_data")},
			Validate: validateS3URI,
		},
		{
			Name:     "songData",
			Prompt:   &survey.Input{Message: "Song data prefix:", Default: orDefault(config.S3.SongData, "s3://udacity-dend/song_data")},
			Validate: validateS3URI,
		},
		{
			Name:     "logJSONPath",
			Prompt:   &survey.Input{Message: "JSONPaths file:", Default: orDefault(config.S3.LogJSONPath, "s3://udacity-dend/log_json_path.json")},
			Validate: validateS3URI,
		},
	}

	answers := struct {
		LogData     string `survey:"logData"`
		SongData    string `survey:"songData"`
		LogJSONPath string `survey:"logJSONPath"`
	}{}

	if err := w.asker.Ask(questions, &answers); err != nil {
		return err
	}

	config.S3 = models.S3{LogData: answers.LogData, SongData: answers.SongData, LogJSONPath: answers.LogJSONPath}
	w.currentStep++
	return nil
}

func (w *ConfigWizard) reviewConfiguration(config *models.Config) error {
	w.showProgress("Review")

	redacted := config.Redacted()
	ShowProperties("", [][2]string{
		{"Region", redacted.AWS.Region},
		{"Cluster", fmt.Sprintf("%s (%s, %d x %s)", redacted.DWH.ClusterIdentifier, redacted.DWH.ClusterType, redacted.DWH.NumNodes, redacted.DWH.NodeType)},
		{"IAM role", redacted.DWH.IAMRoleName},
		{"Database", fmt.Sprintf("%s@%s:%d", redacted.Cluster.DBUser, redacted.Cluster.DBName, redacted.Cluster.DBPort)},
		{"Password", redacted.Cluster.DBPassword},
		{"Event logs", redacted.S3.LogData},
		{"Song data", redacted.S3.SongData},
	})

	confirm := false
	prompt := &survey.Confirm{
		Message: "Save this configuration?",
		Default: true,
	}
	if err := w.asker.AskOne(prompt, &confirm); err != nil {
		return err
	}
	if !confirm {
		return errors.New(errors.ErrCodeUserInput, "configuration cancelled")
	}

	w.currentStep++
	return nil
}

func (w *ConfigWizard) showProgress(step string) {
	fmt.Fprintf(stdout(), "\n%s [Step %d/%d] %s\n\n",
		ColorProgress("►"),
		w.currentStep,
		w.totalSteps,
		ColorBold(step),
	)
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func validatePositiveInt(val interface{}) error {
	s, _ := val.(string)
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive number")
	}
	return nil
}

func validateS3URI(val interface{}) error {
	s, _ := val.(string)
	if !strings.HasPrefix(s, "s3://") {
		return fmt.Errorf("expected s3://bucket/prefix")
	}
	return nil
}
