package config

import (
	"strings"

	"dwhctl/pkg/errors"
	"dwhctl/pkg/models"
)

// Scope selects which keys a command needs.
type Scope int

const (
	// ScopeWarehouse covers the SQL connection.
	ScopeWarehouse Scope = iota
	// ScopeLoad covers the S3 sources and the role used by COPY.
	ScopeLoad
	// ScopeProvision covers the AWS control plane.
	ScopeProvision
	// ScopeLocal covers the embedded engine.
	ScopeLocal
)

type requirement struct {
	section, key string
	value        func(*models.Config) string
}

var requirements = map[Scope][]requirement{
	ScopeWarehouse: {
		{"CLUSTER", "HOST", func(c *models.Config) string { return c.Cluster.Host }},
		{"CLUSTER", "DB_NAME", func(c *models.Config) string { return c.Cluster.DBName }},
		{"CLUSTER", "DB_USER", func(c *models.Config) string { return c.Cluster.DBUser }},
		{"CLUSTER", "DB_PASSWORD", func(c *models.Config) string { return c.Cluster.DBPassword }},
	},
	ScopeLoad: {
		{"S3", "LOG_DATA", func(c *models.Config) string { return c.S3.LogData }},
		{"S3", "SONG_DATA", func(c *models.Config) string { return c.S3.SongData }},
		{"S3", "LOG_JSONPATH", func(c *models.Config) string { return c.S3.LogJSONPath }},
		{"IAM_ROLE", "ARN", func(c *models.Config) string { return c.IAMRole.ARN }},
		{"AWS", "REGION", func(c *models.Config) string { return c.AWS.Region }},
	},
	ScopeProvision: {
		{"AWS", "KEY", func(c *models.Config) string { return c.AWS.Key }},
		{"AWS", "SECRET", func(c *models.Config) string { return c.AWS.Secret }},
		{"DWH", "DWH_CLUSTER_IDENTIFIER", func(c *models.Config) string { return c.DWH.ClusterIdentifier }},
		{"DWH", "DWH_IAM_ROLE_NAME", func(c *models.Config) string { return c.DWH.IAMRoleName }},
		{"CLUSTER", "DB_NAME", func(c *models.Config) string { return c.Cluster.DBName }},
		{"CLUSTER", "DB_USER", func(c *models.Config) string { return c.Cluster.DBUser }},
		{"CLUSTER", "DB_PASSWORD", func(c *models.Config) string { return c.Cluster.DBPassword }},
	},
	ScopeLocal: {
		{"LOCAL", "LOG_DATA_DIR", func(c *models.Config) string { return c.Local.LogDataDir }},
		{"LOCAL", "SONG_DATA_DIR", func(c *models.Config) string { return c.Local.SongDataDir }},
	},
}

// Validate returns a configuration error for the first missing key of any
// requested scope.
func Validate(cfg *models.Config, scopes ...Scope) error {
	for _, scope := range scopes {
		for _, req := range requirements[scope] {
			if strings.TrimSpace(req.value(cfg)) == "" {
				return errors.MissingConfigError(req.section, req.key)
			}
		}
	}

	if hasScope(scopes, ScopeProvision) {
		if cfg.DWH.ClusterType == "multi-node" && cfg.DWH.NumNodes < 2 {
			return errors.ConfigError("multi-node clusters need at least 2 nodes", "DWH.DWH_NUM_NODES")
		}
	}
	if cfg.Cluster.DBPort <= 0 || cfg.Cluster.DBPort > 65535 {
		return errors.ConfigError("DB_PORT must be a valid TCP port", "CLUSTER.DB_PORT")
	}
	return nil
}

func hasScope(scopes []Scope, want Scope) bool {
	for _, s := range scopes {
		if s == want {
			return true
		}
	}
	return false
}
