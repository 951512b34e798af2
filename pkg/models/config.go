package models

import (
	"fmt"
	"net/url"
	"strconv"
)

// Config mirrors the sections of dwh.cfg.
type Config struct {
	AWS     AWS     `ini:"AWS" yaml:"aws"`
	DWH     DWH     `ini:"DWH" yaml:"dwh"`
	Cluster Cluster `ini:"CLUSTER" yaml:"cluster"`
	IAMRole IAMRole `ini:"IAM_ROLE" yaml:"iam_role"`
	S3      S3      `ini:"S3" yaml:"s3"`
	Local   Local   `ini:"LOCAL" yaml:"local"`
}

type AWS struct {
	Key    string `ini:"KEY" yaml:"key"`
	Secret string `ini:"SECRET" yaml:"secret"`
	Region string `ini:"REGION" yaml:"region"`
}

// DWH holds the cluster shape used by the provisioner.
type DWH struct {
	ClusterType       string `ini:"DWH_CLUSTER_TYPE" yaml:"cluster_type"`
	NumNodes          int    `ini:"DWH_NUM_NODES" yaml:"num_nodes"`
	NodeType          string `ini:"DWH_NODE_TYPE" yaml:"node_type"`
	ClusterIdentifier string `ini:"DWH_CLUSTER_IDENTIFIER" yaml:"cluster_identifier"`
	IAMRoleName       string `ini:"DWH_IAM_ROLE_NAME" yaml:"iam_role_name"`
	IngressCIDR       string `ini:"DWH_INGRESS_CIDR" yaml:"ingress_cidr"`
}

// Cluster holds the SQL connection parameters.
type Cluster struct {
	Host       string `ini:"HOST" yaml:"host"`
	DBName     string `ini:"DB_NAME" yaml:"db_name"`
	DBUser     string `ini:"DB_USER" yaml:"db_user"`
	DBPassword string `ini:"DB_PASSWORD" yaml:"db_password"`
	DBPort     int    `ini:"DB_PORT" yaml:"db_port"`
	SSLMode    string `ini:"SSL_MODE" yaml:"ssl_mode"`
}

type IAMRole struct {
	ARN string `ini:"ARN" yaml:"arn"`
}

// S3 holds the source locations for the staging loads.
type S3 struct {
	LogData     string `ini:"LOG_DATA" yaml:"log_data"`
	SongData    string `ini:"SONG_DATA" yaml:"song_data"`
	LogJSONPath string `ini:"LOG_JSONPATH" yaml:"log_jsonpath"`
}

// Local configures the embedded engine used for local runs.
type Local struct {
	DuckDBPath  string `ini:"DUCKDB_PATH" yaml:"duckdb_path"`
	LogDataDir  string `ini:"LOG_DATA_DIR" yaml:"log_data_dir"`
	SongDataDir string `ini:"SONG_DATA_DIR" yaml:"song_data_dir"`
}

const (
	DefaultRegion      = "us-west-2"
	DefaultClusterType = "multi-node"
	DefaultNodeType    = "dc2.large"
	DefaultNumNodes    = 4
	DefaultDBPort      = 5439
	DefaultSSLMode     = "require"
	DefaultIngressCIDR = "0.0.0.0/0"
	DefaultDuckDBPath  = "sparkify.duckdb"
)

// ApplyDefaults fills unset optional values.
func (c *Config) ApplyDefaults() {
	if c.AWS.Region == "" {
		c.AWS.Region = DefaultRegion
	}
	if c.DWH.ClusterType == "" {
		c.DWH.ClusterType = DefaultClusterType
	}
	if c.DWH.NodeType == "" {
		c.DWH.NodeType = DefaultNodeType
	}
	if c.DWH.NumNodes == 0 {
		c.DWH.NumNodes = DefaultNumNodes
	}
	if c.DWH.IngressCIDR == "" {
		c.DWH.IngressCIDR = DefaultIngressCIDR
	}
	if c.Cluster.DBPort == 0 {
		c.Cluster.DBPort = DefaultDBPort
	}
	if c.Cluster.SSLMode == "" {
		c.Cluster.SSLMode = DefaultSSLMode
	}
	if c.Local.DuckDBPath == "" {
		c.Local.DuckDBPath = DefaultDuckDBPath
	}
}

// DSN builds a postgres connection URL for the cluster.
func (c Cluster) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   fmt.Sprintf("%s:%s", c.Host, strconv.Itoa(c.DBPort)),
		Path:   "/" + c.DBName,
	}
	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Redacted returns a copy with secrets masked, for display.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.AWS.Secret = mask(c.AWS.Secret)
	c.Cluster.DBPassword = mask(c.Cluster.DBPassword)
	return c
}
