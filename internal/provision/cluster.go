package provision

import (
	"context"
	goerrors "errors"
	"fmt"

	"dwhctl/pkg/errors"
	"dwhctl/pkg/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/redshift"
	rstypes "github.com/aws/aws-sdk-go-v2/service/redshift/types"
)

// ClusterSpec is the shape of the cluster to create.
type ClusterSpec struct {
	Identifier     string
	ClusterType    string
	NodeType       string
	NumNodes       int
	DBName         string
	MasterUser     string
	MasterPassword string
	Port           int
}

// SpecFromModel reads the cluster shape from the [DWH] and [CLUSTER] sections.
func SpecFromModel(cfg *models.Config) ClusterSpec {
	return ClusterSpec{
		Identifier:     cfg.DWH.ClusterIdentifier,
		ClusterType:    cfg.DWH.ClusterType,
		NodeType:       cfg.DWH.NodeType,
		NumNodes:       cfg.DWH.NumNodes,
		DBName:         cfg.Cluster.DBName,
		MasterUser:     cfg.Cluster.DBUser,
		MasterPassword: cfg.Cluster.DBPassword,
		Port:           cfg.Cluster.DBPort,
	}
}

// ClusterInfo is the subset of cluster properties shown to the operator.
type ClusterInfo struct {
	Identifier     string   `json:"cluster_identifier" yaml:"cluster_identifier"`
	NodeType       string   `json:"node_type" yaml:"node_type"`
	Status         string   `json:"cluster_status" yaml:"cluster_status"`
	MasterUsername string   `json:"master_username" yaml:"master_username"`
	DBName         string   `json:"db_name" yaml:"db_name"`
	Endpoint       string   `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Port           int      `json:"port,omitempty" yaml:"port,omitempty"`
	NumberOfNodes  int      `json:"number_of_nodes" yaml:"number_of_nodes"`
	VpcID          string   `json:"vpc_id" yaml:"vpc_id"`
	IAMRoles       []string `json:"iam_roles,omitempty" yaml:"iam_roles,omitempty"`
}

// Properties returns the info as ordered name/value pairs.
func (c *ClusterInfo) Properties() [][2]string {
	endpoint := c.Endpoint
	if endpoint != "" && c.Port > 0 {
		endpoint = fmt.Sprintf("%s:%d", c.Endpoint, c.Port)
	}
	return [][2]string{
		{"ClusterIdentifier", c.Identifier},
		{"NodeType", c.NodeType},
		{"ClusterStatus", c.Status},
		{"MasterUsername", c.MasterUsername},
		{"DBName", c.DBName},
		{"Endpoint", endpoint},
		{"NumberOfNodes", fmt.Sprintf("%d", c.NumberOfNodes)},
		{"VpcId", c.VpcID},
	}
}

// EnsureCluster requests the cluster with roleARN attached. A cluster with
// the same identifier is reused as is.
func EnsureCluster(ctx context.Context, client RedshiftAPI, spec ClusterSpec, roleARN string) (Outcome, error) {
	input := &redshift.CreateClusterInput{
		ClusterIdentifier:  aws.String(spec.Identifier),
		ClusterType:        aws.String(spec.ClusterType),
		NodeType:           aws.String(spec.NodeType),
		DBName:             aws.String(spec.DBName),
		MasterUsername:     aws.String(spec.MasterUser),
		MasterUserPassword: aws.String(spec.MasterPassword),
		IamRoles:           []string{roleARN},
	}
	// single-node clusters reject a node count
	if spec.ClusterType != "single-node" {
		input.NumberOfNodes = aws.Int32(int32(spec.NumNodes))
	}
	if spec.Port > 0 {
		input.Port = aws.Int32(int32(spec.Port))
	}

	if _, err := client.CreateCluster(ctx, input); err != nil {
		var exists *rstypes.ClusterAlreadyExistsFault
		if goerrors.As(err, &exists) {
			return AlreadyExists, nil
		}
		return Failed, errors.CloudError(errors.ErrCodeClusterFailed, "create cluster", err).
			WithContext("cluster", spec.Identifier).
			WithSuggestions(
				"Check the node type and node count in the [DWH] section",
				"DB_PASSWORD must be 8-64 characters with upper case, lower case and a digit",
			)
	}
	return Created, nil
}

// Describe returns the current properties of the cluster.
func Describe(ctx context.Context, client RedshiftAPI, identifier string) (*ClusterInfo, error) {
	out, err := client.DescribeClusters(ctx, &redshift.DescribeClustersInput{
		ClusterIdentifier: aws.String(identifier),
	})
	if err != nil {
		var missing *rstypes.ClusterNotFoundFault
		if goerrors.As(err, &missing) {
			return nil, errors.Wrap(err, errors.ErrCodeResourceNotFound, fmt.Sprintf("cluster %s not found", identifier)).
				WithContext("cluster", identifier).
				WithSuggestions("Run 'dwhctl cluster create' first")
		}
		return nil, errors.CloudError(errors.ErrCodeCloudAPI, "describe cluster", err).
			WithContext("cluster", identifier)
	}
	if len(out.Clusters) == 0 {
		return nil, errors.New(errors.ErrCodeResourceNotFound, fmt.Sprintf("cluster %s not found", identifier)).
			WithContext("cluster", identifier)
	}
	return clusterInfo(out.Clusters[0]), nil
}

func clusterInfo(c rstypes.Cluster) *ClusterInfo {
	info := &ClusterInfo{
		Identifier:     aws.ToString(c.ClusterIdentifier),
		NodeType:       aws.ToString(c.NodeType),
		Status:         aws.ToString(c.ClusterStatus),
		MasterUsername: aws.ToString(c.MasterUsername),
		DBName:         aws.ToString(c.DBName),
		NumberOfNodes:  int(aws.ToInt32(c.NumberOfNodes)),
		VpcID:          aws.ToString(c.VpcId),
	}
	if c.Endpoint != nil {
		info.Endpoint = aws.ToString(c.Endpoint.Address)
		info.Port = int(aws.ToInt32(c.Endpoint.Port))
	}
	for _, role := range c.IamRoles {
		info.IAMRoles = append(info.IAMRoles, aws.ToString(role.IamRoleArn))
	}
	return info
}

// DeleteCluster deletes the cluster without a final snapshot. A missing
// cluster is reported as Absent.
func DeleteCluster(ctx context.Context, client RedshiftAPI, identifier string) (Outcome, error) {
	_, err := client.DeleteCluster(ctx, &redshift.DeleteClusterInput{
		ClusterIdentifier:        aws.String(identifier),
		SkipFinalClusterSnapshot: aws.Bool(true),
	})
	if err != nil {
		var missing *rstypes.ClusterNotFoundFault
		if goerrors.As(err, &missing) {
			return Absent, nil
		}
		return Failed, errors.CloudError(errors.ErrCodeClusterFailed, "delete cluster", err).
			WithContext("cluster", identifier)
	}
	return Deleted, nil
}
