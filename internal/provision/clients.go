// Package provision creates and removes the Redshift cluster, the IAM role it
// assumes to read S3, and the ingress rule on the cluster port.
package provision

import (
	"context"

	"dwhctl/pkg/errors"
	"dwhctl/pkg/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/redshift"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// RedshiftAPI is the part of the Redshift client the provisioner calls.
type RedshiftAPI interface {
	CreateCluster(ctx context.Context, params *redshift.CreateClusterInput, optFns ...func(*redshift.Options)) (*redshift.CreateClusterOutput, error)
	DescribeClusters(ctx context.Context, params *redshift.DescribeClustersInput, optFns ...func(*redshift.Options)) (*redshift.DescribeClustersOutput, error)
	DeleteCluster(ctx context.Context, params *redshift.DeleteClusterInput, optFns ...func(*redshift.Options)) (*redshift.DeleteClusterOutput, error)
}

// IAMAPI is the part of the IAM client the provisioner calls.
type IAMAPI interface {
	CreateRole(ctx context.Context, params *iam.CreateRoleInput, optFns ...func(*iam.Options)) (*iam.CreateRoleOutput, error)
	GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error)
	AttachRolePolicy(ctx context.Context, params *iam.AttachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error)
	DetachRolePolicy(ctx context.Context, params *iam.DetachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.DetachRolePolicyOutput, error)
	DeleteRole(ctx context.Context, params *iam.DeleteRoleInput, optFns ...func(*iam.Options)) (*iam.DeleteRoleOutput, error)
}

// EC2API is the part of the EC2 client the provisioner calls.
type EC2API interface {
	DescribeSecurityGroups(ctx context.Context, params *ec2.DescribeSecurityGroupsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error)
	AuthorizeSecurityGroupIngress(ctx context.Context, params *ec2.AuthorizeSecurityGroupIngressInput, optFns ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error)
}

var (
	_ RedshiftAPI = (*redshift.Client)(nil)
	_ IAMAPI      = (*iam.Client)(nil)
	_ EC2API      = (*ec2.Client)(nil)
)

// Clients bundles the AWS service clients.
type Clients struct {
	Redshift RedshiftAPI
	IAM      IAMAPI
	EC2      EC2API
	S3       *s3.Client
}

// NewClients builds clients for the [AWS] section. Static credentials are
// used when KEY and SECRET are set, otherwise the default chain applies.
func NewClients(ctx context.Context, creds models.AWS) (*Clients, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(creds.Region),
	}
	if creds.Key != "" && creds.Secret != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.Key, creds.Secret, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.CloudError(errors.ErrCodeCloudAPI, "load AWS configuration", err).
			WithSuggestions("Check KEY, SECRET and REGION in the [AWS] section")
	}

	return newClients(cfg), nil
}

func newClients(cfg aws.Config) *Clients {
	return &Clients{
		Redshift: redshift.NewFromConfig(cfg),
		IAM:      iam.NewFromConfig(cfg),
		EC2:      ec2.NewFromConfig(cfg),
		S3:       s3.NewFromConfig(cfg),
	}
}
