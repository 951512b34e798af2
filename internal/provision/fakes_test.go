package provision

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/redshift"
	rstypes "github.com/aws/aws-sdk-go-v2/service/redshift/types"
	"github.com/stretchr/testify/mock"
)

type mockIAM struct {
	mock.Mock
}

func (m *mockIAM) CreateRole(ctx context.Context, params *iam.CreateRoleInput, _ ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
	args := m.Called(ctx, params)
	return &iam.CreateRoleOutput{}, args.Error(0)
}

func (m *mockIAM) GetRole(ctx context.Context, params *iam.GetRoleInput, _ ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
	args := m.Called(ctx, params)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	return args.Get(0).(*iam.GetRoleOutput), nil
}

func (m *mockIAM) AttachRolePolicy(ctx context.Context, params *iam.AttachRolePolicyInput, _ ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error) {
	args := m.Called(ctx, params)
	return &iam.AttachRolePolicyOutput{}, args.Error(0)
}

func (m *mockIAM) DetachRolePolicy(ctx context.Context, params *iam.DetachRolePolicyInput, _ ...func(*iam.Options)) (*iam.DetachRolePolicyOutput, error) {
	args := m.Called(ctx, params)
	return &iam.DetachRolePolicyOutput{}, args.Error(0)
}

func (m *mockIAM) DeleteRole(ctx context.Context, params *iam.DeleteRoleInput, _ ...func(*iam.Options)) (*iam.DeleteRoleOutput, error) {
	args := m.Called(ctx, params)
	return &iam.DeleteRoleOutput{}, args.Error(0)
}

func roleOutput(arn string) *iam.GetRoleOutput {
	out := &iam.GetRoleOutput{}
	out.Role = &iamtypes.Role{Arn: aws.String(arn)}
	return out
}

// fakeRedshift walks through statuses, one per DescribeClusters call. The
// last status repeats.
type fakeRedshift struct {
	createErr   error
	describeErr error
	deleteErr   error
	statuses    []string

	created   *redshift.CreateClusterInput
	deleted   *redshift.DeleteClusterInput
	describes int
}

func (f *fakeRedshift) CreateCluster(_ context.Context, params *redshift.CreateClusterInput, _ ...func(*redshift.Options)) (*redshift.CreateClusterOutput, error) {
	f.created = params
	return &redshift.CreateClusterOutput{}, f.createErr
}

func (f *fakeRedshift) DescribeClusters(_ context.Context, params *redshift.DescribeClustersInput, _ ...func(*redshift.Options)) (*redshift.DescribeClustersOutput, error) {
	f.describes++
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	status := "creating"
	if len(f.statuses) > 0 {
		i := f.describes - 1
		if i >= len(f.statuses) {
			i = len(f.statuses) - 1
		}
		status = f.statuses[i]
	}

	cluster := rstypes.Cluster{
		ClusterIdentifier: params.ClusterIdentifier,
		ClusterStatus:     aws.String(status),
		NodeType:          aws.String("dc2.large"),
		MasterUsername:    aws.String("dwhuser"),
		DBName:            aws.String("dwh"),
		NumberOfNodes:     aws.Int32(4),
		VpcId:             aws.String("vpc-123"),
		IamRoles:          []rstypes.ClusterIamRole{{IamRoleArn: aws.String("arn:aws:iam::123456789012:role/dwhRole")}},
	}
	if status == StatusAvailable {
		cluster.Endpoint = &rstypes.Endpoint{
			Address: aws.String("dwhcluster.abc123.us-west-2.redshift.amazonaws.com"),
			Port:    aws.Int32(5439),
		}
	}
	return &redshift.DescribeClustersOutput{Clusters: []rstypes.Cluster{cluster}}, nil
}

func (f *fakeRedshift) DeleteCluster(_ context.Context, params *redshift.DeleteClusterInput, _ ...func(*redshift.Options)) (*redshift.DeleteClusterOutput, error) {
	f.deleted = params
	return &redshift.DeleteClusterOutput{}, f.deleteErr
}

type fakeEC2 struct {
	groups       []ec2types.SecurityGroup
	describeErr  error
	authorizeErr error

	filters    []ec2types.Filter
	authorized *ec2.AuthorizeSecurityGroupIngressInput
}

func (f *fakeEC2) DescribeSecurityGroups(_ context.Context, params *ec2.DescribeSecurityGroupsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
	f.filters = params.Filters
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return &ec2.DescribeSecurityGroupsOutput{SecurityGroups: f.groups}, nil
}

func (f *fakeEC2) AuthorizeSecurityGroupIngress(_ context.Context, params *ec2.AuthorizeSecurityGroupIngressInput, _ ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error) {
	f.authorized = params
	return &ec2.AuthorizeSecurityGroupIngressOutput{}, f.authorizeErr
}

func defaultGroup() []ec2types.SecurityGroup {
	return []ec2types.SecurityGroup{{GroupId: aws.String("sg-default"), GroupName: aws.String("default")}}
}
