package provision

import (
	"context"
	"fmt"

	"dwhctl/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

const duplicatePermission = "InvalidPermission.Duplicate"

// Ingress describes the rule opened on the cluster VPC.
type Ingress struct {
	GroupID string
	CIDR    string
	Port    int
	Outcome Outcome
}

// OpenIngress allows TCP traffic from cidr to port through the default
// security group of vpcID. An identical existing rule is AlreadyExists.
func OpenIngress(ctx context.Context, client EC2API, vpcID string, port int, cidr string) (*Ingress, error) {
	groups, err := client.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("vpc-id"), Values: []string{vpcID}},
			{Name: aws.String("group-name"), Values: []string{"default"}},
		},
	})
	if err != nil {
		return nil, ingressError("describe security groups", vpcID, err)
	}
	if len(groups.SecurityGroups) == 0 {
		return nil, errors.New(errors.ErrCodeIngressFailed, fmt.Sprintf("no default security group in %s", vpcID)).
			WithContext("vpc", vpcID)
	}

	ingress := &Ingress{
		GroupID: aws.ToString(groups.SecurityGroups[0].GroupId),
		CIDR:    cidr,
		Port:    port,
		Outcome: Created,
	}

	_, err = client.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
		GroupId: aws.String(ingress.GroupID),
		IpPermissions: []ec2types.IpPermission{{
			IpProtocol: aws.String("tcp"),
			FromPort:   aws.Int32(int32(port)),
			ToPort:     aws.Int32(int32(port)),
			IpRanges:   []ec2types.IpRange{{CidrIp: aws.String(cidr)}},
		}},
	})
	if err != nil {
		if apiErrorCode(err) != duplicatePermission {
			return nil, ingressError("authorize security group ingress", vpcID, err)
		}
		ingress.Outcome = AlreadyExists
	}
	return ingress, nil
}

func ingressError(operation, vpcID string, err error) error {
	return errors.CloudError(errors.ErrCodeIngressFailed, operation, err).
		WithContext("vpc", vpcID).
		WithSuggestions("Ensure the AWS credentials may modify EC2 security groups")
}
