package provision

import (
	"context"
	"encoding/json"
	goerrors "errors"

	"dwhctl/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
)

// S3ReadOnlyPolicyARN is attached to the cluster role.
const S3ReadOnlyPolicyARN = "arn:aws:iam::aws:policy/AmazonS3ReadOnlyAccess"

const roleDescription = "Allows Redshift clusters to call AWS services on your behalf."

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

type policyStatement struct {
	Action    string            `json:"Action"`
	Effect    string            `json:"Effect"`
	Principal map[string]string `json:"Principal"`
}

// TrustPolicy returns the assume-role document letting Redshift use the role.
func TrustPolicy() string {
	doc := policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Action:    "sts:AssumeRole",
			Effect:    "Allow",
			Principal: map[string]string{"Service": "redshift.amazonaws.com"},
		}},
	}
	b, _ := json.Marshal(doc)
	return string(b)
}

// RoleResult is the outcome of EnsureRole.
type RoleResult struct {
	Name    string
	ARN     string
	Outcome Outcome
}

// EnsureRole creates the role if it is missing, attaches the S3 read-only
// policy and reads back the ARN. An existing role is reused.
func EnsureRole(ctx context.Context, client IAMAPI, name string) (*RoleResult, error) {
	result := &RoleResult{Name: name, Outcome: Created}

	_, err := client.CreateRole(ctx, &iam.CreateRoleInput{
		Path:                     aws.String("/"),
		RoleName:                 aws.String(name),
		Description:              aws.String(roleDescription),
		AssumeRolePolicyDocument: aws.String(TrustPolicy()),
	})
	if err != nil {
		var exists *iamtypes.EntityAlreadyExistsException
		if !goerrors.As(err, &exists) {
			return nil, roleError("create role", name, err)
		}
		result.Outcome = AlreadyExists
	}

	// Attaching an attached policy is a no-op on the IAM side.
	if _, err := client.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
		RoleName:  aws.String(name),
		PolicyArn: aws.String(S3ReadOnlyPolicyARN),
	}); err != nil {
		return nil, roleError("attach role policy", name, err)
	}

	out, err := client.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(name)})
	if err != nil {
		return nil, roleError("get role", name, err)
	}
	if out.Role == nil || out.Role.Arn == nil {
		return nil, errors.New(errors.ErrCodeRoleFailed, "IAM returned a role without an ARN").
			WithContext("role", name)
	}
	result.ARN = aws.ToString(out.Role.Arn)

	return result, nil
}

// RemoveRole detaches the S3 policy and deletes the role. A role or
// attachment that is already gone is reported as Absent.
func RemoveRole(ctx context.Context, client IAMAPI, name string) (Outcome, error) {
	var missing *iamtypes.NoSuchEntityException

	_, err := client.DetachRolePolicy(ctx, &iam.DetachRolePolicyInput{
		RoleName:  aws.String(name),
		PolicyArn: aws.String(S3ReadOnlyPolicyARN),
	})
	if err != nil && !goerrors.As(err, &missing) {
		return Failed, roleError("detach role policy", name, err)
	}

	if _, err := client.DeleteRole(ctx, &iam.DeleteRoleInput{RoleName: aws.String(name)}); err != nil {
		if goerrors.As(err, &missing) {
			return Absent, nil
		}
		return Failed, roleError("delete role", name, err)
	}
	return Deleted, nil
}

func roleError(operation, name string, err error) error {
	return errors.CloudError(errors.ErrCodeRoleFailed, operation, err).
		WithContext("role", name).
		WithSuggestions("Ensure the AWS credentials may manage IAM roles")
}
