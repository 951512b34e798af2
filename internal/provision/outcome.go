package provision

import (
	goerrors "errors"

	"github.com/aws/smithy-go"
)

// Outcome is the result of an idempotent provisioning call. The zero value
// is Failed, returned alongside an error.
type Outcome int

const (
	Failed Outcome = iota
	Created
	AlreadyExists
	Deleted
	Absent
)

func (o Outcome) String() string {
	switch o {
	case Failed:
		return "failed"
	case Created:
		return "created"
	case AlreadyExists:
		return "already exists"
	case Deleted:
		return "deleted"
	case Absent:
		return "absent"
	default:
		return "unknown"
	}
}

// apiErrorCode returns the service error code of err, or "".
func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if goerrors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
