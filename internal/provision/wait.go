package provision

import (
	"context"
	goerrors "errors"
	"fmt"
	"time"

	"dwhctl/pkg/errors"

	"github.com/cenkalti/backoff/v4"
)

// ErrWaitTimeout is returned, wrapped, when the cluster does not become
// available within the wait budget.
var ErrWaitTimeout = goerrors.New("timed out waiting for cluster")

// UnexpectedStatusError reports a status the wait cannot recover from.
type UnexpectedStatusError struct {
	Cluster string
	Status  string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("cluster %s is %q, expected it to become available", e.Cluster, e.Status)
}

// StatusAvailable is the status the wait ends on.
const StatusAvailable = "available"

// pendingStatuses resolve on their own into available.
var pendingStatuses = map[string]bool{
	"creating":  true,
	"modifying": true,
	"rebooting": true,
	"resizing":  true,
	"resuming":  true,
}

// WaitConfig bounds the readiness poll.
type WaitConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Timeout         time.Duration
	// Notify is called with the status seen before each wait.
	Notify func(status string, next time.Duration)
}

// DefaultWaitConfig polls from 10s up to one minute apart for 30 minutes.
func DefaultWaitConfig() WaitConfig {
	return WaitConfig{
		InitialInterval: 10 * time.Second,
		MaxInterval:     time.Minute,
		Timeout:         30 * time.Minute,
	}
}

type pendingError struct{ status string }

func (e *pendingError) Error() string { return "cluster is " + e.status }

// WaitAvailable polls the cluster until it is available, its status is
// neither available nor pending, the timeout passes or ctx is done.
func WaitAvailable(ctx context.Context, client RedshiftAPI, identifier string, cfg WaitConfig) (*ClusterInfo, error) {
	policy := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(cfg.InitialInterval),
		backoff.WithMaxInterval(cfg.MaxInterval),
		backoff.WithMaxElapsedTime(cfg.Timeout),
	)

	var info *ClusterInfo
	op := func() error {
		current, err := Describe(ctx, client, identifier)
		if err != nil {
			return backoff.Permanent(err)
		}
		info = current

		switch {
		case current.Status == StatusAvailable:
			return nil
		case pendingStatuses[current.Status]:
			return &pendingError{status: current.Status}
		default:
			return backoff.Permanent(&UnexpectedStatusError{Cluster: identifier, Status: current.Status})
		}
	}

	notify := func(err error, next time.Duration) {
		var pending *pendingError
		if cfg.Notify != nil && goerrors.As(err, &pending) {
			cfg.Notify(pending.status, next)
		}
	}

	err := backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify)
	if err == nil {
		return info, nil
	}

	var pending *pendingError
	var unexpected *UnexpectedStatusError
	switch {
	case ctx.Err() != nil:
		return info, ctx.Err()
	case goerrors.As(err, &pending):
		return info, errors.Wrap(ErrWaitTimeout, errors.ErrCodeWaitTimeout, fmt.Sprintf("cluster %s still %s after %s", identifier, pending.status, cfg.Timeout)).
			WithContext("cluster", identifier).
			WithSuggestions("Run 'dwhctl cluster status' and retry 'dwhctl cluster create' once it is available")
	case goerrors.As(err, &unexpected):
		return info, errors.Wrap(unexpected, errors.ErrCodeUnexpectedStatus, unexpected.Error()).
			WithContext("cluster", identifier).
			WithContext("status", unexpected.Status)
	default:
		return info, err
	}
}
