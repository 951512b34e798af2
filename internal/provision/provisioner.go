package provision

import (
	"context"
	"time"

	"dwhctl/internal/config"
	"dwhctl/internal/observability"
	"dwhctl/pkg/errors"
	"dwhctl/pkg/models"
)

// Result describes a completed create.
type Result struct {
	Role    *RoleResult
	Cluster Outcome
	Ingress *Ingress
	Info    *ClusterInfo
}

// TeardownReport lists what teardown found for each resource.
type TeardownReport struct {
	Role    Outcome
	Cluster Outcome
}

// Provisioner runs the create and delete sequences for one configuration.
type Provisioner struct {
	clients *Clients
	cfg     *models.Config
	wait    WaitConfig
	logger  *observability.Logger
}

// New creates a provisioner. cfg must have defaults applied.
func New(clients *Clients, cfg *models.Config, logger *observability.Logger) *Provisioner {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Provisioner{clients: clients, cfg: cfg, wait: DefaultWaitConfig(), logger: logger}
}

// SetWaitConfig replaces the readiness poll bounds.
func (p *Provisioner) SetWaitConfig(cfg WaitConfig) {
	p.wait = cfg
}

// Create ensures the role and the cluster, waits for the cluster and opens
// ingress on the database port. Existing resources are reused.
func (p *Provisioner) Create(ctx context.Context) (*Result, error) {
	logger := p.logger.WithContext(ctx)
	result := &Result{}

	role, err := EnsureRole(ctx, p.clients.IAM, p.cfg.DWH.IAMRoleName)
	if err != nil {
		return result, err
	}
	result.Role = role
	logger.InfoWithFields("iam role ready", map[string]interface{}{
		"role":    role.Name,
		"arn":     role.ARN,
		"outcome": role.Outcome.String(),
	})

	spec := SpecFromModel(p.cfg)
	outcome, err := EnsureCluster(ctx, p.clients.Redshift, spec, role.ARN)
	if err != nil {
		return result, err
	}
	result.Cluster = outcome
	logger.InfoWithFields("cluster requested", map[string]interface{}{
		"cluster": spec.Identifier,
		"outcome": outcome.String(),
	})

	wait := p.wait
	userNotify := wait.Notify
	wait.Notify = func(status string, next time.Duration) {
		logger.Debugf("cluster %s is %s, next check in %s", spec.Identifier, status, next)
		if userNotify != nil {
			userNotify(status, next)
		}
	}
	info, err := WaitAvailable(ctx, p.clients.Redshift, spec.Identifier, wait)
	result.Info = info
	if err != nil {
		return result, err
	}

	ingress, err := OpenIngress(ctx, p.clients.EC2, info.VpcID, p.cfg.Cluster.DBPort, p.cfg.DWH.IngressCIDR)
	if err != nil {
		return result, err
	}
	result.Ingress = ingress
	logger.InfoWithFields("ingress ready", map[string]interface{}{
		"group":   ingress.GroupID,
		"cidr":    ingress.CIDR,
		"port":    ingress.Port,
		"outcome": ingress.Outcome.String(),
	})

	return result, nil
}

// Status describes the configured cluster.
func (p *Provisioner) Status(ctx context.Context) (*ClusterInfo, error) {
	return Describe(ctx, p.clients.Redshift, p.cfg.DWH.ClusterIdentifier)
}

// Teardown removes the role and requests cluster deletion. Resources that
// are already gone are reported, not treated as failures.
func (p *Provisioner) Teardown(ctx context.Context) (*TeardownReport, error) {
	logger := p.logger.WithContext(ctx)
	report := &TeardownReport{}

	roleOutcome, err := RemoveRole(ctx, p.clients.IAM, p.cfg.DWH.IAMRoleName)
	if err != nil {
		return report, err
	}
	report.Role = roleOutcome

	clusterOutcome, err := DeleteCluster(ctx, p.clients.Redshift, p.cfg.DWH.ClusterIdentifier)
	if err != nil {
		return report, err
	}
	report.Cluster = clusterOutcome

	logger.InfoWithFields("teardown requested", map[string]interface{}{
		"role":    roleOutcome.String(),
		"cluster": clusterOutcome.String(),
	})
	return report, nil
}

// RecordEndpoint writes the role ARN and cluster host into the config file.
func RecordEndpoint(path string, result *Result) error {
	if result == nil || result.Role == nil || result.Info == nil {
		return errors.New(errors.ErrCodeInternal, "nothing to record: provisioning did not complete")
	}
	return config.SetValues(path, map[string]map[string]string{
		"IAM_ROLE": {"ARN": result.Role.ARN},
		"CLUSTER":  {"HOST": result.Info.Endpoint},
	})
}

// RecordRole writes the role ARN alone, for a create that failed after the
// role was ensured.
func RecordRole(path string, role *RoleResult) error {
	if role == nil || role.ARN == "" {
		return errors.New(errors.ErrCodeInternal, "nothing to record: no IAM role ARN")
	}
	return config.SetValues(path, map[string]map[string]string{
		"IAM_ROLE": {"ARN": role.ARN},
	})
}

// ClearEndpoint blanks the role ARN and cluster host in the config file.
func ClearEndpoint(path string) error {
	return config.SetValues(path, map[string]map[string]string{
		"IAM_ROLE": {"ARN": ""},
		"CLUSTER":  {"HOST": ""},
	})
}
