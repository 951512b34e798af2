package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"dwhctl/internal/config"
	"dwhctl/internal/provision"
	"dwhctl/internal/ui"
	"dwhctl/pkg/errors"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	clusterOutput    string
	clusterAssumeYes bool
	clusterWait      time.Duration
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Create, inspect and delete the Redshift cluster",
}

var clusterCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the IAM role and the cluster and open the cluster port",
	Long: `Create the IAM role Redshift uses to read S3, request the cluster described
in the [DWH] and [CLUSTER] sections, wait until it is available and allow
TCP traffic to DB_PORT from DWH_INGRESS_CIDR.

Resources that already exist are reused. The role ARN and the cluster
endpoint are written back to [IAM_ROLE] ARN and [CLUSTER] HOST.`,
	Args: cobra.NoArgs,
	RunE: runClusterCreate,
}

var clusterStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the cluster properties",
	Args:  cobra.NoArgs,
	RunE:  runClusterStatus,
}

var clusterDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the cluster and its IAM role",
	Long: `Detach the S3 policy, delete the IAM role, clear [IAM_ROLE] ARN and
[CLUSTER] HOST and delete the cluster without a final snapshot.`,
	Args: cobra.NoArgs,
	RunE: runClusterDelete,
}

func init() {
	rootCmd.AddCommand(clusterCmd)
	clusterCmd.AddCommand(clusterCreateCmd, clusterStatusCmd, clusterDeleteCmd)

	clusterCreateCmd.Flags().DurationVar(&clusterWait, "wait", provision.DefaultWaitConfig().Timeout, "how long to wait for the cluster to become available")
	clusterStatusCmd.Flags().StringVarP(&clusterOutput, "output", "o", "table", "output format: table, yaml or json")
	clusterDeleteCmd.Flags().BoolVarP(&clusterAssumeYes, "yes", "y", false, "delete without asking for confirmation")
}

func newProvisioner(cmd *cobra.Command) (*provision.Provisioner, error) {
	cfg, err := loadConfig(config.ScopeProvision)
	if err != nil {
		return nil, err
	}
	clients, err := provision.NewClients(cmd.Context(), cfg.AWS)
	if err != nil {
		return nil, err
	}
	return provision.New(clients, cfg, logger), nil
}

func runClusterCreate(cmd *cobra.Command, args []string) error {
	out := newUI()
	p, err := newProvisioner(cmd)
	if err != nil {
		return err
	}

	wait := provision.DefaultWaitConfig()
	wait.Timeout = clusterWait
	wait.Notify = func(status string, next time.Duration) {
		out.VerbosePrintf("\ncluster is %s, checking again in %s\n", status, next.Round(time.Second))
	}
	p.SetWaitConfig(wait)

	out.StartProgress("Creating IAM role and cluster")
	result, err := p.Create(cmd.Context())
	out.StopProgress(err == nil, "Cluster available")
	if err != nil {
		if result != nil && result.Role != nil {
			if recordErr := provision.RecordRole(configPath(), result.Role); recordErr != nil {
				logger.Warnf("could not record IAM role ARN: %v", recordErr)
			} else {
				out.Warning(fmt.Sprintf("Wrote IAM_ROLE.ARN to %s; CLUSTER.HOST is unchanged", configPath()))
			}
		}
		return err
	}

	out.Info(fmt.Sprintf("IAM role %s: %s", result.Role.Name, result.Role.Outcome))
	out.Info(fmt.Sprintf("Cluster: %s", result.Cluster))
	out.Info(fmt.Sprintf("Ingress %s on port %d in %s: %s", result.Ingress.CIDR, result.Ingress.Port, result.Ingress.GroupID, result.Ingress.Outcome))

	if err := provision.RecordEndpoint(configPath(), result); err != nil {
		return err
	}
	if !out.IsQuiet() {
		ui.ShowProperties("Cluster", result.Info.Properties())
	}
	out.Success(fmt.Sprintf("Wrote ARN and HOST to %s", configPath()))
	return nil
}

func runClusterStatus(cmd *cobra.Command, args []string) error {
	switch clusterOutput {
	case "table", "yaml", "json":
	default:
		return errors.ValidationError("output", clusterOutput, "must be table, yaml or json")
	}

	p, err := newProvisioner(cmd)
	if err != nil {
		return err
	}
	info, err := p.Status(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch clusterOutput {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case "yaml":
		return yaml.NewEncoder(w).Encode(info)
	default:
		ui.ShowProperties("Cluster", info.Properties())
		return nil
	}
}

func runClusterDelete(cmd *cobra.Command, args []string) error {
	out := newUI()
	p, err := newProvisioner(cmd)
	if err != nil {
		return err
	}

	if !clusterAssumeYes {
		ok, err := ui.Confirm("Delete the cluster and its IAM role? Data in the cluster is lost.", false)
		if err != nil {
			return err
		}
		if !ok {
			out.Info("Nothing deleted")
			return nil
		}
	}

	report, err := p.Teardown(cmd.Context())
	if err != nil {
		return err
	}
	if err := provision.ClearEndpoint(configPath()); err != nil {
		return err
	}

	if report.Role == provision.Absent {
		out.Warning("IAM role was already gone")
	}
	if report.Cluster == provision.Absent {
		out.Warning("Cluster was already gone")
	} else {
		out.Success("Cluster deletion requested; it is removed in a few minutes")
	}
	return nil
}
