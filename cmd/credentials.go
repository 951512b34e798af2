package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"dwhctl/internal/config"
	"dwhctl/internal/security"
	"dwhctl/internal/ui"
	"dwhctl/pkg/errors"

	"github.com/spf13/cobra"
)

// openCredentialStore is replaced in tests.
var openCredentialStore = security.NewCredentialStore

var (
	credentialBind  string
	credentialStdin bool
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage secrets kept outside dwh.cfg",
	Long: `Store secrets in the OS keyring, or in encrypted files when no keyring is
available, and reference them from dwh.cfg as @credential:<name>.`,
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Store a secret",
	Example: `  dwhctl credentials set dwh-password --bind CLUSTER.DB_PASSWORD
  echo "$SECRET" | dwhctl credentials set aws-secret --stdin --bind AWS.SECRET`,
	Args: cobra.ExactArgs(1),
	RunE: runCredentialsSet,
}

var credentialsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a stored secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCredentialStore()
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeCredentialLookup, "failed to open credential store")
		}
		if err := store.Delete(args[0]); err != nil {
			return errors.Wrap(err, errors.ErrCodeCredentialLookup, "failed to delete credential").
				WithContext("name", args[0])
		}
		newUI().Success(fmt.Sprintf("Deleted %s", args[0]))
		return nil
	},
}

var credentialsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored secrets (file backend only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCredentialStore()
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeCredentialLookup, "failed to open credential store")
		}
		names, err := store.List()
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeCredentialLookup, "failed to list credentials").
				WithContext("backend", store.Backend())
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(credentialsCmd)
	credentialsCmd.AddCommand(credentialsSetCmd, credentialsDeleteCmd, credentialsListCmd)

	credentialsSetCmd.Flags().StringVar(&credentialBind, "bind", "", "point SECTION.KEY in the config file at the stored secret")
	credentialsSetCmd.Flags().BoolVar(&credentialStdin, "stdin", false, "read the secret from standard input")
}

func runCredentialsSet(cmd *cobra.Command, args []string) error {
	name := args[0]

	var section, key string
	if credentialBind != "" {
		var ok bool
		section, key, ok = strings.Cut(credentialBind, ".")
		if !ok || section == "" || key == "" {
			return errors.ValidationError("bind", credentialBind, "expected SECTION.KEY, e.g. CLUSTER.DB_PASSWORD")
		}
	}

	value, err := readSecret(cmd, name)
	if err != nil {
		return err
	}
	if value == "" {
		return errors.ValidationError("value", "", "secret cannot be empty")
	}

	store, err := openCredentialStore()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCredentialLookup, "failed to open credential store")
	}
	if err := store.Set(name, value); err != nil {
		return errors.Wrap(err, errors.ErrCodeCredentialLookup, "failed to store credential").
			WithContext("name", name).
			WithContext("backend", store.Backend())
	}

	out := newUI()
	out.Success(fmt.Sprintf("Stored %s in %s", name, store.Backend()))

	if section != "" {
		if err := config.BindCredential(configPath(), section, key, name); err != nil {
			return err
		}
		out.Success(fmt.Sprintf("%s.%s now reads %s", section, key, security.Reference(name)))
	}
	return nil
}

func readSecret(cmd *cobra.Command, name string) (string, error) {
	if credentialStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return "", errors.Wrap(err, errors.ErrCodeUserInput, "failed to read secret from stdin")
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	return ui.Password(fmt.Sprintf("Value for %s:", name), "Input is hidden")
}
