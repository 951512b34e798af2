package cmd

import (
	"fmt"
	"strings"

	"dwhctl/internal/config"

	"github.com/spf13/cobra"
)

var encryptBackup bool

var encryptConfigCmd = &cobra.Command{
	Use:   "encrypt-config",
	Short: "Encrypt secrets in the configuration file",
	Long: `Encrypt the plaintext [AWS] SECRET and [CLUSTER] DB_PASSWORD values in place
using AES-256-GCM. Encrypted values are written as ENC[...] and decrypted
when the file is loaded.

The encryption key is derived from:
1. DWH_ENCRYPTION_KEY environment variable (if set)
2. Machine-specific identifier (hostname + home directory)

Values that reference the credential store (@credential:<name>) are left
untouched.`,
	Args: cobra.NoArgs,
	RunE: runEncryptConfig,
}

func init() {
	rootCmd.AddCommand(encryptConfigCmd)
	encryptConfigCmd.Flags().BoolVar(&encryptBackup, "backup", true, "keep a copy of the original file as <config>.bak")
}

func runEncryptConfig(cmd *cobra.Command, args []string) error {
	out := newUI()
	path := configPath()

	out.Info(fmt.Sprintf("Reading configuration from: %s", path))
	changed, err := config.EncryptFile(path, encryptBackup)
	if err != nil {
		return err
	}
	if len(changed) == 0 {
		out.Info("No plaintext secrets found")
		return nil
	}

	if encryptBackup {
		out.Success(fmt.Sprintf("Created backup: %s.bak", path))
	}
	out.Success(fmt.Sprintf("Encrypted %s", strings.Join(changed, ", ")))
	return nil
}
