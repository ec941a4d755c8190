package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sitesnap/sitesnap/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage sitesnap configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example config file to the current directory",
	Long: `Write a commented sitesnap.yaml to the current directory as a
starting point. Credentials are never stored in the file; set
SITESNAP_USERNAME, SITESNAP_PASSWORD and SITESNAP_TOTP_SECRET in the
environment instead.`,
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	const path = "sitesnap.yaml"

	force, _ := cmd.Flags().GetBool("force")
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := os.WriteFile(path, []byte(config.ExampleYAML), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	cmd.Printf("Wrote %s\n", path)
	return nil
}
