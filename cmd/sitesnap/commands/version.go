package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/sitesnap/sitesnap/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			out, err := json.MarshalIndent(version.Get(), "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(out))
			return nil
		}
		cmd.Println(version.Full())
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("json", false, "print version information as JSON")

	rootCmd.AddCommand(versionCmd)
}
