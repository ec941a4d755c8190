// Package commands implements the CLI commands for sitesnap.
package commands

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "sitesnap",
	Short: "Browser-driven site crawler that snapshots rendered pages",
	Long: `Sitesnap crawls a site with a headless browser and saves every page
it reaches, together with a manifest describing each snapshot.

Pages are rendered before capture, so JavaScript-built content is
included. Sites behind a username/password/TOTP login are supported;
credentials come from the environment, never from flags.

Examples:
  # Snapshot a documentation site
  sitesnap crawl -u "https://docs.example.org/guide/index.html"

  # Markdown snapshots with anchor sections saved separately
  sitesnap crawl -u "https://docs.example.org/" --markdown --anchors

  # Crawl a site behind a TOTP login
  export SITESNAP_USERNAME='user' SITESNAP_PASSWORD='pass' SITESNAP_TOTP_SECRET='secret'
  sitesnap crawl -u "https://intranet.example.org/" \
      --login-url "https://idp.example.org/login" --success-keyword "dashboard"

  # Snapshot the document inside an embedded iframe
  sitesnap crawl -u "https://example.org/page" --iframe "iframe#bb-content-frame"`,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default sitesnap.yaml in $XDG_CONFIG_HOME/sitesnap, $HOME or .)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().Bool("log-json", false, "emit logs as JSON")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(filepath.Join(xdg.ConfigHome, "sitesnap"))
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("sitesnap")
		viper.SetConfigType("yaml")
	}

	// Environment variables: SITESNAP_OUTPUT_DIR, SITESNAP_LOGIN_URL, ...
	viper.SetEnvPrefix("SITESNAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Credentials come from the environment only. The SCRAPER_* names
	// are still honored so existing setups keep working.
	_ = viper.BindEnv("login.username", "SITESNAP_USERNAME", "SCRAPER_USERNAME")
	_ = viper.BindEnv("login.password", "SITESNAP_PASSWORD", "SCRAPER_PASSWORD")
	_ = viper.BindEnv("login.totp_secret", "SITESNAP_TOTP_SECRET", "SCRAPER_TOTP_SECRET")

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
