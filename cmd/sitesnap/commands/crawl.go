package commands

import (
	"context"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sitesnap/sitesnap/internal/auth"
	"github.com/sitesnap/sitesnap/internal/browser"
	"github.com/sitesnap/sitesnap/internal/config"
	"github.com/sitesnap/sitesnap/internal/crawler"
	"github.com/sitesnap/sitesnap/internal/fetch"
	"github.com/sitesnap/sitesnap/internal/logger"
	"github.com/sitesnap/sitesnap/internal/manifest"
	"github.com/sitesnap/sitesnap/internal/naming"
	"github.com/sitesnap/sitesnap/internal/output"
	"github.com/sitesnap/sitesnap/pkg/cleaner"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl a site and snapshot every page it links to",
	Long: `Crawl a site depth-first from one or more seed URLs, saving each
rendered page under <output-dir>/data and writing a manifest that
describes every snapshot.

Only URLs under the seed's scheme and host are followed. Pages are
deduplicated by content, so mirrored URLs yield a single snapshot.

Examples:
  # Basic crawl
  sitesnap crawl -u "https://docs.example.org/guide/index.html"

  # Markdown snapshots, anchor sections saved as separate files
  sitesnap crawl -u "https://docs.example.org/" --markdown --anchors

  # Skip noisy URLs and cap resource size
  sitesnap crawl -u "https://docs.example.org/" \
      --skip "dokit-dump" --skip ".rst.txt" --max-page-size 4MB

  # Authenticated crawl (set SITESNAP_USERNAME, SITESNAP_PASSWORD and
  # SITESNAP_TOTP_SECRET in the environment first)
  sitesnap crawl -u "https://intranet.example.org/" \
      --login-url "https://idp.example.org/login" --success-keyword "dashboard"`,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	flags := crawlCmd.Flags()

	// Seed URLs
	flags.StringSliceP("url", "u", nil, "seed URL(s) to crawl (can be repeated)")

	// Output settings
	flags.StringP("output-dir", "o", "", "output directory (default: <host>_<timestamp>)")
	flags.String("manifest", config.DefaultManifestName, "manifest file name")
	flags.String("manifest-format", config.DefaultManifestFormat, "manifest format: json, yaml")

	// Snapshot behavior
	flags.Bool("single-page", false, "snapshot only the seed page, follow no links")
	flags.Bool("markdown", false, "convert page snapshots to Markdown")
	flags.Bool("anchors", false, "save linked fragment sections as separate snapshots")
	flags.Bool("absolute-urls", false, "rewrite relative href/src references to absolute URLs")
	flags.String("iframe", "", "CSS selector of an iframe to snapshot instead of the page")

	// Crawl limits and politeness
	flags.StringSlice("skip", nil, "skip URLs containing this substring (can be repeated)")
	flags.String("max-page-size", "0", "per-resource size cap (e.g. 4MB, 0=unlimited)")
	flags.Duration("settle", config.DefaultSettle, "wait after navigation for client-side rendering")
	flags.Duration("delay", config.DefaultDelay, "minimum spacing between page visits")
	flags.Duration("timeout", config.DefaultTimeout, "browser and download timeout")
	flags.String("user-agent", "", "User-Agent header (default: sitesnap UA)")

	// Login flow; credentials come from the environment, never flags
	flags.String("login-url", "", "login page URL")
	flags.String("username-field", "", "name of the username input field")
	flags.String("password-field", "", "name of the password input field")
	flags.String("code-field", "", "name of the one-time code input field")
	flags.String("submit-selector", "", "CSS selector for the submit control")
	flags.String("success-keyword", "", "URL substring that marks login success")

	// Bind to viper so the config file and environment fill unset flags
	_ = viper.BindPFlag("output_dir", flags.Lookup("output-dir"))
	_ = viper.BindPFlag("manifest", flags.Lookup("manifest"))
	_ = viper.BindPFlag("manifest_format", flags.Lookup("manifest-format"))
	_ = viper.BindPFlag("single_page", flags.Lookup("single-page"))
	_ = viper.BindPFlag("markdown", flags.Lookup("markdown"))
	_ = viper.BindPFlag("anchors", flags.Lookup("anchors"))
	_ = viper.BindPFlag("absolute_urls", flags.Lookup("absolute-urls"))
	_ = viper.BindPFlag("iframe_selector", flags.Lookup("iframe"))
	_ = viper.BindPFlag("settle", flags.Lookup("settle"))
	_ = viper.BindPFlag("delay", flags.Lookup("delay"))
	_ = viper.BindPFlag("timeout", flags.Lookup("timeout"))
	_ = viper.BindPFlag("user_agent", flags.Lookup("user-agent"))
	_ = viper.BindPFlag("login.url", flags.Lookup("login-url"))
	_ = viper.BindPFlag("login.username_field", flags.Lookup("username-field"))
	_ = viper.BindPFlag("login.password_field", flags.Lookup("password-field"))
	_ = viper.BindPFlag("login.code_field", flags.Lookup("code-field"))
	_ = viper.BindPFlag("login.submit_selector", flags.Lookup("submit-selector"))
	_ = viper.BindPFlag("login.success_keyword", flags.Lookup("success-keyword"))
}

func runCrawl(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("log_json"),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if file := viper.ConfigFileUsed(); file != "" {
		logger.Debug("using config file", "path", file)
	}

	cfg := config.Default()
	if err := viper.Unmarshal(cfg); err != nil {
		logger.Error("failed to load configuration", "error", err)
		return err
	}

	// Credentials never pass through flags or the config struct.
	cfg.Login.Username = viper.GetString("login.username")
	cfg.Login.Password = viper.GetString("login.password")
	cfg.Login.TOTPSecret = viper.GetString("login.totp_secret")

	seeds, _ := cmd.Flags().GetStringSlice("url")
	if len(seeds) == 0 && cfg.URL != "" {
		seeds = []string{cfg.URL}
	}
	if len(seeds) == 0 {
		return cmd.Help()
	}
	cfg.URL = seeds[0]

	if cmd.Flags().Changed("skip") {
		cfg.SkipPatterns, _ = cmd.Flags().GetStringSlice("skip")
	}

	// The size cap flag takes human-readable values like 4MB.
	if cmd.Flags().Changed("max-page-size") {
		sizeStr, _ := cmd.Flags().GetString("max-page-size")
		cfg.MaxPageSize = 0
		if strings.TrimSpace(sizeStr) != "" && sizeStr != "0" {
			bytes, err := humanize.ParseBytes(sizeStr)
			if err != nil {
				logger.Error("invalid max-page-size", "value", sizeStr, "error", err)
				return err
			}
			cfg.MaxPageSize = bytes
		}
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}
	for _, seed := range seeds[1:] {
		if _, err := crawler.NewScope(seed); err != nil {
			logger.Error("invalid seed URL", "error", err)
			return err
		}
	}

	if cfg.OutputDir == "" {
		u, err := url.Parse(cfg.URL)
		if err != nil {
			return err
		}
		cfg.OutputDir = naming.OutputDirName(u, time.Now())
	}
	logger.Debug("crawl configured", "seeds", len(seeds), "output_dir", cfg.OutputDir)

	session, err := browser.NewSession(ctx, browser.Options{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		logger.Error("failed to start browser", "error", err)
		return err
	}
	defer func() { _ = session.Close() }()

	authenticator := auth.New(session, auth.Config{
		LoginURL:       cfg.Login.URL,
		Username:       cfg.Login.Username,
		Password:       cfg.Login.Password,
		TOTPSecret:     cfg.Login.TOTPSecret,
		UsernameField:  cfg.Login.UsernameField,
		PasswordField:  cfg.Login.PasswordField,
		CodeField:      cfg.Login.CodeField,
		SubmitSelector: cfg.Login.SubmitSelector,
		SuccessKeyword: cfg.Login.SuccessKeyword,
	})

	// Binary downloads bypass the browser. The crawler applies the size
	// cap after download, so oversized files are skipped whole rather
	// than stored truncated.
	downloader := fetch.New(fetch.Config{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
	})

	var cl cleaner.Cleaner
	if cfg.Markdown {
		cl = cleaner.NewMarkdown()
	} else {
		cl = cleaner.NewNoop()
	}

	cr := crawler.New(session, downloader, authenticator, cl, crawler.Config{
		OutputDir:      cfg.OutputDir,
		SinglePage:     cfg.SinglePage,
		Markdown:       cfg.Markdown,
		Anchors:        cfg.Anchors,
		AbsoluteURLs:   cfg.AbsoluteURLs,
		IframeSelector: cfg.IframeSelector,
		SkipPatterns:   cfg.SkipPatterns,
		MaxPageSize:    int64(cfg.MaxPageSize),
		Settle:         cfg.Settle,
		IframeWait:     cfg.IframeWait,
		Delay:          cfg.Delay,
	})

	var records []manifest.Record
	var crawlErr error
	for _, seed := range seeds {
		// Run accumulates records and visited URLs across seeds.
		records, crawlErr = cr.Run(ctx, seed)
		if crawlErr != nil {
			logger.Error("crawl aborted", "seed", seed, "error", crawlErr)
			break
		}
	}

	// An interrupted crawl still gets a manifest for what it saved.
	if crawlErr == nil || len(records) > 0 {
		if err := writeManifest(cfg, records); err != nil {
			logger.Error("failed to write manifest", "error", err)
			return err
		}
	}

	return crawlErr
}

func writeManifest(cfg *config.Config, records []manifest.Record) error {
	path := filepath.Join(cfg.OutputDir, cfg.ManifestName)

	f, err := os.Create(path) //#nosec G304 -- CLI tool writes into the user-chosen output dir
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	writer, err := output.NewWriter(f, output.Format(cfg.ManifestFormat), output.WithIndent("    "))
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := writer.Write(rec); err != nil {
			return err
		}
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	logger.Info("manifest written", "path", path, "records", len(records))
	return nil
}
