// Package config assembles and validates crawl settings gathered from
// flags, environment variables and an optional YAML config file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Defaults applied by Default.
const (
	DefaultManifestName   = "meta.json"
	DefaultManifestFormat = "json"

	// DefaultSettle gives client-side rendering time to finish after a
	// page load.
	DefaultSettle = 10 * time.Second
	// DefaultIframeWait bounds the wait for a configured iframe to
	// appear.
	DefaultIframeWait = 5 * time.Second
	// DefaultDelay spaces successive page visits.
	DefaultDelay = time.Second
	// DefaultTimeout bounds a single fetch or browser operation.
	DefaultTimeout = 30 * time.Second
)

// ErrMissingCredentials means a login URL is configured without a
// complete set of username, password and TOTP secret.
var ErrMissingCredentials = errors.New("login URL configured but credentials are incomplete")

// Login holds authentication settings. Credentials come from the
// environment only, never from flags or the config file.
type Login struct {
	URL            string `mapstructure:"url" yaml:"url" validate:"omitempty,url"`
	UsernameField  string `mapstructure:"username_field" yaml:"username_field"`
	PasswordField  string `mapstructure:"password_field" yaml:"password_field"`
	CodeField      string `mapstructure:"code_field" yaml:"code_field"`
	SubmitSelector string `mapstructure:"submit_selector" yaml:"submit_selector"`
	SuccessKeyword string `mapstructure:"success_keyword" yaml:"success_keyword"`

	Username   string `mapstructure:"-" yaml:"-"`
	Password   string `mapstructure:"-" yaml:"-"`
	TOTPSecret string `mapstructure:"-" yaml:"-"`
}

// Config holds a complete crawl configuration.
type Config struct {
	URL       string `mapstructure:"url" yaml:"url" validate:"required,url"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	ManifestName   string `mapstructure:"manifest" yaml:"manifest" validate:"required"`
	ManifestFormat string `mapstructure:"manifest_format" yaml:"manifest_format" validate:"oneof=json yaml"`

	SinglePage   bool `mapstructure:"single_page" yaml:"single_page"`
	Markdown     bool `mapstructure:"markdown" yaml:"markdown"`
	Anchors      bool `mapstructure:"anchors" yaml:"anchors"`
	AbsoluteURLs bool `mapstructure:"absolute_urls" yaml:"absolute_urls"`

	// IframeSelector switches snapshotting to the document inside the
	// matching iframe, e.g. "iframe#bb-content-frame".
	IframeSelector string `mapstructure:"iframe_selector" yaml:"iframe_selector"`

	// SkipPatterns are substrings; URLs containing any of them are
	// skipped without being visited.
	SkipPatterns []string `mapstructure:"skip_patterns" yaml:"skip_patterns"`

	// MaxPageSize caps downloaded resource size in bytes. Zero means
	// unlimited.
	MaxPageSize uint64 `mapstructure:"max_page_size" yaml:"max_page_size"`

	Settle     time.Duration `mapstructure:"settle" yaml:"settle" validate:"min=0"`
	IframeWait time.Duration `mapstructure:"iframe_wait" yaml:"iframe_wait" validate:"min=0"`
	Delay      time.Duration `mapstructure:"delay" yaml:"delay" validate:"min=0"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=0"`
	UserAgent  string        `mapstructure:"user_agent" yaml:"user_agent"`

	Login Login `mapstructure:"login" yaml:"login"`
}

// Default returns a Config with the standard crawl settings applied.
func Default() *Config {
	return &Config{
		ManifestName:   DefaultManifestName,
		ManifestFormat: DefaultManifestFormat,
		Settle:         DefaultSettle,
		IframeWait:     DefaultIframeWait,
		Delay:          DefaultDelay,
		Timeout:        DefaultTimeout,
	}
}

var validate = validator.New()

// Validate checks the assembled configuration. A configured login URL
// requires a complete credential set; crawling a protected site with
// partial credentials would silently produce login-page snapshots.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("invalid configuration: %s fails %q constraint", f.Namespace(), f.Tag())
		}
		return err
	}
	if c.Login.URL != "" {
		if c.Login.Username == "" || c.Login.Password == "" || c.Login.TOTPSecret == "" {
			return ErrMissingCredentials
		}
	}
	return nil
}

// ExampleYAML is written by "sitesnap config init" as a starting point.
// Credentials are deliberately absent: they are read from the
// SITESNAP_USERNAME, SITESNAP_PASSWORD and SITESNAP_TOTP_SECRET
// environment variables.
const ExampleYAML = `# sitesnap crawl configuration.
#
# Credentials are never read from this file. Set them in the environment:
#   export SITESNAP_USERNAME='your_username'
#   export SITESNAP_PASSWORD='your_password'
#   export SITESNAP_TOTP_SECRET='your_totp_secret'

# Seed URL to crawl.
url: "https://docs.example.org/guide/index.html"

# Directory for snapshots and the manifest. Leave empty to derive
# <host>_<timestamp> from the seed URL.
output_dir: ""

# Manifest file name and format (json or yaml).
manifest: "meta.json"
manifest_format: "json"

# Crawl behavior.
single_page: false
markdown: false
anchors: false
absolute_urls: false

# CSS selector of an iframe to snapshot instead of the main page,
# e.g. "iframe#bb-content-frame". Leave empty to snapshot the page.
iframe_selector: ""

# URLs containing any of these substrings are skipped.
skip_patterns:
  - "dokit-dump"
  - ".rst.txt"

# Politeness and rendering.
settle: 10s
iframe_wait: 5s
delay: 1s
timeout: 30s

# Cap on downloaded resource size in bytes (0 = unlimited).
max_page_size: 0

login:
  # Login page URL; leave empty for sites without authentication.
  url: ""
  username_field: "username"
  password_field: "password"
  code_field: "totp"
  submit_selector: "input[type='submit']"
  success_keyword: "systems-overview"
`
