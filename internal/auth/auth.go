// Package auth drives a username/password/one-time-code login form
// through a headless browser session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/sitesnap/sitesnap/internal/browser"
	"github.com/sitesnap/sitesnap/internal/logger"
)

// Default form field names and selectors, tried ahead of the generic
// fallbacks.
const (
	DefaultUsernameField  = "username"
	DefaultPasswordField  = "password"
	DefaultCodeField      = "totp"
	DefaultSubmitSelector = `input[type='submit']`
	DefaultSuccessKeyword = "systems-overview"
)

const (
	// loginSettle lets the login page finish rendering before field
	// discovery starts.
	loginSettle = 3 * time.Second
	// submitSettle covers the redirect after submitting credentials on
	// a two-step form.
	submitSettle = 3 * time.Second
	// verdictSettle covers the redirect after the final submit, before
	// the URL is inspected.
	verdictSettle = 5 * time.Second
	// fieldWait bounds the polling search for fields that may appear
	// asynchronously.
	fieldWait = 15 * time.Second
)

var (
	// ErrMissingCredentials means a login URL was configured without a
	// full set of username, password and TOTP secret.
	ErrMissingCredentials = errors.New("missing credentials")
	ErrNoUsernameField    = errors.New("username field not found")
	ErrNoPasswordField    = errors.New("password field not found")
	ErrNoCodeField        = errors.New("one-time code field not found")
	ErrNoSubmitButton     = errors.New("submit button not found")
	// ErrLoginRejected means the post-login URL matched no success
	// marker.
	ErrLoginRejected = errors.New("post-login URL does not look authenticated")
)

// State tracks progress through the login flow.
type State int

const (
	StateNotStarted State = iota
	StateAwaitingUsername
	StateAwaitingPassword
	StateAwaitingCode
	StateSubmitted
	StateAuthenticated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateAwaitingUsername:
		return "awaiting-username"
	case StateAwaitingPassword:
		return "awaiting-password"
	case StateAwaitingCode:
		return "awaiting-code"
	case StateSubmitted:
		return "submitted"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Driver is the subset of browser.Session the login flow needs.
type Driver interface {
	Navigate(ctx context.Context, url string, settle time.Duration) error
	FindFirst(ctx context.Context, locators []browser.Locator, wait time.Duration) (browser.Locator, bool)
	Type(ctx context.Context, loc browser.Locator, text string) error
	Click(ctx context.Context, loc browser.Locator) error
	Location(ctx context.Context) (string, error)
	FormElements(ctx context.Context) ([]browser.FormElement, error)
}

// Config holds login settings. An empty LoginURL means the site needs
// no authentication.
type Config struct {
	LoginURL   string
	Username   string
	Password   string
	TOTPSecret string

	// UsernameField, PasswordField and CodeField are form field names
	// tried first, ahead of the generic fallbacks.
	UsernameField string
	PasswordField string
	CodeField     string
	// SubmitSelector is the CSS selector tried first when looking for
	// submit buttons.
	SubmitSelector string
	// SuccessKeyword marks a post-login URL as authenticated when it
	// appears together with "overview".
	SuccessKeyword string
}

// Authenticator runs the login flow at most once per crawl run and
// caches the outcome.
type Authenticator struct {
	cfg    Config
	driver Driver

	loginSettle   time.Duration
	submitSettle  time.Duration
	verdictSettle time.Duration
	fieldWait     time.Duration

	state State
	err   error
	done  bool
}

// New returns an Authenticator for cfg driving d. Empty field names
// and selectors fall back to the defaults.
func New(d Driver, cfg Config) *Authenticator {
	if cfg.UsernameField == "" {
		cfg.UsernameField = DefaultUsernameField
	}
	if cfg.PasswordField == "" {
		cfg.PasswordField = DefaultPasswordField
	}
	if cfg.CodeField == "" {
		cfg.CodeField = DefaultCodeField
	}
	if cfg.SubmitSelector == "" {
		cfg.SubmitSelector = DefaultSubmitSelector
	}
	return &Authenticator{
		cfg:           cfg,
		driver:        d,
		loginSettle:   loginSettle,
		submitSettle:  submitSettle,
		verdictSettle: verdictSettle,
		fieldWait:     fieldWait,
		state:         StateNotStarted,
	}
}

// State reports the authenticator's current state.
func (a *Authenticator) State() State { return a.state }

// Ensure runs the login flow if it has not run yet. Repeat calls return
// the first outcome. A nil error means the session is authenticated or
// the site needs no login; callers are expected to log a failure and
// continue unauthenticated.
func (a *Authenticator) Ensure(ctx context.Context) error {
	if a.done {
		return a.err
	}
	a.done = true
	a.err = a.login(ctx)
	if a.err != nil {
		a.state = StateFailed
	}
	return a.err
}

func (a *Authenticator) login(ctx context.Context) error {
	if a.cfg.LoginURL == "" {
		logger.Debug("no login URL configured, skipping authentication")
		a.state = StateAuthenticated
		return nil
	}
	if a.cfg.Username == "" || a.cfg.Password == "" || a.cfg.TOTPSecret == "" {
		return ErrMissingCredentials
	}

	logger.Info("authenticating", "url", a.cfg.LoginURL)
	a.state = StateAwaitingUsername
	if err := a.driver.Navigate(ctx, a.cfg.LoginURL, a.loginSettle); err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}
	a.dumpForm(ctx, "login page")

	loc, ok := a.driver.FindFirst(ctx, usernameLocators(a.cfg.UsernameField), a.fieldWait)
	if !ok {
		return ErrNoUsernameField
	}
	if err := a.driver.Type(ctx, loc, a.cfg.Username); err != nil {
		return err
	}
	logger.Debug("entered username", "locator", loc.String())

	a.state = StateAwaitingPassword
	loc, ok = a.driver.FindFirst(ctx, passwordLocators(a.cfg.PasswordField), 0)
	if !ok {
		return ErrNoPasswordField
	}
	if err := a.driver.Type(ctx, loc, a.cfg.Password); err != nil {
		return err
	}
	logger.Debug("entered password", "locator", loc.String())

	code, err := totp.GenerateCode(a.cfg.TOTPSecret, time.Now())
	if err != nil {
		return fmt.Errorf("failed to generate one-time code: %w", err)
	}

	a.state = StateAwaitingCode
	codeLoc, ok := a.driver.FindFirst(ctx, codeLocators(a.cfg.CodeField), 0)
	if !ok {
		// Two-step form: submit the credentials, then look for the code
		// field on the page that follows.
		logger.Debug("one-time code field not on login page, submitting credentials first")
		submit, ok := a.driver.FindFirst(ctx, submitLocators(a.cfg.SubmitSelector, false), 0)
		if !ok {
			return ErrNoSubmitButton
		}
		if err := a.driver.Click(ctx, submit); err != nil {
			return err
		}
		a.pause(ctx, a.submitSettle)
		a.dumpForm(ctx, "after first submit")

		codeLoc, ok = a.driver.FindFirst(ctx, codeLocators(a.cfg.CodeField), a.fieldWait)
		if !ok {
			return ErrNoCodeField
		}
	}
	if err := a.driver.Type(ctx, codeLoc, code); err != nil {
		return err
	}
	logger.Debug("entered one-time code", "locator", codeLoc.String())

	a.state = StateSubmitted
	if submit, ok := a.driver.FindFirst(ctx, submitLocators(a.cfg.SubmitSelector, true), 0); ok {
		if err := a.driver.Click(ctx, submit); err != nil {
			return err
		}
	} else {
		logger.Warn("no final submit button found, authentication may be incomplete")
	}
	a.pause(ctx, a.verdictSettle)

	url, err := a.driver.Location(ctx)
	if err != nil {
		return fmt.Errorf("failed to read post-login URL: %w", err)
	}
	logger.Debug("post-login URL", "url", url)
	if !loginSucceeded(url, a.cfg.SuccessKeyword) {
		return fmt.Errorf("%w: %s", ErrLoginRejected, url)
	}

	a.state = StateAuthenticated
	logger.Info("authentication successful")
	return nil
}

func (a *Authenticator) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// dumpForm logs the form controls on the current page to help diagnose
// selector mismatches on unfamiliar login forms.
func (a *Authenticator) dumpForm(ctx context.Context, stage string) {
	elements, err := a.driver.FormElements(ctx)
	if err != nil {
		logger.Debug("failed to inspect form elements", "stage", stage, "error", err)
		return
	}
	for _, el := range elements {
		logger.Debug("form element", "stage", stage, "kind", el.Kind, "type", el.Type,
			"name", el.Name, "id", el.ID, "placeholder", el.Placeholder, "text", el.Text)
	}
}

// loginSucceeded applies URL heuristics deciding whether the browser
// landed on an authenticated page. keyword is a site-specific marker
// that, combined with "overview", counts as success. The check is
// approximate: a URL free of "login" and "auth" passes even without a
// positive marker.
func loginSucceeded(url, keyword string) bool {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "dashboard"):
		return true
	case keyword != "" && strings.Contains(lower, "overview") && strings.Contains(url, keyword):
		return true
	case strings.Contains(lower, "profile"):
		return true
	case strings.Contains(lower, "home"):
		return true
	}
	return !strings.Contains(lower, "login") && !strings.Contains(lower, "auth")
}
