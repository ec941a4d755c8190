package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sitesnap/sitesnap/internal/browser"
)

// fakePage is one page of a scripted login flow. Clicking any element
// on it advances the driver to next.
type fakePage struct {
	url      string
	elements []browser.Locator
	next     *fakePage
}

type typedEntry struct {
	loc  browser.Locator
	text string
}

type fakeDriver struct {
	pages   map[string]*fakePage
	current *fakePage

	navigated []string
	typed     []typedEntry
	clicked   []browser.Locator
	waits     []time.Duration
}

func (d *fakeDriver) Navigate(_ context.Context, url string, _ time.Duration) error {
	d.navigated = append(d.navigated, url)
	if p, ok := d.pages[url]; ok {
		d.current = p
	} else {
		d.current = &fakePage{url: url}
	}
	return nil
}

func (d *fakeDriver) FindFirst(_ context.Context, locators []browser.Locator, wait time.Duration) (browser.Locator, bool) {
	d.waits = append(d.waits, wait)
	if d.current == nil {
		return browser.Locator{}, false
	}
	for _, want := range locators {
		for _, have := range d.current.elements {
			if want == have {
				return want, true
			}
		}
	}
	return browser.Locator{}, false
}

func (d *fakeDriver) Type(_ context.Context, loc browser.Locator, text string) error {
	d.typed = append(d.typed, typedEntry{loc, text})
	return nil
}

func (d *fakeDriver) Click(_ context.Context, loc browser.Locator) error {
	d.clicked = append(d.clicked, loc)
	if d.current != nil && d.current.next != nil {
		d.current = d.current.next
	}
	return nil
}

func (d *fakeDriver) Location(_ context.Context) (string, error) {
	if d.current == nil {
		return "", nil
	}
	return d.current.url, nil
}

func (d *fakeDriver) FormElements(_ context.Context) ([]browser.FormElement, error) {
	return nil, nil
}

// noSettle removes the fixed pauses so tests run instantly.
func noSettle(a *Authenticator) {
	a.loginSettle = 0
	a.submitSettle = 0
	a.verdictSettle = 0
}

const testSecret = "JBSWY3DPEHPK3PXP"

func TestAuthenticator_Ensure_NoLoginURL(t *testing.T) {
	d := &fakeDriver{}
	a := New(d, Config{})
	noSettle(a)

	if err := a.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure() error = %v, want nil", err)
	}
	if a.State() != StateAuthenticated {
		t.Errorf("State() = %v, want %v", a.State(), StateAuthenticated)
	}
	if len(d.navigated) != 0 {
		t.Errorf("navigated %d times, want 0", len(d.navigated))
	}
}

func TestAuthenticator_Ensure_MissingCredentials(t *testing.T) {
	d := &fakeDriver{}
	a := New(d, Config{LoginURL: "https://site.example/login", Username: "alice"})
	noSettle(a)

	err := a.Ensure(context.Background())
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("Ensure() error = %v, want ErrMissingCredentials", err)
	}
	if a.State() != StateFailed {
		t.Errorf("State() = %v, want %v", a.State(), StateFailed)
	}
}

func TestAuthenticator_Ensure_SinglePageForm(t *testing.T) {
	login := &fakePage{
		url: "https://site.example/login",
		elements: []browser.Locator{
			{By: browser.ByName, Value: "username"},
			{By: browser.ByName, Value: "password"},
			{By: browser.ByName, Value: "totp"},
			{By: browser.ByCSS, Value: `input[type='submit']`},
		},
		next: &fakePage{url: "https://site.example/dashboard"},
	}
	d := &fakeDriver{pages: map[string]*fakePage{login.url: login}}

	a := New(d, Config{
		LoginURL:   login.url,
		Username:   "alice",
		Password:   "hunter2",
		TOTPSecret: testSecret,
	})
	noSettle(a)

	if err := a.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if a.State() != StateAuthenticated {
		t.Errorf("State() = %v, want %v", a.State(), StateAuthenticated)
	}
	if len(d.typed) != 3 {
		t.Fatalf("typed %d fields, want 3", len(d.typed))
	}
	if d.typed[0].text != "alice" {
		t.Errorf("typed username = %q, want %q", d.typed[0].text, "alice")
	}
	if d.typed[1].text != "hunter2" {
		t.Errorf("typed password = %q, want %q", d.typed[1].text, "hunter2")
	}
	if len(d.typed[2].text) != 6 {
		t.Errorf("one-time code = %q, want 6 digits", d.typed[2].text)
	}
	if len(d.clicked) != 1 {
		t.Errorf("clicked %d buttons, want 1", len(d.clicked))
	}
	if d.waits[0] != fieldWait {
		t.Errorf("username probe wait = %v, want %v", d.waits[0], fieldWait)
	}
	if d.waits[1] != 0 {
		t.Errorf("password probe wait = %v, want 0", d.waits[1])
	}
}

func TestAuthenticator_Ensure_TwoStepForm(t *testing.T) {
	home := &fakePage{url: "https://site.example/home"}
	codePage := &fakePage{
		url: "https://site.example/2fa",
		elements: []browser.Locator{
			{By: browser.ByName, Value: "code"},
			{By: browser.ByButtonText, Value: "Verify"},
		},
		next: home,
	}
	login := &fakePage{
		url: "https://site.example/login",
		elements: []browser.Locator{
			{By: browser.ByID, Value: "email"},
			{By: browser.ByCSS, Value: `input[type="password"]`},
			{By: browser.ByButtonText, Value: "Sign in"},
		},
		next: codePage,
	}
	d := &fakeDriver{pages: map[string]*fakePage{login.url: login}}

	a := New(d, Config{
		LoginURL:   login.url,
		Username:   "alice",
		Password:   "hunter2",
		TOTPSecret: testSecret,
	})
	noSettle(a)

	if err := a.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if len(d.clicked) != 2 {
		t.Fatalf("clicked %d buttons, want 2", len(d.clicked))
	}
	if d.clicked[0] != (browser.Locator{By: browser.ByButtonText, Value: "Sign in"}) {
		t.Errorf("first click = %v, want Sign in button", d.clicked[0])
	}
	if d.clicked[1] != (browser.Locator{By: browser.ByButtonText, Value: "Verify"}) {
		t.Errorf("final click = %v, want Verify button", d.clicked[1])
	}
	codeLoc := browser.Locator{By: browser.ByName, Value: "code"}
	if d.typed[2].loc != codeLoc {
		t.Errorf("code typed into %v, want %v", d.typed[2].loc, codeLoc)
	}
	// The retry after the first submit gets the bounded wait.
	if d.waits[4] != fieldWait {
		t.Errorf("code retry wait = %v, want %v", d.waits[4], fieldWait)
	}
}

func TestAuthenticator_Ensure_NoUsernameField(t *testing.T) {
	login := &fakePage{url: "https://site.example/login"}
	d := &fakeDriver{pages: map[string]*fakePage{login.url: login}}

	a := New(d, Config{
		LoginURL:   login.url,
		Username:   "alice",
		Password:   "hunter2",
		TOTPSecret: testSecret,
	})
	noSettle(a)

	if err := a.Ensure(context.Background()); !errors.Is(err, ErrNoUsernameField) {
		t.Fatalf("Ensure() error = %v, want ErrNoUsernameField", err)
	}
	if a.State() != StateFailed {
		t.Errorf("State() = %v, want %v", a.State(), StateFailed)
	}
}

func TestAuthenticator_Ensure_NoSubmitButtonOnTwoStep(t *testing.T) {
	login := &fakePage{
		url: "https://site.example/login",
		elements: []browser.Locator{
			{By: browser.ByName, Value: "username"},
			{By: browser.ByName, Value: "password"},
		},
	}
	d := &fakeDriver{pages: map[string]*fakePage{login.url: login}}

	a := New(d, Config{
		LoginURL:   login.url,
		Username:   "alice",
		Password:   "hunter2",
		TOTPSecret: testSecret,
	})
	noSettle(a)

	if err := a.Ensure(context.Background()); !errors.Is(err, ErrNoSubmitButton) {
		t.Fatalf("Ensure() error = %v, want ErrNoSubmitButton", err)
	}
}

func TestAuthenticator_Ensure_MissingFinalSubmitTolerated(t *testing.T) {
	login := &fakePage{
		url: "https://site.example/setup",
		elements: []browser.Locator{
			{By: browser.ByName, Value: "username"},
			{By: browser.ByName, Value: "password"},
			{By: browser.ByName, Value: "totp"},
		},
	}
	d := &fakeDriver{pages: map[string]*fakePage{login.url: login}}

	a := New(d, Config{
		LoginURL:   login.url,
		Username:   "alice",
		Password:   "hunter2",
		TOTPSecret: testSecret,
	})
	noSettle(a)

	if err := a.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if len(d.clicked) != 0 {
		t.Errorf("clicked %d buttons, want 0", len(d.clicked))
	}
	if a.State() != StateAuthenticated {
		t.Errorf("State() = %v, want %v", a.State(), StateAuthenticated)
	}
}

func TestAuthenticator_Ensure_LoginRejected(t *testing.T) {
	login := &fakePage{
		url: "https://site.example/login",
		elements: []browser.Locator{
			{By: browser.ByName, Value: "username"},
			{By: browser.ByName, Value: "password"},
			{By: browser.ByName, Value: "totp"},
			{By: browser.ByCSS, Value: `input[type='submit']`},
		},
		next: &fakePage{url: "https://site.example/login?error=bad_code"},
	}
	d := &fakeDriver{pages: map[string]*fakePage{login.url: login}}

	a := New(d, Config{
		LoginURL:   login.url,
		Username:   "alice",
		Password:   "hunter2",
		TOTPSecret: testSecret,
	})
	noSettle(a)

	if err := a.Ensure(context.Background()); !errors.Is(err, ErrLoginRejected) {
		t.Fatalf("Ensure() error = %v, want ErrLoginRejected", err)
	}
	if a.State() != StateFailed {
		t.Errorf("State() = %v, want %v", a.State(), StateFailed)
	}
}

func TestAuthenticator_Ensure_RunsOnce(t *testing.T) {
	login := &fakePage{url: "https://site.example/login"}
	d := &fakeDriver{pages: map[string]*fakePage{login.url: login}}

	a := New(d, Config{
		LoginURL:   login.url,
		Username:   "alice",
		Password:   "hunter2",
		TOTPSecret: testSecret,
	})
	noSettle(a)

	first := a.Ensure(context.Background())
	second := a.Ensure(context.Background())
	if !errors.Is(second, ErrNoUsernameField) {
		t.Errorf("second Ensure() error = %v, want ErrNoUsernameField", second)
	}
	if first != second {
		t.Errorf("Ensure() outcomes differ: %v vs %v", first, second)
	}
	if len(d.navigated) != 1 {
		t.Errorf("navigated %d times, want 1", len(d.navigated))
	}
}

func TestLoginSucceeded(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		keyword string
		want    bool
	}{
		{"dashboard", "https://x.example/dashboard", "", true},
		{"overview with keyword", "https://systems-overview.example/page", "systems-overview", true},
		{"overview under auth path", "https://x.example/auth/overview", "systems-overview", false},
		{"profile", "https://x.example/profile", "", true},
		{"home", "https://x.example/home", "", true},
		{"neutral url", "https://x.example/welcome", "", true},
		{"still on login", "https://x.example/login?err=1", "", false},
		{"auth path", "https://x.example/auth/verify", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := loginSucceeded(tt.url, tt.keyword); got != tt.want {
				t.Errorf("loginSucceeded(%q, %q) = %v, want %v", tt.url, tt.keyword, got, tt.want)
			}
		})
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateNotStarted, "not-started"},
		{StateAwaitingUsername, "awaiting-username"},
		{StateAwaitingPassword, "awaiting-password"},
		{StateAwaitingCode, "awaiting-code"},
		{StateSubmitted, "submitted"},
		{StateAuthenticated, "authenticated"},
		{StateFailed, "failed"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	a := New(&fakeDriver{}, Config{})
	if a.cfg.UsernameField != DefaultUsernameField {
		t.Errorf("UsernameField = %q, want %q", a.cfg.UsernameField, DefaultUsernameField)
	}
	if a.cfg.PasswordField != DefaultPasswordField {
		t.Errorf("PasswordField = %q, want %q", a.cfg.PasswordField, DefaultPasswordField)
	}
	if a.cfg.CodeField != DefaultCodeField {
		t.Errorf("CodeField = %q, want %q", a.cfg.CodeField, DefaultCodeField)
	}
	if a.cfg.SubmitSelector != DefaultSubmitSelector {
		t.Errorf("SubmitSelector = %q, want %q", a.cfg.SubmitSelector, DefaultSubmitSelector)
	}
}
