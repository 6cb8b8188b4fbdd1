package scraper

import (
	"context"
	"regexp"
	"time"

	"sjsage522/portalevents/internal/browser"
	"sjsage522/portalevents/internal/selectors"
	"sjsage522/portalevents/logger"
	apperrors "sjsage522/portalevents/pkg/errors"
)

// AuthState is a step of the login sequence
type AuthState int

const (
	StateStart AuthState = iota
	StateEmailFilled
	StateEmailSubmitted
	StatePasswordFilled
	StateSubmitted
	StateAuthenticated
	StateFailed
)

var authStateNames = [...]string{
	StateStart:          "start",
	StateEmailFilled:    "email-filled",
	StateEmailSubmitted: "email-submitted",
	StatePasswordFilled: "password-filled",
	StateSubmitted:      "submitted",
	StateAuthenticated:  "authenticated",
	StateFailed:         "failed",
}

func (s AuthState) String() string {
	if s < 0 || int(s) >= len(authStateNames) {
		return "unknown"
	}
	return authStateNames[s]
}

// Credentials are held for one run only. String redacts both fields so an accidental
// %v in a log line leaks nothing.
type Credentials struct {
	Email    string
	Password string
}

func (c Credentials) String() string {
	return "Credentials{redacted}"
}

// GoString redacts %#v as well
func (c Credentials) GoString() string {
	return c.String()
}

// AuthConfig holds the login timings
type AuthConfig struct {
	// StepTimeout bounds each locate-and-act step
	StepTimeout time.Duration
	// SubmitPause is waited after the final click before watching the location
	SubmitPause time.Duration
	// NavTimeout bounds the wait for the page to leave the login URL
	NavTimeout time.Duration
	// PollInterval is how often the location is checked
	PollInterval time.Duration
}

// DefaultAuthConfig mirrors the portal's observed login timings
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		StepTimeout:  8 * time.Second,
		SubmitPause:  time.Second,
		NavTimeout:   15 * time.Second,
		PollInterval: 250 * time.Millisecond,
	}
}

var loginPagePattern = regexp.MustCompile(`(?i)/login(?:$|[?#])`)

// IsLoginPage reports whether url still points at the login page
func IsLoginPage(url string) bool {
	return loginPagePattern.MatchString(url)
}

// authStep is one locate-and-act transition
type authStep struct {
	to       AuthState
	selector string
	reason   string
	act      func(ctx context.Context, page browser.Page, el browser.Element, creds Credentials) error
}

var authSteps = []authStep{
	{
		to:       StateEmailFilled,
		selector: selectors.EmailInput,
		reason:   apperrors.ReasonEmailInputMissing,
		act: func(ctx context.Context, page browser.Page, el browser.Element, creds Credentials) error {
			return page.Fill(ctx, el, creds.Email)
		},
	},
	{
		to:       StateEmailSubmitted,
		selector: selectors.EmailNextButton,
		reason:   apperrors.ReasonEmailNextMissing,
		act: func(ctx context.Context, page browser.Page, el browser.Element, _ Credentials) error {
			return page.Click(ctx, el)
		},
	},
	{
		to:       StatePasswordFilled,
		selector: selectors.PasswordInput,
		reason:   apperrors.ReasonPasswordInputMissing,
		act: func(ctx context.Context, page browser.Page, el browser.Element, creds Credentials) error {
			return page.Fill(ctx, el, creds.Password)
		},
	},
	{
		to:       StateSubmitted,
		selector: selectors.LoginButton,
		reason:   apperrors.ReasonLoginButtonMissing,
		act: func(ctx context.Context, page browser.Page, el browser.Element, _ Credentials) error {
			return page.Click(ctx, el)
		},
	},
}

// Authenticator drives the portal's two-page login form
type Authenticator struct {
	catalog *selectors.Catalog
	cfg     AuthConfig
	log     *logger.Logger
}

// NewAuthenticator creates an Authenticator
func NewAuthenticator(catalog *selectors.Catalog, cfg AuthConfig, log *logger.Logger) *Authenticator {
	if log == nil {
		log = logger.Nop()
	}
	return &Authenticator{catalog: catalog, cfg: cfg, log: log}
}

// Login opens loginURL and submits creds. It returns StateAuthenticated, or StateFailed
// with an error whose reason names the step that could not find its element. Not
// leaving the login page in time is not a failure; the next navigation decides.
func (a *Authenticator) Login(ctx context.Context, page browser.Page, loginURL string, creds Credentials) (AuthState, error) {
	state := StateStart

	if err := page.Navigate(ctx, loginURL); err != nil {
		a.transition(state, StateFailed)
		return StateFailed, apperrors.NewSession("login", "failed to open login page", err)
	}

	for _, step := range authSteps {
		el, ok := Locate(ctx, page, a.catalog.Candidates(step.selector), a.cfg.StepTimeout)
		if !ok {
			a.transition(state, StateFailed)
			return StateFailed, apperrors.NewElementNotFound("login", step.reason, ctx.Err())
		}

		stepCtx, cancel := context.WithTimeout(ctx, a.cfg.StepTimeout)
		err := step.act(stepCtx, page, el, creds)
		cancel()
		if err != nil {
			a.transition(state, StateFailed)
			return StateFailed, apperrors.NewElementNotFound("login", step.reason, err)
		}

		a.transition(state, step.to)
		state = step.to
	}

	if err := a.awaitRedirect(ctx, page); err != nil {
		if ctx.Err() != nil {
			a.transition(state, StateFailed)
			return StateFailed, apperrors.NewSession("login", "cancelled while waiting for redirect", err)
		}
		a.log.Warn().Err(err).Msg("Still on the login page, continuing")
	}

	a.transition(state, StateAuthenticated)
	return StateAuthenticated, nil
}

// awaitRedirect waits until the page location leaves the login URL
func (a *Authenticator) awaitRedirect(ctx context.Context, page browser.Page) error {
	if err := pause(ctx, a.cfg.SubmitPause); err != nil {
		return err
	}

	navCtx, cancel := context.WithTimeout(ctx, a.cfg.NavTimeout)
	defer cancel()

	interval := a.cfg.PollInterval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}

	for {
		loc, err := page.Location(navCtx)
		if err == nil && !IsLoginPage(loc) {
			return nil
		}
		if err := pause(navCtx, interval); err != nil {
			return apperrors.NewNavigationTimeout("login", "location did not leave the login page", err)
		}
	}
}

func (a *Authenticator) transition(from, to AuthState) {
	a.log.Debug().
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("Login state changed")
}
