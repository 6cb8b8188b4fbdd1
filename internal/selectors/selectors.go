// Package selectors holds the catalog of ranked element locators for the member portal.
// The portal DOM is owned by a third party and changes without notice; update the
// defaults here (or ship a SELECTORS_FILE override) when extraction starts failing.
//
// Locators are chromedp search queries: CSS selectors, or XPath expressions where an
// element is identified by its text.
package selectors

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Logical field names
const (
	EmailInput      = "login.emailInput"
	EmailNextButton = "login.emailNextButton"
	PasswordInput   = "login.passwordInput"
	LoginButton     = "login.loginButton"
	EventCard       = "events.card"
	GridReadyProbe  = "events.gridReadyProbe"
)

func defaults() map[string][]string {
	return map[string][]string{
		EmailInput: {
			`#login_username`,
			`input[autocomplete="username"]`,
			`input[type="email"]`,
			`input[id*="email" i]`,
		},
		EmailNextButton: {
			`//button[contains(normalize-space(.), "Next")]`,
			`//button[contains(normalize-space(.), "Continue")]`,
			`//button[contains(normalize-space(.), "Submit")]`,
			`button`,
		},
		PasswordInput: {
			`#login_password`,
			`input[autocomplete="current-password"]`,
			`input[type="password"]`,
			`input[id*="password" i]`,
		},
		LoginButton: {
			`//button[contains(normalize-space(.), "Log in")]`,
			`//button[contains(normalize-space(.), "Sign in")]`,
			`//button[contains(normalize-space(.), "Login")]`,
			`button[type="submit"]`,
		},
		EventCard: {
			`.pv-card`,
		},
		GridReadyProbe: {
			`.pv-card`,
			`main`,
			`body`,
		},
	}
}

// Catalog maps logical field names to ordered locator lists. It is read-only once built.
type Catalog struct {
	entries map[string][]string
}

// Default returns the built-in catalog
func Default() *Catalog {
	return &Catalog{entries: defaults()}
}

// Load returns the built-in catalog with the lists from a YAML override file applied.
// An empty path yields the defaults.
func Load(path string) (*Catalog, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read selectors file: %w", err)
	}
	if err := c.apply(data); err != nil {
		return nil, fmt.Errorf("selectors file %s: %w", path, err)
	}
	return c, nil
}

// Parse is Load for in-memory YAML
func Parse(data []byte) (*Catalog, error) {
	c := Default()
	if err := c.apply(data); err != nil {
		return nil, err
	}
	return c, nil
}

// apply replaces catalog entries with the lists in a YAML document shaped like
//
//	login:
//	  emailInput: ["#email", "input[type=email]"]
func (c *Catalog) apply(data []byte) error {
	var doc map[string]map[string][]string
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	for group, fields := range doc {
		for field, list := range fields {
			name := group + "." + field
			if _, ok := c.entries[name]; !ok {
				return fmt.Errorf("unknown selector %q", name)
			}
			if len(list) == 0 {
				return fmt.Errorf("selector %q has no candidates", name)
			}
			c.entries[name] = append([]string(nil), list...)
		}
	}
	return nil
}

// Candidates returns a copy of the ordered locator list for a logical name
func (c *Catalog) Candidates(name string) []string {
	return append([]string(nil), c.entries[name]...)
}

// Names lists every logical name in the catalog
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
