package scraper

import (
	"encoding/json"
	"strings"

	apperrors "sjsage522/portalevents/pkg/errors"
)

// Headless is the browser visibility flag of a request. Clients send it as a JSON bool
// or as a string, where only "false" (any case) turns headless mode off. Absent or null
// means headless.
type Headless struct {
	Value bool
	Set   bool
}

// HeadlessFrom wraps a known value
func HeadlessFrom(v bool) Headless {
	return Headless{Value: v, Set: true}
}

// Enabled reports whether the browser should run headless
func (h Headless) Enabled() bool {
	return !h.Set || h.Value
}

func (h *Headless) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*h = Headless{}
	case bool:
		*h = HeadlessFrom(t)
	case string:
		*h = HeadlessFrom(!strings.EqualFold(t, "false"))
	case float64:
		*h = HeadlessFrom(t != 0)
	default:
		*h = HeadlessFrom(true)
	}
	return nil
}

func (h Headless) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Enabled())
}

// Request is one extraction job. The credentials live only as long as the request.
type Request struct {
	BaseURL   string   `json:"baseUrl"`
	LoginURL  string   `json:"loginUrl"`
	EventsURL string   `json:"eventsUrl"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Headless  Headless `json:"headless"`
	// Max bounds the result length; zero or negative means unbounded
	Max int `json:"max"`
}

// Validate checks that the request names a portal and carries credentials
func (r Request) Validate() error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"baseUrl", r.BaseURL},
		{"loginUrl", r.LoginURL},
		{"eventsUrl", r.EventsURL},
		{"email", r.Email},
		{"password", r.Password},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewValidation("request", "missing "+strings.Join(missing, ", "))
	}
	return nil
}

func (r Request) credentials() Credentials {
	return Credentials{Email: r.Email, Password: r.Password}
}
