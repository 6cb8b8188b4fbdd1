package events

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Event is the canonical event shape handed to renderers
type Event struct {
	ID  string `json:"id"`
	URL string `json:"url"`

	Title               string `json:"title"`
	Description         string `json:"description"`
	LongDescription     string `json:"longDescription"`
	LongDescriptionHTML string `json:"longDescriptionHTML"`

	Date     string `json:"date"`
	Time     string `json:"time"`
	StartISO string `json:"startISO,omitempty"`
	EndISO   string `json:"endISO,omitempty"`
	Location string `json:"location"`

	BannerImage  string   `json:"bannerImage"`
	ExternalLink string   `json:"externalLink"`
	Categories   []string `json:"categories"`
	Availability string   `json:"availability"`

	Raw RawRecord `json:"raw,omitempty"`
}

// RawRecord is one feed record as delivered upstream. Every field is optional and may
// carry any JSON type, so all reads go through the accessors below.
type RawRecord map[string]any

// identityKeys are the accepted names of the record id, in priority order
var identityKeys = []string{"id", "event_id", "eventId"}

// Identity returns the record id as a string, or "" when the record has none
func (r RawRecord) Identity() string {
	for _, key := range identityKeys {
		if id := scalarString(r[key]); id != "" {
			return id
		}
	}
	return ""
}

// String returns the scalar value at key as text; objects, arrays and null give ""
func (r RawRecord) String(key string) string {
	return scalarString(r[key])
}

// Trimmed is String with surrounding whitespace removed
func (r RawRecord) Trimmed(key string) string {
	return strings.TrimSpace(r.String(key))
}

// Timestamp reads a timestamp that is either a plain string or an object carrying the
// value under "date" (the feed's *_local fields use the latter)
func (r RawRecord) Timestamp(key string) string {
	switch v := r[key].(type) {
	case map[string]any:
		return strings.TrimSpace(scalarString(v["date"]))
	default:
		return strings.TrimSpace(scalarString(v))
	}
}

// Strings reads a list of labels; object entries contribute their "name" or "title"
func (r RawRecord) Strings(key string) []string {
	list, ok := r[key].([]any)
	if !ok {
		return []string{}
	}

	out := make([]string, 0, len(list))
	for _, item := range list {
		var label string
		if obj, ok := item.(map[string]any); ok {
			label = scalarString(obj["name"])
			if label == "" {
				label = scalarString(obj["title"])
			}
		} else {
			label = scalarString(item)
		}
		if label = strings.TrimSpace(label); label != "" {
			out = append(out, label)
		}
	}
	return out
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
