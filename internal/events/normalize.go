package events

import (
	"slices"
	"strings"
	"time"

	"sjsage522/portalevents/helpers"
)

// Options carries the portal-specific inputs of normalization
type Options struct {
	BaseURL   string
	EventPath string
	Location  *time.Location
}

func (o Options) eventPath() string {
	if o.EventPath == "" {
		return "/events/"
	}
	return o.EventPath
}

// Normalize maps one raw feed record to the canonical shape. Text is trimmed but not
// escaped; escaping belongs to whoever renders it.
func Normalize(raw RawRecord, opts Options) Event {
	summary := raw.Trimmed("summary")
	longHTML := CleanHTML(raw.Trimmed("description"))

	plainSource := longHTML
	if plainSource == "" {
		plainSource = summary
	}
	longText := PlainText(plainSource)
	if longText == "" {
		longText = summary
	}

	startISO := firstTimestamp(raw, "start_date_local", "start_date")
	endISO := firstTimestamp(raw, "end_date_local", "end_date")
	date, clock := formatSchedule(startISO, endISO, opts.Location)

	location := raw.Trimmed("venue")
	if location == "" {
		location = raw.Trimmed("location")
	}

	id := raw.Identity()

	return Event{
		ID:  id,
		URL: DetailURL(opts.BaseURL, opts.eventPath(), id),

		Title:               raw.Trimmed("title"),
		Description:         summary,
		LongDescription:     longText,
		LongDescriptionHTML: longHTML,

		Date:     date,
		Time:     clock,
		StartISO: startISO,
		EndISO:   endISO,
		Location: location,

		BannerImage:  BannerURL(opts.BaseURL, raw.Trimmed("graphic")),
		ExternalLink: raw.Trimmed("external_link"),
		Categories:   raw.Strings("categories"),
		Availability: raw.Trimmed("availability"),

		Raw: raw,
	}
}

func firstTimestamp(raw RawRecord, keys ...string) string {
	for _, key := range keys {
		if v := raw.Timestamp(key); v != "" {
			return v
		}
	}
	return ""
}

// BannerURL resolves a root-relative image path against the portal base URL.
// Absolute URLs are returned unchanged; scheme-relative ones get the base scheme.
func BannerURL(baseURL, image string) string {
	switch {
	case image == "":
		return ""
	case strings.HasPrefix(image, "//"):
		return helpers.SchemeOf(baseURL) + ":" + image
	case strings.HasPrefix(image, "/"):
		return helpers.JoinBase(baseURL, image)
	default:
		return image
	}
}

// DetailURL builds the portal page link for an event, or "" without an id
func DetailURL(baseURL, eventPath, id string) string {
	if id == "" {
		return ""
	}
	return helpers.TrimTrailingSlashes(baseURL) + eventPath + id
}

// SortByStart orders events by ascending start time in place. A comparison where either
// side has no parseable start expresses no preference, so such events keep their
// relative position.
func SortByStart(list []Event, loc *time.Location) {
	type keyed struct {
		event Event
		start time.Time
		known bool
	}
	items := make([]keyed, len(list))
	for i := range list {
		t, ok := ParseTimestamp(list[i].StartISO, loc)
		items[i] = keyed{event: list[i], start: t, known: ok}
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		if !a.known || !b.known {
			return 0
		}
		return a.start.Compare(b.start)
	})

	for i := range items {
		list[i] = items[i].event
	}
}

// Truncate bounds the list to max entries; max <= 0 means no bound
func Truncate(list []Event, max int) []Event {
	if max > 0 && len(list) > max {
		return list[:max]
	}
	return list
}
