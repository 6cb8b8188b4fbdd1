package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRecord(t *testing.T, doc string) RawRecord {
	t.Helper()
	var raw RawRecord
	require.NoError(t, json.Unmarshal([]byte(doc), &raw))
	return raw
}

func TestNormalizeFullRecord(t *testing.T) {
	raw := decodeRecord(t, `{
		"id": 4821,
		"title": "  Wine Tasting  ",
		"summary": " An evening of reds. ",
		"description": "<p data-id=\"9\">Join <span>us</span></p><ul><li>Red</li><li>White</li></ul>",
		"start_date_local": {"date": "2025-11-29T15:00:00"},
		"end_date_local": {"date": "2025-11-29T17:30:00"},
		"start_date": "2025-11-29T20:00:00Z",
		"venue": " The Library ",
		"graphic": "/img/wine.png",
		"external_link": "https://tickets.example.com/4821",
		"categories": ["Dining", {"name": "Wine"}, {"title": "Social"}, 7, null],
		"availability": "Open"
	}`)

	ev := Normalize(raw, Options{BaseURL: "https://portal.example.com/", Location: time.UTC})

	assert.Equal(t, "4821", ev.ID)
	assert.Equal(t, "https://portal.example.com/events/4821", ev.URL)
	assert.Equal(t, "Wine Tasting", ev.Title)
	assert.Equal(t, "An evening of reds.", ev.Description)
	assert.Equal(t, "<p>Join us</p><ul><li>Red</li><li>White</li></ul>", ev.LongDescriptionHTML)
	assert.Equal(t, "Join us\n\n• Red\n• White", ev.LongDescription)
	assert.Equal(t, "Saturday, November 29", ev.Date)
	assert.Equal(t, "3:00 PM – 5:30 PM", ev.Time)
	assert.Equal(t, "2025-11-29T15:00:00", ev.StartISO)
	assert.Equal(t, "2025-11-29T17:30:00", ev.EndISO)
	assert.Equal(t, "The Library", ev.Location)
	assert.Equal(t, "https://portal.example.com/img/wine.png", ev.BannerImage)
	assert.Equal(t, "https://tickets.example.com/4821", ev.ExternalLink)
	assert.Equal(t, []string{"Dining", "Wine", "Social", "7"}, ev.Categories)
	assert.Equal(t, "Open", ev.Availability)
	assert.Equal(t, raw, ev.Raw)
}

func TestNormalizeSparseRecord(t *testing.T) {
	raw := decodeRecord(t, `{"event_id": "abc", "summary": "Short", "title": null, "categories": "oops"}`)

	ev := Normalize(raw, Options{BaseURL: "https://portal.example.com", EventPath: "/e/", Location: time.UTC})

	assert.Equal(t, "abc", ev.ID)
	assert.Equal(t, "https://portal.example.com/e/abc", ev.URL)
	assert.Equal(t, "", ev.Title)
	assert.Equal(t, "Short", ev.Description)
	assert.Equal(t, "", ev.LongDescriptionHTML)
	assert.Equal(t, "Short", ev.LongDescription)
	assert.Equal(t, "", ev.Date)
	assert.Equal(t, "", ev.Time)
	assert.Equal(t, "", ev.StartISO)
	assert.Equal(t, "", ev.BannerImage)
	assert.Equal(t, []string{}, ev.Categories)
}

func TestNormalizeFallsBackToAbsoluteStart(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	raw := decodeRecord(t, `{"id": "x", "start_date": "2025-11-29T20:00:00Z", "end_date": "2025-11-29T20:00:00Z"}`)

	ev := Normalize(raw, Options{Location: est})

	assert.Equal(t, "2025-11-29T20:00:00Z", ev.StartISO)
	assert.Equal(t, "Saturday, November 29", ev.Date)
	assert.Equal(t, "3:00 PM", ev.Time)
}

func TestIdentity(t *testing.T) {
	assert.Equal(t, "12", RawRecord{"id": float64(12)}.Identity())
	assert.Equal(t, "12", RawRecord{"id": json.Number("12")}.Identity())
	assert.Equal(t, "e-1", RawRecord{"id": nil, "eventId": "e-1"}.Identity())
	assert.Equal(t, "", RawRecord{"id": ""}.Identity())
	assert.Equal(t, "", RawRecord{"id": map[string]any{"v": 1}}.Identity())
	assert.Equal(t, "", RawRecord{}.Identity())
}

func TestBannerURL(t *testing.T) {
	assert.Equal(t, "https://portal.example.com/img/x.png", BannerURL("https://portal.example.com/", "/img/x.png"))
	assert.Equal(t, "https://cdn.example.com/x.png", BannerURL("https://portal.example.com/", "https://cdn.example.com/x.png"))
	assert.Equal(t, "http://cdn.example.com/x.png", BannerURL("http://portal.example.com", "//cdn.example.com/x.png"))
	assert.Equal(t, "", BannerURL("https://portal.example.com", ""))
}

func TestDetailURL(t *testing.T) {
	assert.Equal(t, "https://portal.example.com/events/42", DetailURL("https://portal.example.com//", "/events/", "42"))
	assert.Equal(t, "", DetailURL("https://portal.example.com", "/events/", ""))
}

func TestSortByStart(t *testing.T) {
	list := []Event{
		{ID: "c", StartISO: "2025-12-03T10:00:00"},
		{ID: "a", StartISO: "2025-12-01T10:00:00"},
		{ID: "b", StartISO: "2025-12-02T10:00:00"},
	}
	SortByStart(list, time.UTC)
	assert.Equal(t, []string{"a", "b", "c"}, ids(list))
}

func TestSortByStartMixedZones(t *testing.T) {
	list := []Event{
		{ID: "late", StartISO: "2025-12-01T12:00:00Z"},
		{ID: "early", StartISO: "2025-12-01T11:00:00+00:00"},
	}
	SortByStart(list, time.UTC)
	assert.Equal(t, []string{"early", "late"}, ids(list))
}

func TestSortByStartWithoutStartsKeepsOrder(t *testing.T) {
	list := []Event{{ID: "x"}, {ID: "y"}, {ID: "z", StartISO: "not a date"}}
	SortByStart(list, time.UTC)
	assert.Equal(t, []string{"x", "y", "z"}, ids(list))
}

func TestTruncate(t *testing.T) {
	list := []Event{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	assert.Len(t, Truncate(list, 2), 2)
	assert.Len(t, Truncate(list, 0), 3)
	assert.Len(t, Truncate(list, -1), 3)
	assert.Len(t, Truncate(list, 10), 3)
}

func ids(list []Event) []string {
	out := make([]string, len(list))
	for i, ev := range list {
		out[i] = ev.ID
	}
	return out
}
