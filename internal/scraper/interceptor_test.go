package scraper

import (
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/portalevents/internal/browser"
	"sjsage522/portalevents/internal/events"
	"sjsage522/portalevents/internal/metrics"
	"sjsage522/portalevents/logger"
	apperrors "sjsage522/portalevents/pkg/errors"
)

func TestFeedMatcher(t *testing.T) {
	m := DefaultFeedMatcher()

	tests := []struct {
		url  string
		want bool
	}{
		{"https://portal.example.com/api/events?group=events", true},
		{"https://portal.example.com/api/events?page=2&group=events&size=9", true},
		{"https://portal.example.com/v2/api/events/list?group=events", true},
		{"https://portal.example.com/api/events?group=news", false},
		{"https://portal.example.com/api/events", false},
		{"https://portal.example.com/api/profile?group=events", false},
		{"https://portal.example.com/events?q=/api/events&group=events", false},
		{"::not a url", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.Match(tt.url), tt.url)
	}
}

func TestParseFeedShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		ids  []string
	}{
		{"bare array", `[{"id": 1}, {"id": 2}]`, []string{"1", "2"}},
		{"items", `{"items": [{"id": "a"}], "total": 1}`, []string{"a"}},
		{"data", `{"data": [{"event_id": 7}]}`, []string{"7"}},
		{"events", `{"events": [{"eventId": "x"}]}`, []string{"x"}},
		{"results", `{"results": [{"id": 3}]}`, []string{"3"}},
		{"items wins over data", `{"data": [{"id": 1}], "items": [{"id": 2}]}`, []string{"2"}},
		{"non-object elements skipped", `[1, "two", null, {"id": 4}]`, []string{"4"}},
		{"empty list", `{"items": []}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := ParseFeed([]byte(tt.body))
			require.NoError(t, err)
			var ids []string
			for _, rec := range records {
				ids = append(ids, rec.Identity())
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestParseFeedErrors(t *testing.T) {
	for _, body := range []string{`{"items": [`, `{"total": 3}`, `"text"`, ``} {
		_, err := ParseFeed([]byte(body))
		require.Error(t, err, body)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeFeedParse), body)
	}
}

func TestParseFeedKeepsLargeIDsExact(t *testing.T) {
	records, err := ParseFeed([]byte(`[{"id": 12345678901234567}]`))
	require.NoError(t, err)
	assert.Equal(t, "12345678901234567", records[0].Identity())
}

func TestAccumulatorLastWriteWins(t *testing.T) {
	acc := NewAccumulator()
	acc.Put("1", 1, events.RawRecord{"title": "first"})
	acc.Put("2", 1, events.RawRecord{"title": "other"})
	acc.Put("1", 3, events.RawRecord{"title": "third"})
	// a body that finished loading late must not overwrite a newer observation
	acc.Put("1", 2, events.RawRecord{"title": "second"})

	records := acc.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "third", records[0]["title"])
	assert.Equal(t, "other", records[1]["title"])
	assert.Equal(t, 2, acc.Len())
}

func TestAccumulatorConcurrentWriters(t *testing.T) {
	acc := NewAccumulator()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				acc.Put(fmt.Sprint(i), uint64(w*100+i), events.RawRecord{"writer": w})
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 100, acc.Len())
	for _, rec := range acc.Records() {
		assert.Equal(t, 7, rec["writer"])
	}
}

func TestInterceptorHandle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	acc := NewAccumulator()
	i := NewInterceptor(DefaultFeedMatcher(), acc, logger.Nop(), m)

	i.Handle(browser.Response{Seq: 1, Status: 200, Body: []byte(`[{"id": 1, "title": "A"}, {"title": "no id"}]`)})
	i.Handle(browser.Response{Seq: 2, Status: 404, Body: []byte(`[{"id": 2}]`)})
	i.Handle(browser.Response{Seq: 3, Status: 200, Body: []byte(`<html>`)})
	i.Handle(browser.Response{Seq: 4, Status: 200, BodyErr: fmt.Errorf("evicted")})
	i.Handle(browser.Response{Seq: 5, Status: 200, Body: []byte(`{"items": [{"id": 1, "title": "A2"}]}`)})

	stats := i.Stats()
	assert.Equal(t, int64(5), stats.Responses)
	assert.Equal(t, int64(1), stats.Ignored)
	assert.Equal(t, int64(2), stats.ParseFailed)
	assert.Equal(t, int64(1), stats.NoIdentity)
	assert.Equal(t, 1, stats.Accumulated)

	assert.Equal(t, "A2", acc.Records()[0]["title"])
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FeedResponsesTotal.WithLabelValues(metrics.FeedAccepted)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FeedResponsesTotal.WithLabelValues(metrics.FeedParseFailed)))
}

func TestInterceptorDecodesDeclaredCharset(t *testing.T) {
	acc := NewAccumulator()
	i := NewInterceptor(DefaultFeedMatcher(), acc, nil, nil)

	// "Café" in ISO-8859-1
	body := []byte("[{\"id\": 1, \"title\": \"Caf\xe9\"}]")
	i.Handle(browser.Response{Seq: 1, Status: 200, ContentType: "application/json; charset=iso-8859-1", Body: body})

	require.Equal(t, 1, acc.Len())
	assert.Equal(t, "Café", acc.Records()[0]["title"])
}
