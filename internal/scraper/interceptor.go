package scraper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"sjsage522/portalevents/helpers"
	"sjsage522/portalevents/internal/browser"
	"sjsage522/portalevents/internal/events"
	"sjsage522/portalevents/internal/metrics"
	"sjsage522/portalevents/logger"
	apperrors "sjsage522/portalevents/pkg/errors"
)

// FeedMatcher recognises the events feed among the page's network traffic
type FeedMatcher struct {
	PathMarker string
	GroupParam string
	GroupValue string
}

// DefaultFeedMatcher matches /api/events?group=events
func DefaultFeedMatcher() FeedMatcher {
	return FeedMatcher{PathMarker: "/api/events", GroupParam: "group", GroupValue: "events"}
}

// Match reports whether rawURL is a feed request
func (m FeedMatcher) Match(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !strings.Contains(u.Path, m.PathMarker) {
		return false
	}
	return slices.Contains(u.Query()[m.GroupParam], m.GroupValue)
}

// feedListKeys are the object keys that may carry the record list, in priority order
var feedListKeys = []string{"items", "data", "events", "results"}

// ParseFeed extracts the records from a feed body: either a bare JSON array or an
// object holding the array under one of the known keys. Non-object elements are skipped.
func ParseFeed(body []byte) ([]events.RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, apperrors.NewFeedParse("intercept", "invalid JSON", err)
	}

	var list []any
	switch v := doc.(type) {
	case []any:
		list = v
	case map[string]any:
		for _, key := range feedListKeys {
			if l, ok := v[key].([]any); ok {
				list = l
				break
			}
		}
		if list == nil {
			return nil, apperrors.NewFeedParse("intercept", "no record list in feed object", nil)
		}
	default:
		return nil, apperrors.NewFeedParse("intercept", fmt.Sprintf("unexpected feed type %T", doc), nil)
	}

	records := make([]events.RawRecord, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			records = append(records, events.RawRecord(m))
		}
	}
	return records, nil
}

type accumulated struct {
	seq    uint64
	record events.RawRecord
}

// Accumulator keeps one record per identity. A record observed later (higher sequence)
// replaces an earlier one; the drained order is the order identities were first seen.
type Accumulator struct {
	mu      sync.Mutex
	entries map[string]accumulated
	order   []string
}

// NewAccumulator creates an empty Accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{entries: make(map[string]accumulated)}
}

// Put stores rec under id unless a record from a later observation is already held
func (a *Accumulator) Put(id string, seq uint64, rec events.RawRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()

	prev, ok := a.entries[id]
	if !ok {
		a.order = append(a.order, id)
	} else if seq < prev.seq {
		return
	}
	a.entries[id] = accumulated{seq: seq, record: rec}
}

// Len returns the number of distinct identities held
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.order)
}

// Records returns the held records in first-seen order
func (a *Accumulator) Records() []events.RawRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]events.RawRecord, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.entries[id].record)
	}
	return out
}

// InterceptStats counts what the interceptor saw
type InterceptStats struct {
	Responses   int64
	Ignored     int64
	ParseFailed int64
	Records     int64
	NoIdentity  int64
	Accumulated int
}

// Interceptor feeds matched responses into an Accumulator. Handle is safe to call from
// many goroutines and never fails; bad responses are logged and counted.
type Interceptor struct {
	matcher FeedMatcher
	acc     *Accumulator
	log     *logger.Logger
	metrics *metrics.Metrics

	responses   atomic.Int64
	ignored     atomic.Int64
	parseFailed atomic.Int64
	records     atomic.Int64
	noIdentity  atomic.Int64
}

// NewInterceptor creates an Interceptor writing into acc
func NewInterceptor(matcher FeedMatcher, acc *Accumulator, log *logger.Logger, m *metrics.Metrics) *Interceptor {
	if log == nil {
		log = logger.Nop()
	}
	return &Interceptor{matcher: matcher, acc: acc, log: log, metrics: m}
}

// Attach registers the interceptor on a session
func (i *Interceptor) Attach(s browser.Session) {
	s.OnResponse(i.matcher.Match, i.Handle)
}

// Handle processes one feed response
func (i *Interceptor) Handle(resp browser.Response) {
	i.responses.Add(1)

	if !helpers.IsSuccessStatus(resp.Status) {
		i.ignored.Add(1)
		i.metrics.RecordFeedResponse(metrics.FeedIgnored)
		i.log.Debug().Int("status", resp.Status).Str("url", resp.URL).Msg("Ignoring non-OK feed response")
		return
	}

	records, err := i.parse(resp)
	if err != nil {
		i.parseFailed.Add(1)
		i.metrics.RecordFeedResponse(metrics.FeedParseFailed)
		i.log.Warn().Err(err).Str("url", resp.URL).Msg("Skipping unreadable feed response")
		return
	}
	i.metrics.RecordFeedResponse(metrics.FeedAccepted)

	for _, rec := range records {
		id := rec.Identity()
		if id == "" {
			i.noIdentity.Add(1)
			continue
		}
		i.records.Add(1)
		i.acc.Put(id, resp.Seq, rec)
	}

	i.log.Debug().
		Uint64("seq", resp.Seq).
		Int("records", len(records)).
		Int("accumulated", i.acc.Len()).
		Msg("Captured feed response")
}

func (i *Interceptor) parse(resp browser.Response) ([]events.RawRecord, error) {
	if resp.BodyErr != nil {
		return nil, apperrors.NewFeedParse("intercept", "body unavailable", resp.BodyErr)
	}
	body, err := helpers.DecodeBody(resp.Body, resp.ContentType)
	if err != nil {
		return nil, apperrors.NewFeedParse("intercept", "undecodable body", err)
	}
	return ParseFeed(body)
}

// Stats returns a snapshot of the counters
func (i *Interceptor) Stats() InterceptStats {
	return InterceptStats{
		Responses:   i.responses.Load(),
		Ignored:     i.ignored.Load(),
		ParseFailed: i.parseFailed.Load(),
		Records:     i.records.Load(),
		NoIdentity:  i.noIdentity.Load(),
		Accumulated: i.acc.Len(),
	}
}
