package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/portalevents/helpers"
	"sjsage522/portalevents/internal/browser/browsertest"
	"sjsage522/portalevents/internal/scraper"
	"sjsage522/portalevents/internal/selectors"
	"sjsage522/portalevents/logger"
	"sjsage522/portalevents/services/publisher"
	"sjsage522/portalevents/services/worker"
)

const (
	portalURL = "https://portal.example.com"
	feedURL   = portalURL + "/api/events?group=events"
)

func candidate(name string) string {
	return selectors.Default().Candidates(name)[0]
}

// portalSession scripts a portal that accepts the login and serves two feed pages
func portalSession() *browsertest.Session {
	sess := browsertest.NewSession()
	sess.Show(
		candidate(selectors.EmailInput),
		candidate(selectors.EmailNextButton),
		candidate(selectors.PasswordInput),
		candidate(selectors.LoginButton),
		candidate(selectors.GridReadyProbe),
	)
	sess.AfterClick = func(s *browsertest.Session, selector string) {
		if selector == candidate(selectors.LoginButton) {
			s.SetURL(portalURL + "/home")
		}
	}
	sess.Heights = []int64{1200, 2400}
	sess.AfterScroll = func(s *browsertest.Session, n int) {
		switch n {
		case 1:
			s.EmitJSON(feedURL+"&page=1", `{"items": [`+record(1, "2025-12-05T18:00:00")+`,`+record(2, "2025-12-03T09:30:00")+`]}`)
		case 2:
			s.EmitJSON(feedURL+"&page=2", `{"items": [`+record(3, "2025-12-04T12:00:00")+`]}`)
		}
	}
	return sess
}

func record(id int, start string) string {
	return fmt.Sprintf(`{"id": %d, "title": "Event %d", "summary": "Summary %d", "start_date_local": {"date": %q}}`,
		id, id, id, start)
}

// TestWorkerPublishesScrapedEvents runs the whole pipeline against a scripted browser and
// an in-memory Redis
func TestWorkerPublishesScrapedEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	pub, err := publisher.NewRedisPublisher(publisher.RedisOptions{
		Addr:            mr.Addr(),
		StreamPrefix:    "portal_events",
		StreamCount:     1,
		StreamMaxLength: 10,
	})
	require.NoError(t, err)
	defer pub.Close()

	opts := scraper.Options{
		Catalog: selectors.Default(),
		Auth: scraper.AuthConfig{
			StepTimeout:  20 * time.Millisecond,
			SubmitPause:  time.Millisecond,
			NavTimeout:   50 * time.Millisecond,
			PollInterval: 5 * time.Millisecond,
		},
		Pagination: scraper.PaginationConfig{
			MaxIterations:      10,
			Settle:             time.Millisecond,
			StabilityThreshold: 2,
			FinalSettle:        time.Millisecond,
		},
		Feed:           scraper.DefaultFeedMatcher(),
		ReadyTimeout:   20 * time.Millisecond,
		SessionTimeout: 5 * time.Second,
		DrainTimeout:   time.Second,
		EventPath:      "/events/",
		Location:       time.UTC,
		Log:            logger.Nop(),
	}
	s := scraper.New(&browsertest.Launcher{Session: portalSession()}, opts, nil)

	w := worker.NewWorker(s, pub, helpers.NewLogger(logger.Nop()), worker.Options{
		Request: scraper.Request{
			BaseURL:   portalURL,
			LoginURL:  portalURL + "/login",
			EventsURL: portalURL + "/events",
			Email:     "ops@example.com",
			Password:  "secret",
		},
		Environment: "production",
	})
	w.RunOnce(ctx)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	msgs, err := client.XRange(ctx, "portal_events:0", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	decoded, err := base64.StdEncoding.DecodeString(msgs[0].Values[worker.MessageKey].(string))
	require.NoError(t, err)
	assert.NotContains(t, string(decoded), "secret")

	var batch worker.Batch
	require.NoError(t, json.Unmarshal(decoded, &batch))
	require.Len(t, batch.Events, 3)

	var ids []string
	for _, ev := range batch.Events {
		ids = append(ids, ev.ID)
	}
	assert.Equal(t, []string{"2", "3", "1"}, ids)
	assert.Equal(t, "Event 2", batch.Events[0].Title)
	assert.Equal(t, portalURL+"/events/2", batch.Events[0].URL)
}
