package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/portalevents/internal/browser/browsertest"
	apperrors "sjsage522/portalevents/pkg/errors"
)

func fastPagination() PaginationConfig {
	return PaginationConfig{
		MaxIterations:      40,
		Settle:             time.Millisecond,
		StabilityThreshold: 3,
		FinalSettle:        time.Millisecond,
	}
}

func TestPaginateStopsWhenHeightStabilizes(t *testing.T) {
	sess := browsertest.NewSession()
	sess.Heights = []int64{1000, 2000, 3000}

	stats, err := Paginate(context.Background(), sess, fastPagination(), nil)
	require.NoError(t, err)

	assert.True(t, stats.Stabilized)
	assert.Equal(t, 6, stats.Iterations)
	assert.Equal(t, int64(3000), stats.FinalHeight)
	assert.Equal(t, 5, sess.Scrolls())
}

func TestPaginateResetsStabilityOnGrowth(t *testing.T) {
	sess := browsertest.NewSession()
	sess.Heights = []int64{1000, 1000, 1000, 2000, 2000, 2000, 2000}

	stats, err := Paginate(context.Background(), sess, fastPagination(), nil)
	require.NoError(t, err)

	assert.True(t, stats.Stabilized)
	assert.Equal(t, int64(2000), stats.FinalHeight)
	assert.Equal(t, 7, stats.Iterations)
}

func TestPaginateStopsAtIterationCap(t *testing.T) {
	sess := browsertest.NewSession()
	for h := int64(1); h <= 20; h++ {
		sess.Heights = append(sess.Heights, h*100)
	}
	cfg := fastPagination()
	cfg.MaxIterations = 5

	stats, err := Paginate(context.Background(), sess, cfg, nil)
	require.NoError(t, err)

	assert.False(t, stats.Stabilized)
	assert.Equal(t, 5, stats.Iterations)
	assert.Equal(t, 5, sess.Scrolls())
}

func TestPaginateWaitsFinalSettle(t *testing.T) {
	sess := browsertest.NewSession()
	cfg := fastPagination()
	cfg.FinalSettle = 30 * time.Millisecond

	start := time.Now()
	_, err := Paginate(context.Background(), sess, cfg, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestPaginateScrollError(t *testing.T) {
	sess := browsertest.NewSession()
	sess.Heights = []int64{100}
	sess.ScrollErr = errors.New("target closed")

	_, err := Paginate(context.Background(), sess, fastPagination(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSession))
}

func TestPaginateCancelled(t *testing.T) {
	sess := browsertest.NewSession()
	sess.Heights = []int64{100, 200, 300}
	cfg := fastPagination()
	cfg.Settle = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	stats, err := Paginate(ctx, sess, cfg, nil)
	require.Error(t, err)
	assert.Equal(t, 1, stats.Iterations)
}
