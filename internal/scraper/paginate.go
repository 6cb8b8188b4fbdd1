package scraper

import (
	"context"
	"time"

	"sjsage522/portalevents/internal/browser"
	"sjsage522/portalevents/logger"
	apperrors "sjsage522/portalevents/pkg/errors"
)

// PaginationConfig is the scroll policy. The defaults were tuned against one portal and
// are exposed through config for that reason.
type PaginationConfig struct {
	MaxIterations      int
	Settle             time.Duration
	StabilityThreshold int
	FinalSettle        time.Duration
}

// DefaultPaginationConfig returns the tuned defaults
func DefaultPaginationConfig() PaginationConfig {
	return PaginationConfig{
		MaxIterations:      40,
		Settle:             1500 * time.Millisecond,
		StabilityThreshold: 3,
		FinalSettle:        1500 * time.Millisecond,
	}
}

// PaginationStats describes how a scroll loop ended
type PaginationStats struct {
	Iterations  int
	FinalHeight int64
	Stabilized  bool
}

// Paginate scrolls the page to the bottom until the document height stops growing for
// StabilityThreshold consecutive reads or MaxIterations is reached, then waits once more
// for requests fired by the last scroll. It reads no data itself.
func Paginate(ctx context.Context, page browser.Page, cfg PaginationConfig, log *logger.Logger) (PaginationStats, error) {
	if log == nil {
		log = logger.Nop()
	}

	var (
		stats      PaginationStats
		lastHeight int64
		unchanged  int
	)

	for i := 0; i < cfg.MaxIterations; i++ {
		height, err := page.ScrollHeight(ctx)
		if err != nil {
			return stats, apperrors.NewSession("paginate", "failed to read document height", err)
		}
		stats.Iterations = i + 1
		stats.FinalHeight = height

		if height == lastHeight {
			unchanged++
			if unchanged >= cfg.StabilityThreshold {
				stats.Stabilized = true
				break
			}
		} else {
			unchanged = 0
		}
		lastHeight = height

		if err := page.ScrollToBottom(ctx); err != nil {
			return stats, apperrors.NewSession("paginate", "failed to scroll", err)
		}
		if err := pause(ctx, cfg.Settle); err != nil {
			return stats, apperrors.NewSession("paginate", "cancelled while settling", err)
		}
	}

	if err := pause(ctx, cfg.FinalSettle); err != nil {
		return stats, apperrors.NewSession("paginate", "cancelled during final settle", err)
	}

	log.Debug().
		Int("iterations", stats.Iterations).
		Int64("height", stats.FinalHeight).
		Bool("stabilized", stats.Stabilized).
		Msg("Pagination finished")

	return stats, nil
}
