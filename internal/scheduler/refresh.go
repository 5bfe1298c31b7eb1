package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SeriesWarmer is the slice of the quote layer the refresh job needs.
type SeriesWarmer interface {
	Invalidate(symbol, period, interval string)
	Warm(ctx context.Context, symbol, period, interval string) error
}

// tracked holds the series the refresh job keeps warm.
type tracked struct {
	symbol   string
	period   string
	interval string
}

// RefreshJob periodically re-fetches the tracked price series so request
// handlers mostly hit warm cache entries. A minimum interval between runs
// guards against overlapping schedules; two racing runs cost at most one
// redundant refresh.
type RefreshJob struct {
	warmer      SeriesWarmer
	ctx         context.Context
	minInterval time.Duration
	log         zerolog.Logger

	mu      sync.Mutex
	lastRun time.Time

	series []tracked

	// now is swappable in tests.
	now func() time.Time
}

// NewRefreshJob creates a refresh job over the given symbols. Each symbol is
// tracked at the 5-day daily window the exposure and quote paths read.
func NewRefreshJob(ctx context.Context, warmer SeriesWarmer, symbols []string, minInterval time.Duration, log zerolog.Logger) *RefreshJob {
	series := make([]tracked, 0, len(symbols))
	for _, s := range symbols {
		series = append(series, tracked{symbol: s, period: "5d", interval: "1d"})
	}
	return &RefreshJob{
		warmer:      warmer,
		ctx:         ctx,
		minInterval: minInterval,
		log:         log.With().Str("job", "refresh").Logger(),
		series:      series,
		now:         time.Now,
	}
}

// Name implements Job.
func (j *RefreshJob) Name() string { return "market_data_refresh" }

// Run re-warms every tracked series. Runs arriving before the minimum
// interval has passed are skipped.
func (j *RefreshJob) Run() error {
	j.mu.Lock()
	now := j.now()
	if !j.lastRun.IsZero() && now.Sub(j.lastRun) < j.minInterval {
		j.mu.Unlock()
		j.log.Debug().Time("last_run", j.lastRun).Msg("Skipping refresh, ran recently")
		return nil
	}
	j.lastRun = now
	j.mu.Unlock()

	refreshed := 0
	for _, t := range j.series {
		if err := j.ctx.Err(); err != nil {
			return err
		}
		j.warmer.Invalidate(t.symbol, t.period, t.interval)
		if err := j.warmer.Warm(j.ctx, t.symbol, t.period, t.interval); err != nil {
			j.log.Warn().Err(err).Str("symbol", t.symbol).Msg("Failed to refresh series")
			continue
		}
		refreshed++
	}

	j.log.Info().Int("refreshed", refreshed).Int("tracked", len(j.series)).Msg("Refresh complete")
	return nil
}
