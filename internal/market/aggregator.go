package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GoPolymarket/polymarket-regime/internal/config"
	"github.com/GoPolymarket/polymarket-regime/internal/feed"
	"github.com/GoPolymarket/polymarket-regime/internal/metrics"
	"github.com/GoPolymarket/polymarket-regime/internal/normalize"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	// ErrNoMarketData means not a single market could be normalized.
	ErrNoMarketData = errors.New("no market data available")
	ErrUnknownEvent = errors.New("unknown event key")
)

// EventSource fetches a raw event by external id.
type EventSource interface {
	Event(ctx context.Context, id string) (*feed.Event, error)
}

type Options struct {
	Catalog  []config.EventConfig
	Pacing   time.Duration
	Snapshot *Snapshot
	Logger   zerolog.Logger
	Metrics  *metrics.Recorder
}

// Aggregator walks the event catalog and flattens every market it can
// normalize into a Record.
type Aggregator struct {
	events   EventSource
	prices   normalize.PriceSource
	catalog  []config.EventConfig
	limiter  *rate.Limiter
	snapshot *Snapshot
	log      zerolog.Logger
	metrics  *metrics.Recorder
}

func NewAggregator(events EventSource, prices normalize.PriceSource, opts Options) *Aggregator {
	limit := rate.Inf
	if opts.Pacing > 0 {
		limit = rate.Every(opts.Pacing)
	}
	return &Aggregator{
		events:   events,
		prices:   prices,
		catalog:  opts.Catalog,
		limiter:  rate.NewLimiter(limit, 1),
		snapshot: opts.Snapshot,
		log:      opts.Logger,
		metrics:  opts.Metrics,
	}
}

// Collect returns the flattened batch for every non-group catalog event.
// With useCache set, a readable snapshot short-circuits all fetching; a
// live run overwrites the snapshot with the whole batch.
func (a *Aggregator) Collect(ctx context.Context, useCache bool) ([]Record, error) {
	if useCache && a.snapshot != nil {
		records, ok, err := a.snapshot.Load()
		if err != nil {
			a.log.Warn().Err(err).Str("path", a.snapshot.Path()).Msg("snapshot unreadable, fetching live")
		} else if ok {
			a.metrics.MarketDataLoaded("snapshot")
			a.log.Debug().Int("records", len(records)).Msg("loaded market snapshot")
			if len(records) == 0 {
				return nil, ErrNoMarketData
			}
			return records, nil
		}
	}

	var out []Record
	for _, ev := range a.catalog {
		if ev.Group {
			continue
		}
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		event, err := a.events.Event(ctx, ev.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.metrics.EventFetchFailed(ev.Key)
			a.log.Warn().Err(err).Str("event", ev.Key).Str("event_id", ev.ID).Msg("event fetch failed, skipping")
			continue
		}
		recs, err := a.flatten(ctx, ev, event)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	a.metrics.MarketDataLoaded("live")

	if len(out) == 0 {
		return nil, ErrNoMarketData
	}
	if a.snapshot != nil {
		if err := a.snapshot.Save(out); err != nil {
			a.log.Warn().Err(err).Str("path", a.snapshot.Path()).Msg("snapshot write failed")
		}
	}
	return out, nil
}

func (a *Aggregator) flatten(ctx context.Context, ev config.EventConfig, event *feed.Event) ([]Record, error) {
	var out []Record
	for _, m := range event.Markets {
		if !m.ClobTokenIDs.Present {
			continue
		}
		dist, err := normalize.Normalize(ctx, m, a.prices)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			reason := normalize.Reason(err)
			a.metrics.MarketSkipped(reason)
			a.log.Debug().Err(err).Str("event", ev.Key).Str("market", m.ID.String()).Str("reason", reason).Msg("market skipped")
			continue
		}
		volume := m.Volume.String()
		if volume == "" {
			volume = "0"
		}
		out = append(out, Record{
			EventKey:       ev.Key,
			EventID:        ev.ID,
			EventTitle:     event.Title,
			MarketID:       m.ID.String(),
			MarketQuestion: m.Question,
			Outcomes:       dist,
			Volume:         volume,
			EndDate:        m.EndDate,
		})
	}
	return out, nil
}

// GroupEvent fetches the raw event for key without flattening it.
func (a *Aggregator) GroupEvent(ctx context.Context, key string) (*feed.Event, error) {
	for _, ev := range a.catalog {
		if ev.Key != key {
			continue
		}
		event, err := a.events.Event(ctx, ev.ID)
		if err != nil {
			return nil, fmt.Errorf("group event %s: %w", key, err)
		}
		return event, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, key)
}
