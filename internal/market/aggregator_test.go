package market

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GoPolymarket/polymarket-regime/internal/config"
	"github.com/GoPolymarket/polymarket-regime/internal/feed"
	"github.com/GoPolymarket/polymarket-regime/internal/metrics"
	"github.com/GoPolymarket/polymarket-regime/internal/normalize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvents struct {
	events map[string]*feed.Event
	calls  []string
}

func (f *fakeEvents) Event(_ context.Context, id string) (*feed.Event, error) {
	f.calls = append(f.calls, id)
	ev, ok := f.events[id]
	if !ok {
		return nil, errors.New("unavailable")
	}
	return ev, nil
}

type noLivePrices struct{}

func (noLivePrices) Midpoint(context.Context, string) (decimal.Decimal, error) {
	return decimal.Zero, feed.ErrNoPrice
}

func binary(id, question, yes, no string) feed.Market {
	return feed.Market{
		ID:            feed.FlexString(id),
		Question:      question,
		ClobTokenIDs:  feed.List(id+"-yes", id+"-no"),
		Outcomes:      feed.List("Yes", "No"),
		OutcomePrices: feed.List(yes, no),
		Volume:        "1000",
	}
}

func testCatalog() []config.EventConfig {
	return []config.EventConfig{
		{Key: "recession", ID: "1"},
		{Key: "cuts", ID: "2", Group: true},
		{Key: "nvidia", ID: "3"},
		{Key: "broken", ID: "4"},
	}
}

func testEvents() *fakeEvents {
	return &fakeEvents{events: map[string]*feed.Event{
		"1": {ID: "1", Title: "Recession 2026", Markets: []feed.Market{binary("m1", "US recession in 2026?", "0.3", "0.7")}},
		"2": {ID: "2", Title: "Fed cuts", Markets: []feed.Market{binary("c1", "How many cuts?", "0.5", "0.5")}},
		"3": {ID: "3", Title: "NVIDIA targets", Markets: []feed.Market{
			binary("n1", "Will NVIDIA reach $200?", "0.4", "0.6"),
			{ID: "n2", Question: "no tokens"},
			{ID: "n3", Question: "zero", ClobTokenIDs: feed.List("a", "b"), OutcomePrices: feed.List("0", "0")},
		}},
	}}
}

func TestCollectFlattensInCatalogOrder(t *testing.T) {
	reg := prometheus.NewRegistry()
	events := testEvents()
	agg := NewAggregator(events, noLivePrices{}, Options{
		Catalog: testCatalog(),
		Logger:  zerolog.Nop(),
		Metrics: metrics.New(reg),
	})

	recs, err := agg.Collect(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3", "4"}, events.calls, "group events are not flattened")
	require.Len(t, recs, 2)

	assert.Equal(t, "recession", recs[0].EventKey)
	assert.Equal(t, "Recession 2026", recs[0].EventTitle)
	assert.Equal(t, normalize.Distribution{{Label: "Yes", Probability: 0.3}, {Label: "No", Probability: 0.7}}, recs[0].Outcomes)
	assert.Equal(t, "nvidia", recs[1].EventKey)
	assert.Equal(t, "m1", recs[0].MarketID)
	for _, r := range recs {
		assert.InDelta(t, 1.0, r.Outcomes.Sum(), 1e-3)
	}
}

func TestCollectWritesAndReusesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	events := testEvents()
	agg := NewAggregator(events, noLivePrices{}, Options{
		Catalog:  testCatalog(),
		Snapshot: NewSnapshot(path, 0),
		Logger:   zerolog.Nop(),
	})

	live, err := agg.Collect(context.Background(), true)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)
	fetched := len(events.calls)

	cached, err := agg.Collect(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, fetched, len(events.calls), "snapshot hit must not fetch")
	assert.Equal(t, live, cached)

	_, err = agg.Collect(context.Background(), false)
	require.NoError(t, err)
	assert.Greater(t, len(events.calls), fetched)
}

func TestCollectEmptyBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	agg := NewAggregator(&fakeEvents{}, noLivePrices{}, Options{
		Catalog:  testCatalog(),
		Snapshot: NewSnapshot(path, 0),
		Logger:   zerolog.Nop(),
	})
	_, err := agg.Collect(context.Background(), false)
	assert.ErrorIs(t, err, ErrNoMarketData)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "empty batch must not be persisted")
}

func TestCollectHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	agg := NewAggregator(testEvents(), noLivePrices{}, Options{
		Catalog: testCatalog(),
		Pacing:  time.Hour,
		Logger:  zerolog.Nop(),
	})
	_, err := agg.Collect(ctx, false)
	assert.Error(t, err)
}

func TestGroupEvent(t *testing.T) {
	agg := NewAggregator(testEvents(), noLivePrices{}, Options{Catalog: testCatalog(), Logger: zerolog.Nop()})
	ev, err := agg.GroupEvent(context.Background(), "cuts")
	require.NoError(t, err)
	assert.Equal(t, "Fed cuts", ev.Title)

	_, err = agg.GroupEvent(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = agg.GroupEvent(context.Background(), "broken")
	assert.Error(t, err)
}
