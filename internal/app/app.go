package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/GoPolymarket/polymarket-regime/internal/config"
	"github.com/GoPolymarket/polymarket-regime/internal/feed"
	"github.com/GoPolymarket/polymarket-regime/internal/guardrail"
	"github.com/GoPolymarket/polymarket-regime/internal/llm"
	"github.com/GoPolymarket/polymarket-regime/internal/market"
	"github.com/GoPolymarket/polymarket-regime/internal/metrics"
	"github.com/GoPolymarket/polymarket-regime/internal/prompt"
	"github.com/GoPolymarket/polymarket-regime/internal/report"
	"github.com/GoPolymarket/polymarket-regime/internal/signal"
	"github.com/GoPolymarket/polymarket-regime/internal/telegramtmpl"
)

// MarketSource is the aggregator surface the pipeline depends on.
type MarketSource interface {
	Collect(ctx context.Context, useCache bool) ([]market.Record, error)
	GroupEvent(ctx context.Context, key string) (*feed.Event, error)
}

// Notifier defines the alert methods used after a run.
type Notifier interface {
	Enabled() bool
	NotifyRegime(ctx context.Context, textHTML string) error
	NotifyParseFailure(ctx context.Context, runID, message string) error
}

// Request selects the events to read and the companies to score.
type Request struct {
	Events    []string `json:"events"`
	Companies []string `json:"companies"`
	// Refresh bypasses the market snapshot for this run.
	Refresh bool `json:"refresh,omitempty"`
}

// Result is one analysis run. Exactly one of Report and Failure is set.
type Result struct {
	RunID          string                         `json:"run_id"`
	Report         *report.Report                 `json:"report,omitempty"`
	Failure        *report.Failure                `json:"failure,omitempty"`
	Corrections    []guardrail.Correction         `json:"corrections"`
	GroupSignal    *signal.GroupSignal            `json:"group_signal"`
	CompanySignals map[string]signal.EntitySignal `json:"company_signals"`
	EventKeys      []string                       `json:"event_keys"`
	Markets        int                            `json:"markets"`
}

// Payload is the response body for plain analyze calls: the validated
// report, or the failure object.
func (r *Result) Payload() interface{} {
	if r.Failure != nil {
		return r.Failure
	}
	return r.Report
}

// App runs the regime pipeline end to end.
type App struct {
	cfg      config.Config
	markets  MarketSource
	gen      llm.Generator
	notifier Notifier
	metrics  *metrics.Recorder
	log      zerolog.Logger
	stats    *runStats

	newID func() string
	now   func() time.Time
}

func New(cfg config.Config, markets MarketSource, gen llm.Generator, notifier Notifier, rec *metrics.Recorder, log zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		markets:  markets,
		gen:      gen,
		notifier: notifier,
		metrics:  rec,
		log:      log,
		stats:    newRunStats(time.Now()),
		newID:    func() string { return uuid.NewString() },
		now:      time.Now,
	}
}

// Events returns the configured event catalog.
func (a *App) Events() []config.EventConfig {
	out := make([]config.EventConfig, len(a.cfg.Events))
	copy(out, a.cfg.Events)
	return out
}

// Stats returns a snapshot of run counters.
func (a *App) Stats() map[string]interface{} {
	return a.stats.snapshot(a.now())
}

// Analyze runs one pass of the pipeline. A model that cannot be reached or
// that answers with unusable text yields a Result carrying a Failure; the
// only error returned is market.ErrNoMarketData or a context error.
func (a *App) Analyze(ctx context.Context, req Request) (*Result, error) {
	start := a.now()
	runID := a.newID()
	log := a.log.With().Str("run_id", runID).Logger()
	log.Info().Strs("events", req.Events).Strs("companies", req.Companies).Msg("analysis started")

	res, err := a.analyze(ctx, log, runID, req)

	outcome := OutcomeOK
	var rules []string
	switch {
	case err != nil && errors.Is(err, market.ErrNoMarketData):
		outcome = OutcomeNoData
	case err != nil:
		return nil, err
	case res.Failure != nil:
		outcome = OutcomeFailure
	default:
		for _, c := range res.Corrections {
			rules = append(rules, c.Rule)
		}
	}
	elapsed := a.now().Sub(start)
	a.metrics.ObserveAnalysis(outcome, elapsed)
	a.stats.record(a.now(), runID, outcome, elapsed, rules)

	if err != nil {
		log.Warn().Err(err).Msg("analysis aborted")
		return nil, err
	}
	log.Info().Str("outcome", outcome).Int("corrections", len(res.Corrections)).Dur("elapsed", elapsed).Msg("analysis finished")
	a.notify(ctx, log, res)
	return res, nil
}

func (a *App) analyze(ctx context.Context, log zerolog.Logger, runID string, req Request) (*Result, error) {
	groups := a.groupEvents(ctx, log, req.Events)

	records, err := a.markets.Collect(ctx, a.cfg.Cache.UseCache && !req.Refresh)
	if err != nil {
		return nil, err
	}

	keys := a.eventKeys(req)
	compressed := market.Compress(market.Filter(records, keys))
	log.Debug().Int("records", len(records)).Int("selected", len(compressed)).Strs("event_keys", keys).Msg("markets selected")

	var group *signal.GroupSignal
	if ev := a.firstGroup(groups); ev != nil {
		g := signal.FedCuts(ev)
		group = &g
	}
	companySignals := signal.Companies(req.Companies, compressed, a.profiles())

	res := &Result{
		RunID:          runID,
		Corrections:    []guardrail.Correction{},
		GroupSignal:    group,
		CompanySignals: companySignals,
		EventKeys:      keys,
		Markets:        len(compressed),
	}

	text, err := prompt.Build(prompt.Input{
		Group:         group,
		Companies:     companySignals,
		Markets:       compressed,
		StockUniverse: a.cfg.StockUniverse,
	})
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	raw, err := a.generate(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.metrics.ParseFailed()
		log.Warn().Err(err).Msg("generation failed")
		res.Failure = report.NewFailure(err, "")
		return res, nil
	}

	r, err := report.Parse(raw)
	if err != nil {
		a.metrics.ParseFailed()
		log.Warn().Err(err).Int("raw_len", len(raw)).Msg("model output unusable")
		res.Failure = report.NewFailure(err, raw)
		return res, nil
	}

	corrections := guardrail.Validate(r, guardrail.Constraints{
		Companies:      req.Companies,
		CompanySignals: companySignals,
		Group:          group,
		StockUniverse:  a.cfg.StockUniverse,
	})
	for _, c := range corrections {
		a.metrics.Correction(c.Rule)
		log.Debug().Str("rule", c.Rule).Str("field", c.Field).Str("from", c.From).Str("to", c.To).Msg("report corrected")
	}
	if corrections != nil {
		res.Corrections = corrections
	}
	res.Report = r
	return res, nil
}

func (a *App) generate(ctx context.Context, text string) (string, error) {
	if a.gen == nil {
		return "", llm.ErrMissingAPIKey
	}
	if a.cfg.LLM.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.LLM.Timeout)
		defer cancel()
	}
	system := a.cfg.LLM.SystemPrompt
	if system == "" {
		system = prompt.System
	}
	return a.gen.Generate(ctx, system, text)
}

// groupEvents fetches the raw group events among the selected keys. Fetch
// failures are logged and the group is treated as absent.
func (a *App) groupEvents(ctx context.Context, log zerolog.Logger, selected []string) map[string]*feed.Event {
	out := make(map[string]*feed.Event)
	for _, key := range selected {
		ev, ok := a.cfg.Event(key)
		if !ok || !ev.Group {
			continue
		}
		event, err := a.markets.GroupEvent(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("event", key).Msg("group event unavailable")
			continue
		}
		out[key] = event
	}
	return out
}

// firstGroup picks the first fetched group event in catalog order.
func (a *App) firstGroup(groups map[string]*feed.Event) *feed.Event {
	for _, ev := range a.cfg.Events {
		if g, ok := groups[ev.Key]; ok {
			return g
		}
	}
	return nil
}

func (a *App) eventKeys(req Request) []string {
	set := make(map[string]struct{}, len(req.Events))
	for _, k := range req.Events {
		set[k] = struct{}{}
	}
	if a.cfg.Engine.AutoExpand {
		for _, c := range req.Companies {
			for _, k := range signal.RelevantEventKeys(c, a.cfg.Signals.Categories, a.cfg.Signals.CompanyCategories) {
				set[k] = struct{}{}
			}
		}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (a *App) profiles() []signal.Profile {
	if len(a.cfg.Signals.Companies) == 0 {
		return signal.DefaultProfiles()
	}
	out := make([]signal.Profile, 0, len(a.cfg.Signals.Companies))
	for _, p := range a.cfg.Signals.Companies {
		out = append(out, signal.Profile{Ticker: p.Ticker, Aliases: p.Aliases, MaterialityMin: p.MaterialityMin})
	}
	return out
}

func (a *App) notify(ctx context.Context, log zerolog.Logger, res *Result) {
	if a.notifier == nil || !a.notifier.Enabled() {
		return
	}
	var err error
	if res.Failure != nil {
		err = a.notifier.NotifyParseFailure(ctx, res.RunID, res.Failure.Message)
	} else {
		data := telegramtmpl.BuildRegimeData(res.RunID, res.Report, len(res.Corrections))
		err = a.notifier.NotifyRegime(ctx, telegramtmpl.RenderRegimeHTML(data))
	}
	if err != nil {
		log.Warn().Err(err).Msg("telegram notify failed")
	}
}
