package app

import (
	"sync"
	"time"
)

// Run outcomes, shared with the analysis duration metric.
const (
	OutcomeOK      = "ok"
	OutcomeFailure = "failure"
	OutcomeNoData  = "no_data"
)

// runStats keeps lifetime and per-UTC-day counters of analysis runs.
type runStats struct {
	mu sync.Mutex

	dayStartUTC time.Time

	runsTotal     int
	failuresTotal int
	noDataTotal   int

	runsDaily              int
	failuresDaily          int
	correctionsDaily       int
	correctionsDailyByRule map[string]int
	lastRunID              string
	lastOutcome            string
	lastRunAt              time.Time
	lastDuration           time.Duration
}

func newRunStats(now time.Time) *runStats {
	return &runStats{
		dayStartUTC:            startOfUTCDay(now),
		correctionsDailyByRule: make(map[string]int),
	}
}

func startOfUTCDay(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *runStats) ensureDayLocked(now time.Time) {
	day := startOfUTCDay(now)
	if day.Equal(s.dayStartUTC) {
		return
	}
	s.dayStartUTC = day
	s.runsDaily = 0
	s.failuresDaily = 0
	s.correctionsDaily = 0
	s.correctionsDailyByRule = make(map[string]int)
}

func (s *runStats) record(now time.Time, runID, outcome string, d time.Duration, rules []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureDayLocked(now)

	s.runsTotal++
	s.runsDaily++
	switch outcome {
	case OutcomeFailure:
		s.failuresTotal++
		s.failuresDaily++
	case OutcomeNoData:
		s.noDataTotal++
	}
	for _, rule := range rules {
		s.correctionsDaily++
		s.correctionsDailyByRule[rule]++
	}
	s.lastRunID = runID
	s.lastOutcome = outcome
	s.lastRunAt = now.UTC()
	s.lastDuration = d
}

func (s *runStats) snapshot(now time.Time) map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureDayLocked(now)

	byRule := make(map[string]interface{}, len(s.correctionsDailyByRule))
	for rule, n := range s.correctionsDailyByRule {
		byRule[rule] = n
	}
	failureRate := 0.0
	if s.runsDaily > 0 {
		failureRate = float64(s.failuresDaily) / float64(s.runsDaily)
	}
	var lastRunAt interface{}
	if !s.lastRunAt.IsZero() {
		lastRunAt = s.lastRunAt.Format(time.RFC3339)
	}

	return map[string]interface{}{
		"runs_total":                s.runsTotal,
		"failures_total":            s.failuresTotal,
		"no_data_total":             s.noDataTotal,
		"runs_daily":                s.runsDaily,
		"failures_daily":            s.failuresDaily,
		"failure_rate_daily":        failureRate,
		"corrections_daily":         s.correctionsDaily,
		"corrections_daily_by_rule": byRule,
		"last_run_id":               s.lastRunID,
		"last_outcome":              s.lastOutcome,
		"last_run_at_utc":           lastRunAt,
		"last_duration_ms":          s.lastDuration.Milliseconds(),
		"day_start_utc":             s.dayStartUTC.Format(time.RFC3339),
	}
}
