package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrNotReport means the extracted object carries none of the report sections.
var ErrNotReport = errors.New("JSON object is not a regime report")

// reportSections are the top-level keys of which at least one must be present.
var reportSections = []string{"market_sentiment", "market_regime", "crowd_signals"}

const (
	FailureCode = "LLM_OUTPUT_PARSE_FAILED"
	maxRawRunes = 1500
)

// Parse recovers a Report from raw model output.
func Parse(raw string) (*Report, error) {
	obj, err := ExtractObject(raw)
	if err != nil {
		return nil, err
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(obj, &top); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	if !hasSection(top) {
		return nil, ErrNotReport
	}
	var r Report
	if err := json.Unmarshal(obj, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}

func hasSection(top map[string]json.RawMessage) bool {
	for _, k := range reportSections {
		if _, ok := top[k]; ok {
			return true
		}
	}
	return false
}

// Failure is returned in place of a report when the output is unusable.
type Failure struct {
	Code      string `json:"error"`
	Message   string `json:"message"`
	RawOutput string `json:"raw_output"`
}

func NewFailure(err error, raw string) *Failure {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &Failure{Code: FailureCode, Message: msg, RawOutput: truncateRunes(raw, maxRawRunes)}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
