package market

import (
	"github.com/GoPolymarket/polymarket-regime/internal/normalize"
)

// Record is one normalized market flattened with its event context.
type Record struct {
	EventKey       string                 `json:"event_key"`
	EventID        string                 `json:"event_id"`
	EventTitle     string                 `json:"event_title"`
	MarketID       string                 `json:"market_id"`
	MarketQuestion string                 `json:"market_question"`
	Outcomes       normalize.Distribution `json:"outcomes"`
	Volume         string                 `json:"volume"`
	EndDate        string                 `json:"end_date,omitempty"`
}

// Compressed is the projection sent to signal derivation and the prompt.
type Compressed struct {
	EventKey string                 `json:"event_key"`
	Question string                 `json:"question"`
	Outcomes normalize.Distribution `json:"outcomes"`
}

// Filter keeps records whose event key is in keys, preserving order.
func Filter(records []Record, keys []string) []Record {
	allowed := make(map[string]bool, len(keys))
	for _, k := range keys {
		allowed[k] = true
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if allowed[r.EventKey] {
			out = append(out, r)
		}
	}
	return out
}

func Compress(records []Record) []Compressed {
	out := make([]Compressed, len(records))
	for i, r := range records {
		out[i] = Compressed{EventKey: r.EventKey, Question: r.MarketQuestion, Outcomes: r.Outcomes}
	}
	return out
}
