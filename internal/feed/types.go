package feed

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Event is the subset of a Gamma event payload the pipeline reads.
type Event struct {
	ID      FlexString `json:"id"`
	Title   string     `json:"title"`
	Slug    string     `json:"slug,omitempty"`
	Markets []Market   `json:"markets"`
}

// Market is one question inside a Gamma event. Gamma encodes the list
// fields as JSON strings; EncodedList accepts either shape.
type Market struct {
	ID             FlexString  `json:"id"`
	Question       string      `json:"question"`
	GroupItemTitle string      `json:"groupItemTitle,omitempty"`
	ClobTokenIDs   EncodedList `json:"clobTokenIds"`
	Outcomes       EncodedList `json:"outcomes"`
	OutcomePrices  EncodedList `json:"outcomePrices"`
	Volume         FlexString  `json:"volume"`
	EndDate        string      `json:"endDate,omitempty"`
}

// EncodedList is a list of scalars that arrives either as a native JSON
// array or as a string holding a JSON array. Decoding never fails: a
// malformed value leaves Valid false so the caller can skip the market.
type EncodedList struct {
	Items   []string
	Present bool
	Valid   bool
}

// List builds a valid, present EncodedList.
func List(items ...string) EncodedList {
	return EncodedList{Items: items, Present: true, Valid: true}
}

func (l *EncodedList) UnmarshalJSON(data []byte) error {
	*l = EncodedList{}
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	l.Present = true

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		raw = []byte(strings.TrimSpace(s))
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	items := make([]string, 0, len(elems))
	for _, e := range elems {
		var s string
		if err := json.Unmarshal(e, &s); err == nil {
			items = append(items, s)
			continue
		}
		var n json.Number
		if err := json.Unmarshal(e, &n); err != nil {
			return nil
		}
		items = append(items, n.String())
	}
	l.Items = items
	l.Valid = true
	return nil
}

func (l EncodedList) MarshalJSON() ([]byte, error) {
	if !l.Present {
		return []byte("null"), nil
	}
	if !l.Valid {
		return []byte(`""`), nil
	}
	items := l.Items
	if items == nil {
		items = []string{}
	}
	return json.Marshal(items)
}

// FlexString accepts a JSON string or number and keeps its text form.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if bytes.Equal(raw, []byte("null")) {
		*f = ""
		return nil
	}
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }
