package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Outcome struct {
	Label       string
	Probability float64
}

// Distribution is an ordered label->probability mapping. It encodes as a
// JSON object whose keys keep the order of the outcome tokens.
type Distribution []Outcome

func (d Distribution) Get(label string) (float64, bool) {
	for _, o := range d {
		if o.Label == label {
			return o.Probability, true
		}
	}
	return 0, false
}

func (d Distribution) Sum() float64 {
	var s float64
	for _, o := range d {
		s += o.Probability
	}
	return s
}

func (d Distribution) Labels() []string {
	out := make([]string, len(d))
	for i, o := range d {
		out[i] = o.Label
	}
	return out
}

func (d Distribution) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, o := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(o.Label)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(o.Probability)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *Distribution) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*d = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("outcomes: expected object, got %v", tok)
	}
	out := Distribution{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		label, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("outcomes: expected string key, got %v", keyTok)
		}
		var p float64
		if err := dec.Decode(&p); err != nil {
			return fmt.Errorf("outcomes[%s]: %w", label, err)
		}
		out = append(out, Outcome{Label: label, Probability: p})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*d = out
	return nil
}
