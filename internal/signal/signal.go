// Package signal derives bounded summary statistics from normalized markets.
package signal

import (
	"math"
	"sort"
	"strings"

	"github.com/GoPolymarket/polymarket-regime/internal/extract"
	"github.com/GoPolymarket/polymarket-regime/internal/market"
	"github.com/shopspring/decimal"
)

// EntitySignal summarises the "Yes" probabilities of an entity's material
// price-target markets. Confidence is nil unless at least two targets count.
type EntitySignal struct {
	Confidence     *float64 `json:"confidence"`
	AvgProbability *float64 `json:"avg_probability"`
	Dispersion     *float64 `json:"dispersion"`
	NumTargets     int      `json:"num_targets"`
}

// Profile describes an entity that has a family of price-target markets.
type Profile struct {
	Ticker         string
	Aliases        []string
	MaterialityMin int
}

func DefaultProfiles() []Profile {
	return []Profile{{Ticker: "NVDA", Aliases: []string{"NVIDIA"}, MaterialityMin: 200}}
}

func (p Profile) matches(entity string) bool {
	if strings.EqualFold(p.Ticker, entity) {
		return true
	}
	for _, a := range p.Aliases {
		if strings.EqualFold(a, entity) {
			return true
		}
	}
	return false
}

func (p Profile) questionAliases() []string {
	if len(p.Aliases) == 0 {
		return []string{p.Ticker}
	}
	return p.Aliases
}

func resolve(entity string, profiles []Profile) (Profile, bool) {
	entity = strings.TrimSpace(entity)
	for _, p := range profiles {
		if p.matches(entity) {
			return p, true
		}
	}
	return Profile{}, false
}

// Company computes the signal for one entity. Entities without a profile
// get an empty signal.
func Company(entity string, markets []market.Compressed, profiles []Profile) EntitySignal {
	p, ok := resolve(entity, profiles)
	if !ok {
		return EntitySignal{}
	}

	var probs []float64
	for _, m := range markets {
		if !extract.MentionsEntity(m.Question, p.questionAliases()) || !extract.IsPriceTarget(m.Question) {
			continue
		}
		threshold, ok := extract.DollarThreshold(m.Question)
		if !ok || threshold < p.MaterialityMin {
			continue
		}
		yes, _ := m.Outcomes.Get("Yes")
		probs = append(probs, yes)
	}

	sig := EntitySignal{NumTargets: len(probs)}
	if len(probs) < 2 {
		return sig
	}
	mean, std := meanPstdev(probs)
	sig.Confidence = ptr(round(mean*(1-std), 3))
	sig.AvgProbability = ptr(round(mean, 3))
	sig.Dispersion = ptr(round(std, 3))
	return sig
}

// Companies computes a signal per requested entity, keyed by the caller's spelling.
func Companies(entities []string, markets []market.Compressed, profiles []Profile) map[string]EntitySignal {
	out := make(map[string]EntitySignal, len(entities))
	for _, e := range entities {
		out[e] = Company(e, markets, profiles)
	}
	return out
}

// RelevantEventKeys lists the event keys that move company, via its macro
// categories. The result is sorted and deduplicated.
func RelevantEventKeys(company string, categories, companyCategories map[string][]string) []string {
	cats, ok := companyCategories[strings.ToUpper(strings.TrimSpace(company))]
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var keys []string
	for _, c := range cats {
		for _, k := range categories[c] {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func meanPstdev(xs []float64) (mean, std float64) {
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(xs)))
}

func round(x float64, places int32) float64 {
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}

func ptr(v float64) *float64 { return &v }
