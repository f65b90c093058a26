// Package extract pulls structured facts out of market question and
// outcome-label text.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	dollarRe   = regexp.MustCompile(`\$\s?(\d{1,3}(?:,\d{3})+|\d+)`)
	negationRe = regexp.MustCompile(`(?i)\b(no|none|zero)\b`)
	integerRe  = regexp.MustCompile(`\d+`)
)

var priceTargetPhrases = []string{"reach $", "hit $", "above $"}

// DollarThreshold returns the integer dollar amount following the first
// "$" in question. Thousands separators are accepted; cents are dropped.
func DollarThreshold(question string) (int, bool) {
	idx := strings.Index(question, "$")
	if idx < 0 {
		return 0, false
	}
	m := dollarRe.FindStringSubmatch(question[idx:])
	if m == nil || !strings.HasPrefix(question[idx:], m[0]) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

// CutCount reads the number of rate cuts an outcome label stands for.
// "No change", "None" and "Zero" count as 0.
func CutCount(label string) (int, bool) {
	if negationRe.MatchString(label) {
		return 0, true
	}
	m := integerRe.FindString(label)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MentionsEntity reports whether question names any alias, case-insensitively.
func MentionsEntity(question string, aliases []string) bool {
	q := strings.ToLower(question)
	for _, a := range aliases {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" && strings.Contains(q, a) {
			return true
		}
	}
	return false
}

// IsPriceTarget reports whether question asks about a price level.
func IsPriceTarget(question string) bool {
	q := strings.ToLower(question)
	for _, p := range priceTargetPhrases {
		if strings.Contains(q, p) {
			return true
		}
	}
	return false
}
