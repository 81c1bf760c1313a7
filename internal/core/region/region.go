// Package region classifies a destination address into a small closed
// set of region labels by priority-ordered substring match. The
// classifier is a pure function: deterministic and total.
package region

import "strings"

// Label is one of the closed set of region labels.
type Label string

const (
	Tokyo23Wards Label = "tokyo_23_wards"
	TokyoWest    Label = "tokyo_west"
	Kanagawa     Label = "kanagawa"
	Saitama      Label = "saitama"
	Chiba        Label = "chiba"
	Other        Label = "other"
)

// rule is one priority-ordered substring test.
type rule struct {
	label   Label
	matches func(address string) bool
}

// rules is intentionally a fixed, ordered list — the substrings, the
// priority, and the fall-through are part of the external contract
// (spec.md §6) and must not be reordered or extended.
var rules = []rule{
	{Tokyo23Wards, func(a string) bool { return strings.Contains(a, "東京都") && strings.Contains(a, "区") }},
	{TokyoWest, func(a string) bool { return strings.Contains(a, "東京都") }},
	{Kanagawa, func(a string) bool { return strings.Contains(a, "神奈川県") }},
	{Saitama, func(a string) bool { return strings.Contains(a, "埼玉県") }},
	{Chiba, func(a string) bool { return strings.Contains(a, "千葉県") }},
}

// Classify returns the first matching label for address, or Other if
// none match.
func Classify(address string) Label {
	for _, r := range rules {
		if r.matches(address) {
			return r.label
		}
	}
	return Other
}
