package episode

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// minPatternFrequency is the smallest group size that becomes a Pattern.
const minPatternFrequency = 2

// stopWords are filtered out of context_markers to keep generated search
// terms meaningful.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "must": true, "shall": true,
	"and": true, "but": true, "or": true, "nor": true, "for": true,
	"yet": true, "so": true, "to": true, "of": true, "in": true,
	"on": true, "at": true, "by": true, "with": true, "from": true,
	"it": true, "its": true, "this": true, "that": true, "these": true,
	"those": true, "which": true, "what": true, "who": true, "whom": true,
}

// ExtractPatterns groups episodes with identical action sequences into
// Patterns. Groups smaller than minPatternFrequency are dropped.
// Patterns are sorted by frequency*success_rate descending.
func ExtractPatterns(episodes []Episode) []Pattern {
	groups := make(map[string][]Episode)
	var order []string

	for _, ep := range episodes {
		key := actionSequenceKey(ep.Actions)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], ep)
	}

	patterns := make([]Pattern, 0, len(order))
	for i, key := range order {
		members := groups[key]
		if len(members) < minPatternFrequency {
			continue
		}

		successSum := 0.0
		for _, ep := range members {
			if ep.Outcome != nil {
				successSum += patternValue(ep.Outcome.Status)
			}
		}
		successRate := successSum / float64(len(members))

		patterns = append(patterns, Pattern{
			ID:             "pattern-" + key[:min(len(key), 12)] + "-" + strconv.Itoa(i),
			Name:           "Pattern " + strconv.Itoa(i+1),
			Description:    describeSequence(members[0].Actions),
			ActionSequence: sequenceOf(members[0].Actions),
			Frequency:      len(members),
			SuccessRate:    successRate,
			ContextMarkers: contextMarkers(members[0].Task),
		})
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		scoreI := float64(patterns[i].Frequency) * patterns[i].SuccessRate
		scoreJ := float64(patterns[j].Frequency) * patterns[j].SuccessRate
		return scoreI > scoreJ
	})

	return patterns
}

func actionSequenceKey(actions []Action) string {
	kinds := make([]string, len(actions))
	for i, a := range actions {
		kinds[i] = string(a.Kind)
	}
	return strings.Join(kinds, "|")
}

func sequenceOf(actions []Action) []ActionKind {
	kinds := make([]ActionKind, len(actions))
	for i, a := range actions {
		kinds[i] = a.Kind
	}
	return kinds
}

func describeSequence(actions []Action) string {
	kinds := make([]string, len(actions))
	for i, a := range actions {
		kinds[i] = string(a.Kind)
	}
	return strings.Join(kinds, " -> ")
}

// contextMarkers extracts keywords from a task description: stop-word
// filtered, length > 2, lowercased.
func contextMarkers(task string) []string {
	words := strings.FieldsFunc(task, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	markers := make([]string, 0, len(words))
	for _, w := range words {
		lower := strings.ToLower(w)
		if len(lower) <= 2 || stopWords[lower] {
			continue
		}
		markers = append(markers, lower)
	}
	return markers
}
