package compare

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mquispe/planscope/internal/store"
)

// MergedCategory is one row of the thematic comparison: a normalized category
// with both candidates' mention counts.
type MergedCategory struct {
	Category string `json:"category"`
	CountA   int    `json:"candidateA"`
	CountB   int    `json:"candidateB"`
}

// MergeThematic unions the two candidates' category maps on normalized names.
// A's categories are inserted first with countB=0, then B's values update or
// extend the map. Rows are sorted descending by combined count; ties keep
// insertion order.
func MergeThematic(a, b []store.ThematicClassification) []MergedCategory {
	index := map[string]int{}
	var rows []MergedCategory

	for _, item := range a {
		key := NormalizeCategory(item.Category)
		if i, ok := index[key]; ok {
			// Last value wins when two raw names normalize to the
			// same key, matching the B pass below.
			rows[i].CountA = item.Count
			continue
		}
		index[key] = len(rows)
		rows = append(rows, MergedCategory{Category: key, CountA: item.Count})
	}
	for _, item := range b {
		key := NormalizeCategory(item.Category)
		if i, ok := index[key]; ok {
			rows[i].CountB = item.Count
			continue
		}
		index[key] = len(rows)
		rows = append(rows, MergedCategory{Category: key, CountB: item.Count})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CountA+rows[i].CountB > rows[j].CountA+rows[j].CountB
	})
	return rows
}

// MergedTypology is one row of the typology comparison, keyed on the raw
// typology value — the enum is already canonical, so no normalization.
type MergedTypology struct {
	Typology string `json:"typology"`
	CountA   int    `json:"candidateA"`
	CountB   int    `json:"candidateB"`
}

func MergeTypology(a, b []store.ProposalTypology) []MergedTypology {
	index := map[string]int{}
	var rows []MergedTypology

	for _, item := range a {
		if i, ok := index[item.Typology]; ok {
			rows[i].CountA += item.Count
			continue
		}
		index[item.Typology] = len(rows)
		rows = append(rows, MergedTypology{Typology: item.Typology, CountA: item.Count})
	}
	for _, item := range b {
		if i, ok := index[item.Typology]; ok {
			rows[i].CountB = item.Count
			continue
		}
		index[item.Typology] = len(rows)
		rows = append(rows, MergedTypology{Typology: item.Typology, CountB: item.Count})
	}
	return rows
}

// RadarRow scores one topic 1–5 for each candidate on the detail-level radar.
type RadarRow struct {
	Topic  string `json:"topic"`
	ScoreA int    `json:"candidateA"`
	ScoreB int    `json:"candidateB"`
}

// DetailRadar derives radar rows for the union of topics across both
// candidates' detail-level maps. A topic scores 5 when its label list contains
// "alto", 3 for "medio", and 1 otherwise — absence for one candidate scores
// the default 1.
func DetailRadar(a, b map[string][]string) []RadarRow {
	seen := map[string]bool{}
	var topics []string
	for topic := range a {
		if !seen[topic] {
			seen[topic] = true
			topics = append(topics, topic)
		}
	}
	for topic := range b {
		if !seen[topic] {
			seen[topic] = true
			topics = append(topics, topic)
		}
	}
	sort.Strings(topics)

	rows := make([]RadarRow, 0, len(topics))
	for _, topic := range topics {
		rows = append(rows, RadarRow{
			Topic:  capitalize(topic),
			ScoreA: detailScore(a[topic]),
			ScoreB: detailScore(b[topic]),
		})
	}
	return rows
}

func detailScore(labels []string) int {
	has := func(want string) bool {
		for _, l := range labels {
			if l == want {
				return true
			}
		}
		return false
	}
	switch {
	case has("alto"):
		return 5
	case has("medio"):
		return 3
	default:
		return 1
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return strings.ToUpper(string(r)) + s[size:]
}

// DisplayScore converts a raw [0,1] plan score to its percentage display value.
func DisplayScore(score float64) int {
	return int(score*100 + 0.5)
}

// ScoreLabel buckets a raw score into its qualitative label.
func ScoreLabel(score float64) string {
	switch {
	case score >= 0.70:
		return "Alto"
	case score >= 0.50:
		return "Medio"
	case score >= 0.30:
		return "Bajo"
	default:
		return "Muy bajo"
	}
}
