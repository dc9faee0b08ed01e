package travel

import (
	"sort"
	"strings"
)

// Relevance weights applied when ranking search results
const (
	ScoreTitleContains       = 10
	ScoreTitlePrefix         = 5
	ScorePlaceContains       = 7
	ScoreDescriptionContains = 3
)

// Score returns the relevance of t for an already trimmed query.
// Matching is case-insensitive.
func Score(t Travel, query string) int {
	q := strings.ToLower(query)
	if q == "" {
		return 0
	}

	score := 0
	title := strings.ToLower(t.Title)
	if strings.Contains(title, q) {
		score += ScoreTitleContains
		if strings.HasPrefix(title, q) {
			score += ScoreTitlePrefix
		}
	}
	if strings.Contains(strings.ToLower(t.Place), q) {
		score += ScorePlaceContains
	}
	if strings.Contains(strings.ToLower(t.Description), q) {
		score += ScoreDescriptionContains
	}
	return score
}

// Rank returns a copy of travels ordered by descending score.
// Equal scores keep the order the backend returned.
func Rank(travels []Travel, query string) []Travel {
	query = strings.TrimSpace(query)

	type scored struct {
		travel Travel
		score  int
	}
	items := make([]scored, len(travels))
	for i, t := range travels {
		items[i] = scored{travel: t, score: Score(t, query)}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	ranked := make([]Travel, len(items))
	for i, item := range items {
		ranked[i] = item.travel
	}
	return ranked
}
