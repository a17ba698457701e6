package stats

import (
	"sort"

	"github.com/verte-zerg/blinktalk/internal/model"
)

// TopPhrases merges counts across modes and returns the n most spoken texts.
func TopPhrases(counts []model.PhraseCount, n int) []string {
	if n <= 0 || len(counts) == 0 {
		return nil
	}
	totals := map[string]int{}
	for _, c := range counts {
		totals[c.Text] += c.Count
	}
	texts := make([]string, 0, len(totals))
	for text := range totals {
		texts = append(texts, text)
	}
	sort.Slice(texts, func(i, j int) bool {
		if totals[texts[i]] == totals[texts[j]] {
			return texts[i] < texts[j]
		}
		return totals[texts[i]] > totals[texts[j]]
	})
	if n < len(texts) {
		texts = texts[:n]
	}
	return texts
}
