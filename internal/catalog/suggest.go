package catalog

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// didYouMean returns ` (did you mean "x"?)` for the closest candidate within
// an edit-distance budget scaled to its length, or "" when nothing is close.
func didYouMean(token string, candidates []string) string {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return ""
	}

	type scored struct {
		val  string
		dist int
	}
	var matches []scored
	for _, cand := range candidates {
		dist := levenshtein.ComputeDistance(token, strings.ToLower(cand))
		if dist > distanceLimit(len([]rune(cand))) {
			continue
		}
		matches = append(matches, scored{val: cand, dist: dist})
	}
	if len(matches) == 0 {
		return ""
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].dist == matches[j].dist {
			return matches[i].val < matches[j].val
		}
		return matches[i].dist < matches[j].dist
	})
	return ` (did you mean "` + matches[0].val + `"?)`
}

func distanceLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

func asStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
