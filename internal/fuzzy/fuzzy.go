// Package fuzzy ranks close matches for suggestion messages: mistyped flag
// names, enum members and bound-state keys.
package fuzzy

import "strings"

// minInputLength guards against suggesting on inputs too short to carry a
// recognizable typo.
const minInputLength = 2

// Closest returns the candidate nearest to input within maxDistance edits,
// or "" when nothing qualifies. Matching is case-insensitive; ties prefer
// the longer common prefix, then declaration order.
func Closest(input string, candidates []string, maxDistance int) string {
	if len(input) < minInputLength {
		return ""
	}
	lowered := strings.ToLower(input)

	best := ""
	bestDist := maxDistance + 1
	bestPrefix := -1
	for _, candidate := range candidates {
		cl := strings.ToLower(candidate)
		if cl == lowered {
			continue // exact match is not a typo
		}
		d := distanceWithin(lowered, cl, maxDistance)
		if d > maxDistance {
			continue
		}
		p := commonPrefix(lowered, cl)
		if d < bestDist || (d == bestDist && p > bestPrefix) {
			best, bestDist, bestPrefix = candidate, d, p
		}
	}
	return best
}

// distanceWithin computes the Levenshtein distance between a and b, giving
// up with limit+1 as soon as the distance is known to exceed limit. Two
// rolling rows keep the allocation small.
func distanceWithin(a, b string, limit int) int {
	if a == b {
		return 0
	}
	if abs(len(a)-len(b)) > limit {
		return limit + 1
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	if len(a) == 0 {
		return len(b)
	}

	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for i := range prev {
		prev[i] = i
	}

	for i := 1; i <= len(b); i++ {
		curr[0] = i
		rowMin := i
		for j := 1; j <= len(a); j++ {
			cost := 1
			if a[j-1] == b[i-1] {
				cost = 0
			}
			d := prev[j-1] + cost
			if del := prev[j] + 1; del < d {
				d = del
			}
			if ins := curr[j-1] + 1; ins < d {
				d = ins
			}
			curr[j] = d
			if d < rowMin {
				rowMin = d
			}
		}
		if rowMin > limit {
			return limit + 1
		}
		prev, curr = curr, prev
	}
	return prev[len(a)]
}

func commonPrefix(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
