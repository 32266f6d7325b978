package schema

// Ratio computes a 0-100 similarity score between two strings based on
// normalized Levenshtein edit distance over runes:
//
//	ratio = (1 - distance/max(len(a), len(b))) * 100
//
// Insertions, deletions and substitutions all cost 1. Two empty strings score
// 100. The scorer is intentionally simple; the reconciliation threshold it is
// paired with is configurable.
func Ratio(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 100
	}

	dist := levenshtein(ra, rb)
	return int((1.0 - float64(dist)/float64(maxLen)) * 100)
}

// levenshtein computes edit distance with the two-row dynamic programming
// formulation.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(
				curr[j-1]+1,    // insertion
				prev[j]+1,      // deletion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
