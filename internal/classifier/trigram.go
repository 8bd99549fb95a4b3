package classifier

import "strings"

// trigrams returns the padded character trigram set of s, lowercased.
// Padding lets single-character differences at word edges still overlap.
func trigrams(s string) map[string]bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return map[string]bool{}
	}
	padded := "  " + s + " "
	grams := make(map[string]bool, len(padded))
	for i := 0; i+3 <= len(padded); i++ {
		grams[padded[i:i+3]] = true
	}
	return grams
}

// Similarity computes the Dice coefficient between the trigram sets of two
// strings. Result is in [0,1]; identical strings score 1.
func Similarity(a, b string) float64 {
	ta := trigrams(a)
	tb := trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for g := range ta {
		if tb[g] {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(ta)+len(tb))
}
