package scoring

import (
	"adcopy-engine/backend/internal/candidate"
	"adcopy-engine/backend/internal/match"
)

// Select walks ranked best first and keeps up to k candidates whose bigram
// similarity to every already kept candidate is strictly below threshold.
// The top-ranked candidate is always kept, k below 1 is treated as 1, and a
// threshold of 1 or more disables the similarity filter.
func Select(ranked []ScoredCandidate, k int, threshold float64) []ScoredCandidate {
	if len(ranked) == 0 {
		return nil
	}
	if k < 1 {
		k = 1
	}
	picked := make([]ScoredCandidate, 0, k)
	grams := make([]map[string]struct{}, 0, k)
	for _, sc := range ranked {
		if len(picked) >= k {
			break
		}
		g := match.Bigrams(sc.Headline + sc.Subline)
		if !distinct(g, grams, threshold) {
			continue
		}
		picked = append(picked, sc)
		grams = append(grams, g)
	}
	return picked
}

// Candidates unwraps the scored list.
func Candidates(scored []ScoredCandidate) []candidate.Candidate {
	out := make([]candidate.Candidate, 0, len(scored))
	for _, sc := range scored {
		out = append(out, sc.Candidate)
	}
	return out
}

func distinct(g map[string]struct{}, accepted []map[string]struct{}, threshold float64) bool {
	if threshold >= 1 {
		return true
	}
	for _, other := range accepted {
		if match.Jaccard(g, other) >= threshold {
			return false
		}
	}
	return true
}
