package scoring

import (
	"testing"

	"adcopy-engine/backend/internal/candidate"
)

func scored(pairs ...[2]string) []ScoredCandidate {
	out := make([]ScoredCandidate, 0, len(pairs))
	for i, p := range pairs {
		out = append(out, ScoredCandidate{
			Candidate: candidate.Candidate{Headline: p[0], Subline: p[1]},
			Score:     float64(100 - i),
		})
	}
	return out
}

func TestSelectDropsNearDuplicates(t *testing.T) {
	ranked := scored(
		[2]string{"Cool drink for summer!", "Try it today."},
		[2]string{"Cool drink for summer?", "Try it today!"},
	)
	got := Select(ranked, 3, 0.6)
	if len(got) != 1 {
		t.Fatalf("expected one survivor, got %d", len(got))
	}
	if got[0].Headline != "Cool drink for summer!" {
		t.Fatalf("expected the higher ranked duplicate to survive, got %q", got[0].Headline)
	}
}

func TestSelectKeepsDistinctUpToK(t *testing.T) {
	ranked := scored(
		[2]string{"여름 한정 레몬 에이드", "상큼하게 시작해요"},
		[2]string{"Cold brew for busy mornings", "Order before nine"},
		[2]string{"가을 신상 니트 입고", "따뜻한 컬러 모음"},
		[2]string{"Weekend camping checklist", "Pack light and go"},
	)

	testCases := []struct {
		name      string
		k         int
		threshold float64
		expected  int
	}{
		{"k limits output", 2, 0.6, 2},
		{"all distinct", 10, 0.6, 4},
		{"zero k clamps to one", 0, 0.6, 1},
		{"zero threshold keeps only best", 4, 0, 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Select(ranked, tc.k, tc.threshold)
			if len(got) != tc.expected {
				t.Fatalf("expected %d got %d", tc.expected, len(got))
			}
			if got[0].Headline != ranked[0].Headline {
				t.Fatalf("best candidate must lead the shortlist")
			}
		})
	}
}

func TestSelectThresholdOneAcceptsEverything(t *testing.T) {
	ranked := scored(
		[2]string{"same", "copy"},
		[2]string{"same", "copy"},
	)
	if got := Select(ranked, 5, 1); len(got) != 2 {
		t.Fatalf("expected identical candidates to pass at threshold 1, got %d", len(got))
	}
}

func TestSelectEmpty(t *testing.T) {
	if got := Select(nil, 3, 0.6); len(got) != 0 {
		t.Fatalf("expected empty selection")
	}
	if got := Candidates(nil); len(got) != 0 {
		t.Fatalf("expected empty candidate list")
	}
}
