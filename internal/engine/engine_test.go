package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"adcopy-engine/backend/internal/candidate"
	"adcopy-engine/backend/internal/scoring"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestEngine() *Engine {
	return New(nil, scoring.NewScorer(nil), Config{RefineTimeout: time.Second})
}

func TestProduceWithoutConstraints(t *testing.T) {
	res := newTestEngine().Produce(context.Background(), Input{
		Raw: []candidate.Raw{{Headline: "Cool drink for summer", Subline: "Try it today"}},
	})
	if res.Placeholder {
		t.Fatalf("did not expect placeholder")
	}
	if res.Best.Headline != "Cool drink for summer" || res.Best.Subline != "Try it today" {
		t.Fatalf("unexpected best %+v", res.Best)
	}
	want := 100 - 0.8*3 - 0.2*36
	if got := res.Ranked[0].Score; got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("expected score %.2f got %.2f", want, got)
	}
	if res.Refinement.Attempted {
		t.Fatalf("no refinement expected without constraints")
	}
	if len(res.Timings) != 4 {
		t.Fatalf("expected four stage timings, got %v", res.Timings)
	}
}

func TestProducePersonaPrefersLexicon(t *testing.T) {
	res := newTestEngine().Produce(context.Background(), Input{
		Persona: "20대 학생",
		Raw: []candidate.Raw{
			{Headline: "새 학기 노트 세트", Subline: "필기가 즐거워지는 구성"},
			{Headline: "가성비 노트 세트", Subline: "지금 확인하고 학생 할인 받기"},
		},
	})
	if res.Persona == nil {
		t.Fatalf("expected persona to resolve")
	}
	if res.Ranked[0].Headline != "가성비 노트 세트" {
		t.Fatalf("expected lexicon candidate first, got %q", res.Ranked[0].Headline)
	}
	if res.Ranked[0].Breakdown.Persona <= res.Ranked[1].Breakdown.Persona {
		t.Fatalf("expected higher persona boost for lexicon candidate")
	}
}

func TestProduceBrandFallback(t *testing.T) {
	calls := 0
	regenerate := func(_ context.Context, _ string, target candidate.Candidate) (candidate.Candidate, error) {
		calls++
		return candidate.Candidate{Headline: target.Headline, Subline: "Fresh every day"}, nil
	}
	res := newTestEngine().Produce(context.Background(), Input{
		Raw:              []candidate.Raw{{Headline: "Cool drink for summer", Subline: "Try it today"}},
		Brand:            "Acme",
		MustIncludeBrand: true,
		Regenerate:       regenerate,
	})
	if calls != 1 {
		t.Fatalf("expected exactly one regeneration, got %d", calls)
	}
	if !strings.Contains(res.Best.Subline, "Acme") {
		t.Fatalf("expected brand in final subline, got %q", res.Best.Subline)
	}
	if !res.Refinement.BrandAppended {
		t.Fatalf("expected deterministic brand append")
	}
}

func TestProduceRegenerationErrorKeepsBest(t *testing.T) {
	regenerate := func(context.Context, string, candidate.Candidate) (candidate.Candidate, error) {
		return candidate.Candidate{}, errors.New("connection reset")
	}
	res := newTestEngine().Produce(context.Background(), Input{
		Raw:                 []candidate.Raw{{Headline: "여름 음료", Subline: "시원하게 즐겨요"}},
		Keywords:            []string{"레몬"},
		MustIncludeKeywords: true,
		Regenerate:          regenerate,
	})
	if res.Best.Headline != "여름 음료" || res.Best.Subline != "시원하게 즐겨요" {
		t.Fatalf("expected original best, got %+v", res.Best)
	}
	if res.Refinement.Error == "" {
		t.Fatalf("expected refinement error to be recorded")
	}
}

func TestProduceDropsNearDuplicates(t *testing.T) {
	res := newTestEngine().Produce(context.Background(), Input{
		Raw: []candidate.Raw{
			{Headline: "Cool drink for summer!", Subline: "Try it today."},
			{Headline: "Cool drink for summer?", Subline: "Try it today!"},
		},
		SimilarityThreshold: 0.6,
	})
	if len(res.Ranked) != 2 {
		t.Fatalf("expected both candidates ranked, got %d", len(res.Ranked))
	}
	if len(res.Alternatives) != 1 {
		t.Fatalf("expected one alternative, got %d", len(res.Alternatives))
	}
}

func TestProducePlaceholderOnEmptyInput(t *testing.T) {
	testCases := []struct {
		name string
		raw  []candidate.Raw
	}{
		{"no candidates", nil},
		{"only blanks", []candidate.Raw{{Headline: " ", Subline: ""}, {Hashtags: []string{"#x"}}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := newTestEngine().Produce(context.Background(), Input{Raw: tc.raw})
			if !res.Placeholder {
				t.Fatalf("expected placeholder")
			}
			if res.Dropped != len(tc.raw) {
				t.Fatalf("expected %d dropped, got %d", len(tc.raw), res.Dropped)
			}
			want := candidate.Placeholder(candidate.DefaultLimits())
			if res.Best.Headline != want.Headline || len(res.Alternatives) != 1 {
				t.Fatalf("unexpected placeholder result %+v", res)
			}
		})
	}
}

func TestProduceHonoursLimits(t *testing.T) {
	limits := candidate.Limits{Headline: 8, Subline: 12, Hashtags: 1}
	res := newTestEngine().Produce(context.Background(), Input{
		Raw: []candidate.Raw{{
			Headline: "A very long headline about summer drinks",
			Subline:  "A subline that goes on for much longer than allowed",
			Hashtags: []string{"one", "two"},
		}},
		Limits: limits,
	})
	if n := len([]rune(res.Best.Headline)); n > limits.Headline+1 {
		t.Fatalf("headline too long: %q", res.Best.Headline)
	}
	if n := len([]rune(res.Best.Subline)); n > limits.Subline+1 {
		t.Fatalf("subline too long: %q", res.Best.Subline)
	}
	if len(res.Best.Hashtags) != 1 {
		t.Fatalf("expected one hashtag, got %v", res.Best.Hashtags)
	}
}

func TestProduceZeroLimitsUseDefaults(t *testing.T) {
	res := newTestEngine().Produce(context.Background(), Input{
		Raw: []candidate.Raw{{Headline: "여름 음료", Subline: "시원하게 즐겨요", Hashtags: []string{"a", "b", "c", "d"}}},
	})
	if len(res.Best.Hashtags) != candidate.DefaultLimits().Hashtags {
		t.Fatalf("expected default hashtag count, got %v", res.Best.Hashtags)
	}

	res = newTestEngine().Produce(context.Background(), Input{
		Raw:    []candidate.Raw{{Headline: "여름 음료", Subline: "시원하게 즐겨요", Hashtags: []string{"a"}}},
		Limits: candidate.Limits{Headline: 20},
	})
	if len(res.Best.Hashtags) != 0 {
		t.Fatalf("explicit zero hashtag limit must be kept, got %v", res.Best.Hashtags)
	}
}

func TestProduceEmojiPolicy(t *testing.T) {
	raw := []candidate.Raw{{Headline: "여름 음료", Subline: "시원하게 즐겨요", Hashtags: []string{"여름☀️", "🍹"}}}
	testCases := []struct {
		name    string
		persona string
		want    []string
	}{
		{"no persona is unconstrained", "", []string{"#여름☀️", "#🍹"}},
		{"allow-one persona", "20대", []string{"#여름☀️", "#🍹"}},
		{"no-emoji persona", "40대", []string{"#여름"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := newTestEngine().Produce(context.Background(), Input{Raw: raw, Persona: tc.persona})
			if diff := cmp.Diff(tc.want, res.Best.Hashtags); diff != "" {
				t.Fatalf("hashtags mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
