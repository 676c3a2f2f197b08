package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), true)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleGeneration(requestID, persona, platform string, score float64) *Generation {
	g := &Generation{
		RequestID:        requestID,
		Source:           "generate",
		Persona:          persona,
		Platform:         platform,
		Headline:         "여름엔 레몬",
		Subline:          "지금 바로 상큼하게",
		BestScore:        score,
		RefinementStatus: "accepted",
	}
	g.SetHashtags([]string{"#레몬", "#여름"})
	first := CandidateScore{Position: 1, Headline: "여름엔 레몬", Subline: "지금 바로 상큼하게", Score: score, Shortlisted: true}
	first.SetHashtags([]string{"#레몬"})
	g.Candidates = []CandidateScore{
		first,
		{Position: 2, Headline: "레몬 에이드", Subline: "한 잔으로 충분해요", Score: score - 5},
	}
	return g
}

func TestSaveAndGetGeneration(t *testing.T) {
	db := openTestDB(t)
	g := sampleGeneration("req-1", "20대 학생", "instagram", 92.5)
	g.SetUnmet([]string{"Include the brand name"})
	if err := db.SaveGeneration(g); err != nil {
		t.Fatalf("save: %v", err)
	}
	if g.ID == 0 {
		t.Fatalf("expected generated id")
	}
	if len(g.Candidates) != 2 || g.Candidates[0].GenerationID != g.ID {
		t.Fatalf("expected candidates to be linked, got %+v", g.Candidates)
	}

	got, err := db.GetGeneration(g.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff([]string{"#레몬", "#여름"}, got.Hashtags()); diff != "" {
		t.Fatalf("hashtags mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Include the brand name"}, got.Unmet()); diff != "" {
		t.Fatalf("unmet mismatch (-want +got):\n%s", diff)
	}
	if len(got.Candidates) != 2 || got.Candidates[0].Position != 1 || got.Candidates[1].Position != 2 {
		t.Fatalf("expected ordered candidates, got %+v", got.Candidates)
	}
	if diff := cmp.Diff([]string{"#레몬"}, got.Candidates[0].Hashtags()); diff != "" {
		t.Fatalf("candidate hashtags mismatch (-want +got):\n%s", diff)
	}
}

func TestGetGenerationNotFound(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.GetGeneration(42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveGenerationRollsBackOnDuplicate(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveGeneration(sampleGeneration("dup", "", "", 10)); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := db.SaveGeneration(sampleGeneration("dup", "", "", 20)); err == nil {
		t.Fatalf("expected unique request id violation")
	}
	count, err := db.CountGenerations()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 generation, got %d", count)
	}
	var candidates int64
	if err := db.GORM().Model(&CandidateScore{}).Count(&candidates).Error; err != nil {
		t.Fatalf("count candidates: %v", err)
	}
	if candidates != 2 {
		t.Fatalf("expected only the first generation's candidates, got %d", candidates)
	}
}

func TestListGenerations(t *testing.T) {
	db := openTestDB(t)
	rows := []*Generation{
		sampleGeneration("a", "20대 학생", "instagram", 80),
		sampleGeneration("b", "30대 육아", "naver", 95),
		sampleGeneration("c", "20대 학생", "Instagram", 70),
	}
	for _, g := range rows {
		if err := db.SaveGeneration(g); err != nil {
			t.Fatalf("save %s: %v", g.RequestID, err)
		}
	}

	testCases := []struct {
		name     string
		query    GenerationQuery
		total    int64
		expected []string
	}{
		{"newest first", GenerationQuery{}, 3, []string{"c", "b", "a"}},
		{"by persona", GenerationQuery{Persona: "20대 학생"}, 2, []string{"c", "a"}},
		{"platform ignores case", GenerationQuery{Platform: "INSTAGRAM", Sort: "score_desc"}, 2, []string{"a", "c"}},
		{"paged", GenerationQuery{Sort: "score_desc", Limit: 1, Offset: 1}, 3, []string{"a"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, total, err := db.ListGenerations(tc.query)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if total != tc.total {
				t.Fatalf("expected total %d got %d", tc.total, total)
			}
			ids := make([]string, 0, len(got))
			for _, g := range got {
				ids = append(ids, g.RequestID)
			}
			if diff := cmp.Diff(tc.expected, ids); diff != "" {
				t.Fatalf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
