package match

import (
	"strings"
	"testing"
)

func TestSmartTrim(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		limit    int
		expected string
	}{
		{"fits", "  Cool drink for summer ", 30, "Cool drink for summer"},
		{"exact", "Summer", 6, "Summer"},
		{"word boundary", "Cool drink for summer days", 17, "Cool drink for…"},
		{"strips separators", "Fresh, cold, sweet", 12, "Fresh, cold…"},
		{"keeps sentence end", "Buy now! Limited stock left", 10, "Buy now!"},
		{"unavoidable mid word", "Supercalifragilistic", 5, "Super…"},
		{"hangul", "여름에 딱 맞는 시원한 음료", 8, "여름에 딱 맞는…"},
		{"zero limit", "anything", 0, ""},
		{"empty", "   ", 5, ""},
		{"only separators", "----------", 3, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SmartTrim(tc.text, tc.limit)
			if got != tc.expected {
				t.Fatalf("expected %q got %q", tc.expected, got)
			}
		})
	}
}

func TestSmartTrimBounds(t *testing.T) {
	inputs := []string{
		"Cool drink for summer, try it today",
		"여름 한정! 시원한 레몬에이드로 더위를 날려보세요",
		"abc def ghi jkl mno pqr stu vwx yz",
		"no-spaces-but-dashes-everywhere-here",
		"Ends with period. Then more words follow here.",
		"한 글자씩",
	}
	for _, in := range inputs {
		for limit := 0; limit <= RuneLen(in)+2; limit++ {
			once := SmartTrim(in, limit)
			if RuneLen(once) > limit+RuneLen(Ellipsis) {
				t.Fatalf("SmartTrim(%q, %d) = %q exceeds bound", in, limit, once)
			}
			if twice := SmartTrim(once, limit); twice != once {
				t.Fatalf("SmartTrim not idempotent for %q at %d: %q then %q", in, limit, once, twice)
			}
		}
	}
}

func TestJaccard(t *testing.T) {
	same := Bigrams("Cool drink for summer")
	if got := Jaccard(same, Bigrams("cool DRINK for summer")); got != 1 {
		t.Fatalf("expected case-insensitive identity, got %f", got)
	}
	near := Jaccard(Bigrams("Cool drink for summerTry it today"), Bigrams("Cool drink for summer!Try it today."))
	if near < 0.6 {
		t.Fatalf("expected punctuation variants to be similar, got %f", near)
	}
	far := Jaccard(Bigrams("Cool drink for summer"), Bigrams("겨울 한정 코트 세일"))
	if far != 0 {
		t.Fatalf("expected disjoint texts, got %f", far)
	}
	if got := Jaccard(Bigrams(""), Bigrams("")); got != 1 {
		t.Fatalf("expected empty texts identical, got %f", got)
	}
}

func TestCounting(t *testing.T) {
	text := "Acme makes acme things. ACME!"
	if got := CountFold(text, "acme"); got != 3 {
		t.Fatalf("expected 3 got %d", got)
	}
	if got := CountExact(text, "acme"); got != 1 {
		t.Fatalf("expected 1 got %d", got)
	}
	if !ContainsAnyFold(text, []string{"zzz", "THINGS"}) {
		t.Fatalf("expected a hit")
	}
	if ContainsFold(text, "  ") {
		t.Fatalf("blank needle must not match")
	}
}

func TestUnionAndSplit(t *testing.T) {
	got := Union([]string{"가성비", "감성"}, []string{"감성", " 할인 ", ""})
	if strings.Join(got, "|") != "가성비|감성|할인" {
		t.Fatalf("unexpected union %v", got)
	}
	split := SplitTerms("빠른배송, 신상,,빠른배송\n한정")
	if strings.Join(split, "|") != "빠른배송|신상|한정" {
		t.Fatalf("unexpected split %v", split)
	}
}
