package ai

import (
	"context"
	"strings"

	"adcopy-engine/backend/internal/candidate"
)

// MockGenerator produces deterministic template candidates without any network call.
type MockGenerator struct{}

// NewMockGenerator returns the offline generator used when AI is disabled.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Enabled is always true: the mock can always answer.
func (m *MockGenerator) Enabled() bool { return true }

// Generate fills three fixed templates from the brief.
func (m *MockGenerator) Generate(_ context.Context, req GenerateRequest) ([]candidate.Raw, error) {
	b := req.Brief
	subject := firstNonEmpty(b.Product, first(b.Keywords), b.Brand, "오늘의 선택")
	word, cta := "데일리", "지금 확인하세요"
	if b.Persona != nil {
		word = firstNonEmpty(first(b.Persona.Lexicon), word)
		cta = firstNonEmpty(first(b.Persona.CTA), cta)
	}
	tags := []string{subject, word, b.Brand}

	raws := []candidate.Raw{
		{
			Headline: subject + ", 지금 만나보세요",
			Subline:  word + " 감성으로 채우는 하루, " + cta,
			Hashtags: tags,
			Reasons:  "행동 유도형",
		},
		{
			Headline: subject + " 써보셨나요?",
			Subline:  "후기로 검증된 차이, 직접 비교해 보세요",
			Hashtags: tags,
			Reasons:  "호기심 유발형",
		},
		{
			Headline: "새로운 " + subject,
			Subline:  "가볍게 시작하는 " + word + " 선택",
			Hashtags: tags,
			Reasons:  "간결형",
		},
	}
	if n := b.Count; n > 0 && n < len(raws) {
		raws = raws[:n]
	}
	return raws, nil
}

// Regenerate hands the target back unchanged; deterministic fixes happen downstream.
func (m *MockGenerator) Regenerate(_ context.Context, _ string, target candidate.Candidate) (candidate.Raw, error) {
	return candidate.Raw{
		Headline: target.Headline,
		Subline:  target.Subline,
		Hashtags: append([]string(nil), target.Hashtags...),
		Reasons:  target.Reasons,
	}, nil
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
