package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"adcopy-engine/backend/internal/candidate"
	"adcopy-engine/backend/internal/persona"
	"adcopy-engine/backend/internal/scoring"
)

const (
	// DefaultTone is used when the caller leaves the tone blank.
	DefaultTone = "짧고 강렬, 자연스러운 한국어"
	// DefaultCount is how many candidates a generation asks for.
	DefaultCount = 3

	defaultAudience = "일반 소비자"
	defaultPlatform = "플랫폼 일반 톤."
)

// System is the system message for both generation and refinement.
const System = "You are an advertising copywriter. Output concise Korean ad copy that reads naturally. " +
	"Reply with JSON only, no commentary."

// SchemaHint names the fields every candidate must carry.
const SchemaHint = `{"candidates":[{"headline":"string","subline":"string","hashtags":["string"],"reasons":"string"}]}`

var platformHints = map[string]string{
	"instagram":  "인스타그램은 짧고 강렬, 해시태그 친화적.",
	"naver":      "네이버는 정보성/신뢰감 강조.",
	"coupang":    "커머스 톤, 혜택/가격/배송 강조.",
	"smartstore": "스마트스토어 톤, 혜택·구성·신뢰 포인트.",
	"x":          "X(트위터)는 초단문 이목집중.",
}

var goalHints = map[scoring.Goal]string{
	scoring.GoalLowInvolvement:  "저관여 상품: 짧은 헤드라인과 행동을 유도하는 서브라인.",
	scoring.GoalHighInvolvement: "고관여 상품: 비교·근거·후기 등 판단 근거를 서브라인에 담기.",
	scoring.GoalCuriosity:       "호기심 유발: 헤드라인을 질문형으로 마무리.",
}

// Platforms lists the channels with a dedicated hint.
func Platforms() []string {
	return []string{"instagram", "naver", "coupang", "smartstore", "x"}
}

// PlatformHint returns the tone guide for a channel.
func PlatformHint(platform string) string {
	if hint, ok := platformHints[strings.ToLower(strings.TrimSpace(platform))]; ok {
		return hint
	}
	return defaultPlatform
}

// Brief is everything the generation prompt is built from.
type Brief struct {
	Tone                string
	Platform            string
	Audience            string
	Persona             *persona.Spec
	Goal                scoring.Goal
	Brand               string
	MustIncludeBrand    bool
	Product             string
	Keywords            []string
	MustIncludeKeywords bool
	Limits              candidate.Limits
	Count               int
}

// Generation renders the user prompt for the first generation call.
func Generation(b Brief) string {
	limits := b.Limits.WithDefaults()
	count := b.Count
	if count <= 0 {
		count = DefaultCount
	}
	tone := strings.TrimSpace(b.Tone)
	if tone == "" {
		tone = DefaultTone
	}
	audience := strings.TrimSpace(b.Audience)
	if audience == "" {
		audience = defaultAudience
	}
	spec := b.Persona
	if spec == nil {
		n := persona.Neutral()
		spec = &n
	}

	builder := &strings.Builder{}
	builder.WriteString("이 이미지에 어울리는 광고 문구를 만들어줘.\n")
	fmt.Fprintf(builder, "톤앤매너: %s\n", tone)
	fmt.Fprintf(builder, "플랫폼 가이드: %s\n", PlatformHint(b.Platform))
	fmt.Fprintf(builder, "타깃: %s\n", audience)
	if spec.Token != "" {
		fmt.Fprintf(builder, "페르소나: %s\n", spec.Token)
	}
	if spec.Style != "" {
		fmt.Fprintf(builder, "문체: %s\n", spec.Style)
	}
	if len(spec.Lexicon) > 0 {
		fmt.Fprintf(builder, "선호 어휘: %s\n", strings.Join(spec.Lexicon, ", "))
	}
	if len(spec.CTA) > 0 {
		fmt.Fprintf(builder, "행동 유도 예시: %s\n", strings.Join(spec.CTA, ", "))
	}
	if len(spec.Avoid) > 0 {
		fmt.Fprintf(builder, "피할 표현: %s\n", strings.Join(spec.Avoid, ", "))
	}
	if len(spec.Required) > 0 {
		fmt.Fprintf(builder, "반드시 하나 이상 포함: %s\n", strings.Join(spec.Required, ", "))
	}
	fmt.Fprintf(builder, "이모지: %s, 격식: %s, 문장부호: %s\n", spec.Emoji, spec.Formality, spec.Punctuation)
	if hint, ok := goalHints[b.Goal]; ok {
		fmt.Fprintf(builder, "목표: %s\n", hint)
	}
	fmt.Fprintf(builder, "브랜드: %s / 제품: %s\n", orDefault(b.Brand, "N/A"), orDefault(b.Product, "이미지 기반 추론"))
	if b.MustIncludeBrand && strings.TrimSpace(b.Brand) != "" {
		fmt.Fprintf(builder, "브랜드명 \"%s\"을 반드시 포함.\n", strings.TrimSpace(b.Brand))
	}
	if len(b.Keywords) > 0 {
		if b.MustIncludeKeywords {
			fmt.Fprintf(builder, "다음 키워드 중 하나 이상 반드시 포함: %s\n", strings.Join(b.Keywords, ", "))
		} else {
			fmt.Fprintf(builder, "참고 키워드: %s\n", strings.Join(b.Keywords, ", "))
		}
	}
	fmt.Fprintf(builder, "헤드라인 %d자 이내, 서브라인 %d자 이내, 해시태그 %d개 이내.\n", limits.Headline, limits.Subline, limits.Hashtags)
	fmt.Fprintf(builder, "서로 다른 느낌의 후보 %d개를 만들어줘. 각 후보는 헤드라인 1줄 + 서브라인 1줄 + 해시태그 제안 + 선택 이유.\n", count)
	fmt.Fprintf(builder, "다음 JSON 형식으로만 답해: %s\n", SchemaHint)
	return builder.String()
}

// Refinement renders the corrective prompt around the edit instructions and the target copy.
func Refinement(instructions string, target candidate.Candidate) (string, error) {
	body, err := json.Marshal(target)
	if err != nil {
		return "", fmt.Errorf("marshal target: %w", err)
	}
	builder := &strings.Builder{}
	builder.WriteString(strings.TrimSpace(instructions))
	builder.WriteString("\n\nCurrent copy:\n")
	builder.Write(body)
	builder.WriteString("\n\nReturn the edited copy as one JSON object with the fields headline, subline, hashtags and reasons.")
	return builder.String(), nil
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
