package scoring

import (
	"math"
	"unicode/utf8"

	"adcopy-engine/backend/internal/candidate"
	"adcopy-engine/backend/internal/match"
	"adcopy-engine/backend/internal/persona"
)

const (
	lengthFitMax       = 4.0
	lengthFitDecay     = 0.5
	lengthFitFloor     = -4.0
	formalityHitCap    = 3
	emojiPenalty       = 3.0
	lightPunctPenalty  = 1.0
	normalPunctPenalty = 0.5
	lexiconHitBonus    = 1.5
	ctaHitBonus        = 2.0
	requiredBonus      = 8.0
	avoidPenalty       = 3.0
)

var (
	politeMarkers = []string{"니다", "세요", "십시오", "해요", "please", "kindly"}
	casualMarkers = []string{"ㅋㅋ", "ㅎㅎ", "~", "해봐", "하자", "ㄱㄱ", "대박", "lol"}
)

// PersonaBreakdown itemizes the persona boost.
type PersonaBreakdown struct {
	LengthFit   float64 `json:"length_fit"`
	Formality   float64 `json:"formality"`
	Emoji       float64 `json:"emoji"`
	Punctuation float64 `json:"punctuation"`
	Lexicon     float64 `json:"lexicon"`
	CTA         float64 `json:"cta"`
	Required    float64 `json:"required"`
	Avoid       float64 `json:"avoid"`
}

// Total sums the persona components.
func (p PersonaBreakdown) Total() float64 {
	return p.LengthFit + p.Formality + p.Emoji + p.Punctuation + p.Lexicon + p.CTA + p.Required + p.Avoid
}

func personaSubscore(c candidate.Candidate, spec *persona.Spec) PersonaBreakdown {
	text := c.Text()
	out := PersonaBreakdown{
		LengthFit: lengthFit(match.RuneLen(c.Headline), spec.HeadlineLen) +
			lengthFit(match.RuneLen(c.Subline), spec.SublineLen),
		Formality:   formalityFit(text, spec.Formality),
		Emoji:       emojiFit(text, spec.Emoji),
		Punctuation: punctuationFit(text, spec.Punctuation),
		Lexicon:     float64(match.SumCountFold(text, spec.Lexicon)) * lexiconHitBonus,
		CTA:         float64(match.SumCountFold(text, spec.CTA)) * ctaHitBonus,
	}
	if len(spec.Required) > 0 {
		if match.ContainsAnyFold(text, spec.Required) {
			out.Required = requiredBonus
		} else {
			out.Required = -requiredBonus
		}
	}
	avoidHits := 0
	for _, term := range spec.Avoid {
		avoidHits += match.CountExact(text, term)
	}
	out.Avoid = -float64(avoidHits) * avoidPenalty
	return out
}

func lengthFit(n int, r persona.Range) float64 {
	if r.Contains(n) {
		return lengthFitMax
	}
	return math.Max(lengthFitFloor, lengthFitMax-lengthFitDecay*float64(r.Distance(n)))
}

func formalityFit(text string, formality persona.Formality) float64 {
	polite := cappedHits(text, politeMarkers)
	casual := cappedHits(text, casualMarkers)
	switch formality {
	case persona.FormalityPolite:
		return polite - casual
	case persona.FormalityCasual:
		return casual - 0.5*polite
	default:
		return -0.5 * casual
	}
}

func cappedHits(text string, markers []string) float64 {
	hits := match.SumCountFold(text, markers)
	if hits > formalityHitCap {
		hits = formalityHitCap
	}
	return float64(hits)
}

func emojiFit(text string, policy persona.EmojiPolicy) float64 {
	n := countEmoji(text)
	switch policy {
	case persona.EmojiNone:
		return -emojiPenalty * float64(n)
	default:
		if n > 1 {
			return -emojiPenalty * float64(n-1)
		}
		return 0
	}
}

func punctuationFit(text string, level persona.Punctuation) float64 {
	n := countIntensity(text)
	switch level {
	case persona.PunctuationLight:
		if n > 1 {
			return -lightPunctPenalty * float64(n-1)
		}
	default:
		if n > 2 {
			return -normalPunctPenalty * float64(n-2)
		}
	}
	return 0
}

func countIntensity(text string) int {
	n := 0
	for _, r := range text {
		switch r {
		case '!', '?', '~', '！', '？', '～':
			n++
		}
	}
	return n
}

func countEmoji(text string) int {
	n := 0
	for len(text) > 0 {
		r, size := utf8.DecodeRuneInString(text)
		text = text[size:]
		if IsEmoji(r) {
			n++
		}
	}
	return n
}

// IsEmoji reports whether r falls in the pictographic blocks used by emoji.
func IsEmoji(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r >= 0x2B00 && r <= 0x2BFF:
		return true
	default:
		return false
	}
}
