package candidate

import (
	"strings"
	"unicode"

	"adcopy-engine/backend/internal/match"
)

// Candidate is one cleaned headline/subline/hashtag option.
type Candidate struct {
	Headline string   `json:"headline"`
	Subline  string   `json:"subline"`
	Hashtags []string `json:"hashtags"`
	Reasons  string   `json:"reasons,omitempty"`
}

// Text is the scored body of the candidate: headline followed by subline.
func (c Candidate) Text() string {
	if c.Subline == "" {
		return c.Headline
	}
	return c.Headline + "\n" + c.Subline
}

// Copy renders the candidate the way it is shown to a user.
func (c Candidate) Copy() string {
	lines := make([]string, 0, 3)
	for _, line := range []string{c.Headline, c.Subline, strings.Join(c.Hashtags, " ")} {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// IsEmpty reports whether the candidate carries no copy at all.
func (c Candidate) IsEmpty() bool {
	return strings.TrimSpace(c.Headline) == "" && strings.TrimSpace(c.Subline) == ""
}

// Limits bounds the generated fields. Headline and subline are character counts.
type Limits struct {
	Headline int `json:"headline"`
	Subline  int `json:"subline"`
	Hashtags int `json:"hashtags"`
}

// DefaultLimits mirrors the form defaults of the copy endpoint.
func DefaultLimits() Limits {
	return Limits{Headline: 24, Subline: 48, Hashtags: 3}
}

// WithDefaults replaces non-positive text limits with the defaults. A zero hashtag limit is kept.
func (l Limits) WithDefaults() Limits {
	def := DefaultLimits()
	if l.Headline <= 0 {
		l.Headline = def.Headline
	}
	if l.Subline <= 0 {
		l.Subline = def.Subline
	}
	if l.Hashtags < 0 {
		l.Hashtags = def.Hashtags
	}
	return l
}

// Normalize cleans a raw candidate so every field respects the limits. It never fails:
// missing fields come back empty and the caller decides what an empty candidate means.
func Normalize(raw Raw, limits Limits, allowEmoji bool) Candidate {
	return Candidate{
		Headline: match.SmartTrim(raw.Headline, limits.Headline),
		Subline:  match.SmartTrim(raw.Subline, limits.Subline),
		Hashtags: NormalizeHashtags(raw.Hashtags, limits.Hashtags, allowEmoji),
		Reasons:  strings.TrimSpace(raw.Reasons),
	}
}

// Renormalize runs a candidate that came back from regeneration through the same cleaning.
func Renormalize(c Candidate, limits Limits, allowEmoji bool) Candidate {
	return Normalize(Raw{
		Headline: c.Headline,
		Subline:  c.Subline,
		Hashtags: c.Hashtags,
		Reasons:  c.Reasons,
	}, limits, allowEmoji)
}

// NormalizeHashtags prefixes every tag with a single '#', drops blanks and duplicates
// (first occurrence wins) and keeps at most limit tags.
func NormalizeHashtags(tags []string, limit int, allowEmoji bool) []string {
	if limit <= 0 {
		return []string{}
	}
	out := make([]string, 0, limit)
	for _, tag := range tags {
		body := strings.TrimLeft(strings.TrimSpace(tag), "#")
		body = strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			if !allowEmoji && !isTagRune(r) {
				return -1
			}
			return r
		}, body)
		if body == "" {
			continue
		}
		before := len(out)
		out = match.AppendUnique(out, "#"+body)
		if len(out) == before {
			continue
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

// isTagRune accepts word characters. Combining marks are kept for scripts that need them,
// but emoji modifiers (variation selectors, zero width joiner, keycap) are not.
func isTagRune(r rune) bool {
	if isEmojiModifier(r) {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_'
}

func isEmojiModifier(r rune) bool {
	switch {
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r >= 0xE0100 && r <= 0xE01EF:
		return true
	case r >= 0x1F3FB && r <= 0x1F3FF:
		return true
	}
	return r == 0x200D || r == 0x20E3
}

// Placeholder is the deterministic candidate used when upstream output is unusable.
func Placeholder(limits Limits) Candidate {
	return Normalize(Raw{
		Headline: "지금 만나보세요",
		Subline:  "일상에 딱 맞는 새로운 선택",
		Hashtags: []string{"추천", "신상", "데일리"},
	}, limits, false)
}
