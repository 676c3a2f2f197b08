package persona

import (
	"errors"
	"strings"

	"adcopy-engine/backend/internal/match"
)

// EmojiPolicy controls how many emoji a persona tolerates.
type EmojiPolicy string

const (
	EmojiNone     EmojiPolicy = "none"
	EmojiAllowOne EmojiPolicy = "allow-one"
)

// Formality is the register the copy should be written in.
type Formality string

const (
	FormalityCasual  Formality = "casual"
	FormalityNeutral Formality = "neutral"
	FormalityPolite  Formality = "polite"
)

// Punctuation is how much exclamation/question intensity a persona tolerates.
type Punctuation string

const (
	PunctuationLight  Punctuation = "light"
	PunctuationNormal Punctuation = "normal"
)

// Range is an inclusive character-count window.
type Range struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// Contains reports whether n falls inside the range.
func (r Range) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

// Distance is how many characters n sits outside the range, zero when inside.
func (r Range) Distance(n int) int {
	switch {
	case n < r.Min:
		return r.Min - n
	case n > r.Max:
		return n - r.Max
	default:
		return 0
	}
}

// Spec is a resolved trait profile used by prompt construction, scoring and validation.
type Spec struct {
	Token       string      `json:"token"`
	Age         Age         `json:"age,omitempty"`
	Role        Role        `json:"role,omitempty"`
	Style       string      `json:"style"`
	Lexicon     []string    `json:"lexicon"`
	Avoid       []string    `json:"avoid"`
	CTA         []string    `json:"cta"`
	Required    []string    `json:"required"`
	Emoji       EmojiPolicy `json:"emoji"`
	Formality   Formality   `json:"formality"`
	Punctuation Punctuation `json:"punctuation"`
	HeadlineLen Range       `json:"headline_len"`
	SublineLen  Range       `json:"subline_len"`
}

// ErrUnknownBucket is returned when a table file names a bucket outside the closed sets.
var ErrUnknownBucket = errors.New("unknown persona bucket")

// Neutral is the unconstrained profile used when no persona resolves.
func Neutral() Spec {
	return Spec{
		Style:       "자연스럽고 간결한 일반 소비자 톤",
		Emoji:       EmojiAllowOne,
		Formality:   FormalityNeutral,
		Punctuation: PunctuationNormal,
		HeadlineLen: Range{Min: 1, Max: 24},
		SublineLen:  Range{Min: 1, Max: 48},
	}
}

// Resolve parses a free-form persona token such as "20대 학생" or "student/20s".
// It returns nil when neither an age nor a role bucket is present.
func (t *Table) Resolve(token string) *Spec {
	if t == nil {
		return nil
	}
	var (
		age     Age
		role    Role
		hasAge  bool
		hasRole bool
	)
	for _, part := range tokenize(token) {
		if !hasAge {
			if a, ok := t.lookupAge(part); ok {
				age, hasAge = a, true
				continue
			}
		}
		if !hasRole {
			if r, ok := t.lookupRole(part); ok {
				role, hasRole = r, true
			}
		}
	}

	switch {
	case !hasAge && !hasRole:
		return nil
	case hasAge && !hasRole:
		spec := dropAvoided(t.ages[age].spec(age))
		spec.Token = strings.TrimSpace(token)
		return &spec
	case !hasAge:
		age = DefaultAge
	}
	spec := merge(t.ages[age].spec(age), role, t.roles[role])
	spec.Token = strings.TrimSpace(token)
	return &spec
}

func tokenize(token string) []string {
	return strings.FieldsFunc(token, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', '/', ',', '|', '+':
			return true
		}
		return false
	})
}

// merge unions role additions into the age profile. Scalar traits stay with the age bucket.
func merge(base Spec, role Role, add RoleProfile) Spec {
	base.Role = role
	if style := strings.TrimSpace(add.Style); style != "" {
		if base.Style == "" {
			base.Style = style
		} else {
			base.Style = base.Style + " / " + style
		}
	}
	base.Lexicon = match.Union(base.Lexicon, add.Lexicon)
	base.Avoid = match.Union(base.Avoid, add.Avoid)
	base.CTA = match.Union(base.CTA, add.CTA)
	base.Required = match.Union(base.Required, add.Required)
	return dropAvoided(base)
}

// dropAvoided removes avoid terms from the preferred lists, so a word is never both rewarded and penalized.
func dropAvoided(s Spec) Spec {
	if len(s.Avoid) == 0 {
		return s
	}
	s.Lexicon = withoutTerms(s.Lexicon, s.Avoid)
	s.CTA = withoutTerms(s.CTA, s.Avoid)
	s.Required = withoutTerms(s.Required, s.Avoid)
	return s
}

func withoutTerms(list, drop []string) []string {
	if list == nil {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, term := range list {
		avoided := false
		for _, d := range drop {
			if strings.EqualFold(strings.TrimSpace(term), strings.TrimSpace(d)) {
				avoided = true
				break
			}
		}
		if !avoided {
			out = append(out, term)
		}
	}
	return out
}
