package refine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"adcopy-engine/backend/internal/candidate"
	"adcopy-engine/backend/internal/match"
	"adcopy-engine/backend/internal/persona"
)

// State is a step of the validate/refine state machine.
type State string

const (
	StateAccepted State = "accepted"
	StateRefining State = "refining"
)

// ErrEmptyRegeneration is reported when the corrective call returned no usable copy.
var ErrEmptyRegeneration = errors.New("regeneration returned an empty candidate")

// Regenerator asks the generation service for a minimally edited version of target.
type Regenerator func(ctx context.Context, instructions string, target candidate.Candidate) (candidate.Candidate, error)

// Constraints are the hard must-include rules the best candidate is checked against.
type Constraints struct {
	Persona             *persona.Spec
	MustIncludeKeywords bool
	Keywords            []string
	MustIncludeBrand    bool
	Brand               string
	Limits              candidate.Limits
	AllowEmoji          bool
}

func (c Constraints) wantsBrand() bool {
	return c.MustIncludeBrand && strings.TrimSpace(c.Brand) != ""
}

// Outcome describes what happened to the best candidate.
type Outcome struct {
	Candidate     candidate.Candidate `json:"candidate"`
	Path          []State             `json:"path"`
	Unmet         []string            `json:"unmet,omitempty"`
	Instructions  string              `json:"instructions,omitempty"`
	Attempted     bool                `json:"attempted"`
	Refined       bool                `json:"refined"`
	BrandAppended bool                `json:"brand_appended"`
	Error         string              `json:"error,omitempty"`
}

// Check lists every unmet requirement, one human-readable line each.
func Check(c candidate.Candidate, cons Constraints) []string {
	text := c.Text()
	var unmet []string

	if cons.MustIncludeKeywords && len(cons.Keywords) > 0 && !match.ContainsAnyFold(text, cons.Keywords) {
		unmet = append(unmet, fmt.Sprintf("Include at least one of these keywords: %s", strings.Join(cons.Keywords, ", ")))
	}
	if cons.wantsBrand() && !match.ContainsFold(text, cons.Brand) {
		unmet = append(unmet, fmt.Sprintf("Include the brand name %q in the headline or subline", strings.TrimSpace(cons.Brand)))
	}
	if p := cons.Persona; p != nil {
		if len(p.Lexicon) > 0 && match.SumCountFold(text, p.Lexicon) == 0 {
			unmet = append(unmet, fmt.Sprintf("Use at least one audience word: %s", strings.Join(p.Lexicon, ", ")))
		}
		if len(p.CTA) > 0 && match.SumCountFold(text, p.CTA) == 0 {
			unmet = append(unmet, fmt.Sprintf("Add a call to action such as: %s", strings.Join(p.CTA, ", ")))
		}
		if len(p.Required) > 0 && !match.ContainsAnyFold(text, p.Required) {
			unmet = append(unmet, fmt.Sprintf("Mention at least one of: %s", strings.Join(p.Required, ", ")))
		}
	}
	return unmet
}

// EditInstructions folds the unmet requirements into one corrective instruction.
func EditInstructions(unmet []string, limits candidate.Limits) string {
	var b strings.Builder
	b.WriteString("Make the smallest possible edit to the copy so that it satisfies every requirement below.\n")
	for _, line := range unmet {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Keep the headline within %d characters and the subline within %d characters. Keep the hashtags unless a requirement needs them changed.", limits.Headline, limits.Subline)
	return b.String()
}

// Refiner runs the single corrective pass.
type Refiner struct {
	regenerate Regenerator
	timeout    time.Duration
}

// New constructs a refiner. A nil regenerator turns the corrective call into a failure,
// which still leaves the deterministic brand fix in place.
func New(regenerate Regenerator, timeout time.Duration) *Refiner {
	return &Refiner{regenerate: regenerate, timeout: timeout}
}

// Refine validates best and, when a requirement is unmet, issues exactly one regeneration.
// Failures of the corrective call never escape: the pre-refinement candidate is kept.
func (r *Refiner) Refine(ctx context.Context, best candidate.Candidate, cons Constraints) Outcome {
	out := Outcome{Candidate: best, Path: []State{StateAccepted}}
	unmet := Check(best, cons)
	if len(unmet) == 0 {
		return out
	}

	out.Path = []State{StateRefining}
	out.Unmet = unmet
	out.Instructions = EditInstructions(unmet, cons.Limits)
	out.Attempted = true

	refined, err := r.call(ctx, out.Instructions, best)
	if err == nil {
		refined = candidate.Renormalize(refined, cons.Limits, cons.AllowEmoji)
		if refined.IsEmpty() {
			err = ErrEmptyRegeneration
		}
	}
	if err != nil {
		logrus.WithError(err).WithField("unmet", len(unmet)).Warn("refinement failed; keeping original candidate")
		out.Error = err.Error()
	} else {
		if len(refined.Hashtags) == 0 {
			refined.Hashtags = best.Hashtags
		}
		out.Candidate = refined
		out.Refined = true
	}

	if cons.wantsBrand() && !match.ContainsFold(out.Candidate.Text(), cons.Brand) {
		out.Candidate.Subline = AppendBrand(out.Candidate.Subline, cons.Brand, cons.Limits.Subline)
		out.BrandAppended = true
		logrus.WithField("brand", cons.Brand).Info("brand appended to subline after refinement")
	}

	out.Path = append(out.Path, StateAccepted)
	return out
}

func (r *Refiner) call(ctx context.Context, instructions string, target candidate.Candidate) (candidate.Candidate, error) {
	if r == nil || r.regenerate == nil {
		return candidate.Candidate{}, errors.New("no regenerator configured")
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.regenerate(ctx, instructions, target)
}

// AppendBrand adds brand to the end of subline without exceeding limit. The existing
// subline is smart-trimmed to make room; a brand longer than the limit is trimmed itself.
func AppendBrand(subline, brand string, limit int) string {
	brand = strings.TrimSpace(brand)
	subline = strings.TrimSpace(subline)
	if brand == "" {
		return subline
	}
	if limit <= 0 {
		return subline
	}
	blen := match.RuneLen(brand)
	room := limit - blen - 1
	if room <= 0 {
		return match.SmartTrim(brand, limit)
	}
	head := subline
	if match.RuneLen(head) > room {
		// leave one rune for the ellipsis smart trim may add
		head = match.SmartTrim(head, room-1)
	}
	if head == "" {
		return brand
	}
	return head + " " + brand
}
