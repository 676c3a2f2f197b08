package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"adcopy-engine/backend/internal/candidate"
	"adcopy-engine/backend/internal/persona"
	"adcopy-engine/backend/internal/refine"
	"adcopy-engine/backend/internal/scoring"
	"adcopy-engine/backend/internal/util"
)

const (
	DefaultDiversityK          = 3
	DefaultSimilarityThreshold = 0.6
)

// Config tunes the selection and refinement stages.
type Config struct {
	DiversityK          int
	SimilarityThreshold float64
	RefineTimeout       time.Duration
}

// Input is one request worth of already generated candidates plus the constraints they answer to.
type Input struct {
	Raw                 []candidate.Raw
	Persona             string
	Goal                scoring.Goal
	Brand               string
	MustIncludeBrand    bool
	Keywords            []string
	MustIncludeKeywords bool
	// Limits left entirely zero mean the defaults, including three hashtags.
	// A set headline or subline limit with Hashtags 0 asks for no hashtags.
	Limits              candidate.Limits
	Platform            string
	Banned              []string
	Regenerate          refine.Regenerator

	// Optional per-request overrides of Config.
	DiversityK          int
	SimilarityThreshold float64
}

// Result is the chosen copy along with the diagnostics that produced it.
type Result struct {
	Best         candidate.Candidate       `json:"best"`
	Alternatives []candidate.Candidate     `json:"alternatives"`
	Ranked       []scoring.ScoredCandidate `json:"ranked"`
	Persona      *persona.Spec             `json:"persona,omitempty"`
	Refinement   refine.Outcome            `json:"refinement"`
	Placeholder  bool                      `json:"placeholder"`
	Dropped      int                       `json:"dropped"`
	Timings      []util.Lap                `json:"timings"`
}

// Engine turns generated candidates into one best copy and a diverse shortlist.
// It holds only read-only tables and is safe for concurrent use.
type Engine struct {
	personas *persona.Table
	scorer   *scoring.Scorer
	cfg      Config
}

// New constructs an engine. Nil dependencies fall back to the built-in tables.
func New(personas *persona.Table, scorer *scoring.Scorer, cfg Config) *Engine {
	if personas == nil {
		personas = persona.Builtin()
	}
	if scorer == nil {
		scorer = scoring.NewScorer(nil)
	}
	if cfg.DiversityK <= 0 {
		cfg.DiversityK = DefaultDiversityK
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = DefaultSimilarityThreshold
	}
	return &Engine{personas: personas, scorer: scorer, cfg: cfg}
}

// Personas exposes the lookup table the engine resolves against.
func (e *Engine) Personas() *persona.Table {
	return e.personas
}

// Produce normalizes, scores, diversifies and refines. It never fails: malformed or empty
// input degrades to the placeholder candidate and refinement errors keep the original best.
func (e *Engine) Produce(ctx context.Context, in Input) Result {
	timer := util.StartTimer()
	limits := in.Limits.WithDefaults()
	if in.Limits == (candidate.Limits{}) {
		limits = candidate.DefaultLimits()
	}
	spec := e.personas.Resolve(in.Persona)
	policy := persona.Neutral().Emoji
	if spec != nil {
		policy = spec.Emoji
	}
	allowEmoji := policy == persona.EmojiAllowOne

	res := Result{Persona: spec}
	cands := make([]candidate.Candidate, 0, len(in.Raw))
	for _, raw := range in.Raw {
		c := candidate.Normalize(raw, limits, allowEmoji)
		if c.IsEmpty() {
			res.Dropped++
			continue
		}
		cands = append(cands, c)
	}
	if len(cands) == 0 {
		cands = append(cands, candidate.Placeholder(limits))
		res.Placeholder = true
	}
	timer.Lap("normalize")

	req := scoring.Request{
		Persona:  spec,
		Goal:     in.Goal,
		Brand:    in.Brand,
		Limits:   limits,
		Banned:   in.Banned,
		Platform: in.Platform,
	}
	res.Ranked = e.scorer.Rank(cands, req)
	timer.Lap("score")

	k, threshold := e.cfg.DiversityK, e.cfg.SimilarityThreshold
	if in.DiversityK > 0 {
		k = in.DiversityK
	}
	if in.SimilarityThreshold > 0 {
		threshold = in.SimilarityThreshold
	}
	res.Alternatives = scoring.Candidates(scoring.Select(res.Ranked, k, threshold))
	timer.Lap("select")

	refiner := refine.New(in.Regenerate, e.cfg.RefineTimeout)
	res.Refinement = refiner.Refine(ctx, res.Ranked[0].Candidate, refine.Constraints{
		Persona:             spec,
		MustIncludeKeywords: in.MustIncludeKeywords,
		Keywords:            in.Keywords,
		MustIncludeBrand:    in.MustIncludeBrand,
		Brand:               in.Brand,
		Limits:              limits,
		AllowEmoji:          allowEmoji,
	})
	res.Best = res.Refinement.Candidate
	timer.Lap("refine")
	res.Timings = timer.Laps()

	logrus.WithFields(logrus.Fields{
		"candidates":  len(cands),
		"dropped":     res.Dropped,
		"placeholder": res.Placeholder,
		"persona":     in.Persona,
		"goal":        in.Goal,
		"refined":     res.Refinement.Refined,
		"duration_ms": timer.ElapsedMs(),
	}).Debug("copy produced")
	return res
}
