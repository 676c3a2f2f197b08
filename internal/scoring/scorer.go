package scoring

import (
	"sort"
	"strings"

	"adcopy-engine/backend/internal/candidate"
	"adcopy-engine/backend/internal/match"
	"adcopy-engine/backend/internal/persona"
)

const (
	baseScore               = 100.0
	headlineDeviationWeight = 0.8
	sublineDeviationWeight  = 0.2
	bannedPenalty           = 100.0
	hashtagPlatformBonus    = 2.0
	brandBonus              = 5.0
)

// hashtagPlatforms are channels where at least one hashtag is conventional.
var hashtagPlatforms = map[string]struct{}{
	"instagram": {},
	"x":         {},
	"twitter":   {},
	"tiktok":    {},
	"threads":   {},
}

// Request carries everything a score depends on besides the candidate itself.
type Request struct {
	Persona  *persona.Spec
	Goal     Goal
	Brand    string
	Limits   candidate.Limits
	Banned   []string
	Platform string
}

// Breakdown keeps the sub-scores that produced a composite score.
type Breakdown struct {
	Base          float64           `json:"base"`
	StyleGoal     float64           `json:"style_goal"`
	Persona       float64           `json:"persona"`
	Brand         float64           `json:"brand"`
	PersonaDetail *PersonaBreakdown `json:"persona_detail,omitempty"`
}

// Total is the additive composite of the sub-scores.
func (b Breakdown) Total() float64 {
	return b.Base + b.StyleGoal + b.Persona + b.Brand
}

// ScoredCandidate is a candidate with its composite score.
type ScoredCandidate struct {
	candidate.Candidate
	Score     float64   `json:"score"`
	Breakdown Breakdown `json:"breakdown"`
}

// Scorer applies a fixed banned-term list on top of per-request terms.
type Scorer struct {
	banned []string
}

// NewScorer constructs a scorer with the provided banned terms.
func NewScorer(banned []string) *Scorer {
	return &Scorer{banned: match.Union(banned)}
}

// Score computes the composite score for c.
func (s *Scorer) Score(c candidate.Candidate, req Request) ScoredCandidate {
	return Score(c, s.withBanned(req))
}

// Rank scores every candidate and sorts them best first.
func (s *Scorer) Rank(cands []candidate.Candidate, req Request) []ScoredCandidate {
	return Rank(cands, s.withBanned(req))
}

func (s *Scorer) withBanned(req Request) Request {
	if s == nil || len(s.banned) == 0 {
		return req
	}
	req.Banned = match.Union(s.banned, req.Banned)
	return req
}

// Score is a pure function of its inputs: base + style goal + persona boost + brand boost.
// Scores are only comparable within one request.
func Score(c candidate.Candidate, req Request) ScoredCandidate {
	b := Breakdown{
		Base:      baseSubscore(c, req),
		StyleGoal: goalSubscore(c, req.Goal, req.Limits),
		Brand:     brandSubscore(c, req.Brand),
	}
	if req.Persona != nil {
		detail := personaSubscore(c, req.Persona)
		b.PersonaDetail = &detail
		b.Persona = detail.Total()
	}
	return ScoredCandidate{Candidate: c, Score: b.Total(), Breakdown: b}
}

// Rank scores every candidate and stable-sorts descending, so equal scores keep input order.
func Rank(cands []candidate.Candidate, req Request) []ScoredCandidate {
	scored := make([]ScoredCandidate, 0, len(cands))
	for _, c := range cands {
		scored = append(scored, Score(c, req))
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

func baseSubscore(c candidate.Candidate, req Request) float64 {
	score := baseScore
	score -= headlineDeviationWeight * absInt(match.RuneLen(c.Headline)-req.Limits.Headline)
	score -= sublineDeviationWeight * absInt(match.RuneLen(c.Subline)-req.Limits.Subline)

	for _, term := range req.Banned {
		if match.ContainsFold(c.Headline, term) || match.ContainsFold(c.Subline, term) {
			score -= bannedPenalty
			break
		}
	}

	if _, ok := hashtagPlatforms[strings.ToLower(strings.TrimSpace(req.Platform))]; ok && len(c.Hashtags) > 0 {
		score += hashtagPlatformBonus
	}
	return score
}

func goalSubscore(c candidate.Candidate, goal Goal, limits candidate.Limits) float64 {
	switch goal {
	case GoalLowInvolvement:
		score := 0.0
		if float64(match.RuneLen(c.Headline)) <= shortHeadlineRatio*float64(limits.Headline) {
			score += shortHeadlineBonus
		}
		if match.ContainsAnyFold(c.Subline, actionVerbs) {
			score += actionVerbBonus
		}
		return score
	case GoalHighInvolvement:
		hits := match.SumCountFold(c.Subline, comparisonTerms)
		score := float64(hits) * comparisonHitBonus
		if score > comparisonBonusCap {
			score = comparisonBonusCap
		}
		return score
	case GoalCuriosity:
		headline := []rune(strings.TrimSpace(c.Headline))
		if len(headline) > 0 && strings.ContainsRune(curiosityMarks, headline[len(headline)-1]) {
			return curiosityBonus
		}
		return 0
	default:
		return 0
	}
}

func brandSubscore(c candidate.Candidate, brand string) float64 {
	if match.ContainsFold(c.Text(), brand) {
		return brandBonus
	}
	return 0
}

func absInt(v int) float64 {
	if v < 0 {
		return float64(-v)
	}
	return float64(v)
}
