package api

import (
	"math"
	"time"

	"adcopy-engine/backend/internal/candidate"
	"adcopy-engine/backend/internal/engine"
	"adcopy-engine/backend/internal/match"
	"adcopy-engine/backend/internal/refine"
	"adcopy-engine/backend/internal/scoring"
	"adcopy-engine/backend/internal/store"
	"adcopy-engine/backend/internal/util"
)

// CopyOptions are the knobs shared by the upload form and the JSON rank request.
type CopyOptions struct {
	Tone                string   `form:"tone" json:"tone"`
	Platform            string   `form:"platform" json:"platform"`
	TargetAudience      string   `form:"target_audience" json:"target_audience"`
	Persona             string   `form:"persona" json:"persona"`
	Goal                string   `form:"goal" json:"goal"`
	Brand               string   `form:"brand" json:"brand"`
	BusinessName        string   `form:"business_name" json:"business_name"`
	Product             string   `form:"product" json:"product"`
	UserKeywordsCSV     string   `form:"user_keywords_csv" json:"user_keywords_csv"`
	Keywords            []string `form:"-" json:"keywords"`
	MustIncludeKeywords bool     `form:"must_include_keywords" json:"must_include_keywords"`
	MustIncludeBrand    bool     `form:"must_include_brand" json:"must_include_brand"`
	CharLimitHeadline   int      `form:"char_limit_headline" json:"char_limit_headline"`
	CharLimitSubline    int      `form:"char_limit_subline" json:"char_limit_subline"`
	HashtagsN           *int     `form:"hashtags_n" json:"hashtags_n"`
	Alternatives        int      `form:"alternatives" json:"alternatives"`
	SimilarityThreshold float64  `form:"similarity_threshold" json:"similarity_threshold"`
	BannedTermsCSV      string   `form:"banned_terms_csv" json:"banned_terms_csv"`
	BannedTerms         []string `form:"-" json:"banned_terms"`
	ModelOverride       string   `form:"model_override" json:"model_override"`
}

// RankRequest carries candidates that were generated elsewhere.
type RankRequest struct {
	CopyOptions
	Candidates []candidate.Raw `json:"candidates"`
	RawOutput  string          `json:"raw_output"`
}

func (o CopyOptions) brand() string {
	return firstNonEmpty(o.Brand, o.BusinessName)
}

func (o CopyOptions) keywords() []string {
	return match.Union(o.Keywords, match.SplitTerms(o.UserKeywordsCSV))
}

func (o CopyOptions) banned() []string {
	return match.Union(o.BannedTerms, match.SplitTerms(o.BannedTermsCSV))
}

func (o CopyOptions) limits() candidate.Limits {
	limits := candidate.Limits{Headline: o.CharLimitHeadline, Subline: o.CharLimitSubline, Hashtags: -1}
	if o.HashtagsN != nil {
		limits.Hashtags = *o.HashtagsN
	}
	return limits.WithDefaults()
}

// CandidateDTO is one candidate as returned to clients.
type CandidateDTO struct {
	Headline string   `json:"headline"`
	Subline  string   `json:"subline"`
	Hashtags []string `json:"hashtags"`
	Reasons  string   `json:"reasons,omitempty"`
	Copy     string   `json:"copy"`
}

// ScoredCandidateDTO adds score diagnostics.
type ScoredCandidateDTO struct {
	CandidateDTO
	Score     float64           `json:"score"`
	Breakdown scoring.Breakdown `json:"breakdown"`
}

// RefinementDTO summarizes the validate/refine pass.
type RefinementDTO struct {
	Status        string   `json:"status"`
	Unmet         []string `json:"unmet"`
	Attempted     bool     `json:"attempted"`
	Refined       bool     `json:"refined"`
	BrandAppended bool     `json:"brand_appended"`
	Error         string   `json:"error,omitempty"`
}

// CopyResponse is returned by the generate and rank endpoints.
type CopyResponse struct {
	OK           bool                 `json:"ok"`
	Copy         string               `json:"copy"`
	Structured   CandidateDTO         `json:"structured"`
	Alternatives []CandidateDTO       `json:"alternatives"`
	Ranked       []ScoredCandidateDTO `json:"ranked"`
	Refinement   RefinementDTO        `json:"refinement"`
	Persona      string               `json:"persona,omitempty"`
	Placeholder  bool                 `json:"placeholder"`
	Timings      []util.Lap           `json:"timings"`
	GenerationID uint                 `json:"generation_id,omitempty"`
	RequestID    string               `json:"request_id"`
	UploadedPath string               `json:"uploaded_path,omitempty"`
	UploadedURL  string               `json:"uploaded_url,omitempty"`
}

// GenerationDTO is the API representation of a stored generation.
type GenerationDTO struct {
	ID               uint           `json:"id"`
	RequestID        string         `json:"request_id"`
	Source           string         `json:"source"`
	Persona          string         `json:"persona"`
	Platform         string         `json:"platform"`
	Goal             string         `json:"goal"`
	Brand            string         `json:"brand"`
	Product          string         `json:"product"`
	Model            string         `json:"model"`
	Headline         string         `json:"headline"`
	Subline          string         `json:"subline"`
	Hashtags         []string       `json:"hashtags"`
	Alternatives     []CandidateDTO `json:"alternatives"`
	BestScore        float64        `json:"best_score"`
	Placeholder      bool           `json:"placeholder"`
	RefinementStatus string         `json:"refinement_status"`
	Unmet            []string       `json:"unmet"`
	ImageURL         string         `json:"image_url,omitempty"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
	CreatedAt        time.Time      `json:"created_at"`
}

// GenerationDetailDTO adds the ranked candidates.
type GenerationDetailDTO struct {
	GenerationDTO
	Candidates []CandidateScoreDTO `json:"candidates"`
	Timings    []util.Lap          `json:"timings"`
}

// CandidateScoreDTO is one stored ranked candidate.
type CandidateScoreDTO struct {
	Position    int      `json:"position"`
	Headline    string   `json:"headline"`
	Subline     string   `json:"subline"`
	Hashtags    []string `json:"hashtags"`
	Reasons     string   `json:"reasons,omitempty"`
	Score       float64  `json:"score"`
	Base        float64  `json:"base"`
	StyleGoal   float64  `json:"style_goal"`
	Persona     float64  `json:"persona"`
	Brand       float64  `json:"brand"`
	Shortlisted bool     `json:"shortlisted"`
}

// GenerationsResponse is the paginated history listing.
type GenerationsResponse struct {
	Items []GenerationDTO `json:"items"`
	Total int64           `json:"total"`
}

func candidateDTO(c candidate.Candidate) CandidateDTO {
	tags := c.Hashtags
	if tags == nil {
		tags = []string{}
	}
	return CandidateDTO{Headline: c.Headline, Subline: c.Subline, Hashtags: tags, Reasons: c.Reasons, Copy: c.Copy()}
}

func candidateDTOs(list []candidate.Candidate) []CandidateDTO {
	out := make([]CandidateDTO, 0, len(list))
	for _, c := range list {
		out = append(out, candidateDTO(c))
	}
	return out
}

func refinementDTO(o refine.Outcome) RefinementDTO {
	unmet := o.Unmet
	if unmet == nil {
		unmet = []string{}
	}
	return RefinementDTO{
		Status:        refinementStatus(o),
		Unmet:         unmet,
		Attempted:     o.Attempted,
		Refined:       o.Refined,
		BrandAppended: o.BrandAppended,
		Error:         o.Error,
	}
}

func refinementStatus(o refine.Outcome) string {
	switch {
	case !o.Attempted:
		return "accepted"
	case o.BrandAppended:
		return "brand_appended"
	case o.Refined:
		return "refined"
	default:
		return "failed"
	}
}

func copyResponse(res engine.Result) CopyResponse {
	ranked := make([]ScoredCandidateDTO, 0, len(res.Ranked))
	for _, sc := range res.Ranked {
		b := sc.Breakdown
		b.Base, b.StyleGoal, b.Persona, b.Brand = round2(b.Base), round2(b.StyleGoal), round2(b.Persona), round2(b.Brand)
		ranked = append(ranked, ScoredCandidateDTO{
			CandidateDTO: candidateDTO(sc.Candidate),
			Score:        round2(sc.Score),
			Breakdown:    b,
		})
	}
	resp := CopyResponse{
		OK:           true,
		Copy:         res.Best.Copy(),
		Structured:   candidateDTO(res.Best),
		Alternatives: candidateDTOs(res.Alternatives),
		Ranked:       ranked,
		Refinement:   refinementDTO(res.Refinement),
		Placeholder:  res.Placeholder,
		Timings:      res.Timings,
	}
	if res.Persona != nil {
		resp.Persona = res.Persona.Token
	}
	return resp
}

// GenerationFromModel converts a store.Generation into its DTO.
func GenerationFromModel(g store.Generation) GenerationDTO {
	unmet := g.Unmet()
	if unmet == nil {
		unmet = []string{}
	}
	tags := g.Hashtags()
	if tags == nil {
		tags = []string{}
	}
	return GenerationDTO{
		ID:               g.ID,
		RequestID:        g.RequestID,
		Source:           g.Source,
		Persona:          g.Persona,
		Platform:         g.Platform,
		Goal:             g.Goal,
		Brand:            g.Brand,
		Product:          g.Product,
		Model:            g.Model,
		Headline:         g.Headline,
		Subline:          g.Subline,
		Hashtags:         tags,
		Alternatives:     candidateDTOs(g.Alternatives()),
		BestScore:        round2(g.BestScore),
		Placeholder:      g.Placeholder,
		RefinementStatus: g.RefinementStatus,
		Unmet:            unmet,
		ImageURL:         g.ImageURL,
		ProcessingTimeMs: g.ProcessingTimeMs,
		CreatedAt:        g.CreatedAt,
	}
}

// GenerationDetailFromModel converts a generation with its candidates.
func GenerationDetailFromModel(g store.Generation) GenerationDetailDTO {
	out := GenerationDetailDTO{
		GenerationDTO: GenerationFromModel(g),
		Candidates:    make([]CandidateScoreDTO, 0, len(g.Candidates)),
		Timings:       g.Timings(),
	}
	for _, c := range g.Candidates {
		tags := c.Hashtags()
		if tags == nil {
			tags = []string{}
		}
		out.Candidates = append(out.Candidates, CandidateScoreDTO{
			Position:    c.Position,
			Headline:    c.Headline,
			Subline:     c.Subline,
			Hashtags:    tags,
			Reasons:     c.Reasons,
			Score:       round2(c.Score),
			Base:        round2(c.Base),
			StyleGoal:   round2(c.StyleGoal),
			Persona:     round2(c.Persona),
			Brand:       round2(c.Brand),
			Shortlisted: c.Shortlisted,
		})
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
