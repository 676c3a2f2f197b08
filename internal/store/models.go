package store

import (
	"encoding/json"
	"strings"
	"time"

	"adcopy-engine/backend/internal/candidate"
	"adcopy-engine/backend/internal/util"
)

// Generation is one completed copy request: the brief, the chosen copy and how it was reached.
type Generation struct {
	ID               uint   `gorm:"primaryKey"`
	RequestID        string `gorm:"size:64;uniqueIndex"`
	Source           string `gorm:"size:16;index"`
	Persona          string `gorm:"size:64;index"`
	Platform         string `gorm:"size:32;index"`
	Goal             string `gorm:"size:32"`
	Brand            string `gorm:"size:128"`
	Product          string `gorm:"size:128"`
	Tone             string `gorm:"size:128"`
	ImagePath        string `gorm:"size:512"`
	ImageURL         string `gorm:"size:512"`
	Model            string `gorm:"size:64"`
	Headline         string `gorm:"size:255"`
	Subline          string `gorm:"size:512"`
	HashtagsJSON     string `gorm:"type:text"`
	AlternativesJSON string `gorm:"type:text"`
	BestScore        float64
	Placeholder      bool
	RefinementStatus string `gorm:"size:32;index"`
	UnmetJSON        string `gorm:"type:text"`
	TimingsJSON      string `gorm:"type:text"`
	ProcessingTimeMs int64
	CreatedAt        time.Time        `gorm:"autoCreateTime;index"`
	Candidates       []CandidateScore `gorm:"constraint:OnDelete:CASCADE"`
}

// CandidateScore is one ranked candidate of a generation with its sub-scores.
type CandidateScore struct {
	ID           uint `gorm:"primaryKey"`
	GenerationID uint `gorm:"index"`
	Position     int
	Headline     string `gorm:"size:255"`
	Subline      string `gorm:"size:512"`
	HashtagsJSON string `gorm:"type:text"`
	Reasons      string `gorm:"type:text"`
	Score        float64
	Base         float64
	StyleGoal    float64
	Persona      float64
	Brand        float64
	Shortlisted  bool
}

// SetHashtags stores the hashtag list as JSON.
func (g *Generation) SetHashtags(tags []string) {
	g.HashtagsJSON = encodeJSON(tags)
}

// Hashtags decodes the stored hashtag list.
func (g *Generation) Hashtags() []string {
	return decodeStrings(g.HashtagsJSON)
}

// SetUnmet stores the refinement requirements that were not met.
func (g *Generation) SetUnmet(lines []string) {
	g.UnmetJSON = encodeJSON(lines)
}

// Unmet decodes the stored unmet requirement lines.
func (g *Generation) Unmet() []string {
	return decodeStrings(g.UnmetJSON)
}

// SetAlternatives stores the diverse shortlist as JSON.
func (g *Generation) SetAlternatives(alts []candidate.Candidate) {
	g.AlternativesJSON = encodeJSON(alts)
}

// Alternatives decodes the stored shortlist.
func (g *Generation) Alternatives() []candidate.Candidate {
	var out []candidate.Candidate
	if strings.TrimSpace(g.AlternativesJSON) == "" {
		return out
	}
	_ = json.Unmarshal([]byte(g.AlternativesJSON), &out)
	return out
}

// SetTimings stores the per-stage durations.
func (g *Generation) SetTimings(laps []util.Lap) {
	g.TimingsJSON = encodeJSON(laps)
}

// Timings decodes the stored per-stage durations.
func (g *Generation) Timings() []util.Lap {
	var out []util.Lap
	if strings.TrimSpace(g.TimingsJSON) == "" {
		return out
	}
	_ = json.Unmarshal([]byte(g.TimingsJSON), &out)
	return out
}

// SetHashtags stores the hashtag list as JSON.
func (c *CandidateScore) SetHashtags(tags []string) {
	c.HashtagsJSON = encodeJSON(tags)
}

// Hashtags decodes the stored hashtag list.
func (c *CandidateScore) Hashtags() []string {
	return decodeStrings(c.HashtagsJSON)
}

func encodeJSON(v any) string {
	payload, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(payload)
}

func decodeStrings(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
