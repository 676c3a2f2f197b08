package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"adcopy-engine/backend/internal/ai"
	"adcopy-engine/backend/internal/candidate"
	"adcopy-engine/backend/internal/engine"
	"adcopy-engine/backend/internal/prompt"
	"adcopy-engine/backend/internal/scoring"
	"adcopy-engine/backend/internal/store"
)

var imageContentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

const (
	sourceUpload = "upload"
	sourceRank   = "rank"
)

func (s *Server) handleGenerate(c *gin.Context) {
	started := time.Now()
	header, err := c.FormFile("file")
	if err != nil {
		s.renderError(c, http.StatusBadRequest, errors.New("image file is required"))
		return
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	contentType, ok := imageContentTypes[ext]
	if !ok {
		s.renderError(c, http.StatusBadRequest, fmt.Errorf("unsupported file type %q: use jpg, jpeg, png or webp", ext))
		return
	}
	if header.Size > s.maxFileBytes {
		s.renderError(c, http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds %d bytes", s.maxFileBytes))
		return
	}

	var opts CopyOptions
	if err := c.ShouldBind(&opts); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	goal, ok := scoring.ParseGoal(opts.Goal)
	if !ok {
		s.renderError(c, http.StatusBadRequest, fmt.Errorf("unknown goal %q", opts.Goal))
		return
	}

	requestID := uuid.NewString()
	name, data, err := saveUpload(header, s.uploadDir, ext, started)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, fmt.Errorf("save upload: %w", err))
		return
	}
	uploadedPath := filepath.Join(s.uploadDir, name)
	uploadedURL := s.publicURL + "/static/uploads/" + name

	limits := opts.limits()
	spec := s.engine.Personas().Resolve(opts.Persona)
	brief := prompt.Brief{
		Tone:                opts.Tone,
		Platform:            opts.Platform,
		Audience:            opts.TargetAudience,
		Persona:             spec,
		Goal:                goal,
		Brand:               opts.brand(),
		MustIncludeBrand:    opts.MustIncludeBrand,
		Product:             opts.Product,
		Keywords:            opts.keywords(),
		MustIncludeKeywords: opts.MustIncludeKeywords,
		Limits:              limits,
		Count:               prompt.DefaultCount,
	}

	log := logrus.WithFields(logrus.Fields{
		"request_id": requestID,
		"persona":    opts.Persona,
		"platform":   opts.Platform,
		"goal":       goal,
	})
	genCtx, cancel := context.WithTimeout(c.Request.Context(), s.generateTimeout)
	raws, err := s.generator.Generate(genCtx, ai.GenerateRequest{
		Brief:         brief,
		Image:         &ai.Image{Data: data, ContentType: contentType},
		ModelOverride: opts.ModelOverride,
	})
	cancel()
	switch {
	case errors.Is(err, candidate.ErrMalformed):
		log.WithError(err).Warn("generator output unusable; falling back to placeholder")
		raws = nil
	case err != nil:
		log.WithError(err).Error("generate copy")
		s.renderError(c, http.StatusBadGateway, fmt.Errorf("generation failed: %w", err))
		return
	}

	res := s.engine.Produce(c.Request.Context(), s.engineInput(opts, goal, limits, raws))

	resp := copyResponse(res)
	resp.RequestID = requestID
	resp.UploadedPath = uploadedPath
	resp.UploadedURL = uploadedURL

	record := generationRecord(requestID, sourceUpload, opts, goal, res)
	record.Tone = opts.Tone
	record.ImagePath = uploadedPath
	record.ImageURL = uploadedURL
	record.Model = firstNonEmpty(opts.ModelOverride, s.model)
	record.ProcessingTimeMs = time.Since(started).Milliseconds()
	if err := s.db.SaveGeneration(record); err != nil {
		log.WithError(err).Error("persist generation")
		s.renderError(c, http.StatusInternalServerError, fmt.Errorf("persist generation: %w", err))
		return
	}
	resp.GenerationID = record.ID

	dto := GenerationFromModel(*record)
	s.notifier.Broadcast(GenerationEvent{Type: eventGeneration, RequestID: requestID, Generation: &dto})

	log.WithFields(logrus.Fields{
		"generation_id": record.ID,
		"placeholder":   res.Placeholder,
		"refinement":    resp.Refinement.Status,
		"duration_ms":   record.ProcessingTimeMs,
	}).Info("copy generated")
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRank(c *gin.Context) {
	var req RankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	goal, ok := scoring.ParseGoal(req.Goal)
	if !ok {
		s.renderError(c, http.StatusBadRequest, fmt.Errorf("unknown goal %q", req.Goal))
		return
	}

	raws := req.Candidates
	if strings.TrimSpace(req.RawOutput) != "" {
		parsed, err := candidate.ParseRaw(req.RawOutput)
		if err != nil {
			logrus.WithError(err).Warn("rank raw output unusable")
		}
		raws = append(raws, parsed...)
	}

	res := s.engine.Produce(c.Request.Context(), s.engineInput(req.CopyOptions, goal, req.limits(), raws))
	resp := copyResponse(res)
	resp.RequestID = uuid.NewString()
	c.JSON(http.StatusOK, resp)
}

func (s *Server) engineInput(opts CopyOptions, goal scoring.Goal, limits candidate.Limits, raws []candidate.Raw) engine.Input {
	return engine.Input{
		Raw:                 raws,
		Persona:             opts.Persona,
		Goal:                goal,
		Brand:               opts.brand(),
		MustIncludeBrand:    opts.MustIncludeBrand,
		Keywords:            opts.keywords(),
		MustIncludeKeywords: opts.MustIncludeKeywords,
		Limits:              limits,
		Platform:            opts.Platform,
		Banned:              opts.banned(),
		Regenerate:          ai.Regenerator(s.generator),
		DiversityK:          opts.Alternatives,
		SimilarityThreshold: opts.SimilarityThreshold,
	}
}

func generationRecord(requestID, source string, opts CopyOptions, goal scoring.Goal, res engine.Result) *store.Generation {
	record := &store.Generation{
		RequestID:        requestID,
		Source:           source,
		Persona:          strings.TrimSpace(opts.Persona),
		Platform:         strings.TrimSpace(opts.Platform),
		Goal:             string(goal),
		Brand:            opts.brand(),
		Product:          strings.TrimSpace(opts.Product),
		Headline:         res.Best.Headline,
		Subline:          res.Best.Subline,
		Placeholder:      res.Placeholder,
		RefinementStatus: refinementStatus(res.Refinement),
	}
	record.SetHashtags(res.Best.Hashtags)
	record.SetAlternatives(res.Alternatives)
	record.SetTimings(res.Timings)
	record.SetUnmet(res.Refinement.Unmet)
	if len(res.Ranked) > 0 {
		record.BestScore = res.Ranked[0].Score
	}

	shortlisted := make(map[string]bool, len(res.Alternatives))
	for _, alt := range res.Alternatives {
		shortlisted[alt.Text()] = true
	}
	record.Candidates = make([]store.CandidateScore, 0, len(res.Ranked))
	for i, sc := range res.Ranked {
		row := store.CandidateScore{
			Position:    i + 1,
			Headline:    sc.Headline,
			Subline:     sc.Subline,
			Reasons:     sc.Reasons,
			Score:       sc.Score,
			Base:        sc.Breakdown.Base,
			StyleGoal:   sc.Breakdown.StyleGoal,
			Persona:     sc.Breakdown.Persona,
			Brand:       sc.Breakdown.Brand,
			Shortlisted: shortlisted[sc.Text()],
		}
		row.SetHashtags(sc.Hashtags)
		record.Candidates = append(record.Candidates, row)
	}
	return record
}

// saveUpload stores the uploaded image as upload_<timestamp>_<id8>.<ext> and returns its bytes.
func saveUpload(header *multipart.FileHeader, dir, ext string, now time.Time) (string, []byte, error) {
	if header == nil {
		return "", nil, errors.New("file header is nil")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, err
	}
	src, err := header.Open()
	if err != nil {
		return "", nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", nil, err
	}
	name := fmt.Sprintf("upload_%s_%s.%s", now.Format("20060102_150405"), strings.ReplaceAll(uuid.NewString(), "-", "")[:8], ext)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", nil, err
	}
	return name, data, nil
}
