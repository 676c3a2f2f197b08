package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"adcopy-engine/backend/internal/ai"
	"adcopy-engine/backend/internal/candidate"
	"adcopy-engine/backend/internal/engine"
	"adcopy-engine/backend/internal/logging"
	"adcopy-engine/backend/internal/persona"
	"adcopy-engine/backend/internal/prompt"
	"adcopy-engine/backend/internal/scoring"
	"adcopy-engine/backend/internal/store"
)

// Config defines server dependencies.
type Config struct {
	DBPath              string
	SilentDB            bool
	StorageRoot         string
	PublicURL           string
	MaxFileBytes        int64
	AllowedOrigins      []string
	AIConfig            ai.Config
	FallbackModel       string
	DisableAI           bool
	Generator           ai.Generator
	PersonaTablePath    string
	BannedTermsPath     string
	DiversityK          int
	SimilarityThreshold float64
	RefineTimeout       time.Duration
	GenerateTimeout     time.Duration
}

// Server wires HTTP handlers with the copy engine and persistence.
type Server struct {
	db              *store.Database
	engine          *engine.Engine
	generator       ai.Generator
	aiEnabled       bool
	model           string
	storageRoot     string
	uploadDir       string
	publicURL       string
	maxFileBytes    int64
	allowedOrigins  []string
	bannedTermsPath string
	generateTimeout time.Duration
	notifier        *GenerationNotifier
}

const defaultMaxFileBytes = 15 << 20

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("db path required")
	}
	if strings.TrimSpace(cfg.StorageRoot) == "" {
		return nil, errors.New("storage root required")
	}

	personas, err := persona.LoadTable(cfg.PersonaTablePath)
	if err != nil {
		return nil, fmt.Errorf("persona table: %w", err)
	}
	banned, err := scoring.LoadBannedTerms(cfg.BannedTermsPath)
	if err != nil {
		return nil, fmt.Errorf("banned terms: %w", err)
	}

	generator, model, aiEnabled, err := buildGenerator(cfg)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(cfg.DBPath, cfg.SilentDB)
	if err != nil {
		return nil, err
	}

	server := &Server{
		db: db,
		engine: engine.New(personas, scoring.NewScorer(banned), engine.Config{
			DiversityK:          cfg.DiversityK,
			SimilarityThreshold: cfg.SimilarityThreshold,
			RefineTimeout:       cfg.RefineTimeout,
		}),
		generator:       generator,
		aiEnabled:       aiEnabled,
		model:           model,
		storageRoot:     cfg.StorageRoot,
		uploadDir:       filepath.Join(cfg.StorageRoot, "uploads"),
		publicURL:       strings.TrimRight(strings.TrimSpace(cfg.PublicURL), "/"),
		maxFileBytes:    cfg.MaxFileBytes,
		allowedOrigins:  cfg.AllowedOrigins,
		bannedTermsPath: cfg.BannedTermsPath,
		generateTimeout: cfg.GenerateTimeout,
		notifier:        NewGenerationNotifier(),
	}
	if server.maxFileBytes <= 0 {
		server.maxFileBytes = defaultMaxFileBytes
	}
	if server.generateTimeout <= 0 {
		server.generateTimeout = 120 * time.Second
	}

	logrus.WithFields(logrus.Fields{
		"ai_enabled":   aiEnabled,
		"model":        model,
		"banned_terms": len(banned),
		"storage_root": cfg.StorageRoot,
	}).Info("copy server configured")
	return server, nil
}

func buildGenerator(cfg Config) (ai.Generator, string, bool, error) {
	if cfg.Generator != nil {
		return cfg.Generator, "custom", cfg.Generator.Enabled(), nil
	}
	if cfg.DisableAI {
		logrus.Info("AI generator disabled via configuration; using template generator")
		return ai.NewMockGenerator(), "mock", false, nil
	}
	primary, err := ai.NewClient(cfg.AIConfig)
	if errors.Is(err, ai.ErrDisabled) {
		logrus.Info("AI generator disabled - no API key configured; using template generator")
		return ai.NewMockGenerator(), "mock", false, nil
	}
	if err != nil {
		return nil, "", false, fmt.Errorf("ai client: %w", err)
	}

	fallbackModel := strings.TrimSpace(cfg.FallbackModel)
	if fallbackModel == "" || strings.EqualFold(fallbackModel, primary.Model()) {
		return primary, primary.Model(), true, nil
	}
	fallbackCfg := cfg.AIConfig
	fallbackCfg.Model = fallbackModel
	fallback, err := ai.NewClient(fallbackCfg)
	if err != nil {
		return nil, "", false, fmt.Errorf("ai fallback client: %w", err)
	}
	return ai.WithFallback(primary, fallback), primary.Model(), true, nil
}

// Close releases the database handle.
func (s *Server) Close() error {
	return s.db.Close()
}

// Notifier exposes the websocket broadcaster.
func (s *Server) Notifier() *GenerationNotifier {
	return s.notifier
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware())
	r.MaxMultipartMemory = s.maxFileBytes + 1<<20

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)
	r.Static("/static", s.storageRoot)

	api := r.Group("/api")
	{
		api.POST("/copy/generate", s.handleGenerate)
		api.POST("/copy/rank", s.handleRank)
		api.GET("/generations", s.handleListGenerations)
		api.GET("/generations/stream", s.handleGenerationStream)
		api.GET("/generations/:id", s.handleGetGeneration)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	ageTokens, roleTokens := s.engine.Personas().Tokens()
	goals := make([]string, 0, len(scoring.Goals()))
	for _, goal := range scoring.Goals() {
		goals = append(goals, string(goal))
	}
	count, err := s.db.CountGenerations()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ai_enabled":           s.aiEnabled,
		"model":                s.model,
		"persona_ages":         ageTokens,
		"persona_roles":        roleTokens,
		"goals":                goals,
		"platforms":            prompt.Platforms(),
		"default_limits":       candidate.DefaultLimits(),
		"diversity_k":          engine.DefaultDiversityK,
		"similarity_threshold": engine.DefaultSimilarityThreshold,
		"banned_terms_path":    s.bannedTermsPath,
		"max_file_bytes":       s.maxFileBytes,
		"generations":          count,
	})
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseUintParam(value string) (uint, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, errors.New("identifier is required")
	}
	parsed, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid identifier: %w", err)
	}
	if parsed == 0 {
		return 0, errors.New("identifier must be greater than zero")
	}
	return uint(parsed), nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
