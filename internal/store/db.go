package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a generation does not exist.
var ErrNotFound = errors.New("generation not found")

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Generation{}, &CandidateScore{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	if err := applyIndexes(db); err != nil {
		return nil, fmt.Errorf("apply indexes: %w", err)
	}
	return &Database{gorm: db}, nil
}

// GORM exposes the raw gorm.DB handle.
func (d *Database) GORM() *gorm.DB {
	return d.gorm
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveGeneration writes a generation and its ranked candidates in one transaction.
func (d *Database) SaveGeneration(g *Generation) error {
	if g == nil {
		return errors.New("generation is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	candidates := g.Candidates
	g.Candidates = nil
	defer func() { g.Candidates = candidates }()
	return d.gorm.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(g).Error; err != nil {
			return err
		}
		if len(candidates) == 0 {
			return nil
		}
		for i := range candidates {
			candidates[i].GenerationID = g.ID
		}
		return tx.CreateInBatches(candidates, 100).Error
	})
}

// GetGeneration fetches a generation with its candidates ordered by position.
func (d *Database) GetGeneration(id uint) (*Generation, error) {
	var g Generation
	err := d.gorm.Preload("Candidates", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&g, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CountGenerations returns the number of stored generations.
func (d *Database) CountGenerations() (int64, error) {
	var count int64
	if err := d.gorm.Model(&Generation{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GenerationQuery encapsulates filters and pagination for listing generations.
type GenerationQuery struct {
	Query      string
	Persona    string
	Platform   string
	Refinement string
	Sort       string
	Offset     int
	Limit      int
}

// ListGenerations returns paginated generations applying optional filters. Candidates are not loaded.
func (d *Database) ListGenerations(opts GenerationQuery) ([]Generation, int64, error) {
	var total int64
	base := d.gorm.Model(&Generation{})
	if q := strings.TrimSpace(opts.Query); q != "" {
		like := fmt.Sprintf("%%%s%%", q)
		base = base.Where("headline LIKE ? OR subline LIKE ? OR brand LIKE ? OR product LIKE ?", like, like, like, like)
	}
	if persona := strings.TrimSpace(opts.Persona); persona != "" {
		base = base.Where("persona = ?", persona)
	}
	if platform := strings.TrimSpace(opts.Platform); platform != "" {
		base = base.Where("LOWER(platform) = ?", strings.ToLower(platform))
	}
	if status := strings.TrimSpace(opts.Refinement); status != "" {
		base = base.Where("refinement_status = ?", strings.ToLower(status))
	}

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	queryBuilder := base.Order(orderForSort(opts.Sort)).Offset(opts.Offset)
	if opts.Limit > 0 {
		queryBuilder = queryBuilder.Limit(opts.Limit)
	}

	var rows []Generation
	if err := queryBuilder.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func orderForSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "score_desc":
		return "generations.best_score DESC, generations.id DESC"
	case "score_asc":
		return "generations.best_score ASC, generations.id DESC"
	case "created_asc":
		return "generations.created_at ASC, generations.id ASC"
	default:
		return "generations.created_at DESC, generations.id DESC"
	}
}

func applyIndexes(db *gorm.DB) error {
	stmts := []string{
		"CREATE INDEX IF NOT EXISTS idx_generations_persona_platform ON generations(persona, platform)",
		"CREATE INDEX IF NOT EXISTS idx_candidate_scores_generation_position ON candidate_scores(generation_id, position)",
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
