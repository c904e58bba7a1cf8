package repository

import (
	"context"
	"fmt"

	"claimlens-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReportRepository handles database operations for analysis reports
type ReportRepository struct {
	db *pgxpool.Pool
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

// InitSchema creates the tables this repository needs
func (r *ReportRepository) InitSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS analysis_reports (
			id         UUID PRIMARY KEY,
			video_id   TEXT,
			title      TEXT,
			status     TEXT NOT NULL,
			report     JSONB NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create analysis_reports table: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS domain_stats (
			domain           TEXT PRIMARY KEY,
			total_citations  INTEGER DEFAULT 0,
			sum_relevance    FLOAT   DEFAULT 0,
			avg_relevance    FLOAT   DEFAULT 0,
			last_cited_at    TIMESTAMPTZ DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create domain_stats table: %w", err)
	}

	return nil
}

// Create persists one analysis record
func (r *ReportRepository) Create(ctx context.Context, record *models.AnalysisRecord) error {
	query := `
		INSERT INTO analysis_reports (id, video_id, title, status, report)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	return r.db.QueryRow(
		ctx, query,
		record.ID,
		record.VideoID,
		record.Title,
		record.Status,
		record.Report,
	).Scan(&record.CreatedAt)
}

// GetByID retrieves an analysis record by ID
func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisRecord, error) {
	record := &models.AnalysisRecord{}
	query := `
		SELECT id, video_id, title, status, report, created_at
		FROM analysis_reports
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&record.ID,
		&record.VideoID,
		&record.Title,
		&record.Status,
		&record.Report,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return record, nil
}

// List returns the most recent analysis records
func (r *ReportRepository) List(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, video_id, title, status, report, created_at
		FROM analysis_reports
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.AnalysisRecord
	for rows.Next() {
		var record models.AnalysisRecord
		err := rows.Scan(
			&record.ID,
			&record.VideoID,
			&record.Title,
			&record.Status,
			&record.Report,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// UpsertDomainStats records one citation of a source domain
func (r *ReportRepository) UpsertDomainStats(ctx context.Context, domain string, relevance float64) error {
	if domain == "" {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO domain_stats (domain, total_citations, sum_relevance, avg_relevance, last_cited_at)
		VALUES ($1, 1, $2, $2, NOW())
		ON CONFLICT (domain) DO UPDATE SET
			total_citations = domain_stats.total_citations + 1,
			sum_relevance   = domain_stats.sum_relevance + $2,
			avg_relevance   = (domain_stats.sum_relevance + $2) / (domain_stats.total_citations + 1),
			last_cited_at   = NOW()`,
		domain, relevance)
	return err
}

// DomainStat is one row of source domain usage
type DomainStat struct {
	Domain         string  `json:"domain"`
	TotalCitations int     `json:"total_citations"`
	AvgRelevance   float64 `json:"avg_relevance"`
}

// TopDomains returns the most cited source domains
func (r *ReportRepository) TopDomains(ctx context.Context, limit int) ([]DomainStat, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(ctx, `
		SELECT domain, total_citations, avg_relevance
		FROM domain_stats
		ORDER BY total_citations DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []DomainStat
	for rows.Next() {
		var stat DomainStat
		if err := rows.Scan(&stat.Domain, &stat.TotalCitations, &stat.AvgRelevance); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}

	return stats, rows.Err()
}
