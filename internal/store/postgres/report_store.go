package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/stablewatch/internal/domain"
)

// ReportStore implements domain.ReportHistoryStore using PostgreSQL.
type ReportStore struct {
	pool *pgxpool.Pool
}

// NewReportStore creates a new ReportStore backed by the given connection pool.
func NewReportStore(pool *pgxpool.Pool) *ReportStore {
	return &ReportStore{pool: pool}
}

const reportSelectCols = `id, ticker, coin_id, total_score, factor_scores, created_at`

func scanReportRows(rows pgx.Rows) ([]domain.ReportRecord, error) {
	var records []domain.ReportRecord
	for rows.Next() {
		rec, err := scanReportRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanReportRow(row pgx.Row) (domain.ReportRecord, error) {
	var (
		rec    domain.ReportRecord
		scores []byte
	)
	if err := row.Scan(
		&rec.ID, &rec.Ticker, &rec.CoinID,
		&rec.TotalScore, &scores, &rec.CreatedAt,
	); err != nil {
		return domain.ReportRecord{}, err
	}
	if len(scores) > 0 {
		if err := json.Unmarshal(scores, &rec.FactorScores); err != nil {
			return domain.ReportRecord{}, fmt.Errorf("decode factor scores: %w", err)
		}
	}
	return rec, nil
}

// Insert persists one report record. Tickers are stored lowercased so history
// lookups are case-insensitive.
func (s *ReportStore) Insert(ctx context.Context, rec domain.ReportRecord) error {
	scores, err := json.Marshal(rec.FactorScores)
	if err != nil {
		return fmt.Errorf("postgres: marshal factor scores: %w", err)
	}

	const query = `
		INSERT INTO report_history (id, ticker, coin_id, total_score, factor_scores, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`

	if _, err := s.pool.Exec(ctx, query,
		rec.ID, strings.ToLower(rec.Ticker), rec.CoinID,
		rec.TotalScore, scores, rec.CreatedAt,
	); err != nil {
		return fmt.Errorf("postgres: insert report record %s: %w", rec.ID, err)
	}
	return nil
}

// ListRecent returns the most recent report records, newest first.
func (s *ReportStore) ListRecent(ctx context.Context, limit int) ([]domain.ReportRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + reportSelectCols + ` FROM report_history
		ORDER BY created_at DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent reports: %w", err)
	}
	defer rows.Close()

	records, err := scanReportRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan report records: %w", err)
	}
	return records, nil
}

// GetLatest returns the most recent record for a ticker. It returns
// domain.ErrNotFound when the ticker has no history.
func (s *ReportStore) GetLatest(ctx context.Context, ticker string) (domain.ReportRecord, error) {
	query := `SELECT ` + reportSelectCols + ` FROM report_history
		WHERE ticker = $1 ORDER BY created_at DESC LIMIT 1`

	rec, err := scanReportRow(s.pool.QueryRow(ctx, query, strings.ToLower(ticker)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ReportRecord{}, domain.ErrNotFound
		}
		return domain.ReportRecord{}, fmt.Errorf("postgres: get latest report %s: %w", ticker, err)
	}
	return rec, nil
}

// Compile-time interface check.
var _ domain.ReportHistoryStore = (*ReportStore)(nil)
