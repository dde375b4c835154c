package domain

import (
	"context"
	"time"
)

// ReportRecord is the persisted trace of one assembled risk report.
type ReportRecord struct {
	ID           string             `json:"id"`
	Ticker       string             `json:"ticker"`
	CoinID       string             `json:"coin_id"`
	TotalScore   float64            `json:"total_score"`
	FactorScores map[string]float64 `json:"factor_scores"`
	CreatedAt    time.Time          `json:"created_at"`
}

// ReportHistoryStore persists report records for later inspection.
type ReportHistoryStore interface {
	Insert(ctx context.Context, rec ReportRecord) error
	ListRecent(ctx context.Context, limit int) ([]ReportRecord, error)
	GetLatest(ctx context.Context, ticker string) (ReportRecord, error)
}
