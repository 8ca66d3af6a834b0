package service

import (
	"context"
	"fmt"
	"time"

	"github.com/nurpe/jobpay/internal/config"
	"github.com/nurpe/jobpay/internal/model"
	"github.com/nurpe/jobpay/internal/repository"
)

type StatementGenerator interface {
	Generate(stmt model.ClientStatement) ([]byte, error)
}

// AnalyticsService computes the windowed financial aggregates. Both queries
// are read-only and consider only settled jobs whose payment date falls in
// the inclusive [start, end] date window.
type AnalyticsService struct {
	repo         *repository.LedgerRepository
	excel        StatementGenerator
	defaultLimit int
}

type StatementResult struct {
	FileName string
	Content  []byte
}

func NewAnalyticsService(repo *repository.LedgerRepository, excel StatementGenerator, cfg *config.Config) *AnalyticsService {
	return &AnalyticsService{
		repo:         repo,
		excel:        excel,
		defaultLimit: cfg.Billing.BestClientsLimit,
	}
}

// BestProfession returns the profession whose contractors earned the most in
// the window. An empty window is an explicit failure, not a crash. Ties
// resolve to whichever row the store yields first.
func (s *AnalyticsService) BestProfession(ctx context.Context, start, end time.Time) (string, error) {
	from, to, err := normalizeWindow(start, end)
	if err != nil {
		return "", err
	}
	rows, err := s.repo.ProfessionEarnings(ctx, from, to)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", ErrNoDataInRange
	}
	return rows[0].Profession, nil
}

// BestClients returns the top clients by amount paid in the window. A
// non-positive limit falls back to the configured default.
func (s *AnalyticsService) BestClients(ctx context.Context, start, end time.Time, limit int) ([]model.ClientSpend, error) {
	from, to, err := normalizeWindow(start, end)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	return s.repo.TopClients(ctx, from, to, limit)
}

// ExportBestClients renders the best-clients aggregate as an XLSX statement.
func (s *AnalyticsService) ExportBestClients(ctx context.Context, start, end time.Time, limit int) (*StatementResult, error) {
	clients, err := s.BestClients(ctx, start, end, limit)
	if err != nil {
		return nil, err
	}

	content, err := s.excel.Generate(model.ClientStatement{
		PeriodStart: dateOnly(start),
		PeriodEnd:   dateOnly(end),
		Clients:     clients,
	})
	if err != nil {
		return nil, err
	}

	fileName := fmt.Sprintf("best-clients-%s-%s.xlsx",
		dateOnly(start).Format("20060102"), dateOnly(end).Format("20060102"))
	return &StatementResult{FileName: fileName, Content: content}, nil
}

// normalizeWindow turns an inclusive date pair into a [from, to) instant
// window covering the whole end date.
func normalizeWindow(start, end time.Time) (time.Time, time.Time, error) {
	if start.IsZero() || end.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: period dates are required", ErrInvalidInput)
	}
	from := dateOnly(start)
	to := dateOnly(end)
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start must be before or equal to end", ErrInvalidInput)
	}
	return from, to.Add(24 * time.Hour), nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
