package service

import (
	"context"
	"errors"
	"strings"

	"github.com/guttosm/flexledger/internal/domain/models"
	"github.com/guttosm/flexledger/internal/storage"
)

// ErrInvalidStatus is returned for a status filter other than open or closed.
var ErrInvalidStatus = errors.New("status must be open or closed")

// PortfolioService answers read queries over positions, journal and ledger.
type PortfolioService interface {
	Positions(ctx context.Context, status, symbol string) ([]models.Position, error)
	Journal(ctx context.Context, limit int) ([]models.JournalEntry, error)
	Ledger(ctx context.Context, limit int) ([]models.LedgerEntry, error)
}

type portfolioService struct {
	repo storage.Repository
}

func NewPortfolioService(repo storage.Repository) PortfolioService {
	return &portfolioService{repo: repo}
}

// Positions lists aggregates newest first. status is matched case-insensitively; empty
// status or symbol means no filter.
func (s *portfolioService) Positions(ctx context.Context, status, symbol string) ([]models.Position, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.repo.Positions(ctx, storage.PositionFilter{Status: st, Symbol: strings.TrimSpace(symbol)})
}

func (s *portfolioService) Journal(ctx context.Context, limit int) ([]models.JournalEntry, error) {
	return s.repo.Journal(ctx, limit)
}

func (s *portfolioService) Ledger(ctx context.Context, limit int) ([]models.LedgerEntry, error) {
	return s.repo.ReadLedger(ctx, limit)
}

// ParseStatus maps "open"/"closed" (any case) to a PositionStatus. Empty input is no filter.
func ParseStatus(s string) (models.PositionStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "open":
		return models.StatusOpen, nil
	case "closed":
		return models.StatusClosed, nil
	default:
		return "", ErrInvalidStatus
	}
}
