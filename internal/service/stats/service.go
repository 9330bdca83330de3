package stats

import (
	"context"

	"go.uber.org/zap"

	"pr-reviewer/internal/db"
	"pr-reviewer/internal/domain"
)

type statsRepository interface {
	GetStats(ctx context.Context) (domain.Stats, error)
}

// Service aggregates assignment statistics
type Service struct {
	statsRepo  statsRepository
	transactor db.Transactioner
	logger     *zap.Logger
}

func NewService(statsRepo statsRepository, transactor db.Transactioner, logger *zap.Logger) *Service {
	return &Service{
		statsRepo:  statsRepo,
		transactor: transactor,
		logger:     logger,
	}
}

// GetStats reads all counters from one snapshot.
func (s *Service) GetStats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	err := s.transactor.Do(ctx, func(txCtx context.Context) error {
		var err error
		stats, err = s.statsRepo.GetStats(txCtx)
		return err
	})
	if err != nil {
		err = domain.Sanitize(err)
		s.logger.Error("get stats failed", zap.Error(err))
		return domain.Stats{}, err
	}
	return stats, nil
}
