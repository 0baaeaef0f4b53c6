package service

import (
	"go.uber.org/zap"

	"schoolportal/backend/config"
	"schoolportal/backend/internal/repository"
	"schoolportal/backend/internal/slotgrid"
	"schoolportal/backend/pkg/redis"
)

// Service aggregates all business services.
type Service struct {
	Period     PeriodService
	Projection ProjectionService
	Export     ExportService
}

// NewService wires the service layer. cache may be nil; projections
// then skip caching and every read hits the store.
func NewService(cfg *config.Config, repo *repository.Repository, grid *slotgrid.Grid, cache *redis.Client, logger *zap.Logger) *Service {
	return &Service{
		Period:     NewPeriodService(repo, grid, cache, logger),
		Projection: NewProjectionService(repo, grid, cache, logger),
		Export:     NewExportService(repo, grid, cfg.Schedule.AgendaWeeksAhead, logger),
	}
}
