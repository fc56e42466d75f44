package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"bincollect/internal/aggregate"
	"bincollect/internal/repository"
	"bincollect/pkg/cache"
	"bincollect/pkg/logger"
	"bincollect/pkg/telemetry"
)

// dashboardCacheKey ключ снапшота дашборда в кэше
const dashboardCacheKey = "dashboard:snapshot"

// DashboardData снапшот дашборда вместе со списком последних отчётов
type DashboardData struct {
	aggregate.Snapshot
	RecentReports []*repository.Report `json:"recentReports"`
}

// DashboardService собирает данные дашборда.
// Политика доступности: дашборд рендерится всегда - упавшие агрегаты
// превращаются в нули, упавший список отчётов в пустой список.
type DashboardService struct {
	aggregator  *aggregate.Aggregator
	repo        repository.ReportRepository
	cache       cache.Cache
	cacheTTL    time.Duration
	recentLimit int
}

// NewDashboardService создаёт сервис дашборда. c может быть nil - тогда
// кэширование выключено.
func NewDashboardService(
	aggregator *aggregate.Aggregator,
	repo repository.ReportRepository,
	c cache.Cache,
	cacheTTL time.Duration,
	recentLimit int,
) *DashboardService {
	if recentLimit <= 0 || recentLimit > repository.MaxRecentLimit {
		recentLimit = repository.MaxRecentLimit
	}
	return &DashboardService{
		aggregator:  aggregator,
		repo:        repo,
		cache:       c,
		cacheTTL:    cacheTTL,
		recentLimit: recentLimit,
	}
}

// Dashboard возвращает снапшот метрик и последние отчёты
func (s *DashboardService) Dashboard(ctx context.Context) *DashboardData {
	ctx, span := telemetry.StartSpan(ctx, "service.Dashboard")
	defer span.End()

	if cached := s.fromCache(ctx); cached != nil {
		return cached
	}

	data := &DashboardData{
		Snapshot:      *s.aggregator.Snapshot(ctx),
		RecentReports: []*repository.Report{},
	}

	reports, err := s.repo.ListRecent(ctx, s.recentLimit)
	if err != nil {
		logger.Log.Warn("Failed to list recent reports for dashboard", "error", err)
	} else if reports != nil {
		data.RecentReports = reports
	}

	s.toCache(ctx, data)
	return data
}

func (s *DashboardService) fromCache(ctx context.Context) *DashboardData {
	if s.cache == nil {
		return nil
	}

	raw, err := s.cache.Get(ctx, dashboardCacheKey)
	if err != nil {
		if !errors.Is(err, cache.ErrKeyNotFound) {
			logger.Log.Warn("Dashboard cache read failed", "error", err)
		}
		return nil
	}

	var data DashboardData
	if err := json.Unmarshal(raw, &data); err != nil {
		logger.Log.Warn("Dashboard cache entry is corrupt", "error", err)
		_ = s.cache.Delete(ctx, dashboardCacheKey)
		return nil
	}
	return &data
}

func (s *DashboardService) toCache(ctx context.Context, data *DashboardData) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, dashboardCacheKey, raw, s.cacheTTL); err != nil {
		logger.Log.Warn("Dashboard cache write failed", "error", err)
	}
}
