package aggregate

import (
	"context"

	"bincollect/pkg/database"
	"bincollect/pkg/logger"
	"bincollect/pkg/metrics"
	"bincollect/pkg/telemetry"
)

// Snapshot снимок метрик дашборда.
// Метрики считаются независимо, строгой согласованности между ними нет.
type Snapshot struct {
	CollectionsThisMonth int64 `json:"collectionsThisMonth"`
	PendingCount         int64 `json:"pendingCount"`
	CompletedThisMonth   int64 `json:"completedThisMonth"`
	ReportsCount         int64 `json:"reportsCount"`
}

// Aggregator считает метрики дашборда через цепочки fallback-запросов
type Aggregator struct {
	runner  *Runner
	metrics []Metric
}

// NewAggregator создаёт агрегатор. schemaVariant закрепляет авторитетный
// вариант схемы: его кандидат переставляется в начало каждой цепочки.
func NewAggregator(db database.Querier, schemaVariant string) *Aggregator {
	return &Aggregator{
		runner:  NewRunner(db),
		metrics: pinVariant(DefaultMetrics(), schemaVariant),
	}
}

// Snapshot вычисляет все метрики. Никогда не возвращает ошибку:
// метрика, для которой все кандидаты упали, отображается как 0.
func (a *Aggregator) Snapshot(ctx context.Context) *Snapshot {
	ctx, span := telemetry.StartSpan(ctx, "aggregate.Snapshot")
	defer span.End()

	snap := &Snapshot{}
	for _, m := range a.metrics {
		value := a.resolve(ctx, m)
		switch m.Name {
		case MetricCollectionsThisMonth:
			snap.CollectionsThisMonth = value
		case MetricPendingCount:
			snap.PendingCount = value
		case MetricCompletedThisMonth:
			snap.CompletedThisMonth = value
		case MetricReportsCount:
			snap.ReportsCount = value
		}
	}
	return snap
}

// resolve пробует кандидатов по порядку, первый не-Unknown выигрывает
func (a *Aggregator) resolve(ctx context.Context, m Metric) int64 {
	for i, q := range m.Candidates {
		if value, ok := a.runner.Run(ctx, q); ok {
			return value
		}
		if i < len(m.Candidates)-1 {
			metrics.Get().AggregateFallbacksTotal.WithLabelValues(m.Name).Inc()
		}
	}

	logger.Log.Warn("All aggregate candidates failed, metric defaults to zero",
		"metric", m.Name,
		"candidates", len(m.Candidates),
	)
	return 0
}
