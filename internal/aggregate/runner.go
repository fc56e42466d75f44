// Package aggregate вычисляет метрики дашборда поверх схем с
// различающимися колонками: упорядоченные цепочки fallback-запросов
// вместо жёсткой привязки к одному варианту схемы.
package aggregate

import (
	"context"

	"bincollect/pkg/database"
	"bincollect/pkg/logger"
)

// Runner выполняет одиночный агрегатный COUNT-запрос.
// Любой сбой выполнения логируется и превращается в Unknown (ok=false):
// Unknown означает "пробуй следующего кандидата", никогда не ноль.
type Runner struct {
	db database.Querier
}

// NewRunner создаёт runner поверх пула или транзакции
func NewRunner(db database.Querier) *Runner {
	return &Runner{db: db}
}

// Run выполняет запрос и возвращает (значение, ok).
// ok=false означает Unknown - ошибка уже залогирована.
func (r *Runner) Run(ctx context.Context, q Query) (int64, bool) {
	var count int64
	if err := r.db.QueryRow(ctx, q.SQL).Scan(&count); err != nil {
		logger.Log.Warn("Aggregate query failed",
			"metric", q.Metric,
			"variant", q.Variant,
			"sql", q.SQL,
			"error", err,
		)
		return 0, false
	}
	return count, true
}
