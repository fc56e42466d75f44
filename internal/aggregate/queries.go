package aggregate

// Имена метрик дашборда
const (
	MetricCollectionsThisMonth = "collections_this_month"
	MetricPendingCount         = "pending_count"
	MetricCompletedThisMonth   = "completed_this_month"
	MetricReportsCount         = "reports_count"
)

// Идентификаторы вариантов схемы. Разные развёртывания исторически
// называют колонки по-разному, отсюда цепочки кандидатов.
const (
	VariantStatusUpdatedAt = "status_updated_at"
	VariantUpdatedAt       = "updated_at"
	VariantLegacy          = "legacy"
)

// Query один кандидат агрегатного запроса: COUNT в одну строку и одну колонку
type Query struct {
	Metric  string
	Variant string
	SQL     string
}

// Metric упорядоченная цепочка кандидатов для одной метрики.
// Новый вариант схемы - это новый элемент списка, не правка логики.
type Metric struct {
	Name       string
	Candidates []Query
}

// DefaultMetrics возвращает цепочки запросов для всех метрик дашборда
func DefaultMetrics() []Metric {
	return []Metric{
		{
			Name: MetricCollectionsThisMonth,
			Candidates: []Query{
				{
					Metric:  MetricCollectionsThisMonth,
					Variant: VariantStatusUpdatedAt,
					SQL: `SELECT COUNT(*) FROM collections
						WHERE collected_at >= date_trunc('month', CURRENT_DATE)`,
				},
				{
					Metric:  MetricCollectionsThisMonth,
					Variant: VariantLegacy,
					SQL: `SELECT COUNT(*) FROM collections
						WHERE created_at >= date_trunc('month', CURRENT_DATE)`,
				},
			},
		},
		{
			Name: MetricPendingCount,
			Candidates: []Query{
				{
					Metric:  MetricPendingCount,
					Variant: VariantStatusUpdatedAt,
					SQL:     `SELECT COUNT(*) FROM bins WHERE status = 'pending'`,
				},
				{
					Metric:  MetricPendingCount,
					Variant: VariantLegacy,
					SQL:     `SELECT COUNT(*) FROM bins WHERE fill_level >= 80`,
				},
			},
		},
		{
			Name: MetricCompletedThisMonth,
			Candidates: []Query{
				{
					Metric:  MetricCompletedThisMonth,
					Variant: VariantStatusUpdatedAt,
					SQL: `SELECT COUNT(*) FROM collections
						WHERE status = 'completed'
						AND status_updated_at >= date_trunc('month', CURRENT_DATE)`,
				},
				{
					Metric:  MetricCompletedThisMonth,
					Variant: VariantUpdatedAt,
					SQL: `SELECT COUNT(*) FROM collections
						WHERE status = 'completed'
						AND updated_at >= date_trunc('month', CURRENT_DATE)`,
				},
			},
		},
		{
			Name: MetricReportsCount,
			Candidates: []Query{
				{
					Metric:  MetricReportsCount,
					Variant: VariantStatusUpdatedAt,
					SQL:     `SELECT COUNT(*) FROM reports`,
				},
			},
		},
	}
}

// pinVariant переставляет кандидата авторитетного варианта в начало
// цепочки. Остальные кандидаты сохраняются как migration aid.
func pinVariant(metrics []Metric, variant string) []Metric {
	if variant == "" {
		return metrics
	}

	pinned := make([]Metric, len(metrics))
	for i, m := range metrics {
		candidates := make([]Query, 0, len(m.Candidates))
		var rest []Query
		for _, q := range m.Candidates {
			if q.Variant == variant {
				candidates = append(candidates, q)
			} else {
				rest = append(rest, q)
			}
		}
		candidates = append(candidates, rest...)
		pinned[i] = Metric{Name: m.Name, Candidates: candidates}
	}
	return pinned
}
