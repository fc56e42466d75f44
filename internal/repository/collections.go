package repository

import (
	"context"
	"fmt"

	"bincollect/pkg/apperror"
	"bincollect/pkg/database"
)

// PostgresCollectionRepository чтение вывозов для экспорта
type PostgresCollectionRepository struct {
	db database.Querier
}

// NewPostgresCollectionRepository создаёт новый репозиторий вывозов
func NewPostgresCollectionRepository(db database.Querier) *PostgresCollectionRepository {
	return &PostgresCollectionRepository{db: db}
}

// ListForExport возвращает отфильтрованные вывозы, новые первыми
func (r *PostgresCollectionRepository) ListForExport(ctx context.Context, filter *CollectionFilter) ([]*Collection, error) {
	query := `
		SELECT c.id, c.bin_id, b.address, c.status, c.weight_kg, c.collected_at, c.created_at
		FROM collections c
		JOIN bins b ON b.id = c.bin_id`

	conditions, args := buildCollectionConditions(filter)
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY c.created_at DESC, c.id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStoreFault, "failed to list collections")
	}
	defer rows.Close()

	var collections []*Collection
	for rows.Next() {
		var c Collection
		err := rows.Scan(&c.ID, &c.BinID, &c.Address, &c.Status, &c.WeightKg, &c.CollectedAt, &c.CreatedAt)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeStoreFault, "failed to scan collection")
		}
		collections = append(collections, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStoreFault, "failed to read collection rows")
	}

	return collections, nil
}

func buildCollectionConditions(filter *CollectionFilter) ([]string, []any) {
	var conditions []string
	var args []any
	argIdx := 1

	if filter == nil {
		return conditions, args
	}

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("c.created_at >= $%d", argIdx))
		args = append(args, filter.From)
		argIdx++
	}

	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("c.created_at <= $%d", argIdx))
		args = append(args, filter.To)
		argIdx++
	}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", argIdx))
		args = append(args, filter.Status)
	}

	return conditions, args
}
