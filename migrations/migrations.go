// Package migrations содержит встраиваемые SQL миграции
package migrations

import "embed"

// PostgresMigrations миграции PostgreSQL в формате goose
//
//go:embed postgres/*.sql
var PostgresMigrations embed.FS
