package migrations

import "embed"

// FS - SQL-миграции для PostgreSQL в формате golang-migrate.
//
//go:embed *.sql
var FS embed.FS
