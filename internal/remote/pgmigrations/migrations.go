// Package pgmigrations embeds the schema of the PostgreSQL document store.
package pgmigrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
