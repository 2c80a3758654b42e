// Package migrations embeds the SQL schema for both storage drivers.
package migrations

import (
	"embed"
	"io/fs"
)

// FS holds the PostgreSQL migrations.
//
//go:embed *.sql
var FS embed.FS

//go:embed sqlite/*.sql
var sqliteFS embed.FS

// SQLite returns the SQLite migrations rooted at their directory.
func SQLite() fs.FS {
	sub, err := fs.Sub(sqliteFS, "sqlite")
	if err != nil {
		panic(err)
	}
	return sub
}
