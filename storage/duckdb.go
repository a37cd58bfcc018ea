package storage

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"
	_ "github.com/marcboeker/go-duckdb/v2"
)

//go:embed schema/*.sql
var schemas embed.FS

type DuckDB = *sqlx.DB

// InitDuckDB opens the database at path and applies the schema. An empty
// path opens an in-memory database.
func InitDuckDB(path string) (DuckDB, error) {
	db, err := sqlx.Connect("duckdb", path)
	if err != nil {
		return nil, err
	}

	files, err := fs.Glob(schemas, "schema/*.sql")
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, name := range files {
		b, err := schemas.ReadFile(name)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("read %s: %s", name, err)
		}
		if _, err := db.Exec(string(b)); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %s: %s", name, err)
		}
	}

	return db, nil
}
