package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/qustavo/dotsql"
)

//go:embed queries/*.sql
var queriesFS embed.FS

// queries resolves named SQL from the embedded files.
type queries struct {
	dot *dotsql.DotSql
}

func loadQueries() (*queries, error) {
	var combined strings.Builder
	err := fs.WalkDir(queriesFS, "queries", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".sql" {
			return nil
		}
		content, err := queriesFS.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		combined.Write(content)
		combined.WriteString("\n")
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: load query files: %w", err)
	}

	dot, err := dotsql.LoadFromString(combined.String())
	if err != nil {
		return nil, fmt.Errorf("store: parse queries: %w", err)
	}
	return &queries{dot: dot}, nil
}

func (q *queries) raw(db *sqlx.DB, name string) (string, error) {
	query, err := q.dot.Raw(name)
	if err != nil {
		return "", fmt.Errorf("store: query not found: %s", name)
	}
	return db.Rebind(query), nil
}

func (q *queries) exec(ctx context.Context, db *sqlx.DB, ext sqlx.ExecerContext, name string, args ...any) (sql.Result, error) {
	query, err := q.raw(db, name)
	if err != nil {
		return nil, err
	}
	return ext.ExecContext(ctx, query, args...)
}

func (q *queries) get(ctx context.Context, db *sqlx.DB, name string, dest any, args ...any) error {
	query, err := q.raw(db, name)
	if err != nil {
		return err
	}
	return db.GetContext(ctx, dest, query, args...)
}

func (q *queries) selectRows(ctx context.Context, db *sqlx.DB, name string, dest any, args ...any) error {
	query, err := q.raw(db, name)
	if err != nil {
		return err
	}
	return db.SelectContext(ctx, dest, query, args...)
}
