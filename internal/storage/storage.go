// Package storage opens the configured property repository.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	_ "github.com/go-sql-driver/mysql"

	"propfeed/internal/domain"
	mysqlrepo "propfeed/internal/storage/mysql"
	"propfeed/internal/storage/sqlite"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Open returns the repository for driver ("mysql" or "sqlite") and a closer
// for its underlying handle.
func Open(ctx context.Context, driver, mysqlDSN, sqlitePath string) (domain.PropertyRepository, io.Closer, error) {
	switch driver {
	case "", "mysql":
		db, err := sql.Open("mysql", mysqlDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("sql.Open: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("db.Ping: %w", err)
		}
		return mysqlrepo.New(db), closerFunc(db.Close), nil
	case "sqlite":
		s, err := sqlite.New(sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", driver)
}
