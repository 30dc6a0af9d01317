package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"propfeed/internal/domain"
	"propfeed/internal/storage/sqlcodec"
)

// Store is the single-file property repository used for local runs.
type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// fixed-width so created_at ordering stays lexicographic
const tsLayout = "2006-01-02T15:04:05.000000000Z"

func encTime(t time.Time) any { return t.UTC().Format(tsLayout) }

func (s *Store) UpsertProperties(ctx context.Context, ps []domain.PropertyFeedRecord) error {
	if len(ps) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", sqlcodec.NumColumns), ", ")
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO properties (`+sqlcodec.Columns+`) VALUES (`+placeholders+`)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			developer = excluded.developer,
			country = excluded.country,
			city = excluded.city,
			area = excluded.area,
			property_type = excluded.property_type,
			bedrooms = excluded.bedrooms,
			bathrooms = excluded.bathrooms,
			size_sqft = excluded.size_sqft,
			price_aed = excluded.price_aed,
			original_price = excluded.original_price,
			original_currency = excluded.original_currency,
			completion_date = excluded.completion_date,
			status = excluded.status,
			images = excluded.images,
			amenities = excluded.amenities,
			payment_plan = excluded.payment_plan,
			source = excluded.source,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range ps {
		args, err := sqlcodec.Args(p, encTime)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) LogBatch(ctx context.Context, b domain.ImportBatch) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_batches (id, source, row_count, converted_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Source, b.Rows, b.Converted, encTime(b.CreatedAt))
	return err
}

func (s *Store) GetProperty(ctx context.Context, id string) (domain.PropertyFeedRecord, error) {
	p, err := sqlcodec.Scan(s.db.QueryRowContext(ctx, "SELECT "+sqlcodec.Columns+" FROM properties WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return domain.PropertyFeedRecord{}, domain.ErrNotFound
	}
	return p, err
}

func (s *Store) ListProperties(ctx context.Context, q domain.PropertyQuery) (domain.PropertiesPage, error) {
	query, args := sqlcodec.ListQuery(q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.PropertiesPage{}, err
	}
	defer rows.Close()

	var out []domain.PropertyFeedRecord
	for rows.Next() {
		p, err := sqlcodec.Scan(rows)
		if err != nil {
			return domain.PropertiesPage{}, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return domain.PropertiesPage{}, err
	}
	return domain.PropertiesPage{Items: out}, nil
}

func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS properties (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			developer TEXT NOT NULL,
			country TEXT NOT NULL,
			city TEXT NOT NULL,
			area TEXT NOT NULL DEFAULT '',
			property_type TEXT NOT NULL,
			bedrooms INTEGER NOT NULL DEFAULT 0,
			bathrooms INTEGER NOT NULL DEFAULT 0,
			size_sqft REAL NOT NULL DEFAULT 0,
			price_aed REAL NOT NULL DEFAULT 0,
			original_price REAL,
			original_currency TEXT,
			completion_date TEXT,
			status TEXT NOT NULL,
			images TEXT NOT NULL,
			amenities TEXT NOT NULL,
			payment_plan TEXT,
			source TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_properties_market ON properties(country, city);`,
		`CREATE INDEX IF NOT EXISTS idx_properties_created ON properties(created_at, id);`,
		`CREATE TABLE IF NOT EXISTS import_batches (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			converted_count INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}

	return nil
}
