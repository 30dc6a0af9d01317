package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"propfeed/internal/domain"
	"propfeed/internal/storage/sqlcodec"
)

// rows per INSERT statement; keeps placeholders well under MySQL's 65535
const batchSize = 500

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func encTime(t time.Time) any { return t.UTC() }

func (r *Repo) UpsertProperties(ctx context.Context, ps []domain.PropertyFeedRecord) error {
	if len(ps) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", sqlcodec.NumColumns), ",") + ")"
	for start := 0; start < len(ps); start += batchSize {
		end := min(start+batchSize, len(ps))
		chunk := ps[start:end]

		values := make([]string, 0, len(chunk))
		args := make([]any, 0, len(chunk)*sqlcodec.NumColumns)
		for _, p := range chunk {
			a, err := sqlcodec.Args(p, encTime)
			if err != nil {
				return err
			}
			values = append(values, placeholder)
			args = append(args, a...)
		}
		sqlStr := insertPropertiesPrefix + strings.Join(values, ",") + insertPropertiesOnDup
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repo) LogBatch(ctx context.Context, b domain.ImportBatch) error {
	_, err := r.db.ExecContext(ctx, insertBatchSQL, b.ID, b.Source, b.Rows, b.Converted, b.CreatedAt.UTC())
	return err
}

func (r *Repo) GetProperty(ctx context.Context, id string) (domain.PropertyFeedRecord, error) {
	p, err := sqlcodec.Scan(r.db.QueryRowContext(ctx, getPropertySQL, id))
	if err == sql.ErrNoRows {
		return domain.PropertyFeedRecord{}, domain.ErrNotFound
	}
	return p, err
}

func (r *Repo) ListProperties(ctx context.Context, q domain.PropertyQuery) (domain.PropertiesPage, error) {
	query, args := sqlcodec.ListQuery(q)
	rows, err := r.db.QueryContext(ctx, query, args...)
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
