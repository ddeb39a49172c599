package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

// PostgresStore keeps documents in a single table:
//
//	CREATE TABLE documents (
//	    collection text   NOT NULL,
//	    id         bigint NOT NULL,
//	    doc        jsonb  NOT NULL,
//	    PRIMARY KEY (collection, id)
//	);
//
// The jsonb doc carries "_id" and "Name" alongside any other fields.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres opens a pgx-backed connection pool and verifies it.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) Collections(ctx context.Context) ([]string, error) {
	var out []string

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT DISTINCT collection
			FROM documents
			ORDER BY collection ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			out = append(out, name)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) ListAll(ctx context.Context, collection string) ([]Document, error) {
	return s.queryDocs(ctx, `
		SELECT doc
		FROM documents
		WHERE collection = $1
		ORDER BY id ASC
	`, collection)
}

func (s *PostgresStore) GetByID(ctx context.Context, collection string, id int64) (Document, bool, error) {
	var raw []byte

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT doc
			FROM documents
			WHERE collection = $1 AND id = $2
		`, collection, id).Scan(&raw)
	})

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

func (s *PostgresStore) Search(ctx context.Context, collection, query string) ([]Document, error) {
	return s.queryDocs(ctx, `
		SELECT doc
		FROM documents
		WHERE collection = $1 AND doc->>'Name' ~ $2
		ORDER BY id ASC
	`, collection, wordPatternPosix(query))
}

func (s *PostgresStore) queryDocs(ctx context.Context, q string, args ...any) ([]Document, error) {
	out := make([]Document, 0, 16)

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var raw []byte
			if err := rows.Scan(&raw); err != nil {
				return err
			}
			var doc Document
			if err := json.Unmarshal(raw, &doc); err != nil {
				return err
			}
			out = append(out, doc)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
