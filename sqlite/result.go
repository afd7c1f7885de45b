package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/fwojciec/schemex"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ schemex.ResultStore = (*ResultService)(nil)

// ResultService implements schemex.ResultStore using SQLite.
type ResultService struct {
	db *DB
}

// NewResultService creates a new ResultService.
func NewResultService(db *DB) *ResultService {
	return &ResultService{db: db}
}

// UpsertResult stores result, replacing any result stored for the same URL.
// The row keeps its original ID on replacement; result.ID is set to it.
func (s *ResultService) UpsertResult(ctx context.Context, result *schemex.StoredResult) error {
	if err := result.Validate(); err != nil {
		return err
	}

	recordJSON, err := json.Marshal(result.Record)
	if err != nil {
		return schemex.Errorf(schemex.EINVALID, "record is not serializable: %v", err)
	}
	if result.ExtractedAt.IsZero() {
		result.ExtractedAt = time.Now().UTC()
	}

	var id string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO results (id, url, batch, content_hash, record_json, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			batch = excluded.batch,
			content_hash = excluded.content_hash,
			record_json = excluded.record_json,
			extracted_at = excluded.extracted_at
		RETURNING id
	`, uuid.New().String(), result.URL, result.Batch, result.ContentHash, string(recordJSON),
		result.ExtractedAt.UTC().Format(time.RFC3339)).Scan(&id)
	if err != nil {
		return err
	}

	result.ID = id
	return nil
}

// FindResultByURL retrieves the result stored for url.
func (s *ResultService) FindResultByURL(ctx context.Context, url string) (*schemex.StoredResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, url, batch, content_hash, record_json, extracted_at
		FROM results
		WHERE url = ?
	`, url)

	result, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, schemex.Errorf(schemex.ENOTFOUND, "result not found")
	}
	return result, err
}

// FindResults retrieves results matching the filter, oldest first.
func (s *ResultService) FindResults(ctx context.Context, filter schemex.ResultFilter) ([]*schemex.StoredResult, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, url, batch, content_hash, record_json, extracted_at FROM results WHERE 1=1")
	if filter.Batch != nil {
		query.WriteString(" AND batch = ?")
		args = append(args, *filter.Batch)
	}
	query.WriteString(" ORDER BY extracted_at ASC, rowid ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []*schemex.StoredResult{}
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (*schemex.StoredResult, error) {
	var r schemex.StoredResult
	var recordJSON, extractedAt string
	if err := row.Scan(&r.ID, &r.URL, &r.Batch, &r.ContentHash, &recordJSON, &extractedAt); err != nil {
		return nil, err
	}

	r.Record = schemex.NewRecord()
	if err := json.Unmarshal([]byte(recordJSON), r.Record); err != nil {
		return nil, schemex.Errorf(schemex.EINTERNAL, "corrupt record for %s: %v", r.URL, err)
	}

	var err error
	if r.ExtractedAt, err = parseRFC3339(extractedAt, "extracted_at"); err != nil {
		return nil, err
	}
	return &r, nil
}
