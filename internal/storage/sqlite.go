package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"farmdash/internal/records"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps every table as (id, data) rows where data is the record
// as a JSON object. Filters and sorts run through json_extract.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ records.Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// WithClock replaces the timestamp source.
func (s *SQLiteStore) WithClock(now func() time.Time) *SQLiteStore {
	s.now = now
	return s
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) List(ctx context.Context, table string, opts records.ListOptions) ([]records.Record, error) {
	if err := records.CheckTable(table); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	query, args := buildSelect(table, opts)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	out := []records.Record{}
	for rows.Next() {
		var id int64
		var data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		rec, err := decodeRow(id, data)
		if err != nil {
			return nil, fmt.Errorf("decode %s %d: %w", table, id, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	return out, nil
}

// buildSelect renders opts as SQL. table and attribute names have been
// validated; attribute paths are still passed as parameters.
func buildSelect(table string, opts records.ListOptions) (string, []any) {
	var b strings.Builder
	var args []any
	fmt.Fprintf(&b, "SELECT id, data FROM %s", table)

	for i, f := range opts.Filters {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		col := "json_extract(data, ?)"
		var colArgs []any
		if f.Field == records.KeyID {
			col = "id"
		} else {
			colArgs = []any{"$." + f.Field}
		}
		v := bindValue(f.Value)
		switch {
		case f.Op == records.OpEq && v == nil:
			b.WriteString(col + " IS NULL")
			args = append(args, colArgs...)
		case f.Op == records.OpNe && v == nil:
			b.WriteString(col + " IS NOT NULL")
			args = append(args, colArgs...)
		case f.Op == records.OpEq:
			b.WriteString(col + " = ?")
			args = append(args, colArgs...)
			args = append(args, v)
		case f.Op == records.OpNe:
			fmt.Fprintf(&b, "(%s IS NULL OR %s != ?)", col, col)
			args = append(args, colArgs...)
			args = append(args, colArgs...)
			args = append(args, v)
		case f.Op == records.OpGte:
			b.WriteString(col + " >= ?")
			args = append(args, colArgs...)
			args = append(args, v)
		case f.Op == records.OpLte:
			b.WriteString(col + " <= ?")
			args = append(args, colArgs...)
			args = append(args, v)
		}
	}

	b.WriteString(" ORDER BY ")
	for _, srt := range opts.Sort {
		if srt.Field == records.KeyID {
			b.WriteString("id")
		} else {
			b.WriteString("json_extract(data, ?)")
			args = append(args, "$."+srt.Field)
		}
		if srt.Desc {
			b.WriteString(" DESC")
		}
		b.WriteString(", ")
	}
	b.WriteString("id")

	if opts.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, opts.Limit)
	}
	return b.String(), args
}

// bindValue maps filter values onto what json_extract yields: booleans are
// stored as 0/1.
func bindValue(v any) any {
	switch x := v.(type) {
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	}
	return v
}

func decodeRow(id int64, data string) (records.Record, error) {
	var rec records.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		rec = records.Record{}
	}
	rec[records.KeyID] = id
	return rec, nil
}

func encodeRow(rec records.Record) (string, error) {
	body := rec.Clone()
	delete(body, records.KeyID)
	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *SQLiteStore) Get(ctx context.Context, table string, id int64) (records.Record, error) {
	if err := records.CheckTable(table); err != nil {
		return nil, err
	}
	var data string
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT data FROM %s WHERE id = ?", table), id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %d: %w", table, id, records.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", table, id, err)
	}
	rec, err := decodeRow(id, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s %d: %w", table, id, err)
	}
	return rec, nil
}

func (s *SQLiteStore) Create(ctx context.Context, table string, rec records.Record) (records.Record, error) {
	if err := records.CheckTable(table); err != nil {
		return nil, err
	}
	stamp := s.now().UTC().Format(time.RFC3339Nano)
	row := rec.Clone()
	row[records.KeyCreatedAt] = stamp
	row[records.KeyUpdatedAt] = stamp
	data, err := encodeRow(row)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", table, err)
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf("INSERT INTO %s (data) VALUES (?)", table), data)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}

	slog.InfoContext(ctx, "Record saved to SQLite", "table", table, "id", id)
	return decodeRow(id, data)
}

func (s *SQLiteStore) Update(ctx context.Context, table string, id int64, partial records.Record) (records.Record, error) {
	if err := records.CheckTable(table); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update %s: %w", table, err)
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx, fmt.Sprintf("SELECT data FROM %s WHERE id = ?", table), id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %d: %w", table, id, records.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", table, id, err)
	}
	row, err := decodeRow(id, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s %d: %w", table, id, err)
	}
	for k, v := range partial {
		if k == records.KeyID || k == records.KeyCreatedAt {
			continue
		}
		row[k] = v
	}
	row[records.KeyUpdatedAt] = s.now().UTC().Format(time.RFC3339Nano)

	newData, err := encodeRow(row)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET data = ? WHERE id = ?", table), newData, id); err != nil {
		return nil, fmt.Errorf("update %s %d: %w", table, id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update %s %d: %w", table, id, err)
	}

	slog.InfoContext(ctx, "Record updated in SQLite", "table", table, "id", id, "attributes", len(partial))
	return decodeRow(id, newData)
}

func (s *SQLiteStore) Delete(ctx context.Context, table string, id int64) (bool, error) {
	if err := records.CheckTable(table); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if err != nil {
		return false, fmt.Errorf("delete %s %d: %w", table, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s %d: %w", table, id, err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Record deleted from SQLite", "table", table, "id", id)
	}
	return n > 0, nil
}
