package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Insert stores a new record. A duplicate source path collapses to an update
// of the existing row; the persisted record is returned either way.
func (s *Store) Insert(ctx context.Context, record *Record) (*Record, error) {
	if record == nil {
		return nil, errors.New("record is nil")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	if record.Status == "" {
		record.Status = StatusPending
	}
	if record.Kind == "" {
		record.Kind = KindUnknown
	}

	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO media_records (
            source_path, source_filename, file_size,
            parsed_title, parsed_year, parsed_season, parsed_episode, media_kind,
            catalog_id, catalog_title, catalog_year, catalog_poster_url,
            destination_path, status, error_message,
            created_at, updated_at, processed_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(source_path) DO UPDATE SET
            source_filename = excluded.source_filename,
            file_size = excluded.file_size,
            parsed_title = excluded.parsed_title,
            parsed_year = excluded.parsed_year,
            parsed_season = excluded.parsed_season,
            parsed_episode = excluded.parsed_episode,
            media_kind = excluded.media_kind,
            status = excluded.status,
            updated_at = excluded.updated_at`,
		record.SourcePath,
		record.SourceFilename,
		record.FileSize,
		nullableString(record.ParsedTitle),
		nullableIntPtr(record.ParsedYear),
		nullableIntPtr(record.ParsedSeason),
		nullableIntPtr(record.ParsedEpisode),
		record.Kind,
		nullableInt64Ptr(record.CatalogID),
		nullableString(record.CatalogTitle),
		nullableIntPtr(record.CatalogYear),
		nullableString(record.CatalogPosterURL),
		nullableString(record.DestinationPath),
		record.Status,
		nullableString(record.ErrorMessage),
		timestamp,
		timestamp,
		nullableTime(record.ProcessedAt),
	); err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}

	return s.FindBySourcePath(ctx, record.SourcePath)
}

// Update persists changes to an existing record.
func (s *Store) Update(ctx context.Context, record *Record) error {
	if record == nil {
		return errors.New("record is nil")
	}
	record.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE media_records
         SET source_filename = ?, file_size = ?,
             parsed_title = ?, parsed_year = ?, parsed_season = ?, parsed_episode = ?, media_kind = ?,
             catalog_id = ?, catalog_title = ?, catalog_year = ?, catalog_poster_url = ?,
             destination_path = ?, status = ?, error_message = ?,
             updated_at = ?, processed_at = ?
         WHERE id = ?`,
		record.SourceFilename,
		record.FileSize,
		nullableString(record.ParsedTitle),
		nullableIntPtr(record.ParsedYear),
		nullableIntPtr(record.ParsedSeason),
		nullableIntPtr(record.ParsedEpisode),
		record.Kind,
		nullableInt64Ptr(record.CatalogID),
		nullableString(record.CatalogTitle),
		nullableIntPtr(record.CatalogYear),
		nullableString(record.CatalogPosterURL),
		nullableString(record.DestinationPath),
		record.Status,
		nullableString(record.ErrorMessage),
		record.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(record.ProcessedAt),
		record.ID,
	); err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

// Delete removes a record by identifier. Callers are responsible for removing
// the destination link first.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM media_records WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Get fetches a record by identifier, returning nil when absent.
func (s *Store) Get(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM media_records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// FindBySourcePath returns the record keyed by the given source path, or nil.
func (s *Store) FindBySourcePath(ctx context.Context, path string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM media_records WHERE source_path = ?`, path)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by source path: %w", err)
	}
	return record, nil
}

// QueryOptions filters and pages a record listing.
type QueryOptions struct {
	Status Status
	Kind   MediaKind
	Search string
	Limit  int
	Offset int
}

// Query returns records matching the options ordered by creation time,
// newest first.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]*Record, error) {
	where, args := buildFilter(opts.Status, opts.Kind, opts.Search)
	query := `SELECT ` + recordColumns + ` FROM media_records` + where + ` ORDER BY created_at DESC, id DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// GroupByMedia returns matching records ordered by catalog title, season, and
// episode so callers can fold them into per-title groups.
func (s *Store) GroupByMedia(ctx context.Context, opts QueryOptions) ([]*Record, error) {
	where, args := buildFilter(opts.Status, opts.Kind, opts.Search)
	query := `SELECT ` + recordColumns + ` FROM media_records` + where +
		` ORDER BY COALESCE(catalog_title, parsed_title, source_filename), parsed_season, parsed_episode`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("group records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// ListByStatuses returns every record in any of the provided statuses, oldest
// first. With no statuses, all records are returned.
func (s *Store) ListByStatuses(ctx context.Context, statuses ...Status) ([]*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM media_records`
	var args []any
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

func buildFilter(status Status, kind MediaKind, search string) (string, []any) {
	var clauses []string
	var args []any
	if status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, status)
	}
	if kind != "" {
		clauses = append(clauses, "media_kind = ?")
		args = append(args, kind)
	}
	if trimmed := strings.TrimSpace(search); trimmed != "" {
		clauses = append(clauses, "(source_filename LIKE ? OR parsed_title LIKE ? OR catalog_title LIKE ?)")
		pattern := "%" + trimmed + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func collectRecords(rows *sql.Rows) ([]*Record, error) {
	var result []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}
