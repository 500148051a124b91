package records

import (
	"database/sql"
	"errors"
	"time"
)

const recordColumns = "id, source_path, source_filename, file_size, parsed_title, parsed_year, parsed_season, parsed_episode, media_kind, catalog_id, catalog_title, catalog_year, catalog_poster_url, destination_path, status, error_message, created_at, updated_at, processed_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id             int64
		sourcePath     string
		sourceFilename string
		fileSize       sql.NullInt64
		parsedTitle    sql.NullString
		parsedYear     sql.NullInt64
		parsedSeason   sql.NullInt64
		parsedEpisode  sql.NullInt64
		kindStr        string
		catalogID      sql.NullInt64
		catalogTitle   sql.NullString
		catalogYear    sql.NullInt64
		catalogPoster  sql.NullString
		destination    sql.NullString
		statusStr      string
		errorMessage   sql.NullString
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
		processedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourcePath,
		&sourceFilename,
		&fileSize,
		&parsedTitle,
		&parsedYear,
		&parsedSeason,
		&parsedEpisode,
		&kindStr,
		&catalogID,
		&catalogTitle,
		&catalogYear,
		&catalogPoster,
		&destination,
		&statusStr,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&processedRaw,
	); err != nil {
		return nil, err
	}

	record := &Record{
		ID:               id,
		SourcePath:       sourcePath,
		SourceFilename:   sourceFilename,
		FileSize:         fileSize.Int64,
		ParsedTitle:      parsedTitle.String,
		Kind:             MediaKind(kindStr),
		CatalogTitle:     catalogTitle.String,
		CatalogPosterURL: catalogPoster.String,
		DestinationPath:  destination.String,
		Status:           Status(statusStr),
		ErrorMessage:     errorMessage.String,
	}
	record.ParsedYear = nullInt(parsedYear)
	record.ParsedSeason = nullInt(parsedSeason)
	record.ParsedEpisode = nullInt(parsedEpisode)
	record.CatalogYear = nullInt(catalogYear)
	if catalogID.Valid {
		value := catalogID.Int64
		record.CatalogID = &value
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		record.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		record.UpdatedAt = updated
	}
	if processedRaw.Valid {
		if processed, err := parseTimeString(processedRaw.String); err == nil {
			record.ProcessedAt = &processed
		}
	}
	return record, nil
}

func nullInt(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableIntPtr(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableInt64Ptr(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
