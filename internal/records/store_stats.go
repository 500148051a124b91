package records

import (
	"context"
	"fmt"
)

// Stats summarizes the record population.
type Stats struct {
	TotalFiles   int                       `json:"total_files"`
	ByStatus     map[string]int            `json:"by_status"`
	ByKind       map[string]int            `json:"by_kind"`
	ByKindStatus map[string]map[string]int `json:"by_kind_status"`
	SeriesTotal  int                       `json:"series_total"`
	SeriesLinked int                       `json:"series_linked"`
}

// Stats returns counts by status, by kind, and status within kind, plus
// distinct TV series counts.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	ctx = ensureContext(ctx)
	stats := &Stats{
		ByStatus:     map[string]int{},
		ByKind:       map[string]int{},
		ByKindStatus: map[string]map[string]int{},
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT media_kind, status, COUNT(1) FROM media_records GROUP BY media_kind, status`)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, status string
		var count int
		if err := rows.Scan(&kind, &status, &count); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		stats.TotalFiles += count
		stats.ByStatus[status] += count
		stats.ByKind[kind] += count
		bucket := stats.ByKindStatus[kind]
		if bucket == nil {
			bucket = map[string]int{}
			stats.ByKindStatus[kind] = bucket
		}
		bucket[status] += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats rows: %w", err)
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT catalog_id) FROM media_records WHERE media_kind = ? AND catalog_id IS NOT NULL`,
		KindTV,
	).Scan(&stats.SeriesTotal); err != nil {
		return nil, fmt.Errorf("count series: %w", err)
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT catalog_id) FROM media_records WHERE media_kind = ? AND catalog_id IS NOT NULL AND status = ?`,
		KindTV,
		StatusLinked,
	).Scan(&stats.SeriesLinked); err != nil {
		return nil, fmt.Errorf("count linked series: %w", err)
	}

	return stats, nil
}
