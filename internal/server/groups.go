package server

import (
	"strconv"

	"linkarr/internal/records"
)

// MediaGroup folds the records of one movie or show. TV records are
// bucketed per season; movie and unknown records land in Records.
type MediaGroup struct {
	Title     string            `json:"title"`
	Year      *int              `json:"year,omitempty"`
	Kind      records.MediaKind `json:"media_kind"`
	CatalogID *int64            `json:"catalog_id,omitempty"`
	PosterURL string            `json:"poster_url,omitempty"`
	Seasons   []*SeasonGroup    `json:"seasons,omitempty"`
	Records   []*records.Record `json:"records,omitempty"`
}

// SeasonGroup holds one season's episodes in store order.
type SeasonGroup struct {
	Season   int               `json:"season"`
	Episodes []*records.Record `json:"episodes"`
}

type groupedResponse struct {
	Groups []*MediaGroup `json:"groups"`
	Count  int           `json:"count"`
}

// groupRecords folds an ordered record list into per-media groups. The
// input must already be sorted by display title, season, episode, which is
// what the store's grouped query returns.
func groupRecords(list []*records.Record) groupedResponse {
	var groups []*MediaGroup
	byKey := make(map[string]*MediaGroup)

	for _, record := range list {
		key := groupKey(record)
		group, ok := byKey[key]
		if !ok {
			group = &MediaGroup{
				Title:     displayTitle(record),
				Kind:      record.Kind,
				CatalogID: record.CatalogID,
				PosterURL: record.CatalogPosterURL,
			}
			if record.CatalogYear != nil {
				group.Year = record.CatalogYear
			} else {
				group.Year = record.ParsedYear
			}
			byKey[key] = group
			groups = append(groups, group)
		}

		if record.Kind == records.KindTV {
			season := 0
			if record.ParsedSeason != nil {
				season = *record.ParsedSeason
			}
			group.addEpisode(season, record)
			continue
		}
		group.Records = append(group.Records, record)
	}

	return groupedResponse{Groups: groups, Count: len(groups)}
}

func (g *MediaGroup) addEpisode(season int, record *records.Record) {
	for _, bucket := range g.Seasons {
		if bucket.Season == season {
			bucket.Episodes = append(bucket.Episodes, record)
			return
		}
	}
	g.Seasons = append(g.Seasons, &SeasonGroup{
		Season:   season,
		Episodes: []*records.Record{record},
	})
}

// groupKey identifies the media a record belongs to: the catalog id when
// matched, otherwise the display title. Kind keeps a movie and a show with
// the same title apart.
func groupKey(record *records.Record) string {
	if record.CatalogID != nil {
		return string(record.Kind) + ":id:" + strconv.FormatInt(*record.CatalogID, 10)
	}
	return string(record.Kind) + ":title:" + displayTitle(record)
}

func displayTitle(record *records.Record) string {
	if record.CatalogTitle != "" {
		return record.CatalogTitle
	}
	if record.ParsedTitle != "" {
		return record.ParsedTitle
	}
	return record.SourceFilename
}
