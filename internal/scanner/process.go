package scanner

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"linkarr/internal/events"
	"linkarr/internal/linker"
	"linkarr/internal/logging"
	"linkarr/internal/parse"
	"linkarr/internal/records"
	"linkarr/internal/services"
	"linkarr/internal/settings"
	"linkarr/internal/tmdb"
)

type outcome struct {
	isNew   bool
	skipped bool
	status  records.Status
}

// processPath is the worker body for one discovered file. Errors never
// escape: they become record state so the scan always completes.
func (s *Scanner) processPath(ctx context.Context, cand candidate, doc settings.Settings) (o outcome) {
	var record *records.Record
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("worker panic",
				logging.String("path", cand.path),
				logging.Any("panic", r))
			o.skipped = false
			o.status = records.StatusFailed
			if record != nil {
				record.Status = records.StatusFailed
				record.ErrorMessage = fmt.Sprintf("panic: %v", r)
				if err := s.store.Update(ctx, record); err != nil {
					s.logger.Warn("persist record failed",
						logging.Int64("id", record.ID),
						logging.Error(err))
				}
			}
		}
	}()

	record, err := s.store.FindBySourcePath(ctx, cand.path)
	if err != nil {
		s.logger.Warn("lookup failed", logging.String("path", cand.path), logging.Error(err))
		return outcome{status: records.StatusFailed}
	}

	if record == nil {
		record = newRecordFromPath(cand)
		record, err = s.store.Insert(ctx, record)
		if err != nil {
			s.logger.Warn("insert failed", logging.String("path", cand.path), logging.Error(err))
			return outcome{status: records.StatusFailed}
		}
		s.bus.Emit(events.KindFileAdded, record)
		o.isNew = true
	} else if record.Status != records.StatusPending {
		return outcome{skipped: true, status: record.Status}
	}

	s.runPipeline(ctx, record, doc)
	o.status = record.Status
	return o
}

// newRecordFromPath parses the candidate and builds its pending record.
func newRecordFromPath(cand candidate) *records.Record {
	parsed := parse.ParsePath(cand.path)
	record := &records.Record{
		SourcePath:     cand.path,
		SourceFilename: filepath.Base(cand.path),
		FileSize:       cand.size,
		ParsedTitle:    parsed.Title,
		ParsedYear:     parsed.Year,
		ParsedSeason:   parsed.Season,
		ParsedEpisode:  parsed.Episode,
		Kind:           kindFromParse(parsed.Kind),
		Status:         records.StatusPending,
	}
	if cand.kind != records.KindUnknown {
		record.Kind = cand.kind
	}
	return record
}

// runPipeline advances a pending record through match and link and persists
// the result.
func (s *Scanner) runPipeline(ctx context.Context, record *records.Record, doc settings.Settings) {
	err := s.matchAndLink(ctx, record, doc)
	if err != nil {
		record.Status = services.FailureStatus(err)
		record.ErrorMessage = err.Error()
		if record.Status == records.StatusManual {
			s.holdForManual(record, doc)
		}
	}
	now := time.Now().UTC()
	record.ProcessedAt = &now

	if updateErr := s.store.Update(ctx, record); updateErr != nil {
		s.logger.Warn("persist record failed",
			logging.Int64("id", record.ID),
			logging.Error(updateErr))
	}
	s.bus.Emit(events.KindFileUpdated, record)
}

func (s *Scanner) matchAndLink(ctx context.Context, record *records.Record, doc settings.Settings) error {
	candidate, err := s.matcher.Match(ctx, tmdb.Request{
		Title: record.ParsedTitle,
		Year:  record.ParsedYear,
		Type:  mediaTypeFor(record.Kind),
	})
	if err != nil {
		return services.Wrap(services.ErrTransient, "scanner", "match", "", err)
	}
	if candidate == nil {
		return services.Wrap(services.ErrNoMatch, "scanner", "match", record.ParsedTitle, nil)
	}

	record.CatalogID = &candidate.ID
	record.CatalogTitle = candidate.Title
	record.CatalogYear = candidate.Year
	record.CatalogPosterURL = candidate.PosterURL()
	if record.Kind == records.KindUnknown {
		record.Kind = records.MediaKind(candidate.MediaType)
	}
	record.Status = records.StatusMatched
	record.ErrorMessage = ""

	destination, err := s.destinationFor(record, doc)
	if err != nil {
		return err
	}
	if err := s.linker.Link(record.SourcePath, destination); err != nil {
		return services.Wrap(services.ErrFilesystem, "scanner", "link", destination, err)
	}
	record.DestinationPath = destination
	record.Status = records.StatusLinked
	return nil
}

func (s *Scanner) destinationFor(record *records.Record, doc settings.Settings) (string, error) {
	ext := filepath.Ext(record.SourceFilename)
	switch record.Kind {
	case records.KindMovie:
		if doc.MoviesPath == "" {
			return "", services.Wrap(services.ErrConfiguration, "scanner", "link", "movies_path not configured", nil)
		}
		return linker.MoviePath(doc.MoviesPath, record.CatalogTitle, record.CatalogYear, ext), nil
	case records.KindTV:
		if doc.TVPath == "" {
			return "", services.Wrap(services.ErrConfiguration, "scanner", "link", "tv_path not configured", nil)
		}
		if record.ParsedSeason == nil || record.ParsedEpisode == nil {
			return "", services.Wrap(services.ErrValidation, "scanner", "link", "episode missing season or episode number", nil)
		}
		return linker.EpisodePath(doc.TVPath, record.CatalogTitle, record.CatalogYear,
			*record.ParsedSeason, *record.ParsedEpisode, ext), nil
	default:
		return "", services.Wrap(services.ErrValidation, "scanner", "link", "unknown media kind", nil)
	}
}

// holdForManual links the file into the _Manual holding area, best effort.
func (s *Scanner) holdForManual(record *records.Record, doc settings.Settings) {
	root := doc.MoviesPath
	if record.Kind == records.KindTV {
		root = doc.TVPath
	}
	if root == "" {
		return
	}
	destination := linker.ManualPath(root, string(record.Kind), record.SourceFilename)
	if err := s.linker.Link(record.SourcePath, destination); err != nil {
		s.logger.Debug("manual holding link failed",
			logging.String("destination", destination),
			logging.Error(err))
		return
	}
	record.DestinationPath = destination
}

// ProcessRecord re-parses one record from its source path, clears its
// catalog fields, and runs the pipeline synchronously.
func (s *Scanner) ProcessRecord(ctx context.Context, id int64) (*records.Record, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("record %d not found", id)
	}

	doc := s.settings.Current()
	if record.DestinationPath != "" {
		if err := s.linker.Remove(record.DestinationPath, doc.DestinationRoots()); err != nil {
			s.logger.Warn("remove previous destination",
				logging.String("path", record.DestinationPath),
				logging.Error(err))
		}
	}

	parsed := parse.ParsePath(record.SourcePath)
	record.ClearMatch()
	record.ParsedTitle = parsed.Title
	record.ParsedYear = parsed.Year
	record.ParsedSeason = parsed.Season
	record.ParsedEpisode = parsed.Episode
	record.Kind = kindFromParse(parsed.Kind)
	record.Status = records.StatusPending
	if err := s.store.Update(ctx, record); err != nil {
		return nil, err
	}

	s.runPipeline(ctx, record, doc)
	return record, nil
}

// ReprocessAll pushes every record in the given statuses back through the
// pipeline, emitting progress along the way.
func (s *Scanner) ReprocessAll(ctx context.Context, statuses ...records.Status) (*Summary, error) {
	matched, err := s.store.ListByStatuses(ctx, statuses...)
	if err != nil {
		return nil, err
	}

	s.bus.Emit(events.KindReprocessStarted, map[string]any{"total": len(matched)})

	tally := &counters{}
	tally.Scanned = len(matched)
	for i, record := range matched {
		if ctx.Err() != nil {
			break
		}
		updated, err := s.ProcessRecord(ctx, record.ID)
		if err != nil {
			s.logger.Warn("reprocess failed",
				logging.Int64("id", record.ID),
				logging.Error(err))
			continue
		}
		tally.add(outcome{status: updated.Status})
		s.bus.Emit(events.KindReprocessProgress, events.Progress{
			Current:  i + 1,
			Total:    len(matched),
			Filename: record.SourceFilename,
		})
	}

	s.emitStats(ctx)
	summary := tally.snapshot()
	s.bus.Emit(events.KindReprocessCompleted, summary)
	return &summary, nil
}

// RetryFailed reprocesses every failed record.
func (s *Scanner) RetryFailed(ctx context.Context) (*Summary, error) {
	return s.ReprocessAll(ctx, records.StatusFailed)
}

// CleanupIgnored deletes records whose filename matches the ignore filter,
// removing their destination links first.
func (s *Scanner) CleanupIgnored(ctx context.Context) (int, error) {
	all, err := s.store.ListByStatuses(ctx)
	if err != nil {
		return 0, err
	}
	doc := s.settings.Current()
	roots := doc.DestinationRoots()

	removed := 0
	for _, record := range all {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if !parse.ShouldIgnore(record.SourcePath) && record.Status != records.StatusIgnored {
			continue
		}
		if record.DestinationPath != "" {
			if err := s.linker.Remove(record.DestinationPath, roots); err != nil {
				s.logger.Warn("remove ignored destination",
					logging.String("path", record.DestinationPath),
					logging.Error(err))
			}
		}
		if _, err := s.store.Delete(ctx, record.ID); err != nil {
			return removed, err
		}
		s.bus.Emit(events.KindFileDeleted, map[string]any{"id": record.ID, "source_path": record.SourcePath})
		removed++
	}
	return removed, nil
}

// DeleteRecord removes one record and its destination link.
func (s *Scanner) DeleteRecord(ctx context.Context, id int64) (bool, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}
	if record.DestinationPath != "" {
		doc := s.settings.Current()
		if err := s.linker.Remove(record.DestinationPath, doc.DestinationRoots()); err != nil {
			s.logger.Warn("remove destination",
				logging.String("path", record.DestinationPath),
				logging.Error(err))
		}
	}
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if removed {
		s.bus.Emit(events.KindFileDeleted, map[string]any{"id": id, "source_path": record.SourcePath})
	}
	return removed, nil
}

// ManualMatch applies an operator-chosen catalog candidate to a record and
// links it to the canonical destination.
func (s *Scanner) ManualMatch(ctx context.Context, id int64, candidate tmdb.Candidate) (*records.Record, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("record %d not found", id)
	}
	doc := s.settings.Current()

	if record.DestinationPath != "" {
		if err := s.linker.Remove(record.DestinationPath, doc.DestinationRoots()); err != nil {
			s.logger.Warn("remove previous destination",
				logging.String("path", record.DestinationPath),
				logging.Error(err))
		}
		record.DestinationPath = ""
	}

	record.CatalogID = &candidate.ID
	record.CatalogTitle = candidate.Title
	record.CatalogYear = candidate.Year
	record.CatalogPosterURL = candidate.PosterURL()
	if candidate.MediaType != "" {
		record.Kind = records.MediaKind(candidate.MediaType)
	}
	record.Status = records.StatusMatched
	record.ErrorMessage = ""

	destination, err := s.destinationFor(record, doc)
	if err == nil {
		if linkErr := s.linker.Link(record.SourcePath, destination); linkErr != nil {
			err = services.Wrap(services.ErrFilesystem, "scanner", "link", destination, linkErr)
		} else {
			record.DestinationPath = destination
			record.Status = records.StatusLinked
		}
	}
	if err != nil {
		record.Status = services.FailureStatus(err)
		record.ErrorMessage = err.Error()
	}
	now := time.Now().UTC()
	record.ProcessedAt = &now

	if updateErr := s.store.Update(ctx, record); updateErr != nil {
		return nil, updateErr
	}
	s.bus.Emit(events.KindFileUpdated, record)
	return record, nil
}

// IgnoreRecord marks a record ignored and removes its destination link.
func (s *Scanner) IgnoreRecord(ctx context.Context, id int64) (*records.Record, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("record %d not found", id)
	}
	if record.DestinationPath != "" {
		doc := s.settings.Current()
		if err := s.linker.Remove(record.DestinationPath, doc.DestinationRoots()); err != nil {
			s.logger.Warn("remove destination",
				logging.String("path", record.DestinationPath),
				logging.Error(err))
		}
		record.DestinationPath = ""
	}
	record.Status = records.StatusIgnored
	record.ErrorMessage = ""
	if err := s.store.Update(ctx, record); err != nil {
		return nil, err
	}
	s.bus.Emit(events.KindFileUpdated, record)
	return record, nil
}

func kindFromParse(kind parse.Kind) records.MediaKind {
	switch kind {
	case parse.KindMovie:
		return records.KindMovie
	case parse.KindTV:
		return records.KindTV
	default:
		return records.KindUnknown
	}
}

func mediaTypeFor(kind records.MediaKind) tmdb.MediaType {
	switch kind {
	case records.KindMovie:
		return tmdb.MediaTypeMovie
	case records.KindTV:
		return tmdb.MediaTypeTV
	default:
		return ""
	}
}
