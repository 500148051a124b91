package scanner

import (
	"context"
	"errors"
	"os"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"linkarr/internal/arr"
	"linkarr/internal/events"
	"linkarr/internal/logging"
	"linkarr/internal/settings"
)

// Options narrows a scan.
type Options struct {
	// Directory restricts discovery to one subtree. The orphan sweep still
	// covers every record regardless.
	Directory string
}

// Scan runs one full scan: discovery, bounded-parallel processing in chunks,
// the orphan sweep, and the final summary. Only one scan runs at a time.
func (s *Scanner) Scan(ctx context.Context, opts Options) (*Summary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer s.running.Store(false)

	doc := s.settings.Current()
	if doc.RequireArr {
		if err := s.arrGate(ctx, doc); err != nil {
			return nil, err
		}
	}

	found, err := s.discover(doc, opts.Directory)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := s.logger.With(logging.String("scan_id", runID))
	logger.Info("scan started", logging.Int("total", len(found)))

	tally := &counters{}
	tally.Scanned = len(found)

	s.bus.Emit(events.KindScanStarted, map[string]any{
		"scan_id": runID,
		"total":   len(found),
	})
	s.bus.Emit(events.KindScanProgress, events.Progress{Current: 0, Total: len(found)})

	for start := 0; start < len(found); start += chunkSize {
		if ctx.Err() != nil {
			break
		}
		end := start + chunkSize
		if end > len(found) {
			end = len(found)
		}

		group := new(errgroup.Group)
		group.SetLimit(maxWorkers)
		for _, cand := range found[start:end] {
			cand := cand
			group.Go(func() error {
				o := s.processPath(ctx, cand, doc)
				processed := tally.add(o)
				if processed%progressEvery == 0 {
					s.bus.Emit(events.KindScanProgress, events.Progress{
						Current:  processed,
						Total:    len(found),
						Filename: cand.path,
					})
				}
				return nil
			})
		}
		_ = group.Wait()

		s.emitStats(ctx)
	}

	if ctx.Err() == nil {
		deleted, err := s.sweepOrphans(ctx, doc)
		if err != nil {
			logger.Warn("orphan sweep failed", logging.Error(err))
		}
		tally.mu.Lock()
		tally.Deleted = deleted
		tally.mu.Unlock()
	}

	s.emitStats(ctx)

	summary := tally.snapshot()
	s.bus.Emit(events.KindScanCompleted, summary)
	logger.Info("scan completed",
		logging.Int("scanned", summary.Scanned),
		logging.Int("new", summary.New),
		logging.Int("linked", summary.Linked),
		logging.Int("failed", summary.Failed),
		logging.Int("manual", summary.Manual),
		logging.Int("deleted", summary.Deleted))
	return &summary, nil
}

// sweepOrphans removes records whose source file disappeared, along with
// their destination links. The sweep is global: every record is checked,
// even when the scan itself was scoped to a subtree.
func (s *Scanner) sweepOrphans(ctx context.Context, doc settings.Settings) (int, error) {
	all, err := s.store.ListByStatuses(ctx)
	if err != nil {
		return 0, err
	}
	roots := doc.DestinationRoots()

	deleted := 0
	for _, record := range all {
		if ctx.Err() != nil {
			return deleted, ctx.Err()
		}
		if _, err := os.Stat(record.SourcePath); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			continue
		}

		if record.DestinationPath != "" {
			if err := s.linker.Remove(record.DestinationPath, roots); err != nil {
				s.logger.Warn("remove orphan destination",
					logging.String("path", record.DestinationPath),
					logging.Error(err))
			}
		}
		if _, err := s.store.Delete(ctx, record.ID); err != nil {
			s.logger.Warn("delete orphan record",
				logging.Int64("id", record.ID),
				logging.Error(err))
			continue
		}
		s.bus.Emit(events.KindFileDeleted, map[string]any{"id": record.ID, "source_path": record.SourcePath})
		deleted++
	}
	return deleted, nil
}

func (s *Scanner) emitStats(ctx context.Context) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		s.logger.Warn("stats snapshot failed", logging.Error(err))
		return
	}
	s.bus.Emit(events.KindStatsUpdated, stats)
}

func defaultArrGate(ctx context.Context, doc settings.Settings) error {
	radarr := arr.NewRadarr(doc.RadarrURL, doc.RadarrAPIKey)
	sonarr := arr.NewSonarr(doc.SonarrURL, doc.SonarrAPIKey)
	if !radarr.Configured() && !sonarr.Configured() {
		return arr.ErrNoneConfigured
	}
	var clients []*arr.Client
	if radarr.Configured() {
		clients = append(clients, radarr)
	}
	if sonarr.Configured() {
		clients = append(clients, sonarr)
	}
	return arr.CheckAll(ctx, clients...)
}
