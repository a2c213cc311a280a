package calendar

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/delloop-lab/homes-sub001/internal/storage/models"
)

// DefaultMaxConcurrentSources caps how many source pipelines run at once.
const DefaultMaxConcurrentSources = 4

// DefaultSyncDeadline bounds a whole multi-source run.
const DefaultSyncDeadline = 30 * time.Second

// SyncService runs the fetch → parse → normalize → reconcile pipeline for
// each of a property's sources and aggregates a single report. A failing
// source never fails the run as a whole.
type SyncService struct {
	fetcher        *Fetcher
	parser         *Parser
	reconciler     *Reconciler
	defaultSources []models.CalendarSource
	maxConcurrent  int
	deadline       time.Duration
}

// SyncOptions tunes a SyncService beyond its store dependency.
type SyncOptions struct {
	FetchTimeout   time.Duration
	MaxFeedBytes   int64
	MaxConcurrent  int
	Deadline       time.Duration
	DefaultSources []models.CalendarSource
}

// NewSyncService creates a sync service writing through the given store.
func NewSyncService(store BookingStore, opts SyncOptions) *SyncService {
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentSources
	}
	deadline := opts.Deadline
	if deadline <= 0 {
		deadline = DefaultSyncDeadline
	}

	return &SyncService{
		fetcher:        NewFetcher(opts.FetchTimeout, opts.MaxFeedBytes),
		parser:         NewParser(),
		reconciler:     NewReconciler(store),
		defaultSources: opts.DefaultSources,
		maxConcurrent:  maxConcurrent,
		deadline:       deadline,
	}
}

// Sync processes every source for the property and returns the aggregate
// report. When sources is empty, the configured defaults are used. The
// report is returned even when every source failed; the error return is
// reserved for an unusable request (no sources at all).
func (s *SyncService) Sync(ctx context.Context, propertyID string, sources []models.CalendarSource) (*models.SyncReport, error) {
	if len(sources) == 0 {
		sources = s.defaultSources
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources supplied and none configured")
	}

	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	// One result slot per source: goroutines fill their own index, so
	// no result is ever lost or interleaved.
	results := make([]models.SourceSyncResult, len(sources))
	sem := make(chan struct{}, s.maxConcurrent)
	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)
		go func(i int, src models.CalendarSource) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				// Never started before the run deadline: report it
				// rather than silently omitting the source.
				results[i] = timedOutResult(src)
				return
			}

			results[i] = s.syncSource(ctx, propertyID, src)
		}(i, src)
	}
	wg.Wait()

	report := &models.SyncReport{
		PropertyID:     propertyID,
		Sources:        results,
		StartedAt:      started.UTC(),
		ProcessingTime: time.Since(started).String(),
	}
	for _, r := range results {
		report.TotalProcessed += r.BookingsProcessed
		report.TotalErrors += len(r.Errors)
	}

	log.Printf("Sync completed for property %s: %d sources, %d bookings, %d errors in %s",
		propertyID, len(results), report.TotalProcessed, report.TotalErrors, report.ProcessingTime)

	return report, nil
}

// syncSource runs the four pipeline stages for one source. A fetch or
// whole-feed parse failure terminates this source only; per-event
// problems are accumulated while the rest of the batch continues.
func (s *SyncService) syncSource(ctx context.Context, propertyID string, src models.CalendarSource) models.SourceSyncResult {
	result := models.SourceSyncResult{
		Source:   src.Name,
		Platform: src.Platform,
		Errors:   []string{},
	}

	if err := ctx.Err(); err != nil {
		return timedOutResult(src)
	}

	body, err := s.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		log.Printf("Fetch failed for source %s (%s): %v", src.Name, RedactURL(src.URL), err)
		return result
	}

	events, warnings, err := s.parser.Parse(body)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		log.Printf("Parse failed for source %s: %v", src.Name, err)
		return result
	}
	// The feed itself was fetched and parsed; from here on the source
	// counts as successful regardless of individual event failures.
	result.Success = true
	for _, w := range warnings {
		result.Errors = append(result.Errors, fmt.Sprintf("parse warning: %s", w))
	}

	normalizer := NormalizerFor(src.Platform)
	drafts := make([]*models.BookingDraft, 0, len(events))
	for _, event := range events {
		draft, err := normalizer.Normalize(event)
		if err != nil {
			if errors.Is(err, ErrNotABooking) {
				result.EventsSkipped++
				continue
			}
			result.Errors = append(result.Errors, fmt.Sprintf("normalizing event %s: %v", event.UID, err))
			continue
		}
		drafts = append(drafts, draft)
	}

	recResult, err := s.reconciler.Apply(ctx, propertyID, drafts)
	result.BookingsProcessed = recResult.Processed
	result.BookingsCreated = recResult.Created
	result.BookingsUpdated = recResult.Updated
	for _, recErr := range recResult.Errors {
		result.Errors = append(result.Errors, recErr.Error())
	}
	if err != nil {
		// Context expired mid-batch; keep the partial counts.
		result.Errors = append(result.Errors, fmt.Sprintf("reconciliation aborted: %v", err))
	}

	return result
}

func timedOutResult(src models.CalendarSource) models.SourceSyncResult {
	return models.SourceSyncResult{
		Source:   src.Name,
		Platform: src.Platform,
		Errors:   []string{"sync deadline exceeded before source completed"},
	}
}
