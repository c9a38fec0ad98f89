// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/storyboard/ai"
	"github.com/poiesic/storyboard/core"
	"github.com/poiesic/storyboard/storage"
)

// Config holds configuration for the reindexing operation.
type Config struct {
	// FieldPath is the dotted content path whose text is embedded.
	FieldPath string

	// SkipCurrent leaves records already embedded with the target scheme alone.
	SkipCurrent bool

	// Workers is the number of records embedded concurrently.
	Workers int

	// MaxAttempts bounds embedding calls per record. 1 means at most once.
	MaxAttempts int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// ReportInterval is how often to report progress (number of records)
	ReportInterval int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		FieldPath:      core.DefaultEmbeddingField,
		Workers:        4,
		MaxAttempts:    1,
		RetryDelay:     1 * time.Second,
		ReportInterval: 100,
	}
}

// Report summarizes a reindexing run.
type Report struct {
	// Total is the number of records scanned.
	Total int
	// Updated records received a new embedding.
	Updated int
	// Skipped records have no text at the configured field.
	Skipped int
	// Current records already carried the target scheme (SkipCurrent only).
	Current int
	// Failed records kept their previous embedding.
	Failed int
}

// Reindexer walks every storyboard in a repository and rewrites its embedding.
type Reindexer struct {
	repo     storage.StoryboardRepository
	embedder ai.Embedder
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewReindexer creates a new reindexer.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(repo storage.StoryboardRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reindexer, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	// defaults below apply to this reindexer only
	cfg := *config
	config = &cfg
	if config.FieldPath == "" {
		config.FieldPath = core.DefaultEmbeddingField
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.MaxAttempts < 1 {
		return nil, ErrInvalidMaxAttempts
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reindexer{
		repo:     repo,
		embedder: embedder,
		config:   config,
		progress: progress,
		logger:   slog.Default().With("component", "reindexer"),
	}, nil
}

type counters struct {
	total, updated, skipped, current, failed atomic.Int64
}

func (c *counters) report() *Report {
	return &Report{
		Total:   int(c.total.Load()),
		Updated: int(c.updated.Load()),
		Skipped: int(c.skipped.Load()),
		Current: int(c.current.Load()),
		Failed:  int(c.failed.Load()),
	}
}

// Run executes the reindexing operation.
// The returned report is never nil. An error is returned only when the scan
// itself fails or ctx is canceled; per-record failures are counted instead.
func (r *Reindexer) Run(ctx context.Context) (*Report, error) {
	var counts counters

	expected, err := r.repo.Count(ctx)
	if err != nil {
		return counts.report(), fmt.Errorf("failed to count records: %w", err)
	}
	if expected == 0 {
		fmt.Fprintf(r.progress, "No records found in store (0 records)\n")
	} else {
		fmt.Fprintf(r.progress, "Starting reindex of %d records (%d workers, scheme %s)\n",
			expected, r.config.Workers, r.embedder.Scheme().Version)
	}

	pool, err := ants.NewPool(r.config.Workers)
	if err != nil {
		return counts.report(), fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	tracker := NewProgressTracker(r.progress, "records", expected, r.config.ReportInterval)
	tracker.Start()

	var wg sync.WaitGroup
	var runErr error

	for record, err := range r.repo.ScanAll(ctx) {
		if err != nil {
			runErr = err
			break
		}
		if ctx.Err() != nil {
			break
		}

		counts.total.Add(1)
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			r.process(ctx, record, &counts, tracker)
		}); err != nil {
			wg.Done()
			runErr = fmt.Errorf("failed to submit record %d: %w", record.ID, err)
			break
		}
	}

	wg.Wait()
	tracker.Finish()

	if runErr == nil {
		runErr = ctx.Err()
	}

	report := counts.report()
	if runErr != nil {
		r.logger.Warn("reindex stopped early", "err", runErr, "scanned", report.Total)
		return report, runErr
	}

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reindex complete. %d updated, %d skipped, %d current, %d failed in %v\n",
		report.Updated, report.Skipped, report.Current, report.Failed, elapsed.Round(time.Millisecond))

	return report, nil
}

// process embeds one record. A record reached after cancellation is left
// uncounted.
func (r *Reindexer) process(ctx context.Context, record *core.StoryboardRecord, counts *counters, tracker *ProgressTracker) {
	if ctx.Err() != nil {
		return
	}

	text := core.FieldText(record.Content, r.config.FieldPath)
	if text == "" {
		r.logger.Debug("no text at field", "id", record.ID, "field", r.config.FieldPath)
		counts.skipped.Add(1)
		tracker.Done()
		return
	}

	scheme := r.embedder.Scheme()
	if r.config.SkipCurrent && record.SchemeVersion == scheme.Version && record.HasEmbedding(scheme.Dimensions) {
		counts.current.Add(1)
		tracker.Done()
		return
	}

	var vector []float32
	err := RetryWithBackoff(ctx, func() error {
		v, err := r.embedder.EmbedText(ctx, text)
		if err != nil {
			return err
		}
		vector = v
		return nil
	}, r.config.MaxAttempts, r.config.RetryDelay)
	if err == nil {
		err = r.repo.UpsertEmbedding(ctx, record.ID, vector, scheme.Version)
	}
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logger.Warn("failed to reindex record", "id", record.ID, "err", err)
		counts.failed.Add(1)
		tracker.Fail()
		return
	}

	counts.updated.Add(1)
	tracker.Done()
}
