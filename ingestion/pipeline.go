package ingestion

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/storyboard/ai"
	"github.com/poiesic/storyboard/core"
	"github.com/poiesic/storyboard/extract"
	"github.com/poiesic/storyboard/storage"
)

// Report summarizes one batch run.
type Report struct {
	// Total is the number of candidate files found.
	Total int
	// Succeeded files were converted and handed to the sink.
	Succeeded int
	// Unchanged files were already recorded in the ledger.
	Unchanged int
	// Ignored files have an extension the pipeline does not handle.
	Ignored int
	// Failures lists every file that failed, in file name order.
	Failures []*FileError
}

// Failed returns the number of failed files.
func (r *Report) Failed() int {
	return len(r.Failures)
}

// Pipeline runs every file in a directory through a processor and into a
// sink. A failing file is recorded in the report and the batch continues.
type Pipeline struct {
	proc     processor
	sink     Sink
	ledger   storage.LedgerRepository
	force    bool
	poolSize int
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the number of files processed concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.poolSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithLedger skips sources whose bytes were already ingested and records
// each source that reaches the store.
func WithLedger(ledger storage.LedgerRepository) Option {
	return func(p *Pipeline) error {
		p.ledger = ledger
		return nil
	}
}

// WithForce processes sources even when the ledger already lists them.
func WithForce(force bool) Option {
	return func(p *Pipeline) error {
		p.force = force
		return nil
	}
}

// NewPipeline creates a pipeline that extracts each supported document,
// converts it with converter and hands the result to sink.
func NewPipeline(extractor extract.Extractor, converter ai.Converter, sink Sink, opts ...Option) (*Pipeline, error) {
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if converter == nil {
		return nil, ErrConverterRequired
	}
	return newPipeline(&convertProcessor{extractor: extractor, converter: converter}, sink, opts)
}

// NewLoader creates a pipeline that reads previously converted *.json
// storyboards and hands them to sink.
func NewLoader(sink Sink, opts ...Option) (*Pipeline, error) {
	return newPipeline(jsonProcessor{}, sink, opts)
}

func newPipeline(proc processor, sink Sink, opts []Option) (*Pipeline, error) {
	if sink == nil {
		return nil, ErrSinkRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	p := &Pipeline{
		proc:     proc,
		sink:     sink,
		poolSize: poolSize,
		logger:   slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	return p, nil
}

// Run processes the regular files directly inside dir in name order.
// It returns an error only when dir cannot be listed or ctx is canceled;
// the report is never nil.
func (p *Pipeline) Run(ctx context.Context, dir string) (*Report, error) {
	report := &Report{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return report, fmt.Errorf("failed to read input directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !p.proc.accepts(path) {
			p.logger.Debug("ignoring file", "path", path)
			report.Ignored++
			continue
		}
		paths = append(paths, path)
	}
	report.Total = len(paths)
	p.logger.Info("starting batch", "dir", dir, "files", len(paths), "workers", p.poolSize)

	pool, err := ants.NewPool(p.poolSize)
	if err != nil {
		return report, err
	}
	defer pool.Release()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			outcome, err := p.processFile(ctx, path)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Failures = append(report.Failures, &FileError{Path: path, Err: err})
			case outcome == outcomeUnchanged:
				report.Unchanged++
			case outcome == outcomeDone:
				report.Succeeded++
			}
		})
		if submitErr != nil {
			wg.Done()
			return report, submitErr
		}
	}
	wg.Wait()

	slices.SortFunc(report.Failures, func(a, b *FileError) int {
		return cmp.Compare(a.Path, b.Path)
	})

	if err := ctx.Err(); err != nil {
		return report, err
	}

	p.logger.Info("batch complete",
		"succeeded", report.Succeeded, "failed", report.Failed(),
		"unchanged", report.Unchanged, "ignored", report.Ignored)
	return report, nil
}

type outcome int

const (
	outcomeCanceled outcome = iota
	outcomeUnchanged
	outcomeDone
)

// processFile handles one source. Work abandoned because ctx ended is
// reported as outcomeCanceled with no error.
func (p *Pipeline) processFile(ctx context.Context, path string) (outcome, error) {
	if ctx.Err() != nil {
		return outcomeCanceled, nil
	}
	logger := p.logger.With("path", path)

	var fingerprint string
	if p.ledger != nil {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error("error reading file", "err", err)
			return outcomeDone, err
		}
		fingerprint = core.Fingerprint(data)

		if !p.force {
			entry, err := p.ledger.Lookup(ctx, fingerprint)
			if err != nil {
				logger.Error("error reading ledger", "err", err)
				return outcomeDone, err
			}
			if entry != nil {
				logger.Info("already ingested, skipping", "id", entry.RecordID)
				return outcomeUnchanged, nil
			}
		}
	}

	content, err := p.proc.process(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return outcomeCanceled, nil
		}
		if errors.Is(err, ai.ErrMalformedModelOutput) {
			logger.Warn("model reply is not a storyboard, skipping file", "err", err)
		} else {
			logger.Error("error processing file", "err", err)
		}
		return outcomeDone, err
	}

	id, err := p.sink.Put(ctx, path, content)
	if id != 0 && p.ledger != nil {
		entry := &core.LedgerEntry{Fingerprint: fingerprint, Source: path, RecordID: id}
		if ledgerErr := p.ledger.Record(ctx, entry); ledgerErr != nil {
			logger.Error("error recording ledger entry", "id", id, "err", ledgerErr)
			err = errors.Join(err, ledgerErr)
		}
	}
	if err != nil {
		if ctx.Err() != nil && id == 0 {
			return outcomeCanceled, nil
		}
		logger.Error("error storing storyboard", "err", err)
		return outcomeDone, err
	}

	logger.Info("processed file", "id", id)
	return outcomeDone, nil
}
