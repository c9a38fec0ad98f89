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
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/poiesic/storyboard"
	"github.com/poiesic/storyboard/config"
	"github.com/poiesic/storyboard/core"
	"github.com/poiesic/storyboard/ingestion"
	"github.com/poiesic/storyboard/search"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	inputFlag := &cli.StringFlag{
		Name:     "input",
		Aliases:  []string{"i"},
		Usage:    "Directory of source files",
		Required: true,
	}
	forceFlag := &cli.BoolFlag{
		Name:  "force",
		Usage: "Process files even if the ledger lists them as ingested",
	}

	return &cli.App{
		Name:  "storyboard",
		Usage: "Convert instructional documents into searchable storyboards",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Value:   "storyboard.yaml",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "Storyboard store backend (postgres, badger)",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (badger store)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "convert",
				Usage:  "Convert documents into storyboard JSON files",
				Action: convertCommand,
				Flags: []cli.Flag{
					inputFlag,
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Directory for <name>.json output files",
						Required: true,
					},
				},
			},
			{
				Name:   "ingest",
				Usage:  "Convert documents, store them and embed them",
				Action: ingestCommand,
				Flags:  []cli.Flag{inputFlag, forceFlag},
			},
			{
				Name:   "load",
				Usage:  "Store and embed previously converted storyboard JSON files",
				Action: loadCommand,
				Flags:  []cli.Flag{inputFlag, forceFlag},
			},
			{
				Name:   "reindex",
				Usage:  "Recompute the embedding of every stored storyboard",
				Action: reindexCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "skip-current",
						Usage: "Leave storyboards already embedded with the configured scheme",
					},
					&cli.IntFlag{
						Name:  "max-attempts",
						Usage: "Embedding attempts per storyboard (1 = no retry)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Find the storyboards most similar to a query",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "k",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results (default from config)",
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Print search stages to stderr",
					},
				},
			},
			{
				Name:  "schema",
				Usage: "Inspect or change the embedding column (postgres store)",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print the embedding column width",
						Action: schemaShowCommand,
					},
					{
						Name:   "widen",
						Usage:  "Change the embedding column width",
						Action: schemaWidenCommand,
						Flags: []cli.Flag{
							&cli.IntFlag{
								Name:     "dims",
								Usage:    "New embedding width",
								Required: true,
							},
							&cli.BoolFlag{
								Name:  "clear",
								Usage: "Remove embeddings of another width so the column can change",
							},
						},
					},
				},
			},
		},
	}
}

// Parts of the configuration a command depends on.
const (
	needStore = 1 << iota
	needAI
)

// loadConfig reads the configuration named by --config, applies the global
// store flags and validates the parts named by needs.
func loadConfig(c *cli.Context, needs int) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if store := c.String("store"); store != "" {
		cfg.Store.Backend = store
	}
	if db := c.String("db"); db != "" {
		cfg.Store.BadgerPath = db
	}

	switch needs {
	case needStore:
		err = cfg.ValidateStore()
	case needAI:
		err = cfg.ValidateServices()
	default:
		err = cfg.Validate()
	}
	if err != nil {
		return nil, err
	}
	slog.Debug("configuration loaded", "config", cfg)
	return cfg, nil
}

// openDatabase loads the configuration and opens the store and the AI
// provider as named by needs.
func openDatabase(c *cli.Context, needs int) (*storyboard.Database, error) {
	cfg, err := loadConfig(c, needs)
	if err != nil {
		return nil, err
	}
	var opts []storyboard.DatabaseOption
	if needs&needAI == 0 {
		opts = append(opts, storyboard.WithoutProvider())
	}
	if needs&needStore == 0 {
		opts = append(opts, storyboard.WithoutStore())
	}
	db, err := storyboard.NewDatabase(c.Context, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// commandContext is canceled on interrupt so batches stop between files.
func commandContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt)
}

func convertCommand(c *cli.Context) error {
	db, err := openDatabase(c, needAI)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewConvertPipeline(c.String("output"))
	if err != nil {
		return err
	}
	return runBatch(c, pipeline)
}

func ingestCommand(c *cli.Context) error {
	db, err := openDatabase(c, needStore|needAI)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline(c.Bool("force"))
	if err != nil {
		return err
	}
	return runBatch(c, pipeline)
}

func loadCommand(c *cli.Context) error {
	db, err := openDatabase(c, needStore|needAI)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewLoader(c.Bool("force"))
	if err != nil {
		return err
	}
	return runBatch(c, pipeline)
}

// runBatch runs pipeline over --input and prints the report. Per-file
// failures do not fail the command.
func runBatch(c *cli.Context, pipeline *ingestion.Pipeline) error {
	ctx, cancel := commandContext(c)
	defer cancel()

	report, err := pipeline.Run(ctx, c.String("input"))
	printReport(c.App.ErrWriter, report)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func printReport(w io.Writer, report *ingestion.Report) {
	fmt.Fprintf(w, "Processed %d files: %d succeeded, %d failed, %d unchanged, %d ignored\n",
		report.Total, report.Succeeded, report.Failed(), report.Unchanged, report.Ignored)
	for _, failure := range report.Failures {
		fmt.Fprintf(w, "  FAILED %s\n", failure)
	}
}

func reindexCommand(c *cli.Context) error {
	cfg, err := loadConfig(c, needStore|needAI)
	if err != nil {
		return err
	}
	if c.IsSet("skip-current") {
		cfg.Reindex.SkipCurrent = c.Bool("skip-current")
	}
	if c.IsSet("max-attempts") {
		cfg.Reindex.MaxAttempts = c.Int("max-attempts")
	}

	db, err := storyboard.NewDatabase(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	reindexer, err := db.NewReindexer(c.App.ErrWriter)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(c)
	defer cancel()

	report, err := reindexer.Run(ctx)
	fmt.Fprintf(c.App.ErrWriter, "Reindexed %d storyboards: %d updated, %d skipped, %d current, %d failed\n",
		report.Total, report.Updated, report.Skipped, report.Current, report.Failed)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("reindex failed: %w", err)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("a query is required")
	}

	db, err := openDatabase(c, needStore|needAI)
	if err != nil {
		return err
	}
	defer db.Close()

	var opts []search.Option
	if c.Bool("explain") {
		opts = append(opts, search.WithMonitor(&explainMonitor{w: c.App.ErrWriter}))
	}
	searcher, err := db.NewSearcher(opts...)
	if err != nil {
		return err
	}

	k := c.Int("k")
	if k == 0 {
		k = db.Config().Search.K
	}
	results, err := searcher.Search(c.Context, query, k)
	if err != nil {
		return err
	}

	printResults(c.App.Writer, results)
	return nil
}

func printResults(w io.Writer, results []*core.SearchResult) {
	fmt.Fprintf(w, "Found %d storyboards\n", len(results))
	for i, hit := range results {
		fmt.Fprintf(w, "%d. id=%d similarity=%.4f %s\n", i+1, hit.Record.ID, hit.Score, summarize(hit.Record))
	}
}

// summarize describes a storyboard by name, type, audience and scene count.
func summarize(record *core.StoryboardRecord) string {
	name := core.FieldText(record.Content, "moduleName")
	if name == "" {
		name = "(untitled)"
	}
	var details []string
	for _, field := range []string{"moduleType", "audience"} {
		if v := core.FieldText(record.Content, field); v != "" && v != "TBD" {
			details = append(details, v)
		}
	}
	if content, err := core.ParseContent(record.Content); err == nil && len(content.Scenes) > 0 {
		details = append(details, fmt.Sprintf("%d scenes", len(content.Scenes)))
	}
	if len(details) == 0 {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, strings.Join(details, "; "))
}

type explainMonitor struct {
	w io.Writer
}

func (m *explainMonitor) Start(query string, k int) {
	fmt.Fprintf(m.w, "query: %q (k=%d)\n", query, k)
}

func (m *explainMonitor) AfterEmbedding(dims int, cached bool) {
	fmt.Fprintf(m.w, "embedded query: %d dimensions (cached=%t)\n", dims, cached)
}

func (m *explainMonitor) AfterEligibility(eligible, k int) {
	fmt.Fprintf(m.w, "searchable storyboards: %d, returning up to %d\n", eligible, k)
}

func (m *explainMonitor) Finish(results []*core.SearchResult) {
	fmt.Fprintf(m.w, "results: %d\n", len(results))
}

func schemaShowCommand(c *cli.Context) error {
	db, err := openDatabase(c, needStore)
	if err != nil {
		return err
	}
	defer db.Close()

	width, err := db.SchemaWidth(c.Context)
	if err != nil {
		return err
	}
	if width == 0 {
		fmt.Fprintln(c.App.Writer, "embedding column has no fixed width")
		return nil
	}
	fmt.Fprintf(c.App.Writer, "embedding column width: %d\n", width)
	return nil
}

func schemaWidenCommand(c *cli.Context) error {
	dims := c.Int("dims")
	if dims <= 0 {
		return fmt.Errorf("dims must be greater than 0")
	}

	db, err := openDatabase(c, needStore)
	if err != nil {
		return err
	}
	defer db.Close()

	cleared, err := db.WidenSchema(c.Context, dims, c.Bool("clear"))
	if err != nil {
		return err
	}
	if cleared > 0 {
		fmt.Fprintf(c.App.Writer, "cleared %d embeddings of another width; run reindex to restore them\n", cleared)
	}
	fmt.Fprintf(c.App.Writer, "embedding column width: %d\n", dims)
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
