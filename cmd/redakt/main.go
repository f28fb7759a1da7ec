// Copyright 2026 Klartext Labs
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
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/klartext/redakt"
	"github.com/klartext/redakt/ai"
	"github.com/klartext/redakt/audit"
	"github.com/klartext/redakt/config"
	"github.com/klartext/redakt/extract"
	"github.com/klartext/redakt/ingestion"
	"github.com/klartext/redakt/pii"
	"github.com/klartext/redakt/server"
	"github.com/klartext/redakt/watcher"
)

func main() {
	app := &cli.App{
		Name:  "redakt",
		Usage: "Document ingestion with privacy masking and semantic search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server (and the inbox watcher when enabled)",
				Action: serveCommand,
			},
			{
				Name:      "ingest",
				Usage:     "Ingest one or more documents from disk",
				ArgsUsage: "FILE [FILE...]",
				Action:    ingestCommand,
			},
			{
				Name:      "erase",
				Usage:     "Erase a document and all of its chunks",
				ArgsUsage: "DOCUMENT_ID",
				Action:    eraseCommand,
			},
			{
				Name:      "search",
				Usage:     "Semantic search over the masked index",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 5,
					},
					&cli.StringFlag{
						Name:  "document",
						Usage: "Restrict results to one document ID",
					},
				},
			},
			{
				Name:      "scan",
				Usage:     "Report pattern-detectable PII in a local file without storing anything",
				ArgsUsage: "FILE",
				Action:    scanCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "masked",
						Usage: "Print the masked text instead of the match report",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show document, chunk and audit counters",
				Action: statsCommand,
			},
			{
				Name:   "audit",
				Usage:  "Show recent audit trail entries, newest first",
				Action: auditCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries",
						Value: 20,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig reads the config named by the global flag; an absent flag
// yields the defaults.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func aiConfigFrom(cfg *config.Config) *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(cfg.AI.EmbeddingHost),
		ai.WithChatHost(cfg.AI.ChatHost),
		ai.WithEmbeddingModel(cfg.AI.EmbeddingModel),
		ai.WithRecognizerModel(cfg.AI.RecognizerModel),
		ai.WithGeneratorModel(cfg.AI.GeneratorModel),
	)
}

func openSystem(cfg *config.Config) (*redakt.System, error) {
	aiCfg := aiConfigFrom(cfg)
	if cfg.AI.DisableRecognizer {
		aiCfg.DisableRecognizer = true
	}
	opts := []redakt.SystemOption{redakt.WithAIConfig(aiCfg)}
	if cfg.Storage.InMemory {
		opts = append(opts, redakt.WithInMemory())
	}
	return redakt.NewSystem(cfg.Storage.DataDir, opts...)
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	sys, err := openSystem(cfg)
	if err != nil {
		return fmt.Errorf("failed to open system: %w", err)
	}
	defer sys.Close()

	pipeline, err := sys.NewIngestionPipeline(
		ingestionChunkOptions(cfg)...,
	)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	srv := server.NewServer(
		pipeline,
		sys.DocumentRepository(),
		sys.VectorIndex(),
		sys.NewEraser(),
		sys.NewSearcher(),
		server.WithChat(sys.NewChat()),
		server.WithAnalyzer(sys.NewAnalyzer()),
		server.WithAuditTrail(sys.AuditTrail()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Watch.Enabled {
		w := watcher.NewWatcher(cfg.Watch.Directory, pipeline)
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("failed to start inbox watcher: %w", err)
		}
		defer w.Stop()
	}

	if trail := sys.AuditTrail(); trail != nil {
		_, _ = trail.Log(ctx, "system", audit.ActionStartup, cfg.Server.Addr(), nil)
		defer func() {
			_, _ = trail.Log(context.Background(), "system", audit.ActionShutdown, "", nil)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("at least one file is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	sys, err := openSystem(cfg)
	if err != nil {
		return fmt.Errorf("failed to open system: %w", err)
	}
	defer sys.Close()

	pipeline, err := sys.NewIngestionPipeline(ingestionChunkOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	ctx := context.Background()
	for _, path := range c.Args().Slice() {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		receipt, err := pipeline.Ingest(ctx, filepath.Base(path), content)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}
		fmt.Printf("%s  %s  chunks=%d  pii=%s\n",
			receipt.DocumentID, receipt.Filename, receipt.ChunkCount, receipt.PIISummary)
	}
	return nil
}

func eraseCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one document ID is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	sys, err := openSystem(cfg)
	if err != nil {
		return fmt.Errorf("failed to open system: %w", err)
	}
	defer sys.Close()

	id := c.Args().First()
	erased, err := sys.NewEraser().Erase(context.Background(), id)
	if err != nil {
		return fmt.Errorf("failed to erase %s: %w", id, err)
	}
	if !erased {
		fmt.Printf("%s: nothing to erase\n", id)
		return nil
	}
	fmt.Printf("%s: erased\n", id)
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one query is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	sys, err := openSystem(cfg)
	if err != nil {
		return fmt.Errorf("failed to open system: %w", err)
	}
	defer sys.Close()

	results, err := sys.NewSearcher().Search(
		context.Background(), c.Args().First(), c.Int("limit"), c.String("document"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	for _, res := range results {
		fmt.Printf("%.4f  %s  %s\n", res.Score, res.Chunk.ID, res.Chunk.Filename)
		fmt.Printf("        %s\n", firstLine(res.Chunk.Text))
	}
	return nil
}

func scanCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one file is required")
	}
	path := c.Args().First()
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	extractor := extract.NewExtractor()
	text, err := extractor.Extract(content, extract.NormalizeFileType(path))
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", path, err)
	}

	// Pattern detection only; no model call, nothing leaves the machine.
	detector := pii.NewDetector()
	result := detector.Detect(context.Background(), text, true)

	if c.Bool("masked") {
		fmt.Println(result.MaskedText)
		return nil
	}

	fmt.Printf("%s: %s\n", path, result.Summary())
	for _, m := range result.Matches {
		fmt.Printf("  %-18s %d-%d\n", m.Type, m.Start, m.End)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	sys, err := openSystem(cfg)
	if err != nil {
		return fmt.Errorf("failed to open system: %w", err)
	}
	defer sys.Close()

	ctx := context.Background()
	docs, err := sys.DocumentRepository().CountDocuments(ctx)
	if err != nil {
		return err
	}
	chunks, err := sys.VectorIndex().CountChunks(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("documents: %d\nchunks:    %d\n", docs, chunks)

	if trail := sys.AuditTrail(); trail != nil {
		auditStats, err := trail.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("audit:     %d entries\n", auditStats.TotalEntries)
		for action, count := range auditStats.ByAction {
			fmt.Printf("  %-20s %d\n", action, count)
		}
	}
	return nil
}

func auditCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	sys, err := openSystem(cfg)
	if err != nil {
		return fmt.Errorf("failed to open system: %w", err)
	}
	defer sys.Close()

	trail := sys.AuditTrail()
	if trail == nil {
		return fmt.Errorf("audit trail is disabled")
	}

	entries, err := trail.Recent(context.Background(), c.Int("limit"))
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no audit entries")
		return nil
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-8s %-20s", e.Timestamp.Format(time.RFC3339), e.Actor, e.Action)
		if e.Details != "" {
			line += "  " + firstLine(e.Details)
		}
		fmt.Println(line)
	}
	return nil
}

func ingestionChunkOptions(cfg *config.Config) []ingestion.Option {
	return []ingestion.Option{
		ingestion.WithChunkSize(cfg.Chunker.TargetSize),
		ingestion.WithChunkOverlap(cfg.Chunker.OverlapSize),
	}
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	if len(text) > 120 {
		text = text[:120] + "..."
	}
	return text
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
