// CLAUDE:SUMMARY CLI entry point for the lexpipe pipeline: score, process, batch, status, archive export, and MCP serving.
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/lexpipe/boilerplate"
	"github.com/hazyhaar/lexpipe/idgen"
	"github.com/hazyhaar/lexpipe/legaldoc"
	"github.com/hazyhaar/lexpipe/mcpquic"
	"github.com/hazyhaar/lexpipe/ocr"
	"github.com/hazyhaar/lexpipe/ocrpipe"
	"github.com/hazyhaar/lexpipe/pathsafe"
	"github.com/hazyhaar/lexpipe/raster"
	"github.com/hazyhaar/lexpipe/scrub"
	"github.com/hazyhaar/lexpipe/similarity"
	"github.com/hazyhaar/lexpipe/stagedir"
	"github.com/hazyhaar/lexpipe/store"
	"github.com/hazyhaar/lexpipe/tesseract"
	"github.com/hazyhaar/lexpipe/textqual"
)

const version = "1.0.0"

func main() {
	app := &cli.App{
		Name:    "lexpipe",
		Usage:   "OCR quality gating and boilerplate removal for legal document sets",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "lexpipe.yaml", Usage: "YAML config file"},
			&cli.StringFlag{Name: "log-level", Value: env("LOG_LEVEL", "info"), Usage: "debug, info, warn, error"},
		},
		Before: func(c *cli.Context) error {
			var lvl slog.Level
			switch c.String("log-level") {
			case "debug":
				lvl = slog.LevelDebug
			case "warn":
				lvl = slog.LevelWarn
			case "error":
				lvl = slog.LevelError
			default:
				lvl = slog.LevelInfo
			}
			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
			slog.SetDefault(logger)
			return nil
		},
		Commands: []*cli.Command{
			scoreCommand(),
			processCommand(),
			batchCommand(),
			statusCommand(),
			archiveCommand(),
			mcpCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		slog.Error("lexpipe", "error", err)
		os.Exit(1)
	}
}

// --- score ---

func scoreCommand() *cli.Command {
	return &cli.Command{
		Name:      "score",
		Usage:     "Score a text file against the OCR quality gates",
		ArgsUsage: "<text-file>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "pages", Value: 1, Usage: "source page count for density gates"},
			&cli.IntFlag{Name: "entities", Usage: "extracted entity count"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected one text file argument")
			}
			cfg, err := loadConfig(c.String("config"), c.IsSet("config"))
			if err != nil {
				return err
			}
			f, err := os.Open(c.Args().First())
			if err != nil {
				return err
			}
			defer f.Close()
			bound := cfg.MaxFileMB << 20
			if bound <= 0 {
				bound = pathsafe.MaxIntakeRead
			}
			raw, err := pathsafe.LimitedReadAll(f, bound)
			if err != nil {
				return err
			}
			scorer := textqual.New(cfg.Quality)
			metrics := scorer.Score(string(raw), c.Int("pages"), c.Int("entities"))
			return printYAML(metrics)
		},
	}
}

// --- process ---

func processCommand() *cli.Command {
	return &cli.Command{
		Name:      "process",
		Usage:     "Run the full pipeline on a single PDF and persist the result",
		ArgsUsage: "<pdf>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force-ocr", Usage: "skip the native text-layer bypass"},
			&cli.BoolFlag{Name: "skip-quality-gates", Usage: "accept extracted text without scoring"},
			&cli.BoolFlag{Name: "no-store", Usage: "print the result without persisting"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected one PDF argument")
			}
			cfg, err := loadConfig(c.String("config"), c.IsSet("config"))
			if err != nil {
				return err
			}
			proc, err := buildProcessor(cfg, slog.Default())
			if err != nil {
				return err
			}
			ctx := signalContext()
			res := proc.ProcessDocument(ctx, c.Args().First(), ocrpipe.Options{
				ForceOCR:         c.Bool("force-ocr"),
				SkipQualityGates: c.Bool("skip-quality-gates"),
			})
			if !c.Bool("no-store") {
				if err := persistResult(ctx, cfg, idgen.New(), res); err != nil {
					return err
				}
			}
			return printYAML(processSummary(res))
		},
	}
}

// --- batch ---

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "Process a document set with cross-document boilerplate detection",
		ArgsUsage: "[pdf ...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "staged", Usage: "pull inputs from the staging layout's raw/ directory"},
			&cli.BoolFlag{Name: "force-ocr", Usage: "skip the native text-layer bypass"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c.String("config"), c.IsSet("config"))
			if err != nil {
				return err
			}
			proc, err := buildProcessor(cfg, slog.Default())
			if err != nil {
				return err
			}
			ctx := signalContext()

			var layout *stagedir.Layout
			paths := c.Args().Slice()
			if c.Bool("staged") {
				layout, err = stagedir.New(cfg.StagingRoot, slog.Default())
				if err != nil {
					return err
				}
				raw, err := layout.ListRaw()
				if err != nil {
					return err
				}
				for _, p := range raw {
					staged, err := layout.Stage(p)
					if err != nil {
						return fmt.Errorf("stage %s: %w", p, err)
					}
					paths = append(paths, staged)
				}
			}
			if len(paths) == 0 {
				return fmt.Errorf("no input documents")
			}

			batch := proc.ProcessBatch(ctx, paths, ocrpipe.Options{ForceOCR: c.Bool("force-ocr")})

			runID := idgen.New()
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			archiveDir := cfg.ArchiveDir
			if archiveDir == "" && layout != nil {
				archiveDir = layout.ExportDir()
			}

			for i, doc := range batch.Documents {
				if err := st.SaveResult(ctx, runID, doc); err != nil {
					slog.Warn("persist result", "path", doc.Path, "error", err)
				}
				if doc.Success {
					if archiveDir != "" {
						if _, err := store.ExportMarkdown(archiveDir, doc); err != nil {
							slog.Warn("export markdown", "path", doc.Path, "error", err)
						}
					}
					if layout != nil {
						if _, err := layout.MarkProcessed(paths[i]); err != nil {
							slog.Warn("mark processed", "path", paths[i], "error", err)
						}
					}
				} else if layout != nil {
					if _, err := layout.Quarantine(paths[i], doc.Error); err != nil {
						slog.Warn("quarantine", "path", paths[i], "error", err)
					}
				}
			}
			return printYAML(batchSummary(runID, batch))
		},
	}
}

// --- status ---

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "List stored documents by validation status",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "status", Value: string(textqual.StatusTextValidated), Usage: "validation status to filter on"},
			&cli.IntFlag{Name: "limit", Value: 50},
			&cli.BoolFlag{Name: "categories", Usage: "include removed-segment counts per category"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c.String("config"), c.IsSet("config"))
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			ctx := signalContext()

			rows, err := st.ListByStatus(ctx, c.String("status"), c.Int("limit"))
			if err != nil {
				return err
			}
			out := map[string]any{
				"status":    c.String("status"),
				"documents": rows,
			}
			if c.Bool("categories") {
				counts, err := st.SegmentCountByCategory(ctx)
				if err != nil {
					return err
				}
				out["segments_by_category"] = counts
			}
			return printYAML(out)
		},
	}
}

// --- archive ---

func archiveCommand() *cli.Command {
	return &cli.Command{
		Name:      "archive",
		Usage:     "Export stored documents as markdown with YAML front matter",
		ArgsUsage: "[document-id ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "output directory (defaults to the configured archive_dir)"},
			&cli.StringFlag{Name: "status", Usage: "export every stored document in this validation status instead of named IDs"},
			&cli.IntFlag{Name: "limit", Value: 100, Usage: "cap for --status exports"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c.String("config"), c.IsSet("config"))
			if err != nil {
				return err
			}
			dir := c.String("out")
			if dir == "" {
				dir = cfg.ArchiveDir
			}
			if dir == "" {
				return fmt.Errorf("no output directory: pass --out or set archive_dir")
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			ctx := signalContext()

			ids := c.Args().Slice()
			if status := c.String("status"); status != "" {
				rows, err := st.ListByStatus(ctx, status, c.Int("limit"))
				if err != nil {
					return err
				}
				for _, row := range rows {
					ids = append(ids, row.ID)
				}
			}
			if len(ids) == 0 {
				return fmt.Errorf("nothing to export: pass document IDs or --status")
			}

			exported := make([]string, 0, len(ids))
			for _, id := range ids {
				path, err := st.ExportStored(ctx, dir, id)
				if err != nil {
					slog.Warn("export stored", "document_id", id, "error", err)
					continue
				}
				exported = append(exported, path)
			}
			return printYAML(map[string]any{
				"requested": len(ids),
				"exported":  exported,
			})
		},
	}
}

// --- mcp ---

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the pipeline tools over MCP on stdio, or QUIC with --quic",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "quic", Usage: "serve over QUIC instead of stdio"},
			&cli.StringFlag{Name: "quic-addr", Value: ":9444"},
			&cli.StringFlag{Name: "tls-cert", Usage: "TLS certificate (self-signed when unset)"},
			&cli.StringFlag{Name: "tls-key", Usage: "TLS private key"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c.String("config"), c.IsSet("config"))
			if err != nil {
				return err
			}
			proc, err := buildProcessor(cfg, slog.Default())
			if err != nil {
				return err
			}
			srv := mcp.NewServer(&mcp.Implementation{
				Name:    "lexpipe",
				Version: version,
			}, nil)
			proc.RegisterMCP(srv)
			ctx := signalContext()

			if c.Bool("quic") {
				var tlsCfg *tls.Config
				if c.String("tls-cert") != "" && c.String("tls-key") != "" {
					tlsCfg, err = mcpquic.ServerTLSConfig(c.String("tls-cert"), c.String("tls-key"))
				} else {
					tlsCfg, err = mcpquic.SelfSignedTLSConfig()
				}
				if err != nil {
					return err
				}
				ql, err := mcpquic.NewListener(c.String("quic-addr"), tlsCfg, srv, slog.Default())
				if err != nil {
					return err
				}
				defer ql.Close()
				slog.Info("MCP serving over QUIC", "addr", c.String("quic-addr"))
				return ql.Serve(ctx)
			}

			slog.Info("MCP serving on stdio")
			return srv.Run(ctx, &mcp.StdioTransport{})
		},
	}
}

// --- wiring ---

// buildProcessor assembles the full pipeline from config: tesseract backend,
// dual-pass engine, MuPDF rasterizer, five-stage coordinator, TF-IDF
// boilerplate detection, and the scrubber.
func buildProcessor(cfg fileConfig, logger *slog.Logger) (*legaldoc.Processor, error) {
	quality := cfg.Quality
	quality.Logger = logger
	scorer := textqual.New(quality)

	backend := tesseract.New(tesseract.Config{
		Language:       cfg.Language,
		TessdataPrefix: cfg.TessdataPrefix,
		Logger:         logger,
	})
	engine := ocr.New(ocr.Config{
		Backend: backend,
		Scorer:  scorer,
		Logger:  logger,
	})
	converter := raster.New(raster.Config{
		DPI:      cfg.DPI,
		MaxPages: cfg.MaxPages,
		Logger:   logger,
	})
	coord := ocrpipe.New(ocrpipe.Config{
		Converter:             converter,
		Engine:                engine,
		Scorer:                scorer,
		MaxFileBytes:          cfg.MaxFileMB << 20,
		MinNativeCharsPerPage: cfg.MinNativeCharsPerPage,
		Logger:                logger,
	})

	detection := cfg.Detection
	detection.Backend = similarity.NewTFIDF(cfg.Similarity)
	detection.Segment = similarity.SplitSentences
	detection.Logger = logger
	det, err := boilerplate.New(detection)
	if err != nil {
		return nil, err
	}

	scrubCfg := cfg.Scrub
	scrubCfg.Logger = logger
	scr, err := scrub.New(scrubCfg)
	if err != nil {
		return nil, err
	}

	return legaldoc.New(legaldoc.Config{
		Coordinator: coord,
		Detector:    det,
		Scrubber:    scr,
		Scorer:      scorer,
		Logger:      logger,
	}), nil
}

func openStore(cfg fileConfig) (*store.Store, error) {
	return store.Open(cfg.DBPath)
}

func persistResult(ctx context.Context, cfg fileConfig, runID string, res legaldoc.DocumentResult) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.SaveResult(ctx, runID, res); err != nil {
		return err
	}
	if res.Success && cfg.ArchiveDir != "" {
		if _, err := store.ExportMarkdown(cfg.ArchiveDir, res); err != nil {
			return err
		}
	}
	return nil
}

// --- output ---

func processSummary(res legaldoc.DocumentResult) map[string]any {
	out := map[string]any{
		"document_id":       res.DocumentID,
		"path":              filepath.Base(res.Path),
		"success":           res.Success,
		"method":            res.OCR.Method,
		"validation_status": string(res.OCR.ValidationStatus),
		"quality_score":     res.OCR.QualityScore,
		"pages":             res.OCR.Metadata.PageCount,
		"segments_removed":  len(res.Scrub.RemovedSegments),
	}
	if res.Error != "" {
		out["error"] = res.Error
	}
	return out
}

func batchSummary(runID string, batch legaldoc.BatchResult) map[string]any {
	docs := make([]map[string]any, 0, len(batch.Documents))
	for _, d := range batch.Documents {
		docs = append(docs, processSummary(d))
	}
	return map[string]any{
		"run_id":            runID,
		"succeeded":         batch.Succeeded,
		"failed":            batch.Failed,
		"detected_segments": batch.Detection.SegmentCount,
		"removed_percent":   batch.Scrubbing.MeanRemovedPct,
		"documents":         docs,
	}
}

func printYAML(v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

// --- helpers ---

func signalContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
