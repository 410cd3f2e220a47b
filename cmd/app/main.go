package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/edupath/internal"
	"github.com/starford/edupath/internal/catalog"
	"github.com/starford/edupath/internal/importer"
	pkgconfig "github.com/starford/edupath/pkg/config"
)

var version = "dev"

const defaultConfigFile = "config/config.yaml"

// loadConfig reads --config, falling back to the bundled config when the
// given file does not exist.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	used, err := pkgconfig.LoadWithDefaults(cmd.String("config"), defaultConfigFile, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if used != cmd.String("config") {
		slog.Warn("config file not found, using default",
			slog.String("requested", cmd.String("config")),
			slog.String("path", used))
	}
	return cfg, nil
}

func options(cmd *cli.Command) ([]internal.Option, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runImport(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if n := cmd.Int("batch-size"); n > 0 {
		cfg.Importer.BatchSize = int(n)
	}
	params := internal.ImportParams{
		Manifest: cmd.String("manifest"),
		Watch:    cmd.Bool("watch"),
	}
	if file := cmd.String("file"); file != "" {
		params.Source = importer.Source{
			Collection: cmd.String("collection"),
			Path:       file,
			Bulk:       cmd.Bool("bulk"),
		}
	}
	if err := internal.RunImport(ctx, params, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("import error: %w", err)
	}
	return nil
}

func runSplit(_ context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunSplit(cmd.String("data-dir"), cmd.String("input"), opts...); err != nil {
		return fmt.Errorf("split error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, opts...)
}

func runExport(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.RunExport(ctx, cmd.String("out"), cmd.StringSlice("collection"), opts...)
}

func runRestore(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.RunRestore(ctx, cmd.String("in"), opts...)
}

func main() {
	cmd := &cli.Command{
		Name:    "edupath",
		Usage:   "Course catalog API and batch importer for degree plans",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: defaultConfigFile,
				Value:       defaultConfigFile,
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:   "import",
				Usage:  "Import JSON sources listed in the manifest, or a single file",
				Action: runImport,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "manifest",
						Usage: "Path to the import manifest (defaults to importer.manifest)",
					},
					&cli.StringFlag{
						Name:  "collection",
						Usage: "Target collection for --file",
					},
					&cli.StringFlag{
						Name:  "file",
						Usage: "Import a single JSON file instead of the manifest",
					},
					&cli.BoolFlag{
						Name:  "bulk",
						Usage: "Insert --file in batches",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Documents per bulk insert (overrides importer.batch_size)",
					},
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Keep running and re-import sources when they change",
					},
				},
				Commands: []*cli.Command{
					{
						Name:   "split",
						Usage:  "Write one <courseType>.json seed file per degree, skipping existing files",
						Action: runSplit,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "data-dir",
								Usage: "Directory holding the degree file and the seed files",
								Value: "data",
							},
							&cli.StringFlag{
								Name:  "input",
								Usage: "Degree file, relative to --data-dir",
								Value: catalog.DegreesCollection + ".json",
							},
						},
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve catalog tools over MCP stdio",
				Action: runMCP,
			},
			{
				Name:   "export",
				Usage:  "Write a compressed snapshot of collections",
				Action: runExport,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Usage:    "Snapshot file to write",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "collection",
						Usage: "Collection to export (repeatable, default all)",
					},
				},
			},
			{
				Name:   "restore",
				Usage:  "Re-import a snapshot, skipping documents already present",
				Action: runRestore,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "in",
						Aliases:  []string{"i"},
						Usage:    "Snapshot file to read",
						Required: true,
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
