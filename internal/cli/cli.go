package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"ui-translator/internal/cache"
	"ui-translator/internal/config"
	"ui-translator/internal/export"
	"ui-translator/internal/filewalker"
	"ui-translator/internal/filter"
	"ui-translator/internal/graph"
	"ui-translator/internal/pipeline"
	"ui-translator/internal/translation"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	ErrMissingOpenAIKey = errors.New("OpenAI API key is required: set it using --openai-key or OPENAI_API_KEY")
	ErrMissingDeepLKey  = errors.New("DeepL API key is required: set it using --deepl-key or DEEPL_API_KEY")
	ErrNotDirectory     = filewalker.ErrNotDirectory
	ErrNoGraph          = errors.New("graph store not configured: set NEO4J_URI")
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := NewRootCmd(config.Load()).Execute(); err != nil {
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	extensions []string
	verbose    bool
	workers    int
}

// NewRootCmd builds the command tree with defaults taken from cfg.
func NewRootCmd(cfg *config.Config) *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:          "ui-translator",
		Short:        "Extract, filter and translate user-facing strings from a source tree",
		Long:         "Scans front-end source files for human-readable UI strings, keeps the user-facing ones with an LLM filter and translates them with DeepL.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringSliceVarP(&g.extensions, "extensions", "e", cfg.FileExtensions, "File extensions to scan")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().IntVar(&g.workers, "workers", cfg.WorkerCount, "Files extracted concurrently (1 = sequential)")

	rootCmd.AddCommand(runCmd(cfg, g))
	rootCmd.AddCommand(extractCmd(cfg, g))
	rootCmd.AddCommand(toCSVCmd())
	rootCmd.AddCommand(whereCmd(cfg))

	return rootCmd
}

// runOptions holds the validated inputs of the `run` command.
type runOptions struct {
	directory         string
	openAIKey         string
	deepLKey          string
	targetLang        string
	outputDir         string
	saveIntermediates bool
}

func runCmd(cfg *config.Config, g *globalFlags) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full extract, filter, translate pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateRun(opts); err != nil {
				return err
			}
			return runPipeline(cmd, cfg, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.directory, "directory", "d", cfg.DefaultDirectory, "Directory to scan for code files")
	cmd.Flags().StringVar(&opts.openAIKey, "openai-key", cfg.OpenAIAPIKey, "OpenAI API key (or OPENAI_API_KEY)")
	cmd.Flags().StringVar(&opts.deepLKey, "deepl-key", cfg.DeepLAPIKey, "DeepL API key (or DEEPL_API_KEY)")
	cmd.Flags().StringVarP(&opts.targetLang, "target-lang", "l", cfg.DefaultTargetLanguage, "Target language code")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", cfg.OutputDir, "Directory receiving json_files/ and csv_files/")
	cmd.Flags().BoolVar(&opts.saveIntermediates, "save-intermediates", false, "Save extracted and filtered strings")

	return cmd
}

// validateRun checks the inputs that make a run pointless when missing.
func validateRun(opts runOptions) error {
	if opts.openAIKey == "" {
		return ErrMissingOpenAIKey
	}
	if opts.deepLKey == "" {
		return ErrMissingDeepLKey
	}
	info, err := os.Stat(opts.directory)
	if err != nil {
		return fmt.Errorf("directory not found: %s: %w", opts.directory, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", opts.directory, ErrNotDirectory)
	}
	return nil
}

func runPipeline(cmd *cobra.Command, cfg *config.Config, g *globalFlags, opts runOptions) error {
	ctx, cancel := setupContext()
	defer cancel()

	relevance, err := filter.NewOpenAIFilter(opts.openAIKey, filter.Options{
		BaseURL:   cfg.OpenAIBaseURL,
		Model:     cfg.OpenAIModel,
		BatchSize: cfg.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("create filter: %w", err)
	}

	translator := translation.NewDeepLClient(opts.deepLKey, translation.DeepLOptions{
		BaseURL:           cfg.DeepLBaseURL,
		BatchSize:         cfg.BatchSize,
		RequestsPerSecond: cfg.MaxRequestsPerSecond,
	})

	pgPool, err := connectPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	if pgPool != nil {
		defer pgPool.Close()
	}

	translationCache := cache.NewTranslationCache(pgPool)
	if err := translationCache.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure cache schema: %w", err)
	}
	if err := translationCache.Preload(ctx, opts.targetLang); err != nil {
		log.Warn().Err(err).Msg("Failed to preload cache")
	}

	popts := pipeline.Options{
		Scanner:    newWalker(g),
		Filter:     relevance,
		Translator: translator,
		Cache:      translationCache,
		OutputDir:  opts.outputDir,
	}

	neo4jDriver, err := connectNeo4j(ctx, cfg)
	if err != nil {
		return err
	}
	if neo4jDriver != nil {
		defer neo4jDriver.Close(ctx)
		exporter := graph.NewExporter(neo4jDriver)
		if err := exporter.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure graph schema: %w", err)
		}
		popts.Graph = exporter
	}

	report, err := pipeline.New(popts).Run(ctx, opts.directory, opts.targetLang, opts.saveIntermediates)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Found %d total strings in %d files\n", report.Strings, report.Files)
	fmt.Fprintf(cmd.OutOrStdout(), "Filtered to %d user-facing strings\n", report.Filtered)
	fmt.Fprintf(cmd.OutOrStdout(), "Translations written to %s\n", report.CSVPath)
	return nil
}

func extractCmd(cfg *config.Config, g *globalFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "extract [directory]",
		Short: "Extract human-readable strings without filtering or translating",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := cfg.DefaultDirectory
			if len(args) == 1 {
				dir = args[0]
			}

			ctx, cancel := setupContext()
			defer cancel()

			result, err := newWalker(g).ScanDirectory(ctx, dir)
			if err != nil {
				return err
			}
			if err := export.SaveJSON(output, result); err != nil {
				return err
			}

			strs := result.Strings()
			fmt.Fprintf(cmd.OutOrStdout(), "Character count: %d\n", result.CharCount())
			fmt.Fprintf(cmd.OutOrStdout(), "Found %d total strings in %d files\n", len(strs), len(result.Files))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", filepath.Join(cfg.OutputDir, export.ExtractedJSON), "Where to write the extracted strings")
	return cmd
}

func toCSVCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "to-csv <json-file> <csv-file>",
		Short: "Convert a translations JSON file to CSV",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := export.WriteJSONToCSV(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Data from '%s' has been written to '%s'\n", args[0], args[1])
			return nil
		},
	}
}

func whereCmd(cfg *config.Config) *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "where <text>",
		Short: "List the source files containing a string, from the exported graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Neo4jURI == "" {
				return ErrNoGraph
			}

			ctx, cancel := setupContext()
			defer cancel()

			driver, err := connectNeo4j(ctx, cfg)
			if err != nil {
				return err
			}
			defer driver.Close(ctx)

			occurrences, err := graph.NewQuerier(driver).FindFragment(ctx, args[0], lang)
			if err != nil {
				return err
			}
			if len(occurrences) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No occurrences found")
				return nil
			}
			for _, o := range occurrences {
				if o.Translation != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", o.Path, o.Text, o.Translation)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", o.Path, o.Text)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "target-lang", "l", cfg.DefaultTargetLanguage, "Show the translation in this language")
	return cmd
}

func newWalker(g *globalFlags) *filewalker.Walker {
	return filewalker.NewWalker(filewalker.Options{
		Extensions: g.extensions,
		Workers:    g.workers,
	})
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// connectPostgres opens the cache database. It returns a nil pool when no
// DATABASE_URL is configured.
func connectPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}

	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	if err := pgPool.Ping(ctx); err != nil {
		pgPool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}

	log.Info().Msg("Connected to PostgreSQL")
	return pgPool, nil
}

// connectNeo4j opens the graph store. It returns a nil driver when no
// NEO4J_URI is configured.
func connectNeo4j(ctx context.Context, cfg *config.Config) (neo4j.DriverWithContext, error) {
	if cfg.Neo4jURI == "" {
		return nil, nil
	}

	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		return nil, fmt.Errorf("connect Neo4j: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
	}

	log.Info().Msg("Connected to Neo4j")
	return driver, nil
}
