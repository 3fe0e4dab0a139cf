package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/richardsondev/unreal-archive/internal/app"
	"github.com/richardsondev/unreal-archive/internal/config"
	"github.com/richardsondev/unreal-archive/internal/content"
	"github.com/richardsondev/unreal-archive/internal/indexer"
)

// errFailedSubmissions makes the process exit non-zero after a batch in
// which some submissions failed. The summary has already been printed.
var errFailedSubmissions = errors.New("some submissions failed")

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a UAApp. The caller must defer app.Close().
// command identifies the CLI command being run (e.g. "index", "show").
func newApp(ctx context.Context, command string, verbose bool) (*app.UAApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewUAApp(ctx, cfg, command, app.Options{Verbose: verbose})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:          "ua",
	Short:        "Unreal content archive indexer",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults.BaseDir)
		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Base Dir: %s\n", defaults.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		m := &config.Manager{}
		return m.Write(os.Stdout, cfg)
	},
}

// index command
var indexCmd = &cobra.Command{
	Use:   "index PATH...",
	Short: "Index content submissions",
	Long: `Index content submissions into the repository.

Each PATH is a file or a directory to search for files. A single "-"
reads newline-separated paths from standard input.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := indexOptions(cmd)
		if err != nil {
			return err
		}
		verbose, _ := cmd.Flags().GetBool("verbose")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, "index", verbose)
		if err != nil {
			return err
		}
		defer a.Close()

		printer := app.NewPrinter(os.Stdout)
		summary, err := a.Index(ctx, args, opts, printer.Progress)
		if summary != nil {
			printer.Summary(summary)
		}
		if err != nil {
			return err
		}
		if summary.Failed > 0 {
			return errFailedSubmissions
		}
		return nil
	},
}

func indexOptions(cmd *cobra.Command) (indexer.Options, error) {
	var opts indexer.Options
	opts.Force, _ = cmd.Flags().GetBool("force")
	opts.NewOnly, _ = cmd.Flags().GetBool("new-only")
	opts.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	if opts.Force && opts.NewOnly {
		return opts, fmt.Errorf("--force and --new-only cannot be combined")
	}
	if opts.Concurrency < 0 {
		return opts, fmt.Errorf("--concurrency must not be negative")
	}

	if s, _ := cmd.Flags().GetString("type"); s != "" {
		kind, err := content.ParseKind(s)
		if err != nil {
			return opts, err
		}
		opts.Kind = kind
	}

	if s, _ := cmd.Flags().GetString("game"); s != "" {
		game := content.GameByName(s)
		if game.Name == content.GameUnknown.Name && !strings.EqualFold(s, content.GameUnknown.Name) {
			return opts, fmt.Errorf("unknown game: %q", s)
		}
		opts.Game = game.Name
	}
	return opts, nil
}

// show command
var showCmd = &cobra.Command{
	Use:   "show HASH",
	Short: "Print a stored record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "show", false)
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.Show(cmd.Context(), strings.ToLower(args[0]))
		if err != nil {
			return err
		}

		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding record: %w", err)
		}
		return enc.Close()
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the content repository",
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the repository schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "db status", false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Status(); err != nil {
			return err
		}
		fmt.Println("Repository schema is up to date.")
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// db subcommands
	dbCmd.AddCommand(dbStatusCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().Bool("force", false, "Store records even when nothing changed")
	indexCmd.Flags().Bool("new-only", false, "Skip submissions that are already indexed")
	indexCmd.Flags().IntP("concurrency", "c", 0, "Submissions to process at once (default from config)")
	indexCmd.Flags().StringP("type", "t", "", "Force the content type (e.g. map, skin, mutator)")
	indexCmd.Flags().StringP("game", "g", "", "Force the game (e.g. UT99, UT2004)")
	indexCmd.Flags().BoolP("verbose", "v", false, "Log every message to stderr")
	rootCmd.AddCommand(showCmd)
}
