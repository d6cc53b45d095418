package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/bookiebuddy/internal/cache"
	"github.com/lepinkainen/bookiebuddy/internal/config"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"
)

const (
	appName        = "bookiebuddy"
	appDescription = "Track the books you read, rate and review them, and see your reading stats."
)

// CLI represents the complete command structure for the bookiebuddy application
type CLI struct {
	// Global flags
	Verbose   bool `short:"v" help:"Enable debug logging"`
	Overwrite bool `help:"Overwrite existing export, stats and note files"`

	// Storage flags; empty keeps the configured value
	StoreBackend string `help:"Library storage backend: sqlite, badger, memory or none"`
	StorePath    string `help:"Library database file (sqlite) or directory (badger)"`

	// Cache flags; empty keeps the configured value
	CacheDBFile string `help:"Path to cache SQLite database file"`
	CacheTTL    string `help:"Cache time-to-live duration (e.g., 720h for 30 days)"`

	// Datasette flags
	Datasette   bool   `help:"Also publish the library to Datasette after imports"`
	DatasetteDB string `help:"Path to the Datasette SQLite database file"`

	List      ListCmd      `cmd:"" help:"List the books in your library"`
	Show      ShowCmd      `cmd:"" help:"Show every detail of one book"`
	Add       AddCmd       `cmd:"" help:"Add a book, optionally pre-filled from Google Books"`
	Update    UpdateCmd    `cmd:"" help:"Edit a book"`
	Delete    DeleteCmd    `cmd:"" help:"Remove a book"`
	Stats     StatsCmd     `cmd:"" help:"Show reading statistics"`
	Genres    GenresCmd    `cmd:"" help:"List genre suggestions"`
	Export    ExportCmd    `cmd:"" help:"Export the library to a JSON snapshot"`
	Import    ImportCmd    `cmd:"" help:"Replace the library with a JSON snapshot"`
	Clear     ClearCmd     `cmd:"" help:"Remove every book from the library"`
	Search    SearchCmd    `cmd:"" help:"Search Google Books"`
	Notes     NotesCmd     `cmd:"" help:"Write a markdown note for every book"`
	Goodreads GoodreadsCmd `cmd:"" help:"Add the books from a Goodreads library export"`
	Publish   DatasetteCmd `cmd:"" name:"datasette" help:"Publish the library to Datasette"`
	Cache     CacheCmd     `cmd:"" help:"Manage the catalog cache"`
}

// CacheCmd groups the cache maintenance subcommands
type CacheCmd struct {
	Invalidate cache.InvalidateCacheCmd `cmd:"" help:"Drop every cached response of a source"`
}

// cliOptions are shared by Execute and the command tests
func cliOptions(extra ...kong.Option) []kong.Option {
	opts := []kong.Option{
		kong.Name(appName),
		kong.Description(appDescription),
		kong.UsageOnError(),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
	}
	return append(opts, extra...)
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging(false)
	if err := initConfig(); err != nil {
		slog.Error("Fatal error config file", "error", err)
		os.Exit(1)
	}

	var cli CLI
	ctx := kong.Parse(&cli, cliOptions()...)

	if cli.Verbose {
		initLogging(true)
	}
	updateGlobalConfig(&cli)

	err := ctx.Run()
	closeErr := cache.ResetGlobalCache()
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
	if closeErr != nil {
		slog.Warn("Failed to close cache database", "error", closeErr)
	}
}

// initConfig loads defaults and the optional config.yaml from the working directory
func initConfig() error {
	config.SetDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			slog.Debug("Config file not found, using defaults")
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	slog.Debug("Loaded config file", "path", viper.ConfigFileUsed())
	return nil
}

func updateGlobalConfig(cli *CLI) {
	config.SetOverwriteFiles(cli.Overwrite)
	if cli.Datasette {
		viper.Set(config.KeyDatasetteEnabled, true)
	}

	overrides := map[string]string{
		config.KeyStoreBackend:    cli.StoreBackend,
		config.KeyStorePath:       cli.StorePath,
		config.KeyCacheDBFile:     cli.CacheDBFile,
		config.KeyCacheTTL:        cli.CacheTTL,
		config.KeyDatasetteDBFile: cli.DatasetteDB,
	}
	for key, value := range overrides {
		if value != "" {
			viper.Set(key, value)
		}
	}
}

func initLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: level,
	})

	slog.SetDefault(slog.New(handler))
}
