// Package cli implements the layercake command-line interface: ingesting
// tabular datasets, applying structural transforms, managing a project's
// plan DAG, and exporting/importing whole projects as archive bundles.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/layercake-run/layercake/pkg/buildinfo"
	"github.com/layercake-run/layercake/pkg/cache"
	"github.com/layercake-run/layercake/pkg/config"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands: the logger, the ambient
// configuration, and the path that configuration was loaded from. Storage
// and cache backends are built per command from the configuration.
type CLI struct {
	Logger     *log.Logger
	Config     *config.Config
	ConfigPath string
}

// New creates a CLI instance with a default logger and configuration.
// Call LoadConfig to layer a config file over the defaults before RootCommand
// executes.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// LoadConfig reads the TOML file at path (if any) and replaces c.Config
// with the result.
func (c *CLI) LoadConfig(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.ConfigPath = path
	return nil
}

// RootCommand creates the root cobra command with every subcommand
// registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "layercake",
		Short:        "Layercake reshapes tabular graph datasets through a versioned plan DAG",
		Long:         `Layercake ingests tabular node/edge/layer data into a typed in-memory graph, applies deterministic structural transforms, orchestrates reshaping through a persisted plan DAG, and round-trips whole projects through a ZIP archive codec.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "path to a layercake.toml config file")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return c.LoadConfig(c.ConfigPath)
	}

	root.AddCommand(c.ingestCommand())
	root.AddCommand(c.transformCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.archiveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newCache builds the cache backend named by c.Config.Cache.Backend. A
// file cache whose directory cannot be created, or a Redis URL that does
// not parse, degrades to a null cache rather than failing the command. No
// connection to Redis is attempted here, so an unreachable Redis server
// only shows up as errors from the cache's own calls.
func (c *CLI) newCache() cache.Cache {
	switch c.Config.Cache.Backend {
	case config.CacheBackendFile:
		fc, err := cache.NewFileCache(c.Config.Cache.Dir)
		if err != nil {
			c.Logger.Warnf("file cache unavailable, falling back to null cache: %v", err)
			return cache.NewNullCache()
		}
		return fc
	case config.CacheBackendRedis:
		rc, err := cache.NewRedisCache(c.Config.Cache.RedisURL)
		if err != nil {
			c.Logger.Warnf("redis cache unavailable, falling back to null cache: %v", err)
			return cache.NewNullCache()
		}
		return rc
	default:
		return cache.NewNullCache()
	}
}
