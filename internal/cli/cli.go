// Package cli implements the digraph command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/digraph/pkg/buildinfo"
	"github.com/matzehuels/digraph/pkg/config"
	"github.com/matzehuels/digraph/pkg/errors"
	"github.com/matzehuels/digraph/pkg/graph"
	"github.com/matzehuels/digraph/pkg/store"
	"github.com/matzehuels/digraph/pkg/view"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display and completion scripts.
const appName = "digraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Digraph edits node-link diagrams",
		Long:         `Digraph renders, exports, serves and edits directed node-link diagrams stored as JSON or YAML documents.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return nil
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default "+config.DefaultFile+")")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config Helpers
// =============================================================================

func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	c.Logger.Debug("config loaded", "path", c.configPath, "store", cfg.Store.URL)
	return cfg, nil
}

// viewConfig loads the config file and converts its view section.
func (c *CLI) viewConfig() (config.Config, view.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return config.Config{}, view.Config{}, err
	}
	vc, err := cfg.ViewConfig()
	if err != nil {
		return config.Config{}, view.Config{}, err
	}
	return cfg, vc, nil
}

// readDocument reads a document file with the configured node key.
func readDocument(path string, vc view.Config) (graph.Document, error) {
	if err := errors.ValidateDocumentPath(path); err != nil {
		return graph.Document{}, err
	}
	return graph.NewCodec(vc.NodeKey).ReadFile(path)
}

// openStore opens the configured document store.
func (c *CLI) openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	s, err := store.Open(ctx, cfg.Store.URL)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("store opened", "url", cfg.Store.URL)
	return s, nil
}
