package cli

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/digraph/pkg/config"
	"github.com/matzehuels/digraph/pkg/errors"
)

// configCommand creates the config command with init and show subcommands.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configShowCommand())
	return cmd
}

func (c *CLI) configInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath
			if path == "" {
				path = config.DefaultFile
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New(errors.ErrCodeInvalidConfig, "%s already exists (use --force to overwrite)", path)
			}

			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := config.Default().Write(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			printSuccess("Wrote configuration")
			printFile(path)
			printNextStep("Serve documents", "digraph serve")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func (c *CLI) configShowCommand() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if raw {
				return cfg.Write(cmd.OutOrStdout())
			}

			vc, err := cfg.ViewConfig()
			if err != nil {
				return err
			}
			printKeyValue("store", cfg.Store.URL)
			printKeyValue("serve", cfg.Serve.Addr)
			printKeyValue("node key", vc.NodeKey)
			printKeyValue("zoom", formatFloat(vc.MinZoom)+" - "+formatFloat(vc.MaxZoom))
			printKeyValue("zoom time", zoomTime(vc.ZoomDuration))
			printKeyValue("viewport", formatFloat(vc.Width)+" x "+formatFloat(vc.Height))
			printKeyValue("read only", strconv.FormatBool(vc.ReadOnly))
			printKeyValue("self loops", strconv.FormatBool(vc.AllowSelfLoops))
			printKeyValue("node types", strconv.Itoa(len(cfg.NodeTypes)))
			printKeyValue("edge types", strconv.Itoa(len(cfg.EdgeTypes)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "toml", false, "print the configuration as TOML")
	return cmd
}

func zoomTime(d time.Duration) string {
	if d < 0 {
		return "instant"
	}
	return d.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
