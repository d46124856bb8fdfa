package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sophialabs/testlabadvisor/internal/app"
)

// cli carries the configuration shared by every command.
type cli struct {
	cfg        app.Config
	configPath string
	getenv     func(string) string
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	c := &cli{cfg: app.DefaultConfig(), getenv: getenv}

	root := &cobra.Command{
		Use:   "testlabadvisor",
		Short: "Refcode/FRU lookup and test log for the manufacturing test floor",
		Long: `testlabadvisor answers "what does this refcode mean and what do I do next"
from the refcode/FRU reference table, records operator test steps in the
append-only test log, and produces template-based diagnostic advice.

Run "testlabadvisor serve" to start the JSON API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.resolveConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&c.cfg.DataDir, "data-dir", c.cfg.DataDir, "directory holding the reference tables and test log")
	pf.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&c.cfg.TimeZone, "time-zone", c.cfg.TimeZone, "IANA time zone for log timestamps (default local)")
	pf.StringVar(&c.cfg.DefaultEngine, "default-engine", c.cfg.DefaultEngine, "default template engine for advisory rules (expr, jinja2)")
	pf.StringVar(&c.cfg.DefaultModel, "default-model", c.cfg.DefaultModel, "model key recorded on advice when none is requested")
	pf.StringVar(&c.cfg.DetailURLTemplate, "detail-url", c.cfg.DetailURLTemplate, "refcode detail link template, {refcode} is replaced")

	root.AddCommand(
		c.serveCmd(),
		c.searchCmd(),
		c.lookupCmd(),
		c.summaryCmd(),
		c.logCmd(),
		c.recentCmd(),
		c.adviseCmd(),
		c.checkCmd(),
	)
	return root
}

// resolveConfig applies the configuration file and environment. Flags set
// on the command line win over the file; credentials from the environment
// win over both.
func (c *cli) resolveConfig(cmd *cobra.Command) error {
	if c.configPath != "" {
		changed := make(map[string]string)
		cmd.Flags().Visit(func(f *pflag.Flag) {
			changed[f.Name] = f.Value.String()
		})
		if err := c.cfg.LoadFile(c.configPath); err != nil {
			return err
		}
		for name, value := range changed {
			if err := cmd.Flags().Set(name, value); err != nil {
				return fmt.Errorf("reapplying --%s: %w", name, err)
			}
		}
	}
	c.cfg.ApplyEnv(c.getenv)
	return nil
}

// withApp builds the application, loads the data directory and runs fn.
// Logs go to the command's error stream so output stays machine readable.
func (c *cli) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg := c.cfg
	cfg.LogOutput = cmd.ErrOrStderr()

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if _, err := a.Load(ctx); err != nil {
		return err
	}
	return fn(ctx, a)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
