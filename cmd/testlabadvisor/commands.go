package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sophialabs/testlabadvisor/internal/app"
	"github.com/sophialabs/testlabadvisor/internal/domain/advisory"
	"github.com/sophialabs/testlabadvisor/internal/domain/match"
	"github.com/sophialabs/testlabadvisor/internal/domain/testlog"
)

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and reload the data directory on change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(c.cfg)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
	f := cmd.Flags()
	f.IntVar(&c.cfg.Port, "port", c.cfg.Port, "HTTP server port")
	f.IntVar(&c.cfg.TraceSize, "trace-size", c.cfg.TraceSize, "number of trace entries to keep")
	f.DurationVar(&c.cfg.SessionTTL, "session-ttl", c.cfg.SessionTTL, "idle time after which operator sessions are dropped")
	f.Float64Var(&c.cfg.SubmitRate, "submit-rate", c.cfg.SubmitRate, "log submissions per second allowed per technician (0 disables)")
	f.IntVar(&c.cfg.SubmitBurst, "submit-burst", c.cfg.SubmitBurst, "log submission burst per technician")
	return cmd
}

func (c *cli) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Search the reference table (case-insensitive, any column)",
		Long: `Lists every record whose refcode, FRU number, FRU name, drawer, location,
SE commands or notes contain the query. Without a query the whole table is listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return c.withApp(cmd, func(_ context.Context, a *app.App) error {
				return printJSON(cmd, a.Container().LookupUseCase().Search("", query))
			})
		},
	}
}

func (c *cli) lookupCmd() *cobra.Command {
	var (
		query string
		sel   match.Selector
	)
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Resolve one record by exact FRU name or refcode",
		Long: `Resolves the first record whose FRU name equals --fru, or, when --fru is
not given, whose refcode equals --refcode. Matching is case-sensitive.
--query restricts the lookup to the records a search would return.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sel.IsEmpty() {
				return errors.New("either --refcode or --fru is required")
			}
			return c.withApp(cmd, func(_ context.Context, a *app.App) error {
				out := a.Container().LookupUseCase().Resolve("", query, sel)
				if err := printJSON(cmd, out); err != nil {
					return err
				}
				if out.Resolution.Status == match.StatusNoMatch {
					return fmt.Errorf("no record matches %s", out.Resolution.Key)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&sel.Refcode, "refcode", "", "exact refcode")
	cmd.Flags().StringVar(&sel.FRUName, "fru", "", "exact FRU name (takes precedence over --refcode)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "restrict to records matching this search")
	return cmd
}

func (c *cli) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show recovery statistics per drawer and the recent activity preview",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(_ context.Context, a *app.App) error {
				return printJSON(cmd, a.Container().LookupUseCase().Summary())
			})
		},
	}
}

func (c *cli) logCmd() *cobra.Command {
	var e testlog.Entry
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Append a test step to the test log",
		Long: `Appends one row to the test log. --card and --tech are required; technician
initials are upper-cased. Temperature and description default from the
operations catalog when the step is known.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				saved, err := a.Container().LogOperationUseCase().Execute(ctx, e)
				if err != nil {
					return err
				}
				return printJSON(cmd, saved)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&e.OpStep, "op", "", "operation step code, e.g. 0472")
	f.StringVar(&e.OpDescription, "desc", "", "operation description (default from catalog)")
	f.StringVar(&e.Temperature, "temp", "", "temperature condition (default from catalog)")
	f.StringVar(&e.CardID, "card", "", "card ID")
	f.StringVar(&e.Technician, "tech", "", "technician initials")
	f.StringVar(&e.Result, "result", testlog.ResultPass, "PASS or FAIL")
	f.StringVar(&e.Notes, "notes", "", "free-form notes")
	return cmd
}

func (c *cli) recentCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the latest test log entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The default comes from the resolved config, not the one seen at build time.
			if !cmd.Flags().Changed("count") {
				n = c.cfg.RecentLimit
			}
			if n < 0 {
				return fmt.Errorf("--count must not be negative, got %d", n)
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				entries, err := a.Container().LogOperationUseCase().Recent(ctx, n)
				if err != nil {
					return err
				}
				return printJSON(cmd, entries)
			})
		},
	}
	cmd.Flags().IntVarP(&n, "count", "n", c.cfg.RecentLimit, "number of entries (default recent_limit)")
	return cmd
}

func (c *cli) adviseCmd() *cobra.Command {
	var req advisory.Request
	cmd := &cobra.Command{
		Use:   "advise",
		Short: "Generate diagnostic guidance for a component",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				advice, err := a.Container().AdviseUseCase().Execute(ctx, "", req)
				if err != nil {
					return err
				}
				return printJSON(cmd, advice)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Refcode, "refcode", "", "refcode being diagnosed")
	f.StringVar(&req.Component, "component", "", "component or FRU name")
	f.StringVar(&req.FreeText, "notes", "", "operator observations")
	f.StringVar(&req.ModelKey, "model", "", "model key (default from configuration)")
	return cmd
}

func (c *cli) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report presence and row counts of the data files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := c.cfg
			cfg.LogOutput = cmd.ErrOrStderr()
			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			report := a.Container().CheckDataUseCase().Execute()
			if err := printJSON(cmd, report); err != nil {
				return err
			}
			if !report.OK() {
				return fmt.Errorf("data directory %s is incomplete", cfg.DataDir)
			}
			return nil
		},
	}
}
