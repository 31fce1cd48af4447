package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/app"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/calendar"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/config"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/logging"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/manifest"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/mirror"
)

func fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitFailure
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// withApp loads the config, starts the batch components and always stops them.
func withApp(ctx context.Context, writeDB bool, tweak func(*config.AppConfig), fn func(context.Context, *app.App) subcommands.ExitStatus) subcommands.ExitStatus {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fail("%v", err)
	}
	if tweak != nil {
		tweak(cfg)
	}
	a, err := app.New(cfg, app.Options{WriteDB: writeDB})
	if err != nil {
		return fail("%v", err)
	}
	ctx = logging.WithRunID(ctx)
	if err := a.Start(ctx); err != nil {
		return fail("%v", err)
	}
	defer a.Stop(context.Background())
	return fn(ctx, a)
}

type runCmd struct {
	families string
	start    string
	end      string
	sql      bool
	lookback int
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "ingest, reconcile and persist the selected data families" }
func (*runCmd) Usage() string {
	return `dataupdate run [-family f1,f2] [-start YYYY-MM-DD] [-end YYYY-MM-DD] [-sql] [-lookback n]

  Runs the families in the daily order (stock, index_component, index, factor,
  index_exposure) unless -family narrows them. The end date defaults to the
  last working day.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.families, "family", "", "comma separated families, default all")
	f.StringVar(&c.start, "start", "", "first date, default end minus the lookback")
	f.StringVar(&c.end, "end", "", "last date, default the last working day")
	f.BoolVar(&c.sql, "sql", false, "also append to the destination tables")
	f.IntVar(&c.lookback, "lookback", 0, "working days before end, overrides the config")
}

func (c *runCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var families []string
	for _, f := range strings.Split(c.families, ",") {
		if f = strings.TrimSpace(f); f != "" {
			families = append(families, f)
		}
	}
	tweak := func(cfg *config.AppConfig) {
		if c.lookback > 0 {
			cfg.BizConfig.Lookback = c.lookback
		}
	}
	return withApp(ctx, c.sql, tweak, func(ctx context.Context, a *app.App) subcommands.ExitStatus {
		runner := a.Service().Runner()
		win := runner.DefaultWindow()
		if c.end != "" {
			end, err := calendar.ParseDate(c.end)
			if err != nil {
				return fail("-end: %v", err)
			}
			win = runner.WindowEnding(end)
		}
		if c.start != "" {
			start, err := calendar.ParseDate(c.start)
			if err != nil {
				return fail("-start: %v", err)
			}
			win.Start = start
		}
		sums, err := runner.RunAll(ctx, families, win)
		printJSON(sums)
		if err != nil {
			return fail("%v", err)
		}
		return subcommands.ExitSuccess
	})
}

type syncCmd struct {
	truncate bool
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "mirror tables from the source to the target database" }
func (*syncCmd) Usage() string {
	return `dataupdate sync [-truncate=false] [table ...]

  Mirrors the listed tables, or the configured default set, and prints the
  status of each table.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.truncate, "truncate", true, "empty each target table before loading")
}

func (c *syncCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, false, nil, func(ctx context.Context, a *app.App) subcommands.ExitStatus {
		res, err := a.Service().Sync(ctx, f.Args(), c.truncate)
		if err != nil {
			return fail("%v", err)
		}
		printJSON(res)
		for _, r := range res {
			if r.Status != mirror.StatusSuccess {
				return subcommands.ExitFailure
			}
		}
		return subcommands.ExitSuccess
	})
}

type bootstrapCmd struct{}

func (*bootstrapCmd) Name() string     { return "bootstrap" }
func (*bootstrapCmd) Synopsis() string { return "create the destination tables listed in the manifest" }
func (*bootstrapCmd) Usage() string {
	return `dataupdate bootstrap

  Creates every manifest table that does not exist yet; existing tables are left alone.
`
}

func (*bootstrapCmd) SetFlags(*flag.FlagSet) {}

func (*bootstrapCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, false, nil, func(ctx context.Context, a *app.App) subcommands.ExitStatus {
		report, err := a.Service().Bootstrap(ctx)
		if err != nil {
			return fail("%v", err)
		}
		printJSON(report)
		if report.Count(manifest.StatusFailed) > 0 {
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	})
}

type serveCmd struct {
	sql bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the daemon: cron schedule plus the HTTP API" }
func (*serveCmd) Usage() string {
	return `dataupdate serve [-sql=false]
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.sql, "sql", true, "append scheduled runs to the destination tables")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fail("%v", err)
	}
	a, err := app.New(cfg, app.Options{Serve: true, WriteDB: c.sql})
	if err != nil {
		return fail("%v", err)
	}
	if err := a.Run(ctx); err != nil {
		return fail("%v", err)
	}
	return subcommands.ExitSuccess
}
