package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/jimezsa/heyjobs/internal/config"
	"github.com/jimezsa/heyjobs/internal/logging"
	"github.com/jimezsa/heyjobs/internal/machine"
	"github.com/jimezsa/heyjobs/internal/network"
	"github.com/jimezsa/heyjobs/internal/store"
)

type RunCmd struct {
	FetchOptions
	DB         string `name:"db" help:"SQLite database path. The job table is recreated on every run."`
	LogDir     string `help:"Directory for scrape-machine.log and exceptions.log."`
	StrictExit bool   `help:"Exit 1 when the run fails and 2 when some records could not be saved."`
}

// FetchOptions are the flags shared by commands that download the listings page.
type FetchOptions struct {
	URL       string `help:"Listings page to scrape."`
	Proxy     string `help:"Proxy URL for the page request."`
	UserAgent string `help:"User-Agent header for the page request."`
	Timeout   int    `help:"Request timeout in seconds; 0 disables it, -1 keeps the configured value." default:"-1"`
}

type outcomeSummary struct {
	Status  machine.Status `json:"status"`
	Path    []machine.Kind `json:"path"`
	Parsed  int            `json:"parsed"`
	Skipped int            `json:"skipped"`
	Saved   int            `json:"saved"`
	Failed  int            `json:"failed"`
	Cause   string         `json:"cause,omitempty"`
}

func (r *RunCmd) Run(ctx *Context) error {
	cfg := r.apply(ctx.settings())

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	loggers, closeLogs, err := logging.Setup(logging.Options{
		Dir:     cfg.LogDir,
		Console: ctx.Err,
		Verbose: ctx.Verbose,
		NoColor: ctx.UI == nil || !ctx.UI.ColorEnabled,
	})
	if err != nil {
		return fmt.Errorf("open logs: %w", err)
	}
	defer closeLogs()

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		loggers.Faults.Error().Err(err).Str("db", cfg.DBPath).Msg("could not open database")
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	outcome := machine.New(machine.Deps{
		Fetcher:   client,
		Store:     db,
		Log:       loggers,
		TargetURL: cfg.TargetURL,
	}).Run(runCtx)

	if err := reportOutcome(ctx, outcome); err != nil {
		return err
	}
	if code := outcome.ExitCode(cfg.StrictExit); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

func (r *RunCmd) apply(cfg config.Config) config.Config {
	cfg = r.FetchOptions.apply(cfg)
	if strings.TrimSpace(r.DB) != "" {
		cfg.DBPath = r.DB
	}
	if strings.TrimSpace(r.LogDir) != "" {
		cfg.LogDir = r.LogDir
	}
	if r.StrictExit {
		cfg.StrictExit = true
	}
	return cfg
}

func (o FetchOptions) apply(cfg config.Config) config.Config {
	if strings.TrimSpace(o.URL) != "" {
		cfg.TargetURL = strings.TrimSpace(o.URL)
	}
	if strings.TrimSpace(o.Proxy) != "" {
		cfg.Proxy = o.Proxy
	}
	if strings.TrimSpace(o.UserAgent) != "" {
		cfg.UserAgent = o.UserAgent
	}
	if o.Timeout >= 0 {
		cfg.TimeoutSeconds = o.Timeout
	}
	return cfg
}

func newClient(cfg config.Config) (*network.Client, error) {
	client, err := network.NewClient(network.Options{
		Proxy:          cfg.Proxy,
		TimeoutSeconds: cfg.TimeoutSeconds,
		UserAgent:      cfg.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("http client: %w", err)
	}
	return client, nil
}

func summarize(outcome machine.Outcome) outcomeSummary {
	summary := outcomeSummary{
		Status:  outcome.Status(),
		Path:    outcome.Path,
		Parsed:  outcome.Records,
		Skipped: outcome.Faults,
		Saved:   len(outcome.Report.Saved),
		Failed:  len(outcome.Report.Failed),
	}
	if outcome.Cause != nil {
		summary.Cause = outcome.Cause.Error()
	}
	return summary
}

func reportOutcome(ctx *Context, outcome machine.Outcome) error {
	summary := summarize(outcome)
	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	switch summary.Status {
	case machine.StatusSaved:
		ctx.UI.Successf("Saved %d job listings.", summary.Saved)
	case machine.StatusPartial:
		ctx.UI.Warnf("Saved %d of %d job listings; %d failed.", summary.Saved, summary.Saved+summary.Failed, summary.Failed)
	case machine.StatusEmpty:
		ctx.UI.Infof("No job listings found.")
	case machine.StatusSetupFailed:
		ctx.UI.Errorf("Setup failed: %s", summary.Cause)
	default:
		ctx.UI.Errorf("Run failed: %s", summary.Cause)
	}
	if summary.Skipped > 0 {
		ctx.UI.Warnf("Skipped %d malformed anchors.", summary.Skipped)
	}
	return nil
}
