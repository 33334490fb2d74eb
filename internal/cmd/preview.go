package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jimezsa/heyjobs/internal/config"
	"github.com/jimezsa/heyjobs/internal/export"
	"github.com/jimezsa/heyjobs/internal/logging"
	"github.com/jimezsa/heyjobs/internal/machine"
	"github.com/rs/zerolog"
)

type PreviewCmd struct {
	FetchOptions
	File   string `help:"Parse a saved HTML file instead of fetching the page."`
	Format string `help:"Output format: table, csv, tsv, json, md." enum:",table,csv,tsv,json,md" default:""`
}

func (p *PreviewCmd) Run(ctx *Context) error {
	cfg := p.FetchOptions.apply(ctx.settings())
	deps := &machine.Deps{
		Log:       logging.Loggers{Ops: ctx.Logger, Faults: zerolog.Nop()},
		TargetURL: cfg.TargetURL,
	}

	body, err := p.load(deps, cfg)
	if err != nil {
		return err
	}

	parse := machine.Parse{HTML: body}
	res := parse.Run(context.Background(), deps)
	if !res.OK() {
		return fmt.Errorf("parse: %w", res.Err)
	}
	for _, fault := range res.Faults {
		ctx.UI.Warnf("skipped %s", fault.Error())
	}

	format, err := resolveFormat(ctx, p.Format)
	if err != nil {
		return err
	}
	return export.WriteRecords(ctx.Out, res.Records, format, writeOptions(ctx, cfg.TargetURL))
}

func (p *PreviewCmd) load(deps *machine.Deps, cfg config.Config) ([]byte, error) {
	if strings.TrimSpace(p.File) != "" {
		return os.ReadFile(p.File)
	}

	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	deps.Fetcher = client

	fetch := machine.Fetch{URL: cfg.TargetURL}
	res := fetch.Run(context.Background(), deps)
	if !res.OK() {
		return nil, fmt.Errorf("fetch: %w", res.Err)
	}
	return res.Body, nil
}
