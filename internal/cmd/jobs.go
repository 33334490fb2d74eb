package cmd

import (
	"context"
	"fmt"

	"github.com/jimezsa/heyjobs/internal/export"
	"github.com/jimezsa/heyjobs/internal/store"
)

type JobsCmd struct {
	DB     string `name:"db" help:"SQLite database path."`
	Format string `help:"Output format: table, csv, tsv, json, md." enum:",table,csv,tsv,json,md" default:""`
	Count  bool   `help:"Print only the number of stored listings."`
}

func (j *JobsCmd) Run(ctx *Context) error {
	cfg := ctx.settings()
	if j.DB != "" {
		cfg.DBPath = j.DB
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if j.Count {
		count, err := db.Count(context.Background())
		if err != nil {
			return fmt.Errorf("count jobs (has a run completed yet?): %w", err)
		}
		_, err = fmt.Fprintln(ctx.Out, count)
		return err
	}

	records, err := db.List(context.Background())
	if err != nil {
		return fmt.Errorf("read jobs (has a run completed yet?): %w", err)
	}

	format, err := resolveFormat(ctx, j.Format)
	if err != nil {
		return err
	}
	return export.WriteRecords(ctx.Out, records, format, writeOptions(ctx, cfg.TargetURL))
}
