package machine

import (
	"context"
	"errors"

	"github.com/jimezsa/heyjobs/internal/models"
	"github.com/jimezsa/heyjobs/internal/scraper"
)

var (
	errNoStore   = errors.New("no store configured")
	errNoFetcher = errors.New("no fetcher configured")
)

// Init prepares storage. Resetting drops every record of earlier runs.
type Init struct{}

func (Init) Kind() Kind { return KindInit }
func (Init) state()     {}

func (Init) Run(ctx context.Context, deps *Deps) Result {
	deps.Log.Ops.Info().Msg("creating job table")
	if deps.Store == nil {
		return fail(deps, KindInit, errNoStore, "could not create job table")
	}
	if err := deps.Store.Reset(ctx); err != nil {
		return fail(deps, KindInit, err, "could not create job table")
	}
	return Result{}
}

func (Init) Next(deps *Deps, res Result) State {
	if !res.OK() {
		return Exit{}
	}
	deps.Log.Ops.Info().Msg("job table ready")
	return Fetch{URL: deps.TargetURL}
}

// Fetch downloads the listings page.
type Fetch struct {
	URL string
}

func (Fetch) Kind() Kind { return KindFetch }
func (Fetch) state()     {}

func (f Fetch) Run(ctx context.Context, deps *Deps) Result {
	deps.Log.Ops.Info().Str("url", f.URL).Msg("requesting page")
	if deps.Fetcher == nil {
		return fail(deps, KindFetch, errNoFetcher, "request failed")
	}
	body, err := deps.Fetcher.Fetch(ctx, f.URL)
	if err != nil {
		return fail(deps, KindFetch, err, "request failed")
	}
	return Result{Body: body}
}

func (f Fetch) Next(deps *Deps, res Result) State {
	if !res.OK() {
		return Error{Cause: &Cause{State: KindFetch, Err: res.Err}}
	}
	deps.Log.Ops.Info().Str("url", f.URL).Int("bytes", len(res.Body)).Msg("retrieved page")
	return Parse{HTML: res.Body}
}

// Parse extracts job records from the fetched page.
type Parse struct {
	HTML []byte
}

func (Parse) Kind() Kind { return KindParse }
func (Parse) state()     {}

func (p Parse) Run(ctx context.Context, deps *Deps) Result {
	deps.Log.Ops.Info().Msg("parsing listings")
	extraction, err := scraper.ExtractListings(p.HTML)
	if err != nil {
		return fail(deps, KindParse, err, "parse failed")
	}

	for _, fault := range extraction.Faults {
		deps.Log.Ops.Warn().
			Int("anchor", fault.Index).
			Str("kind", string(fault.Kind)).
			Msg("skipped anchor")
		deps.Log.Faults.Warn().
			Str("state", string(KindParse)).
			Int("anchor", fault.Index).
			Str("kind", string(fault.Kind)).
			Str("href", fault.Href).
			Str("element", fault.Snippet).
			Msg("skipped anchor")
	}
	deps.Log.Ops.Debug().
		Int("anchors", extraction.Anchors).
		Int("listings", extraction.Listings).
		Int("records", len(extraction.Records)).
		Msg("extraction finished")

	return Result{Records: extraction.Records, Faults: extraction.Faults}
}

func (Parse) Next(deps *Deps, res Result) State {
	if !res.OK() {
		return Error{Cause: &Cause{State: KindParse, Err: res.Err}}
	}
	if len(res.Records) == 0 {
		deps.Log.Ops.Info().Msg("no job listings recovered from page")
		return Exit{}
	}
	deps.Log.Ops.Info().Int("records", len(res.Records)).Msg("job listings parsed")
	return Save{Records: res.Records}
}

// Save persists records one at a time; individual failures do not stop
// the batch.
type Save struct {
	Records []models.JobRecord
}

func (Save) Kind() Kind { return KindSave }
func (Save) state()     {}

func (s Save) Run(ctx context.Context, deps *Deps) Result {
	deps.Log.Ops.Info().Int("records", len(s.Records)).Msg("saving job listings")
	if deps.Store == nil {
		report := models.SaveReport{}
		for _, record := range s.Records {
			report.Failed = append(report.Failed, models.RecordFailure{Record: record, Err: errNoStore, Reason: errNoStore.Error()})
		}
		return Result{Report: report}
	}

	report := deps.Store.SaveAll(ctx, s.Records)
	for _, saved := range report.Saved {
		deps.Log.Ops.Info().Str("uid", saved.UID).Int64("id", saved.ID).Msg("saved job")
	}
	for _, failure := range report.Failed {
		deps.Log.Ops.Warn().Str("uid", failure.Record.UID).Msg("could not save job, see exceptions log")
		deps.Log.Faults.Error().
			Err(failure.Err).
			Str("state", string(KindSave)).
			Str("uid", failure.Record.UID).
			Msg("could not save job")
	}
	return Result{Report: report}
}

func (Save) Next(deps *Deps, res Result) State {
	return Exit{}
}

// Error is entered after a fatal fetch or parse failure.
type Error struct {
	Cause *Cause
}

func (Error) Kind() Kind { return KindError }
func (Error) state()     {}

func (Error) Run(ctx context.Context, deps *Deps) Result {
	return Result{}
}

func (e Error) Next(deps *Deps, res Result) State {
	event := deps.Log.Ops.Error()
	if e.Cause != nil {
		event = event.Str("state", string(e.Cause.State)).Err(e.Cause.Err)
	}
	event.Msg("run failed, see exceptions log for details")
	return Exit{}
}

// Exit is the terminal state.
type Exit struct{}

func (Exit) Kind() Kind { return KindExit }
func (Exit) state()     {}

func (Exit) Run(ctx context.Context, deps *Deps) Result {
	return Result{}
}

func (Exit) Next(deps *Deps, res Result) State {
	deps.Log.Ops.Info().Msg("program exits")
	return nil
}

func fail(deps *Deps, kind Kind, err error, msg string) Result {
	deps.Log.Ops.Warn().Str("state", string(kind)).Msg(msg + ", see exceptions log")
	deps.Log.Faults.Error().Err(err).Str("state", string(kind)).Msg(msg)
	return Result{Err: err}
}
