package machine

import (
	"context"
	"fmt"

	"github.com/jimezsa/heyjobs/internal/logging"
	"github.com/jimezsa/heyjobs/internal/models"
	"github.com/jimezsa/heyjobs/internal/scraper"
)

type Kind string

const (
	KindInit  Kind = "init"
	KindFetch Kind = "fetch"
	KindParse Kind = "parse"
	KindSave  Kind = "save"
	KindError Kind = "error"
	KindExit  Kind = "exit"
)

// Fetcher retrieves the raw body behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Store resets the record schema and persists records one at a time.
type Store interface {
	Reset(ctx context.Context) error
	SaveAll(ctx context.Context, records []models.JobRecord) models.SaveReport
}

// Deps are the collaborators shared by every state of one run.
type Deps struct {
	Fetcher   Fetcher
	Store     Store
	Log       logging.Loggers
	TargetURL string
}

// Result is what a state's Run produced. Next decides the successor from it.
type Result struct {
	Err     error
	Body    []byte
	Records []models.JobRecord
	Faults  []scraper.ItemFault
	Report  models.SaveReport
}

func (r Result) OK() bool {
	return r.Err == nil
}

// State is one step of the pipeline. Run is called exactly once per
// instance, then Next with its result. A nil successor ends the run.
//
// The set of states is closed: only this package implements State.
type State interface {
	Kind() Kind
	Run(ctx context.Context, deps *Deps) Result
	Next(deps *Deps, res Result) State
	state()
}

// Cause records which state failed and why.
type Cause struct {
	State Kind
	Err   error
}

func (c *Cause) Error() string {
	return fmt.Sprintf("%s: %v", c.State, c.Err)
}

func (c *Cause) Unwrap() error {
	return c.Err
}
