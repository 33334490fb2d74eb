package machine

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jimezsa/heyjobs/internal/logging"
	"github.com/jimezsa/heyjobs/internal/models"
	"github.com/jimezsa/heyjobs/internal/network"
	"github.com/jimezsa/heyjobs/internal/scraper"
)

const twoListings = `
<div> </div>
<a href=/en/jobs/1e61e323-1e90-4b0c-a4cf-949ca74bbd7a>
    <div class='job-card-title'>A really great job!</div>
</a>
<a href=/en/jobs/1e61e323-1e90-4b0c-a4cf-949ca74bbd7b>
    <div class='job-card-title'>A really bad job!</div>
</a>
</div>
`

const garbage = "akjhdsflkajhdfkja*$(hdlkfjhadslkfj!(#*$)_@hadlkfjhaf,mand.nlchaipher8ydpcia61nerlkthqrhEF"

type fakeFetcher struct {
	body  []byte
	err   error
	calls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.calls = append(f.calls, url)
	return f.body, f.err
}

type fakeStore struct {
	resetErr error
	resets   int
	failUIDs map[string]bool
	saved    []models.JobRecord
}

func (s *fakeStore) Reset(ctx context.Context) error {
	s.resets++
	if s.resetErr != nil {
		return s.resetErr
	}
	s.saved = nil
	return nil
}

func (s *fakeStore) SaveAll(ctx context.Context, records []models.JobRecord) models.SaveReport {
	var report models.SaveReport
	for _, record := range records {
		if s.failUIDs[record.UID] {
			err := errors.New("constraint failed")
			report.Failed = append(report.Failed, models.RecordFailure{Record: record, Err: err, Reason: err.Error()})
			continue
		}
		record.ID = int64(len(s.saved) + 1)
		s.saved = append(s.saved, record)
		report.Saved = append(report.Saved, record)
	}
	return report
}

func testDeps() *Deps {
	return &Deps{Log: logging.Nop(), TargetURL: "https://jobs.example.com/en-de/jobs-in-Berlin?page=1"}
}

func TestInit_SuccessGoesToFetch(t *testing.T) {
	deps := testDeps()
	store := &fakeStore{}
	deps.Store = store

	state := Init{}
	res := state.Run(context.Background(), deps)
	if !res.OK() {
		t.Fatalf("Init.Run() error = %v", res.Err)
	}
	if store.resets != 1 {
		t.Fatalf("expected one reset, got %d", store.resets)
	}

	next, ok := state.Next(deps, res).(Fetch)
	if !ok {
		t.Fatalf("expected Fetch state")
	}
	if next.URL != deps.TargetURL {
		t.Fatalf("Fetch.URL = %q, want %q", next.URL, deps.TargetURL)
	}
}

func TestInit_FailureGoesToExit(t *testing.T) {
	deps := testDeps()
	deps.Store = &fakeStore{resetErr: errors.New("disk full")}

	state := Init{}
	res := state.Run(context.Background(), deps)
	if res.OK() {
		t.Fatalf("expected Init.Run() to fail")
	}
	if _, ok := state.Next(deps, res).(Exit); !ok {
		t.Fatalf("expected Exit after setup failure")
	}
}

func TestInit_WithoutStore(t *testing.T) {
	deps := testDeps()
	res := Init{}.Run(context.Background(), deps)
	if !errors.Is(res.Err, errNoStore) {
		t.Fatalf("expected errNoStore, got %v", res.Err)
	}
}

func TestFetch_SuccessCarriesBody(t *testing.T) {
	deps := testDeps()
	body := []byte(twoListings)
	fetcher := &fakeFetcher{body: body}
	deps.Fetcher = fetcher

	state := Fetch{URL: "https://jobs.example.com/list"}
	res := state.Run(context.Background(), deps)
	if !res.OK() {
		t.Fatalf("Fetch.Run() error = %v", res.Err)
	}

	next, ok := state.Next(deps, res).(Parse)
	if !ok {
		t.Fatalf("expected Parse state")
	}
	if !bytes.Equal(next.HTML, body) {
		t.Fatalf("Parse.HTML does not match fetched body")
	}
	if diff := cmp.Diff([]string{"https://jobs.example.com/list"}, fetcher.calls); diff != "" {
		t.Fatalf("fetch calls mismatch (-want +got):\n%s", diff)
	}
}

func TestFetch_FailureGoesToError(t *testing.T) {
	deps := testDeps()
	cause := &network.StatusError{URL: "https://jobs.example.com/boo", Code: 404}
	deps.Fetcher = &fakeFetcher{err: cause}

	state := Fetch{URL: "https://jobs.example.com/boo"}
	res := state.Run(context.Background(), deps)
	if res.OK() {
		t.Fatalf("expected Fetch.Run() to fail")
	}

	next, ok := state.Next(deps, res).(Error)
	if !ok {
		t.Fatalf("expected Error state")
	}
	if next.Cause == nil || next.Cause.State != KindFetch {
		t.Fatalf("unexpected cause: %+v", next.Cause)
	}
	var statusErr *network.StatusError
	if !errors.As(next.Cause, &statusErr) || statusErr.Code != 404 {
		t.Fatalf("cause does not unwrap to StatusError: %v", next.Cause)
	}
}

func TestFetch_URLWithoutScheme(t *testing.T) {
	client, err := network.NewClient(network.Options{})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	deps := testDeps()
	deps.Fetcher = client

	state := Fetch{URL: "www.example.com"}
	res := state.Run(context.Background(), deps)
	if !errors.Is(res.Err, network.ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", res.Err)
	}
	if _, ok := state.Next(deps, res).(Error); !ok {
		t.Fatalf("expected Error state")
	}
}

func TestParse_TwoListingsGoToSave(t *testing.T) {
	deps := testDeps()
	state := Parse{HTML: []byte(twoListings)}

	res := state.Run(context.Background(), deps)
	if !res.OK() {
		t.Fatalf("Parse.Run() error = %v", res.Err)
	}

	next, ok := state.Next(deps, res).(Save)
	if !ok {
		t.Fatalf("expected Save state")
	}
	want := []models.JobRecord{
		{UID: "1e61e323-1e90-4b0c-a4cf-949ca74bbd7a", Title: "A really great job!"},
		{UID: "1e61e323-1e90-4b0c-a4cf-949ca74bbd7b", Title: "A really bad job!"},
	}
	if diff := cmp.Diff(want, next.Records); diff != "" {
		t.Fatalf("Save.Records mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_NoListingsGoesToExit(t *testing.T) {
	deps := testDeps()
	state := Parse{HTML: []byte("<div><div></div></div>")}

	res := state.Run(context.Background(), deps)
	if !res.OK() {
		t.Fatalf("Parse.Run() error = %v", res.Err)
	}
	if len(res.Records) != 0 {
		t.Fatalf("expected no records, got %d", len(res.Records))
	}
	if _, ok := state.Next(deps, res).(Exit); !ok {
		t.Fatalf("expected Exit state")
	}
}

func TestParse_GarbageGoesToError(t *testing.T) {
	deps := testDeps()
	state := Parse{HTML: []byte(garbage)}

	res := state.Run(context.Background(), deps)
	if !errors.Is(res.Err, scraper.ErrNotHTML) {
		t.Fatalf("expected ErrNotHTML, got %v", res.Err)
	}
	next, ok := state.Next(deps, res).(Error)
	if !ok {
		t.Fatalf("expected Error state")
	}
	if next.Cause.State != KindParse {
		t.Fatalf("unexpected cause state: %s", next.Cause.State)
	}
}

func TestParse_ReportsFaults(t *testing.T) {
	deps := testDeps()
	html := `<a>no href</a><a href="/en/jobs/abc"><p>no title</p></a><a href="/en/jobs/def"><p class="job-card-title">Ok</p></a>`

	res := Parse{HTML: []byte(html)}.Run(context.Background(), deps)
	if !res.OK() {
		t.Fatalf("Parse.Run() error = %v", res.Err)
	}
	if len(res.Records) != 1 || res.Records[0].UID != "def" {
		t.Fatalf("unexpected records: %+v", res.Records)
	}
	if len(res.Faults) != 2 {
		t.Fatalf("expected 2 faults, got %+v", res.Faults)
	}
}

func TestSave_AlwaysGoesToExit(t *testing.T) {
	deps := testDeps()
	deps.Store = &fakeStore{failUIDs: map[string]bool{"b": true}}

	state := Save{Records: []models.JobRecord{{UID: "a", Title: "A"}, {UID: "b", Title: "B"}, {UID: "c", Title: "C"}}}
	res := state.Run(context.Background(), deps)
	if !res.OK() {
		t.Fatalf("Save.Run() error = %v", res.Err)
	}
	if len(res.Report.Saved) != 2 || len(res.Report.Failed) != 1 {
		t.Fatalf("unexpected report: %+v", res.Report)
	}
	if res.Report.Failed[0].Record.UID != "b" {
		t.Fatalf("unexpected failed record: %+v", res.Report.Failed[0])
	}
	if _, ok := state.Next(deps, res).(Exit); !ok {
		t.Fatalf("expected Exit state")
	}
}

func TestSave_WithoutStoreFailsEveryRecord(t *testing.T) {
	deps := testDeps()
	res := Save{Records: []models.JobRecord{{UID: "a", Title: "A"}}}.Run(context.Background(), deps)
	if len(res.Report.Failed) != 1 || !errors.Is(res.Report.Failed[0].Err, errNoStore) {
		t.Fatalf("unexpected report: %+v", res.Report)
	}
}

func TestErrorAndExit(t *testing.T) {
	deps := testDeps()

	errState := Error{Cause: &Cause{State: KindFetch, Err: errors.New("dial tcp: no such host")}}
	if _, ok := errState.Next(deps, errState.Run(context.Background(), deps)).(Exit); !ok {
		t.Fatalf("expected Error to lead to Exit")
	}
	if _, ok := (Error{}).Next(deps, Result{}).(Exit); !ok {
		t.Fatalf("expected causeless Error to lead to Exit")
	}

	exit := Exit{}
	if next := exit.Next(deps, exit.Run(context.Background(), deps)); next != nil {
		t.Fatalf("expected Exit to be terminal, got %v", next.Kind())
	}
}

func TestCauseError(t *testing.T) {
	inner := errors.New("boom")
	cause := &Cause{State: KindParse, Err: inner}
	if cause.Error() != "parse: boom" {
		t.Fatalf("unexpected cause text: %q", cause.Error())
	}
	if !errors.Is(cause, inner) {
		t.Fatalf("cause does not unwrap")
	}
}
