package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ScrpTrx-Go/tgprune/internal/config"
	"github.com/ScrpTrx-Go/tgprune/internal/domain/model"
	"github.com/ScrpTrx-Go/tgprune/internal/service/executor"
	"github.com/ScrpTrx-Go/tgprune/internal/service/pager"
	pkg "github.com/ScrpTrx-Go/tgprune/pkg/logger"
)

// scriptedHistory serves a fixed list of pages; a nil page ends the history
// and an error page fails the fetch.
type scriptedHistory struct {
	mu      sync.Mutex
	pages   [][]model.Post
	errAt   int
	err     error
	fetches int
}

func (s *scriptedHistory) FetchNewest(ctx context.Context, account string) (model.Page, error) {
	return s.serve()
}

func (s *scriptedHistory) FetchOlder(ctx context.Context, account string, cursor model.Cursor) (model.Page, error) {
	return s.serve()
}

func (s *scriptedHistory) serve() (model.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.err != nil && s.fetches == s.errAt {
		return model.Page{}, s.err
	}
	if s.fetches > len(s.pages) {
		return model.Page{}, nil
	}
	posts := s.pages[s.fetches-1]
	page := model.Page{Posts: posts}
	if len(posts) > 0 {
		page.Cursor = model.Cursor{MaxID: posts[len(posts)-1].ID}
	}
	return page, nil
}

type recordingDeleter struct {
	mu      sync.Mutex
	fail    map[int64]bool
	calls   []int64
	deleted []int64
}

func (r *recordingDeleter) Delete(ctx context.Context, post model.Post) (model.DeleteReceipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, post.ID)
	if r.fail[post.ID] {
		return model.DeleteReceipt{}, fmt.Errorf("delete %d: forbidden", post.ID)
	}
	r.deleted = append(r.deleted, post.ID)
	return model.DeleteReceipt{PostID: post.ID}, nil
}

type memoryStore struct {
	runs     []model.RunSummary
	outcomes map[string][]model.Outcome
}

func (m *memoryStore) SaveRun(ctx context.Context, s model.RunSummary) error {
	m.runs = append(m.runs, s)
	return nil
}

func (m *memoryStore) SaveOutcomes(ctx context.Context, runID string, outcomes []model.Outcome) error {
	if m.outcomes == nil {
		m.outcomes = map[string][]model.Outcome{}
	}
	m.outcomes[runID] = append(m.outcomes[runID], outcomes...)
	return nil
}

func (m *memoryStore) Close() {}

type stubReporter struct {
	calls int
	last  model.RunSummary
}

func (s *stubReporter) GenerateRunReport(ctx context.Context, summary model.RunSummary, outcomes []model.Outcome) error {
	s.calls++
	s.last = summary
	return nil
}

var cutoff = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

func newTestApp(history *scriptedHistory, deleter *recordingDeleter, audit *pkg.AuditLogger, dryRun bool) *App {
	cfg := config.RunConfig{RunID: "run-1", Account: "channel", DryRun: dryRun, Cutoff: cutoff}
	log := pkg.NewNop()
	p := pager.New(history, cfg.Account, 0, log)
	e := executor.New(deleter, audit, log, cfg)
	return NewApp(p, e, audit, log, cfg)
}

func sorted(ids []int64) []int64 {
	out := append([]int64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestRunDeletesOnlyEligiblePosts(t *testing.T) {
	// The run starts at now with a seven day retention window, so the
	// cutoff falls between the ten day old and the one day old post.
	now := time.Date(2025, time.June, 20, 9, 0, 0, 0, time.UTC)
	cfg := config.Config{Account: "channel", DaysToKeep: 7}.RunConfig(now)
	history := &scriptedHistory{pages: [][]model.Post{{
		{ID: 1, CreatedAt: now.Add(-10 * day)},
		{ID: 2, CreatedAt: now.Add(-1 * day)},
		{ID: 3, CreatedAt: now.Add(-50 * day), Protected: true},
	}}}
	deleter := &recordingDeleter{}
	var audit bytes.Buffer
	store := &memoryStore{}
	sink := pkg.NewAuditLoggerTo(&audit)
	log := pkg.NewNop()
	app := NewApp(pager.New(history, cfg.Account, 0, log), executor.New(deleter, sink, log, cfg), sink, log, cfg)
	app.Store = store

	summary := app.Run(context.Background())

	if diff := cmp.Diff([]int64{1}, deleter.deleted); diff != "" {
		t.Errorf("deleted mismatch (-want +got):\n%s", diff)
	}
	if summary.Deleted != 1 || summary.Kept != 2 || summary.Evaluated != 3 || summary.Pages != 1 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if summary.FetchErr != nil {
		t.Errorf("FetchErr = %v, want nil", summary.FetchErr)
	}

	decisions := map[int64]model.Decision{}
	for _, o := range store.outcomes[cfg.RunID] {
		decisions[o.PostID] = o.Decision
	}
	want := map[int64]model.Decision{
		1: model.DecisionDelete,
		2: model.DecisionKeepRecent,
		3: model.DecisionKeepProtected,
	}
	if diff := cmp.Diff(want, decisions); diff != "" {
		t.Errorf("decisions mismatch (-want +got):\n%s", diff)
	}
	if got := bytes.Count(audit.Bytes(), []byte("\n")); got != 3 {
		t.Errorf("audit lines = %d, want 3", got)
	}
}

func TestRunDryRunIsRepeatable(t *testing.T) {
	script := [][]model.Post{
		{
			{ID: 6, CreatedAt: cutoff.Add(-2 * day), Payload: []byte(`{"id":6}`)},
			{ID: 5, CreatedAt: cutoff.Add(day), Payload: []byte(`{"id":5}`)},
		},
		{
			{ID: 4, CreatedAt: cutoff.Add(-3 * day), Payload: []byte(`{"id":4}`)},
		},
	}

	run := func() (string, *recordingDeleter) {
		deleter := &recordingDeleter{}
		var out bytes.Buffer
		app := newTestApp(&scriptedHistory{pages: script}, deleter, pkg.NewAuditLoggerTo(&out), true)
		summary := app.Run(context.Background())
		if summary.Simulated != 2 {
			t.Errorf("simulated = %d, want 2", summary.Simulated)
		}
		return out.String(), deleter
	}

	first, d1 := run()
	second, d2 := run()

	if len(d1.calls)+len(d2.calls) != 0 {
		t.Errorf("dry run issued delete calls: %v %v", d1.calls, d2.calls)
	}
	// Posts within a page run concurrently, so compare line sets.
	if diff := cmp.Diff(sortedLines(first), sortedLines(second)); diff != "" {
		t.Errorf("audit output differs between runs (-first +second):\n%s", diff)
	}
}

func sortedLines(s string) []string {
	lines := bytes.Split([]byte(s), []byte("\n"))
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if len(l) > 0 {
			out = append(out, string(l))
		}
	}
	sort.Strings(out)
	return out
}

func TestRunContinuesAfterDeleteFailure(t *testing.T) {
	page := make([]model.Post, 0, 10)
	for id := int64(10); id > 0; id-- {
		page = append(page, model.Post{ID: id, CreatedAt: cutoff.Add(-time.Duration(id) * day)})
	}
	history := &scriptedHistory{pages: [][]model.Post{page, {{ID: 0, CreatedAt: cutoff.Add(-100 * day)}}}}
	deleter := &recordingDeleter{fail: map[int64]bool{7: true}}
	var audit bytes.Buffer
	app := newTestApp(history, deleter, pkg.NewAuditLoggerTo(&audit), false)

	summary := app.Run(context.Background())

	want := []int64{0, 1, 2, 3, 4, 5, 6, 8, 9, 10}
	if diff := cmp.Diff(want, sorted(deleter.deleted)); diff != "" {
		t.Errorf("deleted mismatch (-want +got):\n%s", diff)
	}
	if summary.Failed != 1 || summary.Deleted != 10 || summary.Pages != 2 {
		t.Errorf("unexpected summary %+v", summary)
	}
}

func TestRunStopsOnFetchError(t *testing.T) {
	boom := errors.New("FLOOD_WAIT_30")
	history := &scriptedHistory{
		pages: [][]model.Post{
			{{ID: 3, CreatedAt: cutoff.Add(-day)}},
			{{ID: 2, CreatedAt: cutoff.Add(-day)}},
		},
		errAt: 2,
		err:   boom,
	}
	deleter := &recordingDeleter{}
	var audit bytes.Buffer
	reporter := &stubReporter{}
	app := newTestApp(history, deleter, pkg.NewAuditLoggerTo(&audit), false)
	app.Reporter = reporter

	summary := app.Run(context.Background())

	if !errors.Is(summary.FetchErr, boom) {
		t.Errorf("FetchErr = %v, want %v", summary.FetchErr, boom)
	}
	if diff := cmp.Diff([]int64{3}, deleter.deleted); diff != "" {
		t.Errorf("deleted mismatch (-want +got):\n%s", diff)
	}
	if history.fetches != 2 {
		t.Errorf("fetches = %d, want 2", history.fetches)
	}
	if reporter.calls != 1 || reporter.last.Deleted != 1 {
		t.Errorf("reporter calls = %d, last = %+v", reporter.calls, reporter.last)
	}
}

// pageTracker checks that no page is fetched while posts of the previous
// page are still being processed.
type pageTracker struct {
	mu       sync.Mutex
	inFlight int
	overlap  bool
	inner    *scriptedHistory
}

func (p *pageTracker) FetchNewest(ctx context.Context, account string) (model.Page, error) {
	p.check()
	return p.inner.FetchNewest(ctx, account)
}

func (p *pageTracker) FetchOlder(ctx context.Context, account string, cursor model.Cursor) (model.Page, error) {
	p.check()
	return p.inner.FetchOlder(ctx, account, cursor)
}

func (p *pageTracker) check() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight != 0 {
		p.overlap = true
	}
}

type slowDeleter struct {
	tracker *pageTracker
}

func (s *slowDeleter) Delete(ctx context.Context, post model.Post) (model.DeleteReceipt, error) {
	s.tracker.mu.Lock()
	s.tracker.inFlight++
	s.tracker.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	s.tracker.mu.Lock()
	s.tracker.inFlight--
	s.tracker.mu.Unlock()
	return model.DeleteReceipt{PostID: post.ID}, nil
}

func TestRunFinishesPageBeforeNextFetch(t *testing.T) {
	var pages [][]model.Post
	id := int64(100)
	for p := 0; p < 3; p++ {
		var page []model.Post
		for i := 0; i < 5; i++ {
			page = append(page, model.Post{ID: id, CreatedAt: cutoff.Add(-day)})
			id--
		}
		pages = append(pages, page)
	}
	tracker := &pageTracker{inner: &scriptedHistory{pages: pages}}

	cfg := config.RunConfig{RunID: "run-2", Account: "channel", Cutoff: cutoff}
	log := pkg.NewNop()
	var audit bytes.Buffer
	sink := pkg.NewAuditLoggerTo(&audit)
	app := NewApp(pager.New(tracker, cfg.Account, 0, log), executor.New(&slowDeleter{tracker: tracker}, sink, log, cfg), sink, log, cfg)

	summary := app.Run(context.Background())

	if tracker.overlap {
		t.Error("a page was fetched while deletions were still running")
	}
	if summary.Deleted != 15 {
		t.Errorf("deleted = %d, want 15", summary.Deleted)
	}
}
