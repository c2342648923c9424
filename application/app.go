package application

import (
	"context"
	"sync"
	"time"

	"github.com/ScrpTrx-Go/tgprune/internal/config"
	"github.com/ScrpTrx-Go/tgprune/internal/domain/contracts"
	"github.com/ScrpTrx-Go/tgprune/internal/domain/model"
	"github.com/ScrpTrx-Go/tgprune/internal/service/policy"
	pkg "github.com/ScrpTrx-Go/tgprune/pkg/logger"
)

type Pager interface {
	Next(ctx context.Context) ([]model.Post, bool)
	Err() error
	Pages() int
}

type Executor interface {
	Process(ctx context.Context, post model.Post) model.Outcome
}

type App struct {
	Pager    Pager
	Executor Executor
	Audit    contracts.AuditSink
	Logger   pkg.Logger
	Cfg      config.RunConfig

	// Optional collaborators; nil disables them.
	Store    contracts.OutcomeStore
	Reporter contracts.Reporter
	Recorder contracts.Recorder

	now func() time.Time
}

func NewApp(pager Pager, executor Executor, audit contracts.AuditSink, logger pkg.Logger, cfg config.RunConfig) *App {
	return &App{
		Pager:    pager,
		Executor: executor,
		Audit:    audit,
		Logger:   logger,
		Cfg:      cfg,
		now:      time.Now,
	}
}

// Run walks the whole history once. Pages are processed strictly in order;
// the posts of one page are processed concurrently and all of them finish
// before the next page is requested.
func (a *App) Run(ctx context.Context) model.RunSummary {
	summary := model.RunSummary{
		RunID:     a.Cfg.RunID,
		Account:   a.Cfg.Account,
		DryRun:    a.Cfg.DryRun,
		Cutoff:    a.Cfg.Cutoff,
		StartedAt: a.clock(),
	}

	if a.Cfg.DryRun {
		a.Logger.Info("Dry run! Printing posts that would be deleted.")
	}
	a.Logger.Info("Deleting posts older than", "cutoff", a.Cfg.Cutoff, "account", a.Cfg.Account)

	var all []model.Outcome
	for {
		batch, ok := a.Pager.Next(ctx)
		if !ok {
			break
		}
		outcomes := a.processPage(ctx, batch)
		for _, o := range outcomes {
			summary.Count(o)
		}
		all = append(all, outcomes...)
	}

	summary.Pages = a.Pager.Pages()
	summary.FetchErr = a.Pager.Err()
	summary.FinishedAt = a.clock()

	a.persist(ctx, summary, all)

	if summary.FetchErr != nil {
		a.Logger.Warn("Traversal stopped early on fetch error", "err", summary.FetchErr)
	}
	a.Logger.Info("Deletion completed.",
		"pages", summary.Pages,
		"evaluated", summary.Evaluated,
		"kept", summary.Kept,
		"simulated", summary.Simulated,
		"deleted", summary.Deleted,
		"failed", summary.Failed,
	)
	return summary
}

func (a *App) processPage(ctx context.Context, batch []model.Post) []model.Outcome {
	outcomes := make([]model.Outcome, len(batch))

	var wg sync.WaitGroup
	for i, post := range batch {
		wg.Add(1)
		go func(i int, post model.Post) {
			defer wg.Done()
			outcomes[i] = a.handle(ctx, post)
		}(i, post)
	}
	wg.Wait()

	return outcomes
}

func (a *App) handle(ctx context.Context, post model.Post) model.Outcome {
	decision := policy.Decide(post, a.Cfg.Cutoff)
	if a.Recorder != nil {
		a.Recorder.PostEvaluated(decision)
	}

	var outcome model.Outcome
	if decision == model.DecisionDelete {
		outcome = a.Executor.Process(ctx, post)
	} else {
		a.Audit.Record(model.AuditRecord{
			PostID:    post.ID,
			CreatedAt: post.CreatedAt,
			Protected: post.Protected,
			Decision:  decision,
			DryRun:    a.Cfg.DryRun,
			Payload:   post.Payload,
		})
		outcome = model.Outcome{
			PostID:    post.ID,
			CreatedAt: post.CreatedAt,
			Text:      post.Text,
			Decision:  decision,
			Status:    model.StatusKept,
		}
	}

	if a.Recorder != nil {
		a.Recorder.PostProcessed(outcome.Status)
	}
	return outcome
}

func (a *App) persist(ctx context.Context, summary model.RunSummary, outcomes []model.Outcome) {
	// Persist even when the run was interrupted.
	ctx = context.WithoutCancel(ctx)

	if a.Store != nil {
		if err := a.Store.SaveRun(ctx, summary); err != nil {
			a.Logger.Error("Failed to save run", "run_id", summary.RunID, "err", err)
		} else if err := a.Store.SaveOutcomes(ctx, summary.RunID, outcomes); err != nil {
			a.Logger.Error("Failed to save outcomes", "run_id", summary.RunID, "err", err)
		}
	}

	if a.Reporter != nil {
		if err := a.Reporter.GenerateRunReport(ctx, summary, outcomes); err != nil {
			a.Logger.Error("Failed to generate report", "run_id", summary.RunID, "err", err)
		}
	}
}

func (a *App) clock() time.Time {
	if a.now == nil {
		return time.Now()
	}
	return a.now()
}
