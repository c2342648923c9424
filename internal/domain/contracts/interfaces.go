package contracts

import (
	"context"

	"github.com/ScrpTrx-Go/tgprune/internal/domain/model"
)

type HistoryAPI interface {
	FetchNewest(ctx context.Context, account string) (model.Page, error)
	FetchOlder(ctx context.Context, account string, cursor model.Cursor) (model.Page, error)
}

type PostDeleter interface {
	Delete(ctx context.Context, post model.Post) (model.DeleteReceipt, error)
}

type Protector interface {
	Protects(post model.Post) bool
}

type AuditSink interface {
	Record(rec model.AuditRecord)
}

type OutcomeStore interface {
	SaveRun(ctx context.Context, summary model.RunSummary) error
	SaveOutcomes(ctx context.Context, runID string, outcomes []model.Outcome) error
	Close()
}

type Reporter interface {
	GenerateRunReport(ctx context.Context, summary model.RunSummary, outcomes []model.Outcome) error
}

type Recorder interface {
	PageFetched()
	FetchFailed()
	PostEvaluated(decision model.Decision)
	PostProcessed(status model.Status)
}
