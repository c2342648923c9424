// Package executor deletes, or in dry-run mode only audits, eligible posts.
package executor

import (
	"context"

	"github.com/ScrpTrx-Go/tgprune/internal/config"
	"github.com/ScrpTrx-Go/tgprune/internal/domain/contracts"
	"github.com/ScrpTrx-Go/tgprune/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/tgprune/pkg/logger"
)

type Executor struct {
	deleter contracts.PostDeleter
	audit   contracts.AuditSink
	log     pkg.Logger
	cfg     config.RunConfig
}

func New(deleter contracts.PostDeleter, audit contracts.AuditSink, log pkg.Logger, cfg config.RunConfig) *Executor {
	return &Executor{
		deleter: deleter,
		audit:   audit,
		log:     log,
		cfg:     cfg,
	}
}

// Process audits post and then deletes it unless the run is a dry run.
// Failures are logged and reported in the outcome, never returned.
func (e *Executor) Process(ctx context.Context, post model.Post) model.Outcome {
	e.audit.Record(model.AuditRecord{
		PostID:    post.ID,
		CreatedAt: post.CreatedAt,
		Protected: post.Protected,
		Decision:  model.DecisionDelete,
		DryRun:    e.cfg.DryRun,
		Payload:   post.Payload,
	})

	outcome := model.Outcome{
		PostID:    post.ID,
		CreatedAt: post.CreatedAt,
		Text:      post.Text,
		Decision:  model.DecisionDelete,
	}

	if e.cfg.DryRun {
		outcome.Status = model.StatusSimulated
		return outcome
	}

	receipt, err := e.deleter.Delete(ctx, post)
	if err != nil {
		e.log.Error("Error deleting post", "id", post.ID, "err", err)
		outcome.Status = model.StatusFailed
		outcome.Error = err.Error()
		return outcome
	}

	e.log.Info(">>> Delete", "id", receipt.PostID, "rate_limit", receipt.RateLimit.String())
	outcome.Status = model.StatusDeleted
	return outcome
}
