// Package pager turns the cursor-based history API into a single-use,
// pull-driven sequence of post batches, newest first.
package pager

import (
	"context"
	"time"

	"github.com/ScrpTrx-Go/tgprune/internal/domain/contracts"
	"github.com/ScrpTrx-Go/tgprune/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/tgprune/pkg/logger"
)

type State int

const (
	StateIdle State = iota
	StateFetching
	StateExhausted
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateExhausted:
		return "exhausted"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Pager is not safe for concurrent use. The cursor is private to it and only
// ever replaced by the value returned from the previous fetch.
type Pager struct {
	api       contracts.HistoryAPI
	account   string
	delay     time.Duration
	protector contracts.Protector
	recorder  contracts.Recorder
	log       pkg.Logger

	cursor    model.Cursor
	hasCursor bool
	state     State
	err       error
	pages     int
}

type Option func(*Pager)

func WithProtector(p contracts.Protector) Option {
	return func(pg *Pager) { pg.protector = p }
}

func WithRecorder(r contracts.Recorder) Option {
	return func(pg *Pager) { pg.recorder = r }
}

func New(api contracts.HistoryAPI, account string, delay time.Duration, log pkg.Logger, opts ...Option) *Pager {
	p := &Pager{
		api:     api,
		account: account,
		delay:   delay,
		log:     log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Next fetches the next older batch. It returns false once the history is
// exhausted or a fetch failed; every later call returns false without
// contacting the remote API.
func (p *Pager) Next(ctx context.Context) ([]model.Post, bool) {
	if p.state == StateExhausted || p.state == StateErrored {
		return nil, false
	}
	p.state = StateFetching

	var (
		page model.Page
		err  error
	)
	if !p.hasCursor {
		page, err = p.api.FetchNewest(ctx, p.account)
	} else {
		page, err = p.api.FetchOlder(ctx, p.account, p.cursor)
	}
	if err != nil {
		p.log.Error("Fetch page failed, ending traversal", "account", p.account, "page", p.pages+1, "err", err)
		if p.recorder != nil {
			p.recorder.FetchFailed()
		}
		return p.fail(err)
	}

	p.log.Info("Got posts", "count", len(page.Posts), "page", p.pages+1)
	p.log.Debug("Pull", "rate_limit", page.RateLimit.String())
	if len(page.Posts) == 0 {
		p.log.Info("No posts left, ending traversal", "account", p.account, "pages", p.pages)
		p.state = StateExhausted
		return nil, false
	}

	p.cursor = page.Cursor
	p.hasCursor = true
	p.pages++
	if p.recorder != nil {
		p.recorder.PageFetched()
	}

	batch := p.finalize(page.Posts)

	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			p.log.Warn("Context cancelled during page delay", "account", p.account)
			return p.fail(ctx.Err())
		case <-timer.C:
		}
	}

	return batch, true
}

func (p *Pager) finalize(posts []model.Post) []model.Post {
	batch := make([]model.Post, len(posts))
	for i, post := range posts {
		if post.Pinned {
			post.Protected = true
		}
		if !post.Protected && p.protector != nil && p.protector.Protects(post) {
			post.Protected = true
		}
		batch[i] = post
	}
	return batch
}

func (p *Pager) fail(err error) ([]model.Post, bool) {
	p.state = StateErrored
	p.err = err
	return nil, false
}

// Err returns the error that ended the traversal, or nil if the history was
// exhausted normally or the traversal is still running.
func (p *Pager) Err() error {
	return p.err
}

func (p *Pager) State() State {
	return p.state
}

func (p *Pager) Pages() int {
	return p.pages
}
