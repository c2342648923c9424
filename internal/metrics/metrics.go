// Package metrics exposes Prometheus counters for a pruning run.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ScrpTrx-Go/tgprune/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/tgprune/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements contracts.Recorder.
type Metrics struct {
	pagesFetched   prometheus.Counter
	fetchErrors    prometheus.Counter
	postsEvaluated *prometheus.CounterVec
	postsProcessed *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		pagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "tgprune_pages_fetched_total",
			Help: "Total number of non-empty history pages fetched",
		}),
		fetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "tgprune_fetch_errors_total",
			Help: "Total number of history fetches that failed",
		}),
		postsEvaluated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tgprune_posts_evaluated_total",
			Help: "Total number of posts evaluated, by decision",
		}, []string{"decision"}),
		postsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tgprune_deletions_total",
			Help: "Total number of evaluated posts, by final status",
		}, []string{"status"}),
	}
}

func (m *Metrics) PageFetched() {
	m.pagesFetched.Inc()
}

func (m *Metrics) FetchFailed() {
	m.fetchErrors.Inc()
}

func (m *Metrics) PostEvaluated(decision model.Decision) {
	m.postsEvaluated.WithLabelValues(string(decision)).Inc()
}

func (m *Metrics) PostProcessed(status model.Status) {
	m.postsProcessed.WithLabelValues(string(status)).Inc()
}

// Serve exposes gatherer on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, log pkg.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		log.Info("Metrics listener started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics listener failed", "addr", addr, "err", err)
		}
	}()
}
