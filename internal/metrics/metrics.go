// Package metrics exposes Prometheus counters for the scrape pipeline, the
// scheduler and the alert channels.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeRateLimit = "rate_limit"
	OutcomeSkipped   = "skipped"
)

// Recorder is the metrics surface used by the pipeline, the scheduler and the
// notifier.
type Recorder interface {
	RecordFetch(outcome string, d time.Duration)
	RecordExtraction(strategy string, count int)
	RecordItemsUpserted(count int)
	RecordItemsFlagged(count int)
	RecordRun(status string)
	RecordTask(task string, err error)
	RecordNotification(channel string, err error)
}

// Collector records to Prometheus.
type Collector struct {
	fetches       *prometheus.CounterVec
	fetchLatency  prometheus.Histogram
	extracted     *prometheus.CounterVec
	itemsUpserted prometheus.Counter
	itemsFlagged  prometheus.Counter
	runs          *prometheus.CounterVec
	tasks         *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auctionwatcher_fetch_total",
			Help: "Page fetches by outcome",
		}, []string{"outcome"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "auctionwatcher_fetch_latency_seconds",
			Help:    "Page fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		extracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auctionwatcher_lots_extracted_total",
			Help: "Lots extracted by winning strategy",
		}, []string{"strategy"}),
		itemsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auctionwatcher_items_upserted_total",
			Help: "Items saved to the store",
		}),
		itemsFlagged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auctionwatcher_items_flagged_total",
			Help: "Items classified as valuable",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auctionwatcher_scrape_runs_total",
			Help: "Scrape runs by final session status",
		}, []string{"status"}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auctionwatcher_task_runs_total",
			Help: "Scheduled task executions by task and outcome",
		}, []string{"task", "outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auctionwatcher_notifications_total",
			Help: "Alert channel deliveries by channel and outcome",
		}, []string{"channel", "outcome"}),
	}

	reg.MustRegister(
		c.fetches,
		c.fetchLatency,
		c.extracted,
		c.itemsUpserted,
		c.itemsFlagged,
		c.runs,
		c.tasks,
		c.notifications,
	)
	return c
}

func (c *Collector) RecordFetch(outcome string, d time.Duration) {
	c.fetches.WithLabelValues(outcome).Inc()
	c.fetchLatency.Observe(d.Seconds())
}

func (c *Collector) RecordExtraction(strategy string, count int) {
	c.extracted.WithLabelValues(strategy).Add(float64(count))
}

func (c *Collector) RecordItemsUpserted(count int) {
	c.itemsUpserted.Add(float64(count))
}

func (c *Collector) RecordItemsFlagged(count int) {
	c.itemsFlagged.Add(float64(count))
}

func (c *Collector) RecordRun(status string) {
	c.runs.WithLabelValues(status).Inc()
}

func (c *Collector) RecordTask(task string, err error) {
	c.tasks.WithLabelValues(task, outcome(err)).Inc()
}

func (c *Collector) RecordNotification(channel string, err error) {
	c.notifications.WithLabelValues(channel, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordFetch(string, time.Duration) {}
func (Nop) RecordExtraction(string, int) {}
func (Nop) RecordItemsUpserted(int) {}
func (Nop) RecordItemsFlagged(int) {}
func (Nop) RecordRun(string) {}
func (Nop) RecordTask(string, error) {}
func (Nop) RecordNotification(string, error) {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
