// Package metrics exposes Prometheus collectors for the harvester service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	harvestAdvisorsTotal     *prometheus.CounterVec
	harvestThesesTotal       *prometheus.CounterVec
	harvestListingPagesTotal *prometheus.CounterVec
	harvestFetchFailures     *prometheus.CounterVec
	etlRejectionsTotal       *prometheus.CounterVec
	etlFactsLoaded           prometheus.Counter

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		harvestAdvisorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_advisors_total",
				Help: "Advisor rows newly persisted, labeled by institution.",
			},
			[]string{"institution"},
		)

		harvestThesesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_theses_total",
				Help: "Thesis rows newly persisted, labeled by institution.",
			},
			[]string{"institution"},
		)

		harvestListingPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_listing_pages_total",
				Help: "Listing pages fetched, labeled by institution.",
			},
			[]string{"institution"},
		)

		harvestFetchFailures = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_fetch_failures_total",
				Help: "Fetch failures, labeled by institution and phase.",
			},
			[]string{"institution", "phase"},
		)

		etlRejectionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etl_rejections_total",
				Help: "Rows rejected during the dimensional transform, labeled by stage.",
			},
			[]string{"stage"},
		)

		etlFactsLoaded = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "etl_facts_loaded_total",
				Help: "Fact rows loaded into the warehouse across all runs.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAdvisorsSaved records newly persisted advisor rows.
func ObserveAdvisorsSaved(institution string, count int64) {
	if count > 0 {
		harvestAdvisorsTotal.WithLabelValues(institution).Add(float64(count))
	}
}

// ObserveThesesSaved records newly persisted thesis rows.
func ObserveThesesSaved(institution string, count int64) {
	if count > 0 {
		harvestThesesTotal.WithLabelValues(institution).Add(float64(count))
	}
}

// ObserveListingPage increments the listing page counter.
func ObserveListingPage(institution string) {
	harvestListingPagesTotal.WithLabelValues(institution).Inc()
}

// ObserveFetchFailure increments the failure counter for a phase.
func ObserveFetchFailure(institution, phase string) {
	harvestFetchFailures.WithLabelValues(institution, phase).Inc()
}

// ObserveRejections adds to the per-stage ETL rejection counter.
func ObserveRejections(stage string, count int) {
	if count > 0 {
		etlRejectionsTotal.WithLabelValues(stage).Add(float64(count))
	}
}

// ObserveFactsLoaded adds to the warehouse fact counter.
func ObserveFactsLoaded(count int) {
	if count > 0 {
		etlFactsLoaded.Add(float64(count))
	}
}
