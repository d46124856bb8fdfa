package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sophialabs/testlabadvisor/internal/infrastructure/ports"
)

var _ ports.Metrics = (*Prometheus)(nil)

// Prometheus records counters on a private registry so that several
// containers (e.g. in tests) never collide on the global one.
type Prometheus struct {
	registry       *prometheus.Registry
	searches       *prometheus.CounterVec
	lookups        *prometheus.CounterVec
	logAppends     *prometheus.CounterVec
	datasetRecords prometheus.Gauge
	datasetReloads *prometheus.CounterVec
}

// NewPrometheus creates and registers the collectors.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	p := &Prometheus{
		registry: reg,
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "testlab_searches_total",
			Help: "Component searches served, by result status.",
		}, []string{"status"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "testlab_lookups_total",
			Help: "Exact refcode/FRU lookups served, by result status.",
		}, []string{"status"}),
		logAppends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "testlab_log_appends_total",
			Help: "Test log submissions, by outcome.",
		}, []string{"outcome"}),
		datasetRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "testlab_dataset_records",
			Help: "Reference records in the published dataset.",
		}),
		datasetReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "testlab_dataset_reloads_total",
			Help: "Dataset loads, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		p.searches, p.lookups, p.logAppends, p.datasetRecords, p.datasetReloads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Prometheus) SearchServed(status string) { p.searches.WithLabelValues(status).Inc() }
func (p *Prometheus) LookupServed(status string) { p.lookups.WithLabelValues(status).Inc() }
func (p *Prometheus) LogAppended(outcome string) { p.logAppends.WithLabelValues(outcome).Inc() }

func (p *Prometheus) DatasetLoaded(records int, outcome string) {
	p.datasetReloads.WithLabelValues(outcome).Inc()
	p.datasetRecords.Set(float64(records))
}

// Registry exposes the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}
