package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gogadget/sesskit"
	"github.com/gogadget/sesskit/metrics/export/internaldefs"
)

// MetricsSource is the read surface the exporter needs; *sesskit.Engine
// satisfies it.
type MetricsSource interface {
	MetricsSnapshot() sesskit.MetricsSnapshot
	AuditDropped() uint64
}

// Exporter adapts a [MetricsSource] into a [prometheus.Collector] backed
// by a private registry.
type Exporter struct {
	source   MetricsSource
	registry *prometheus.Registry

	counterDescs map[sesskit.MetricID]*prometheus.Desc
	droppedDesc  *prometheus.Desc
}

// NewExporter creates an exporter reading from the given [sesskit.Engine].
func NewExporter(engine *sesskit.Engine) *Exporter {
	return NewExporterFromSource(engine)
}

// NewExporterFromSource creates an exporter from a custom [MetricsSource].
func NewExporterFromSource(source MetricsSource) *Exporter {
	e := &Exporter{
		source:       source,
		registry:     prometheus.NewRegistry(),
		counterDescs: make(map[sesskit.MetricID]*prometheus.Desc, len(internaldefs.CounterDefs)),
		droppedDesc:  prometheus.NewDesc(internaldefs.AuditDroppedDef.Name, internaldefs.AuditDroppedDef.Help, nil, nil),
	}
	for _, def := range internaldefs.CounterDefs {
		e.counterDescs[def.ID] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}
	e.registry.MustRegister(e)
	return e
}

// Describe implements [prometheus.Collector].
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	for _, def := range internaldefs.CounterDefs {
		ch <- e.counterDescs[def.ID]
	}
	ch <- e.droppedDesc
}

// Collect implements [prometheus.Collector].
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	if e == nil || e.source == nil {
		return
	}

	snapshot := e.source.MetricsSnapshot()
	for _, def := range internaldefs.CounterDefs {
		ch <- prometheus.MustNewConstMetric(
			e.counterDescs[def.ID],
			prometheus.CounterValue,
			float64(snapshot.Counters[def.ID]),
		)
	}
	ch <- prometheus.MustNewConstMetric(
		e.droppedDesc,
		prometheus.CounterValue,
		float64(e.source.AuditDropped()),
	)
}

// Handler returns an http.Handler serving the exposition endpoint.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
