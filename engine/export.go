package engine

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/perflens/perflens/model"
)

// Exporter holds the latest streams and analysis for the Prometheus text
// endpoint. The CLI updates it on its analysis cadence; the handler only
// ever reads the last published state.
type Exporter struct {
	mu      sync.RWMutex
	streams map[model.MetricType][]model.MetricSample
	result  *model.AnalysisResult
	ts      time.Time
}

// NewExporter creates an empty exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// Update publishes the latest streams and analysis.
func (e *Exporter) Update(streams map[model.MetricType][]model.MetricSample, result *model.AnalysisResult) {
	e.mu.Lock()
	e.streams = streams
	e.result = result
	e.ts = time.Now()
	e.mu.Unlock()
}

// Handler serves the latest state as Prometheus text format, 503 before
// the first Update.
func (e *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.mu.RLock()
		streams, result := e.streams, e.result
		e.mu.RUnlock()
		if streams == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("# no data yet\n"))
			return
		}
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writePrometheus(w, streams, result)
	})
}

// writePrometheus renders the latest value of every stream plus the
// current diagnosis severities as gauges.
func writePrometheus(w io.Writer, streams map[model.MetricType][]model.MetricSample, result *model.AnalysisResult) {
	types := make([]model.MetricType, 0, len(streams))
	for t := range streams {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	fmt.Fprintln(w, "# HELP perflens_metric Latest sampled value per metric type.")
	fmt.Fprintln(w, "# TYPE perflens_metric gauge")
	for _, t := range types {
		samples := streams[t]
		if len(samples) == 0 {
			continue
		}
		last := samples[len(samples)-1]
		fmt.Fprintf(w, "perflens_metric{type=%q,source=%q,unit=%q} %g\n",
			t, last.Source, last.Unit, last.Value)
	}

	fmt.Fprintln(w, "# HELP perflens_bottleneck_severity Current diagnosis severity per bottleneck type (0-100).")
	fmt.Fprintln(w, "# TYPE perflens_bottleneck_severity gauge")
	for _, bt := range model.AllBottleneckTypes() {
		sev := 0
		if b := result.Find(bt); b != nil {
			sev = b.Severity
		}
		fmt.Fprintf(w, "perflens_bottleneck_severity{type=%q} %d\n", bt, sev)
	}
}
