package observability

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// family is the shared header of one exposition block.
type family struct {
	name   string
	help   string
	kind   string
	labels []string
}

func (f family) header(w io.Writer) error {
	_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", f.name, f.help, f.name, f.kind)
	return err
}

func (f family) key(values []string) string {
	if len(f.labels) == 0 {
		return ""
	}
	pairs := make([]string, len(f.labels))
	for i, name := range f.labels {
		v := "unknown"
		if i < len(values) && values[i] != "" {
			v = values[i]
		}
		pairs[i] = name + `="` + escapeLabel(v) + `"`
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

// scalars backs counters and gauges: one float per label set, written in key order.
type scalars struct {
	family
	mu     sync.RWMutex
	series map[string]float64
}

func newScalars(kind, name, help string, labels []string) *scalars {
	return &scalars{
		family: family{name: name, help: help, kind: kind, labels: labels},
		series: map[string]float64{},
	}
}

func (s *scalars) apply(values []string, fn func(float64) float64) {
	if s == nil {
		return
	}
	k := s.key(values)
	s.mu.Lock()
	s.series[k] = fn(s.series[k])
	s.mu.Unlock()
}

func (s *scalars) get(values []string) float64 {
	if s == nil {
		return 0
	}
	k := s.key(values)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.series[k]
}

func (s *scalars) WritePrometheus(w io.Writer) error {
	if s == nil {
		return nil
	}
	if err := s.header(w); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.labels) == 0 {
		_, err := fmt.Fprintf(w, "%s %s\n", s.name, formatValue(s.series[""]))
		return err
	}
	for _, k := range sortedKeys(s.series) {
		if _, err := fmt.Fprintf(w, "%s%s %s\n", s.name, k, formatValue(s.series[k])); err != nil {
			return err
		}
	}
	return nil
}

type CounterVec struct{ *scalars }

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{newScalars("counter", name, help, labels)}
}

func (c *CounterVec) Inc(values ...string) { c.Add(1, values...) }

func (c *CounterVec) Add(v float64, values ...string) {
	if c == nil || v < 0 {
		return
	}
	c.apply(values, func(cur float64) float64 { return cur + v })
}

func (c *CounterVec) Value(values ...string) float64 {
	if c == nil {
		return 0
	}
	return c.get(values)
}

type Counter struct{ vec *CounterVec }

func NewCounter(name, help string) *Counter {
	return &Counter{vec: NewCounterVec(name, help, nil)}
}

func (c *Counter) Inc() {
	if c != nil {
		c.vec.Inc()
	}
}

func (c *Counter) Add(v float64) {
	if c != nil {
		c.vec.Add(v)
	}
}

func (c *Counter) Value() float64 {
	if c == nil {
		return 0
	}
	return c.vec.Value()
}

func (c *Counter) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	return c.vec.WritePrometheus(w)
}

type GaugeVec struct{ *scalars }

func NewGaugeVec(name, help string, labels []string) *GaugeVec {
	return &GaugeVec{newScalars("gauge", name, help, labels)}
}

func (g *GaugeVec) Set(v float64, values ...string) {
	if g == nil {
		return
	}
	g.apply(values, func(float64) float64 { return v })
}

type Gauge struct{ vec *GaugeVec }

func NewGauge(name, help string) *Gauge {
	return &Gauge{vec: NewGaugeVec(name, help, nil)}
}

func (g *Gauge) Set(v float64) {
	if g != nil {
		g.vec.Set(v)
	}
}

func (g *Gauge) Inc() { g.add(1) }
func (g *Gauge) Dec() { g.add(-1) }

func (g *Gauge) add(d float64) {
	if g == nil {
		return
	}
	g.vec.apply(nil, func(cur float64) float64 { return cur + d })
}

func (g *Gauge) Value() float64 {
	if g == nil {
		return 0
	}
	return g.vec.get(nil)
}

func (g *Gauge) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	return g.vec.WritePrometheus(w)
}

type HistogramVec struct {
	family
	bounds []float64
	mu     sync.RWMutex
	series map[string]*histogram
}

// histogram keeps per-bucket counts; the cumulative form is produced on write.
type histogram struct {
	counts []uint64 // len(bounds)+1, last slot is the +Inf overflow
	sum    float64
	total  uint64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	}
	bounds := append([]float64(nil), buckets...)
	sort.Float64s(bounds)
	return &HistogramVec{
		family: family{name: name, help: help, kind: "histogram", labels: labels},
		bounds: bounds,
		series: map[string]*histogram{},
	}
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	k := h.key(values)
	idx := sort.SearchFloat64s(h.bounds, v)
	h.mu.Lock()
	defer h.mu.Unlock()
	hist := h.series[k]
	if hist == nil {
		hist = &histogram{counts: make([]uint64, len(h.bounds)+1)}
		h.series[k] = hist
	}
	hist.counts[idx]++
	hist.sum += v
	hist.total++
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if err := h.header(w); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, k := range sortedKeys(h.series) {
		hist := h.series[k]
		var cum uint64
		for i, b := range h.bounds {
			cum += hist.counts[i]
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, strconv.FormatFloat(b, 'g', -1, 64)), cum); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n%s_sum%s %s\n%s_count%s %d\n",
			h.name, withLe(k, "+Inf"), hist.total,
			h.name, k, formatValue(hist.sum),
			h.name, k, hist.total,
		); err != nil {
			return err
		}
	}
	return nil
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func escapeLabel(v string) string { return labelEscaper.Replace(v) }

func withLe(labels, le string) string {
	if labels == "" {
		return `{le="` + le + `"}`
	}
	return strings.TrimSuffix(labels, "}") + `,le="` + le + `"}`
}

func formatValue(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func isServerErrorStatus(status string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(status))
	return err == nil && n >= 500 && n <= 599
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
