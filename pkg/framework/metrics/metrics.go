// Package metrics exports plugin instance counters to Prometheus.
//
// The collector reads each instance's lock-free counters at scrape time, so
// nothing on the audio thread touches Prometheus types.
package metrics

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	fwplugin "github.com/justyntemme/plugkit/pkg/framework/plugin"
	"github.com/justyntemme/plugkit/pkg/plugin"
)

const namespace = "plugkit"

// Source is a plugin instance whose counters are exported.
type Source interface {
	Info() fwplugin.Info
	Stats() plugin.Stats
}

// Collector implements prometheus.Collector over a set of plugin instances.
type Collector struct {
	mu      sync.RWMutex
	sources map[string]Source

	phase         *prometheus.Desc
	faulted       *prometheus.Desc
	tail          *prometheus.Desc
	calls         *prometheus.Desc
	samples       *prometheus.Desc
	overruns      *prometheus.Desc
	processTime   *prometheus.Desc
	lastTime      *prometheus.Desc
	maxTime       *prometheus.Desc
	load          *prometheus.Desc
	peakLoad      *prometheus.Desc
	queueEvents   *prometheus.Desc
	queuePending  *prometheus.Desc
	panics        *prometheus.Desc
	violations    *prometheus.Desc
	droppedNotes  *prometheus.Desc
	droppedOutput *prometheus.Desc
}

// NewCollector creates a collector with no instances.
func NewCollector() *Collector {
	labels := []string{"plugin", "instance"}
	desc := func(name, help string, extra ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, append(labels, extra...), nil)
	}
	return &Collector{
		sources: make(map[string]Source),

		phase:         desc("phase", "Lifecycle phase (0 uninitialized, 1 initialized, 2 activated, 3 deactivated, 4 destroyed)"),
		faulted:       desc("faulted", "Whether the instance is silenced after a processing error"),
		tail:          desc("tail_samples", "Tail length reported by the last process call"),
		calls:         desc("process_calls_total", "Total number of process calls"),
		samples:       desc("process_samples_total", "Total number of samples processed"),
		overruns:      desc("process_overruns_total", "Process calls that took longer than their block lasts"),
		processTime:   desc("process_seconds_total", "Total time spent in process calls"),
		lastTime:      desc("process_last_seconds", "Duration of the most recent process call"),
		maxTime:       desc("process_max_seconds", "Longest process call"),
		load:          desc("process_load_ratio", "Duration of the last process call relative to its block length"),
		peakLoad:      desc("process_peak_load_ratio", "Highest process load seen"),
		queueEvents:   desc("queue_events_total", "Events pushed to the audio thread by outcome", "result"),
		queuePending:  desc("queue_pending_events", "Events waiting for the audio thread"),
		panics:        desc("panics_total", "Panics recovered from the plugin's process call"),
		violations:    desc("contract_violations_total", "Host calls made in the wrong phase or with a mismatched setup"),
		droppedNotes:  desc("dropped_notes_total", "Note events dropped because a block held too many"),
		droppedOutput: desc("dropped_output_events_total", "Events the plugin sent while the output queue was full"),
	}
}

// Add exports src under instance, replacing any source already there.
func (c *Collector) Add(instance string, src Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[instance] = src
}

// Remove stops exporting instance.
func (c *Collector) Remove(instance string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sources, instance)
}

// Describe implements the Collector interface
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.phase, c.faulted, c.tail, c.calls, c.samples, c.overruns, c.processTime,
		c.lastTime, c.maxTime, c.load, c.peakLoad, c.queueEvents, c.queuePending,
		c.panics, c.violations, c.droppedNotes, c.droppedOutput,
	} {
		ch <- d
	}
}

// Collect implements the Collector interface
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	instances := make([]string, 0, len(c.sources))
	for name := range c.sources {
		instances = append(instances, name)
	}
	sort.Strings(instances)
	sources := make([]Source, len(instances))
	for i, name := range instances {
		sources[i] = c.sources[name]
	}
	c.mu.RUnlock()

	for i, src := range sources {
		c.collect(ch, src.Info().ID, instances[i], src.Stats())
	}
}

func (c *Collector) collect(ch chan<- prometheus.Metric, id, instance string, s plugin.Stats) {
	gauge := func(d *prometheus.Desc, v float64, extra ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, append([]string{id, instance}, extra...)...)
	}
	counter := func(d *prometheus.Desc, v float64, extra ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, append([]string{id, instance}, extra...)...)
	}

	faulted := 0.0
	if s.Faulted {
		faulted = 1
	}
	gauge(c.phase, float64(s.Phase))
	gauge(c.faulted, faulted)
	gauge(c.tail, float64(s.LastStatus.TailSamples()))

	p := s.Process
	counter(c.calls, float64(p.Calls))
	counter(c.samples, float64(p.Samples))
	counter(c.overruns, float64(p.Overruns))
	counter(c.processTime, p.Total.Seconds())
	gauge(c.lastTime, p.Last.Seconds())
	gauge(c.maxTime, p.Max.Seconds())
	gauge(c.load, p.Load)
	gauge(c.peakLoad, p.PeakLoad)

	q := s.Queue
	counter(c.queueEvents, float64(q.Accepted), "accepted")
	counter(c.queueEvents, float64(q.Clamped), "clamped")
	counter(c.queueEvents, float64(q.Coalesced), "coalesced")
	counter(c.queueEvents, float64(q.Dropped), "dropped")
	gauge(c.queuePending, float64(q.Pending))

	counter(c.panics, float64(s.Panics))
	counter(c.violations, float64(s.Violations))
	counter(c.droppedNotes, float64(s.DroppedNotes))
	counter(c.droppedOutput, float64(s.DroppedOutput))
}

// Register creates a collector, registers it on reg and returns it.
func Register(reg prometheus.Registerer) (*Collector, error) {
	c := NewCollector()
	if err := reg.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}
