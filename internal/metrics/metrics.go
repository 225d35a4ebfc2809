// Package metrics exposes the Prometheus instrumentation both miners
// report through: hash/check counters and timing histograms for the hot
// loops named in the governing spec's concurrency model (the PoW hash
// counter and per-worker hashrate gauge, the Hive per-cycle dwarf-check
// counter and check duration). The package-selection timing histogram is
// registered, but nothing in this module observes it.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles the collectors this core registers. Callers construct
// one per process and register it with whatever prometheus.Registerer the
// node uses.
type Registry struct {
	PowHashesTotal               prometheus.Counter
	PowHashrate                  prometheus.Gauge
	HiveDwarvesCheckedTotal      prometheus.Counter
	HiveCheckDurationSeconds     prometheus.Histogram
	AssemblerSelectionDurationSeconds prometheus.Histogram
}

// New constructs a Registry with metric names under the ring_ namespace.
func New() *Registry {
	return &Registry{
		PowHashesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ring_pow_hashes_total",
			Help: "Total PoW hashes computed across all miner workers.",
		}),
		PowHashrate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ring_pow_hashrate",
			Help: "PoW hashrate most recently measured by a single miner worker, in hashes/sec; not summed across workers.",
		}),
		HiveDwarvesCheckedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ring_hive_dwarves_checked_total",
			Help: "Total dwarf hashes checked across all Hive worker goroutines.",
		}),
		HiveCheckDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "ring_hive_checks_duration_seconds",
			Help: "Wall-clock duration of a single BusyDwarves cycle.",
		}),
		AssemblerSelectionDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "ring_assembler_package_selection_duration_seconds",
			Help: "Wall-clock duration of the ancestor-feerate package-selection loop.",
		}),
	}
}

// MustRegister registers every collector in the Registry with reg.
func (r *Registry) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		r.PowHashesTotal,
		r.PowHashrate,
		r.HiveDwarvesCheckedTotal,
		r.HiveCheckDurationSeconds,
		r.AssemblerSelectionDurationSeconds,
	)
}
