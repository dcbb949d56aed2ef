// Package catalogmetrics instruments catalog operations for Prometheus,
// following the noop-by-default pattern of the teacher's backupmetrics
// package: M is safe to call before InitPromMetrics is ever invoked.
package catalogmetrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var M catalogMetrics = &catalogMetricsNoop{}

type catalogMetrics interface {
	SetInstancesEnumerated(float64)
	AddBackupsByStatus(status string, n float64)
	AddChainBroken()
	AddChainInvalid()
	AddWALSegmentsKept(n float64)
	AddWALSegmentsPurgeable(n float64)
	AddLockContention()
	SetLostSegmentIntervals(instance string, n float64)
}

// noop

type catalogMetricsNoop struct{}

var _ catalogMetrics = &catalogMetricsNoop{}

func (catalogMetricsNoop) SetInstancesEnumerated(_ float64)           {}
func (catalogMetricsNoop) AddBackupsByStatus(_ string, _ float64)     {}
func (catalogMetricsNoop) AddChainBroken()                           {}
func (catalogMetricsNoop) AddChainInvalid()                          {}
func (catalogMetricsNoop) AddWALSegmentsKept(_ float64)               {}
func (catalogMetricsNoop) AddWALSegmentsPurgeable(_ float64)          {}
func (catalogMetricsNoop) AddLockContention()                        {}
func (catalogMetricsNoop) SetLostSegmentIntervals(_ string, _ float64) {}

// prom

type catalogMetricsProm struct {
	instancesEnumerated   prometheus.Gauge
	backupsByStatus       *prometheus.CounterVec
	chainBroken           prometheus.Counter
	chainInvalid          prometheus.Counter
	walSegmentsKept       prometheus.Counter
	walSegmentsPurgeable  prometheus.Counter
	lockContention        prometheus.Counter
	lostSegmentIntervals  *prometheus.GaugeVec
}

var _ catalogMetrics = &catalogMetricsProm{}

// InitPromMetrics installs the Prometheus-backed implementation, replacing
// the default noop. Call once from main; repeated calls would panic on
// duplicate registration, matching the teacher's own InitPromMetrics.
func InitPromMetrics(_ context.Context) {
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prometheus.Unregister(collectors.NewGoCollector())

	M = &catalogMetricsProm{
		instancesEnumerated: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pgcatalog_instances_enumerated",
			Help: "Number of instances found under the catalog root on the last scan.",
		}),
		backupsByStatus: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pgcatalog_backups_by_status_total",
			Help: "Backups observed, partitioned by status.",
		}, []string{"status"}),
		chainBroken: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pgcatalog_chain_broken_total",
			Help: "Number of times scan_parent_chain returned broken.",
		}),
		chainInvalid: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pgcatalog_chain_invalid_total",
			Help: "Number of times scan_parent_chain returned intact-with-invalid.",
		}),
		walSegmentsKept: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pgcatalog_wal_segments_kept_total",
			Help: "WAL segments marked keep=true by the retention planner.",
		}),
		walSegmentsPurgeable: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pgcatalog_wal_segments_purgeable_total",
			Help: "WAL segments marked keep=false by the retention planner.",
		}),
		lockContention: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pgcatalog_lock_contention_total",
			Help: "Number of LockBackup calls that returned false due to a live peer.",
		}),
		lostSegmentIntervals: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pgcatalog_lost_segment_intervals",
			Help: "Number of lost_segments intervals found per instance on the last scan.",
		}, []string{"instance"}),
	}
}

func (p *catalogMetricsProm) SetInstancesEnumerated(f float64) { p.instancesEnumerated.Set(f) }

func (p *catalogMetricsProm) AddBackupsByStatus(status string, n float64) {
	p.backupsByStatus.WithLabelValues(status).Add(n)
}

func (p *catalogMetricsProm) AddChainBroken()  { p.chainBroken.Inc() }
func (p *catalogMetricsProm) AddChainInvalid() { p.chainInvalid.Inc() }

func (p *catalogMetricsProm) AddWALSegmentsKept(n float64)      { p.walSegmentsKept.Add(n) }
func (p *catalogMetricsProm) AddWALSegmentsPurgeable(n float64) { p.walSegmentsPurgeable.Add(n) }

func (p *catalogMetricsProm) AddLockContention() { p.lockContention.Inc() }

func (p *catalogMetricsProm) SetLostSegmentIntervals(instance string, n float64) {
	p.lostSegmentIntervals.WithLabelValues(instance).Set(n)
}
