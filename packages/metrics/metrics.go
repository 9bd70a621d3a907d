// Package metrics exports sheet cache and graph events as Prometheus
// counters.
//
// A Collector implements spreadsheet.Observer, so it is attached with
// spreadsheet.WithObserver. Counters are registered on the registerer
// passed to NewCollector; tests use a fresh prometheus.NewRegistry to stay
// isolated from the global one.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/vogtb/go-sheetgraph/packages/cellref"
	"github.com/vogtb/go-sheetgraph/packages/spreadsheet"
)

// Namespace for all metrics
const metricsNamespace = "sheetcalc"

// Subsystem for cell graph metrics
const sheetSubsystem = "sheet"

// Collector holds the counters fed by a sheet
type Collector struct {
	// CacheLookups counts formula value reads.
	// Labels: result (hit, miss)
	CacheLookups *prometheus.CounterVec

	// Invalidations counts cleared formula caches
	Invalidations prometheus.Counter

	// CyclesRejected counts formulas refused for closing a cycle
	CyclesRejected prometheus.Counter

	// CellsMaterialized counts empty cells created because a formula
	// referenced them
	CellsMaterialized prometheus.Counter
}

var _ spreadsheet.Observer = (*Collector)(nil)

// NewCollector creates the counters and registers them on reg
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: sheetSubsystem,
				Name:      "cache_lookups_total",
				Help:      "Formula value reads by cache result",
			},
			[]string{"result"},
		),
		Invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: sheetSubsystem,
			Name:      "cache_invalidations_total",
			Help:      "Formula caches cleared by upstream changes",
		}),
		CyclesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: sheetSubsystem,
			Name:      "cycles_rejected_total",
			Help:      "Formulas rejected because they would create a circular reference",
		}),
		CellsMaterialized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: sheetSubsystem,
			Name:      "cells_materialized_total",
			Help:      "Empty cells created to hold dependency edges",
		}),
	}

	for _, collector := range []prometheus.Collector{
		c.CacheLookups,
		c.Invalidations,
		c.CyclesRejected,
		c.CellsMaterialized,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return c, nil
}

func (c *Collector) CacheHit(cellref.Position) {
	c.CacheLookups.WithLabelValues("hit").Inc()
}

func (c *Collector) CacheMiss(cellref.Position) {
	c.CacheLookups.WithLabelValues("miss").Inc()
}

func (c *Collector) CacheInvalidated(cellref.Position) {
	c.Invalidations.Inc()
}

func (c *Collector) CycleRejected(cellref.Position) {
	c.CyclesRejected.Inc()
}

func (c *Collector) CellMaterialized(cellref.Position) {
	c.CellsMaterialized.Inc()
}

// WriteText gathers every metric family from g and writes them in the
// Prometheus text exposition format
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(w, family); err != nil {
			return fmt.Errorf("write %s: %w", family.GetName(), err)
		}
	}
	return nil
}
