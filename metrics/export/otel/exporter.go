package otel

import (
	"context"
	"errors"
	"fmt"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// MetricsSource is what the exporter reads; *goAdmin.Engine satisfies it.
type MetricsSource interface {
	MetricsSnapshot() goAdmin.MetricsSnapshot
	AuditDropped() uint64
}

// collection is the state one callback invocation reads from.
type collection struct {
	snap    goAdmin.MetricsSnapshot
	dropped uint64
}

type reading struct {
	inst metric.Int64Observable
	read func(*collection) (int64, bool)
}

// Exporter publishes engine counters as OTel observable instruments. All
// of them are read from one snapshot per collection.
type Exporter struct {
	source   MetricsSource
	readings []reading
	reg      metric.Registration
}

func New(meter metric.Meter, engine *goAdmin.Engine) (*Exporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewFromSource(meter, engine)
}

func NewFromSource(meter metric.Meter, source MetricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{source: source}
	if err := e.declare(meter); err != nil {
		return nil, err
	}

	insts := make([]metric.Observable, len(e.readings))
	for i, r := range e.readings {
		insts[i] = r.inst
	}
	reg, err := meter.RegisterCallback(e.observe, insts...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.reg = reg
	return e, nil
}

func (e *Exporter) declare(meter metric.Meter) error {
	for _, def := range internaldefs.CounterDefs {
		id := def.ID
		if err := e.counter(meter, def.Name, def.Help, func(c *collection) (int64, bool) {
			return int64(c.snap.Counters[id]), true
		}); err != nil {
			return err
		}
	}

	for _, def := range internaldefs.HistogramDefs {
		id := def.ID
		for i, suffix := range internaldefs.HistogramBoundSuffix {
			idx := i
			if err := e.gauge(meter, def.Name+"_bucket_le_"+suffix, "Cumulative histogram bucket count.", func(c *collection) (int64, bool) {
				cum, ok := cumulative(c, id)
				return int64(cum[idx]), ok
			}); err != nil {
				return err
			}
		}
		if err := e.gauge(meter, def.Name+"_count", "Histogram total sample count.", func(c *collection) (int64, bool) {
			cum, ok := cumulative(c, id)
			return int64(cum[internaldefs.BucketCount-1]), ok
		}); err != nil {
			return err
		}
	}

	return e.counter(meter, internaldefs.AuditDroppedName, "Audit events dropped under dispatcher backpressure.", func(c *collection) (int64, bool) {
		return int64(c.dropped), true
	})
}

func (e *Exporter) counter(meter metric.Meter, name, help string, read func(*collection) (int64, bool)) error {
	inst, err := meter.Int64ObservableCounter(name, metric.WithDescription(help))
	if err != nil {
		return fmt.Errorf("create observable counter %s: %w", name, err)
	}
	e.readings = append(e.readings, reading{inst: inst, read: read})
	return nil
}

func (e *Exporter) gauge(meter metric.Meter, name, help string, read func(*collection) (int64, bool)) error {
	inst, err := meter.Int64ObservableGauge(name, metric.WithDescription(help))
	if err != nil {
		return fmt.Errorf("create observable gauge %s: %w", name, err)
	}
	e.readings = append(e.readings, reading{inst: inst, read: read})
	return nil
}

func cumulative(c *collection, id goAdmin.MetricID) ([internaldefs.BucketCount]uint64, bool) {
	raw, ok := c.snap.Histograms[id]
	if !ok {
		return [internaldefs.BucketCount]uint64{}, false
	}
	return internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw)), true
}

func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	c := &collection{
		snap:    e.source.MetricsSnapshot(),
		dropped: e.source.AuditDropped(),
	}
	for _, r := range e.readings {
		if v, ok := r.read(c); ok {
			o.ObserveInt64(r.inst, v)
		}
	}
	return nil
}

// Close unregisters the callback. The meter provider stays with the caller.
func (e *Exporter) Close() error {
	if e == nil || e.reg == nil {
		return nil
	}
	return e.reg.Unregister()
}
