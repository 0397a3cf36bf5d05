package prometheus

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/metrics/export/internaldefs"
)

const contentType = "text/plain; version=0.0.4; charset=utf-8"

var helpEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`)

// MetricsSource is what the exporter reads; *goAdmin.Engine satisfies it.
type MetricsSource interface {
	MetricsSnapshot() goAdmin.MetricsSnapshot
	AuditDropped() uint64
}

// Exporter renders engine metrics in the Prometheus text exposition format.
type Exporter struct {
	source MetricsSource
}

// New returns an exporter reading from engine.
func New(engine *goAdmin.Engine) *Exporter {
	return &Exporter{source: engine}
}

// NewFromSource returns an exporter reading from any MetricsSource.
func NewFromSource(source MetricsSource) *Exporter {
	return &Exporter{source: source}
}

// Handler serves the exposition on every request.
func (p *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = p.WriteTo(w)
	})
}

// Render returns the current metrics. It is empty while metrics are
// disabled and nothing was dropped.
func (p *Exporter) Render() string {
	var buf bytes.Buffer
	_, _ = p.WriteTo(&buf)
	return buf.String()
}

// WriteTo writes the exposition to w in a stable order.
func (p *Exporter) WriteTo(w io.Writer) (int64, error) {
	if p == nil || p.source == nil {
		return 0, nil
	}
	snap := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snap.Counters) == 0 && len(snap.Histograms) == 0 && dropped == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	buf.Grow(4096)
	for _, def := range internaldefs.CounterDefs {
		counter(&buf, def.Name, def.Help, snap.Counters[def.ID])
	}
	for _, def := range internaldefs.HistogramDefs {
		if raw, ok := snap.Histograms[def.ID]; ok {
			histogram(&buf, def.Name, def.Help, internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw)))
		}
	}
	counter(&buf, internaldefs.AuditDroppedName, "Audit events dropped under dispatcher backpressure.", dropped)

	return buf.WriteTo(w)
}

func header(buf *bytes.Buffer, name, help, kind string) {
	fmt.Fprintf(buf, "# HELP %s %s\n# TYPE %s %s\n", name, helpEscaper.Replace(help), name, kind)
}

func counter(buf *bytes.Buffer, name, help string, v uint64) {
	header(buf, name, help, "counter")
	fmt.Fprintf(buf, "%s %d\n", name, v)
}

func histogram(buf *bytes.Buffer, name, help string, cum [internaldefs.BucketCount]uint64) {
	header(buf, name, help, "histogram")
	for i, le := range internaldefs.HistogramBounds {
		fmt.Fprintf(buf, "%s_bucket{le=%q} %d\n", name, le, cum[i])
	}
	fmt.Fprintf(buf, "%s_count %d\n", name, cum[internaldefs.BucketCount-1])
	// Snapshots carry bucket counts only, so the sum is not known.
	fmt.Fprintf(buf, "%s_sum 0\n", name)
}
