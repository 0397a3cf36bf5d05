package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goAdmin "github.com/MrEthical07/goAdmin"
)

type fakeSource struct {
	snapshot goAdmin.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goAdmin.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                     { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewFromSource(fakeSource{
		snapshot: goAdmin.MetricsSnapshot{
			Counters:   map[goAdmin.MetricID]uint64{},
			Histograms: map[goAdmin.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderDeterministicIncludesCounterAndHistogram(t *testing.T) {
	exp := NewFromSource(fakeSource{
		snapshot: goAdmin.MetricsSnapshot{
			Counters: map[goAdmin.MetricID]uint64{
				goAdmin.MetricLoginSuccess:        7,
				goAdmin.MetricFingerprintMismatch: 3,
			},
			Histograms: map[goAdmin.MetricID][]uint64{
				goAdmin.MetricAuthenticateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"goadmin_login_success_total 7",
		"goadmin_fingerprint_mismatch_total 3",
		"goadmin_token_renewed_total 0",
		"goadmin_authenticate_latency_seconds_bucket{le=\"0.005\"} 1",
		"goadmin_authenticate_latency_seconds_bucket{le=\"+Inf\"} 36",
		"goadmin_authenticate_latency_seconds_count 36",
		"goadmin_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
	if out != exp.Render() {
		t.Fatal("render must be deterministic")
	}
}

func TestRenderSkipsHistogramWhenLatencyDisabled(t *testing.T) {
	exp := NewFromSource(fakeSource{
		snapshot: goAdmin.MetricsSnapshot{
			Counters:   map[goAdmin.MetricID]uint64{goAdmin.MetricLoginSuccess: 1},
			Histograms: map[goAdmin.MetricID][]uint64{},
		},
	})
	if strings.Contains(exp.Render(), "latency") {
		t.Fatal("latency histogram must be omitted when not collected")
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewFromSource(fakeSource{
		snapshot: goAdmin.MetricsSnapshot{
			Counters:   map[goAdmin.MetricID]uint64{goAdmin.MetricLoginSuccess: 1},
			Histograms: map[goAdmin.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

type stubDirectory struct{}

func (stubDirectory) FindPrincipalByUsername(context.Context, string) (goAdmin.Principal, error) {
	return goAdmin.Principal{}, goAdmin.ErrPrincipalNotFound
}

func (stubDirectory) LoadAuthorities(context.Context, string) ([]string, error) {
	return nil, nil
}

func TestRenderFromEngine(t *testing.T) {
	store := newMemoryStore(t)
	cfg := goAdmin.DefaultConfig()
	cfg.Token.Secret = []byte("exporter-secret-exporter-secret-123")

	engine, err := goAdmin.New().
		WithConfig(cfg).
		WithSessionStore(store).
		WithDirectory(stubDirectory{}).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer engine.Close()

	_, _ = engine.Authenticate(context.Background(), "/me", "")

	out := New(engine).Render()
	if !strings.Contains(out, "goadmin_token_missing_total 1") {
		t.Fatalf("expected token_missing counter, got:\n%s", out)
	}
}
