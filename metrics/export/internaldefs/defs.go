package internaldefs

import (
	"strconv"
	"strings"

	goAdmin "github.com/MrEthical07/goAdmin"
)

// BucketCount is the number of latency buckets, including +Inf.
const BucketCount = len(goAdmin.HistogramBounds) + 1

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   goAdmin.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   goAdmin.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "goadmin_audit_dropped_total"

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goAdmin.MetricLoginSuccess, Name: "goadmin_login_success_total", Help: "Successful login attempts."},
	{ID: goAdmin.MetricLoginFailure, Name: "goadmin_login_failure_total", Help: "Login attempts rejected for bad credentials."},
	{ID: goAdmin.MetricLoginRateLimited, Name: "goadmin_login_rate_limited_total", Help: "Login attempts rejected by the throttle."},
	{ID: goAdmin.MetricAuthenticateSuccess, Name: "goadmin_authenticate_success_total", Help: "Requests authenticated with a session."},
	{ID: goAdmin.MetricAuthenticateSkipped, Name: "goadmin_authenticate_skipped_total", Help: "Requests to allow-listed paths."},
	{ID: goAdmin.MetricTokenRenewed, Name: "goadmin_token_renewed_total", Help: "Expired access tokens exchanged for a new one."},
	{ID: goAdmin.MetricTokenMissing, Name: "goadmin_token_missing_total", Help: "Protected requests without a token."},
	{ID: goAdmin.MetricTokenInvalid, Name: "goadmin_token_invalid_total", Help: "Requests with a malformed or forged token."},
	{ID: goAdmin.MetricSessionExpired, Name: "goadmin_session_expired_total", Help: "Requests whose server-side session was gone."},
	{ID: goAdmin.MetricFingerprintMismatch, Name: "goadmin_fingerprint_mismatch_total", Help: "Expired tokens presented after they were superseded."},
	{ID: goAdmin.MetricSessionRevoked, Name: "goadmin_session_revoked_total", Help: "Sessions revoked by user id."},
	{ID: goAdmin.MetricLogout, Name: "goadmin_logout_total", Help: "Self-service logouts."},
	{ID: goAdmin.MetricStoreError, Name: "goadmin_store_error_total", Help: "Session store or throttle backend faults."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goAdmin.MetricAuthenticateLatency, Name: "goadmin_authenticate_latency_seconds", Help: "Authenticate latency histogram."},
}

// HistogramBounds holds the Prometheus le labels, ending in +Inf.
var HistogramBounds = buildBounds()

// HistogramBoundSuffix holds label-safe forms of HistogramBounds.
var HistogramBoundSuffix = buildSuffixes()

func buildBounds() []string {
	out := make([]string, 0, BucketCount)
	for _, d := range goAdmin.HistogramBounds {
		out = append(out, strconv.FormatFloat(d.Seconds(), 'g', -1, 64))
	}
	return append(out, "+Inf")
}

func buildSuffixes() []string {
	bounds := buildBounds()
	out := make([]string, len(bounds))
	for i, b := range bounds {
		if b == "+Inf" {
			out[i] = "inf"
			continue
		}
		out[i] = strings.ReplaceAll(b, ".", "_")
	}
	return out
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into le-style running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
