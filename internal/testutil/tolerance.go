package testutil

import (
	"math"
	"testing"
)

// RequireCurveNearlyEqual fails t unless two dB curves sampled on the same
// grid have equal length and agree within tolDB at every point. The failure
// names the worst point, not the first one over the limit, so a report shows
// where two response curves diverge most.
func RequireCurveNearlyEqual(t testing.TB, got, want []float64, tolDB float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("curve length: got %d points, want %d", len(got), len(want))
		return
	}

	worst, worstAt := 0.0, -1
	for i := range got {
		d := math.Abs(got[i] - want[i])
		if math.IsNaN(d) {
			t.Fatalf("point %d: got %v dB, want %v dB", i, got[i], want[i])
			return
		}
		if d > worst {
			worst, worstAt = d, i
		}
	}

	if worst > tolDB {
		t.Fatalf("point %d of %d: got %.6f dB, want %.6f dB (off by %.3g dB, limit %.3g dB)",
			worstAt, len(got), got[worstAt], want[worstAt], worst, tolDB)
	}
}

// RequireFinite fails t if a processed buffer holds NaN or Inf, reporting how
// many samples blew up and where the first one is.
func RequireFinite(t testing.TB, data []float64) {
	t.Helper()

	bad, first := 0, -1
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			if first < 0 {
				first = i
			}
			bad++
		}
	}
	if bad > 0 {
		t.Fatalf("%d of %d samples are not finite, first at %d (%v)", bad, len(data), first, data[first])
	}
}
