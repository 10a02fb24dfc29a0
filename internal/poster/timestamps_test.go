package poster

import (
	"fmt"
	"slices"
	"testing"
)

func TestDeterministicTimestampFallback(t *testing.T) {
	t.Parallel()

	for _, d := range []float64{0, -1, -3600} {
		if got := DeterministicTimestamp("abc", d); got != FallbackTimestamp {
			t.Errorf("DeterministicTimestamp(abc, %v) = %v, want %v", d, got, FallbackTimestamp)
		}
	}
}

func TestDeterministicTimestampShortDuration(t *testing.T) {
	t.Parallel()

	if got := DeterministicTimestamp("abc", 12); got != MinTimestamp {
		t.Errorf("DeterministicTimestamp(abc, 12) = %v, want %v", got, MinTimestamp)
	}
}

func TestDeterministicTimestampReproducible(t *testing.T) {
	t.Parallel()

	a := DeterministicTimestamp("fingerprint-a", 5400)
	if b := DeterministicTimestamp("fingerprint-a", 5400); a != b {
		t.Errorf("same inputs gave %v and %v", a, b)
	}
	if c := DeterministicTimestamp("fingerprint-b", 5400); a == c {
		t.Errorf("distinct fingerprints both gave %v", a)
	}
}

func TestDeterministicTimestampWithinBounds(t *testing.T) {
	t.Parallel()

	for _, d := range []float64{15, 16, 30, 45.5, 60, 600, 7200} {
		for i := range 50 {
			fp := fmt.Sprintf("fp-%d", i)
			ts := DeterministicTimestamp(fp, d)
			if ts < MinTimestamp || ts > d-TailMargin {
				t.Fatalf("DeterministicTimestamp(%s, %v) = %v outside [%v, %v]", fp, d, ts, MinTimestamp, d-TailMargin)
			}
		}
	}
}

func TestDeterministicTimestampNearBase(t *testing.T) {
	t.Parallel()

	ts := DeterministicTimestamp("xyz", 1000)
	if ts < 200-MaxOffset || ts > 200+MaxOffset {
		t.Errorf("DeterministicTimestamp(xyz, 1000) = %v, want within 3s of 200", ts)
	}
}

func TestCandidateTimestamps(t *testing.T) {
	t.Parallel()

	const fp, d = "0123456789abcdef", 3600.0
	got := CandidateTimestamps(fp, d, CandidateCount)

	if len(got) == 0 || len(got) > CandidateCount {
		t.Fatalf("len = %d, want 1..%d", len(got), CandidateCount)
	}
	if !slices.IsSorted(got) {
		t.Errorf("candidates not sorted: %v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i] == got[i-1] {
			t.Errorf("duplicate candidate %v in %v", got[i], got)
		}
	}
	for _, ts := range got {
		if ts < MinTimestamp || ts > d-TailMargin {
			t.Errorf("candidate %v outside bounds", ts)
		}
		if ts != round2(ts) {
			t.Errorf("candidate %v not rounded to 2 decimals", ts)
		}
	}

	base := round2(DeterministicTimestamp(fp, d))
	if !slices.Contains(got, base) {
		t.Errorf("candidates %v do not include base %v", got, base)
	}

	again := CandidateTimestamps(fp, d, CandidateCount)
	if !slices.Equal(got, again) {
		t.Errorf("candidates not reproducible: %v vs %v", got, again)
	}

	other := CandidateTimestamps("fedcba9876543210", d, CandidateCount)
	if slices.Equal(got, other) {
		t.Errorf("distinct fingerprints produced identical candidates %v", got)
	}
}

func TestCandidateTimestampsDegenerateDuration(t *testing.T) {
	t.Parallel()

	got := CandidateTimestamps("abc", 0, CandidateCount)
	for _, ts := range got {
		if ts != MinTimestamp && ts != FallbackTimestamp {
			t.Errorf("candidate %v, want %v or %v", ts, MinTimestamp, FallbackTimestamp)
		}
	}
	if !slices.Contains(got, FallbackTimestamp) {
		t.Errorf("candidates %v missing fallback base", got)
	}
}

func TestCandidateTimestampsCount(t *testing.T) {
	t.Parallel()

	if got := CandidateTimestamps("abc", 3600, 0); got != nil {
		t.Errorf("count 0 = %v, want nil", got)
	}
	if got := CandidateTimestamps("abc", 3600, 1); len(got) != 1 {
		t.Errorf("count 1 returned %v", got)
	}
}
