package poster

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/cespare/xxhash/v2"
)

const (
	// FallbackTimestamp is used when the duration is unknown.
	FallbackTimestamp = 15.0
	// MinTimestamp is the earliest instant considered for a poster.
	MinTimestamp = 10.0
	// TailMargin keeps candidates away from the end credits cut.
	TailMargin = 5.0
	// BaseFraction of the duration gives the untouched base timestamp.
	BaseFraction = 0.2
	// MaxOffset bounds the fingerprint-derived shift applied to the base.
	MaxOffset = 3.0
	// JitterScale scales the triangular jitter around the base.
	JitterScale = 8.0
	// CandidateCount is the number of candidates scored per file.
	CandidateCount = 5
)

// bounds returns the allowed timestamp range for a duration. A duration too
// short to hold the margins collapses the range to MinTimestamp.
func bounds(duration float64) (lo, hi float64) {
	lo = MinTimestamp
	hi = duration - TailMargin
	if duration <= 0 || hi < lo {
		hi = lo
	}
	return lo, hi
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// fingerprintOffset maps the fingerprint to a stable shift in
// [-MaxOffset, MaxOffset].
func fingerprintOffset(fingerprint string) float64 {
	h := uint32(xxhash.Sum64String(fingerprint))
	return float64(h)/float64(math.MaxUint32)*2*MaxOffset - MaxOffset
}

// DeterministicTimestamp picks the base instant for a file. It depends only
// on the fingerprint and the duration.
func DeterministicTimestamp(fingerprint string, duration float64) float64 {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return FallbackTimestamp
	}
	lo, hi := bounds(duration)
	ts := clamp(duration*BaseFraction, lo, hi)
	return clamp(ts+fingerprintOffset(fingerprint), lo, hi)
}

// CandidateTimestamps returns up to count timestamps around the
// deterministic base, rounded to two decimals, deduplicated and sorted
// ascending. The jitter is drawn from a PRNG seeded by the fingerprint, so
// the set is reproducible.
func CandidateTimestamps(fingerprint string, duration float64, count int) []float64 {
	if count <= 0 {
		return nil
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) {
		duration = 0
	}

	base := DeterministicTimestamp(fingerprint, duration)
	lo, hi := bounds(duration)

	seed := xxhash.Sum64String("candidates|" + fingerprint)
	rng := rand.New(rand.NewPCG(seed, ^seed))

	seen := make(map[int64]bool, count)
	out := make([]float64, 0, count)
	add := func(v float64) {
		v = round2(v)
		k := int64(math.Round(v * 100))
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, v)
	}

	add(base)
	for attempts := 0; len(out) < count && attempts < count*4; attempts++ {
		offset := (rng.Float64() + rng.Float64() - 1) * JitterScale
		add(clamp(base+offset, lo, hi))
	}

	sort.Float64s(out)
	return out
}
