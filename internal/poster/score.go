package poster

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// FrameStats holds luma statistics for one frame on a 0-255 scale.
type FrameStats struct {
	Avg float64
	Min float64
	Max float64
}

const (
	weightMid   = 0.5
	weightEdge  = 0.3
	weightRange = 0.2
)

// Score rates a frame from its plain statistics and the statistics of the
// same frame after edge detection. Higher is better; the result is in [0,1].
func Score(base, edge FrameStats) float64 {
	mid := math.Max(0, 1-math.Abs(base.Avg-128)/112)
	dynamic := clamp((base.Max-base.Min)/255, 0, 1)
	edges := clamp(edge.Avg/255, 0, 1)
	return weightMid*mid + weightEdge*edges + weightRange*dynamic
}

// signalStatsPattern matches both "YAVG:12.3" and the metadata filter's
// "lavfi.signalstats.YAVG=12.3" forms.
var signalStatsPattern = regexp.MustCompile(`(?:^|[\s.])(YAVG|YMIN|YMAX)[:=]\s*([0-9]+(?:\.[0-9]+)?)`)

// parseSignalStats extracts YAVG, YMIN and YMAX from ffmpeg output. The last
// value of each key wins.
func parseSignalStats(output []byte) (FrameStats, error) {
	found := map[string]float64{}
	for _, m := range signalStatsPattern.FindAllSubmatch(output, -1) {
		v, err := strconv.ParseFloat(string(m[2]), 64)
		if err != nil {
			continue
		}
		found[string(m[1])] = v
	}

	avg, okAvg := found["YAVG"]
	lo, okMin := found["YMIN"]
	hi, okMax := found["YMAX"]
	if !okAvg || !okMin || !okMax {
		return FrameStats{}, fmt.Errorf("signalstats output incomplete")
	}
	return FrameStats{Avg: avg, Min: lo, Max: hi}, nil
}
