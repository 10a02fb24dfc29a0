// Package probe inspects video files with ffprobe.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"reelshelf/internal/logging"
	"reelshelf/internal/metrics"
)

// DefaultTimeout bounds a single ffprobe invocation.
const DefaultTimeout = 10 * time.Second

// ErrUnavailable is returned by Inspect when no ffprobe binary is configured.
var ErrUnavailable = errors.New("ffprobe unavailable")

// Status tags a Result.
type Status int

const (
	// StatusUnavailable means no metadata could be obtained.
	StatusUnavailable Status = iota
	// StatusProbed means ffprobe succeeded. Individual fields may still be
	// zero when the container did not report them.
	StatusProbed
)

func (s Status) String() string {
	if s == StatusProbed {
		return "probed"
	}
	return "unavailable"
}

// Result is the outcome of probing one file.
type Result struct {
	Status   Status
	Codec    string
	Width    int
	Height   int
	Channels int
	// Duration in seconds; zero when unknown.
	Duration float64
	// Reason explains an unavailable result.
	Reason string
}

// Probed reports whether metadata was obtained.
func (r Result) Probed() bool {
	return r.Status == StatusProbed
}

// HasDuration reports whether a positive duration is known.
func (r Result) HasDuration() bool {
	return r.Probed() && r.Duration > 0
}

// Unavailable builds an unavailable result.
func Unavailable(reason string) Result {
	return Result{Status: StatusUnavailable, Reason: reason}
}

// Prober returns metadata for a file and never fails; problems are reported
// as an unavailable Result.
type Prober interface {
	Probe(ctx context.Context, path string) Result
}

// Func adapts a function to Prober.
type Func func(ctx context.Context, path string) Result

// Probe calls f.
func (f Func) Probe(ctx context.Context, path string) Result {
	return f(ctx, path)
}

type output struct {
	Streams []stream `json:"streams"`
	Format  format   `json:"format"`
}

type stream struct {
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Channels  int    `json:"channels"`
}

type format struct {
	Duration string `json:"duration"`
}

// Parse decodes ffprobe JSON. Codec and dimensions come from the first
// video stream, channels from the first audio stream.
func Parse(data []byte) (Result, error) {
	var out output
	if err := json.Unmarshal(data, &out); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}

	res := Result{Status: StatusProbed}
	seenVideo, seenAudio := false, false
	for _, s := range out.Streams {
		switch strings.ToLower(s.CodecType) {
		case "video":
			if !seenVideo {
				seenVideo = true
				res.Codec = s.CodecName
				res.Width = s.Width
				res.Height = s.Height
			}
		case "audio":
			if !seenAudio {
				seenAudio = true
				res.Channels = s.Channels
			}
		}
	}

	if d, err := strconv.ParseFloat(strings.TrimSpace(out.Format.Duration), 64); err == nil && !math.IsNaN(d) && d > 0 {
		res.Duration = d
	}
	return res, nil
}

// Inspect runs ffprobe against path and parses the result.
func Inspect(ctx context.Context, binary, path string) (Result, error) {
	if strings.TrimSpace(binary) == "" {
		return Result{}, ErrUnavailable
	}

	cmd := exec.CommandContext(ctx, binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		"--", path,
	)
	data, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, fmt.Errorf("ffprobe %s: %w", path, ctx.Err())
		}
		return Result{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return Parse(data)
}

// FFprobe is a Prober backed by the ffprobe executable.
type FFprobe struct {
	binary  string
	timeout time.Duration
}

// New returns an ffprobe-backed Prober. An empty binary yields a prober that
// always reports unavailable.
func New(binary string) *FFprobe {
	return &FFprobe{binary: binary, timeout: DefaultTimeout}
}

// WithTimeout overrides the per-call timeout.
func (p *FFprobe) WithTimeout(d time.Duration) *FFprobe {
	if d > 0 {
		p.timeout = d
	}
	return p
}

// Available reports whether an ffprobe binary is configured.
func (p *FFprobe) Available() bool {
	return p != nil && p.binary != ""
}

// Probe implements Prober.
func (p *FFprobe) Probe(ctx context.Context, path string) Result {
	start := time.Now()
	defer func() { metrics.ProbeDuration.Observe(time.Since(start).Seconds()) }()

	if !p.Available() {
		metrics.ProbeTotal.WithLabelValues(StatusUnavailable.String()).Inc()
		return Unavailable(ErrUnavailable.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	res, err := Inspect(ctx, p.binary, path)
	if err != nil {
		logging.Debug("Probe failed for %s: %v", path, err)
		metrics.ProbeTotal.WithLabelValues(StatusUnavailable.String()).Inc()
		return Unavailable(err.Error())
	}

	metrics.ProbeTotal.WithLabelValues(StatusProbed.String()).Inc()
	return res
}
