package probe

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

const sampleJSON = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "channels": 2},
    {"index": 2, "codec_name": "hevc", "codec_type": "video", "width": 3840, "height": 2160},
    {"index": 3, "codec_name": "ac3", "codec_type": "audio", "channels": 6}
  ],
  "format": {"filename": "movie.mkv", "duration": "321.000000", "format_name": "matroska,webm"}
}`

func TestParse(t *testing.T) {
	t.Parallel()

	res, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !res.Probed() {
		t.Fatal("Parse() result should be probed")
	}
	if res.Codec != "h264" || res.Width != 1920 || res.Height != 1080 {
		t.Errorf("video = %s %dx%d, want h264 1920x1080", res.Codec, res.Width, res.Height)
	}
	if res.Channels != 2 {
		t.Errorf("Channels = %d, want 2", res.Channels)
	}
	if res.Duration != 321 {
		t.Errorf("Duration = %v, want 321", res.Duration)
	}
	if !res.HasDuration() {
		t.Error("HasDuration() = false")
	}
}

func TestParseMissingFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		codec    string
		duration float64
	}{
		{name: "no streams", input: `{"format": {"duration": "12.5"}}`, duration: 12.5},
		{name: "bad duration", input: `{"streams": [{"codec_type": "video", "codec_name": "vp9"}], "format": {"duration": "N/A"}}`, codec: "vp9"},
		{name: "empty object", input: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if res.Codec != tt.codec || res.Duration != tt.duration {
				t.Errorf("Parse() = %+v, want codec %q duration %v", res, tt.codec, tt.duration)
			}
			if res.HasDuration() != (tt.duration > 0) {
				t.Errorf("HasDuration() = %v", res.HasDuration())
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte("not json")); err == nil {
		t.Error("Parse() error = nil, want error")
	}
}

func TestInspectWithoutBinary(t *testing.T) {
	t.Parallel()

	_, err := Inspect(context.Background(), "", "/tmp/x.mkv")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Inspect() error = %v, want ErrUnavailable", err)
	}
}

func TestProbeNeverFails(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prober *FFprobe
	}{
		{name: "no binary", prober: New("")},
		{name: "missing binary", prober: New(filepath.Join(t.TempDir(), "ffprobe"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.prober.Probe(context.Background(), "/nonexistent/movie.mkv")
			if res.Probed() {
				t.Errorf("Probe() = %+v, want unavailable", res)
			}
			if res.Reason == "" {
				t.Error("unavailable result should carry a reason")
			}
		})
	}
}

func TestFunc(t *testing.T) {
	t.Parallel()

	var p Prober = Func(func(_ context.Context, path string) Result {
		return Result{Status: StatusProbed, Codec: "h264", Duration: 60}
	})
	if res := p.Probe(context.Background(), "x"); res.Codec != "h264" {
		t.Errorf("Func probe = %+v", res)
	}
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	if StatusProbed.String() != "probed" || StatusUnavailable.String() != "unavailable" {
		t.Error("unexpected status strings")
	}
}
