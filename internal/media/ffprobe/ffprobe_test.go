package ffprobe

import (
	"encoding/json"
	"testing"
)

const samplePayload = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "sample_rate": "48000", "channels": 2}
  ],
  "format": {
    "filename": "demo.mp4",
    "nb_streams": 2,
    "duration": "123.456",
    "size": "1048576",
    "bit_rate": "800000",
    "format_name": "mov,mp4,m4a,3gp,3g2,mj2"
  }
}`

func parseSample(t *testing.T) Result {
	t.Helper()
	var result Result
	if err := json.Unmarshal([]byte(samplePayload), &result); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	return result
}

func TestPrimaryStreams(t *testing.T) {
	result := parseSample(t)

	video, ok := result.PrimaryVideo()
	if !ok || video.CodecName != "h264" || video.Width != 1920 {
		t.Fatalf("video = %+v, ok = %v", video, ok)
	}
	audio, ok := result.PrimaryAudio()
	if !ok || audio.Channels != 2 {
		t.Fatalf("audio = %+v, ok = %v", audio, ok)
	}
	if !result.HasAudio() {
		t.Fatal("expected audio stream")
	}
}

func TestContainerFormatTakesFirstName(t *testing.T) {
	result := parseSample(t)
	if got := result.ContainerFormat(); got != "mov" {
		t.Fatalf("ContainerFormat = %q", got)
	}
}

func TestNumericAccessors(t *testing.T) {
	result := parseSample(t)
	if got := result.DurationSeconds(); got != 123.456 {
		t.Fatalf("DurationSeconds = %v", got)
	}
	if got := result.SizeBytes(); got != 1048576 {
		t.Fatalf("SizeBytes = %v", got)
	}
}

func TestNumericAccessorsTolerateGarbage(t *testing.T) {
	result := Result{Format: Format{Duration: "not-a-number", Size: ""}}
	if got := result.DurationSeconds(); got != 0 {
		t.Fatalf("DurationSeconds = %v, want 0", got)
	}
	if got := result.SizeBytes(); got != 0 {
		t.Fatalf("SizeBytes = %v, want 0", got)
	}
}
