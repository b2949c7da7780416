package transcribe

import (
	"strings"
	"testing"
)

const sampleWhisperJSON = `{
  "language": "en",
  "text": " Welcome back to the stream. Today we are looking at parsers.",
  "segments": [
    {"start": 0.0, "end": 3.2, "text": " Welcome back to the stream."},
    {"start": 3.2, "end": 7.84, "text": " Today we are looking at parsers."}
  ]
}`

func TestParseTrimsSegments(t *testing.T) {
	transcript, err := Parse([]byte(sampleWhisperJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if transcript.Language != "en" {
		t.Fatalf("language = %q", transcript.Language)
	}
	if len(transcript.Segments) != 2 {
		t.Fatalf("segments = %d", len(transcript.Segments))
	}
	if transcript.Segments[0].Text != "Welcome back to the stream." {
		t.Fatalf("segment text = %q", transcript.Segments[0].Text)
	}
	if transcript.Duration() != 7.84 {
		t.Fatalf("duration = %v", transcript.Duration())
	}
}

func TestParseAssemblesTextFromSegments(t *testing.T) {
	transcript, err := Parse([]byte(`{"segments":[{"start":0,"end":1,"text":" one "},{"start":1,"end":2,"text":" two "}]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if transcript.Text != "one two" {
		t.Fatalf("text = %q", transcript.Text)
	}
}

func TestFormatSRTTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{3.2, "00:00:03,200"},
		{7.845, "00:00:07,845"},
		{61.5, "00:01:01,500"},
		{3723.042, "01:02:03,042"},
		{-5, "00:00:00,000"},
	}
	for _, tc := range cases {
		if got := FormatSRTTimestamp(tc.seconds); got != tc.want {
			t.Errorf("FormatSRTTimestamp(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestFormatDisplayTime(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{65, "1:05"},
		{600, "10:00"},
		{3661, "1:01:01"},
	}
	for _, tc := range cases {
		if got := FormatDisplayTime(tc.seconds); got != tc.want {
			t.Errorf("FormatDisplayTime(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestToSRT(t *testing.T) {
	transcript, err := Parse([]byte(sampleWhisperJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	srt := transcript.ToSRT()

	if !strings.HasPrefix(srt, "1\n00:00:00,000 --> 00:00:03,200\nWelcome back to the stream.\n\n") {
		t.Fatalf("unexpected first cue:\n%s", srt)
	}
	if !strings.Contains(srt, "2\n00:00:03,200 --> 00:00:07,840\n") {
		t.Fatalf("missing second cue:\n%s", srt)
	}
}

func TestToSRTSkipsEmptySegments(t *testing.T) {
	transcript := &Transcript{Segments: []Segment{
		{Start: 0, End: 1, Text: ""},
		{Start: 1, End: 2, Text: "kept"},
	}}
	srt := transcript.ToSRT()
	if strings.Contains(srt, "00:00:00,000") {
		t.Fatalf("empty segment not skipped:\n%s", srt)
	}
	if !strings.HasPrefix(srt, "1\n") {
		t.Fatalf("numbering not compacted:\n%s", srt)
	}
}
