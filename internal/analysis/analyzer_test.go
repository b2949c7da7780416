package analysis

import (
	"context"
	"strings"
	"testing"

	"clipchimp/internal/transcribe"
)

// scriptedGenerator returns canned responses keyed by a substring of the
// prompt, in the order the pipeline issues them.
type scriptedGenerator struct {
	responses map[string]string
	prompts   []string
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	for marker, response := range g.responses {
		if strings.Contains(prompt, marker) {
			return response, nil
		}
	}
	return `{"sections":[]}`, nil
}

func sampleTranscript() *transcribe.Transcript {
	return &transcribe.Transcript{
		Text: "Welcome everyone. God told me the election was stolen. Thanks for watching.",
		Segments: []transcribe.Segment{
			{Start: 0, End: 5, Text: "Welcome everyone."},
			{Start: 5, End: 12, Text: "God told me the election was stolen."},
			{Start: 12, End: 15, Text: "Thanks for watching."},
		},
	}
}

func TestAnalyzeFullPipeline(t *testing.T) {
	gen := &scriptedGenerator{responses: map[string]string{
		"TRANSCRIPT TO ANALYZE": `{"sections":[
			{"start_phrase":"God told me","end_phrase":"election was stolen","category":"false-prophecy","description":"Claims divine knowledge of election fraud.","quote":"God told me the election was stolen."}
		]}`,
		"TIMESTAMPED TRANSCRIPT": `{"quotes":[
			{"timestamp":"0:05","text":"God told me the election was stolen.","significance":"Claims direct divine revelation about a political event."}
		]}`,
		"Tags (JSON only)":    `{"people":["Example Preacher"],"topics":["Election","Prophecy"]}`,
		"2-3 sentence summary": "A speaker claims divine revelation about election fraud.",
		"Suggested title":      "example preacher claims god revealed election fraud",
	}}

	analyzer := New(gen, nil, Options{ChunkMinutes: 5})
	var lastMessage string
	report, err := analyzer.Analyze(context.Background(), "stream.mp4", sampleTranscript(), func(_ float64, message string) {
		lastMessage = message
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(report.Sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(report.Sections))
	}
	section := report.Sections[0]
	if section.Category != "false-prophecy" {
		t.Fatalf("category = %q", section.Category)
	}
	if section.StartSeconds != 5 {
		t.Fatalf("start = %v, want 5 (phrase located)", section.StartSeconds)
	}
	if len(section.Quotes) != 1 || section.Quotes[0].Timestamp != "0:05" {
		t.Fatalf("quotes = %+v", section.Quotes)
	}
	if report.Tags.People[0] != "Example Preacher" {
		t.Fatalf("tags = %+v", report.Tags)
	}
	if report.Summary == "" || report.SuggestedTitle == "" {
		t.Fatalf("summary/title missing: %+v", report)
	}
	if !strings.Contains(lastMessage, "complete") {
		t.Fatalf("final progress = %q", lastMessage)
	}
}

func TestAnalyzeRoutineSectionSkipsQuoteExtraction(t *testing.T) {
	gen := &scriptedGenerator{responses: map[string]string{
		"TRANSCRIPT TO ANALYZE": `{"sections":[
			{"start_phrase":"Welcome everyone","end_phrase":"Thanks for watching","category":"routine","description":"General greeting and sign-off.","quote":"Welcome everyone."}
		]}`,
	}}

	analyzer := New(gen, nil, Options{})
	report, err := analyzer.Analyze(context.Background(), "", sampleTranscript(), nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(report.Sections) != 1 || len(report.Sections[0].Quotes) != 0 {
		t.Fatalf("sections = %+v", report.Sections)
	}
	for _, prompt := range gen.prompts {
		if strings.Contains(prompt, "TIMESTAMPED TRANSCRIPT") {
			t.Fatal("quote extraction ran for routine section")
		}
	}
}

func TestAnalyzeUnknownCategoryBecomesRoutine(t *testing.T) {
	gen := &scriptedGenerator{responses: map[string]string{
		"TRANSCRIPT TO ANALYZE": `{"sections":[
			{"start_phrase":"x","end_phrase":"y","category":"hate, conspiracy","description":"Mixed categories.","quote":"q"}
		]}`,
		"TIMESTAMPED TRANSCRIPT": `{"quotes":[]}`,
	}}

	analyzer := New(gen, nil, Options{})
	report, err := analyzer.Analyze(context.Background(), "", sampleTranscript(), nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Sections[0].Category != "routine" {
		t.Fatalf("category = %q, want routine", report.Sections[0].Category)
	}
}

func TestAnalyzeEmptyTranscript(t *testing.T) {
	analyzer := New(&scriptedGenerator{}, nil, Options{})
	if _, err := analyzer.Analyze(context.Background(), "", &transcribe.Transcript{}, nil); err == nil {
		t.Fatal("expected error for empty transcript")
	}
}

func TestSanitizeSuggestedTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`"Greg Locke's Speech.mp4"`, "greg lockes speech"},
		{"simple title already", "simple title already"},
		{"Title_With_Underscores", "title with underscores"},
		{"line one\nexplanation line two", "line one"},
		{"date 2025-11-06 kept as digits", "date 2025-11-06 kept as digits"},
	}
	for _, tc := range cases {
		if got := SanitizeSuggestedTitle(tc.in); got != tc.want {
			t.Errorf("SanitizeSuggestedTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	long := strings.Repeat("word ", 40)
	if got := SanitizeSuggestedTitle(long); len(got) > 100 {
		t.Errorf("long title not truncated: %d chars", len(got))
	}
}

func TestLocateSectionFallsBackToChunkBounds(t *testing.T) {
	chunk := Chunk{Start: 0, End: 15, Segments: sampleTranscript().Segments}
	start, end := locateSection(chunk, "not in the transcript at all", "also missing entirely")
	if start != 0 || end != 15 {
		t.Fatalf("bounds = %v..%v, want chunk bounds", start, end)
	}
}

func TestRenderReport(t *testing.T) {
	report := &Report{
		Sections: []Section{{
			Category:     "conspiracy",
			Description:  "Election fraud claims.",
			Quote:        "the election was stolen",
			StartSeconds: 5,
			EndSeconds:   12,
			Quotes:       []Quote{{Timestamp: "0:05", Text: "stolen", Significance: "Baseless fraud claim."}},
		}},
		Tags:           Tags{People: []string{"Example Preacher"}, Topics: []string{"Election"}},
		Summary:        "A short summary.",
		SuggestedTitle: "example preacher election claims",
	}
	rendered := RenderReport("stream.mp4", report)

	for _, want := range []string{
		"# Analysis: stream.mp4",
		"## Summary",
		"Suggested title: example preacher election claims",
		"People: Example Preacher",
		"### [0:05 - 0:12] conspiracy",
		"> the election was stolen",
		`[0:05] "stolen"`,
	} {
		if !strings.Contains(rendered, want) {
			t.Errorf("report missing %q:\n%s", want, rendered)
		}
	}
}
