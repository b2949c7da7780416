package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"clipchimp/internal/logging"
	"clipchimp/internal/services/ollama"
	"clipchimp/internal/transcribe"
)

// Section is an identified span of the video with its category and quotes.
type Section struct {
	StartPhrase  string  `json:"start_phrase"`
	EndPhrase    string  `json:"end_phrase"`
	Category     string  `json:"category"`
	Description  string  `json:"description"`
	Quote        string  `json:"quote"`
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
	Quotes       []Quote `json:"quotes,omitempty"`
}

// Quote is a timestamped excerpt extracted from a flagged section.
type Quote struct {
	Timestamp    string `json:"timestamp"`
	Text         string `json:"text"`
	Significance string `json:"significance"`
}

// Tags holds the people and topic tags extracted from the transcript.
type Tags struct {
	People []string `json:"people"`
	Topics []string `json:"topics"`
}

// Report is the full result of analyzing one video.
type Report struct {
	Sections       []Section `json:"sections"`
	Tags           Tags      `json:"tags"`
	Summary        string    `json:"summary"`
	SuggestedTitle string    `json:"suggested_title"`
}

// Generator produces model completions. *ollama.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProgressFunc receives analysis progress in the 0-100 range.
type ProgressFunc func(percent float64, message string)

// Options configure an analysis run.
type Options struct {
	ChunkMinutes       int
	CustomInstructions string
}

// Analyzer drives the multi-pass transcript analysis pipeline.
type Analyzer struct {
	gen    Generator
	logger *slog.Logger
	opts   Options
}

// New returns an Analyzer using the supplied generator.
func New(gen Generator, logger *slog.Logger, opts Options) *Analyzer {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.ChunkMinutes <= 0 {
		opts.ChunkMinutes = 5
	}
	return &Analyzer{gen: gen, logger: logger, opts: opts}
}

const transcriptExcerptLimit = 4000

// Analyze runs section identification over every chunk, extracts quotes from
// flagged sections, then derives tags, a summary, and a suggested title.
// Per-chunk model failures degrade to skipped chunks rather than failing the
// whole run; tag, summary, and title failures degrade to empty results.
func (a *Analyzer) Analyze(ctx context.Context, videoTitle string, transcript *transcribe.Transcript, progress ProgressFunc) (*Report, error) {
	if transcript == nil || len(transcript.Segments) == 0 {
		return nil, fmt.Errorf("analyze: empty transcript")
	}
	if progress == nil {
		progress = func(float64, string) {}
	}

	chunks := ChunkTranscript(transcript.Segments, a.opts.ChunkMinutes)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("analyze: no chunks from %d segments", len(transcript.Segments))
	}
	progress(0, fmt.Sprintf("Analyzing %d chunks...", len(chunks)))

	report := &Report{}
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunkProgress := float64(i) / float64(len(chunks)) * 70
		progress(chunkProgress, fmt.Sprintf("Analyzing chunk %d/%d...", chunk.Number, len(chunks)))

		sections, err := a.identifySections(ctx, videoTitle, chunk)
		if err != nil {
			a.logger.Warn("chunk analysis failed",
				logging.Int("chunk", chunk.Number),
				logging.Error(err),
			)
			continue
		}
		for _, section := range sections {
			section.StartSeconds, section.EndSeconds = locateSection(chunk, section.StartPhrase, section.EndPhrase)
			if section.Category != "routine" {
				quotes, err := a.extractQuotes(ctx, section, chunk)
				if err != nil {
					a.logger.Warn("quote extraction failed",
						logging.String("category", section.Category),
						logging.Error(err),
					)
				} else {
					section.Quotes = quotes
				}
			}
			report.Sections = append(report.Sections, section)
		}
	}

	progress(70, "Extracting tags...")
	tags, err := a.extractTags(ctx, report.Sections, transcript)
	if err != nil {
		a.logger.Warn("tag extraction failed", logging.Error(err))
	} else {
		report.Tags = tags
	}

	progress(80, "Generating summary...")
	summary, err := a.summarize(ctx, videoTitle, report.Sections)
	if err != nil {
		a.logger.Warn("summary generation failed", logging.Error(err))
	} else {
		report.Summary = summary
	}

	progress(90, "Suggesting title...")
	title, err := a.suggestTitle(ctx, videoTitle, report)
	if err != nil {
		a.logger.Warn("title suggestion failed", logging.Error(err))
	} else {
		report.SuggestedTitle = title
	}

	progress(100, fmt.Sprintf("Analysis complete. Found %d sections.", len(report.Sections)))
	return report, nil
}

func (a *Analyzer) identifySections(ctx context.Context, videoTitle string, chunk Chunk) ([]Section, error) {
	prompt := SectionIdentificationPrompt(videoTitle, a.opts.CustomInstructions, chunk.Number, chunk.Text())
	response, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Sections []Section `json:"sections"`
	}
	if err := ollama.DecodeModelJSON(response, &parsed); err != nil {
		return nil, fmt.Errorf("parse sections: %w", err)
	}
	sections := parsed.Sections[:0]
	for _, section := range parsed.Sections {
		section.Category = normalizeCategory(section.Category)
		section.Description = strings.TrimSpace(section.Description)
		if section.Description == "" && section.Quote == "" {
			continue
		}
		sections = append(sections, section)
	}
	return sections, nil
}

func (a *Analyzer) extractQuotes(ctx context.Context, section Section, chunk Chunk) ([]Quote, error) {
	prompt := QuoteExtractionPrompt(section.Category, section.Description, truncate(chunk.TimestampedText(), 6000))
	response, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Quotes []Quote `json:"quotes"`
	}
	if err := ollama.DecodeModelJSON(response, &parsed); err != nil {
		return nil, fmt.Errorf("parse quotes: %w", err)
	}
	quotes := parsed.Quotes[:0]
	for _, quote := range parsed.Quotes {
		quote.Text = strings.TrimSpace(quote.Text)
		if quote.Text == "" {
			continue
		}
		quote.Timestamp = strings.Trim(strings.TrimSpace(quote.Timestamp), "[]")
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

func (a *Analyzer) extractTags(ctx context.Context, sections []Section, transcript *transcribe.Transcript) (Tags, error) {
	prompt := TagExtractionPrompt(sectionsContext(sections), truncate(transcript.Text, transcriptExcerptLimit))
	response, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return Tags{}, err
	}
	var tags Tags
	if err := ollama.DecodeModelJSON(response, &tags); err != nil {
		return Tags{}, fmt.Errorf("parse tags: %w", err)
	}
	tags.People = cleanTags(tags.People)
	tags.Topics = cleanTags(tags.Topics)
	return tags, nil
}

func (a *Analyzer) summarize(ctx context.Context, videoTitle string, sections []Section) (string, error) {
	prompt := VideoSummaryPrompt(videoTitle, sectionsContext(sections))
	response, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}

func (a *Analyzer) suggestTitle(ctx context.Context, currentTitle string, report *Report) (string, error) {
	prompt := SuggestedTitlePrompt(currentTitle, report.Summary, report.Tags.People, report.Tags.Topics)
	response, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return SanitizeSuggestedTitle(response), nil
}

// SanitizeSuggestedTitle enforces the filename rules the model is asked to
// follow but does not always obey: lowercase, spaces, no extensions, no
// special characters, at most 100 characters.
func SanitizeSuggestedTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = title[:idx]
	}
	title = strings.Trim(title, `"'`)
	title = strings.ToLower(title)

	for _, ext := range []string{".mp4", ".mov", ".mkv", ".webm", ".avi", ".m4v"} {
		title = strings.TrimSuffix(title, ext)
	}

	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == ',', r == '-':
			b.WriteRune(r)
		case r == '_':
			b.WriteRune(' ')
		}
	}
	title = strings.Join(strings.Fields(b.String()), " ")

	const limit = 100
	if len(title) > limit {
		cut := title[:limit]
		if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
			cut = cut[:idx]
		}
		title = strings.TrimRight(cut, " ,-")
	}
	return title
}

func sectionsContext(sections []Section) string {
	if len(sections) == 0 {
		return "(no sections identified)"
	}
	var b strings.Builder
	for _, section := range sections {
		fmt.Fprintf(&b, "[%s - %s] (%s) %s\n",
			transcribe.FormatDisplayTime(section.StartSeconds),
			transcribe.FormatDisplayTime(section.EndSeconds),
			section.Category,
			section.Description,
		)
	}
	return b.String()
}

func normalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	for _, known := range SectionCategories {
		if category == known {
			return category
		}
	}
	return "routine"
}

func cleanTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	cleaned := tags[:0]
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, tag)
	}
	return cleaned
}

func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	return text[:limit]
}

// locateSection maps a section's start and end phrases back to transcript
// times. Unmatched phrases fall back to the chunk boundaries.
func locateSection(chunk Chunk, startPhrase, endPhrase string) (float64, float64) {
	start := chunk.Start
	end := chunk.End
	if t, ok := locatePhrase(chunk.Segments, startPhrase); ok {
		start = t.Start
	}
	if t, ok := locatePhrase(chunk.Segments, endPhrase); ok {
		end = t.End
	}
	if end < start {
		end = chunk.End
	}
	return start, end
}

func locatePhrase(segments []transcribe.Segment, phrase string) (transcribe.Segment, bool) {
	needle := normalizeForSearch(phrase)
	if needle == "" {
		return transcribe.Segment{}, false
	}
	// Match against pairs of adjacent segments too, since phrases often
	// straddle a segment boundary.
	for i, segment := range segments {
		haystack := normalizeForSearch(segment.Text)
		if i+1 < len(segments) {
			haystack += " " + normalizeForSearch(segments[i+1].Text)
		}
		if strings.Contains(haystack, needle) {
			return segment, true
		}
	}
	return transcribe.Segment{}, false
}

func normalizeForSearch(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
