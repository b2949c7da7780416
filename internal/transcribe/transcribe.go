package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Segment is a timed span of transcribed speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the parsed output of a whisper run.
type Transcript struct {
	Language string    `json:"language"`
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// Options configure a transcription run.
type Options struct {
	Binary   string
	Model    string
	Language string
}

// Runner shells out to the whisper CLI.
type Runner struct {
	opts Options
}

// NewRunner returns a Runner for the given options. Empty fields fall back
// to the usual defaults.
func NewRunner(opts Options) *Runner {
	if strings.TrimSpace(opts.Binary) == "" {
		opts.Binary = "whisper"
	}
	if strings.TrimSpace(opts.Model) == "" {
		opts.Model = "base"
	}
	return &Runner{opts: opts}
}

// Transcribe runs whisper against an audio file and parses its JSON output.
// outputDir receives whisper's generated files and must be writable.
func (r *Runner) Transcribe(ctx context.Context, audioPath, outputDir string) (*Transcript, error) {
	audioPath = strings.TrimSpace(audioPath)
	if audioPath == "" {
		return nil, errors.New("transcribe: empty audio path")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("transcribe: create output dir: %w", err)
	}

	args := []string{
		audioPath,
		"--model", r.opts.Model,
		"--output_format", "json",
		"--output_dir", outputDir,
		"--verbose", "False",
	}
	if lang := strings.TrimSpace(r.opts.Language); lang != "" {
		args = append(args, "--language", lang)
	}

	cmd := exec.CommandContext(ctx, r.opts.Binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("transcribe: whisper: %w: %s", err, strings.TrimSpace(string(output)))
	}

	jsonPath := filepath.Join(outputDir, baseName(audioPath)+".json")
	return ParseFile(jsonPath)
}

// ParseFile reads and parses a whisper JSON output file.
func ParseFile(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("transcribe: read output: %w", err)
	}
	return Parse(data)
}

// Parse decodes whisper JSON output.
func Parse(data []byte) (*Transcript, error) {
	var transcript Transcript
	if err := json.Unmarshal(data, &transcript); err != nil {
		return nil, fmt.Errorf("transcribe: parse output: %w", err)
	}
	for i := range transcript.Segments {
		transcript.Segments[i].Text = strings.TrimSpace(transcript.Segments[i].Text)
	}
	transcript.Text = strings.TrimSpace(transcript.Text)
	if transcript.Text == "" {
		var parts []string
		for _, segment := range transcript.Segments {
			if segment.Text != "" {
				parts = append(parts, segment.Text)
			}
		}
		transcript.Text = strings.Join(parts, " ")
	}
	return &transcript, nil
}

// Duration returns the end time of the last segment in seconds.
func (t *Transcript) Duration() float64 {
	if t == nil || len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].End
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
