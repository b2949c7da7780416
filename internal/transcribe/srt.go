package transcribe

import (
	"fmt"
	"math"
	"os"
	"strings"
)

// ToSRT renders the transcript in SubRip format.
func (t *Transcript) ToSRT() string {
	var b strings.Builder
	index := 1
	for _, segment := range t.Segments {
		if segment.Text == "" {
			continue
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			index,
			FormatSRTTimestamp(segment.Start),
			FormatSRTTimestamp(segment.End),
			segment.Text,
		)
		index++
	}
	return b.String()
}

// WriteSRT writes the transcript in SubRip format to path.
func (t *Transcript) WriteSRT(path string) error {
	if err := os.WriteFile(path, []byte(t.ToSRT()), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// WriteText writes the plain transcript text to path.
func (t *Transcript) WriteText(path string) error {
	if err := os.WriteFile(path, []byte(t.Text+"\n"), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// FormatSRTTimestamp renders seconds as HH:MM:SS,mmm per the SubRip spec.
func FormatSRTTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	millis := int64(math.Round(seconds * 1000))
	hours := millis / 3_600_000
	millis %= 3_600_000
	minutes := millis / 60_000
	millis %= 60_000
	secs := millis / 1000
	millis %= 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// FormatDisplayTime renders seconds as M:SS (or H:MM:SS past an hour) for
// human-facing output.
func FormatDisplayTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(math.Floor(seconds))
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
