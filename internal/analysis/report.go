package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipchimp/internal/transcribe"
)

// RenderReport formats a report as the markdown document saved alongside the
// video.
func RenderReport(videoTitle string, report *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Analysis: %s\n\n", videoTitle)
	fmt.Fprintf(&b, "Generated: %s\n\n", time.Now().UTC().Format(time.RFC3339))

	if report.Summary != "" {
		b.WriteString("## Summary\n\n")
		b.WriteString(report.Summary)
		b.WriteString("\n\n")
	}
	if report.SuggestedTitle != "" {
		fmt.Fprintf(&b, "Suggested title: %s\n\n", report.SuggestedTitle)
	}

	if len(report.Tags.People) > 0 || len(report.Tags.Topics) > 0 {
		b.WriteString("## Tags\n\n")
		if len(report.Tags.People) > 0 {
			fmt.Fprintf(&b, "People: %s\n\n", strings.Join(report.Tags.People, ", "))
		}
		if len(report.Tags.Topics) > 0 {
			fmt.Fprintf(&b, "Topics: %s\n\n", strings.Join(report.Tags.Topics, ", "))
		}
	}

	b.WriteString("## Sections\n\n")
	if len(report.Sections) == 0 {
		b.WriteString("No sections identified.\n")
	}
	for _, section := range report.Sections {
		fmt.Fprintf(&b, "### [%s - %s] %s\n\n",
			transcribe.FormatDisplayTime(section.StartSeconds),
			transcribe.FormatDisplayTime(section.EndSeconds),
			section.Category,
		)
		if section.Description != "" {
			b.WriteString(section.Description)
			b.WriteString("\n\n")
		}
		if section.Quote != "" {
			fmt.Fprintf(&b, "> %s\n\n", section.Quote)
		}
		for _, quote := range section.Quotes {
			fmt.Fprintf(&b, "- [%s] %q", quote.Timestamp, quote.Text)
			if quote.Significance != "" {
				fmt.Fprintf(&b, " - %s", quote.Significance)
			}
			b.WriteString("\n")
		}
		if len(section.Quotes) > 0 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

// WriteReport renders the report and writes it to path.
func WriteReport(path, videoTitle string, report *Report) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(RenderReport(videoTitle, report)), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
