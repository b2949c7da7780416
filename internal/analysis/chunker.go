package analysis

import (
	"strings"

	"clipchimp/internal/transcribe"
)

// Chunk is a time-bounded slice of the transcript fed to the model in one
// request.
type Chunk struct {
	Number   int
	Start    float64
	End      float64
	Segments []transcribe.Segment
}

// Text joins the chunk's segment texts with single spaces.
func (c Chunk) Text() string {
	parts := make([]string, 0, len(c.Segments))
	for _, segment := range c.Segments {
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// TimestampedText renders the chunk's segments one per line with a leading
// display-time marker.
func (c Chunk) TimestampedText() string {
	var b strings.Builder
	for _, segment := range c.Segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		b.WriteString("[")
		b.WriteString(transcribe.FormatDisplayTime(segment.Start))
		b.WriteString("] ")
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String()
}

// ChunkTranscript splits segments into fixed-duration chunks. A segment
// belongs to the chunk its start time falls in. Empty time ranges produce no
// chunk, so chunk numbers stay contiguous.
func ChunkTranscript(segments []transcribe.Segment, chunkMinutes int) []Chunk {
	if len(segments) == 0 {
		return nil
	}
	if chunkMinutes <= 0 {
		chunkMinutes = 5
	}
	chunkDuration := float64(chunkMinutes * 60)
	totalDuration := segments[len(segments)-1].End

	var chunks []Chunk
	currentStart := 0.0
	number := 1
	for currentStart < totalDuration {
		chunkEnd := currentStart + chunkDuration

		var chunkSegments []transcribe.Segment
		for _, segment := range segments {
			if segment.Start >= currentStart && segment.Start < chunkEnd {
				chunkSegments = append(chunkSegments, segment)
			}
		}
		if len(chunkSegments) > 0 {
			end := chunkEnd
			if totalDuration < end {
				end = totalDuration
			}
			chunks = append(chunks, Chunk{
				Number:   number,
				Start:    currentStart,
				End:      end,
				Segments: chunkSegments,
			})
			number++
		}
		currentStart = chunkEnd
	}
	return chunks
}
