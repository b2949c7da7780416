package library

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a library video.
type Status string

const (
	StatusPending      Status = "pending"
	StatusDownloading  Status = "downloading"
	StatusDownloaded   Status = "downloaded"
	StatusTranscribing Status = "transcribing"
	StatusTranscribed  Status = "transcribed"
	StatusAnalyzing    Status = "analyzing"
	StatusAnalyzed     Status = "analyzed"
	StatusFailed       Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusDownloading,
	StatusDownloaded,
	StatusTranscribing,
	StatusTranscribed,
	StatusAnalyzing,
	StatusAnalyzed,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusDownloading:  {},
	StatusTranscribing: {},
	StatusAnalyzing:    {},
}

// Video is a library entry persisted in SQLite.
type Video struct {
	ID              int64
	UUID            string
	Title           string
	SourceURL       string
	FilePath        string
	ThumbnailPath   string
	AudioPath       string
	TranscriptPath  string
	SubtitlePath    string
	AnalysisPath    string
	Summary         string
	SuggestedTitle  string
	TagsJSON        string
	Format          string
	DurationSeconds float64
	SizeBytes       int64
	Status          Status
	ErrorMessage    string
	ProgressPhase   string
	ProgressPercent float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HealthSummary describes aggregated library counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Analyzed   int
	Failed     int
}

// DatabaseHealth captures diagnostic information about the library database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalVideos      int
	Error            string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (v Video) IsProcessing() bool {
	_, ok := processingStatuses[v.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// SetProgress updates the progress fields together.
func (v *Video) SetProgress(phase string, percent float64) {
	v.ProgressPhase = phase
	v.ProgressPercent = percent
}

// SetFailed marks the video as failed with the given error message.
func (v *Video) SetFailed(message string) {
	v.Status = StatusFailed
	v.ErrorMessage = message
	v.ProgressPhase = "failed"
	v.ProgressPercent = 0
}
