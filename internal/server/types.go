package server

import (
	"encoding/json"
	"time"

	"clipchimp/internal/deps"
	"clipchimp/internal/library"
	"clipchimp/internal/worker"
)

// VideoView is the wire representation of a library video.
type VideoView struct {
	ID              int64     `json:"id"`
	UUID            string    `json:"uuid"`
	Title           string    `json:"title"`
	SourceURL       string    `json:"source_url,omitempty"`
	FilePath        string    `json:"file_path,omitempty"`
	ThumbnailPath   string    `json:"thumbnail_path,omitempty"`
	TranscriptPath  string    `json:"transcript_path,omitempty"`
	SubtitlePath    string    `json:"subtitle_path,omitempty"`
	AnalysisPath    string    `json:"analysis_path,omitempty"`
	Summary         string    `json:"summary,omitempty"`
	SuggestedTitle  string    `json:"suggested_title,omitempty"`
	Tags            *TagsView `json:"tags,omitempty"`
	Format          string    `json:"format,omitempty"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
	SizeBytes       int64     `json:"size_bytes,omitempty"`
	Status          string    `json:"status"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	ProgressPhase   string    `json:"progress_phase,omitempty"`
	ProgressPercent float64   `json:"progress_percent"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TagsView carries the extracted people and topic tags.
type TagsView struct {
	People []string `json:"people"`
	Topics []string `json:"topics"`
}

// LibraryResponse wraps a video list.
type LibraryResponse struct {
	Videos []VideoView `json:"videos"`
}

// VideoResponse wraps a single video.
type VideoResponse struct {
	Video VideoView `json:"video"`
}

// DownloadRequest is the body of POST /api/downloads.
type DownloadRequest struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// StatusResponse describes the companion process for GET /api/status.
type StatusResponse struct {
	Running      bool                 `json:"running"`
	PID          int                  `json:"pid"`
	Version      string               `json:"version,omitempty"`
	StartedAt    time.Time            `json:"started_at"`
	LibraryPath  string               `json:"library_path"`
	Worker       worker.StatusSummary `json:"worker"`
	Library      LibraryCounts        `json:"library"`
	Dependencies []DependencyView     `json:"dependencies"`
}

// DependencyView is the wire representation of an external tool check.
type DependencyView struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Path        string `json:"path,omitempty"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Source      string `json:"source,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

func viewsFromDeps(statuses []deps.Status) []DependencyView {
	views := make([]DependencyView, 0, len(statuses))
	for _, status := range statuses {
		views = append(views, DependencyView{
			Name:        status.Name,
			Command:     status.Command,
			Path:        status.Path,
			Description: status.Description,
			Optional:    status.Optional,
			Available:   status.Available,
			Source:      status.Source,
			Detail:      status.Detail,
		})
	}
	return views
}

// LibraryCounts aggregates per-state totals for the status endpoint.
type LibraryCounts struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Analyzed   int `json:"analyzed"`
	Failed     int `json:"failed"`
}

// SettingRequest is the body of PUT /api/settings/{key}.
type SettingRequest struct {
	Value string `json:"value"`
}

// SettingResponse wraps a single setting value.
type SettingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func viewFromVideo(video *library.Video) VideoView {
	view := VideoView{
		ID:              video.ID,
		UUID:            video.UUID,
		Title:           video.Title,
		SourceURL:       video.SourceURL,
		FilePath:        video.FilePath,
		ThumbnailPath:   video.ThumbnailPath,
		TranscriptPath:  video.TranscriptPath,
		SubtitlePath:    video.SubtitlePath,
		AnalysisPath:    video.AnalysisPath,
		Summary:         video.Summary,
		SuggestedTitle:  video.SuggestedTitle,
		Format:          video.Format,
		DurationSeconds: video.DurationSeconds,
		SizeBytes:       video.SizeBytes,
		Status:          string(video.Status),
		ErrorMessage:    video.ErrorMessage,
		ProgressPhase:   video.ProgressPhase,
		ProgressPercent: video.ProgressPercent,
		CreatedAt:       video.CreatedAt,
		UpdatedAt:       video.UpdatedAt,
	}
	if video.TagsJSON != "" {
		var tags TagsView
		if err := json.Unmarshal([]byte(video.TagsJSON), &tags); err == nil {
			view.Tags = &tags
		}
	}
	return view
}

func viewsFromVideos(videos []*library.Video) []VideoView {
	views := make([]VideoView, 0, len(videos))
	for _, video := range videos {
		views = append(views, viewFromVideo(video))
	}
	return views
}
