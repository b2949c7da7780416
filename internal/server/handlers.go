package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"clipchimp/internal/deps"
	"clipchimp/internal/library"
	"clipchimp/internal/logging"
	"clipchimp/internal/worker"
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	payload := StatusResponse{
		Running:      true,
		PID:          os.Getpid(),
		Version:      s.opts.Version,
		StartedAt:    s.startedAt,
		LibraryPath:  s.store.Path(),
		Dependencies: viewsFromDeps(deps.Check()),
	}
	if s.worker != nil {
		payload.Worker = s.worker.Status()
	} else {
		payload.Worker = worker.StatusSummary{}
	}
	if health, err := s.store.Health(r.Context()); err == nil {
		payload.Library = LibraryCounts{
			Total:      health.Total,
			Pending:    health.Pending,
			Processing: health.Processing,
			Analyzed:   health.Analyzed,
			Failed:     health.Failed,
		}
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var statuses []library.Status
	for _, value := range r.URL.Query()["status"] {
		status, ok := library.ParseStatus(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "unknown status "+strconv.Quote(value))
			return
		}
		statuses = append(statuses, status)
	}

	videos, err := s.store.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, LibraryResponse{Videos: viewsFromVideos(videos)})
}

func (s *Server) handleLibraryItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/library/")
	idStr, action, _ := strings.Cut(rest, "/")
	if idStr == "" {
		s.writeError(w, http.StatusNotFound, "video not found")
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid video id")
		return
	}

	video, err := s.store.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if video == nil {
		s.writeError(w, http.StatusNotFound, "video not found")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.writeJSON(w, http.StatusOK, VideoResponse{Video: viewFromVideo(video)})
	case action == "" && r.Method == http.MethodDelete:
		s.removeVideo(w, r, video)
	case action == "transcribe" && r.Method == http.MethodPost:
		s.requeueVideo(w, r, video, library.StatusDownloaded)
	case action == "analyze" && r.Method == http.MethodPost:
		s.requeueVideo(w, r, video, library.StatusTranscribed)
	case action == "retry" && r.Method == http.MethodPost:
		s.retryVideo(w, r, video)
	case action == "":
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	default:
		s.writeError(w, http.StatusNotFound, "unknown action")
	}
}

func (s *Server) removeVideo(w http.ResponseWriter, r *http.Request, video *library.Video) {
	if video.IsProcessing() {
		s.writeError(w, http.StatusConflict, "video is currently processing")
		return
	}

	removed, err := s.store.Remove(r.Context(), video.ID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		s.writeError(w, http.StatusNotFound, "video not found")
		return
	}

	for _, path := range []string{
		video.FilePath,
		video.ThumbnailPath,
		video.AudioPath,
		video.TranscriptPath,
		video.SubtitlePath,
		video.AnalysisPath,
	} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove artifact",
				logging.Int64(logging.FieldVideoID, video.ID),
				logging.String("path", path),
				logging.Error(err),
			)
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

// requeueVideo rewinds a video to a stable status so the worker reruns the
// following stage.
func (s *Server) requeueVideo(w http.ResponseWriter, r *http.Request, video *library.Video, target library.Status) {
	if video.IsProcessing() {
		s.writeError(w, http.StatusConflict, "video is currently processing")
		return
	}
	switch target {
	case library.StatusDownloaded:
		if video.FilePath == "" {
			s.writeError(w, http.StatusConflict, "video has no downloaded media")
			return
		}
	case library.StatusTranscribed:
		if video.TranscriptPath == "" {
			s.writeError(w, http.StatusConflict, "video has no transcript")
			return
		}
	}

	video.Status = target
	video.ErrorMessage = ""
	video.SetProgress("", 0)
	if err := s.store.Update(r.Context(), video); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, VideoResponse{Video: viewFromVideo(video)})
}

func (s *Server) retryVideo(w http.ResponseWriter, r *http.Request, video *library.Video) {
	if video.Status != library.StatusFailed {
		s.writeError(w, http.StatusConflict, "video has not failed")
		return
	}
	if _, err := s.store.RetryFailed(r.Context(), video.ID); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	updated, err := s.store.GetByID(r.Context(), video.ID)
	if err != nil || updated == nil {
		s.writeError(w, http.StatusInternalServerError, "retry lost video")
		return
	}
	s.writeJSON(w, http.StatusAccepted, VideoResponse{Video: viewFromVideo(updated)})
}

func (s *Server) handleDownloads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	if parsed, err := url.Parse(req.URL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		s.writeError(w, http.StatusBadRequest, "url must be absolute")
		return
	}

	existing, err := s.store.FindBySourceURL(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing != nil {
		s.writeError(w, http.StatusConflict, "url already in library")
		return
	}

	video, err := s.store.NewDownload(r.Context(), req.URL, strings.TrimSpace(req.Title))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s.hub != nil {
		s.hub.Status(video.ID, worker.PhaseDownload, string(video.Status))
	}
	s.writeJSON(w, http.StatusCreated, VideoResponse{Video: viewFromVideo(video)})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	settings, err := s.store.SettingsAll(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]map[string]string{"settings": settings})
}

func (s *Server) handleSettingItem(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/api/settings/")
	if key == "" || strings.Contains(key, "/") {
		s.writeError(w, http.StatusNotFound, "setting not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		value, ok, err := s.store.SettingGet(r.Context(), key)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !ok {
			s.writeError(w, http.StatusNotFound, "setting not found")
			return
		}
		s.writeJSON(w, http.StatusOK, SettingResponse{Key: key, Value: value})
	case http.MethodPut:
		var req SettingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.store.SettingSet(r.Context(), key, req.Value); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, SettingResponse{Key: key, Value: req.Value})
	case http.MethodDelete:
		removed, err := s.store.SettingDelete(r.Context(), key)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !removed {
			s.writeError(w, http.StatusNotFound, "setting not found")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleLinkPreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	pageURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if pageURL == "" {
		s.writeError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}

	preview, err := s.preview.Fetch(r.Context(), pageURL)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, preview)
}
