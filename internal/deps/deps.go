package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Requirement defines an external tool ClipChimp shells out to.
type Requirement struct {
	Name        string
	Command     string
	EnvVar      string
	Description string
	Optional    bool
}

// Status reports how a requirement resolved.
type Status struct {
	Name        string
	Command     string
	Path        string
	Description string
	Optional    bool
	Available   bool
	Source      string
	Detail      string
}

// Requirements returns the tools the media pipeline depends on.
func Requirements() []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: "ffmpeg", EnvVar: "CLIPCHIMP_FFMPEG", Description: "Clip export, audio extraction, thumbnails"},
		{Name: "FFprobe", Command: "ffprobe", EnvVar: "CLIPCHIMP_FFPROBE", Description: "Media inspection"},
		{Name: "yt-dlp", Command: "yt-dlp", EnvVar: "CLIPCHIMP_YTDLP", Description: "Video downloads"},
		{Name: "Whisper", Command: "whisper", EnvVar: "CLIPCHIMP_WHISPER", Description: "Audio transcription", Optional: true},
	}
}

// Resolve locates a binary using the fixed search order: environment
// variable, bundled tools directory next to the executable, then PATH.
func Resolve(req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Command:     req.Command,
		Description: req.Description,
		Optional:    req.Optional,
	}

	if req.EnvVar != "" {
		if value := strings.TrimSpace(os.Getenv(req.EnvVar)); value != "" {
			if info, err := os.Stat(value); err == nil && isExecutable(info) {
				status.Path = value
				status.Available = true
				status.Source = "env"
				return status
			}
			status.Detail = fmt.Sprintf("%s points to %q which is not an executable file", req.EnvVar, value)
		}
	}

	if candidate, ok := bundledCandidate(req.Command); ok {
		if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
			status.Path = candidate
			status.Available = true
			status.Source = "bundled"
			return status
		}
	}

	if resolved, err := exec.LookPath(req.Command); err == nil {
		status.Path = resolved
		status.Available = true
		status.Source = "path"
		return status
	}

	status.Available = false
	if status.Detail == "" {
		status.Detail = fmt.Sprintf("binary %q not found", req.Command)
	}
	return status
}

// ResolvePath returns the resolved path for a named command, falling back to
// the bare command name so exec can still report a sensible error.
func ResolvePath(command string) string {
	for _, req := range Requirements() {
		if req.Command == command {
			if status := Resolve(req); status.Available {
				return status.Path
			}
			return command
		}
	}
	if resolved, err := exec.LookPath(command); err == nil {
		return resolved
	}
	return command
}

// Check resolves every requirement and reports availability.
func Check() []Status {
	requirements := Requirements()
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, Resolve(req))
	}
	return results
}

// MissingRequired returns the names of required tools that did not resolve.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status.Name)
		}
	}
	return missing
}

func bundledCandidate(command string) (string, bool) {
	executable, err := os.Executable()
	if err != nil {
		return "", false
	}
	name := command
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(filepath.Dir(executable), "tools", name), true
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
