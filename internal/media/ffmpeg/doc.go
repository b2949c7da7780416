// Package ffmpeg wraps the ffmpeg binary for audio extraction, clip export,
// and thumbnail capture.
package ffmpeg
