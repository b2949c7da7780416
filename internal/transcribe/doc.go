// Package transcribe runs whisper over extracted audio and renders the
// resulting transcript as plain text and SubRip subtitles.
package transcribe
