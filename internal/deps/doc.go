// Package deps resolves the external binaries the pipeline shells out to
// (ffmpeg, ffprobe, yt-dlp, whisper) using a fixed search order: environment
// variable, bundled tools directory, then PATH.
package deps
