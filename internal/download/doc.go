// Package download fetches remote videos with yt-dlp.
package download
