package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"golang.org/x/time/rate"

	"clipchimp/internal/logging"
)

// Progress is a snapshot of an in-flight download.
type Progress struct {
	Percent         float64
	DownloadedBytes int64
	TotalBytes      int64
	Speed           string
	ETASeconds      int
	Title           string
}

// Result describes a completed download.
type Result struct {
	FilePath string
	Title    string
}

// Options configure the downloader.
type Options struct {
	MediaDir       string
	OutputTemplate string
	StartsPerMin   int
	MaxConcurrent  int
}

// Downloader wraps yt-dlp, throttles download starts, and bounds how many
// downloads run at once.
type Downloader struct {
	mediaDir       string
	outputTemplate string
	limiter        *rate.Limiter
	slots          chan struct{}
	logger         *slog.Logger
}

// New returns a Downloader writing into opts.MediaDir.
func New(opts Options, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = logging.NewNop()
	}
	template := strings.TrimSpace(opts.OutputTemplate)
	if template == "" {
		template = "%(title)s.%(ext)s"
	}
	startsPerMin := opts.StartsPerMin
	if startsPerMin <= 0 {
		startsPerMin = 10
	}
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	return &Downloader{
		mediaDir:       opts.MediaDir,
		outputTemplate: template,
		limiter:        rate.NewLimiter(rate.Limit(float64(startsPerMin)/60.0), 1),
		slots:          make(chan struct{}, maxConcurrent),
		logger:         logger,
	}
}

// Download fetches url with yt-dlp, reporting progress along the way. A
// transient failure is retried once before giving up.
func (d *Downloader) Download(ctx context.Context, url string, progress func(Progress)) (Result, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Result{}, errors.New("download: empty url")
	}
	select {
	case d.slots <- struct{}{}:
		defer func() { <-d.slots }()
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("download: rate limit wait: %w", err)
	}

	dl := ytdlp.New().
		ForceOverwrites().
		RestrictFilenames().
		Output(filepath.Join(d.mediaDir, d.outputTemplate))

	if progress != nil {
		dl.ProgressFunc(500*time.Millisecond, func(update ytdlp.ProgressUpdate) {
			progress(snapshotProgress(update))
		})
	}

	result, err := d.runWithRetry(ctx, dl, url)
	if err != nil {
		return Result{}, fmt.Errorf("download %s: %w", url, err)
	}

	out := Result{}
	info, infoErr := result.GetExtractedInfo()
	if infoErr == nil && len(info) > 0 {
		if info[0].Filename != nil {
			out.FilePath = *info[0].Filename
		}
		if info[0].Title != nil {
			out.Title = *info[0].Title
		}
	}
	if out.FilePath == "" {
		return out, fmt.Errorf("download %s: no output file reported", url)
	}
	return out, nil
}

func (d *Downloader) runWithRetry(ctx context.Context, dl *ytdlp.Command, url string) (*ytdlp.Result, error) {
	const maxRetries = 1
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			d.logger.Warn("retrying download",
				logging.String("url", url),
				logging.Int("attempt", attempt+1),
			)
		}

		result, err := dl.Run(ctx, url)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func snapshotProgress(update ytdlp.ProgressUpdate) Progress {
	snapshot := Progress{
		DownloadedBytes: int64(update.DownloadedBytes),
		TotalBytes:      int64(update.TotalBytes),
		ETASeconds:      -1,
	}
	if update.TotalBytes > 0 {
		snapshot.Percent = float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
	}
	if !update.Started.IsZero() {
		elapsed := time.Since(update.Started)
		if elapsed.Seconds() > 0 {
			bytesPerSecond := float64(update.DownloadedBytes) / elapsed.Seconds()
			snapshot.Speed = fmt.Sprintf("%.1fMB/s", bytesPerSecond/1024/1024)
		}
	}
	if eta := update.ETA(); eta > 0 {
		snapshot.ETASeconds = int(eta.Seconds())
	}
	if update.Info != nil && update.Info.Title != nil {
		snapshot.Title = *update.Info.Title
	}
	return snapshot
}
