package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"clipchimp/internal/config"
)

// Store manages library persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the library database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.DataDir, "library.db"))
}

// OpenPath opens the library database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// NewDownload inserts a pending video for a remote URL.
func (s *Store) NewDownload(ctx context.Context, sourceURL, title string) (*Video, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if title == "" {
		title = sourceURL
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO videos (
            uuid, title, source_url, status, progress_percent, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		title,
		sourceURL,
		StatusPending,
		0.0,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert download: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// NewLocalFile inserts an already-downloaded file beginning at the downloaded stage.
func (s *Store) NewLocalFile(ctx context.Context, filePath string) (*Video, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO videos (
            uuid, title, file_path, status, progress_percent, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		inferTitleFromPath(filePath),
		filePath,
		StatusDownloaded,
		0.0,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert local file: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a video by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Video, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	video, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	return video, nil
}

// GetByUUID fetches a video by its stable identifier.
func (s *Store) GetByUUID(ctx context.Context, id string) (*Video, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE uuid = ?`, id)
	video, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get video by uuid: %w", err)
	}
	return video, nil
}

// FindBySourceURL returns the first video matching a source URL.
func (s *Store) FindBySourceURL(ctx context.Context, sourceURL string) (*Video, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+videoColumns+` FROM videos WHERE source_url = ? ORDER BY id LIMIT 1`,
		sourceURL,
	)
	video, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by source url: %w", err)
	}
	return video, nil
}

// Update persists changes to an existing video.
func (s *Store) Update(ctx context.Context, video *Video) error {
	if video == nil {
		return errors.New("video is nil")
	}
	video.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE videos
         SET title = ?, source_url = ?, file_path = ?, thumbnail_path = ?,
             audio_path = ?, transcript_path = ?, subtitle_path = ?, analysis_path = ?,
             summary = ?, suggested_title = ?, tags_json = ?, format = ?,
             duration_seconds = ?, size_bytes = ?, status = ?, error_message = ?,
             progress_phase = ?, progress_percent = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(video.Title),
		nullableString(video.SourceURL),
		nullableString(video.FilePath),
		nullableString(video.ThumbnailPath),
		nullableString(video.AudioPath),
		nullableString(video.TranscriptPath),
		nullableString(video.SubtitlePath),
		nullableString(video.AnalysisPath),
		nullableString(video.Summary),
		nullableString(video.SuggestedTitle),
		nullableString(video.TagsJSON),
		nullableString(video.Format),
		video.DurationSeconds,
		video.SizeBytes,
		video.Status,
		nullableString(video.ErrorMessage),
		nullableString(video.ProgressPhase),
		video.ProgressPercent,
		video.UpdatedAt.Format(time.RFC3339Nano),
		video.ID,
	)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	return nil
}

// List returns videos filtered by status set (or all videos when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Video, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + videoColumns + ` FROM videos`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

// NextForStatuses returns the oldest video matching any of the provided statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Video, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}

	query := `SELECT ` + videoColumns + ` FROM videos WHERE status IN (` + placeholders + `) ORDER BY created_at LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, args...)
	video, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return video, nil
}

// ResetStuckProcessing resets videos left in processing states back to their
// last stable status after an unclean shutdown.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	var total int64

	transitions := []struct {
		from Status
		to   Status
	}{
		{from: StatusDownloading, to: StatusPending},
		{from: StatusTranscribing, to: StatusDownloaded},
		{from: StatusAnalyzing, to: StatusTranscribed},
	}
	for _, transition := range transitions {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE videos
             SET status = ?, progress_phase = NULL, progress_percent = 0, updated_at = ?
             WHERE status = ?`,
			transition.to,
			timestamp,
			transition.from,
		)
		if err != nil {
			return total, fmt.Errorf("reset stuck videos: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected: %w", err)
		}
		total += affected
	}
	return total, nil
}

// RetryFailed moves failed videos back to pending for reprocessing.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if len(ids) == 0 {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE videos
            SET status = ?, progress_phase = NULL, progress_percent = 0,
                error_message = NULL, updated_at = ?
            WHERE status = ?`,
			StatusPending,
			timestamp,
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed videos: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+2)
	args = append(args, StatusPending, timestamp)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE videos
        SET status = ?, progress_phase = NULL, progress_percent = 0,
            error_message = NULL, updated_at = ?
        WHERE id IN (` + placeholders + `) AND status = '` + string(StatusFailed) + `'`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected videos: %w", err)
	}
	return res.RowsAffected()
}

// Remove deletes a video by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete video: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns a count of videos grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM videos GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("library stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates library state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusFailed:
			health.Failed += count
		case StatusAnalyzed:
			health.Analyzed += count
		default:
			if _, ok := processingStatuses[status]; ok {
				health.Processing += count
			}
		}
	}
	return health, nil
}

// CheckHealth returns diagnostic information about the library database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("library database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat library database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("library database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("library database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping library database: %w", err)
	}
	health.DatabaseReadable = true

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'videos'")
	if err := row.Scan(&tableName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			health.TableExists = false
		} else {
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		}
	} else {
		health.TableExists = true
	}

	if health.TableExists {
		colsRows, err := s.db.QueryContext(connCtx, "PRAGMA table_info(videos)")
		if err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("table info: %w", err)
		}
		defer colsRows.Close()

		var columns []string
		for colsRows.Next() {
			var (
				cid     int
				name    string
				typeStr string
				notNull int
				dflt    any
				pk      int
			)
			if err := colsRows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
				health.Error = err.Error()
				return health, fmt.Errorf("scan table info: %w", err)
			}
			columns = append(columns, name)
		}
		if err := colsRows.Err(); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("iterate table info: %w", err)
		}
		health.ColumnsPresent = append(health.ColumnsPresent, columns...)

		expected := []string{
			"id", "uuid", "title", "source_url", "file_path", "thumbnail_path",
			"audio_path", "transcript_path", "subtitle_path", "analysis_path",
			"summary", "suggested_title", "tags_json", "format",
			"duration_seconds", "size_bytes", "status", "error_message",
			"progress_phase", "progress_percent", "created_at", "updated_at",
		}
		missingMap := make(map[string]struct{}, len(expected))
		for _, col := range expected {
			missingMap[col] = struct{}{}
		}
		for _, col := range columns {
			delete(missingMap, col)
		}
		for col := range missingMap {
			health.MissingColumns = append(health.MissingColumns, col)
		}

		row = s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM videos")
		if err := row.Scan(&health.TotalVideos); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count videos: %w", err)
		}
	}

	row = s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}

const videoColumns = "id, uuid, title, source_url, file_path, thumbnail_path, audio_path, transcript_path, subtitle_path, analysis_path, summary, suggested_title, tags_json, format, duration_seconds, size_bytes, status, error_message, progress_phase, progress_percent, created_at, updated_at"

func scanVideo(scanner interface{ Scan(dest ...any) error }) (*Video, error) {
	var (
		id              int64
		uuidStr         string
		title           sql.NullString
		sourceURL       sql.NullString
		filePath        sql.NullString
		thumbnailPath   sql.NullString
		audioPath       sql.NullString
		transcriptPath  sql.NullString
		subtitlePath    sql.NullString
		analysisPath    sql.NullString
		summary         sql.NullString
		suggestedTitle  sql.NullString
		tagsJSON        sql.NullString
		format          sql.NullString
		duration        sql.NullFloat64
		sizeBytes       sql.NullInt64
		statusStr       string
		errorMessage    sql.NullString
		progressPhase   sql.NullString
		progressPercent sql.NullFloat64
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&uuidStr,
		&title,
		&sourceURL,
		&filePath,
		&thumbnailPath,
		&audioPath,
		&transcriptPath,
		&subtitlePath,
		&analysisPath,
		&summary,
		&suggestedTitle,
		&tagsJSON,
		&format,
		&duration,
		&sizeBytes,
		&statusStr,
		&errorMessage,
		&progressPhase,
		&progressPercent,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	video := &Video{
		ID:              id,
		UUID:            uuidStr,
		Title:           title.String,
		SourceURL:       sourceURL.String,
		FilePath:        filePath.String,
		ThumbnailPath:   thumbnailPath.String,
		AudioPath:       audioPath.String,
		TranscriptPath:  transcriptPath.String,
		SubtitlePath:    subtitlePath.String,
		AnalysisPath:    analysisPath.String,
		Summary:         summary.String,
		SuggestedTitle:  suggestedTitle.String,
		TagsJSON:        tagsJSON.String,
		Format:          format.String,
		DurationSeconds: duration.Float64,
		SizeBytes:       sizeBytes.Int64,
		Status:          Status(statusStr),
		ErrorMessage:    errorMessage.String,
		ProgressPhase:   progressPhase.String,
		ProgressPercent: progressPercent.Float64,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		video.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		video.UpdatedAt = updated
	}
	return video, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func inferTitleFromPath(path string) string {
	base := strings.TrimSpace(filepath.Base(path))
	if base == "" {
		return "Imported Video"
	}
	ext := filepath.Ext(base)
	base = strings.TrimSuffix(base, ext)
	cleaned := strings.TrimSpace(base)
	if cleaned == "" {
		return "Imported Video"
	}
	return cleaned
}
