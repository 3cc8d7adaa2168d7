package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const mediaColumns = "id, user_id, media_type, storage_key, original_filename, taken_at, location_lat, location_lng, duration_seconds, thumbnail_key, analysis_status, analysis_error, ai_analysis_json, concert_id, created_at, updated_at"

// CreateMediaItem inserts a freshly uploaded media item in pending state.
func (s *Store) CreateMediaItem(ctx context.Context, item *MediaItem) (*MediaItem, error) {
	if item == nil {
		return nil, errors.New("media item is nil")
	}
	if strings.TrimSpace(item.UserID) == "" {
		return nil, errors.New("media item requires a user id")
	}
	if _, ok := ParseMediaType(string(item.MediaType)); !ok {
		return nil, fmt.Errorf("unknown media type %q", item.MediaType)
	}
	if strings.TrimSpace(item.StorageKey) == "" {
		return nil, errors.New("media item requires a storage key")
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO media_items (
            id, user_id, media_type, storage_key, original_filename,
            taken_at, location_lat, location_lng, duration_seconds,
            analysis_status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.UserID,
		string(item.MediaType),
		item.StorageKey,
		nullableString(item.OriginalFilename),
		nullableTime(item.TakenAt),
		nullableFloat(item.LocationLat),
		nullableFloat(item.LocationLng),
		nullableFloat(item.DurationSeconds),
		string(StatusPending),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert media item: %w", err)
	}
	return s.GetMediaItem(ctx, item.ID)
}

// GetMediaItem fetches a media item by identifier.
func (s *Store) GetMediaItem(ctx context.Context, id string) (*MediaItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM media_items WHERE id = ?`, id)
	item, err := scanMediaItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get media item: %w", err)
	}
	return item, nil
}

// ListMediaByStatus returns up to limit media items in the given status,
// oldest first.
func (s *Store) ListMediaByStatus(ctx context.Context, status Status, limit int) ([]*MediaItem, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+mediaColumns+` FROM media_items WHERE analysis_status = ? ORDER BY created_at ASC LIMIT ?`,
		string(status), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list media by status: %w", err)
	}
	defer rows.Close()

	var items []*MediaItem
	for rows.Next() {
		item, err := scanMediaItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListMediaForUser returns a user's media items, newest first.
func (s *Store) ListMediaForUser(ctx context.Context, userID string, limit int) ([]*MediaItem, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+mediaColumns+` FROM media_items WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list media for user: %w", err)
	}
	defer rows.Close()

	var items []*MediaItem
	for rows.Next() {
		item, err := scanMediaItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// StartAnalysis moves an item into processing and clears any prior error and
// analysis payload from an earlier run. Allowed from pending and from the
// terminal states (an explicit re-analysis request).
func (s *Store) StartAnalysis(ctx context.Context, id string) (*MediaItem, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE media_items
         SET analysis_status = ?, analysis_error = NULL, updated_at = ?
         WHERE id = ? AND analysis_status IN (?, ?, ?)`,
		string(StatusProcessing), now, id,
		string(StatusPending), string(StatusCompleted), string(StatusFailed),
	)
	if err != nil {
		return nil, fmt.Errorf("start analysis: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("start analysis rows: %w", err)
	}
	if affected == 0 {
		current, getErr := s.GetMediaItem(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.AnalysisStatus, StatusProcessing)
	}
	return s.GetMediaItem(ctx, id)
}

// FinishAnalysis moves a processing item into a terminal state. The error
// message is persisted only for failures.
func (s *Store) FinishAnalysis(ctx context.Context, id string, status Status, errorMessage string) error {
	if status != StatusCompleted && status != StatusFailed {
		return fmt.Errorf("%w: terminal status must be completed or failed, got %s", ErrInvalidTransition, status)
	}
	if status == StatusCompleted {
		errorMessage = ""
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE media_items
         SET analysis_status = ?, analysis_error = ?, updated_at = ?
         WHERE id = ? AND analysis_status = ?`,
		string(status), nullableString(errorMessage), now, id, string(StatusProcessing),
	)
	if err != nil {
		return fmt.Errorf("finish analysis: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish analysis rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: item %s is not processing", ErrInvalidTransition, id)
	}
	return nil
}

// SaveExtractedMetadata persists capture metadata as soon as extraction finds
// it, so partial progress survives later pipeline failures. Nil fields leave
// the stored values untouched.
func (s *Store) SaveExtractedMetadata(ctx context.Context, id string, takenAt *time.Time, lat, lng, durationSeconds *float64) error {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	if takenAt != nil {
		sets = append(sets, "taken_at = ?")
		args = append(args, nullableTime(takenAt))
	}
	if lat != nil && lng != nil {
		sets = append(sets, "location_lat = ?", "location_lng = ?")
		args = append(args, *lat, *lng)
	}
	if durationSeconds != nil {
		sets = append(sets, "duration_seconds = ?")
		args = append(args, *durationSeconds)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC().Format(time.RFC3339Nano), id)

	query := "UPDATE media_items SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := s.execWithRetry(ctx, query, args...); err != nil {
		return fmt.Errorf("save extracted metadata: %w", err)
	}
	return nil
}

// SetThumbnail records the object-store key of a generated video thumbnail.
func (s *Store) SetThumbnail(ctx context.Context, id, thumbnailKey string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE media_items SET thumbnail_key = ?, updated_at = ? WHERE id = ?`,
		thumbnailKey, now, id,
	); err != nil {
		return fmt.Errorf("set thumbnail: %w", err)
	}
	return nil
}

// SaveAnalysisPayload stores the combined analysis result (visual analysis,
// provenance flags, match metadata or suggestions) on the media item.
func (s *Store) SaveAnalysisPayload(ctx context.Context, id, payloadJSON string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE media_items SET ai_analysis_json = ?, updated_at = ? WHERE id = ?`,
		nullableString(payloadJSON), now, id,
	); err != nil {
		return fmt.Errorf("save analysis payload: %w", err)
	}
	return nil
}

// AssignConcert links a media item to a concert. An empty concert ID clears
// the link (user un-assignment).
func (s *Store) AssignConcert(ctx context.Context, id, concertID string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE media_items SET concert_id = ?, updated_at = ? WHERE id = ?`,
		nullableString(concertID), now, id,
	); err != nil {
		return fmt.Errorf("assign concert: %w", err)
	}
	return nil
}

// FailOrphanedProcessing marks items stuck in processing as failed. Called on
// daemon startup: a pipeline run does not survive a process restart, so
// anything still processing was interrupted.
func (s *Store) FailOrphanedProcessing(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE media_items
         SET analysis_status = ?, analysis_error = ?, updated_at = ?
         WHERE analysis_status = ?`,
		string(StatusFailed), RestartReason, now, string(StatusProcessing),
	)
	if err != nil {
		return 0, fmt.Errorf("fail orphaned processing: %w", err)
	}
	return res.RowsAffected()
}

// DeleteUserData removes a user's media items and concerts.
func (s *Store) DeleteUserData(ctx context.Context, userID string) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM media_items WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete user media: %w", err)
	}
	if _, err := s.execWithRetry(ctx, `DELETE FROM concerts WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete user concerts: %w", err)
	}
	return nil
}

func scanMediaItem(scanner interface{ Scan(dest ...any) error }) (*MediaItem, error) {
	var (
		id           string
		userID       string
		mediaType    string
		storageKey   string
		filename     sql.NullString
		takenAtRaw   sql.NullString
		lat          sql.NullFloat64
		lng          sql.NullFloat64
		duration     sql.NullFloat64
		thumbnailKey sql.NullString
		statusStr    string
		analysisErr  sql.NullString
		analysisJSON sql.NullString
		concertID    sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&userID,
		&mediaType,
		&storageKey,
		&filename,
		&takenAtRaw,
		&lat,
		&lng,
		&duration,
		&thumbnailKey,
		&statusStr,
		&analysisErr,
		&analysisJSON,
		&concertID,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &MediaItem{
		ID:               id,
		UserID:           userID,
		MediaType:        MediaType(mediaType),
		StorageKey:       storageKey,
		OriginalFilename: filename.String,
		ThumbnailKey:     thumbnailKey.String,
		AnalysisStatus:   Status(statusStr),
		AnalysisError:    analysisErr.String,
		AIAnalysisJSON:   analysisJSON.String,
		ConcertID:        concertID.String,
	}
	if takenAtRaw.Valid {
		if takenAt, err := parseTimeString(takenAtRaw.String); err == nil {
			item.TakenAt = &takenAt
		}
	}
	if lat.Valid && lng.Valid {
		latValue, lngValue := lat.Float64, lng.Float64
		item.LocationLat = &latValue
		item.LocationLng = &lngValue
	}
	if duration.Valid {
		durationValue := duration.Float64
		item.DurationSeconds = &durationValue
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}
