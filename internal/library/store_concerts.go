package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const concertColumns = "id, user_id, concert_date, concert_end_date, tour_name, venue_name, venue_city, venue_lat, venue_lng"

// SaveConcert inserts or replaces a concert with its venue and artist list.
// Matching never writes concerts; this exists for ingestion and tests.
func (s *Store) SaveConcert(ctx context.Context, concert *Concert) (*Concert, error) {
	if concert == nil {
		return nil, errors.New("concert is nil")
	}
	if concert.UserID == "" {
		return nil, errors.New("concert requires a user id")
	}
	if concert.Date.IsZero() {
		return nil, errors.New("concert requires a date")
	}
	if concert.ID == "" {
		concert.ID = uuid.NewString()
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var venueName, venueCity any
	var venueLat, venueLng any
	if concert.Venue != nil {
		venueName = nullableString(concert.Venue.Name)
		venueCity = nullableString(concert.Venue.City)
		venueLat = nullableFloat(concert.Venue.Lat)
		venueLng = nullableFloat(concert.Venue.Lng)
	}

	tx, err := s.db.BeginTx(ensureContext(ctx), nil)
	if err != nil {
		return nil, fmt.Errorf("begin concert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO concerts (
            id, user_id, concert_date, concert_end_date, tour_name,
            venue_name, venue_city, venue_lat, venue_lng, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		concert.ID,
		concert.UserID,
		concert.Date.UTC().Format(time.RFC3339Nano),
		nullableTime(concert.EndDate),
		nullableString(concert.TourName),
		venueName,
		venueCity,
		venueLat,
		venueLng,
		now,
		now,
	); err != nil {
		return nil, fmt.Errorf("insert concert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM concert_artists WHERE concert_id = ?`, concert.ID); err != nil {
		return nil, fmt.Errorf("clear concert artists: %w", err)
	}
	for i, artist := range concert.Artists {
		position := artist.Position
		if position == 0 {
			position = i + 1
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO concert_artists (concert_id, position, name, mbid, headliner) VALUES (?, ?, ?, ?, ?)`,
			concert.ID, position, artist.Name, nullableString(artist.MBID), boolToInt(artist.Headliner),
		); err != nil {
			return nil, fmt.Errorf("insert concert artist: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit concert: %w", err)
	}
	return s.GetConcert(ctx, concert.ID)
}

// GetConcert fetches a concert with its artists.
func (s *Store) GetConcert(ctx context.Context, id string) (*Concert, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+concertColumns+` FROM concerts WHERE id = ?`, id)
	concert, err := scanConcert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get concert: %w", err)
	}
	if err := s.attachArtists(ctx, []*Concert{concert}); err != nil {
		return nil, err
	}
	return concert, nil
}

// ConcertsInWindow returns a user's concerts whose date range overlaps
// [from, to], ordered by date. This is the cheap candidate pre-filter; the
// match engine applies precise per-concert date buffering afterwards.
func (s *Store) ConcertsInWindow(ctx context.Context, userID string, from, to time.Time) ([]*Concert, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+concertColumns+` FROM concerts
         WHERE user_id = ?
           AND concert_date <= ?
           AND COALESCE(concert_end_date, concert_date) >= ?
         ORDER BY concert_date ASC, id ASC`,
		userID,
		to.UTC().Format(time.RFC3339Nano),
		from.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("concerts in window: %w", err)
	}
	defer rows.Close()

	var concerts []*Concert
	for rows.Next() {
		concert, err := scanConcert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan concert: %w", err)
		}
		concerts = append(concerts, concert)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachArtists(ctx, concerts); err != nil {
		return nil, err
	}
	return concerts, nil
}

// UpdateArtistMBID stores a resolved MusicBrainz identifier on a concert
// artist. Enrichment only; failures upstream leave the column null.
func (s *Store) UpdateArtistMBID(ctx context.Context, concertID string, position int, mbid string) error {
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE concert_artists SET mbid = ? WHERE concert_id = ? AND position = ?`,
		nullableString(mbid), concertID, position,
	); err != nil {
		return fmt.Errorf("update artist mbid: %w", err)
	}
	return nil
}

func (s *Store) attachArtists(ctx context.Context, concerts []*Concert) error {
	for _, concert := range concerts {
		rows, err := s.db.QueryContext(
			ctx,
			`SELECT position, name, mbid, headliner FROM concert_artists WHERE concert_id = ? ORDER BY position ASC`,
			concert.ID,
		)
		if err != nil {
			return fmt.Errorf("load concert artists: %w", err)
		}
		for rows.Next() {
			var (
				position  int
				name      string
				mbid      sql.NullString
				headliner int
			)
			if err := rows.Scan(&position, &name, &mbid, &headliner); err != nil {
				rows.Close()
				return fmt.Errorf("scan concert artist: %w", err)
			}
			concert.Artists = append(concert.Artists, ConcertArtist{
				Name:      name,
				MBID:      mbid.String,
				Headliner: headliner != 0,
				Position:  position,
			})
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()
	}
	return nil
}

func scanConcert(scanner interface{ Scan(dest ...any) error }) (*Concert, error) {
	var (
		id         string
		userID     string
		dateRaw    string
		endDateRaw sql.NullString
		tourName   sql.NullString
		venueName  sql.NullString
		venueCity  sql.NullString
		venueLat   sql.NullFloat64
		venueLng   sql.NullFloat64
	)
	if err := scanner.Scan(&id, &userID, &dateRaw, &endDateRaw, &tourName, &venueName, &venueCity, &venueLat, &venueLng); err != nil {
		return nil, err
	}

	concert := &Concert{
		ID:       id,
		UserID:   userID,
		TourName: tourName.String,
	}
	if date, err := parseTimeString(dateRaw); err == nil {
		concert.Date = date
	}
	if endDateRaw.Valid {
		if endDate, err := parseTimeString(endDateRaw.String); err == nil {
			concert.EndDate = &endDate
		}
	}
	if venueName.Valid || venueCity.Valid || venueLat.Valid {
		venue := &Venue{Name: venueName.String, City: venueCity.String}
		if venueLat.Valid && venueLng.Valid {
			lat, lng := venueLat.Float64, venueLng.Float64
			venue.Lat = &lat
			venue.Lng = &lng
		}
		concert.Venue = venue
	}
	return concert, nil
}
