package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	dbutil "jukebox/internal/db"
)

// ErrNotFound is returned when an entry or track source does not exist.
var ErrNotFound = errors.New("library: not found")

// ErrNoFile is returned when a track source has no file blob stored.
var ErrNoFile = errors.New("library: track source has no file")

type Library struct {
	db *sql.DB
}

func New(db *sql.DB) *Library {
	return &Library{db: db}
}

// Node returns the entry with the given id, its immediate children in
// sort-key order, and each child's track source.
func (l *Library) Node(ctx context.Context, id int64) (Entry, error) {
	entry, err := l.scanEntry(ctx, id)
	if err != nil {
		return Entry{}, err
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT e.id, e.parent_id, e.variant, e.name, e.sort_key, e.played_at,
		       ts.id, ts.library_entry_id, ts.title, ts.url, ts.spotify_id, ts.spotify_type
		FROM library_entry e
		LEFT JOIN track_source ts ON ts.library_entry_id = e.id
		WHERE e.parent_id = ?
		ORDER BY e.sort_key ASC
	`, id)
	if err != nil {
		return Entry{}, fmt.Errorf("query children of %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		child, err := scanEntryRow(rows)
		if err != nil {
			return Entry{}, err
		}
		child.ParentName = entry.Name
		entry.Children = append(entry.Children, child)
	}
	return entry, rows.Err()
}

// TracksInParent flattens the subtree below parentID into the ordered list
// of playable entries: recursive descent skipping folders, ordered by each
// node's zero-padded sort-key path so the result matches a left-to-right,
// top-to-bottom walk of the tree.
func (l *Library) TracksInParent(ctx context.Context, parentID int64) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
		WITH RECURSIVE library_hierarchy AS (
			SELECT id, parent_id, variant, name, sort_key, played_at,
			       substr('0000' || sort_key, -4, 4) AS path
			FROM library_entry
			WHERE parent_id = ?

			UNION ALL

			SELECT le.id, le.parent_id, le.variant, le.name, le.sort_key, le.played_at,
			       lh.path || '.' || substr('0000' || le.sort_key, -4, 4)
			FROM library_entry le
			INNER JOIN library_hierarchy lh ON le.parent_id = lh.id
		)
		SELECT h.id, h.parent_id, h.variant, h.name, h.sort_key, h.played_at,
		       p.name,
		       ts.id, ts.library_entry_id, ts.title, ts.url, ts.spotify_id, ts.spotify_type
		FROM library_hierarchy h
		LEFT JOIN library_entry p ON p.id = h.parent_id
		LEFT JOIN track_source ts ON ts.library_entry_id = h.id
		WHERE h.variant != 'folder'
		ORDER BY h.path ASC
	`, parentID)
	if err != nil {
		return nil, fmt.Errorf("flatten parent %d: %w", parentID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			parentID   sql.NullInt64
			playedAt   sql.NullTime
			parentName sql.NullString
			tsID       sql.NullInt64
			tsEntryID  sql.NullInt64
			tsTitle    sql.NullString
			tsURL      sql.NullString
			tsSpotID   sql.NullString
			tsSpotType sql.NullString
		)
		if err := rows.Scan(&e.ID, &parentID, &e.Variant, &e.Name, &e.SortKey, &playedAt,
			&parentName, &tsID, &tsEntryID, &tsTitle, &tsURL, &tsSpotID, &tsSpotType); err != nil {
			return nil, err
		}
		e.ParentID = dbutil.NullInt64ToPtr(parentID)
		if playedAt.Valid {
			t := playedAt.Time
			e.PlayedAt = &t
		}
		e.ParentName = dbutil.NullStringValue(parentName)
		if tsID.Valid {
			e.Source = &TrackSource{
				ID:             tsID.Int64,
				LibraryEntryID: dbutil.NullInt64Value(tsEntryID),
				Title:          dbutil.NullStringValue(tsTitle),
				URL:            dbutil.NullStringValue(tsURL),
				SpotifyID:      dbutil.NullStringValue(tsSpotID),
				SpotifyType:    dbutil.NullStringValue(tsSpotType),
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkPlayed records when an entry was last played.
func (l *Library) MarkPlayed(ctx context.Context, id int64, at time.Time) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE library_entry SET played_at = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("mark played %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// FileBytes returns the stored file blob of a track source. Only called at
// the moment of playback; the blob is never loaded during tree traversal.
func (l *Library) FileBytes(ctx context.Context, trackSourceID int64) ([]byte, error) {
	var file []byte
	err := l.db.QueryRowContext(ctx,
		`SELECT file FROM track_source WHERE id = ?`, trackSourceID).Scan(&file)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load file for track source %d: %w", trackSourceID, err)
	}
	if len(file) == 0 {
		return nil, ErrNoFile
	}
	return file, nil
}

// CreateEntry inserts an entry (and its track source, if any) below parent.
// The admin backend owns full tree editing; this is the minimal insert used
// by seeding and tests.
func (l *Library) CreateEntry(ctx context.Context, e Entry) (int64, error) {
	var id int64
	err := dbutil.WithTx(l.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO library_entry (parent_id, variant, name, sort_key)
			VALUES (?, ?, ?, ?)
		`, dbutil.PtrToNullInt64(e.ParentID), e.Variant, e.Name, e.SortKey)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		if err != nil {
			return err
		}
		if e.Source == nil {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO track_source (library_entry_id, title, url, spotify_id, spotify_type)
			VALUES (?, ?, ?, ?, ?)
		`, id, e.Source.Title, nullString(e.Source.URL), nullString(e.Source.SpotifyID), nullString(e.Source.SpotifyType))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("create entry %q: %w", e.Name, err)
	}
	return id, nil
}

// SetFileBytes stores the file blob of a track source.
func (l *Library) SetFileBytes(ctx context.Context, trackSourceID int64, file []byte) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE track_source SET file = ? WHERE id = ?`, file, trackSourceID)
	if err != nil {
		return fmt.Errorf("store file for track source %d: %w", trackSourceID, err)
	}
	return nil
}

// TrackSourceID returns the id of the track source attached to an entry.
func (l *Library) TrackSourceID(ctx context.Context, entryID int64) (int64, error) {
	var id int64
	err := l.db.QueryRowContext(ctx,
		`SELECT id FROM track_source WHERE library_entry_id = ?`, entryID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}

func (l *Library) scanEntry(ctx context.Context, id int64) (Entry, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT e.id, e.parent_id, e.variant, e.name, e.sort_key, e.played_at,
		       ts.id, ts.library_entry_id, ts.title, ts.url, ts.spotify_id, ts.spotify_type
		FROM library_entry e
		LEFT JOIN track_source ts ON ts.library_entry_id = e.id
		WHERE e.id = ?
	`, id)
	e, err := scanEntryRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntryRow(row rowScanner) (Entry, error) {
	var (
		e          Entry
		parentID   sql.NullInt64
		playedAt   sql.NullTime
		tsID       sql.NullInt64
		tsEntryID  sql.NullInt64
		tsTitle    sql.NullString
		tsURL      sql.NullString
		tsSpotID   sql.NullString
		tsSpotType sql.NullString
	)
	if err := row.Scan(&e.ID, &parentID, &e.Variant, &e.Name, &e.SortKey, &playedAt,
		&tsID, &tsEntryID, &tsTitle, &tsURL, &tsSpotID, &tsSpotType); err != nil {
		return Entry{}, err
	}
	e.ParentID = dbutil.NullInt64ToPtr(parentID)
	if playedAt.Valid {
		t := playedAt.Time
		e.PlayedAt = &t
	}
	if tsID.Valid {
		e.Source = &TrackSource{
			ID:             tsID.Int64,
			LibraryEntryID: dbutil.NullInt64Value(tsEntryID),
			Title:          dbutil.NullStringValue(tsTitle),
			URL:            dbutil.NullStringValue(tsURL),
			SpotifyID:      dbutil.NullStringValue(tsSpotID),
			SpotifyType:    dbutil.NullStringValue(tsSpotType),
		}
	}
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
