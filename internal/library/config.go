package library

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbutil "jukebox/internal/db"
)

// SpotifyCredentials holds the persisted Spotify app and token state.
// ClientID and ClientSecret come from the admin setup flow; the token
// fields are written both by the external OAuth callback and by the
// background refresh loop.
type SpotifyCredentials struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // zero when unknown
}

// ConfigStore reads and writes the single-row runtime config tables.
type ConfigStore struct {
	db *sql.DB
}

func NewConfigStore(db *sql.DB) *ConfigStore {
	return &ConfigStore{db: db}
}

// Volume returns the persisted output volume (0-100).
func (s *ConfigStore) Volume(ctx context.Context) (uint8, error) {
	var volume int
	err := s.db.QueryRowContext(ctx,
		`SELECT volume FROM system_config WHERE id = 1`).Scan(&volume)
	if err != nil {
		return 0, fmt.Errorf("read volume: %w", err)
	}
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	return uint8(volume), nil
}

// SetVolume persists the output volume (0-100).
func (s *ConfigStore) SetVolume(ctx context.Context, volume uint8) error {
	if volume > 100 {
		volume = 100
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE system_config SET volume = ? WHERE id = 1`, volume)
	if err != nil {
		return fmt.Errorf("write volume: %w", err)
	}
	return nil
}

// SpotifyCredentials returns the persisted Spotify config.
func (s *ConfigStore) SpotifyCredentials(ctx context.Context) (SpotifyCredentials, error) {
	var (
		creds        SpotifyCredentials
		accessToken  sql.NullString
		refreshToken sql.NullString
		expiredAt    sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT client_id, secret_key, access_token, refresh_token, expired_at
		FROM spotify_config WHERE id = 1
	`).Scan(&creds.ClientID, &creds.ClientSecret, &accessToken, &refreshToken, &expiredAt)
	if err != nil {
		return SpotifyCredentials{}, fmt.Errorf("read spotify config: %w", err)
	}
	creds.AccessToken = dbutil.NullStringValue(accessToken)
	creds.RefreshToken = dbutil.NullStringValue(refreshToken)
	if expiredAt.Valid {
		creds.ExpiresAt = expiredAt.Time
	}
	return creds, nil
}

// SaveSpotifyCredentials persists the Spotify config, overwriting all fields.
func (s *ConfigStore) SaveSpotifyCredentials(ctx context.Context, creds SpotifyCredentials) error {
	var expiredAt sql.NullTime
	if !creds.ExpiresAt.IsZero() {
		expiredAt = sql.NullTime{Time: creds.ExpiresAt.UTC(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE spotify_config
		SET client_id = ?, secret_key = ?, access_token = ?, refresh_token = ?, expired_at = ?
		WHERE id = 1
	`, creds.ClientID, creds.ClientSecret,
		nullString(creds.AccessToken), nullString(creds.RefreshToken), expiredAt)
	if err != nil {
		return fmt.Errorf("write spotify config: %w", err)
	}
	return nil
}
