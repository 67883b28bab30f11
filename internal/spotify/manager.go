// Package spotify manages the Spotify Web API credentials: it serves the
// live access token to HTTP clients, picks up credential changes written to
// the database by other tools, and keeps the token fresh in the background.
package spotify

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"jukebox/internal/library"
)

const (
	configPollInterval  = 5 * time.Second
	refreshInitialDelay = 15 * time.Second
	refreshInterval     = 360 * time.Second
)

// CredentialStore persists the OAuth credential set. Implemented by
// library.ConfigStore.
type CredentialStore interface {
	SpotifyCredentials(ctx context.Context) (library.SpotifyCredentials, error)
	SaveSpotifyCredentials(ctx context.Context, creds library.SpotifyCredentials) error
}

// Manager holds the live OAuth token and hands it to API clients. Other
// processes may rewrite the stored credentials (a companion app handles the
// interactive authorization), so the manager polls the store and swaps the
// live token whenever the stored one changes.
type Manager struct {
	store CredentialStore
	log   *zap.Logger

	// tokenURL is overridable in tests; defaults to the Spotify accounts
	// endpoint.
	tokenURL string

	pollEvery    time.Duration
	refreshDelay time.Duration
	refreshEvery time.Duration

	mu           sync.Mutex
	clientID     string
	clientSecret string
	token        *oauth2.Token
}

// Manager serves tokens directly to oauth2.Transport.
var _ oauth2.TokenSource = (*Manager)(nil)

func NewManager(store CredentialStore, log *zap.Logger) *Manager {
	return &Manager{
		store:        store,
		log:          log,
		tokenURL:     spotifyauth.TokenURL,
		pollEvery:    configPollInterval,
		refreshDelay: refreshInitialDelay,
		refreshEvery: refreshInterval,
	}
}

// Load installs the stored credentials as the live token. Call once before
// building clients.
func (m *Manager) Load(ctx context.Context) error {
	creds, err := m.store.SpotifyCredentials(ctx)
	if err != nil {
		return fmt.Errorf("load spotify credentials: %w", err)
	}
	m.mu.Lock()
	m.install(creds)
	m.mu.Unlock()
	return nil
}

// install swaps the live token in from stored credentials. Caller holds mu.
func (m *Manager) install(creds library.SpotifyCredentials) {
	m.clientID = creds.ClientID
	m.clientSecret = creds.ClientSecret
	if creds.AccessToken == "" {
		m.token = nil
		return
	}
	m.token = &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       creds.ExpiresAt,
	}
}

// Token implements oauth2.TokenSource. It returns the live token as-is, even
// when expired: the background refresher owns renewal, and a stale token is
// better surfaced as an API 401 than blocked here.
func (m *Manager) Token() (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return nil, fmt.Errorf("no spotify token available")
	}
	tok := *m.token
	return &tok, nil
}

// Client builds an HTTP client backed by this manager. The transport asks
// the manager for the token on every request, so credential swaps from the
// config poll take effect immediately.
func (m *Manager) Client() *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: m,
			Base:   http.DefaultTransport,
		},
	}
}

// Run drives the two background loops until ctx is cancelled: a frequent
// poll for externally written credentials and a slow token refresh cycle.
func (m *Manager) Run(ctx context.Context) {
	go m.pollLoop(ctx)
	go m.refreshLoop(ctx)
}

func (m *Manager) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(m.pollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.pollOnce(ctx); err != nil {
				m.log.Warn("spotify credential poll failed", zap.Error(err))
			}
		}
	}
}

// pollOnce compares the stored credentials to the live token and swaps the
// live token when the stored one differs. This lets an external authorizer
// update tokens without restarting the jukebox.
func (m *Manager) pollOnce(ctx context.Context) error {
	creds, err := m.store.SpotifyCredentials(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	changed := m.token == nil && creds.AccessToken != ""
	if m.token != nil {
		changed = creds.AccessToken != m.token.AccessToken || !creds.ExpiresAt.Equal(m.token.Expiry)
	}
	if !changed {
		return nil
	}
	m.install(creds)
	m.log.Info("spotify token updated from store",
		zap.Time("expires_at", creds.ExpiresAt))
	return nil
}

func (m *Manager) refreshLoop(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(m.refreshDelay):
	}
	if err := m.refreshOnce(ctx); err != nil {
		m.log.Warn("spotify token refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(m.refreshEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.refreshOnce(ctx); err != nil {
				m.log.Warn("spotify token refresh failed", zap.Error(err))
			}
		}
	}
}

// refreshOnce exchanges the refresh token for a new access token and
// persists the result so other processes see the fresh credentials.
func (m *Manager) refreshOnce(ctx context.Context) error {
	m.mu.Lock()
	if m.token == nil || m.token.RefreshToken == "" {
		m.mu.Unlock()
		return fmt.Errorf("no refresh token available")
	}
	conf := &oauth2.Config{
		ClientID:     m.clientID,
		ClientSecret: m.clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: m.tokenURL,
		},
	}
	// Expire the copy so the token source performs a real refresh
	// instead of returning the current access token.
	stale := *m.token
	stale.Expiry = time.Now().Add(-time.Minute)
	m.mu.Unlock()

	fresh, err := conf.TokenSource(ctx, &stale).Token()
	if err != nil {
		return fmt.Errorf("refresh spotify token: %w", err)
	}
	if fresh.RefreshToken == "" {
		// Spotify usually omits the refresh token on renewal.
		fresh.RefreshToken = stale.RefreshToken
	}

	changed := fresh.AccessToken != stale.AccessToken || fresh.RefreshToken != stale.RefreshToken

	m.mu.Lock()
	m.token = fresh
	creds := library.SpotifyCredentials{
		ClientID:     m.clientID,
		ClientSecret: m.clientSecret,
		AccessToken:  fresh.AccessToken,
		RefreshToken: fresh.RefreshToken,
		ExpiresAt:    fresh.Expiry,
	}
	m.mu.Unlock()

	if !changed {
		// The endpoint handed back the token we already hold. Nothing to
		// tell other processes about.
		return nil
	}
	if err := m.store.SaveSpotifyCredentials(ctx, creds); err != nil {
		return fmt.Errorf("persist refreshed spotify token: %w", err)
	}
	m.log.Info("spotify token refreshed",
		zap.Time("expires_at", fresh.Expiry))
	return nil
}
