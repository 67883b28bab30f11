package player

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"

	"jukebox/internal/library"
)

// Spotify remote-controls whatever playback device the linked account has
// available. There is no local audio pipeline: every operation is a Web API
// call against the resolved device.
//
// Known quirk: for about a second after Play the API still reports the
// previous item's position. Callers must not trust Progress in that window;
// the orchestrator resets the position to zero after starting a track.
type Spotify struct {
	client *spotify.Client
	// http is the same authenticated client the API wrapper runs on, kept
	// for the one endpoint the wrapper narrows to tracks (add-to-queue).
	http       *http.Client
	deviceName string
	log        *zap.Logger

	mu       sync.Mutex
	deviceID *spotify.ID
}

var _ Target = (*Spotify)(nil)

// NewSpotify creates the remote-control target on an authenticated HTTP
// client. deviceName is this application's advertised device name,
// preferred when resolving where to play.
func NewSpotify(httpClient *http.Client, deviceName string, log *zap.Logger) *Spotify {
	return &Spotify{
		client:     spotify.New(httpClient),
		http:       httpClient,
		deviceName: deviceName,
		log:        log,
	}
}

// resolveDevice picks the playback device once per session: an active
// device carrying our own name wins, otherwise the first one listed.
func (t *Spotify) resolveDevice(ctx context.Context) (*spotify.ID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.deviceID != nil {
		return t.deviceID, nil
	}

	devices, err := t.client.PlayerDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no spotify devices available")
	}

	device := devices[0]
	for _, d := range devices {
		if d.Active && strings.Contains(d.Name, t.deviceName) {
			device = d
			break
		}
	}
	t.deviceID = &device.ID
	t.log.Debug("resolved spotify device",
		zap.String("name", device.Name),
		zap.String("id", device.ID.String()),
		zap.Bool("active", device.Active))
	return t.deviceID, nil
}

func (t *Spotify) Play(ctx context.Context, entry library.Entry) error {
	id, err := playbackID(entry)
	if err != nil {
		return err
	}
	deviceID, err := t.resolveDevice(ctx)
	if err != nil {
		return err
	}

	opts := &spotify.PlayOptions{DeviceID: deviceID}
	if id.context {
		opts.PlaybackContext = &id.uri
	} else {
		opts.URIs = []spotify.URI{id.uri}
	}
	if err := t.client.PlayOpt(ctx, opts); err != nil {
		return fmt.Errorf("start playback of %q: %w", entry.Name, err)
	}
	return nil
}

func (t *Spotify) Queue(ctx context.Context, entry library.Entry) error {
	id, err := playbackID(entry)
	if err != nil {
		return err
	}
	if id.context {
		return fmt.Errorf("cannot queue a context (%s)", entry.Source.SpotifyType)
	}
	deviceID, err := t.resolveDevice(ctx)
	if err != nil {
		return err
	}
	if entry.Source.SpotifyType == spotifyTypeTrack {
		if err := t.client.QueueSongOpt(ctx, spotify.ID(entry.Source.SpotifyID), &spotify.PlayOptions{DeviceID: deviceID}); err != nil {
			return fmt.Errorf("queue %q: %w", entry.Name, err)
		}
		return nil
	}
	// Episodes go through the raw endpoint: the wrapper only queues tracks.
	if err := t.queueURI(ctx, id.uri, deviceID); err != nil {
		return fmt.Errorf("queue %q: %w", entry.Name, err)
	}
	return nil
}

// queueURI adds any playable URI to the device queue via the Web API's
// add-to-queue endpoint.
func (t *Spotify) queueURI(ctx context.Context, uri spotify.URI, deviceID *spotify.ID) error {
	params := url.Values{}
	params.Set("uri", string(uri))
	if deviceID != nil {
		params.Set("device_id", deviceID.String())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.spotify.com/v1/me/player/queue?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := t.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("add to queue: unexpected status %s", resp.Status)
	}
	return nil
}

func (t *Spotify) Pause(ctx context.Context) error {
	deviceID, err := t.resolveDevice(ctx)
	if err != nil {
		return err
	}
	if err := t.client.PauseOpt(ctx, &spotify.PlayOptions{DeviceID: deviceID}); err != nil {
		return fmt.Errorf("pause playback: %w", err)
	}
	return nil
}

func (t *Spotify) Resume(ctx context.Context) error {
	deviceID, err := t.resolveDevice(ctx)
	if err != nil {
		return err
	}
	if err := t.client.PlayOpt(ctx, &spotify.PlayOptions{DeviceID: deviceID}); err != nil {
		return fmt.Errorf("resume playback: %w", err)
	}
	return nil
}

// Stop pauses: the Web API has no harder stop than that.
func (t *Spotify) Stop(ctx context.Context) error {
	return t.Pause(ctx)
}

func (t *Spotify) SeekTo(ctx context.Context, position time.Duration) error {
	deviceID, err := t.resolveDevice(ctx)
	if err != nil {
		return err
	}
	if err := t.client.SeekOpt(ctx, int(position.Milliseconds()), &spotify.PlayOptions{DeviceID: deviceID}); err != nil {
		return fmt.Errorf("seek to %s: %w", position, err)
	}
	return nil
}

// SetVolume converts the 0.0-1.0 amplitude to the API's 0-100 percentage.
func (t *Spotify) SetVolume(ctx context.Context, level float64) error {
	deviceID, err := t.resolveDevice(ctx)
	if err != nil {
		return err
	}
	percent := int(clampLevel(level) * 100)
	if err := t.client.VolumeOpt(ctx, percent, &spotify.PlayOptions{DeviceID: deviceID}); err != nil {
		return fmt.Errorf("set volume to %d%%: %w", percent, err)
	}
	return nil
}

func (t *Spotify) Progress(ctx context.Context) (Progress, error) {
	playing, err := t.client.PlayerCurrentlyPlaying(ctx)
	if err != nil {
		return Progress{}, fmt.Errorf("query current playback: %w", err)
	}
	if playing == nil {
		return Progress{}, fmt.Errorf("no current playback reported")
	}
	if playing.Item == nil {
		// Episodes and other item types are not surfaced by the
		// currently-playing endpoint model we use.
		return Progress{}, fmt.Errorf("current playback has no recognizable item")
	}
	return Progress{
		Position: time.Duration(playing.Progress) * time.Millisecond,
		Duration: time.Duration(playing.Item.Duration) * time.Millisecond,
		Finite:   true,
	}, nil
}

const (
	spotifyTypeTrack    = "track"
	spotifyTypeEpisode  = "episode"
	spotifyTypeAlbum    = "album"
	spotifyTypeArtist   = "artist"
	spotifyTypePlaylist = "playlist"
	spotifyTypeShow     = "show"
)

type spotifyPlayID struct {
	uri spotify.URI
	// context is true for identifiers that start context playback
	// (album, artist, playlist, show) instead of a single playable item.
	context bool
}

// playbackID maps an entry's (spotify_type, spotify_id) pair to the URI the
// playback API wants. Unknown types are terminal errors.
func playbackID(entry library.Entry) (spotifyPlayID, error) {
	if entry.Variant != library.VariantSpotify {
		return spotifyPlayID{}, fmt.Errorf("%w: %q is not a spotify entry", ErrNoSource, entry.Name)
	}
	if entry.Source == nil || entry.Source.SpotifyID == "" || entry.Source.SpotifyType == "" {
		return spotifyPlayID{}, fmt.Errorf("%w: %q has no spotify id", ErrNoSource, entry.Name)
	}

	uri := spotify.URI("spotify:" + entry.Source.SpotifyType + ":" + entry.Source.SpotifyID)
	switch entry.Source.SpotifyType {
	case spotifyTypeTrack, spotifyTypeEpisode:
		return spotifyPlayID{uri: uri, context: false}, nil
	case spotifyTypeAlbum, spotifyTypeArtist, spotifyTypePlaylist, spotifyTypeShow:
		return spotifyPlayID{uri: uri, context: true}, nil
	default:
		return spotifyPlayID{}, fmt.Errorf("unknown spotify type %q", entry.Source.SpotifyType)
	}
}
