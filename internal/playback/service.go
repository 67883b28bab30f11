package playback

import (
	"context"

	"jukebox/internal/library"
	"jukebox/internal/player"
)

// TrackLister is the library collaborator: it flattens a folder into the
// ordered list of playable entries below it.
type TrackLister interface {
	TracksInParent(ctx context.Context, parentID int64) ([]library.Entry, error)
}

// Targets bundles the three playback backends the service dispatches to.
type Targets struct {
	Local   player.Target
	Remote  player.Target
	Spotify player.Target
}

// Service defines the playback service contract.
//
// Play operations return the entry that started playing, or nil when there
// was nothing to play (a no-op, not an error). SeekTo returns the progress
// after the seek, or nil when no track is active.
type Service interface {
	// Playback control
	PlayFolder(ctx context.Context, parentID int64, startID *int64) (*library.Entry, error)
	PlayQueue(ctx context.Context, entries []library.Entry) (*library.Entry, error)
	Next(ctx context.Context) (*library.Entry, error)
	Previous(ctx context.Context) (*library.Entry, error)
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	SeekTo(ctx context.Context, percent float64) (*player.Progress, error)
	SetVolume(ctx context.Context, level float64) error

	// State queries
	Current() (Track, bool)

	// Event subscription
	Subscribe() *Subscription

	// Lifecycle
	Close() error
}
