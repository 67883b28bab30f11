package player

import (
	"context"
	"errors"
	"time"

	"jukebox/internal/library"
)

// Sentinel errors shared by the targets.
var (
	// ErrNoHandle is returned by transport operations when no sound is
	// currently loaded on the target.
	ErrNoHandle = errors.New("player: no active sound handle")
	// ErrNotSeekable is returned when seeking a live stream without a
	// known length.
	ErrNotSeekable = errors.New("player: stream is not seekable")
	// ErrNoSource is returned when an entry lacks the track source fields
	// this target needs.
	ErrNoSource = errors.New("player: entry has no usable track source")
)

// Target is the capability contract shared by the three playback backends.
// Implementations are safe to share by pointer: holding several references
// never duplicates the underlying device or connection.
//
// Play tears down any prior handle before starting the new entry. Queue is
// best-effort pre-staging; backends without real queueing succeed without
// doing anything. The remaining transport operations fail with ErrNoHandle
// (or a backend error) when nothing is loaded.
type Target interface {
	Play(ctx context.Context, entry library.Entry) error
	Queue(ctx context.Context, entry library.Entry) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop(ctx context.Context) error
	SeekTo(ctx context.Context, position time.Duration) error
	// SetVolume takes a normalized 0.0-1.0 amplitude. Backends with
	// logarithmic or percentage controls convert it themselves.
	SetVolume(ctx context.Context, level float64) error
	Progress(ctx context.Context) (Progress, error)
}
