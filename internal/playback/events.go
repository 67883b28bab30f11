package playback

import (
	"jukebox/internal/library"
	"jukebox/internal/player"
)

// TrackChange is emitted when playback starts on a different entry.
//
// Entry is nil when a finished track had no successor: this distinguishes
// "queue exhausted, playback stopped" from the brief gap between tracks,
// during which no TrackChange fires at all.
type TrackChange struct {
	Entry *library.Entry
}

// StateChange is emitted when the playing flag flips (pause/resume).
type StateChange struct {
	Playing bool
}

// ProgressChange is emitted on every optimistic tick, every successful
// correction tick, after seeks, and when a track starts. Consumers must be
// idempotent to duplicate notifications of the same state.
type ProgressChange struct {
	Progress player.Progress
}

// TrackEnd is emitted when a track finishes naturally. The surrounding
// layer uses it to mark the entry played in the library.
type TrackEnd struct {
	Entry library.Entry
}

// ErrorEvent is emitted when a playback operation fails.
type ErrorEvent struct {
	Op  string // e.g. "play", "seek"
	Err error
}
