// Package library implements the jukebox media library: a tree of folders,
// local files, internet radio streams and Spotify references stored in
// sqlite, plus the runtime config tables (volume, Spotify credentials).
package library

import "time"

// Variant describes what kind of node a library entry is.
type Variant string

const (
	VariantFolder  Variant = "folder"
	VariantStream  Variant = "stream"
	VariantFile    Variant = "file"
	VariantSpotify Variant = "spotify"
)

// Playable returns true for entries that can be handed to a play target.
func (v Variant) Playable() bool {
	return v == VariantStream || v == VariantFile || v == VariantSpotify
}

// TrackSource is the variant-specific playback locator attached to a
// non-folder entry. Exactly one of URL, the file blob (fetched lazily via
// FileBytes) or the Spotify pair is set, depending on the entry variant.
type TrackSource struct {
	ID             int64
	LibraryEntryID int64
	Title          string
	URL            string
	SpotifyID      string
	SpotifyType    string
}

// Entry is one node in the library tree. Instances are immutable snapshots:
// the player copies them around by value and never writes back.
type Entry struct {
	ID         int64
	ParentID   *int64
	Variant    Variant
	Name       string
	SortKey    int
	PlayedAt   *time.Time
	ParentName string

	// Children is populated by Node for immediate children only.
	Children []Entry
	// Source is populated for non-folder entries.
	Source *TrackSource
}
