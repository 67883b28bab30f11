package playback

import (
	"jukebox/internal/library"
	"jukebox/internal/player"
)

// Track is the single currently-playing unit: an entry snapshot, the target
// playing it, the playing flag, and the tracked progress. At most one Track
// exists at a time, guarded by the service mutex, and it is replaced
// wholesale on every track change.
type Track struct {
	Entry    library.Entry
	Target   player.Target
	Playing  bool
	Progress player.Progress
}
