// Package player implements the playback targets of the jukebox: local file
// decode, remote stream decode and Spotify remote control, all behind one
// Target contract.
package player

import "time"

// nonFiniteDuration is the duration sentinel for streams without a known
// end, e.g. live internet radio. Far beyond any real track.
const nonFiniteDuration = 10 * 365 * 24 * time.Hour

// Progress is the playback position of one track.
type Progress struct {
	Position time.Duration
	Duration time.Duration
	// Finite is false for streams with unbounded duration (live radio).
	Finite bool
}

// DefaultProgress returns the progress a track starts with before the
// target has reported anything.
func DefaultProgress() Progress {
	return Progress{Position: 0, Duration: time.Second, Finite: true}
}

// nonFiniteProgress returns the progress used for unbounded streams.
func nonFiniteProgress(position time.Duration) Progress {
	return Progress{Position: position, Duration: nonFiniteDuration, Finite: false}
}

// Percent returns the completed percentage (0-100).
// Non-finite streams always report 100% so the UI renders a full bar and
// still allows seeking back on sources that support it.
func (p Progress) Percent() float64 {
	if !p.Finite || p.Duration <= 0 {
		return 100
	}
	return p.Position.Seconds() / p.Duration.Seconds() * 100
}
