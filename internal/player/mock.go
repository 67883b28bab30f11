package player

import (
	"context"
	"time"

	"jukebox/internal/library"
)

// Mock is a test double for Target. It records every call in order and can
// be primed with per-operation errors and a progress value.
type Mock struct {
	calls     []string
	playCalls []library.Entry
	seekCalls []time.Duration
	volumes   []float64

	playErr     error
	queueErr    error
	stopErr     error
	pauseErr    error
	resumeErr   error
	seekErr     error
	volumeErr   error
	progress    Progress
	progressErr error
}

// NewMock creates a new mock target for testing.
func NewMock() *Mock {
	return &Mock{progress: DefaultProgress()}
}

func (m *Mock) Play(_ context.Context, entry library.Entry) error {
	m.calls = append(m.calls, "play")
	m.playCalls = append(m.playCalls, entry)
	return m.playErr
}

func (m *Mock) Queue(_ context.Context, entry library.Entry) error {
	m.calls = append(m.calls, "queue")
	m.playCalls = append(m.playCalls, entry)
	return m.queueErr
}

func (m *Mock) Pause(_ context.Context) error {
	m.calls = append(m.calls, "pause")
	return m.pauseErr
}

func (m *Mock) Resume(_ context.Context) error {
	m.calls = append(m.calls, "resume")
	return m.resumeErr
}

func (m *Mock) Stop(_ context.Context) error {
	m.calls = append(m.calls, "stop")
	return m.stopErr
}

func (m *Mock) SeekTo(_ context.Context, position time.Duration) error {
	m.calls = append(m.calls, "seek")
	m.seekCalls = append(m.seekCalls, position)
	return m.seekErr
}

func (m *Mock) SetVolume(_ context.Context, level float64) error {
	m.calls = append(m.calls, "volume")
	m.volumes = append(m.volumes, level)
	return m.volumeErr
}

func (m *Mock) Progress(_ context.Context) (Progress, error) {
	m.calls = append(m.calls, "progress")
	if m.progressErr != nil {
		return Progress{}, m.progressErr
	}
	return m.progress, nil
}

// Test helpers

func (m *Mock) Calls() []string { return m.calls }

func (m *Mock) PlayCalls() []library.Entry { return m.playCalls }

func (m *Mock) SeekCalls() []time.Duration { return m.seekCalls }

func (m *Mock) Volumes() []float64 { return m.volumes }

func (m *Mock) SetPlayError(err error) { m.playErr = err }

func (m *Mock) SetQueueError(err error) { m.queueErr = err }

func (m *Mock) SetStopError(err error) { m.stopErr = err }

func (m *Mock) SetPauseError(err error) { m.pauseErr = err }

func (m *Mock) SetResumeError(err error) { m.resumeErr = err }

func (m *Mock) SetSeekError(err error) { m.seekErr = err }

func (m *Mock) SetProgress(p Progress) { m.progress = p }

func (m *Mock) SetProgressError(err error) { m.progressErr = err }

// Verify Mock implements Target at compile time.
var _ Target = (*Mock)(nil)
