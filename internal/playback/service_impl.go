package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"jukebox/internal/library"
	"jukebox/internal/player"
)

const (
	progressTickInterval   = 1000 * time.Millisecond
	correctionTickInterval = 5000 * time.Millisecond

	// defaultSettleDelay is how long a freshly started track gets to settle
	// before the first progress query. The Spotify API keeps reporting the
	// previous item's position for a moment after play.
	defaultSettleDelay = time.Second
)

// Verify serviceImpl implements Service at compile time.
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	mu sync.Mutex

	lib     TrackLister
	targets Targets
	log     *zap.Logger

	queue *Queue
	track *Track

	settleDelay time.Duration

	subs   []*Subscription
	subsMu sync.RWMutex

	done   chan struct{}
	closed bool
}

// New creates the playback service and starts its two background tickers.
func New(lib TrackLister, targets Targets, log *zap.Logger) Service {
	s := newService(lib, targets, log)
	go s.run()
	return s
}

func newService(lib TrackLister, targets Targets, log *zap.Logger) *serviceImpl {
	return &serviceImpl{
		lib:         lib,
		targets:     targets,
		log:         log,
		queue:       NewQueue(nil),
		settleDelay: defaultSettleDelay,
		done:        make(chan struct{}),
	}
}

// run drives the optimistic progress ticker and the slower correction
// ticker until Close.
func (s *serviceImpl) run() {
	progress := time.NewTicker(progressTickInterval)
	defer progress.Stop()
	correction := time.NewTicker(correctionTickInterval)
	defer correction.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-progress.C:
			s.tickProgress(context.Background())
		case <-correction.C:
			s.tickCorrection(context.Background())
		}
	}
}

// target maps an entry variant to its playback backend. Folders never reach
// playback: the queue is built from flattened playable entries only, so a
// folder here is an upstream invariant violation, failed but not fatal.
func (s *serviceImpl) target(variant library.Variant) (player.Target, error) {
	switch variant {
	case library.VariantFile:
		return s.targets.Local, nil
	case library.VariantStream:
		return s.targets.Remote, nil
	case library.VariantSpotify:
		return s.targets.Spotify, nil
	default:
		return nil, fmt.Errorf("no playback target for %q entries", variant)
	}
}

// PlayFolder flattens the folder's playable descendants, optionally drops
// everything before startID, installs the result as the new queue and
// starts on its first entry.
func (s *serviceImpl) PlayFolder(ctx context.Context, parentID int64, startID *int64) (*library.Entry, error) {
	entries, err := s.lib.TracksInParent(ctx, parentID)
	if err != nil {
		s.publishError("play", err)
		return nil, fmt.Errorf("flatten folder %d: %w", parentID, err)
	}
	if startID != nil {
		start := -1
		for i := range entries {
			if entries[i].ID == *startID {
				start = i
				break
			}
		}
		if start < 0 {
			entries = nil
		} else {
			entries = entries[start:]
		}
	}
	return s.PlayQueue(ctx, entries)
}

// PlayQueue replaces the queue and starts on its first entry.
func (s *serviceImpl) PlayQueue(ctx context.Context, entries []library.Entry) (*library.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = NewQueue(entries)
	return s.playNextLocked(ctx)
}

// Next plays the next queued entry, or returns (nil, nil) at the tail.
func (s *serviceImpl) Next(ctx context.Context) (*library.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playNextLocked(ctx)
}

// Previous plays the previous queued entry, or returns (nil, nil) at the
// head.
func (s *serviceImpl) Previous(ctx context.Context) (*library.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.queue.Prev()
	if entry == nil {
		return nil, nil
	}
	return s.startEntryLocked(ctx, entry)
}

func (s *serviceImpl) playNextLocked(ctx context.Context) (*library.Entry, error) {
	entry := s.queue.Next()
	if entry == nil {
		// Queue exhausted. If something was still playing, stop it: an
		// explicit skip past the end leaves the player idle.
		if s.track != nil {
			if s.track.Playing {
				if err := s.track.Target.Stop(ctx); err != nil {
					s.log.Warn("failed to stop track at queue end",
						zap.String("entry", s.track.Entry.Name),
						zap.Error(err))
				}
			}
			s.track = nil
			s.publishTrack(TrackChange{Entry: nil})
			s.publishState(StateChange{Playing: false})
		}
		return nil, nil
	}
	return s.startEntryLocked(ctx, entry)
}

func (s *serviceImpl) startEntryLocked(ctx context.Context, entry *library.Entry) (*library.Entry, error) {
	progress, err := s.playEntryLocked(ctx, *entry)
	if err != nil {
		s.publishError("play", err)
		return nil, err
	}
	s.publishTrack(TrackChange{Entry: entry})
	s.publishProgress(ProgressChange{Progress: progress})
	s.publishState(StateChange{Playing: true})
	return entry, nil
}

// playEntryLocked performs the track replacement: stop the old target,
// start the new one, settle, then install the Track with its position
// forced to zero. On failure no Track is installed.
func (s *serviceImpl) playEntryLocked(ctx context.Context, entry library.Entry) (player.Progress, error) {
	if s.track != nil && s.track.Playing {
		if err := s.track.Target.Stop(ctx); err != nil {
			s.log.Warn("failed to stop previous track",
				zap.String("entry", s.track.Entry.Name),
				zap.Error(err))
		}
	}
	s.track = nil

	target, err := s.target(entry.Variant)
	if err != nil {
		return player.Progress{}, err
	}
	if err := target.Play(ctx, entry); err != nil {
		return player.Progress{}, fmt.Errorf("play %q: %w", entry.Name, err)
	}

	if s.settleDelay > 0 {
		time.Sleep(s.settleDelay)
	}
	progress, err := target.Progress(ctx)
	if err != nil {
		// Without a real duration the optimistic ticker would end the
		// track on its own. Tear the start down and fail the transition.
		if stopErr := target.Stop(ctx); stopErr != nil {
			s.log.Warn("failed to stop track after progress query error",
				zap.String("entry", entry.Name),
				zap.Error(stopErr))
		}
		return player.Progress{}, fmt.Errorf("query progress of %q: %w", entry.Name, err)
	}
	// The position just reported is not trustworthy right after play.
	progress.Position = 0

	s.track = &Track{
		Entry:    entry,
		Target:   target,
		Playing:  true,
		Progress: progress,
	}
	s.log.Info("track started",
		zap.String("entry", entry.Name),
		zap.String("variant", string(entry.Variant)),
		zap.Duration("duration", progress.Duration))
	return progress, nil
}

// Pause pauses the active track. No-op when nothing is playing.
func (s *serviceImpl) Pause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.track == nil || !s.track.Playing {
		return nil
	}
	if err := s.track.Target.Pause(ctx); err != nil {
		s.publishError("pause", err)
		return fmt.Errorf("pause: %w", err)
	}
	s.track.Playing = false
	s.publishState(StateChange{Playing: false})
	return nil
}

// Resume resumes a paused track. No-op when already playing or idle.
func (s *serviceImpl) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.track == nil || s.track.Playing {
		return nil
	}
	if err := s.track.Target.Resume(ctx); err != nil {
		s.publishError("resume", err)
		return fmt.Errorf("resume: %w", err)
	}
	s.track.Playing = true
	s.publishState(StateChange{Playing: true})
	return nil
}

// SeekTo seeks to a percentage of the current track's duration. Returns the
// progress after the seek, or (nil, nil) when no track is active.
func (s *serviceImpl) SeekTo(ctx context.Context, percent float64) (*player.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.track == nil {
		return nil, nil
	}
	position := time.Duration(float64(s.track.Progress.Duration) * percent / 100)
	if err := s.track.Target.SeekTo(ctx, position); err != nil {
		s.publishError("seek", err)
		return nil, fmt.Errorf("seek to %.0f%%: %w", percent, err)
	}
	s.track.Progress.Position = position
	progress := s.track.Progress
	s.publishProgress(ProgressChange{Progress: progress})
	return &progress, nil
}

// SetVolume applies the level to the active target only. Without a track
// this is a successful no-op: the next target starts with the volume it was
// constructed with.
func (s *serviceImpl) SetVolume(ctx context.Context, level float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.track == nil {
		return nil
	}
	if err := s.track.Target.SetVolume(ctx, level); err != nil {
		s.publishError("volume", err)
		return fmt.Errorf("set volume: %w", err)
	}
	return nil
}

// Current returns a copy of the current track, if any.
func (s *serviceImpl) Current() (Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.track == nil {
		return Track{}, false
	}
	return *s.track, true
}

// tickProgress is the optimistic 1 Hz tick: advance the stored position
// without asking the backend and decide whether the track has ended.
// Spotify tracks end one second early to mask that backend's transition
// latency.
func (s *serviceImpl) tickProgress(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.track == nil || !s.track.Playing {
		return
	}
	s.track.Progress.Position += progressTickInterval
	s.publishProgress(ProgressChange{Progress: s.track.Progress})

	position := s.track.Progress.Position
	duration := s.track.Progress.Duration
	var ended bool
	if s.track.Entry.Variant == library.VariantSpotify {
		ended = position+time.Second >= duration
	} else {
		ended = position >= duration
	}
	if ended {
		s.handleTrackEndLocked(ctx)
	}
}

// tickCorrection overwrites the optimistic progress with the backend's
// authoritative value. Query failures skip the tick, never end the track.
func (s *serviceImpl) tickCorrection(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.track == nil || !s.track.Playing {
		return
	}
	progress, err := s.track.Target.Progress(ctx)
	if err != nil {
		s.log.Debug("progress correction failed",
			zap.String("entry", s.track.Entry.Name),
			zap.Error(err))
		return
	}
	s.track.Progress = progress
	s.publishProgress(ProgressChange{Progress: progress})
}

// handleTrackEndLocked runs on natural completion: announce the finished
// entry, clear the track, and move on. When the queue is exhausted a nil
// TrackChange tells consumers playback stopped for good.
func (s *serviceImpl) handleTrackEndLocked(ctx context.Context) {
	finished := s.track.Entry
	s.publishEnd(TrackEnd{Entry: finished})
	s.track = nil

	entry, err := s.playNextLocked(ctx)
	if err != nil {
		// Already published; playback stays stopped.
		return
	}
	if entry == nil {
		s.publishTrack(TrackChange{Entry: nil})
		s.publishState(StateChange{Playing: false})
	}
}

// Subscribe creates a new event subscription.
func (s *serviceImpl) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	s.subs = append(s.subs, sub)
	return sub
}

// Close stops the tickers, tears down the active target and signals
// subscribers. Idempotent.
func (s *serviceImpl) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	if s.track != nil && s.track.Playing {
		if err := s.track.Target.Stop(context.Background()); err != nil {
			s.log.Warn("failed to stop track on close", zap.Error(err))
		}
	}
	s.track = nil
	s.mu.Unlock()

	s.subsMu.Lock()
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	s.subsMu.Unlock()

	return nil
}

func (s *serviceImpl) publishTrack(e TrackChange) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendTrack(e)
	}
}

func (s *serviceImpl) publishState(e StateChange) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendState(e)
	}
}

func (s *serviceImpl) publishProgress(e ProgressChange) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendProgress(e)
	}
}

func (s *serviceImpl) publishEnd(e TrackEnd) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendEnd(e)
	}
}

func (s *serviceImpl) publishError(op string, err error) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendError(ErrorEvent{Op: op, Err: err})
	}
}
