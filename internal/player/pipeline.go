package player

import (
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// The speaker is a process-wide singleton. It is initialized lazily with the
// sample rate of the first decoded sound; later sounds with a different rate
// are resampled to it.
var (
	speakerMu          sync.Mutex
	speakerInitialized bool
	speakerSampleRate  beep.SampleRate
)

func initSpeaker(sampleRate beep.SampleRate) error {
	speakerMu.Lock()
	defer speakerMu.Unlock()
	if speakerInitialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	speakerSampleRate = sampleRate
	speakerInitialized = true
	return nil
}

// pipeline owns one decoded sound on the shared speaker: the streamer, its
// pause control and its volume effect. Local and remote targets each hold
// their own pipeline; the orchestrator guarantees only one is audible at a
// time.
type pipeline struct {
	mu sync.Mutex

	streamer beep.StreamSeekCloser
	src      io.Closer // underlying byte source, closed with the streamer
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume

	level    float64
	seekable bool
	duration time.Duration
	finite   bool
}

func newPipeline(level float64) *pipeline {
	return &pipeline{level: level}
}

// start replaces any playing sound with the given decoded streamer.
// seekable controls whether seekTo is allowed; src may be nil.
func (p *pipeline) start(streamer beep.StreamSeekCloser, format beep.Format, src io.Closer, seekable bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.teardownLocked()

	if err := initSpeaker(format.SampleRate); err != nil {
		streamer.Close()
		if src != nil {
			src.Close()
		}
		return err
	}

	p.streamer = streamer
	p.src = src
	p.format = format
	p.seekable = seekable

	if n := streamer.Len(); n > 0 {
		p.duration = format.SampleRate.D(n)
		p.finite = true
	} else {
		// The decoder could not establish a frame count (live stream).
		p.duration = nonFiniteDuration
		p.finite = false
	}

	var playStreamer beep.Streamer = streamer
	if format.SampleRate != speakerSampleRate {
		playStreamer = beep.Resample(4, format.SampleRate, speakerSampleRate, streamer)
	}
	p.ctrl = &beep.Ctrl{Streamer: playStreamer, Paused: false}
	p.volume = &effects.Volume{Streamer: p.ctrl, Base: 2}
	applyLevel(p.volume, p.level)

	speaker.Play(p.volume)
	return nil
}

func (p *pipeline) teardownLocked() {
	if p.ctrl == nil {
		return
	}
	speaker.Clear()
	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
	if p.src != nil {
		p.src.Close()
		p.src = nil
	}
	p.ctrl = nil
	p.volume = nil
}

func (p *pipeline) stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl == nil {
		return ErrNoHandle
	}
	p.teardownLocked()
	return nil
}

func (p *pipeline) pause() error {
	return p.setPaused(true)
}

func (p *pipeline) resume() error {
	return p.setPaused(false)
}

func (p *pipeline) setPaused(paused bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl == nil {
		return ErrNoHandle
	}
	speaker.Lock()
	p.ctrl.Paused = paused
	speaker.Unlock()
	return nil
}

func (p *pipeline) seekTo(position time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return ErrNoHandle
	}
	if !p.seekable {
		return ErrNotSeekable
	}
	speaker.Lock()
	err := p.streamer.Seek(p.format.SampleRate.N(position))
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("seek to %s: %w", position, err)
	}
	return nil
}

func (p *pipeline) setLevel(level float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = clampLevel(level)
	if p.volume == nil {
		// Nothing playing: the level is remembered for the next start.
		return nil
	}
	speaker.Lock()
	applyLevel(p.volume, p.level)
	speaker.Unlock()
	return nil
}

func (p *pipeline) progress() (Progress, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return Progress{}, ErrNoHandle
	}
	speaker.Lock()
	position := p.format.SampleRate.D(p.streamer.Position())
	speaker.Unlock()
	return Progress{Position: position, Duration: p.duration, Finite: p.finite}, nil
}

func clampLevel(level float64) float64 {
	if level < 0 {
		return 0
	}
	if level > 1 {
		return 1
	}
	return level
}

func applyLevel(v *effects.Volume, level float64) {
	v.Volume = levelToVolume(level)
	v.Silent = level <= 0
}

// levelToVolume converts a 0.0-1.0 amplitude to beep's logarithmic Volume
// value (base 2): 1.0 -> 0, 0.5 -> -1, 0.25 -> -2, 0 -> -10 (silence floor).
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}
