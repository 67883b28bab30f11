package player

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"jukebox/internal/library"
)

// Remote plays URL-backed entries (internet radio, remote files): it spools
// the HTTP body with read-ahead buffering and decodes through the shared
// speaker. Live streams without a Content-Length are non-finite and refuse
// to seek.
type Remote struct {
	client   *http.Client
	pipeline *pipeline
	log      *zap.Logger
}

var _ Target = (*Remote)(nil)

// NewRemote creates the remote-stream target. level is the initial volume
// amplitude (0.0-1.0).
func NewRemote(level float64, log *zap.Logger) *Remote {
	// No overall client timeout: a live radio stream is one never-ending
	// response. Stalls are bounded by the transport's own timeouts.
	return &Remote{
		client:   &http.Client{},
		pipeline: newPipeline(clampLevel(level)),
		log:      log,
	}
}

func (t *Remote) Play(ctx context.Context, entry library.Entry) error {
	if entry.Source == nil || entry.Source.URL == "" {
		return fmt.Errorf("%w: %q has no url", ErrNoSource, entry.Name)
	}

	stream, err := openStream(ctx, t.client, entry.Source.URL)
	if err != nil {
		return fmt.Errorf("open %q: %w", entry.Source.URL, err)
	}

	reader := stream.reader()
	streamer, format, err := decode(reader, stream.format)
	if err != nil {
		reader.Close()
		return fmt.Errorf("decode %q: %w", entry.Source.URL, err)
	}

	if err := t.pipeline.start(streamer, format, reader, stream.seekable()); err != nil {
		return err
	}
	t.log.Debug("remote playback started",
		zap.String("entry", entry.Name),
		zap.String("url", entry.Source.URL),
		zap.Bool("seekable", stream.seekable()))
	return nil
}

// Queue is a no-op: the prefetch buffer covers the startup gap and the
// pipeline has no real queue to stage into.
func (t *Remote) Queue(context.Context, library.Entry) error {
	return nil
}

func (t *Remote) Pause(context.Context) error {
	return t.pipeline.pause()
}

func (t *Remote) Resume(context.Context) error {
	return t.pipeline.resume()
}

func (t *Remote) Stop(context.Context) error {
	return t.pipeline.stop()
}

func (t *Remote) SeekTo(_ context.Context, position time.Duration) error {
	return t.pipeline.seekTo(position)
}

func (t *Remote) SetVolume(_ context.Context, level float64) error {
	return t.pipeline.setLevel(level)
}

func (t *Remote) Progress(context.Context) (Progress, error) {
	return t.pipeline.progress()
}
