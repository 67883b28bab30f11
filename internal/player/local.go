package player

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jukebox/internal/library"
)

// FileStore supplies the raw bytes of an uploaded file, fetched lazily at
// the moment of playback.
type FileStore interface {
	FileBytes(ctx context.Context, trackSourceID int64) ([]byte, error)
}

// Local plays uploaded files: it fetches the blob from the store, decodes
// it fully seekable in memory and plays it through the shared speaker.
type Local struct {
	store    FileStore
	pipeline *pipeline
	log      *zap.Logger
}

var _ Target = (*Local)(nil)

// NewLocal creates the local-file target. level is the initial volume
// amplitude (0.0-1.0).
func NewLocal(store FileStore, level float64, log *zap.Logger) *Local {
	return &Local{
		store:    store,
		pipeline: newPipeline(clampLevel(level)),
		log:      log,
	}
}

func (t *Local) Play(ctx context.Context, entry library.Entry) error {
	if entry.Source == nil {
		return fmt.Errorf("%w: %q has no track source", ErrNoSource, entry.Name)
	}

	data, err := t.store.FileBytes(ctx, entry.Source.ID)
	if err != nil {
		return fmt.Errorf("fetch file for %q: %w", entry.Name, err)
	}

	src := &byteSource{Reader: bytes.NewReader(data)}
	streamer, format, err := decode(src, formatFromName(entry.Source.Title))
	if err != nil {
		return fmt.Errorf("decode %q: %w", entry.Source.Title, err)
	}

	if err := t.pipeline.start(streamer, format, src, true); err != nil {
		return err
	}
	t.log.Debug("local playback started",
		zap.String("entry", entry.Name),
		zap.Int("bytes", len(data)))
	return nil
}

// Queue is a no-op: decoding from memory starts fast enough that there is
// no audible gap to pre-stage for.
func (t *Local) Queue(context.Context, library.Entry) error {
	return nil
}

func (t *Local) Pause(context.Context) error {
	return t.pipeline.pause()
}

func (t *Local) Resume(context.Context) error {
	return t.pipeline.resume()
}

func (t *Local) Stop(context.Context) error {
	return t.pipeline.stop()
}

func (t *Local) SeekTo(_ context.Context, position time.Duration) error {
	return t.pipeline.seekTo(position)
}

func (t *Local) SetVolume(_ context.Context, level float64) error {
	return t.pipeline.setLevel(level)
}

func (t *Local) Progress(context.Context) (Progress, error) {
	return t.pipeline.progress()
}

// byteSource adapts a bytes.Reader to the io.ReadCloser the decoders want
// while keeping it seekable.
type byteSource struct {
	*bytes.Reader
}

func (*byteSource) Close() error { return nil }
