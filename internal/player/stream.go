package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// prefetchBytes is how much of the stream is buffered before decoding
// starts: five seconds of audio at 320 kbit/s.
const prefetchBytes = 320 / 8 * 1024 * 5

// liveTrimBytes is how much consumed data a live stream may accumulate
// before the spool discards it. Live streams run for hours and never seek
// backwards, so the spool must not hold the whole broadcast. Seekable
// streams keep everything for random access.
const liveTrimBytes = 1 << 20

// httpStream downloads a URL into a memory-backed spool while readers
// consume it. Reads block until the requested range has arrived. When the
// server reports a Content-Length the spool is seekable within the full
// range (reads past the download frontier block until the data lands);
// without one the stream is live and cannot seek.
type httpStream struct {
	body          io.ReadCloser
	contentLength int64 // -1 when unknown
	format        string

	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	base   int64 // absolute offset of buf[0]; only advances on live streams
	pos    int64
	trimAt int64
	done   bool
	err    error
	closed bool
}

// openStream starts downloading url and blocks until the prefetch buffer is
// filled (or the stream ends first).
func openStream(ctx context.Context, client *http.Client, url string) (*httpStream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build stream request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("open stream: unexpected status %s", resp.Status)
	}

	format := formatFromContentType(resp.Header.Get("Content-Type"))
	if format == "" {
		format = formatFromName(req.URL.Path)
	}

	s := &httpStream{
		body:          resp.Body,
		contentLength: resp.ContentLength,
		format:        format,
		trimAt:        liveTrimBytes,
	}
	s.cond = sync.NewCond(&s.mu)
	go s.download()
	s.waitPrefetch(prefetchBytes)
	return s, nil
}

func (s *httpStream) download() {
	chunk := make([]byte, 32*1024)
	for {
		n, err := s.body.Read(chunk)
		s.mu.Lock()
		if n > 0 {
			s.buf = append(s.buf, chunk[:n]...)
		}
		if err != nil {
			s.done = true
			if !errors.Is(err, io.EOF) && !s.closed {
				s.err = err
			}
			s.cond.Broadcast()
			s.mu.Unlock()
			return
		}
		s.cond.Broadcast()
		s.mu.Unlock()
	}
}

// waitPrefetch blocks until at least n bytes are buffered or the download
// ended.
func (s *httpStream) waitPrefetch(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.buf) < n && !s.done {
		s.cond.Wait()
	}
}

// seekable reports whether the stream supports absolute positioning.
func (s *httpStream) seekable() bool {
	return s.contentLength >= 0
}

// reader returns the io.ReadCloser handed to the decoder. For seekable
// streams it also implements io.Seeker; live streams deliberately do not,
// so decoders treat them as pure sequential input.
func (s *httpStream) reader() io.ReadCloser {
	if s.seekable() {
		return &seekableStreamReader{s}
	}
	return &liveStreamReader{s}
}

func (s *httpStream) read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if s.closed {
			return 0, fmt.Errorf("stream closed")
		}
		if s.pos < s.base+int64(len(s.buf)) {
			n := copy(p, s.buf[s.pos-s.base:])
			s.pos += int64(n)
			if !s.seekable() && s.pos-s.base >= s.trimAt {
				s.buf = append([]byte(nil), s.buf[s.pos-s.base:]...)
				s.base = s.pos
			}
			return n, nil
		}
		if s.err != nil {
			return 0, s.err
		}
		if s.done {
			return 0, io.EOF
		}
		s.cond.Wait()
	}
}

func (s *httpStream) seek(offset int64, whence int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = s.pos + offset
	case io.SeekEnd:
		target = s.contentLength + offset
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	if target < 0 {
		return 0, fmt.Errorf("seek: negative position %d", target)
	}
	if target > s.contentLength {
		return 0, fmt.Errorf("seek: position %d beyond content length %d", target, s.contentLength)
	}
	s.pos = target
	return target, nil
}

func (s *httpStream) close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	return s.body.Close()
}

type seekableStreamReader struct {
	s *httpStream
}

func (r *seekableStreamReader) Read(p []byte) (int, error) { return r.s.read(p) }

func (r *seekableStreamReader) Seek(offset int64, whence int) (int64, error) {
	return r.s.seek(offset, whence)
}

func (r *seekableStreamReader) Close() error { return r.s.close() }

type liveStreamReader struct {
	s *httpStream
}

func (r *liveStreamReader) Read(p []byte) (int, error) { return r.s.read(p) }

func (r *liveStreamReader) Close() error { return r.s.close() }
