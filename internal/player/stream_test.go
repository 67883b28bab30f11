package player

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenStream_Seekable(t *testing.T) {
	payload := make([]byte, 2048)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	s, err := openStream(context.Background(), srv.Client(), srv.URL+"/episode.mp3")
	if err != nil {
		t.Fatalf("openStream() error = %v", err)
	}
	defer func() { _ = s.close() }()

	if !s.seekable() {
		t.Error("stream with Content-Length should be seekable")
	}
	if s.format != formatMP3 {
		t.Errorf("format = %q, want %q", s.format, formatMP3)
	}

	r := s.reader()
	if _, ok := r.(io.Seeker); !ok {
		t.Fatal("seekable stream reader should implement io.Seeker")
	}

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != len(payload) {
		t.Fatalf("read %d bytes, want %d", len(got), len(payload))
	}
	for i := range got {
		if got[i] != payload[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], payload[i])
		}
	}
}

func TestOpenStream_SeekRoundTrip(t *testing.T) {
	payload := []byte("abcdefghijklmnopqrstuvwxyz")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	s, err := openStream(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("openStream() error = %v", err)
	}
	defer func() { _ = s.close() }()

	r := s.reader().(io.ReadSeekCloser)

	if _, err := r.Seek(10, io.SeekStart); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	buf := make([]byte, 3)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("ReadFull() error = %v", err)
	}
	if string(buf) != "klm" {
		t.Errorf("read %q after seek, want %q", buf, "klm")
	}

	if _, err := r.Seek(-1, io.SeekStart); err == nil {
		t.Error("Seek() to negative position should fail")
	}
	if _, err := r.Seek(1, io.SeekEnd); err == nil {
		t.Error("Seek() beyond content length should fail")
	}
	if pos, err := r.Seek(0, io.SeekEnd); err != nil || pos != int64(len(payload)) {
		t.Errorf("Seek(0, SeekEnd) = %d, %v, want %d, nil", pos, err, len(payload))
	}
}

func TestOpenStream_Live_NotSeekable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		// Flushing before writing the body suppresses Content-Length,
		// like an icecast-style live stream.
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		_, _ = w.Write([]byte("livedata"))
	}))
	defer srv.Close()

	s, err := openStream(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("openStream() error = %v", err)
	}
	defer func() { _ = s.close() }()

	if s.seekable() {
		t.Error("stream without Content-Length should not be seekable")
	}

	r := s.reader()
	if _, ok := r.(io.Seeker); ok {
		t.Error("live stream reader must not implement io.Seeker")
	}

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != "livedata" {
		t.Errorf("read %q, want %q", got, "livedata")
	}
}

func TestOpenStream_Live_TrimsConsumedData(t *testing.T) {
	payload := make([]byte, 256)
	for i := range payload {
		payload[i] = byte(i)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	s, err := openStream(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("openStream() error = %v", err)
	}
	defer func() { _ = s.close() }()
	s.mu.Lock()
	s.trimAt = 64
	s.mu.Unlock()

	r := s.reader()
	got := make([]byte, 0, len(payload))
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
	}

	// Continuity survives the trims.
	if len(got) != len(payload) {
		t.Fatalf("read %d bytes, want %d", len(got), len(payload))
	}
	for i := range got {
		if got[i] != payload[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], payload[i])
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.base == 0 {
		t.Error("spool base never advanced, consumed live data was not trimmed")
	}
	if int64(len(s.buf)) >= int64(len(payload)) {
		t.Errorf("spool still holds %d bytes, want fewer than %d", len(s.buf), len(payload))
	}
}

func TestOpenStream_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := openStream(context.Background(), srv.Client(), srv.URL); err == nil {
		t.Fatal("openStream() should fail on 404")
	}
}

func TestOpenStream_FormatFromURLFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No usable Content-Type; the URL path decides.
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	s, err := openStream(context.Background(), srv.Client(), srv.URL+"/music/track.flac")
	if err != nil {
		t.Fatalf("openStream() error = %v", err)
	}
	defer func() { _ = s.close() }()

	if s.format != formatFLAC {
		t.Errorf("format = %q, want %q", s.format, formatFLAC)
	}
}

func TestHTTPStream_CloseIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data"))
	}))
	defer srv.Close()

	s, err := openStream(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("openStream() error = %v", err)
	}

	if err := s.close(); err != nil {
		t.Errorf("close() error = %v", err)
	}
	if err := s.close(); err != nil {
		t.Errorf("second close() error = %v", err)
	}
}
