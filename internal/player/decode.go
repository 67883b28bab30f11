package player

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

const (
	formatMP3    = "mp3"
	formatFLAC   = "flac"
	formatVorbis = "ogg"
	formatWAV    = "wav"
)

// decode runs the right beep decoder for the detected container format.
func decode(rc io.ReadCloser, format string) (beep.StreamSeekCloser, beep.Format, error) {
	switch format {
	case formatMP3:
		return mp3.Decode(rc)
	case formatFLAC:
		return flac.Decode(rc)
	case formatVorbis:
		return vorbis.Decode(rc)
	case formatWAV:
		return wav.Decode(rc)
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported format: %s", format)
	}
}

// formatFromName guesses the container format from a file name or URL path.
// MP3 is the fallback; it is what the upload path and nearly every radio
// station produce.
func formatFromName(name string) string {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(name), ".")) {
	case "flac":
		return formatFLAC
	case "ogg", "oga":
		return formatVorbis
	case "wav":
		return formatWAV
	default:
		return formatMP3
	}
}

// formatFromContentType maps an HTTP Content-Type to a container format.
// Returns "" when the type is missing or unknown.
func formatFromContentType(contentType string) string {
	mediaType := contentType
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = mediaType[:i]
	}
	switch strings.TrimSpace(strings.ToLower(mediaType)) {
	case "audio/mpeg", "audio/mp3":
		return formatMP3
	case "audio/flac", "audio/x-flac":
		return formatFLAC
	case "audio/ogg", "application/ogg", "audio/vorbis":
		return formatVorbis
	case "audio/wav", "audio/x-wav", "audio/wave":
		return formatWAV
	default:
		return ""
	}
}
