package media

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media/ivfwriter"
)

var (
	ErrNoTrack          = errors.New("no track to bind")
	ErrUnsupportedCodec = errors.New("codec cannot be recorded to IVF")
)

type discard struct{}

func (discard) WriteRTP(*rtp.Packet) error { return nil }
func (discard) Close() error               { return nil }

// DiscardSink drains packets without storing them.
func DiscardSink(webrtc.RTPCodecParameters) (Sink, error) {
	return discard{}, nil
}

// IVFRecorder returns a factory writing bound tracks to IVF files. The first
// track goes to path; each later one to a numbered file next to it
// (out.ivf, out-2.ivf, ...), so a rebind never shares a file with a binding
// that is still draining.
func IVFRecorder(path string) SinkFactory {
	var binds atomic.Int32
	return func(codec webrtc.RTPCodecParameters) (Sink, error) {
		mime, ok := canonicalMime(codec.MimeType)
		if !ok {
			return nil, fmt.Errorf("%s: %w", codec.MimeType, ErrUnsupportedCodec)
		}
		name := recordingPath(path, int(binds.Add(1)))
		w, err := ivfwriter.New(name, ivfwriter.WithCodec(mime))
		if err != nil {
			return nil, fmt.Errorf("open recording %s: %w", name, err)
		}
		return w, nil
	}
}

func recordingPath(path string, n int) string {
	if n <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), n, ext)
}

func canonicalMime(mimeType string) (string, bool) {
	for _, m := range []string{webrtc.MimeTypeVP8, webrtc.MimeTypeVP9, webrtc.MimeTypeAV1} {
		if strings.EqualFold(mimeType, m) {
			return m, true
		}
	}
	return "", false
}
