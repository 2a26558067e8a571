package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	pionmedia "github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/ivfreader"
)

const defaultFrameDuration = time.Second / 30

// IVFCapturer replays a screen recording stored as IVF (VP8, VP9 or AV1)
// as if it were a live capture.
type IVFCapturer struct {
	Path string
	// Loop restarts playback at the end of the file instead of ending.
	Loop bool
}

// Request opens the recording and starts pumping frames into a local track.
func (c *IVFCapturer) Request(ctx context.Context) (Source, error) {
	if c.Path == "" {
		return nil, fmt.Errorf("no capture source configured: %w", ErrUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(c.Path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrPermission):
			return nil, fmt.Errorf("open %s: %w", c.Path, ErrPermissionDenied)
		default:
			return nil, fmt.Errorf("open %s: %w: %v", c.Path, ErrUnavailable, err)
		}
	}

	reader, header, err := ivfreader.NewWith(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("read %s: %w: %v", c.Path, ErrUnavailable, err)
	}

	mime, ok := mimeForFourCC(header.FourCC)
	if !ok {
		file.Close()
		return nil, fmt.Errorf("codec %q: %w", header.FourCC, ErrUnavailable)
	}

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: mime},
		"screen",
		"screenshare",
	)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("create track: %w", err)
	}

	src := &ivfSource{
		path:     c.Path,
		loop:     c.Loop,
		file:     file,
		reader:   reader,
		track:    track,
		interval: frameDuration(header),
		width:    header.Width,
		height:   header.Height,
		stop:     make(chan struct{}),
		ended:    make(chan struct{}),
	}
	go src.pump()

	slog.Info("capture started", "source", src.Describe(), "codec", mime)
	return src, nil
}

type ivfSource struct {
	path     string
	loop     bool
	file     *os.File
	reader   *ivfreader.IVFReader
	track    *webrtc.TrackLocalStaticSample
	interval time.Duration
	width    uint16
	height   uint16

	stopOnce sync.Once
	stop     chan struct{}
	ended    chan struct{}
}

func (s *ivfSource) Tracks() []webrtc.TrackLocal {
	return []webrtc.TrackLocal{s.track}
}

func (s *ivfSource) Ended() <-chan struct{} {
	return s.ended
}

func (s *ivfSource) Describe() string {
	return fmt.Sprintf("%s (%dx%d)", s.path, s.width, s.height)
}

func (s *ivfSource) Stop() error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.ended
	return nil
}

func (s *ivfSource) pump() {
	defer close(s.ended)
	defer s.file.Close()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}

		frame, _, err := s.reader.ParseNextFrame()
		if errors.Is(err, io.EOF) {
			if !s.loop {
				slog.Info("capture source finished", "source", s.path)
				return
			}
			if err := s.rewind(); err != nil {
				slog.Warn("rewind capture source", "source", s.path, "error", err)
				return
			}
			continue
		}
		if err != nil {
			slog.Warn("read capture frame", "source", s.path, "error", err)
			return
		}

		if err := s.track.WriteSample(pionmedia.Sample{Data: frame, Duration: s.interval}); err != nil {
			slog.Debug("write capture sample", "error", err)
		}
	}
}

func (s *ivfSource) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	reader, _, err := ivfreader.NewWith(s.file)
	if err != nil {
		return err
	}
	s.reader = reader
	return nil
}

func frameDuration(h *ivfreader.IVFFileHeader) time.Duration {
	if h.TimebaseNumerator == 0 || h.TimebaseDenominator == 0 {
		return defaultFrameDuration
	}
	d := time.Second * time.Duration(h.TimebaseNumerator) / time.Duration(h.TimebaseDenominator)
	if d <= 0 {
		return defaultFrameDuration
	}
	return d
}

func mimeForFourCC(fourcc string) (string, bool) {
	switch fourcc {
	case "VP80":
		return webrtc.MimeTypeVP8, true
	case "VP90":
		return webrtc.MimeTypeVP9, true
	case "AV01":
		return webrtc.MimeTypeAV1, true
	}
	return "", false
}
