// Package media manages the local capture session attached to a room's
// peer connection. The tracks are pion static-sample tracks; the embedder
// feeds frames from whatever device layer it has (the CLI feeds none and
// still negotiates sendrecv media, which is all the protocol requires).
package media

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v4"
	pionmedia "github.com/pion/webrtc/v4/pkg/media"

	"github.com/freshbid/liveroom/internal/protocol"
)

// ErrClosed is returned when writing samples to a released session.
var ErrClosed = errors.New("capture session closed")

// Session is one local camera+microphone capture bound to a single room
// join. Like the transport it belongs to, it is never reused across
// reconnects.
type Session struct {
	video *webrtc.TrackLocalStaticSample
	audio *webrtc.TrackLocalStaticSample

	// audioEnabled implements viewer muting: participants join with the
	// microphone disabled, hosts keep audio untouched.
	audioEnabled atomic.Bool

	closeOnce sync.Once
	closed    atomic.Bool
}

// Capture creates the local video and audio tracks for a room join. A
// participant session starts with audio disabled; a host session does not.
func Capture(role protocol.Role) (*Session, error) {
	video, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", "liveroom")
	if err != nil {
		return nil, err
	}
	audio, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", "liveroom")
	if err != nil {
		return nil, err
	}

	s := &Session{video: video, audio: audio}
	s.audioEnabled.Store(role == protocol.RoleHost)
	return s, nil
}

// Tracks returns the local tracks to attach to a peer connection.
func (s *Session) Tracks() []webrtc.TrackLocal {
	return []webrtc.TrackLocal{s.video, s.audio}
}

// SetAudioEnabled toggles the microphone.
func (s *Session) SetAudioEnabled(enabled bool) {
	s.audioEnabled.Store(enabled)
}

// AudioEnabled reports whether audio samples are being forwarded.
func (s *Session) AudioEnabled() bool {
	return s.audioEnabled.Load()
}

// WriteVideo forwards one video sample to the peer connection.
func (s *Session) WriteVideo(sample pionmedia.Sample) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.video.WriteSample(sample)
}

// WriteAudio forwards one audio sample. Samples are dropped silently
// while the microphone is disabled, mirroring a muted track.
func (s *Session) WriteAudio(sample pionmedia.Sample) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if !s.audioEnabled.Load() {
		return nil
	}
	return s.audio.WriteSample(sample)
}

// Closed reports whether the session has been released.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

// Close releases the session. Idempotent; writers started before Close
// observe ErrClosed on their next sample.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
	})
}
