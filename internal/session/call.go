// Package session keeps one user's view of a live meeting in step with the
// call transport and with that user's participant record.
package session

import (
	"context"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/pion/webrtc/v3"
)

type TrackState string

const (
	TrackPlayable    TrackState = "playable"
	TrackLoading     TrackState = "loading"
	TrackInterrupted TrackState = "interrupted"
	TrackBlocked     TrackState = "blocked"
	TrackOff         TrackState = "off"
)

// TrackHandle is a media track as exposed by the transport. Both
// *webrtc.TrackRemote and the local static tracks satisfy it.
type TrackHandle interface {
	ID() string
	Kind() webrtc.RTPCodecType
}

type TrackInfo struct {
	State           TrackState
	Track           TrackHandle
	PersistentTrack TrackHandle
}

// Playable returns the track to render, or nil. A track that exists but is
// not decodable yet counts as absent.
func (t TrackInfo) Playable() TrackHandle {
	if t.State != TrackPlayable {
		return nil
	}
	if t.PersistentTrack != nil {
		return t.PersistentTrack
	}
	return t.Track
}

// PlayableAs is Playable restricted to one media kind. A handle of the wrong
// kind is treated as absent.
func (t TrackInfo) PlayableAs(kind webrtc.RTPCodecType) TrackHandle {
	h := t.Playable()
	if h == nil || h.Kind() != kind {
		return nil
	}
	return h
}

type Tracks struct {
	Audio       TrackInfo
	Video       TrackInfo
	ScreenAudio TrackInfo
	ScreenVideo TrackInfo
}

func (t Tracks) camera() TrackHandle      { return t.Video.PlayableAs(webrtc.RTPCodecTypeVideo) }
func (t Tracks) mic() TrackHandle         { return t.Audio.PlayableAs(webrtc.RTPCodecTypeAudio) }
func (t Tracks) screen() TrackHandle      { return t.ScreenVideo.PlayableAs(webrtc.RTPCodecTypeVideo) }
func (t Tracks) screenAudio() TrackHandle { return t.ScreenAudio.PlayableAs(webrtc.RTPCodecTypeAudio) }

// Participant is the transport's description of one connected session.
type Participant struct {
	SessionID string
	UserID    string
	UserName  string
	Local     bool
	Owner     bool
	PhotoURL  string
	Tracks    Tracks
}

// DisplayName falls back to the user id, then to "Guest".
func (p Participant) DisplayName() string {
	if p.UserName != "" {
		return p.UserName
	}
	if p.UserID != "" {
		return p.UserID
	}
	return "Guest"
}

// Snapshot maps session id to participant.
type Snapshot map[string]Participant

// Local returns the local participant, if the transport reports one.
func (s Snapshot) Local() (Participant, bool) {
	for _, p := range s {
		if p.Local {
			return p, true
		}
	}
	return Participant{}, false
}

type ParticipantUpdate struct {
	SetAudio *bool
	Eject    bool
}

// Call is the call transport session. It is owned by exactly one
// Synchronizer, which closes it on teardown.
type Call interface {
	Join(ctx context.Context, url, token string) error
	Leave(ctx context.Context) error
	Close() error

	// Participants returns the transport's current state. The result is not
	// retained by the transport.
	Participants() Snapshot
	Events() <-chan Event

	SetLocalAudio(ctx context.Context, on bool) error
	SetLocalVideo(ctx context.Context, on bool) error
	StartScreenShare(ctx context.Context) error
	StopScreenShare(ctx context.Context) error
	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) error

	UpdateParticipant(ctx context.Context, sessionID string, update ParticipantUpdate) error
	SendAppMessage(ctx context.Context, msg domain.AppMessage, to string) error
}

type TokenSource interface {
	JoinToken(ctx context.Context, req domain.JoinTokenRequest) (string, error)
}

// ParticipantStore persists participant records. UpsertOwn is only ever
// called with the signed-in user's uid.
type ParticipantStore interface {
	UpsertOwn(ctx context.Context, meetingID, uid string, patch domain.ParticipantPatch) error
	BanParticipant(ctx context.Context, meetingID, uid string) error
}

type ProfileSource interface {
	PhotoURL(ctx context.Context, uid string) (string, error)
}
