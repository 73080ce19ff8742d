package session

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/pion/webrtc/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var startEntries = []string{"join", "audio:off", "video:off"}

func TestStartJoinsWithScopedToken(t *testing.T) {
	h := startedHarness(t, guestIdentity)

	require.Len(t, h.tokens.requests, 1)
	assert.Equal(t, domain.JoinTokenRequest{
		RoomName:  "standup",
		UserName:  "Bo",
		IsOwner:   false,
		UserID:    "guest",
		MeetingID: "m1",
	}, h.tokens.requests[0])
	assert.Equal(t, "https://acme.daily.co/standup", h.call.joinURL)
	assert.Equal(t, "token-standup", h.call.joinToken)

	assert.Equal(t, startEntries, h.journal.all(), "joins muted with the camera off")
	assert.Equal(t, StateConnected, h.s.State())
	assert.Equal(t, Controls{Muted: true}, h.s.Controls())
	assert.Equal(t, 1, h.surface.renders)
}

func TestStartAsHostRequestsOwnerToken(t *testing.T) {
	h := startedHarness(t, hostIdentity)

	require.Len(t, h.tokens.requests, 1)
	assert.True(t, h.tokens.requests[0].IsOwner)
	assert.Equal(t, "Ana", h.tokens.requests[0].UserName)
}

func TestStartFailureTearsDown(t *testing.T) {
	tests := []struct {
		name     string
		tokenErr error
		joinErr  error
		meeting  *domain.Meeting
		wantErr  error
		entries  []string
	}{
		{
			name:     "token refused",
			tokenErr: errTransport,
			wantErr:  errTransport,
			entries:  []string{"close"},
		},
		{
			name:    "transport join fails",
			joinErr: errTransport,
			wantErr: errTransport,
			entries: []string{"join", "close"},
		},
		{
			name:    "meeting without room",
			meeting: &domain.Meeting{ID: "m1", CreatedBy: domain.Creator{UID: "host"}},
			wantErr: ErrNoRoom,
			entries: []string{"close"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, guestIdentity, func(cfg *Config) {
				if tt.meeting != nil {
					cfg.Meeting = tt.meeting
				}
			})
			h.tokens.err = tt.tokenErr
			if tt.joinErr != nil {
				h.call.failOn("join", tt.joinErr)
			}

			err := h.s.Start(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			h.waitDone()
			assert.Equal(t, StateIdle, h.s.State())
			assert.Equal(t, tt.entries, h.journal.all())
			assert.Empty(t, h.store.writtenUIDs(), "nothing was joined so nothing is marked left")

			assert.NoError(t, h.s.Leave(context.Background()))
			assert.ErrorIs(t, h.s.Start(context.Background()), ErrAlreadyStarted)
		})
	}
}

func TestLeaveBeforeStart(t *testing.T) {
	h := newHarness(t, guestIdentity)

	require.NoError(t, h.s.Leave(context.Background()))
	h.waitDone()
	assert.ErrorIs(t, h.s.Start(context.Background()), ErrAlreadyStarted)
	assert.Empty(t, h.journal.all())
}

// gatedTokens holds JoinToken until release is closed.
type gatedTokens struct {
	fakeTokens
	entered chan struct{}
	release chan struct{}
}

func (g *gatedTokens) JoinToken(ctx context.Context, req domain.JoinTokenRequest) (string, error) {
	close(g.entered)
	<-g.release
	return g.fakeTokens.JoinToken(ctx, req)
}

func TestLeaveWhileJoining(t *testing.T) {
	gate := &gatedTokens{entered: make(chan struct{}), release: make(chan struct{})}
	h := newHarness(t, guestIdentity, func(c *Config) { c.Tokens = gate })
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	startErr := make(chan error, 1)
	go func() { startErr <- h.s.Start(ctx) }()

	select {
	case <-gate.entered:
	case <-time.After(waitTimeout):
		t.Fatal("join never started")
	}
	require.Equal(t, StateJoining, h.s.State())

	leaveErr := make(chan error, 1)
	go func() { leaveErr <- h.s.Leave(ctx) }()
	require.Eventually(t, h.s.leaving.Load, waitTimeout, time.Millisecond)

	close(gate.release)

	require.NoError(t, <-startErr)
	h.waitDone()
	require.NoError(t, <-leaveErr)

	assert.Equal(t, StateIdle, h.s.State())
	assert.Equal(t, []string{"join", "audio:off", "video:off", "upsert:guest:left", "leave", "close"}, h.journal.all())
	assert.ErrorIs(t, h.s.ToggleMic(ctx), ErrNotConnected)
}

func TestOwnRecordOnly(t *testing.T) {
	h := startedHarness(t, guestIdentity)

	local := Participant{SessionID: "s-local", UserID: "guest", UserName: "Bo", Local: true}
	remote := Participant{SessionID: "s-r", UserID: "other", UserName: "Rae"}
	h.call.put(remote)

	h.send(JoinedMeeting{Local: local})
	h.send(ParticipantJoined{Participant: remote})
	h.send(ParticipantUpdated{Participant: remote})
	h.send(ParticipantUpdated{Participant: local})
	h.send(ParticipantLeft{Participant: remote})
	h.flush()

	assert.Equal(t, []string{"guest", "guest"}, h.store.writtenUIDs())

	rec, ok := h.store.record("guest")
	require.True(t, ok)
	assert.Equal(t, "m1", rec.MeetingID)
	assert.Equal(t, "Bo", rec.DisplayName)
	assert.Equal(t, domain.RoleGuest, rec.Role)
	assert.Equal(t, domain.ParticipantStatusConnected, rec.Status)
	assert.Equal(t, "s-local", rec.SessionID)
	assert.Equal(t, domain.Device{Kind: "web", UserAgent: "test"}, rec.Device)
	assert.Equal(t, GeneratedAvatarURL("guest"), rec.PhotoURL)
	assert.False(t, rec.JoinedAt.IsZero())
	assert.False(t, rec.Banned)

	require.NoError(t, h.s.Leave(context.Background()))

	rec, _ = h.store.record("guest")
	assert.Equal(t, domain.ParticipantStatusLeft, rec.Status)
	assert.False(t, rec.LeftAt.IsZero())
	for _, uid := range h.store.writtenUIDs() {
		assert.Equal(t, "guest", uid)
	}
}

func TestHostRecordCarriesHostRole(t *testing.T) {
	h := startedHarness(t, hostIdentity)

	h.send(JoinedMeeting{Local: Participant{SessionID: "s-local", UserID: "host", Local: true, Owner: true}})
	h.flush()

	rec, ok := h.store.record("host")
	require.True(t, ok)
	assert.Equal(t, domain.RoleHost, rec.Role)
	assert.Equal(t, "Ana", rec.DisplayName, "identity name fills in for a missing transport name")
}

func TestAnonymousSessionWritesNoRecord(t *testing.T) {
	h := startedHarness(t, domain.Identity{})

	require.Len(t, h.tokens.requests, 1)
	assert.Equal(t, "Guest", h.tokens.requests[0].UserName)

	h.send(JoinedMeeting{Local: Participant{SessionID: "s-local", Local: true}})
	h.flush()
	require.NoError(t, h.s.Leave(context.Background()))

	assert.Empty(t, h.store.writtenUIDs())
	assert.Equal(t, append(append([]string{}, startEntries...), "leave", "close"), h.journal.all())
}

func TestRecordWriteFailureKeepsSessionAlive(t *testing.T) {
	h := startedHarness(t, guestIdentity)
	h.store.err = errTransport

	h.send(JoinedMeeting{Local: Participant{SessionID: "s-local", UserID: "guest", Local: true}})
	h.flush()

	assert.Equal(t, StateConnected, h.s.State())
}

func TestResolvePhoto(t *testing.T) {
	tests := []struct {
		name     string
		self     domain.Identity
		profiles ProfileSource
		p        Participant
		want     string
	}{
		{
			name:     "transport photo",
			self:     domain.Identity{UID: "u1", PhotoURL: "https://id/photo.png"},
			profiles: fakeProfiles{photo: "https://profile/photo.png"},
			p:        Participant{PhotoURL: "https://call/photo.png"},
			want:     "https://call/photo.png",
		},
		{
			name:     "identity photo",
			self:     domain.Identity{UID: "u1", PhotoURL: "https://id/photo.png"},
			profiles: fakeProfiles{photo: "https://profile/photo.png"},
			want:     "https://id/photo.png",
		},
		{
			name:     "profile photo",
			self:     domain.Identity{UID: "u1"},
			profiles: fakeProfiles{photo: "https://profile/photo.png"},
			want:     "https://profile/photo.png",
		},
		{
			name:     "profile lookup fails",
			self:     domain.Identity{UID: "u1"},
			profiles: fakeProfiles{err: errTransport},
			want:     GeneratedAvatarURL("u1"),
		},
		{
			name: "no profile source",
			self: domain.Identity{UID: "u1"},
			want: GeneratedAvatarURL("u1"),
		},
		{
			name: "no uid",
			want: "https://api.dicebear.com/7.x/initials/svg?seed=Bo%20Li&backgroundType=gradientLinear",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.self, func(cfg *Config) { cfg.Profiles = tt.profiles })
			assert.Equal(t, tt.want, h.s.resolvePhoto(context.Background(), tt.p, "Bo Li"))
		})
	}
}

func TestGeneratedAvatarURL(t *testing.T) {
	assert.Equal(t, "https://api.dicebear.com/7.x/initials/svg?seed=guest&backgroundType=gradientLinear", GeneratedAvatarURL(""))
	assert.Equal(t, "https://api.dicebear.com/7.x/initials/svg?seed=a%26b&backgroundType=gradientLinear", GeneratedAvatarURL("a&b"))
}

func TestNotifications(t *testing.T) {
	h := startedHarness(t, guestIdentity)

	rae := Participant{SessionID: "s-r", UserID: "rae", UserName: "Rae"}
	h.send(ParticipantJoined{Participant: rae})
	h.send(ParticipantLeft{Participant: rae})
	h.send(ParticipantJoined{Participant: Participant{SessionID: "s-x"}})
	h.flush()

	var got []string
	for _, n := range h.notifications() {
		got = append(got, n.String())
	}
	assert.Equal(t, []string{
		"Rae joined the meeting",
		"Rae left the meeting",
		"Guest joined the meeting",
	}, got)
}

func TestActiveSpeakerIsHighlighted(t *testing.T) {
	h := startedHarness(t, guestIdentity)
	h.call.put(Participant{SessionID: "s-r", UserName: "Rae"})
	h.call.put(Participant{SessionID: "s-t", UserName: "Tom"})

	h.send(ActiveSpeakerChanged{SessionID: "s-t"})
	h.flush()

	tiles := h.s.View().Tiles
	require.Len(t, tiles, 2)
	assert.False(t, tiles[0].Speaking)
	assert.True(t, tiles[1].Speaking)
}

func TestKickParticipant(t *testing.T) {
	tests := []struct {
		name    string
		uid     string
		failOn  string
		wantErr bool
		entries []string
		banned  bool
	}{
		{
			name:    "kick",
			uid:     "guest-1",
			entries: []string{"send:kicked:s2", "eject:s2", "ban:guest-1"},
			banned:  true,
		},
		{
			name:    "uid from session",
			entries: []string{"send:kicked:s2", "eject:s2", "ban:guest-1"},
			banned:  true,
		},
		{
			name:    "notice fails",
			uid:     "guest-1",
			failOn:  "send",
			entries: []string{"send:kicked:s2", "eject:s2", "ban:guest-1"},
			banned:  true,
		},
		{
			name:    "eject fails",
			uid:     "guest-1",
			failOn:  "eject",
			wantErr: true,
			entries: []string{"send:kicked:s2", "eject:s2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := startedHarness(t, hostIdentity)
			h.call.put(Participant{SessionID: "s2", UserID: "guest-1", UserName: "Bo"})
			if tt.failOn != "" {
				h.call.failOn(tt.failOn, errTransport)
			}
			n := len(h.journal.all())

			err := h.s.KickParticipant(context.Background(), "s2", tt.uid)
			if tt.wantErr {
				assert.ErrorIs(t, err, errTransport)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.entries, h.entriesAfter(n))
			rec, _ := h.store.record("guest-1")
			assert.Equal(t, tt.banned, rec.Banned)
			if tt.banned {
				assert.False(t, rec.BannedAt.IsZero())
			}

			require.NotEmpty(t, h.call.messages)
			assert.Equal(t, domain.KickedMessage(""), h.call.messages[0])
			assert.Equal(t, domain.DefaultKickReason, h.call.messages[0].Reason)
		})
	}
}

func TestModerationRefusals(t *testing.T) {
	t.Run("guest cannot moderate", func(t *testing.T) {
		h := startedHarness(t, guestIdentity)
		h.call.put(Participant{SessionID: "s2", UserID: "other"})
		n := len(h.journal.all())

		assert.ErrorIs(t, h.s.KickParticipant(context.Background(), "s2", "other"), ErrNotHost)
		assert.ErrorIs(t, h.s.MuteParticipant(context.Background(), "s2"), ErrNotHost)
		assert.Empty(t, h.entriesAfter(n))
	})

	tests := []struct {
		name      string
		sessionID string
		uid       string
		wantErr   error
	}{
		{name: "owner session", sessionID: "s-owner", uid: "co-host", wantErr: ErrTargetIsAdmin},
		{name: "self", sessionID: "s-local", uid: "host", wantErr: ErrTargetIsAdmin},
		{name: "host on another device", sessionID: "s-host-2", uid: "host", wantErr: ErrTargetIsAdmin},
		{name: "unknown session", sessionID: "nope", uid: "guest-1", wantErr: ErrUnknownTarget},
		{name: "uid mismatch", sessionID: "s2", uid: "someone-else", wantErr: ErrUnknownTarget},
		{name: "no uid anywhere", sessionID: "s-anon", wantErr: ErrUnknownTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := startedHarness(t, hostIdentity)
			h.call.put(Participant{SessionID: "s2", UserID: "guest-1"})
			h.call.put(Participant{SessionID: "s-owner", UserID: "co-host", Owner: true})
			h.call.put(Participant{SessionID: "s-host-2", UserID: "host"})
			h.call.put(Participant{SessionID: "s-anon"})
			n := len(h.journal.all())

			assert.ErrorIs(t, h.s.KickParticipant(context.Background(), tt.sessionID, tt.uid), tt.wantErr)
			assert.Empty(t, h.entriesAfter(n))
			assert.Empty(t, h.store.writtenUIDs())
		})
	}
}

func TestMuteParticipant(t *testing.T) {
	h := startedHarness(t, hostIdentity)
	h.call.put(Participant{SessionID: "s2", UserID: "guest-1"})
	h.call.put(Participant{SessionID: "s-owner", UserID: "co-host", Owner: true})
	n := len(h.journal.all())

	require.NoError(t, h.s.MuteParticipant(context.Background(), "s2"))
	assert.ErrorIs(t, h.s.MuteParticipant(context.Background(), "s-owner"), ErrTargetIsAdmin)
	assert.Equal(t, []string{"mute:s2"}, h.entriesAfter(n))
}

func TestToggleMic(t *testing.T) {
	h := startedHarness(t, guestIdentity)
	n := len(h.journal.all())

	require.NoError(t, h.s.ToggleMic(context.Background()))
	assert.False(t, h.s.Controls().Muted)

	h.call.failOn("audio", errTransport)
	assert.ErrorIs(t, h.s.ToggleMic(context.Background()), errTransport)
	assert.False(t, h.s.Controls().Muted, "failed toggle is rolled back")

	assert.Equal(t, []string{"audio:on", "audio:off"}, h.entriesAfter(n))
}

func TestToggleCamera(t *testing.T) {
	h := startedHarness(t, guestIdentity)

	h.call.failOn("video", errTransport)
	assert.ErrorIs(t, h.s.ToggleCamera(context.Background()), errTransport)
	assert.False(t, h.s.Controls().Camera)

	h.call.failOn("video", nil)
	require.NoError(t, h.s.ToggleCamera(context.Background()))
	assert.True(t, h.s.Controls().Camera)
}

func TestScreenShareTurnsCameraOff(t *testing.T) {
	for _, cameraOn := range []bool{false, true} {
		t.Run(onOff(cameraOn), func(t *testing.T) {
			h := startedHarness(t, guestIdentity)
			if cameraOn {
				require.NoError(t, h.s.ToggleCamera(context.Background()))
			}
			n := len(h.journal.all())

			require.NoError(t, h.s.ToggleScreenShare(context.Background()))
			assert.Equal(t, []string{"video:off", "share:start"}, h.entriesAfter(n))
			c := h.s.Controls()
			assert.True(t, c.Sharing)
			assert.False(t, c.Camera)

			require.NoError(t, h.s.ToggleScreenShare(context.Background()))
			assert.Equal(t, []string{"video:off", "share:start", "share:stop"}, h.entriesAfter(n))
			c = h.s.Controls()
			assert.False(t, c.Sharing)
			assert.False(t, c.Camera, "camera is not restored when sharing stops")
		})
	}
}

func TestScreenShareFailures(t *testing.T) {
	t.Run("share fails", func(t *testing.T) {
		h := startedHarness(t, guestIdentity)
		require.NoError(t, h.s.ToggleCamera(context.Background()))
		h.call.failOn("share:start", errTransport)

		assert.ErrorIs(t, h.s.ToggleScreenShare(context.Background()), errTransport)
		assert.Equal(t, Controls{Muted: true}, h.s.Controls())
	})

	t.Run("camera off fails", func(t *testing.T) {
		h := startedHarness(t, guestIdentity)
		require.NoError(t, h.s.ToggleCamera(context.Background()))
		h.call.failOn("video", errTransport)
		n := len(h.journal.all())

		assert.ErrorIs(t, h.s.ToggleScreenShare(context.Background()), errTransport)
		assert.Equal(t, Controls{Muted: true, Camera: true}, h.s.Controls())
		assert.Equal(t, []string{"video:off"}, h.entriesAfter(n))
	})
}

func TestToggleRecording(t *testing.T) {
	t.Run("guest", func(t *testing.T) {
		h := startedHarness(t, guestIdentity)
		n := len(h.journal.all())

		require.NoError(t, h.s.ToggleRecording(context.Background()))
		assert.Empty(t, h.entriesAfter(n))
	})

	t.Run("host", func(t *testing.T) {
		h := startedHarness(t, hostIdentity)
		n := len(h.journal.all())

		require.NoError(t, h.s.ToggleRecording(context.Background()))
		assert.False(t, h.s.Controls().Recording, "flag follows transport events")

		h.send(RecordingStarted{})
		h.flush()
		assert.True(t, h.s.Controls().Recording)

		require.NoError(t, h.s.ToggleRecording(context.Background()))
		h.send(RecordingFailed{Err: errors.New("disk full")})
		h.flush()
		assert.False(t, h.s.Controls().Recording)

		assert.Equal(t, []string{"record:start", "record:stop"}, h.entriesAfter(n))
	})
}

func TestSessionEndsOnEveryExitPath(t *testing.T) {
	local := Participant{SessionID: "s-local", UserID: "guest", Local: true}

	tests := []struct {
		name    string
		trigger func(t *testing.T, h *harness, cancel context.CancelFunc)
	}{
		{"leave", func(t *testing.T, h *harness, _ context.CancelFunc) {
			require.NoError(t, h.s.Leave(context.Background()))
		}},
		{"transport left", func(_ *testing.T, h *harness, _ context.CancelFunc) {
			h.send(LeftMeeting{})
		}},
		{"local participant left", func(_ *testing.T, h *harness, _ context.CancelFunc) {
			h.send(ParticipantLeft{Participant: local})
		}},
		{"kicked", func(_ *testing.T, h *harness, _ context.CancelFunc) {
			h.send(AppMessageReceived{From: "s-host", Message: domain.KickedMessage("")})
		}},
		{"context cancelled", func(_ *testing.T, _ *harness, cancel context.CancelFunc) {
			cancel()
		}},
		{"event stream closed", func(_ *testing.T, h *harness, _ context.CancelFunc) {
			close(h.call.events)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			h := newHarness(t, guestIdentity)
			require.NoError(t, h.s.Start(ctx))

			cam := newTrack(t, "r-cam", webrtc.RTPCodecTypeVideo)
			remote := h.call.mutate("s-r", func(p *Participant) {
				*p = Participant{SessionID: "s-r", UserName: "Rae", Tracks: Tracks{Video: playable(cam)}}
			})
			h.send(TrackStarted{Participant: remote, Track: cam})
			h.flush()
			_, _, tiles := h.surface.snapshot()
			require.Len(t, tiles, 1)

			n := len(h.journal.all())
			tt.trigger(t, h, cancel)
			h.waitDone()

			assert.Equal(t, []string{"upsert:guest:left", "leave", "close"}, h.entriesAfter(n))
			assert.Equal(t, StateIdle, h.s.State())

			localVideo, stage, tiles := h.surface.snapshot()
			assert.Nil(t, localVideo)
			assert.Nil(t, stage)
			assert.Empty(t, tiles)

			assert.ErrorIs(t, h.s.ToggleMic(context.Background()), ErrNotConnected)
			assert.NoError(t, h.s.Leave(context.Background()))
		})
	}
}

func TestKickedNotification(t *testing.T) {
	h := startedHarness(t, guestIdentity)

	h.send(AppMessageReceived{Message: domain.AppMessage{Type: "chat"}})
	h.flush()
	assert.Equal(t, StateConnected, h.s.State(), "other app messages are ignored")

	h.send(AppMessageReceived{Message: domain.AppMessage{Type: domain.AppMessageKicked}})
	h.waitDone()

	notes := h.notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, NotifyKicked, notes[0].Kind)
	assert.Equal(t, "Removed by host", notes[0].String())
}

func TestRenderIsOrderIndependent(t *testing.T) {
	s1Cam := newTrack(t, "s1-cam", webrtc.RTPCodecTypeVideo)
	s1Mic := newTrack(t, "s1-mic", webrtc.RTPCodecTypeAudio)
	s1ScreenAudio := newTrack(t, "s1-screen-audio", webrtc.RTPCodecTypeAudio)
	s2Screen := newTrack(t, "s2-screen", webrtc.RTPCodecTypeVideo)
	s2Mic := newTrack(t, "s2-mic", webrtc.RTPCodecTypeAudio)
	s3Cam := newTrack(t, "s3-cam", webrtc.RTPCodecTypeVideo)
	s3Mic := newTrack(t, "s3-mic", webrtc.RTPCodecTypeAudio)

	started := func(p Participant) Event { return TrackStarted{Participant: p} }
	updated := func(p Participant) Event { return ParticipantUpdated{Participant: p} }

	changes := []struct {
		sessionID string
		apply     func(p *Participant)
		event     func(p Participant) Event
	}{
		{"s1", func(p *Participant) { p.Tracks.Video = playable(s1Cam) }, started},
		{"s1", func(p *Participant) { p.Tracks.Audio = playable(s1Mic) }, started},
		{"s1", func(p *Participant) { p.Tracks.ScreenAudio = playable(s1ScreenAudio) }, started},
		{"s2", func(p *Participant) { p.Tracks.ScreenVideo = playable(s2Screen) }, started},
		{"s2", func(p *Participant) { p.Tracks.Audio = playable(s2Mic) }, started},
		{"s2", func(p *Participant) { p.UserName = "Cleo" }, updated},
		{"s3", func(p *Participant) { p.Tracks.Video = TrackInfo{State: TrackLoading, Track: s3Cam} }, started},
		{"s3", func(p *Participant) { p.Tracks.Audio = TrackInfo{State: TrackInterrupted, Track: s3Mic} }, updated},
		{"s3", func(p *Participant) { p.Owner = true }, updated},
	}

	var first []Tile
	for seed := int64(1); seed <= 40; seed++ {
		h := startedHarness(t, hostIdentity)
		for _, sid := range []string{"s1", "s2", "s3"} {
			h.call.put(Participant{SessionID: sid, UserID: "u-" + sid})
		}

		for _, i := range rand.New(rand.NewSource(seed)).Perm(len(changes)) {
			c := changes[i]
			p := h.call.mutate(c.sessionID, c.apply)
			h.send(c.event(p))
		}
		h.flush()

		_, stage, tiles := h.surface.snapshot()
		want := ComputeView(h.call.Participants(), "", Viewer{IsHost: true})
		require.Equal(t, want.Tiles, tiles, "seed %d", seed)
		require.Same(t, s2Screen, stage, "seed %d", seed)

		if first == nil {
			first = tiles
			continue
		}
		require.Equal(t, first, tiles, "seed %d", seed)
	}

	require.Len(t, first, 3)
	assert.Equal(t, "Cleo", first[1].Name)
	assert.True(t, first[1].IsScreen)
	assert.Equal(t, "U", first[2].Initial, "no playable media on s3")
	assert.True(t, first[2].Admin)
	assert.False(t, first[2].Moderatable)
}
