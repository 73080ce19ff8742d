package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/pion/webrtc/v3"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

var errTransport = errors.New("transport unavailable")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTrack(t *testing.T, id string, kind webrtc.RTPCodecType) TrackHandle {
	t.Helper()
	mime := webrtc.MimeTypeVP8
	if kind == webrtc.RTPCodecTypeAudio {
		mime = webrtc.MimeTypeOpus
	}
	track, err := webrtc.NewTrackLocalStaticRTP(webrtc.RTPCodecCapability{MimeType: mime}, id, "stream-"+id)
	require.NoError(t, err)
	return track
}

func playable(track TrackHandle) TrackInfo {
	return TrackInfo{State: TrackPlayable, Track: track}
}

// journal is a shared, ordered log of side effects.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type fakeCall struct {
	name    string
	journal *journal
	events  chan Event

	mu           sync.Mutex
	participants Snapshot
	fail         map[string]error
	joinURL      string
	joinToken    string
	messages     []domain.AppMessage
}

func newFakeCall(name string, j *journal) *fakeCall {
	return &fakeCall{
		name:         name,
		journal:      j,
		events:       make(chan Event),
		participants: Snapshot{},
		fail:         map[string]error{},
	}
}

func (f *fakeCall) failOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

func (f *fakeCall) step(op, entry string) error {
	if f.name != "" {
		entry = f.name + "/" + entry
	}
	f.journal.add(entry)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail[op]
}

func (f *fakeCall) put(p Participant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.participants[p.SessionID] = p
}

func (f *fakeCall) mutate(sessionID string, fn func(p *Participant)) Participant {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.participants[sessionID]
	fn(&p)
	f.participants[sessionID] = p
	return p
}

func (f *fakeCall) Join(_ context.Context, url, token string) error {
	f.mu.Lock()
	f.joinURL, f.joinToken = url, token
	f.mu.Unlock()
	return f.step("join", "join")
}

func (f *fakeCall) Leave(context.Context) error { return f.step("leave", "leave") }
func (f *fakeCall) Close() error                { return f.step("close", "close") }

func (f *fakeCall) Participants() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(Snapshot, len(f.participants))
	for k, v := range f.participants {
		out[k] = v
	}
	return out
}

func (f *fakeCall) Events() <-chan Event { return f.events }

func (f *fakeCall) SetLocalAudio(_ context.Context, on bool) error {
	return f.step("audio", "audio:"+onOff(on))
}

func (f *fakeCall) SetLocalVideo(_ context.Context, on bool) error {
	return f.step("video", "video:"+onOff(on))
}

func (f *fakeCall) StartScreenShare(context.Context) error { return f.step("share:start", "share:start") }
func (f *fakeCall) StopScreenShare(context.Context) error  { return f.step("share:stop", "share:stop") }
func (f *fakeCall) StartRecording(context.Context) error   { return f.step("record:start", "record:start") }
func (f *fakeCall) StopRecording(context.Context) error    { return f.step("record:stop", "record:stop") }

func (f *fakeCall) UpdateParticipant(_ context.Context, sessionID string, u ParticipantUpdate) error {
	if u.Eject {
		return f.step("eject", "eject:"+sessionID)
	}
	return f.step("mute", "mute:"+sessionID)
}

func (f *fakeCall) SendAppMessage(_ context.Context, msg domain.AppMessage, to string) error {
	f.mu.Lock()
	f.messages = append(f.messages, msg)
	f.mu.Unlock()
	return f.step("send", "send:"+msg.Type+":"+to)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

type fakeStore struct {
	journal *journal

	mu      sync.Mutex
	records map[string]domain.Participant
	uids    []string
	err     error
	banErr  error
}

func newFakeStore(j *journal) *fakeStore {
	return &fakeStore{journal: j, records: map[string]domain.Participant{}}
}

func (s *fakeStore) UpsertOwn(_ context.Context, meetingID, uid string, patch domain.ParticipantPatch) error {
	status := "-"
	if patch.Status != nil {
		status = string(*patch.Status)
	}
	s.journal.add("upsert:" + uid + ":" + status)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.uids = append(s.uids, uid)
	if s.err != nil {
		return s.err
	}
	rec := s.records[uid]
	rec.MeetingID, rec.UID = meetingID, uid
	patch.Apply(&rec)
	s.records[uid] = rec
	return nil
}

func (s *fakeStore) BanParticipant(_ context.Context, meetingID, uid string) error {
	s.journal.add("ban:" + uid)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.banErr != nil {
		return s.banErr
	}
	rec := s.records[uid]
	rec.MeetingID, rec.UID = meetingID, uid
	domain.BanPatch(time.Now()).Apply(&rec)
	s.records[uid] = rec
	return nil
}

func (s *fakeStore) record(uid string) (domain.Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[uid]
	return rec, ok
}

func (s *fakeStore) writtenUIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.uids...)
}

type fakeTokens struct {
	mu       sync.Mutex
	requests []domain.JoinTokenRequest
	err      error
}

func (f *fakeTokens) JoinToken(_ context.Context, req domain.JoinTokenRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return "token-" + req.RoomName, nil
}

type fakeProfiles struct {
	photo string
	err   error
}

func (f fakeProfiles) PhotoURL(context.Context, string) (string, error) {
	return f.photo, f.err
}

type recordingSurface struct {
	mu      sync.Mutex
	local   TrackHandle
	stage   TrackHandle
	tiles   []Tile
	renders int
}

func (r *recordingSurface) AttachLocalVideo(track TrackHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.local = track
}

func (r *recordingSurface) AttachStage(track TrackHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stage = track
}

func (r *recordingSurface) RenderTiles(tiles []Tile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tiles = append([]Tile(nil), tiles...)
	r.renders++
}

func (r *recordingSurface) snapshot() (TrackHandle, TrackHandle, []Tile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.local, r.stage, append([]Tile(nil), r.tiles...)
}

var (
	hostIdentity  = domain.Identity{UID: "host", DisplayName: "Ana"}
	guestIdentity = domain.Identity{UID: "guest", DisplayName: "Bo"}
)

func testMeeting() *domain.Meeting {
	return &domain.Meeting{
		ID:        "m1",
		RoomURL:   "https://acme.daily.co/standup",
		RoomName:  "standup",
		CreatedBy: domain.Creator{UID: "host", Name: "Ana"},
	}
}

type harness struct {
	t       *testing.T
	s       *Synchronizer
	journal *journal
	call    *fakeCall
	store   *fakeStore
	tokens  *fakeTokens
	surface *recordingSurface

	mu    sync.Mutex
	notes []Notification
}

func newHarness(t *testing.T, self domain.Identity, configure ...func(*Config)) *harness {
	t.Helper()
	j := &journal{}
	h := &harness{
		t:       t,
		journal: j,
		call:    newFakeCall("", j),
		store:   newFakeStore(j),
		tokens:  &fakeTokens{},
		surface: &recordingSurface{},
	}
	h.call.put(Participant{SessionID: "s-local", UserID: self.UID, UserName: self.DisplayName, Local: true, Owner: self.UID == "host"})

	cfg := Config{
		Meeting: testMeeting(),
		Self:    self,
		Device:  domain.Device{Kind: "web", UserAgent: "test"},
		Call:    h.call,
		Tokens:  h.tokens,
		Store:   h.store,
		Surface: h.surface,
		Notify: func(n Notification) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.notes = append(h.notes, n)
		},
		Log: discardLogger(),
	}
	for _, fn := range configure {
		fn(&cfg)
	}

	s, err := New(cfg)
	require.NoError(t, err)
	h.s = s
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
		defer cancel()
		_ = s.Leave(ctx)
	})
	return h
}

func startedHarness(t *testing.T, self domain.Identity, configure ...func(*Config)) *harness {
	t.Helper()
	h := newHarness(t, self, configure...)
	require.NoError(t, h.s.Start(context.Background()))
	return h
}

func (h *harness) send(ev Event) {
	h.t.Helper()
	select {
	case h.call.events <- ev:
	case <-time.After(waitTimeout):
		h.t.Fatalf("event %T not consumed", ev)
	}
}

// flush returns once every event sent so far has been fully handled.
func (h *harness) flush() {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	require.NoError(h.t, h.s.do(ctx, func() error { return nil }))
}

func (h *harness) waitDone() {
	h.t.Helper()
	select {
	case <-h.s.Done():
	case <-time.After(waitTimeout):
		h.t.Fatal("session not torn down")
	}
}

func (h *harness) notifications() []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Notification(nil), h.notes...)
}

// entriesAfter returns the journal entries recorded after Start.
func (h *harness) entriesAfter(n int) []string {
	all := h.journal.all()
	if n > len(all) {
		return nil
	}
	return all[n:]
}
