package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/lib/logger/sl"
)

const defaultTeardownTimeout = 5 * time.Second

var (
	ErrNotHost        = errors.New("only the meeting host can do this")
	ErrTargetIsAdmin  = errors.New("target is a meeting admin")
	ErrUnknownTarget  = errors.New("unknown participant")
	ErrNotConnected   = errors.New("session is not connected")
	ErrAlreadyStarted = errors.New("session already started")
	ErrNoRoom         = errors.New("meeting has no call room")
)

type State int32

const (
	StateIdle State = iota
	StateJoining
	StateConnected
	StateLeaving
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateJoining:
		return "joining"
	case StateConnected:
		return "connected"
	case StateLeaving:
		return "leaving"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

type NotificationKind string

const (
	NotifyJoined NotificationKind = "joined"
	NotifyLeft   NotificationKind = "left"
	NotifyKicked NotificationKind = "kicked"
)

// Notification is a short message for the user about other participants
// or about being removed.
type Notification struct {
	Kind   NotificationKind
	Name   string
	Reason string
}

func (n Notification) String() string {
	switch n.Kind {
	case NotifyJoined:
		return n.Name + " joined the meeting"
	case NotifyLeft:
		return n.Name + " left the meeting"
	case NotifyKicked:
		return n.Reason
	}
	return ""
}

// Controls is the local media state as shown to the user.
type Controls struct {
	Muted     bool
	Camera    bool
	Sharing   bool
	Recording bool
}

type Config struct {
	Meeting  *domain.Meeting
	Self     domain.Identity
	Device   domain.Device
	Call     Call
	Tokens   TokenSource
	Store    ParticipantStore
	Profiles ProfileSource
	Surface  Surface
	// Notify runs on the session goroutine and must not block.
	Notify          func(Notification)
	Log             *slog.Logger
	TeardownTimeout time.Duration
}

type command struct {
	fn   func() error
	done chan error
}

// Synchronizer owns one call session. Transport events and user commands
// are handled one at a time on a single goroutine.
type Synchronizer struct {
	log             *slog.Logger
	meeting         *domain.Meeting
	self            domain.Identity
	device          domain.Device
	call            Call
	tokens          TokenSource
	store           ParticipantStore
	profiles        ProfileSource
	surface         Surface
	notify          func(Notification)
	teardownTimeout time.Duration
	now             func() time.Time

	state   atomic.Int32
	started atomic.Bool
	// leaving is set by Leave before it looks at the state, so a Leave that
	// arrives while joining is picked up by Start.
	leaving atomic.Bool
	cmds    chan command
	done    chan struct{}

	// Owned by the session goroutine.
	activeSpeaker string
	joined        bool

	mu       sync.RWMutex
	controls Controls
	view     View
}

func New(cfg Config) (*Synchronizer, error) {
	const op = "session.New"

	switch {
	case cfg.Meeting == nil:
		return nil, fmt.Errorf("%s: meeting required", op)
	case cfg.Call == nil:
		return nil, fmt.Errorf("%s: call required", op)
	case cfg.Tokens == nil:
		return nil, fmt.Errorf("%s: token source required", op)
	case cfg.Store == nil:
		return nil, fmt.Errorf("%s: participant store required", op)
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	device := cfg.Device
	if device.Kind == "" {
		device.Kind = "web"
	}
	timeout := cfg.TeardownTimeout
	if timeout <= 0 {
		timeout = defaultTeardownTimeout
	}

	return &Synchronizer{
		log: log.With(
			slog.String("meeting_id", cfg.Meeting.ID),
			slog.String("uid", cfg.Self.UID),
		),
		meeting:         cfg.Meeting,
		self:            cfg.Self,
		device:          device,
		call:            cfg.Call,
		tokens:          cfg.Tokens,
		store:           cfg.Store,
		profiles:        cfg.Profiles,
		surface:         cfg.Surface,
		notify:          cfg.Notify,
		teardownTimeout: timeout,
		now:             func() time.Time { return time.Now().UTC() },
		cmds:            make(chan command),
		done:            make(chan struct{}),
		controls:        Controls{Muted: true},
	}, nil
}

// Start joins the call and runs the session until it is left, the user is
// kicked, the transport reports the local participant gone or ctx ends. A
// failed join tears everything down and returns the cause. If Leave was
// called during the join, Start tears down and returns nil.
func (s *Synchronizer) Start(ctx context.Context) error {
	const op = "session.Start"

	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	s.setState(StateJoining)

	if err := s.join(ctx); err != nil {
		s.log.Error("join failed", slog.String("op", op), sl.Err(err))
		s.teardown()
		return fmt.Errorf("%s: %w", op, err)
	}

	s.setState(StateConnected)
	if s.leaving.Load() {
		s.log.Info("left while joining", slog.String("op", op))
		s.teardown()
		return nil
	}
	s.render()
	s.log.Info("joined meeting", slog.String("op", op), slog.String("room", s.meeting.JoinRoomName()))

	go s.run(ctx)
	return nil
}

func (s *Synchronizer) join(ctx context.Context) error {
	if s.meeting.RoomURL == "" {
		return ErrNoRoom
	}

	userName := s.self.DisplayName
	if userName == "" {
		userName = "Guest"
	}
	token, err := s.tokens.JoinToken(ctx, domain.JoinTokenRequest{
		RoomName:  s.meeting.JoinRoomName(),
		UserName:  userName,
		IsOwner:   s.isHost(),
		UserID:    s.self.UID,
		MeetingID: s.meeting.ID,
	})
	if err != nil {
		return fmt.Errorf("join token: %w", err)
	}

	if err := s.call.Join(ctx, s.meeting.RoomURL, token); err != nil {
		return fmt.Errorf("transport join: %w", err)
	}
	s.joined = true

	c := s.Controls()
	if err := s.call.SetLocalAudio(ctx, !c.Muted); err != nil {
		s.log.Warn("initial mic state not applied", sl.Err(err))
	}
	if err := s.call.SetLocalVideo(ctx, c.Camera); err != nil {
		s.log.Warn("initial camera state not applied", sl.Err(err))
	}
	return nil
}

// Leave ends the session and waits for teardown to finish.
func (s *Synchronizer) Leave(ctx context.Context) error {
	if s.started.CompareAndSwap(false, true) {
		close(s.done)
		return nil
	}
	s.leaving.Store(true)

	err := s.do(ctx, func() error {
		s.setState(StateLeaving)
		return nil
	})
	if err != nil && !errors.Is(err, ErrNotConnected) {
		return err
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the session has been torn down.
func (s *Synchronizer) Done() <-chan struct{} {
	return s.done
}

func (s *Synchronizer) State() State {
	return State(s.state.Load())
}

func (s *Synchronizer) Controls() Controls {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.controls
}

// View returns the last rendered view.
func (s *Synchronizer) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.view
	v.Tiles = append([]Tile(nil), s.view.Tiles...)
	return v
}

func (s *Synchronizer) setState(st State) {
	s.state.Store(int32(st))
}

func (s *Synchronizer) updateControls(fn func(c *Controls)) {
	s.mu.Lock()
	fn(&s.controls)
	s.mu.Unlock()
}

func (s *Synchronizer) isHost() bool {
	return s.meeting.IsHost(s.self.UID)
}

func (s *Synchronizer) run(ctx context.Context) {
	events := s.call.Events()
	for s.State() == StateConnected {
		select {
		case <-ctx.Done():
			s.log.Info("session cancelled")
			s.setState(StateLeaving)
		case ev, ok := <-events:
			if !ok {
				s.log.Warn("transport event stream closed")
				s.setState(StateLeaving)
				continue
			}
			s.reduce(ctx, ev)
		case cmd := <-s.cmds:
			cmd.done <- cmd.fn()
		}
	}
	s.teardown()
}

// do runs fn on the session goroutine and returns its result.
func (s *Synchronizer) do(ctx context.Context, fn func() error) error {
	if s.State() != StateConnected {
		return ErrNotConnected
	}

	cmd := command{fn: fn, done: make(chan error, 1)}
	select {
	case s.cmds <- cmd:
	case <-s.done:
		return ErrNotConnected
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reduce applies one transport event. Every event that can change what is
// on screen ends in a full re-render from the transport snapshot.
func (s *Synchronizer) reduce(ctx context.Context, ev Event) {
	switch e := ev.(type) {
	case JoinedMeeting:
		s.syncOwnRecord(ctx, e.Local, true)
	case ParticipantJoined:
		if e.Participant.Local {
			s.syncOwnRecord(ctx, e.Participant, false)
		} else {
			s.emit(Notification{Kind: NotifyJoined, Name: e.Participant.DisplayName()})
		}
	case ParticipantUpdated:
		if e.Participant.Local {
			s.syncOwnRecord(ctx, e.Participant, false)
		}
	case ParticipantLeft:
		if e.Participant.Local {
			s.log.Info("transport reported local participant left")
			s.setState(StateLeaving)
			return
		}
		s.emit(Notification{Kind: NotifyLeft, Name: e.Participant.DisplayName()})
	case TrackStarted, TrackStopped:
	case ActiveSpeakerChanged:
		s.activeSpeaker = e.SessionID
	case AppMessageReceived:
		if e.Message.Type != domain.AppMessageKicked {
			return
		}
		reason := e.Message.Reason
		if reason == "" {
			reason = domain.DefaultKickReason
		}
		s.log.Info("removed by host", slog.String("reason", reason))
		s.emit(Notification{Kind: NotifyKicked, Reason: reason})
		s.setState(StateLeaving)
		return
	case RecordingStarted:
		s.updateControls(func(c *Controls) { c.Recording = true })
		return
	case RecordingStopped:
		s.updateControls(func(c *Controls) { c.Recording = false })
		return
	case RecordingFailed:
		s.log.Error("recording failed", sl.Err(e.Err))
		s.updateControls(func(c *Controls) { c.Recording = false })
		return
	case LeftMeeting:
		s.setState(StateLeaving)
		return
	default:
		s.log.Warn("unknown transport event", slog.String("type", fmt.Sprintf("%T", ev)))
		return
	}
	s.render()
}

func (s *Synchronizer) syncOwnRecord(ctx context.Context, p Participant, setJoinedAt bool) {
	status := domain.ParticipantStatusConnected
	if err := s.upsertOwnParticipantRecord(ctx, p, &status, setJoinedAt); err != nil {
		s.log.Error("participant record write failed", sl.Err(err))
	}
}

func (s *Synchronizer) emit(n Notification) {
	if s.notify != nil {
		s.notify(n)
	}
}

func (s *Synchronizer) render() {
	view := ComputeView(s.call.Participants(), s.activeSpeaker, Viewer{IsHost: s.isHost()})

	s.mu.Lock()
	s.view = view
	s.mu.Unlock()

	s.attachLocalMedia(view)
	s.attachScreenStage(view)
	s.renderRemoteTiles(view)
}

func (s *Synchronizer) attachLocalMedia(v View) {
	if s.surface != nil {
		s.surface.AttachLocalVideo(v.LocalVideo)
	}
}

func (s *Synchronizer) attachScreenStage(v View) {
	if s.surface != nil {
		s.surface.AttachStage(v.Stage)
	}
}

func (s *Synchronizer) renderRemoteTiles(v View) {
	if s.surface != nil {
		s.surface.RenderTiles(v.Tiles)
	}
}

// teardown runs on every exit path. Leave bookkeeping is best effort and
// never blocks releasing the call.
func (s *Synchronizer) teardown() {
	const op = "session.teardown"
	log := s.log.With(slog.String("op", op))

	s.setState(StateLeaving)

	ctx, cancel := context.WithTimeout(context.Background(), s.teardownTimeout)
	defer cancel()

	if s.joined {
		if err := s.markLeft(ctx); err != nil {
			log.Warn("leave not recorded", sl.Err(err))
		}
		if err := s.call.Leave(ctx); err != nil {
			log.Warn("transport leave failed", sl.Err(err))
		}
	}
	if err := s.call.Close(); err != nil {
		log.Warn("transport close failed", sl.Err(err))
	}

	if s.surface != nil {
		s.surface.AttachLocalVideo(nil)
		s.surface.AttachStage(nil)
		s.surface.RenderTiles(nil)
	}

	s.setState(StateIdle)
	close(s.done)
	log.Info("session closed")
}
