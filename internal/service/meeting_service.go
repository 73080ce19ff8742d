package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/feed"
	"github.com/immxrtalbeast/axenix_meet/internal/provider"
	"github.com/immxrtalbeast/axenix_meet/internal/repository"
	"github.com/immxrtalbeast/axenix_meet/lib/logger/sl"
)

const (
	defaultMyMeetingsLimit = 10
	maxMyMeetingsLimit     = 50
)

type MeetingService struct {
	log          *slog.Logger
	meetings     repository.MeetingRepository
	participants repository.ParticipantRepository
	rooms        provider.RoomProvisioner
	hub          *feed.Hub
	providerKind string
	roomLifetime time.Duration
	now          func() time.Time
}

func NewMeetingService(
	log *slog.Logger,
	meetings repository.MeetingRepository,
	participants repository.ParticipantRepository,
	rooms provider.RoomProvisioner,
	hub *feed.Hub,
	providerKind string,
	roomLifetime time.Duration,
) *MeetingService {
	if log == nil {
		log = slog.Default()
	}
	if hub == nil {
		hub = feed.NewHub(log)
	}
	return &MeetingService{
		log:          log,
		meetings:     meetings,
		participants: participants,
		rooms:        rooms,
		hub:          hub,
		providerKind: providerKind,
		roomLifetime: roomLifetime,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *MeetingService) CreateRoom(ctx context.Context) (domain.Room, error) {
	const op = "service.meeting.CreateRoom"

	room, err := s.rooms.CreateRoom(ctx, provider.RoomOptions{Lifetime: s.roomLifetime})
	if err != nil {
		s.log.Error("room create failed", slog.String("op", op), sl.Err(err))
		return domain.Room{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("room created", slog.String("op", op), slog.String("room", room.Name))
	return room, nil
}

// CreateMeeting provisions a room, stores the meeting and the host's
// participant record in status waiting.
func (s *MeetingService) CreateMeeting(ctx context.Context, caller domain.Identity, in CreateMeetingInput) (*domain.Meeting, error) {
	const op = "service.meeting.CreateMeeting"
	log := s.log.With(slog.String("op", op), slog.String("uid", caller.UID))

	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	room, err := s.CreateRoom(ctx)
	if err != nil {
		return nil, err
	}

	name := caller.DisplayName
	if name == "" {
		name = "Unknown"
	}
	meeting := domain.NewMeeting(in.Topic, domain.Creator{
		UID:      caller.UID,
		Name:     name,
		Email:    caller.Email,
		PhotoURL: caller.PhotoURL,
	}, s.providerKind, room.URL, room.Name, in.MaxParticipants)

	if err := s.meetings.Create(ctx, meeting); err != nil {
		log.Error("meeting write failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hostName := caller.DisplayName
	if hostName == "" {
		hostName = "Host"
	}
	role := domain.RoleHost
	status := domain.ParticipantStatusWaiting
	joinedAt := s.now()
	device := in.Device
	if device.Kind == "" {
		device.Kind = "web"
	}
	emptySession := ""
	host, err := s.participants.Upsert(ctx, meeting.ID, caller.UID, domain.ParticipantPatch{
		DisplayName: &hostName,
		Role:        &role,
		Status:      &status,
		JoinedAt:    &joinedAt,
		Device:      &device,
		SessionID:   &emptySession,
	})
	if err != nil {
		log.Error("host participant write failed", slog.String("meeting_id", meeting.ID), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.publish(host)

	log.Info("meeting created", slog.String("meeting_id", meeting.ID), slog.String("room", room.Name))
	return meeting, nil
}

func (s *MeetingService) GetMeeting(ctx context.Context, id string) (*domain.Meeting, error) {
	const op = "service.meeting.GetMeeting"

	meeting, err := s.meetings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return meeting, nil
}

// ResolveMeeting finds the meeting behind a pasted app link, room URL or
// code. A room URL matches on the full URL first, then on its room name. A
// code matches on room name, then on meeting id.
func (s *MeetingService) ResolveMeeting(ctx context.Context, input string) (*domain.Meeting, error) {
	const op = "service.meeting.ResolveMeeting"

	var (
		meeting *domain.Meeting
		err     error
	)

	in := domain.ParseJoinInput(input)
	switch in.Kind {
	case domain.JoinInputMeetingID:
		meeting, err = s.meetings.GetByID(ctx, in.MeetingID)
	case domain.JoinInputRoomURL:
		meeting, err = s.meetings.GetByRoomURL(ctx, in.URL)
		if errors.Is(err, repository.ErrMeetingNotFound) && in.RoomName != "" {
			meeting, err = s.meetings.GetByRoomName(ctx, in.RoomName)
		}
	case domain.JoinInputToken:
		meeting, err = s.meetings.GetByRoomName(ctx, in.Token)
		if errors.Is(err, repository.ErrMeetingNotFound) {
			meeting, err = s.meetings.GetByID(ctx, in.Token)
		}
	default:
		return nil, fmt.Errorf("%s: not a meeting link or code: %w", op, ErrInvalidArgument)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return meeting, nil
}

func (s *MeetingService) ListParticipants(ctx context.Context, meetingID string) ([]*domain.Participant, error) {
	const op = "service.meeting.ListParticipants"

	list, err := s.participants.ListByMeeting(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// UpsertOwnParticipant merges patch into the caller's own record. The record
// key is always the caller's uid, the role is derived from the meeting and
// the ban fields cannot be written this way.
func (s *MeetingService) UpsertOwnParticipant(ctx context.Context, caller domain.Identity, meetingID string, patch domain.ParticipantPatch) (*domain.Participant, error) {
	const op = "service.meeting.UpsertOwnParticipant"

	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	patch.Banned = nil
	patch.BannedAt = nil
	role := meeting.RoleOf(caller.UID)
	patch.Role = &role

	p, err := s.participants.Upsert(ctx, meetingID, caller.UID, patch)
	if err != nil {
		s.log.Error("participant write failed",
			slog.String("op", op),
			slog.String("meeting_id", meetingID),
			slog.String("uid", caller.UID),
			sl.Err(err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.publish(p)
	return p, nil
}

// BanParticipant is the one write a caller may make on another participant's
// record, and only as the meeting host.
func (s *MeetingService) BanParticipant(ctx context.Context, caller domain.Identity, meetingID, targetUID string) (*domain.Participant, error) {
	const op = "service.meeting.BanParticipant"
	log := s.log.With(
		slog.String("op", op),
		slog.String("meeting_id", meetingID),
		slog.String("target", targetUID),
	)

	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if targetUID == "" {
		return nil, fmt.Errorf("%s: target uid required: %w", op, ErrInvalidArgument)
	}

	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !meeting.IsHost(caller.UID) {
		log.Warn("non-host ban attempt", slog.String("uid", caller.UID))
		return nil, fmt.Errorf("%s: only the host can ban: %w", op, ErrForbidden)
	}
	if meeting.IsHost(targetUID) {
		return nil, fmt.Errorf("%s: the host cannot be banned: %w", op, ErrForbidden)
	}

	p, err := s.participants.Upsert(ctx, meetingID, targetUID, domain.BanPatch(s.now()))
	if err != nil {
		log.Error("ban write failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.publish(p)

	log.Info("participant banned")
	return p, nil
}

func (s *MeetingService) ListMyMeetings(ctx context.Context, caller domain.Identity, q MyMeetingsQuery) ([]MeetingSummary, error) {
	const op = "service.meeting.ListMyMeetings"

	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultMyMeetingsLimit
	}
	if limit > maxMyMeetingsLimit {
		limit = maxMyMeetingsLimit
	}

	records, err := s.participants.ListByUser(ctx, caller.UID, limit*2)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]MeetingSummary, 0, len(records))
	for _, rec := range records {
		meeting, err := s.meetings.GetByID(ctx, rec.MeetingID)
		if err != nil {
			if errors.Is(err, repository.ErrMeetingNotFound) {
				continue
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if q.EndedOnly && !meeting.IsEnded() {
			continue
		}

		summary := MeetingSummary{
			Meeting:    meeting,
			MyJoinedAt: rec.JoinedAt,
			MyLeftAt:   rec.LeftAt,
		}
		end := rec.LeftAt
		if end.IsZero() {
			end = meeting.EndedAt
		}
		if !end.IsZero() && end.After(rec.JoinedAt) {
			summary.MyDuration = end.Sub(rec.JoinedAt)
		}
		result = append(result, summary)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (s *MeetingService) Subscribe(meetingID string) *feed.Subscription {
	return s.hub.Subscribe(meetingID)
}

func (s *MeetingService) publish(p *domain.Participant) {
	s.hub.Publish(domain.ParticipantChange{MeetingID: p.MeetingID, Participant: *p})
}
