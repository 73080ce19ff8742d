package service

import (
	"context"
	"errors"
	"time"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/feed"
	"github.com/immxrtalbeast/axenix_meet/internal/provider"
)

var (
	ErrUnauthenticated     = errors.New("sign in required")
	ErrForbidden           = errors.New("forbidden")
	ErrBanned              = errors.New("banned")
	ErrBanCheckUnavailable = errors.New("ban check unavailable")
	ErrQuotaExceeded       = errors.New("monthly limit reached")
	ErrInvalidArgument     = errors.New("invalid argument")
)

type TokenInteractor interface {
	IssueJoinToken(ctx context.Context, req domain.JoinTokenRequest) (string, error)
}

type MeetingInteractor interface {
	CreateRoom(ctx context.Context) (domain.Room, error)
	CreateMeeting(ctx context.Context, caller domain.Identity, in CreateMeetingInput) (*domain.Meeting, error)
	GetMeeting(ctx context.Context, id string) (*domain.Meeting, error)
	ResolveMeeting(ctx context.Context, input string) (*domain.Meeting, error)
	ListParticipants(ctx context.Context, meetingID string) ([]*domain.Participant, error)
	UpsertOwnParticipant(ctx context.Context, caller domain.Identity, meetingID string, patch domain.ParticipantPatch) (*domain.Participant, error)
	BanParticipant(ctx context.Context, caller domain.Identity, meetingID, targetUID string) (*domain.Participant, error)
	ListMyMeetings(ctx context.Context, caller domain.Identity, q MyMeetingsQuery) ([]MeetingSummary, error)
	Subscribe(meetingID string) *feed.Subscription
}

type RecordingInteractor interface {
	ListProviderRecordings(ctx context.Context, limit int, cursor string) (*provider.RecordingPage, error)
	Ingest(ctx context.Context, caller domain.Identity, id string) (*IngestResult, error)
	DeleteOwned(ctx context.Context, caller domain.Identity, id string) error
	DeleteMaster(ctx context.Context, caller domain.Identity, id string) error
	ListOwned(ctx context.Context, caller domain.Identity) ([]*domain.Recording, error)
}

type UserInteractor interface {
	EnsureUser(ctx context.Context, id domain.Identity) (*domain.User, error)
	ClaimUsername(ctx context.Context, caller domain.Identity, raw string) (*domain.User, error)
	GetUser(ctx context.Context, uid string) (*domain.User, error)
}

type CreateMeetingInput struct {
	Topic           string
	MaxParticipants int
	Device          domain.Device
}

type MyMeetingsQuery struct {
	Limit     int
	EndedOnly bool
}

// MeetingSummary is a meeting seen from one participant.
type MeetingSummary struct {
	Meeting    *domain.Meeting
	MyJoinedAt time.Time
	MyLeftAt   time.Time
	MyDuration time.Duration
}

type IngestResult struct {
	Recording *domain.Recording
	Already   bool
}

func requireCaller(caller domain.Identity) error {
	if caller.UID == "" {
		return ErrUnauthenticated
	}
	return nil
}
