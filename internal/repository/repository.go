package repository

import (
	"context"
	"errors"
	"time"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
)

var (
	ErrMeetingNotFound     = errors.New("meeting not found")
	ErrMeetingExists       = errors.New("meeting already exists")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrRecordingNotFound   = errors.New("recording not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("user already exists")
	ErrUsernameTaken       = errors.New("username is already taken")
)

type MeetingRepository interface {
	Create(ctx context.Context, meeting *domain.Meeting) error
	GetByID(ctx context.Context, id string) (*domain.Meeting, error)
	// GetByRoomURL and GetByRoomName return the oldest matching meeting.
	GetByRoomURL(ctx context.Context, roomURL string) (*domain.Meeting, error)
	GetByRoomName(ctx context.Context, roomName string) (*domain.Meeting, error)
}

// ParticipantRepository stores participant records keyed by meeting id and
// uid. Upsert has merge semantics.
type ParticipantRepository interface {
	Get(ctx context.Context, meetingID, uid string) (*domain.Participant, error)
	Upsert(ctx context.Context, meetingID, uid string, patch domain.ParticipantPatch) (*domain.Participant, error)
	ListByMeeting(ctx context.Context, meetingID string) ([]*domain.Participant, error)
	// ListByUser returns uid's records that have a join time, most recent first.
	ListByUser(ctx context.Context, uid string, limit int) ([]*domain.Participant, error)
}

type RecordingRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Recording, error)
	Save(ctx context.Context, recording *domain.Recording) error
	Delete(ctx context.Context, id string) error
	CountByOwnerSince(ctx context.Context, ownerID string, since time.Time) (int, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Recording, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, uid string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	ClaimUsername(ctx context.Context, uid, username string) error
}
