package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
)

type InMemoryMeetingRepository struct {
	mu       sync.RWMutex
	meetings map[string]domain.Meeting
}

func NewInMemoryMeetingRepository() *InMemoryMeetingRepository {
	return &InMemoryMeetingRepository{
		meetings: make(map[string]domain.Meeting),
	}
}

func (r *InMemoryMeetingRepository) Create(ctx context.Context, meeting *domain.Meeting) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.meetings[meeting.ID]; ok {
		return ErrMeetingExists
	}
	r.meetings[meeting.ID] = cloneMeeting(meeting)
	return nil
}

func (r *InMemoryMeetingRepository) GetByID(ctx context.Context, id string) (*domain.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.meetings[id]
	if !ok {
		return nil, ErrMeetingNotFound
	}
	out := cloneMeeting(&m)
	return &out, nil
}

func (r *InMemoryMeetingRepository) GetByRoomURL(ctx context.Context, roomURL string) (*domain.Meeting, error) {
	return r.findOldest(ctx, func(m *domain.Meeting) bool {
		return roomURL != "" && m.RoomURL == roomURL
	})
}

func (r *InMemoryMeetingRepository) GetByRoomName(ctx context.Context, roomName string) (*domain.Meeting, error) {
	return r.findOldest(ctx, func(m *domain.Meeting) bool {
		return roomName != "" && m.RoomName == roomName
	})
}

func (r *InMemoryMeetingRepository) findOldest(ctx context.Context, match func(*domain.Meeting) bool) (*domain.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *domain.Meeting
	for id := range r.meetings {
		m := r.meetings[id]
		if !match(&m) {
			continue
		}
		if found == nil || m.CreatedAt.Before(found.CreatedAt) ||
			(m.CreatedAt.Equal(found.CreatedAt) && m.ID < found.ID) {
			found = &m
		}
	}
	if found == nil {
		return nil, ErrMeetingNotFound
	}
	out := cloneMeeting(found)
	return &out, nil
}

func cloneMeeting(m *domain.Meeting) domain.Meeting {
	out := *m
	out.Members = append([]string(nil), m.Members...)
	out.Security.BannedUIDs = append([]string(nil), m.Security.BannedUIDs...)
	out.Security.BannedFingerprints = append([]string(nil), m.Security.BannedFingerprints...)
	return out
}

type participantKey struct {
	meetingID string
	uid       string
}

type InMemoryParticipantRepository struct {
	mu           sync.RWMutex
	participants map[participantKey]domain.Participant
}

func NewInMemoryParticipantRepository() *InMemoryParticipantRepository {
	return &InMemoryParticipantRepository{
		participants: make(map[participantKey]domain.Participant),
	}
}

func (r *InMemoryParticipantRepository) Get(ctx context.Context, meetingID, uid string) (*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.participants[participantKey{meetingID, uid}]
	if !ok {
		return nil, ErrParticipantNotFound
	}
	return &p, nil
}

func (r *InMemoryParticipantRepository) Upsert(ctx context.Context, meetingID, uid string, patch domain.ParticipantPatch) (*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := participantKey{meetingID, uid}
	p, ok := r.participants[key]
	if !ok {
		p = domain.Participant{MeetingID: meetingID, UID: uid}
	}
	patch.Apply(&p)
	r.participants[key] = p

	out := p
	return &out, nil
}

func (r *InMemoryParticipantRepository) ListByMeeting(ctx context.Context, meetingID string) ([]*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Participant, 0)
	for key, p := range r.participants {
		if key.meetingID != meetingID {
			continue
		}
		p := p
		result = append(result, &p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UID < result[j].UID })
	return result, nil
}

func (r *InMemoryParticipantRepository) ListByUser(ctx context.Context, uid string, limit int) ([]*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Participant, 0)
	for key, p := range r.participants {
		if key.uid != uid || p.JoinedAt.IsZero() {
			continue
		}
		p := p
		result = append(result, &p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].JoinedAt.After(result[j].JoinedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

type InMemoryRecordingRepository struct {
	mu         sync.RWMutex
	recordings map[string]domain.Recording
}

func NewInMemoryRecordingRepository() *InMemoryRecordingRepository {
	return &InMemoryRecordingRepository{
		recordings: make(map[string]domain.Recording),
	}
}

func (r *InMemoryRecordingRepository) GetByID(ctx context.Context, id string) (*domain.Recording, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.recordings[id]
	if !ok {
		return nil, ErrRecordingNotFound
	}
	return &rec, nil
}

func (r *InMemoryRecordingRepository) Save(ctx context.Context, recording *domain.Recording) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.recordings[recording.ID] = *recording
	return nil
}

func (r *InMemoryRecordingRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.recordings[id]; !ok {
		return ErrRecordingNotFound
	}
	delete(r.recordings, id)
	return nil
}

func (r *InMemoryRecordingRepository) CountByOwnerSince(ctx context.Context, ownerID string, since time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, rec := range r.recordings {
		if rec.OwnerID == ownerID && !rec.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *InMemoryRecordingRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Recording, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Recording, 0)
	for _, rec := range r.recordings {
		if rec.OwnerID != ownerID {
			continue
		}
		rec := rec
		result = append(result, &rec)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

type InMemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users: make(map[string]domain.User),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.UID]; ok {
		return ErrUserExists
	}
	r.users[user.UID] = *user
	return nil
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, uid string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[uid]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

func (r *InMemoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[user.UID]
	if !ok {
		return ErrUserNotFound
	}
	updated := *user
	updated.Username = current.Username
	r.users[user.UID] = updated
	return nil
}

func (r *InMemoryUserRepository) ClaimUsername(ctx context.Context, uid, username string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, u := range r.users {
		if id != uid && u.Username == username {
			return ErrUsernameTaken
		}
	}
	user, ok := r.users[uid]
	if !ok {
		return ErrUserNotFound
	}
	user.Username = username
	user.UpdatedAt = time.Now().UTC()
	r.users[uid] = user
	return nil
}
