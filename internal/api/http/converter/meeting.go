package converter

import (
	"time"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/service"
)

type MeetingResponse struct {
	ID          string            `json:"id"`
	Topic       string            `json:"topic"`
	Provider    string            `json:"provider"`
	RoomURL     string            `json:"roomUrl"`
	RoomName    string            `json:"roomName"`
	State       string            `json:"state"`
	CreatedAt   time.Time         `json:"createdAt"`
	CreatedBy   domain.Creator    `json:"createdBy"`
	Members     []string          `json:"members"`
	JoinOpen    bool              `json:"joinOpen"`
	JoinPolicy  domain.JoinPolicy `json:"joinPolicy"`
	Settings    domain.Settings   `json:"settings"`
	InviteToken string            `json:"inviteToken,omitempty"`
	ExpiresAt   *time.Time        `json:"expiresAt"`
	EndedAt     *time.Time        `json:"endedAt"`
}

// MeetingToApi renders m. The invite token is only shown to the host.
func MeetingToApi(m *domain.Meeting, viewerUID string) *MeetingResponse {
	resp := &MeetingResponse{
		ID:         m.ID,
		Topic:      m.Topic,
		Provider:   m.Provider,
		RoomURL:    m.RoomURL,
		RoomName:   m.RoomName,
		State:      m.State,
		CreatedAt:  m.CreatedAt,
		CreatedBy:  m.CreatedBy,
		Members:    m.Members,
		JoinOpen:   m.JoinOpen,
		JoinPolicy: m.JoinPolicy,
		Settings:   m.Settings,
		ExpiresAt:  optionalTime(m.ExpiresAt),
		EndedAt:    optionalTime(m.EndedAt),
	}
	if m.IsHost(viewerUID) {
		resp.InviteToken = m.Security.InviteToken
	}
	return resp
}

func MeetingFromApi(r *MeetingResponse) *domain.Meeting {
	m := &domain.Meeting{
		ID:         r.ID,
		Topic:      r.Topic,
		Provider:   r.Provider,
		RoomURL:    r.RoomURL,
		RoomName:   r.RoomName,
		State:      r.State,
		CreatedAt:  r.CreatedAt,
		CreatedBy:  r.CreatedBy,
		Members:    r.Members,
		JoinOpen:   r.JoinOpen,
		JoinPolicy: r.JoinPolicy,
		Settings:   r.Settings,
	}
	m.Security.InviteToken = r.InviteToken
	if r.ExpiresAt != nil {
		m.ExpiresAt = *r.ExpiresAt
	}
	if r.EndedAt != nil {
		m.EndedAt = *r.EndedAt
	}
	return m
}

type ParticipantResponse struct {
	MeetingID   string                   `json:"meetingId"`
	UID         string                   `json:"uid"`
	DisplayName string                   `json:"displayName"`
	Role        domain.Role              `json:"role,omitempty"`
	Device      domain.Device            `json:"device"`
	SessionID   string                   `json:"sessionId,omitempty"`
	Status      domain.ParticipantStatus `json:"status,omitempty"`
	PhotoURL    string                   `json:"photoURL,omitempty"`
	JoinedAt    *time.Time               `json:"joinedAt"`
	LeftAt      *time.Time               `json:"leftAt"`
	Banned      bool                     `json:"banned"`
	BannedAt    *time.Time               `json:"bannedAt,omitempty"`
}

func ParticipantToApi(p *domain.Participant) ParticipantResponse {
	return ParticipantResponse{
		MeetingID:   p.MeetingID,
		UID:         p.UID,
		DisplayName: p.DisplayName,
		Role:        p.Role,
		Device:      p.Device,
		SessionID:   p.SessionID,
		Status:      p.Status,
		PhotoURL:    p.PhotoURL,
		JoinedAt:    optionalTime(p.JoinedAt),
		LeftAt:      optionalTime(p.LeftAt),
		Banned:      p.Banned,
		BannedAt:    optionalTime(p.BannedAt),
	}
}

func ParticipantsToApi(list []*domain.Participant) []ParticipantResponse {
	out := make([]ParticipantResponse, 0, len(list))
	for _, p := range list {
		out = append(out, ParticipantToApi(p))
	}
	return out
}

func ParticipantFromApi(r ParticipantResponse) *domain.Participant {
	p := &domain.Participant{
		MeetingID:   r.MeetingID,
		UID:         r.UID,
		DisplayName: r.DisplayName,
		Role:        r.Role,
		Device:      r.Device,
		SessionID:   r.SessionID,
		Status:      r.Status,
		PhotoURL:    r.PhotoURL,
		Banned:      r.Banned,
	}
	if r.JoinedAt != nil {
		p.JoinedAt = *r.JoinedAt
	}
	if r.LeftAt != nil {
		p.LeftAt = *r.LeftAt
	}
	if r.BannedAt != nil {
		p.BannedAt = *r.BannedAt
	}
	return p
}

// ParticipantWriteRequest is the body of an own-record write. Timestamps are
// stamped by the server.
type ParticipantWriteRequest struct {
	DisplayName *string                   `json:"displayName,omitempty"`
	Status      *domain.ParticipantStatus `json:"status,omitempty"`
	SessionID   *string                   `json:"sessionId,omitempty"`
	Device      *domain.Device            `json:"device,omitempty"`
	PhotoURL    *string                   `json:"photoURL,omitempty"`
	SetJoinedAt bool                      `json:"setJoinedAt,omitempty"`
	SetLeftAt   bool                      `json:"setLeftAt,omitempty"`
}

func (r ParticipantWriteRequest) Valid() bool {
	if r.Status == nil {
		return true
	}
	switch *r.Status {
	case domain.ParticipantStatusWaiting, domain.ParticipantStatusConnected, domain.ParticipantStatusLeft:
		return true
	}
	return false
}

func (r ParticipantWriteRequest) ToPatch(now time.Time) domain.ParticipantPatch {
	patch := domain.ParticipantPatch{
		DisplayName: r.DisplayName,
		Status:      r.Status,
		SessionID:   r.SessionID,
		Device:      r.Device,
		PhotoURL:    r.PhotoURL,
	}
	if r.SetJoinedAt {
		patch.JoinedAt = &now
	}
	if r.SetLeftAt {
		patch.LeftAt = &now
	}
	return patch
}

type MeetingSummaryResponse struct {
	ID           string     `json:"id"`
	Topic        string     `json:"topic"`
	RoomName     string     `json:"roomName"`
	State        string     `json:"state"`
	CreatedAt    time.Time  `json:"createdAt"`
	EndedAt      *time.Time `json:"endedAt"`
	MyJoinedAt   *time.Time `json:"myJoinedAt"`
	MyLeftAt     *time.Time `json:"myLeftAt"`
	MyDurationMs *int64     `json:"myDurationMs"`
}

func MeetingSummariesToApi(list []service.MeetingSummary) []MeetingSummaryResponse {
	out := make([]MeetingSummaryResponse, 0, len(list))
	for _, s := range list {
		item := MeetingSummaryResponse{
			ID:         s.Meeting.ID,
			Topic:      s.Meeting.Topic,
			RoomName:   s.Meeting.RoomName,
			State:      s.Meeting.State,
			CreatedAt:  s.Meeting.CreatedAt,
			EndedAt:    optionalTime(s.Meeting.EndedAt),
			MyJoinedAt: optionalTime(s.MyJoinedAt),
			MyLeftAt:   optionalTime(s.MyLeftAt),
		}
		if s.MyDuration > 0 {
			ms := s.MyDuration.Milliseconds()
			item.MyDurationMs = &ms
		}
		out = append(out, item)
	}
	return out
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
