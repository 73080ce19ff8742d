package domain

import "time"

type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

type ParticipantStatus string

const (
	ParticipantStatusWaiting   ParticipantStatus = "waiting"
	ParticipantStatusConnected ParticipantStatus = "connected"
	ParticipantStatusLeft      ParticipantStatus = "left"
)

type Device struct {
	Kind      string `json:"kind"`
	UserAgent string `json:"ua"`
}

// Participant is the persisted record of one user in one meeting, keyed by
// (MeetingID, UID).
type Participant struct {
	MeetingID   string
	UID         string
	DisplayName string
	Role        Role
	Device      Device
	SessionID   string
	Status      ParticipantStatus
	PhotoURL    string
	JoinedAt    time.Time
	LeftAt      time.Time
	Banned      bool
	BannedAt    time.Time
}

// ParticipantPatch carries merge-write semantics: nil fields are left as
// stored.
type ParticipantPatch struct {
	DisplayName *string            `json:"displayName,omitempty"`
	Role        *Role              `json:"role,omitempty"`
	Device      *Device            `json:"device,omitempty"`
	SessionID   *string            `json:"sessionId,omitempty"`
	Status      *ParticipantStatus `json:"status,omitempty"`
	PhotoURL    *string            `json:"photoURL,omitempty"`
	JoinedAt    *time.Time         `json:"joinedAt,omitempty"`
	LeftAt      *time.Time         `json:"leftAt,omitempty"`
	Banned      *bool              `json:"banned,omitempty"`
	BannedAt    *time.Time         `json:"bannedAt,omitempty"`
}

// Apply merges the patch into p.
func (patch ParticipantPatch) Apply(p *Participant) {
	if patch.DisplayName != nil {
		p.DisplayName = *patch.DisplayName
	}
	if patch.Role != nil {
		p.Role = *patch.Role
	}
	if patch.Device != nil {
		p.Device = *patch.Device
	}
	if patch.SessionID != nil {
		p.SessionID = *patch.SessionID
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.PhotoURL != nil {
		p.PhotoURL = *patch.PhotoURL
	}
	if patch.JoinedAt != nil {
		p.JoinedAt = patch.JoinedAt.UTC()
	}
	if patch.LeftAt != nil {
		p.LeftAt = patch.LeftAt.UTC()
	}
	if patch.Banned != nil {
		p.Banned = *patch.Banned
	}
	if patch.BannedAt != nil {
		p.BannedAt = patch.BannedAt.UTC()
	}
}

// IsZero reports whether the patch would change nothing.
func (patch ParticipantPatch) IsZero() bool {
	return patch == ParticipantPatch{}
}

// LeftPatch is the merge written when a participant departs.
func LeftPatch(at time.Time) ParticipantPatch {
	status := ParticipantStatusLeft
	return ParticipantPatch{Status: &status, LeftAt: &at}
}

// BanPatch is the merge written by a host on the target's record.
func BanPatch(at time.Time) ParticipantPatch {
	banned := true
	return ParticipantPatch{Banned: &banned, BannedAt: &at}
}

// ParticipantChange is published whenever a participant record is written.
type ParticipantChange struct {
	MeetingID   string      `json:"meetingId"`
	Participant Participant `json:"participant"`
}
