package domain

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	inviteTokenLength      = 8
	defaultMaxParticipants = 12

	ProviderDaily   = "daily"
	ProviderLiveKit = "livekit"

	MeetingStateOpen = "open"
)

type Creator struct {
	UID      string `json:"uid"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	PhotoURL string `json:"photoURL,omitempty"`
}

type JoinPolicy struct {
	AllowAnonymous    bool `json:"allowAnonymous"`
	GuestNameRequired bool `json:"guestNameRequired"`
	WaitingRoom       bool `json:"waitingRoom"`
	EarlyJoinMinutes  int  `json:"earlyJoinMinutes"`
}

type Security struct {
	InviteToken        string   `json:"inviteToken"`
	Passcode           string   `json:"passcode,omitempty"`
	BannedUIDs         []string `json:"bannedUids"`
	BannedFingerprints []string `json:"bannedFingerprints"`
}

type Settings struct {
	MaxParticipants    int  `json:"maxParticipants"`
	RecordingEnabled   bool `json:"recordingEnabled"`
	ChatEnabled        bool `json:"chatEnabled"`
	ScreenShareEnabled bool `json:"screenShareEnabled"`
}

// Meeting is the document created by the initiating user. Apart from getting
// its identifier attached it is not mutated after creation.
type Meeting struct {
	ID         string
	Topic      string
	Provider   string
	RoomURL    string
	RoomName   string
	State      string
	CreatedAt  time.Time
	CreatedBy  Creator
	Members    []string
	JoinOpen   bool
	JoinPolicy JoinPolicy
	Security   Security
	Settings   Settings
	ExpiresAt  time.Time
	EndedAt    time.Time
}

// NewMeeting builds a meeting hosted by creator with the defaults used for
// instant meetings.
func NewMeeting(topic string, creator Creator, provider, roomURL, roomName string, maxParticipants int) *Meeting {
	if topic == "" {
		topic = "Instant Meeting"
	}
	if maxParticipants <= 0 {
		maxParticipants = defaultMaxParticipants
	}
	return &Meeting{
		ID:        uuid.NewString(),
		Topic:     topic,
		Provider:  provider,
		RoomURL:   roomURL,
		RoomName:  roomName,
		State:     MeetingStateOpen,
		CreatedAt: time.Now().UTC(),
		CreatedBy: creator,
		Members:   []string{creator.UID},
		JoinOpen:  true,
		JoinPolicy: JoinPolicy{
			AllowAnonymous:    true,
			GuestNameRequired: true,
		},
		Security: Security{
			InviteToken:        generateInviteToken(),
			BannedUIDs:         []string{},
			BannedFingerprints: []string{},
		},
		Settings: Settings{
			MaxParticipants:    maxParticipants,
			ChatEnabled:        true,
			ScreenShareEnabled: true,
		},
	}
}

// RoleOf is computed on every call so ownership changes are never stale.
func (m *Meeting) RoleOf(uid string) Role {
	if m.IsHost(uid) {
		return RoleHost
	}
	return RoleGuest
}

func (m *Meeting) IsHost(uid string) bool {
	if m == nil || uid == "" {
		return false
	}
	return m.CreatedBy.UID != "" && m.CreatedBy.UID == uid
}

// IsEnded reports whether the meeting has an end timestamp.
func (m *Meeting) IsEnded() bool {
	return m != nil && !m.EndedAt.IsZero()
}

// JoinRoomName returns the provider room name: the last path segment of the
// room URL, then the stored room name, then the meeting id.
func (m *Meeting) JoinRoomName() string {
	if m.RoomURL != "" {
		if u, err := url.Parse(m.RoomURL); err == nil {
			parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
			if len(parts) > 0 {
				return parts[len(parts)-1]
			}
		}
	}
	if m.RoomName != "" {
		return m.RoomName
	}
	return m.ID
}

func generateInviteToken() string {
	token := strings.ReplaceAll(uuid.New().String(), "-", "")
	return token[:inviteTokenLength]
}
