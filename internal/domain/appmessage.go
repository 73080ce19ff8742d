package domain

const (
	AppMessageKicked = "kicked"

	DefaultKickReason = "Removed by host"
)

// AppMessage is an application-level signal sent over the call transport's
// data channel to a single session.
type AppMessage struct {
	Type   string `json:"type"`
	Reason string `json:"reason,omitempty"`
}

func KickedMessage(reason string) AppMessage {
	if reason == "" {
		reason = DefaultKickReason
	}
	return AppMessage{Type: AppMessageKicked, Reason: reason}
}

// JoinTokenRequest is the input of the meeting token endpoint.
type JoinTokenRequest struct {
	RoomName  string `json:"roomName"`
	UserName  string `json:"userName"`
	IsOwner   bool   `json:"isOwner"`
	UserID    string `json:"userId,omitempty"`
	MeetingID string `json:"meetingId,omitempty"`
}

// Room is a provisioned call transport room.
type Room struct {
	URL  string `json:"roomUrl"`
	Name string `json:"roomName"`
}
