package domain

import (
	"net/url"
	"regexp"
	"strings"
)

type JoinInputKind int

const (
	JoinInputUnknown JoinInputKind = iota
	JoinInputMeetingID
	JoinInputRoomURL
	JoinInputToken
)

var (
	appLinkPattern = regexp.MustCompile(`(?i)/meeting/([^/?#]+)`)
	codePattern    = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// JoinInput is what a user pasted to join a meeting, classified.
type JoinInput struct {
	Kind      JoinInputKind
	MeetingID string
	URL       string
	RoomName  string
	Token     string
}

// ParseJoinInput accepts an app link (.../meeting/{id}), a provider room URL
// or a bare code that is either a room name or a meeting id.
func ParseJoinInput(raw string) JoinInput {
	s := strings.TrimSpace(raw)

	if u, err := url.Parse(s); err == nil && u.Host != "" && (u.Scheme == "http" || u.Scheme == "https") {
		if m := appLinkPattern.FindStringSubmatch(u.Path); m != nil {
			return JoinInput{Kind: JoinInputMeetingID, MeetingID: m[1]}
		}
		parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
		in := JoinInput{Kind: JoinInputRoomURL, URL: s}
		if len(parts) > 0 {
			in.RoomName = parts[len(parts)-1]
		}
		return in
	}

	if codePattern.MatchString(s) {
		return JoinInput{Kind: JoinInputToken, Token: s}
	}
	return JoinInput{Kind: JoinInputUnknown}
}
