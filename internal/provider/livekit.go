package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/livekit/protocol/auth"
)

// LiveKitIssuer mints LiveKit access tokens locally. LiveKit creates rooms on
// first join, so CreateRoom only reserves a name.
type LiveKitIssuer struct {
	apiKey    string
	apiSecret string
	url       string
	ttl       time.Duration
}

func NewLiveKitIssuer(apiKey, apiSecret, url string, ttl time.Duration) *LiveKitIssuer {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &LiveKitIssuer{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		url:       strings.TrimRight(url, "/"),
		ttl:       ttl,
	}
}

func (l *LiveKitIssuer) IssueToken(ctx context.Context, req TokenRequest) (string, error) {
	const op = "provider.livekit.IssueToken"

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if l.apiKey == "" || l.apiSecret == "" {
		return "", fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	identity := req.UserID
	if identity == "" {
		identity = "guest-" + uuid.NewString()
	}

	grant := &auth.VideoGrant{
		RoomJoin:  true,
		Room:      req.RoomName,
		RoomAdmin: req.IsOwner,
	}
	at := auth.NewAccessToken(l.apiKey, l.apiSecret).
		AddGrant(grant).
		SetIdentity(identity).
		SetName(req.UserName).
		SetValidFor(l.ttl)

	token, err := at.ToJWT()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

func (l *LiveKitIssuer) CreateRoom(ctx context.Context, _ RoomOptions) (domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return domain.Room{}, err
	}
	name := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return domain.Room{URL: l.url + "/" + name, Name: name}, nil
}
