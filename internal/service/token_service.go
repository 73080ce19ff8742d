package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/provider"
	"github.com/immxrtalbeast/axenix_meet/internal/repository"
	"github.com/immxrtalbeast/axenix_meet/lib/logger/sl"
)

const defaultGuestName = "Guest"

type TokenService struct {
	log          *slog.Logger
	participants repository.ParticipantRepository
	issuer       provider.TokenIssuer
	failClosed   bool
}

// NewTokenService builds the join token service. With failClosed set a failed
// ban lookup refuses the token; otherwise it is logged and issuing proceeds.
func NewTokenService(log *slog.Logger, participants repository.ParticipantRepository, issuer provider.TokenIssuer, failClosed bool) *TokenService {
	if log == nil {
		log = slog.Default()
	}
	return &TokenService{
		log:          log,
		participants: participants,
		issuer:       issuer,
		failClosed:   failClosed,
	}
}

func (s *TokenService) IssueJoinToken(ctx context.Context, req domain.JoinTokenRequest) (string, error) {
	const op = "service.token.IssueJoinToken"
	log := s.log.With(
		slog.String("op", op),
		slog.String("room", req.RoomName),
		slog.String("meeting_id", req.MeetingID),
	)

	if strings.TrimSpace(req.RoomName) == "" {
		return "", fmt.Errorf("%s: roomName required: %w", op, ErrInvalidArgument)
	}

	if req.MeetingID != "" && req.UserID != "" {
		banned, err := s.isBanned(ctx, req.MeetingID, req.UserID)
		switch {
		case err != nil && s.failClosed:
			log.Error("ban check failed, refusing token", sl.Err(err))
			return "", fmt.Errorf("%s: %w", op, ErrBanCheckUnavailable)
		case err != nil:
			log.Warn("ban check skipped", sl.Err(err))
		case banned:
			log.Info("banned user refused", slog.String("uid", req.UserID))
			return "", fmt.Errorf("%s: %w", op, ErrBanned)
		}
	}

	userName := strings.TrimSpace(req.UserName)
	if userName == "" {
		userName = defaultGuestName
	}

	token, err := s.issuer.IssueToken(ctx, provider.TokenRequest{
		RoomName: req.RoomName,
		UserName: userName,
		IsOwner:  req.IsOwner,
		UserID:   req.UserID,
	})
	if err != nil {
		log.Error("token request failed", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

func (s *TokenService) isBanned(ctx context.Context, meetingID, uid string) (bool, error) {
	p, err := s.participants.Get(ctx, meetingID, uid)
	if err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			return false, nil
		}
		return false, err
	}
	return p.Banned, nil
}
