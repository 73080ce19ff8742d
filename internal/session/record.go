package session

import (
	"context"
	"fmt"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
)

// upsertOwnParticipantRecord merges the signed-in user's own record. It is
// keyed on s.self.UID only; nothing here can address another user.
func (s *Synchronizer) upsertOwnParticipantRecord(ctx context.Context, p Participant, status *domain.ParticipantStatus, setJoinedAt bool) error {
	const op = "session.upsertOwnParticipantRecord"

	if s.self.UID == "" {
		return nil
	}

	name := p.UserName
	if name == "" {
		name = s.self.DisplayName
	}
	if name == "" {
		name = "Guest"
	}
	role := s.meeting.RoleOf(s.self.UID)
	device := s.device
	sessionID := p.SessionID
	photo := s.resolvePhoto(ctx, p, name)

	patch := domain.ParticipantPatch{
		DisplayName: &name,
		Role:        &role,
		Device:      &device,
		SessionID:   &sessionID,
		PhotoURL:    &photo,
		Status:      status,
	}
	if setJoinedAt {
		now := s.now()
		patch.JoinedAt = &now
	}

	if err := s.store.UpsertOwn(ctx, s.meeting.ID, s.self.UID, patch); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Synchronizer) markLeft(ctx context.Context) error {
	const op = "session.markLeft"

	if s.self.UID == "" {
		return nil
	}
	if err := s.store.UpsertOwn(ctx, s.meeting.ID, s.self.UID, domain.LeftPatch(s.now())); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
