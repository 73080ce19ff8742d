package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/lib/logger/sl"
)

// Local controls update Controls before calling the transport and restore
// the previous value when the call fails. Nothing is retried.

func (s *Synchronizer) ToggleMic(ctx context.Context) error {
	const op = "session.ToggleMic"

	return s.do(ctx, func() error {
		prev := s.Controls().Muted
		s.updateControls(func(c *Controls) { c.Muted = !prev })

		if err := s.call.SetLocalAudio(ctx, prev); err != nil {
			s.log.Error("mic toggle failed", slog.String("op", op), sl.Err(err))
			s.updateControls(func(c *Controls) { c.Muted = prev })
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})
}

func (s *Synchronizer) ToggleCamera(ctx context.Context) error {
	const op = "session.ToggleCamera"

	return s.do(ctx, func() error {
		prev := s.Controls().Camera
		s.updateControls(func(c *Controls) { c.Camera = !prev })

		if err := s.call.SetLocalVideo(ctx, !prev); err != nil {
			s.log.Error("camera toggle failed", slog.String("op", op), sl.Err(err))
			s.updateControls(func(c *Controls) { c.Camera = prev })
			return fmt.Errorf("%s: %w", op, err)
		}
		s.render()
		return nil
	})
}

// ToggleScreenShare stops an active share, or turns the camera off and
// starts one. Camera and screen share are never on together.
func (s *Synchronizer) ToggleScreenShare(ctx context.Context) error {
	const op = "session.ToggleScreenShare"
	log := s.log.With(slog.String("op", op))

	return s.do(ctx, func() error {
		defer s.render()

		if s.Controls().Sharing {
			if err := s.call.StopScreenShare(ctx); err != nil {
				log.Error("stop screen share failed", sl.Err(err))
				return fmt.Errorf("%s: %w", op, err)
			}
			s.updateControls(func(c *Controls) { c.Sharing = false })
			return nil
		}

		if err := s.call.SetLocalVideo(ctx, false); err != nil {
			log.Error("camera off before share failed", sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
		s.updateControls(func(c *Controls) { c.Camera = false })

		// A failed share leaves the camera off.
		if err := s.call.StartScreenShare(ctx); err != nil {
			log.Error("start screen share failed", sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
		s.updateControls(func(c *Controls) { c.Sharing = true })
		return nil
	})
}

// ToggleRecording is a no-op for anyone but the host. Controls.Recording
// follows the transport's recording events.
func (s *Synchronizer) ToggleRecording(ctx context.Context) error {
	const op = "session.ToggleRecording"

	if !s.isHost() {
		return nil
	}
	return s.do(ctx, func() error {
		var err error
		if s.Controls().Recording {
			err = s.call.StopRecording(ctx)
		} else {
			err = s.call.StartRecording(ctx)
		}
		if err != nil {
			s.log.Error("recording toggle failed", slog.String("op", op), sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})
}

// MuteParticipant turns off a guest's microphone. Host only.
func (s *Synchronizer) MuteParticipant(ctx context.Context, sessionID string) error {
	const op = "session.MuteParticipant"

	return s.do(ctx, func() error {
		if _, err := s.moderationTarget(sessionID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		off := false
		if err := s.call.UpdateParticipant(ctx, sessionID, ParticipantUpdate{SetAudio: &off}); err != nil {
			s.log.Error("mute failed", slog.String("op", op), slog.String("session_id", sessionID), sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})
}

// KickParticipant warns the target over the data channel, ejects the
// session and then bans uid from the meeting. The warning goes out first so
// it can still reach the target; a failed eject leaves the ban unwritten.
func (s *Synchronizer) KickParticipant(ctx context.Context, sessionID, uid string) error {
	const op = "session.KickParticipant"

	return s.do(ctx, func() error {
		target, err := s.moderationTarget(sessionID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		switch {
		case uid == "":
			uid = target.UserID
		case target.UserID != "" && target.UserID != uid:
			return fmt.Errorf("%s: session %s is not %s: %w", op, sessionID, uid, ErrUnknownTarget)
		}
		if uid == "" {
			return fmt.Errorf("%s: no uid for session %s: %w", op, sessionID, ErrUnknownTarget)
		}
		if s.meeting.IsHost(uid) {
			return fmt.Errorf("%s: %w", op, ErrTargetIsAdmin)
		}

		log := s.log.With(
			slog.String("op", op),
			slog.String("session_id", sessionID),
			slog.String("target", uid),
		)

		if err := s.call.SendAppMessage(ctx, domain.KickedMessage(""), sessionID); err != nil {
			log.Warn("kick notice not sent", sl.Err(err))
		}
		if err := s.call.UpdateParticipant(ctx, sessionID, ParticipantUpdate{Eject: true}); err != nil {
			log.Error("eject failed", sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := s.store.BanParticipant(ctx, s.meeting.ID, uid); err != nil {
			log.Error("ban write failed", sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}

		log.Info("participant kicked")
		return nil
	})
}

func (s *Synchronizer) moderationTarget(sessionID string) (Participant, error) {
	if !s.isHost() {
		return Participant{}, ErrNotHost
	}
	p, ok := s.call.Participants()[sessionID]
	if !ok {
		return Participant{}, ErrUnknownTarget
	}
	if p.Owner || p.Local {
		return Participant{}, ErrTargetIsAdmin
	}
	return p, nil
}
