package session

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/immxrtalbeast/axenix_meet/lib/logger/sl"
)

const avatarBaseURL = "https://api.dicebear.com/7.x/initials/svg"

// GeneratedAvatarURL returns a deterministic avatar for seed.
func GeneratedAvatarURL(seed string) string {
	if seed == "" {
		seed = "guest"
	}
	escaped := strings.ReplaceAll(url.QueryEscape(seed), "+", "%20")
	return avatarBaseURL + "?seed=" + escaped + "&backgroundType=gradientLinear"
}

// resolvePhoto picks the transport photo, then the identity photo, then the
// stored profile photo and finally a generated avatar. Lookup failures are
// logged and skipped.
func (s *Synchronizer) resolvePhoto(ctx context.Context, p Participant, name string) string {
	if p.PhotoURL != "" {
		return p.PhotoURL
	}
	if s.self.PhotoURL != "" {
		return s.self.PhotoURL
	}
	if s.profiles != nil && s.self.UID != "" {
		photo, err := s.profiles.PhotoURL(ctx, s.self.UID)
		switch {
		case err != nil:
			s.log.Debug("profile photo lookup failed", slog.String("uid", s.self.UID), sl.Err(err))
		case photo != "":
			return photo
		}
	}

	seed := s.self.UID
	if seed == "" {
		seed = name
	}
	return GeneratedAvatarURL(seed)
}
