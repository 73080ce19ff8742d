package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/identity"
	"github.com/immxrtalbeast/axenix_meet/internal/provider"
	"github.com/immxrtalbeast/axenix_meet/internal/repository"
	"github.com/immxrtalbeast/axenix_meet/internal/service"
)

var publicErrors = []struct {
	target  error
	status  int
	message string
}{
	{service.ErrUnauthenticated, http.StatusUnauthorized, "Missing idToken"},
	{identity.ErrMissingToken, http.StatusUnauthorized, "Missing idToken"},
	{identity.ErrInvalidToken, http.StatusUnauthorized, "invalid idToken"},
	{service.ErrBanned, http.StatusForbidden, "banned"},
	{service.ErrForbidden, http.StatusForbidden, "Forbidden"},
	{service.ErrQuotaExceeded, http.StatusForbidden, "Monthly limit reached"},
	{service.ErrBanCheckUnavailable, http.StatusServiceUnavailable, "ban check unavailable"},
	{service.ErrInvalidArgument, http.StatusBadRequest, ""},
	{domain.ErrInvalidUsername, http.StatusBadRequest, ""},
	{repository.ErrMeetingNotFound, http.StatusNotFound, "Meeting not found"},
	{repository.ErrParticipantNotFound, http.StatusNotFound, "Participant not found"},
	{repository.ErrRecordingNotFound, http.StatusNotFound, "Recording not found"},
	{repository.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{repository.ErrUsernameTaken, http.StatusConflict, "Username is already taken"},
	{provider.ErrNotConfigured, http.StatusInternalServerError, "Missing DAILY_API_KEY"},
}

// statusFor maps an error chain to a status code and a public message.
func statusFor(err error) (int, string) {
	for _, pe := range publicErrors {
		if errors.Is(err, pe.target) {
			msg := pe.message
			if msg == "" {
				msg = err.Error()
			}
			return pe.status, msg
		}
	}

	var perr *provider.Error
	if errors.As(err, &perr) || errors.Is(err, provider.ErrNoDownloadLink) {
		return http.StatusBadGateway, err.Error()
	}
	return http.StatusInternalServerError, err.Error()
}

func writeError(ctx *gin.Context, err error) {
	status, msg := statusFor(err)
	ctx.JSON(status, gin.H{"ok": false, "error": msg})
}
