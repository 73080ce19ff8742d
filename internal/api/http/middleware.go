package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/identity"
)

const identityKey = "identity"

func bearerToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// RequireAuth rejects requests without a valid bearer ID token.
func RequireAuth(verifier identity.Verifier) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Missing idToken"})
			return
		}
		id, err := verifier.Verify(ctx.Request.Context(), token)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid idToken"})
			return
		}
		ctx.Set(identityKey, id)
		ctx.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present.
func OptionalAuth(verifier identity.Verifier) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token := bearerToken(ctx); token != "" {
			if id, err := verifier.Verify(ctx.Request.Context(), token); err == nil {
				ctx.Set(identityKey, id)
			}
		}
		ctx.Next()
	}
}

func callerFrom(ctx *gin.Context) domain.Identity {
	v, ok := ctx.Get(identityKey)
	if !ok {
		return domain.Identity{}
	}
	id, _ := v.(domain.Identity)
	return id
}
