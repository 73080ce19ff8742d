package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/service"
)

// CallController fronts the call transport: join tokens and rooms.
type CallController struct {
	tokens   service.TokenInteractor
	meetings service.MeetingInteractor
}

func NewCallController(tokens service.TokenInteractor, meetings service.MeetingInteractor) *CallController {
	return &CallController{tokens: tokens, meetings: meetings}
}

func (c *CallController) Token(ctx *gin.Context) {
	var req domain.JoinTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if req.RoomName == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "roomName required"})
		return
	}

	token, err := c.tokens.IssueJoinToken(ctx.Request.Context(), req)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"token": token})
}

func (c *CallController) CreateRoom(ctx *gin.Context) {
	room, err := c.meetings.CreateRoom(ctx.Request.Context())
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, room)
}
