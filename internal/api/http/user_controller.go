package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/axenix_meet/internal/service"
)

type UserController struct {
	users service.UserInteractor
}

func NewUserController(users service.UserInteractor) *UserController {
	return &UserController{users: users}
}

func (c *UserController) EnsureMe(ctx *gin.Context) {
	user, err := c.users.EnsureUser(ctx.Request.Context(), callerFrom(ctx))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"user": user})
}

func (c *UserController) ClaimUsername(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := c.users.ClaimUsername(ctx.Request.Context(), callerFrom(ctx), req.Username)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"user": user})
}

func (c *UserController) GetUser(ctx *gin.Context) {
	user, err := c.users.GetUser(ctx.Request.Context(), ctx.Param("uid"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"user": user})
}
