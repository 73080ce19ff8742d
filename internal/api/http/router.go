package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/axenix_meet/internal/identity"
)

// HealthChecker probes owned storage for /api/ping.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type RouterDeps struct {
	AllowOrigins []string
	Verifier     identity.Verifier
	Storage      HealthChecker
	Calls        *CallController
	Meetings     *MeetingController
	Recordings   *RecordingController
	Users        *UserController
}

func SetupRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowOrigins = deps.AllowOrigins
	config.AllowCredentials = true
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	router.Use(cors.New(config))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	auth := RequireAuth(deps.Verifier)

	if deps.Storage != nil {
		api.GET("/ping", func(ctx *gin.Context) {
			if err := deps.Storage.HealthCheck(ctx.Request.Context()); err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"writeOk": false, "writeErr": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"writeOk": true})
		})
	}

	daily := api.Group("/daily")
	if deps.Calls != nil {
		daily.POST("/token", deps.Calls.Token)
		daily.POST("/room", deps.Calls.CreateRoom)
	}

	if deps.Recordings != nil {
		daily.GET("/recordings", deps.Recordings.ListProvider)
		daily.POST("/recordings/:id/ingest", auth, deps.Recordings.Ingest)
		daily.DELETE("/recordings/:id", auth, deps.Recordings.DeleteMaster)

		recordings := api.Group("/recordings", auth)
		recordings.GET("", deps.Recordings.ListOwned)
		recordings.DELETE("/:id", deps.Recordings.DeleteOwned)
	}

	if deps.Meetings != nil {
		meetings := api.Group("/meetings")
		meetings.POST("", auth, deps.Meetings.CreateMeeting)
		meetings.GET("/resolve", OptionalAuth(deps.Verifier), deps.Meetings.Resolve)
		meetings.GET("/:id", OptionalAuth(deps.Verifier), deps.Meetings.GetMeeting)
		meetings.GET("/:id/participants", deps.Meetings.ListParticipants)
		meetings.GET("/:id/participants/ws", deps.Meetings.Feed)
		meetings.PUT("/:id/participants/me", auth, deps.Meetings.UpsertMe)
		meetings.POST("/:id/participants/:uid/ban", auth, deps.Meetings.Ban)

		api.GET("/me/meetings", auth, deps.Meetings.MyMeetings)
	}

	if deps.Users != nil {
		users := api.Group("/users")
		users.POST("/me", auth, deps.Users.EnsureMe)
		users.POST("/me/username", auth, deps.Users.ClaimUsername)
		users.GET("/:uid", deps.Users.GetUser)
	}

	return router
}
