package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/axenix_meet/internal/api/http/converter"
	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/service"
	"github.com/immxrtalbeast/axenix_meet/lib/logger/sl"
)

const feedWriteTimeout = 10 * time.Second

type MeetingController struct {
	log      *slog.Logger
	meetings service.MeetingInteractor
	upgrader websocket.Upgrader
}

func NewMeetingController(log *slog.Logger, meetings service.MeetingInteractor) *MeetingController {
	if log == nil {
		log = slog.Default()
	}
	return &MeetingController{
		log:      log,
		meetings: meetings,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (c *MeetingController) CreateMeeting(ctx *gin.Context) {
	type request struct {
		Topic           string         `json:"topic"`
		MaxParticipants int            `json:"maxParticipants"`
		Device          *domain.Device `json:"device"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	in := service.CreateMeetingInput{Topic: req.Topic, MaxParticipants: req.MaxParticipants}
	if req.Device != nil {
		in.Device = *req.Device
	} else {
		in.Device = domain.Device{Kind: "web", UserAgent: ctx.Request.UserAgent()}
	}

	caller := callerFrom(ctx)
	meeting, err := c.meetings.CreateMeeting(ctx.Request.Context(), caller, in)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"meetingId": meeting.ID,
		"roomUrl":   meeting.RoomURL,
		"roomName":  meeting.RoomName,
		"meeting":   converter.MeetingToApi(meeting, caller.UID),
	})
}

func (c *MeetingController) GetMeeting(ctx *gin.Context) {
	meeting, err := c.meetings.GetMeeting(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"meeting": converter.MeetingToApi(meeting, callerFrom(ctx).UID)})
}

func (c *MeetingController) Resolve(ctx *gin.Context) {
	q := strings.TrimSpace(ctx.Query("q"))
	if q == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	meeting, err := c.meetings.ResolveMeeting(ctx.Request.Context(), q)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"meetingId": meeting.ID,
		"meeting":   converter.MeetingToApi(meeting, callerFrom(ctx).UID),
	})
}

func (c *MeetingController) ListParticipants(ctx *gin.Context) {
	list, err := c.meetings.ListParticipants(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"participants": converter.ParticipantsToApi(list)})
}

func (c *MeetingController) UpsertMe(ctx *gin.Context) {
	var req converter.ParticipantWriteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if !req.Valid() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	p, err := c.meetings.UpsertOwnParticipant(ctx.Request.Context(), callerFrom(ctx), ctx.Param("id"), req.ToPatch(time.Now().UTC()))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"participant": converter.ParticipantToApi(p)})
}

func (c *MeetingController) Ban(ctx *gin.Context) {
	p, err := c.meetings.BanParticipant(ctx.Request.Context(), callerFrom(ctx), ctx.Param("id"), ctx.Param("uid"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"participant": converter.ParticipantToApi(p)})
}

func (c *MeetingController) MyMeetings(ctx *gin.Context) {
	q := service.MyMeetingsQuery{EndedOnly: ctx.Query("endedOnly") == "true"}
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		q.Limit = n
	}

	list, err := c.meetings.ListMyMeetings(ctx.Request.Context(), callerFrom(ctx), q)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"items": converter.MeetingSummariesToApi(list)})
}

type feedMessage struct {
	Type         string                          `json:"type"`
	Participants []converter.ParticipantResponse `json:"participants,omitempty"`
	Participant  *converter.ParticipantResponse  `json:"participant,omitempty"`
}

// Feed streams the meeting's participant records over a websocket: one
// snapshot, then every change.
func (c *MeetingController) Feed(ctx *gin.Context) {
	const op = "api.http.meeting.Feed"
	meetingID := ctx.Param("id")
	log := c.log.With(slog.String("op", op), slog.String("meeting_id", meetingID))

	if _, err := c.meetings.GetMeeting(ctx.Request.Context(), meetingID); err != nil {
		writeError(ctx, err)
		return
	}

	sub := c.meetings.Subscribe(meetingID)
	defer sub.Close()

	snapshot, err := c.meetings.ListParticipants(ctx.Request.Context(), meetingID)
	if err != nil {
		writeError(ctx, err)
		return
	}

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", sl.Err(err))
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := c.writeFeed(conn, feedMessage{Type: "snapshot", Participants: converter.ParticipantsToApi(snapshot)}); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case <-ctx.Request.Context().Done():
			return
		case change, ok := <-sub.C:
			if !ok {
				return
			}
			p := converter.ParticipantToApi(&change.Participant)
			if err := c.writeFeed(conn, feedMessage{Type: "change", Participant: &p}); err != nil {
				log.Debug("feed write failed", sl.Err(err))
				return
			}
		}
	}
}

func (c *MeetingController) writeFeed(conn *websocket.Conn, msg feedMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
	return conn.WriteJSON(msg)
}
