package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/axenix_meet/internal/api/http/converter"
	"github.com/immxrtalbeast/axenix_meet/internal/service"
)

type RecordingController struct {
	recordings service.RecordingInteractor
}

func NewRecordingController(recordings service.RecordingInteractor) *RecordingController {
	return &RecordingController{recordings: recordings}
}

func (c *RecordingController) ListProvider(ctx *gin.Context) {
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid limit"})
			return
		}
		limit = n
	}

	page, err := c.recordings.ListProviderRecordings(ctx.Request.Context(), limit, ctx.Query("cursor"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, converter.ProviderPageToApi(page))
}

func (c *RecordingController) Ingest(ctx *gin.Context) {
	res, err := c.recordings.Ingest(ctx.Request.Context(), callerFrom(ctx), ctx.Param("id"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, converter.IngestToApi(res))
}

func (c *RecordingController) DeleteMaster(ctx *gin.Context) {
	if err := c.recordings.DeleteMaster(ctx.Request.Context(), callerFrom(ctx), ctx.Param("id")); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

func (c *RecordingController) DeleteOwned(ctx *gin.Context) {
	if err := c.recordings.DeleteOwned(ctx.Request.Context(), callerFrom(ctx), ctx.Param("id")); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

func (c *RecordingController) ListOwned(ctx *gin.Context) {
	list, err := c.recordings.ListOwned(ctx.Request.Context(), callerFrom(ctx))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"ok": true, "recordings": converter.RecordingsToApi(list)})
}
