package converter

import (
	"time"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/provider"
	"github.com/immxrtalbeast/axenix_meet/internal/service"
)

const unknownRoom = "—"

type ProviderRecordingResponse struct {
	ID        string `json:"id"`
	Room      string `json:"room"`
	CreatedAt *int64 `json:"createdAt"`
	Duration  *int   `json:"duration"`
	Size      *int64 `json:"size"`
}

type ProviderRecordingPageResponse struct {
	OK         bool                        `json:"ok"`
	Items      []ProviderRecordingResponse `json:"items"`
	NextCursor *string                     `json:"nextCursor"`
}

// ProviderPageToApi renders creation times as epoch milliseconds.
func ProviderPageToApi(page *provider.RecordingPage) ProviderRecordingPageResponse {
	resp := ProviderRecordingPageResponse{
		OK:    true,
		Items: make([]ProviderRecordingResponse, 0, len(page.Items)),
	}
	for _, it := range page.Items {
		item := ProviderRecordingResponse{
			ID:       it.ID,
			Room:     it.Room,
			Duration: it.Duration,
			Size:     it.Size,
		}
		if item.Room == "" {
			item.Room = unknownRoom
		}
		if !it.CreatedAt.IsZero() {
			ms := it.CreatedAt.UnixMilli()
			item.CreatedAt = &ms
		}
		resp.Items = append(resp.Items, item)
	}
	if page.NextCursor != "" {
		cursor := page.NextCursor
		resp.NextCursor = &cursor
	}
	return resp
}

type IngestResponse struct {
	OK          bool    `json:"ok"`
	StoragePath string  `json:"storagePath"`
	Room        *string `json:"room"`
	Title       string  `json:"title"`
	Already     bool    `json:"already,omitempty"`
}

func IngestToApi(res *service.IngestResult) IngestResponse {
	resp := IngestResponse{
		OK:          true,
		StoragePath: res.Recording.StoragePath,
		Title:       res.Recording.Title,
		Already:     res.Already,
	}
	if res.Recording.Room != "" {
		room := res.Recording.Room
		resp.Room = &room
	}
	return resp
}

type RecordingResponse struct {
	ID           string                 `json:"id"`
	OwnerID      string                 `json:"ownerId"`
	Title        string                 `json:"title"`
	CreatedAt    time.Time              `json:"createdAt"`
	DurationSec  *int                   `json:"durationSec"`
	SizeBytes    *int64                 `json:"sizeBytes"`
	StoragePath  string                 `json:"storagePath"`
	PlaybackType string                 `json:"playbackType"`
	Status       domain.RecordingStatus `json:"status"`
	Room         string                 `json:"room,omitempty"`
}

func RecordingsToApi(list []*domain.Recording) []RecordingResponse {
	out := make([]RecordingResponse, 0, len(list))
	for _, r := range list {
		out = append(out, RecordingResponse{
			ID:           r.ID,
			OwnerID:      r.OwnerID,
			Title:        r.Title,
			CreatedAt:    r.CreatedAt,
			DurationSec:  r.DurationSec,
			SizeBytes:    r.SizeBytes,
			StoragePath:  r.StoragePath,
			PlaybackType: r.PlaybackType,
			Status:       r.Status,
			Room:         r.Room,
		})
	}
	return out
}
