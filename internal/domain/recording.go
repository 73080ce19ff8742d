package domain

import "time"

type RecordingStatus string

const (
	RecordingStatusReady RecordingStatus = "ready"

	PlaybackTypeMP4 = "mp4"
)

// Recording is a catalog entry describing the owned copy of a provider
// recording. ID is shared with the provider recording id.
type Recording struct {
	ID           string
	OwnerID      string
	Title        string
	CreatedAt    time.Time
	DurationSec  *int
	SizeBytes    *int64
	StoragePath  string
	PlaybackType string
	Status       RecordingStatus
	Room         string
}

// IsReadyFor reports whether the entry is a completed ingest owned by uid.
func (r *Recording) IsReadyFor(uid string) bool {
	return r != nil && r.OwnerID == uid && r.StoragePath != "" && r.Status == RecordingStatusReady
}

// RecordingTitle renders the catalog title for a recording id in room.
func RecordingTitle(room, id string) string {
	short := id
	if len(short) > 6 {
		short = short[:6]
	}
	if room == "" {
		return "Recording " + short
	}
	return room + " – " + short
}

// RecordingStoragePath is the owned-storage object path for uid's copy.
func RecordingStoragePath(uid, id string) string {
	return "recordings/" + uid + "/" + id + "/source.mp4"
}
