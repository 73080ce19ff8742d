package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
)

var (
	ErrNotConfigured  = errors.New("call transport credentials are not configured")
	ErrNoDownloadLink = errors.New("no download url in access link response")
)

// Error is a non-2xx reply from the call transport.
type Error struct {
	Op     string
	Status int
	Body   string
}

func (e *Error) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Body)
}

// IsNotFound reports whether err is a 404 reply.
func IsNotFound(err error) bool {
	var perr *Error
	return errors.As(err, &perr) && perr.Status == 404
}

type RoomOptions struct {
	Lifetime time.Duration
}

type TokenRequest struct {
	RoomName string
	UserName string
	IsOwner  bool
	UserID   string
}

type RecordingSummary struct {
	ID        string
	Room      string
	CreatedAt time.Time
	Duration  *int
	Size      *int64
}

type RecordingPage struct {
	Items      []RecordingSummary
	NextCursor string
}

type RecordingDetail struct {
	ID        string
	Room      string
	CreatedAt time.Time
	Duration  *int
}

type RoomProvisioner interface {
	CreateRoom(ctx context.Context, opts RoomOptions) (domain.Room, error)
}

type TokenIssuer interface {
	IssueToken(ctx context.Context, req TokenRequest) (string, error)
}

type RecordingAPI interface {
	ListRecordings(ctx context.Context, limit int, cursor string) (*RecordingPage, error)
	GetRecording(ctx context.Context, id string) (*RecordingDetail, error)
	AccessLink(ctx context.Context, id string) (string, error)
	// Download opens the one-time link. The caller closes the body.
	Download(ctx context.Context, link string) (io.ReadCloser, error)
	DeleteRecording(ctx context.Context, id string) error
}
