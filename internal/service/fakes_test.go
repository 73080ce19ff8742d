package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/provider"
	"github.com/immxrtalbeast/axenix_meet/internal/repository"
	"github.com/immxrtalbeast/axenix_meet/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeIssuer struct {
	mu       sync.Mutex
	requests []provider.TokenRequest
	err      error
}

func (f *fakeIssuer) IssueToken(_ context.Context, req provider.TokenRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return "token-for-" + req.RoomName, nil
}

type fakeRooms struct {
	lifetime time.Duration
}

func (f *fakeRooms) CreateRoom(_ context.Context, opts provider.RoomOptions) (domain.Room, error) {
	f.lifetime = opts.Lifetime
	return domain.Room{URL: "https://acme.daily.co/room-1", Name: "room-1"}, nil
}

// brokenParticipants fails every lookup.
type brokenParticipants struct {
	repository.ParticipantRepository
	calls atomic.Int32
}

func (b *brokenParticipants) Get(context.Context, string, string) (*domain.Participant, error) {
	b.calls.Add(1)
	return nil, errors.New("store unavailable")
}

type fakeRecordingAPI struct {
	mu          sync.Mutex
	details     map[string]*provider.RecordingDetail
	page        *provider.RecordingPage
	content     string
	detailDelay time.Duration
	inFlight    atomic.Int32
	maxFlight   atomic.Int32
	downloads   atomic.Int32
	deleted     []string
}

func (f *fakeRecordingAPI) ListRecordings(context.Context, int, string) (*provider.RecordingPage, error) {
	items := append([]provider.RecordingSummary(nil), f.page.Items...)
	return &provider.RecordingPage{Items: items, NextCursor: f.page.NextCursor}, nil
}

func (f *fakeRecordingAPI) GetRecording(_ context.Context, id string) (*provider.RecordingDetail, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxFlight.Load()
		if n <= cur || f.maxFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	if f.detailDelay > 0 {
		time.Sleep(f.detailDelay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.details[id]
	if !ok {
		return nil, &provider.Error{Op: "detail", Status: 404}
	}
	return d, nil
}

func (f *fakeRecordingAPI) AccessLink(_ context.Context, id string) (string, error) {
	return "https://download/" + id, nil
}

func (f *fakeRecordingAPI) Download(context.Context, string) (io.ReadCloser, error) {
	f.downloads.Add(1)
	return io.NopCloser(strings.NewReader(f.content)), nil
}

func (f *fakeRecordingAPI) DeleteRecording(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

type countingStore struct {
	*storage.Bucket
	writes atomic.Int32
}

func (c *countingStore) Write(ctx context.Context, path string, r io.Reader) (int64, error) {
	c.writes.Add(1)
	return c.Bucket.Write(ctx, path, r)
}
