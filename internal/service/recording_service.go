package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/provider"
	"github.com/immxrtalbeast/axenix_meet/internal/repository"
	"github.com/immxrtalbeast/axenix_meet/lib/logger/sl"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const maxRecordingPageSize = 100

// ObjectStore is the owned storage used for ingested copies.
type ObjectStore interface {
	Write(ctx context.Context, path string, r io.Reader) (int64, error)
	Size(ctx context.Context, path string) (int64, error)
	Delete(ctx context.Context, path string) error
}

type RecordingOptions struct {
	MonthlyLimit       int
	HydrateConcurrency int
	PageSize           int
}

type RecordingService struct {
	log        *slog.Logger
	recordings repository.RecordingRepository
	api        provider.RecordingAPI
	store      ObjectStore
	opts       RecordingOptions
	ingests    singleflight.Group
	now        func() time.Time
}

func NewRecordingService(log *slog.Logger, recordings repository.RecordingRepository, api provider.RecordingAPI, store ObjectStore, opts RecordingOptions) *RecordingService {
	if log == nil {
		log = slog.Default()
	}
	if opts.MonthlyLimit <= 0 {
		opts.MonthlyLimit = 100
	}
	if opts.HydrateConcurrency <= 0 {
		opts.HydrateConcurrency = 3
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	return &RecordingService{
		log:        log,
		recordings: recordings,
		api:        api,
		store:      store,
		opts:       opts,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ListProviderRecordings returns one page of provider recordings. Items
// without a creation time are looked up individually with bounded
// concurrency; a failed lookup leaves the time empty.
func (s *RecordingService) ListProviderRecordings(ctx context.Context, limit int, cursor string) (*provider.RecordingPage, error) {
	const op = "service.recording.ListProviderRecordings"
	log := s.log.With(slog.String("op", op))

	if limit <= 0 {
		limit = s.opts.PageSize
	}
	if limit > maxRecordingPageSize {
		limit = maxRecordingPageSize
	}

	page, err := s.api.ListRecordings(ctx, limit, cursor)
	if err != nil {
		log.Error("list failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var g errgroup.Group
	g.SetLimit(s.opts.HydrateConcurrency)
	for i := range page.Items {
		if !page.Items[i].CreatedAt.IsZero() || page.Items[i].ID == "" {
			continue
		}
		item := &page.Items[i]
		g.Go(func() error {
			detail, err := s.api.GetRecording(ctx, item.ID)
			if err != nil {
				log.Debug("detail lookup failed", slog.String("recording_id", item.ID), sl.Err(err))
				return nil
			}
			item.CreatedAt = detail.CreatedAt
			return nil
		})
	}
	_ = g.Wait()

	return page, nil
}

// Ingest copies a provider recording into owned storage and catalogs it.
// Repeated calls by the owner return the existing entry.
func (s *RecordingService) Ingest(ctx context.Context, caller domain.Identity, id string) (*IngestResult, error) {
	const op = "service.recording.Ingest"

	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("%s: missing id: %w", op, ErrInvalidArgument)
	}

	v, err, shared := s.ingests.Do(caller.UID+"/"+id, func() (any, error) {
		return s.ingest(ctx, caller.UID, id)
	})
	if err != nil {
		return nil, err
	}
	res := *v.(*IngestResult)
	if shared && !res.Already {
		// A concurrent call did the copy.
		res.Already = true
	}
	return &res, nil
}

func (s *RecordingService) ingest(ctx context.Context, uid, id string) (*IngestResult, error) {
	const op = "service.recording.Ingest"
	log := s.log.With(
		slog.String("op", op),
		slog.String("uid", uid),
		slog.String("recording_id", id),
	)

	existing, err := s.recordings.GetByID(ctx, id)
	switch {
	case err == nil && existing.IsReadyFor(uid):
		if existing.Title == "" {
			existing.Title = domain.RecordingTitle("", id)
		}
		log.Info("already ingested")
		return &IngestResult{Recording: existing, Already: true}, nil
	case err == nil && existing.OwnerID != "" && existing.OwnerID != uid:
		return nil, fmt.Errorf("%s: recording belongs to another user: %w", op, ErrForbidden)
	case err != nil && !errors.Is(err, repository.ErrRecordingNotFound):
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	count, err := s.recordings.CountByOwnerSince(ctx, uid, monthStart)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if count >= s.opts.MonthlyLimit {
		log.Info("monthly limit reached", slog.Int("count", count))
		return nil, fmt.Errorf("%s: %w", op, ErrQuotaExceeded)
	}

	meta, err := s.api.GetRecording(ctx, id)
	if err != nil {
		log.Error("metadata lookup failed", sl.Err(err))
		return nil, fmt.Errorf("%s: meta failed: %w", op, err)
	}

	link, err := s.api.AccessLink(ctx, id)
	if err != nil {
		log.Error("access link failed", sl.Err(err))
		return nil, fmt.Errorf("%s: access-link failed: %w", op, err)
	}

	body, err := s.api.Download(ctx, link)
	if err != nil {
		log.Error("download failed", sl.Err(err))
		return nil, fmt.Errorf("%s: fetch failed: %w", op, err)
	}
	defer body.Close()

	path := domain.RecordingStoragePath(uid, id)
	written, err := s.store.Write(ctx, path, body)
	if err != nil {
		log.Error("storage write failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	size, err := s.store.Size(ctx, path)
	if err != nil {
		log.Warn("storage size lookup failed", sl.Err(err))
		size = written
	}

	rec := &domain.Recording{
		ID:           id,
		OwnerID:      uid,
		Title:        domain.RecordingTitle(meta.Room, id),
		CreatedAt:    now,
		DurationSec:  meta.Duration,
		SizeBytes:    &size,
		StoragePath:  path,
		PlaybackType: domain.PlaybackTypeMP4,
		Status:       domain.RecordingStatusReady,
		Room:         meta.Room,
	}
	if err := s.recordings.Save(ctx, rec); err != nil {
		log.Error("catalog write failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("recording ingested", slog.Int64("size", size))
	return &IngestResult{Recording: rec}, nil
}

// DeleteOwned removes the caller's owned copy and its catalog entry.
func (s *RecordingService) DeleteOwned(ctx context.Context, caller domain.Identity, id string) error {
	const op = "service.recording.DeleteOwned"

	if err := requireCaller(caller); err != nil {
		return err
	}

	rec, err := s.recordings.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rec.OwnerID != caller.UID {
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	if rec.StoragePath != "" {
		if err := s.store.Delete(ctx, rec.StoragePath); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := s.recordings.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("owned recording deleted",
		slog.String("op", op),
		slog.String("uid", caller.UID),
		slog.String("recording_id", id),
	)
	return nil
}

// DeleteMaster removes the provider-side recording. Any signed-in caller
// may do this.
func (s *RecordingService) DeleteMaster(ctx context.Context, caller domain.Identity, id string) error {
	const op = "service.recording.DeleteMaster"

	if err := requireCaller(caller); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("%s: missing id: %w", op, ErrInvalidArgument)
	}

	if err := s.api.DeleteRecording(ctx, id); err != nil {
		s.log.Error("provider delete failed", slog.String("op", op), slog.String("recording_id", id), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *RecordingService) ListOwned(ctx context.Context, caller domain.Identity) ([]*domain.Recording, error) {
	const op = "service.recording.ListOwned"

	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	list, err := s.recordings.ListByOwner(ctx, caller.UID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}
