package repository

import (
	"context"
	"errors"
	"time"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/repository/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresMeetingRepository struct {
	db *gorm.DB
}

func NewPostgresMeetingRepository(db *gorm.DB) *PostgresMeetingRepository {
	return &PostgresMeetingRepository{db: db}
}

func (r *PostgresMeetingRepository) Create(ctx context.Context, meeting *domain.Meeting) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if meeting == nil {
		return errors.New("meeting is nil")
	}

	if err := r.db.WithContext(ctx).Create(toModelMeeting(meeting)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrMeetingExists
		}
		return err
	}
	return nil
}

func (r *PostgresMeetingRepository) GetByID(ctx context.Context, id string) (*domain.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var m model.Meeting
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, err
	}

	return toDomainMeeting(&m), nil
}

func (r *PostgresMeetingRepository) GetByRoomURL(ctx context.Context, roomURL string) (*domain.Meeting, error) {
	return r.firstWhere(ctx, "room_url = ?", roomURL)
}

func (r *PostgresMeetingRepository) GetByRoomName(ctx context.Context, roomName string) (*domain.Meeting, error) {
	return r.firstWhere(ctx, "room_name = ?", roomName)
}

func (r *PostgresMeetingRepository) firstWhere(ctx context.Context, query string, value string) (*domain.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if value == "" {
		return nil, ErrMeetingNotFound
	}

	var m model.Meeting
	err := r.db.WithContext(ctx).Where(query, value).Order("created_at").Order("id").Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, err
	}

	return toDomainMeeting(&m), nil
}

type PostgresParticipantRepository struct {
	db *gorm.DB
}

func NewPostgresParticipantRepository(db *gorm.DB) *PostgresParticipantRepository {
	return &PostgresParticipantRepository{db: db}
}

func (r *PostgresParticipantRepository) Get(ctx context.Context, meetingID, uid string) (*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p model.Participant
	err := r.db.WithContext(ctx).First(&p, "meeting_id = ? AND uid = ?", meetingID, uid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}

	return toDomainParticipant(&p), nil
}

func (r *PostgresParticipantRepository) Upsert(ctx context.Context, meetingID, uid string, patch domain.ParticipantPatch) (*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result *domain.Participant
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Participant
		err := tx.First(&existing, "meeting_id = ? AND uid = ?", meetingID, uid).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			p := &domain.Participant{MeetingID: meetingID, UID: uid}
			patch.Apply(p)
			if err := tx.Create(toModelParticipant(p)).Error; err != nil {
				return err
			}
			result = p
			return nil
		case err != nil:
			return err
		}

		p := toDomainParticipant(&existing)
		patch.Apply(p)
		if err := tx.Save(toModelParticipant(p)).Error; err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresParticipantRepository) ListByMeeting(ctx context.Context, meetingID string) ([]*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.Participant
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("uid").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainParticipants(rows), nil
}

func (r *PostgresParticipantRepository) ListByUser(ctx context.Context, uid string, limit int) ([]*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx).
		Where("uid = ? AND joined_at IS NOT NULL", uid).
		Order("joined_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []model.Participant
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainParticipants(rows), nil
}

type PostgresRecordingRepository struct {
	db *gorm.DB
}

func NewPostgresRecordingRepository(db *gorm.DB) *PostgresRecordingRepository {
	return &PostgresRecordingRepository{db: db}
}

func (r *PostgresRecordingRepository) GetByID(ctx context.Context, id string) (*domain.Recording, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec model.Recording
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordingNotFound
		}
		return nil, err
	}
	return toDomainRecording(&rec), nil
}

func (r *PostgresRecordingRepository) Save(ctx context.Context, recording *domain.Recording) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if recording == nil {
		return errors.New("recording is nil")
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(toModelRecording(recording)).Error
}

func (r *PostgresRecordingRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Delete(&model.Recording{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordingNotFound
	}
	return nil
}

func (r *PostgresRecordingRepository) CountByOwnerSince(ctx context.Context, ownerID string, since time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Recording{}).
		Where("owner_id = ? AND created_at >= ?", ownerID, since.UTC()).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *PostgresRecordingRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Recording, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.Recording
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]*domain.Recording, 0, len(rows))
	for i := range rows {
		result = append(result, toDomainRecording(&rows[i]))
	}
	return result, nil
}

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return errors.New("user is nil")
	}

	if err := r.db.WithContext(ctx).Create(toModelUser(user)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return err
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, uid string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "uid = ?", uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return toDomainUser(&user), nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return errors.New("user is nil")
	}

	userModel := toModelUser(user)

	updateData := map[string]any{
		"name":       userModel.Name,
		"photo_url":  userModel.PhotoURL,
		"is_guest":   userModel.IsGuest,
		"updated_at": userModel.UpdatedAt,
	}
	if userModel.Email == nil {
		updateData["email"] = gorm.Expr("NULL")
	} else {
		updateData["email"] = userModel.Email
	}

	res := r.db.WithContext(ctx).Model(&model.User{}).Where("uid = ?", userModel.UID).Updates(updateData)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ClaimUsername assigns username to uid unless another user holds it.
func (r *PostgresUserRepository) ClaimUsername(ctx context.Context, uid, username string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var holders int64
		err := tx.Model(&model.User{}).
			Where("username = ? AND uid <> ?", username, uid).
			Count(&holders).Error
		if err != nil {
			return err
		}
		if holders > 0 {
			return ErrUsernameTaken
		}

		res := tx.Model(&model.User{}).Where("uid = ?", uid).Updates(map[string]any{
			"username":   username,
			"updated_at": time.Now().UTC(),
		})
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return ErrUsernameTaken
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func timeVal(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toModelMeeting(m *domain.Meeting) *model.Meeting {
	return &model.Meeting{
		ID:              m.ID,
		Topic:           m.Topic,
		Provider:        m.Provider,
		RoomURL:         m.RoomURL,
		RoomName:        m.RoomName,
		State:           m.State,
		CreatorUID:      m.CreatedBy.UID,
		CreatorName:     m.CreatedBy.Name,
		CreatorEmail:    m.CreatedBy.Email,
		CreatorPhotoURL: m.CreatedBy.PhotoURL,
		Members:         m.Members,
		JoinOpen:        m.JoinOpen,
		JoinPolicy:      m.JoinPolicy,
		Security:        m.Security,
		Settings:        m.Settings,
		CreatedAt:       m.CreatedAt.UTC(),
		ExpiresAt:       timePtr(m.ExpiresAt),
		EndedAt:         timePtr(m.EndedAt),
	}
}

func toDomainMeeting(m *model.Meeting) *domain.Meeting {
	return &domain.Meeting{
		ID:       m.ID,
		Topic:    m.Topic,
		Provider: m.Provider,
		RoomURL:  m.RoomURL,
		RoomName: m.RoomName,
		State:    m.State,
		CreatedBy: domain.Creator{
			UID:      m.CreatorUID,
			Name:     m.CreatorName,
			Email:    m.CreatorEmail,
			PhotoURL: m.CreatorPhotoURL,
		},
		Members:    m.Members,
		JoinOpen:   m.JoinOpen,
		JoinPolicy: m.JoinPolicy,
		Security:   m.Security,
		Settings:   m.Settings,
		CreatedAt:  m.CreatedAt.UTC(),
		ExpiresAt:  timeVal(m.ExpiresAt),
		EndedAt:    timeVal(m.EndedAt),
	}
}

func toModelParticipant(p *domain.Participant) *model.Participant {
	return &model.Participant{
		MeetingID:   p.MeetingID,
		UID:         p.UID,
		DisplayName: p.DisplayName,
		Role:        string(p.Role),
		DeviceKind:  p.Device.Kind,
		DeviceUA:    p.Device.UserAgent,
		SessionID:   p.SessionID,
		Status:      string(p.Status),
		PhotoURL:    p.PhotoURL,
		JoinedAt:    timePtr(p.JoinedAt),
		LeftAt:      timePtr(p.LeftAt),
		Banned:      p.Banned,
		BannedAt:    timePtr(p.BannedAt),
	}
}

func toDomainParticipant(p *model.Participant) *domain.Participant {
	return &domain.Participant{
		MeetingID:   p.MeetingID,
		UID:         p.UID,
		DisplayName: p.DisplayName,
		Role:        domain.Role(p.Role),
		Device:      domain.Device{Kind: p.DeviceKind, UserAgent: p.DeviceUA},
		SessionID:   p.SessionID,
		Status:      domain.ParticipantStatus(p.Status),
		PhotoURL:    p.PhotoURL,
		JoinedAt:    timeVal(p.JoinedAt),
		LeftAt:      timeVal(p.LeftAt),
		Banned:      p.Banned,
		BannedAt:    timeVal(p.BannedAt),
	}
}

func toDomainParticipants(rows []model.Participant) []*domain.Participant {
	result := make([]*domain.Participant, 0, len(rows))
	for i := range rows {
		result = append(result, toDomainParticipant(&rows[i]))
	}
	return result
}

func toModelRecording(r *domain.Recording) *model.Recording {
	return &model.Recording{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		Title:        r.Title,
		CreatedAt:    r.CreatedAt.UTC(),
		DurationSec:  r.DurationSec,
		SizeBytes:    r.SizeBytes,
		StoragePath:  r.StoragePath,
		PlaybackType: r.PlaybackType,
		Status:       string(r.Status),
		Room:         r.Room,
	}
}

func toDomainRecording(r *model.Recording) *domain.Recording {
	return &domain.Recording{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		Title:        r.Title,
		CreatedAt:    r.CreatedAt.UTC(),
		DurationSec:  r.DurationSec,
		SizeBytes:    r.SizeBytes,
		StoragePath:  r.StoragePath,
		PlaybackType: r.PlaybackType,
		Status:       domain.RecordingStatus(r.Status),
		Room:         r.Room,
	}
}

func toModelUser(user *domain.User) *model.User {
	return &model.User{
		UID:       user.UID,
		Username:  stringPtr(user.Username),
		Name:      user.Name,
		Email:     stringPtr(user.Email),
		PhotoURL:  user.PhotoURL,
		IsGuest:   user.IsGuest,
		CreatedAt: user.CreatedAt.UTC(),
		UpdatedAt: user.UpdatedAt.UTC(),
	}
}

func toDomainUser(user *model.User) *domain.User {
	return &domain.User{
		UID:       user.UID,
		Username:  stringVal(user.Username),
		Name:      user.Name,
		Email:     stringVal(user.Email),
		PhotoURL:  user.PhotoURL,
		IsGuest:   user.IsGuest,
		CreatedAt: user.CreatedAt.UTC(),
		UpdatedAt: user.UpdatedAt.UTC(),
	}
}
