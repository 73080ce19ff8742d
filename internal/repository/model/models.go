package model

import (
	"time"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
)

type Meeting struct {
	ID              string            `gorm:"size:64;primaryKey"`
	Topic           string            `gorm:"size:255;not null"`
	Provider        string            `gorm:"size:32;not null"`
	RoomURL         string            `gorm:"size:512"`
	RoomName        string            `gorm:"size:255;index"`
	State           string            `gorm:"size:32;not null"`
	CreatorUID      string            `gorm:"size:128;index;not null"`
	CreatorName     string            `gorm:"size:255"`
	CreatorEmail    string            `gorm:"size:255"`
	CreatorPhotoURL string            `gorm:"size:1024"`
	Members         []string          `gorm:"type:text;serializer:json"`
	JoinOpen        bool              `gorm:"not null"`
	JoinPolicy      domain.JoinPolicy `gorm:"type:text;serializer:json"`
	Security        domain.Security   `gorm:"type:text;serializer:json"`
	Settings        domain.Settings   `gorm:"type:text;serializer:json"`
	CreatedAt       time.Time         `gorm:"not null"`
	ExpiresAt       *time.Time        `gorm:"index"`
	EndedAt         *time.Time
}

type Participant struct {
	MeetingID   string     `gorm:"size:64;primaryKey"`
	UID         string     `gorm:"column:uid;size:128;primaryKey;index"`
	DisplayName string     `gorm:"size:255"`
	Role        string     `gorm:"size:16"`
	DeviceKind  string     `gorm:"size:32"`
	DeviceUA    string     `gorm:"size:1024"`
	SessionID   string     `gorm:"size:128"`
	Status      string     `gorm:"size:32"`
	PhotoURL    string     `gorm:"size:1024"`
	JoinedAt    *time.Time `gorm:"index"`
	LeftAt      *time.Time
	Banned      bool `gorm:"not null;default:false"`
	BannedAt    *time.Time
	UpdatedAt   time.Time
}

type Recording struct {
	ID           string    `gorm:"size:128;primaryKey"`
	OwnerID      string    `gorm:"size:128;index;not null"`
	Title        string    `gorm:"size:255"`
	CreatedAt    time.Time `gorm:"index;not null"`
	DurationSec  *int
	SizeBytes    *int64
	StoragePath  string `gorm:"size:1024"`
	PlaybackType string `gorm:"size:16"`
	Status       string `gorm:"size:32;not null"`
	Room         string `gorm:"size:255"`
}

type User struct {
	UID       string    `gorm:"column:uid;size:128;primaryKey"`
	Username  *string   `gorm:"size:32;uniqueIndex:idx_users_username,where:username IS NOT NULL"`
	Name      string    `gorm:"size:255;not null"`
	Email     *string   `gorm:"size:255"`
	PhotoURL  string    `gorm:"size:1024"`
	IsGuest   bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// All lists every model for migrations.
func All() []any {
	return []any{&Meeting{}, &Participant{}, &Recording{}, &User{}}
}
