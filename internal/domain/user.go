package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var ErrInvalidUsername = errors.New("username must be 3-20 chars (letters, numbers, underscore)")

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)

// User is the stored profile of a signed-in identity.
type User struct {
	UID       string    `json:"uid"`
	Username  string    `json:"username,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	PhotoURL  string    `json:"photoURL,omitempty"`
	IsGuest   bool      `json:"is_guest"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewUser(uid, name, email, photoURL string, isGuest bool) *User {
	now := time.Now().UTC()
	return &User{
		UID:       uid,
		Name:      name,
		Email:     email,
		PhotoURL:  photoURL,
		IsGuest:   isGuest,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NormalizeUsername(raw string) (string, error) {
	u := strings.ToLower(strings.TrimSpace(raw))
	if !usernamePattern.MatchString(u) {
		return "", ErrInvalidUsername
	}
	return u, nil
}

// Identity is a verified caller as reported by the identity provider.
type Identity struct {
	UID         string
	DisplayName string
	Email       string
	PhotoURL    string
	Anonymous   bool
}
