package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/immxrtalbeast/axenix_meet/internal/domain"
)

var (
	ErrMissingToken = errors.New("missing id token")
	ErrInvalidToken = errors.New("invalid id token")
	ErrEmptySecret  = errors.New("identity secret is empty")
)

type Verifier interface {
	Verify(ctx context.Context, rawToken string) (domain.Identity, error)
}

type claims struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Picture   string `json:"picture,omitempty"`
	Anonymous bool   `json:"anonymous,omitempty"`
	jwt.RegisteredClaims
}

// HMACVerifier verifies HS256 ID tokens signed with a shared secret.
type HMACVerifier struct {
	secret []byte
	issuer string
}

// NewHMACVerifier refuses an empty secret: any token signed with an empty
// key would verify.
func NewHMACVerifier(secret, issuer string) (*HMACVerifier, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &HMACVerifier{secret: []byte(secret), issuer: issuer}, nil
}

func (v *HMACVerifier) Verify(ctx context.Context, rawToken string) (domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return domain.Identity{}, err
	}
	if rawToken == "" {
		return domain.Identity{}, ErrMissingToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var c claims
	_, err := jwt.ParseWithClaims(rawToken, &c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Subject == "" {
		return domain.Identity{}, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}

	return domain.Identity{
		UID:         c.Subject,
		DisplayName: c.Name,
		Email:       c.Email,
		PhotoURL:    c.Picture,
		Anonymous:   c.Anonymous,
	}, nil
}

// Issue signs an ID token for id. Used by the dev token command and tests.
func (v *HMACVerifier) Issue(id domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Name:      id.DisplayName,
		Email:     id.Email,
		Picture:   id.PhotoURL,
		Anonymous: id.Anonymous,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
}
