// Package client talks to the meeting API on behalf of one signed-in user.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/immxrtalbeast/axenix_meet/internal/api/http/converter"
	"github.com/immxrtalbeast/axenix_meet/internal/domain"
)

const maxErrorBody = 4 << 10

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("unavailable")
)

// Error is a non-2xx API reply.
type Error struct {
	Op      string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusServiceUnavailable:
		return ErrUnavailable
	}
	return nil
}

type Client struct {
	log     *slog.Logger
	baseURL string
	idToken string
	http    *http.Client
}

// New returns a client that authenticates every call with idToken. An empty
// token makes anonymous calls.
func New(log *slog.Logger, baseURL, idToken string, httpClient *http.Client) *Client {
	if log == nil {
		log = slog.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		idToken: idToken,
		http:    httpClient,
	}
}

// JoinToken asks the token endpoint for a call transport credential.
func (c *Client) JoinToken(ctx context.Context, req domain.JoinTokenRequest) (string, error) {
	const op = "client.JoinToken"

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, op, http.MethodPost, "/api/daily/token", req, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%s: empty token", op)
	}
	return resp.Token, nil
}

func (c *Client) CreateRoom(ctx context.Context) (domain.Room, error) {
	var room domain.Room
	err := c.do(ctx, "client.CreateRoom", http.MethodPost, "/api/daily/room", nil, &room)
	return room, err
}

func (c *Client) CreateMeeting(ctx context.Context, topic string) (*domain.Meeting, error) {
	var resp struct {
		Meeting *converter.MeetingResponse `json:"meeting"`
	}
	body := map[string]string{"topic": topic}
	if err := c.do(ctx, "client.CreateMeeting", http.MethodPost, "/api/meetings", body, &resp); err != nil {
		return nil, err
	}
	if resp.Meeting == nil {
		return nil, fmt.Errorf("client.CreateMeeting: empty meeting")
	}
	return converter.MeetingFromApi(resp.Meeting), nil
}

func (c *Client) GetMeeting(ctx context.Context, id string) (*domain.Meeting, error) {
	var resp struct {
		Meeting *converter.MeetingResponse `json:"meeting"`
	}
	if err := c.do(ctx, "client.GetMeeting", http.MethodGet, "/api/meetings/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Meeting == nil {
		return nil, fmt.Errorf("client.GetMeeting: empty meeting")
	}
	return converter.MeetingFromApi(resp.Meeting), nil
}

// ResolveMeeting looks up the meeting behind an app link, room URL or code.
func (c *Client) ResolveMeeting(ctx context.Context, input string) (*domain.Meeting, error) {
	var resp struct {
		Meeting *converter.MeetingResponse `json:"meeting"`
	}
	path := "/api/meetings/resolve?q=" + url.QueryEscape(input)
	if err := c.do(ctx, "client.ResolveMeeting", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Meeting == nil {
		return nil, fmt.Errorf("client.ResolveMeeting: empty meeting")
	}
	return converter.MeetingFromApi(resp.Meeting), nil
}

func (c *Client) ListParticipants(ctx context.Context, meetingID string) ([]*domain.Participant, error) {
	var resp struct {
		Participants []converter.ParticipantResponse `json:"participants"`
	}
	path := "/api/meetings/" + url.PathEscape(meetingID) + "/participants"
	if err := c.do(ctx, "client.ListParticipants", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]*domain.Participant, 0, len(resp.Participants))
	for _, p := range resp.Participants {
		out = append(out, converter.ParticipantFromApi(p))
	}
	return out, nil
}

// UpsertOwn merges patch into the signed-in user's record. The server keys
// the write on the token subject; uid only guards against misuse.
func (c *Client) UpsertOwn(ctx context.Context, meetingID, uid string, patch domain.ParticipantPatch) error {
	const op = "client.UpsertOwn"
	if uid == "" {
		return fmt.Errorf("%s: uid required", op)
	}

	req := converter.ParticipantWriteRequest{
		DisplayName: patch.DisplayName,
		Status:      patch.Status,
		SessionID:   patch.SessionID,
		Device:      patch.Device,
		PhotoURL:    patch.PhotoURL,
		SetJoinedAt: patch.JoinedAt != nil,
		SetLeftAt:   patch.LeftAt != nil,
	}
	path := "/api/meetings/" + url.PathEscape(meetingID) + "/participants/me"
	return c.do(ctx, op, http.MethodPut, path, req, nil)
}

// BanParticipant sets the ban flag on uid's record. Only the meeting host
// is allowed to.
func (c *Client) BanParticipant(ctx context.Context, meetingID, uid string) error {
	path := "/api/meetings/" + url.PathEscape(meetingID) + "/participants/" + url.PathEscape(uid) + "/ban"
	return c.do(ctx, "client.BanParticipant", http.MethodPost, path, nil, nil)
}

// PhotoURL returns the stored profile photo of uid, empty when unset.
func (c *Client) PhotoURL(ctx context.Context, uid string) (string, error) {
	var resp struct {
		User domain.User `json:"user"`
	}
	if err := c.do(ctx, "client.PhotoURL", http.MethodGet, "/api/users/"+url.PathEscape(uid), nil, &resp); err != nil {
		return "", err
	}
	return resp.User.PhotoURL, nil
}

func (c *Client) EnsureMe(ctx context.Context) (*domain.User, error) {
	var resp struct {
		User *domain.User `json:"user"`
	}
	if err := c.do(ctx, "client.EnsureMe", http.MethodPost, "/api/users/me", nil, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.idToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.idToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := replyError(op, resp)
		c.log.Debug("api request failed",
			slog.String("op", op),
			slog.Int("status", apiErr.Status),
			slog.String("error", apiErr.Message),
		)
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func replyError(op string, resp *http.Response) *Error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return &Error{Op: op, Status: resp.StatusCode, Message: msg}
}
