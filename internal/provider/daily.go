package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
)

const maxErrorBody = 4 << 10

// DailyClient talks to the Daily REST API.
type DailyClient struct {
	log     *slog.Logger
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewDailyClient(log *slog.Logger, baseURL, apiKey string, httpClient *http.Client) *DailyClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &DailyClient{
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}
}

type dailyRoomProperties struct {
	Exp               int64  `json:"exp"`
	EnableChat        bool   `json:"enable_chat"`
	EnableScreenshare bool   `json:"enable_screenshare"`
	StartVideoOff     bool   `json:"start_video_off"`
	StartAudioOff     bool   `json:"start_audio_off"`
	EnableRecording   string `json:"enable_recording"`
}

func (c *DailyClient) CreateRoom(ctx context.Context, opts RoomOptions) (domain.Room, error) {
	const op = "provider.daily.CreateRoom"

	lifetime := opts.Lifetime
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	body := map[string]any{
		"properties": dailyRoomProperties{
			Exp:               time.Now().Add(lifetime).Unix(),
			EnableChat:        true,
			EnableScreenshare: true,
			StartVideoOff:     true,
			StartAudioOff:     true,
			EnableRecording:   "cloud",
		},
	}

	var resp struct {
		URL  string `json:"url"`
		Name string `json:"name"`
	}
	if err := c.do(ctx, op, http.MethodPost, "/rooms", body, &resp); err != nil {
		return domain.Room{}, err
	}

	return domain.Room{URL: resp.URL, Name: resp.Name}, nil
}

type dailyTokenProperties struct {
	RoomName string `json:"room_name"`
	UserName string `json:"user_name"`
	IsOwner  bool   `json:"is_owner"`
	UserID   string `json:"user_id,omitempty"`
}

func (c *DailyClient) IssueToken(ctx context.Context, req TokenRequest) (string, error) {
	const op = "provider.daily.IssueToken"

	body := map[string]any{
		"properties": dailyTokenProperties{
			RoomName: req.RoomName,
			UserName: req.UserName,
			IsOwner:  req.IsOwner,
			UserID:   req.UserID,
		},
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, op, http.MethodPost, "/meeting-tokens", body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%s: empty token in response", op)
	}
	return resp.Token, nil
}

func (c *DailyClient) ListRecordings(ctx context.Context, limit int, cursor string) (*RecordingPage, error) {
	const op = "provider.daily.ListRecordings"

	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("starting_after", cursor)
	}
	path := "/recordings"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp struct {
		Data   []map[string]any `json:"data"`
		Paging struct {
			Next struct {
				StartingAfter string `json:"starting_after"`
			} `json:"next"`
		} `json:"paging"`
	}
	if err := c.do(ctx, op, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	page := &RecordingPage{
		Items:      make([]RecordingSummary, 0, len(resp.Data)),
		NextCursor: resp.Paging.Next.StartingAfter,
	}
	for _, raw := range resp.Data {
		page.Items = append(page.Items, RecordingSummary{
			ID:        stringField(raw, "id"),
			Room:      resolveRoom(raw),
			CreatedAt: parseTimestamp(firstPresent(raw, createdAtKeys...)),
			Duration:  intField(raw, "duration"),
			Size:      int64Field(raw, "size"),
		})
	}
	return page, nil
}

func (c *DailyClient) GetRecording(ctx context.Context, id string) (*RecordingDetail, error) {
	const op = "provider.daily.GetRecording"

	var raw map[string]any
	if err := c.do(ctx, op, http.MethodGet, "/recordings/"+url.PathEscape(id), nil, &raw); err != nil {
		return nil, err
	}

	detail := &RecordingDetail{
		ID:        stringField(raw, "id"),
		Room:      resolveRoom(raw),
		CreatedAt: parseTimestamp(firstPresent(raw, createdAtKeys...)),
		Duration:  intField(raw, "duration"),
	}
	if detail.ID == "" {
		detail.ID = id
	}
	return detail, nil
}

func (c *DailyClient) AccessLink(ctx context.Context, id string) (string, error) {
	const op = "provider.daily.AccessLink"

	var raw map[string]any
	if err := c.do(ctx, op, http.MethodGet, "/recordings/"+url.PathEscape(id)+"/access-link", nil, &raw); err != nil {
		return "", err
	}

	for _, key := range []string{"download_link", "link", "url"} {
		if link := stringField(raw, key); link != "" {
			return link, nil
		}
	}
	return "", fmt.Errorf("%s: %w", op, ErrNoDownloadLink)
}

func (c *DailyClient) Download(ctx context.Context, link string) (io.ReadCloser, error) {
	const op = "provider.daily.Download"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, replyError(op, resp)
	}
	return resp.Body, nil
}

func (c *DailyClient) DeleteRecording(ctx context.Context, id string) error {
	const op = "provider.daily.DeleteRecording"
	return c.do(ctx, op, http.MethodDelete, "/recordings/"+url.PathEscape(id), nil, nil)
}

func (c *DailyClient) do(ctx context.Context, op, method, path string, in, out any) error {
	if c.apiKey == "" {
		return fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

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
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		perr := replyError(op, resp)
		c.log.Warn("daily request failed",
			slog.String("op", op),
			slog.Int("status", perr.Status),
			slog.String("body", perr.Body),
		)
		return perr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func replyError(op string, resp *http.Response) *Error {
	text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &Error{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(text))}
}

var createdAtKeys = []string{"created_at", "createdAt", "created", "start_time", "start", "start_ts"}

func firstPresent(m map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := m[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

// parseTimestamp accepts epoch numbers in seconds or milliseconds and
// date strings. Anything else yields the zero time.
func parseTimestamp(raw any) time.Time {
	switch v := raw.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}
		}
		return epochToTime(f)
	case float64:
		return epochToTime(v)
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z", "2006-01-02 15:04:05", time.RFC1123} {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}

func epochToTime(f float64) time.Time {
	ms := int64(f)
	if f < 1e12 {
		ms = int64(f * 1000)
	}
	return time.UnixMilli(ms).UTC()
}

func resolveRoom(m map[string]any) string {
	if room, ok := m["room"].(map[string]any); ok {
		if name := stringField(room, "name"); name != "" {
			return name
		}
	}
	if name := stringField(m, "room_name"); name != "" {
		return name
	}
	return stringField(m, "roomName")
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]any, key string) *int {
	n, ok := m[key].(json.Number)
	if !ok {
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil
	}
	v := int(f)
	return &v
}

func int64Field(m map[string]any, key string) *int64 {
	n, ok := m[key].(json.Number)
	if !ok {
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil
	}
	v := int64(f)
	return &v
}
