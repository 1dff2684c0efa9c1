// Package api is the HTTP client for the karaoke server's pairing and
// authentication endpoints. The realtime channel carries everything else;
// this client is only used before a session exists (login, room listing,
// pair-code exchange).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openkara/player/internal/domain"
)

// TokenCookie is the session cookie name the server issues and expects.
const TokenCookie = "keToken"

var (
	ErrPairExpired  = errors.New("pair code expired")
	ErrUnauthorized = errors.New("unauthorized")
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: NormalizeBaseURL(baseURL),
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NormalizeBaseURL ensures a scheme and a trailing slash so paths can be
// appended directly. Empty input stays empty.
func NormalizeBaseURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "http://" + s
	}
	if !strings.HasSuffix(s, "/") {
		s += "/"
	}
	return s
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	RoomID   *int   `json:"roomId,omitempty"`
}

type User struct {
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
	Name     string        `json:"name"`
	IsAdmin  bool          `json:"isAdmin"`
	IsGuest  bool          `json:"isGuest"`
	RoomID   *int          `json:"roomId"`
}

type Room struct {
	RoomID int    `json:"roomId"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type PairCode struct {
	PairID string `json:"pairId"`
	Code   string `json:"code"`
}

type PairStatus struct {
	Status string  `json:"status"` // "pending" | "confirmed" | "expired"
	Token  *string `json:"token"`
}

// Login exchanges credentials for a user record and a session token. The
// token comes back as the keToken cookie.
func (c *Client) Login(ctx context.Context, req LoginRequest) (User, string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return User{}, "", fmt.Errorf("marshal login: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"api/login", bytes.NewReader(body))
	if err != nil {
		return User{}, "", err
	}
	httpReq.Header.Set("content-type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return User{}, "", err
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusUnauthorized {
		return User{}, "", ErrUnauthorized
	}
	if resp.StatusCode/100 != 2 {
		return User{}, "", fmt.Errorf("login: status %s", resp.Status)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return User{}, "", fmt.Errorf("decode login response: %w", err)
	}

	for _, ck := range resp.Cookies() {
		if ck.Name == TokenCookie {
			return user, ck.Value, nil
		}
	}
	return user, "", fmt.Errorf("login: no %s cookie in response", TokenCookie)
}

// Rooms lists the server's rooms. Requires a session token.
func (c *Client) Rooms(ctx context.Context, token string) ([]Room, error) {
	var out struct {
		Rooms []Room `json:"rooms"`
	}
	if err := c.getJSON(ctx, c.BaseURL+"api/rooms", token, &out); err != nil {
		return nil, err
	}
	return out.Rooms, nil
}

// RequestPairCode asks the server for a short pairing code to show on
// screen; a controller confirms it and the server mints a token.
func (c *Client) RequestPairCode(ctx context.Context) (PairCode, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"api/pair/code", nil)
	if err != nil {
		return PairCode{}, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return PairCode{}, err
	}
	defer drain(resp)
	if resp.StatusCode/100 != 2 {
		return PairCode{}, fmt.Errorf("pair code: status %s", resp.Status)
	}
	var pc PairCode
	if err := json.NewDecoder(resp.Body).Decode(&pc); err != nil {
		return PairCode{}, fmt.Errorf("decode pair code: %w", err)
	}
	return pc, nil
}

func (c *Client) PairStatus(ctx context.Context, pairID string) (PairStatus, error) {
	var ps PairStatus
	if err := c.getJSON(ctx, c.BaseURL+"api/pair/status/"+pairID, "", &ps); err != nil {
		return PairStatus{}, err
	}
	return ps, nil
}

// PollPairing polls the pair status until the code is confirmed, the code
// expires, or ctx is cancelled. Transient poll errors are logged and
// retried; only expiry and cancellation end the loop without a token.
func (c *Client) PollPairing(ctx context.Context, pairID string, interval time.Duration) (string, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		ps, err := c.PairStatus(ctx, pairID)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			log.Warn().Err(err).Str("module", "api").Msg("pair status poll")
			continue
		}
		switch ps.Status {
		case "confirmed":
			if ps.Token == nil || *ps.Token == "" {
				return "", errors.New("pair confirmed without token")
			}
			return *ps.Token, nil
		case "expired":
			return "", ErrPairExpired
		}
	}
}

func (c *Client) getJSON(ctx context.Context, url, token string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer drain(resp)
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("GET %s: status %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
