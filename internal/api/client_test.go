package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNormalizeBaseURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"  ", ""},
		{"karaoke.local:8080", "http://karaoke.local:8080/"},
		{"http://karaoke.local:8080", "http://karaoke.local:8080/"},
		{"http://karaoke.local:8080/", "http://karaoke.local:8080/"},
		{"https://host/base", "https://host/base/"},
	}
	for _, c := range cases {
		if got := NormalizeBaseURL(c.in); got != c.want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Username != "tv" {
			t.Errorf("username = %q", req.Username)
		}
		http.SetCookie(w, &http.Cookie{Name: TokenCookie, Value: "session-token"})
		json.NewEncoder(w).Encode(User{UserID: 5, Username: "tv", IsAdmin: false})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	user, token, err := c.Login(context.Background(), LoginRequest{Username: "tv", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.UserID != 5 {
		t.Errorf("UserID = %v, want 5", user.UserID)
	}
	if token != "session-token" {
		t.Errorf("token = %q", token)
	}
}

func TestLogin_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, _, err := c.Login(context.Background(), LoginRequest{Username: "tv"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestLogin_MissingCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(User{UserID: 5})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, _, err := c.Login(context.Background(), LoginRequest{Username: "tv"})
	if err == nil {
		t.Fatal("want error when no token cookie is issued")
	}
}

func TestRooms_SendsTokenCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie(TokenCookie)
		if err != nil || ck.Value != "tok" {
			t.Errorf("token cookie = %v, %v", ck, err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"rooms": []Room{{RoomID: 1, Name: "Main", Status: "open"}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	rooms, err := c.Rooms(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Rooms: %v", err)
	}
	if len(rooms) != 1 || rooms[0].Name != "Main" {
		t.Errorf("rooms = %+v", rooms)
	}
}

func TestPollPairing_Confirmed(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pair/status/p1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		ps := PairStatus{Status: "pending"}
		if polls.Add(1) >= 3 {
			tok := "minted"
			ps = PairStatus{Status: "confirmed", Token: &tok}
		}
		json.NewEncoder(w).Encode(ps)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	token, err := c.PollPairing(context.Background(), "p1", 10*time.Millisecond)
	if err != nil {
		t.Fatalf("PollPairing: %v", err)
	}
	if token != "minted" {
		t.Errorf("token = %q", token)
	}
	if polls.Load() < 3 {
		t.Errorf("polls = %d, want at least 3", polls.Load())
	}
}

func TestPollPairing_Expired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(PairStatus{Status: "expired"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.PollPairing(context.Background(), "p1", 10*time.Millisecond)
	if !errors.Is(err, ErrPairExpired) {
		t.Errorf("err = %v, want ErrPairExpired", err)
	}
}

func TestPollPairing_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(PairStatus{Status: "pending"})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewClient(srv.URL)
	_, err := c.PollPairing(ctx, "p1", 10*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestRequestPairCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pair/code" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(PairCode{PairID: "p1", Code: "4821"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	pc, err := c.RequestPairCode(context.Background())
	if err != nil {
		t.Fatalf("RequestPairCode: %v", err)
	}
	if pc.PairID != "p1" || pc.Code != "4821" {
		t.Errorf("pair code = %+v", pc)
	}
}
