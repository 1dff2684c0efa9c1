// Package store persists session state in a small SQLite key/value table.
// Every write commits synchronously, so anything the engine considers
// committed survives a crash.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/openkara/player/internal/domain"
)

const (
	keyToken     = "token"
	keyServerURL = "server_url"
	keyUsername  = "username"
	keyUserID    = "user_id"
	keyIsAdmin   = "is_admin"
	keyRoomID    = "room_id"
	keyHistory   = "history_ids"
	keyDeviceID  = "device_id"
)

type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the player database in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dbPath := filepath.Join(dir, "player.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS session (
			key   TEXT PRIMARY KEY,
			value TEXT
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create session table: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(key string) (string, bool, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM session WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO session (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *Store) getInt(key string, def int) (int, error) {
	v, ok, err := s.get(key)
	if err != nil || !ok {
		return def, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, nil
	}
	return n, nil
}

// Credentials reads the persisted session. Missing keys come back zero.
func (s *Store) Credentials() (domain.Credentials, error) {
	var c domain.Credentials
	var err error

	if c.Token, _, err = s.get(keyToken); err != nil {
		return c, err
	}
	if c.ServerURL, _, err = s.get(keyServerURL); err != nil {
		return c, err
	}
	if c.Username, _, err = s.get(keyUsername); err != nil {
		return c, err
	}
	uid, err := s.getInt(keyUserID, -1)
	if err != nil {
		return c, err
	}
	c.UserID = domain.UserID(uid)
	if c.RoomID, err = s.getInt(keyRoomID, -1); err != nil {
		return c, err
	}
	admin, _, err := s.get(keyIsAdmin)
	if err != nil {
		return c, err
	}
	c.IsAdmin = admin == "1"
	return c, nil
}

func (s *Store) SaveCredentials(c domain.Credentials) error {
	admin := "0"
	if c.IsAdmin {
		admin = "1"
	}
	pairs := [][2]string{
		{keyToken, c.Token},
		{keyServerURL, c.ServerURL},
		{keyUsername, c.Username},
		{keyUserID, strconv.Itoa(int(c.UserID))},
		{keyRoomID, strconv.Itoa(c.RoomID)},
		{keyIsAdmin, admin},
	}
	for _, kv := range pairs {
		if err := s.set(kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

// History reads the played-id list, stored as a JSON array string.
func (s *Store) History() (domain.History, error) {
	v, ok, err := s.get(keyHistory)
	if err != nil {
		return nil, err
	}
	if !ok {
		return domain.History{}, nil
	}
	return domain.ParseHistory(v), nil
}

func (s *Store) SaveHistory(h domain.History) error {
	return s.set(keyHistory, h.EncodeJSON())
}

func (s *Store) ClearHistory() error {
	_, err := s.db.Exec(`DELETE FROM session WHERE key = ?`, keyHistory)
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// DeviceID returns the stable per-install id, minting one on first use.
func (s *Store) DeviceID() (string, error) {
	v, ok, err := s.get(keyDeviceID)
	if err != nil {
		return "", err
	}
	if ok && v != "" {
		return v, nil
	}
	id := uuid.NewString()
	if err := s.set(keyDeviceID, id); err != nil {
		return "", err
	}
	return id, nil
}

// Clear wipes the whole session, device id included.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM session`)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
