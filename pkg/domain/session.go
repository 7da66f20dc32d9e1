package domain

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// HistoryEntry pairs an expression with its formatted result.
type HistoryEntry struct {
	Expression string    `json:"expression"`
	Result     string    `json:"result"`
	At         time.Time `json:"at"`
}

// Session is the state owned by one caller: its display modes and calculation history.
type Session struct {
	ID        string         `json:"id"`
	Mode      Mode           `json:"mode"`
	History   []HistoryEntry `json:"history"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	// Sealed carries the encrypted session when the store encrypts at rest.
	// The other fields, except ID, are then left empty.
	Sealed string `json:"sealed,omitempty"`
}

// NewSession creates a session with the default modes.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Mode:      DefaultMode(),
		History:   []HistoryEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Snapshot returns a deep copy of the session.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.History = make([]HistoryEntry, len(s.History))
	copy(cp.History, s.History)
	return &cp
}

// Record appends a history entry, dropping the oldest entries beyond max.
// A max of zero or less keeps everything.
func (s *Session) Record(entry HistoryEntry, max int) {
	s.History = append(s.History, entry)
	if max > 0 && len(s.History) > max {
		s.History = append([]HistoryEntry(nil), s.History[len(s.History)-max:]...)
	}
	s.UpdatedAt = entry.At
}

// DeleteHistory removes the entry at index i.
func (s *Session) DeleteHistory(i int) error {
	if i < 0 || i >= len(s.History) {
		return ErrHistoryIndex
	}
	s.History = append(s.History[:i], s.History[i+1:]...)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// ClearHistory drops all entries.
func (s *Session) ClearHistory() {
	s.History = []HistoryEntry{}
	s.UpdatedAt = time.Now().UTC()
}

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

// ErrInvalidSessionID is returned for IDs that are empty, too long or contain
// characters outside [A-Za-z0-9_.-].
var ErrInvalidSessionID = errors.New("invalid session id")

// ValidateSessionID checks that id is safe to use as a storage key and file name.
func ValidateSessionID(id string) error {
	if !sessionIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return nil
}
