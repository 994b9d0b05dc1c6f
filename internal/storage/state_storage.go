package storage

import (
	"sync"

	"packscaler/internal/image"
)

const DefaultFactor = 2

// Session holds a chat's pending settings.
type Session struct {
	Mode       image.Mode
	Factor     int
	Processing bool
}

// SessionStore keeps per-chat settings and guards one job per chat.
type SessionStore struct {
	sessions map[int64]*Session
	mu       sync.RWMutex
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*Session),
	}
}

func (s *SessionStore) session(chatID int64) *Session {
	sess, ok := s.sessions[chatID]
	if !ok {
		sess = &Session{Mode: image.ModeUpscale, Factor: DefaultFactor}
		s.sessions[chatID] = sess
	}
	return sess
}

func (s *SessionStore) SetMode(chatID int64, mode image.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session(chatID).Mode = mode
}

func (s *SessionStore) SetFactor(chatID int64, factor int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session(chatID).Factor = factor
}

// Get returns a copy of the chat's settings, defaults included.
func (s *SessionStore) Get(chatID int64) Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[chatID]; ok {
		return *sess
	}
	return Session{Mode: image.ModeUpscale, Factor: DefaultFactor}
}

func (s *SessionStore) TryStart(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(chatID)
	if sess.Processing {
		return false
	}
	sess.Processing = true
	return true
}

func (s *SessionStore) IsProcessing(chatID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[chatID]; ok {
		return sess.Processing
	}
	return false
}

// Finish clears the processing flag and keeps the settings.
func (s *SessionStore) Finish(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[chatID]; ok {
		sess.Processing = false
	}
}

// Reset forgets the chat's settings. A running job stays registered so
// the chat still cannot start a second one before Finish.
func (s *SessionStore) Reset(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[chatID]
	if !ok {
		return
	}
	if !sess.Processing {
		delete(s.sessions, chatID)
		return
	}
	sess.Mode = image.ModeUpscale
	sess.Factor = DefaultFactor
}
