package assistant

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/adityaadep2008/TrioAgent/pkg/llm"
)

// DefaultMaxSessions bounds the store when no size is given.
const DefaultMaxSessions = 256

// Session is one conversation. Its history holds user and assistant turns
// only; the persona prompt is prepended per call.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	mu        sync.Mutex
	history   []llm.Message
	updatedAt time.Time
}

// History returns a copy of the turns so far.
func (s *Session) History() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.Message(nil), s.history...)
}

// UpdatedAt reports when the session last changed.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Sessions is a bounded store of conversations. The least recently used
// session is evicted when the store is full.
type Sessions struct {
	cache *lru.Cache[string, *Session]
	// guards Open so concurrent opens of one id share a session
	mu sync.Mutex
}

// NewSessions creates a store holding at most size sessions.
func NewSessions(size int) (*Sessions, error) {
	if size <= 0 {
		size = DefaultMaxSessions
	}
	cache, err := lru.NewWithEvict[string, *Session](size, func(id string, _ *Session) {
		logx.Infof("assistant: session %s dropped", id)
	})
	if err != nil {
		return nil, err
	}
	return &Sessions{cache: cache}, nil
}

// Create starts a session with a fresh id.
func (s *Sessions) Create() *Session {
	sess := newSession(uuid.NewString())
	s.cache.Add(sess.ID, sess)
	return sess
}

// Get returns the session with id, if it is still held.
func (s *Sessions) Get(id string) (*Session, bool) {
	return s.cache.Get(id)
}

// Open returns the session with id, creating it under that id when absent.
// An empty id creates a session with a fresh one.
func (s *Sessions) Open(id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return s.Create(), nil
	}
	if len(id) > 128 {
		return nil, errors.New("assistant: session id too long")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.cache.Get(id); ok {
		return sess, nil
	}
	sess := newSession(id)
	s.cache.Add(id, sess)
	return sess, nil
}

// Destroy drops the session and reports whether it existed.
func (s *Sessions) Destroy(id string) bool {
	return s.cache.Remove(id)
}

// Len reports how many sessions are held.
func (s *Sessions) Len() int { return s.cache.Len() }

func newSession(id string) *Session {
	now := time.Now()
	return &Session{ID: id, CreatedAt: now, updatedAt: now}
}
