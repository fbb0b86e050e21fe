package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/bililive/internal/common"
	"github.com/dmitrijs2005/bililive/internal/logging"
)

// Persistence is the port the Store uses to keep a session across runs.
// Load returns (nil, nil) when nothing is stored.
type Persistence interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context) error
}

// Store is the single slot holding the current Session.
//
// All access goes through one mutex: a writer replaces the slot and then
// persists, a reader receives a deep copy. Consumers never observe a partial
// or expired session; Get reports such a slot as empty. Persistence failures
// are logged and do not undo the in-memory change.
type Store struct {
	mu      sync.Mutex
	current *Session
	persist Persistence
	now     func() time.Time
	log     logging.Logger
}

// NewStore returns an empty Store. A nil Persistence keeps sessions in memory only.
func NewStore(p Persistence, log logging.Logger) *Store {
	if p == nil {
		p = NopPersistence{}
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Store{persist: p, now: time.Now, log: log.With("component", "session_store")}
}

// Put replaces the current session. Incomplete or already expired sessions
// are rejected with common.ErrIncompleteSession and leave the slot untouched.
func (s *Store) Put(ctx context.Context, sess Session) error {
	if !sess.Valid(s.now()) {
		return fmt.Errorf("put session: %w", common.ErrIncompleteSession)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := sess.Clone()
	s.current = &c

	if err := s.persist.Save(ctx, c); err != nil {
		s.log.Warn(ctx, "session not persisted", "uid", c.UID, "error", err)
	}
	s.log.Info(ctx, "session stored", "uid", c.UID, "session_id", c.ID)
	return nil
}

// Get returns a copy of the current session, or false when there is none
// or it has expired.
func (s *Store) Get() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.Expired(s.now()) {
		return Session{}, false
	}
	return s.current.Clone(), true
}

// Clear drops the current session from memory and from persistence.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if err := s.persist.Delete(ctx); err != nil {
		return fmt.Errorf("delete persisted session: %w", err)
	}
	s.log.Info(ctx, "session cleared")
	return nil
}

// Restore loads the persisted session into the slot. It returns false when
// nothing usable was stored; an unusable stored session is deleted.
func (s *Store) Restore(ctx context.Context) (bool, error) {
	loaded, err := s.persist.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load persisted session: %w", err)
	}
	if loaded == nil {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !loaded.Valid(s.now()) {
		s.log.Info(ctx, "persisted session unusable, discarding", "uid", loaded.UID)
		if err := s.persist.Delete(ctx); err != nil {
			return false, fmt.Errorf("delete persisted session: %w", err)
		}
		return false, nil
	}

	c := loaded.Clone()
	s.current = &c
	s.log.Info(ctx, "session restored", "uid", c.UID)
	return true, nil
}

// MergeCookies applies Set-Cookie updates from a response by host to the
// current session by issuing a replacement Session. Without a current
// session the update is ignored. If the update leaves the session unusable
// (SESSDATA removed or expired) the slot is cleared.
func (s *Store) MergeCookies(ctx context.Context, host string, cookies []*http.Cookie) error {
	if len(cookies) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}

	now := s.now()
	updated := s.current.WithCookies(cookies, host, now)
	if _, ok := updated.Cookie(common.CookieSessData); !ok || !updated.Valid(now) {
		s.current = nil
		s.log.Warn(ctx, "platform revoked session cookies")
		return s.persist.Delete(ctx)
	}

	s.current = &updated
	if err := s.persist.Save(ctx, updated); err != nil {
		s.log.Warn(ctx, "merged session not persisted", "error", err)
	}
	return nil
}

// NopPersistence keeps nothing.
type NopPersistence struct{}

func (NopPersistence) Load(context.Context) (*Session, error) { return nil, nil }
func (NopPersistence) Save(context.Context, Session) error    { return nil }
func (NopPersistence) Delete(context.Context) error           { return nil }
