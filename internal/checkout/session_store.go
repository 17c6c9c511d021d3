package checkout

import (
	"sync"
	"time"

	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/domain"
)

const (
	// SessionTTL is how long an abandoned checkout survives without input
	// before the cleanup loop drops it.
	SessionTTL = 30 * time.Minute

	// CleanupInterval is how often the background cleanup runs
	CleanupInterval = time.Minute
)

// SessionStore holds in-flight checkout sessions, one per customer.
// Sessions are deliberately not durable: losing one on restart costs the
// customer a few prompts, never their cart or an order.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*domain.CheckoutSession
	ttl      time.Duration

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewSessionStore() *SessionStore {
	s := &SessionStore{
		sessions:    make(map[int64]*domain.CheckoutSession),
		ttl:         SessionTTL,
		stopCleanup: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

func (s *SessionStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictIdle()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *SessionStore) evictIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-s.ttl)
	for userID, session := range s.sessions {
		if session.LastActivity.Before(cutoff) {
			delete(s.sessions, userID)
		}
	}
}

// Get returns the customer's live session, or nil when none is active.
func (s *SessionStore) Get(userID int64) *domain.CheckoutSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[userID]
}

func (s *SessionStore) Put(session *domain.CheckoutSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.LastActivity = time.Now()
	s.sessions[session.UserID] = session
}

func (s *SessionStore) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the cleanup goroutine and waits for it to exit.
func (s *SessionStore) Close() {
	close(s.stopCleanup)
	s.wg.Wait()
}
