package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

type EvictReason string

const (
	EvictCapacity EvictReason = "capacity"
	EvictExpired  EvictReason = "expired"
)

// SessionStore maps session ids to their Conversation. With a zero
// StoreConfig entries are kept for the life of the process.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*list.Element // value: *Conversation
	lru      *list.List               // front = most recently used

	maxSessions int
	idleTTL     time.Duration
	onEvict     func(id string, reason EvictReason)
	now         func() time.Time
}

type StoreConfig struct {
	// MaxSessions caps resident sessions; the least recently used one is
	// dropped to make room. Zero means unbounded.
	MaxSessions int
	// IdleTTL expires sessions not referenced for this long. Zero disables.
	IdleTTL time.Duration
	// OnEvict is called without the store lock held.
	OnEvict func(id string, reason EvictReason)
}

// NewSessionStore creates a session store
func NewSessionStore(cfg StoreConfig) *SessionStore {
	return &SessionStore{
		sessions:    make(map[string]*list.Element),
		lru:         list.New(),
		maxSessions: cfg.MaxSessions,
		idleTTL:     cfg.IdleTTL,
		onEvict:     cfg.OnEvict,
		now:         time.Now,
	}
}

// GetOrCreate returns the conversation for sessionID, creating an empty one on
// first reference. The same pointer is returned for as long as the session is
// resident. Callers validate sessionID.
func (s *SessionStore) GetOrCreate(sessionID string) *Conversation {
	now := s.now()
	var evicted []evictedSession

	s.mu.Lock()
	if el, ok := s.sessions[sessionID]; ok {
		conv := el.Value.(*Conversation)
		if !s.expired(conv, now) {
			s.lru.MoveToFront(el)
			conv.touch(now)
			s.mu.Unlock()
			return conv
		}
		s.removeLocked(el)
		evicted = append(evicted, evictedSession{id: sessionID, reason: EvictExpired})
	}

	conv := newConversation(sessionID, now)
	s.sessions[sessionID] = s.lru.PushFront(conv)

	for s.maxSessions > 0 && s.lru.Len() > s.maxSessions {
		oldest := s.lru.Back()
		id := oldest.Value.(*Conversation).ID
		s.removeLocked(oldest)
		evicted = append(evicted, evictedSession{id: id, reason: EvictCapacity})
	}
	s.mu.Unlock()

	s.notify(evicted)
	return conv
}

// Get looks up a resident session without creating or touching it.
func (s *SessionStore) Get(sessionID string) (*Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	conv := el.Value.(*Conversation)
	if s.expired(conv, s.now()) {
		return nil, false
	}
	return conv, true
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// Sweep drops every session idle for longer than the TTL and returns how many
// were removed.
func (s *SessionStore) Sweep(now time.Time) int {
	if s.idleTTL <= 0 {
		return 0
	}

	var evicted []evictedSession

	s.mu.Lock()
	// Back of the list is least recently used, so stop at the first live entry.
	for el := s.lru.Back(); el != nil; {
		conv := el.Value.(*Conversation)
		if !s.expired(conv, now) {
			break
		}
		prev := el.Prev()
		s.removeLocked(el)
		evicted = append(evicted, evictedSession{id: conv.ID, reason: EvictExpired})
		el = prev
	}
	s.mu.Unlock()

	s.notify(evicted)
	return len(evicted)
}

// RunJanitor sweeps expired sessions every interval until ctx is done.
func (s *SessionStore) RunJanitor(ctx context.Context, interval time.Duration) {
	if s.idleTTL <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				logger.Info("Expired idle sessions", zap.Int("count", n), zap.Int("resident", s.Len()))
			}
		}
	}
}

type evictedSession struct {
	id     string
	reason EvictReason
}

func (s *SessionStore) expired(conv *Conversation, now time.Time) bool {
	return s.idleTTL > 0 && now.Sub(conv.idleSince()) > s.idleTTL
}

func (s *SessionStore) removeLocked(el *list.Element) {
	conv := el.Value.(*Conversation)
	s.lru.Remove(el)
	delete(s.sessions, conv.ID)
}

func (s *SessionStore) notify(evicted []evictedSession) {
	if s.onEvict == nil {
		return
	}
	for _, e := range evicted {
		s.onEvict(e.id, e.reason)
	}
}
