package memory

import (
	"context"
	"sync"
	"time"

	"github.com/SaiNageswarS/chatbot-boot/llm"
)

// Conversation is the ordered message history of one session. It is shared by
// every request that references the session and only ever grows.
type Conversation struct {
	ID string

	mu       sync.RWMutex
	messages []llm.Message
	lastUsed time.Time

	// turn is a one-slot semaphore serializing read-generate-append cycles.
	turn chan struct{}
}

func newConversation(id string, now time.Time) *Conversation {
	return &Conversation{
		ID:       id,
		lastUsed: now,
		turn:     make(chan struct{}, 1),
	}
}

// Messages returns a copy of the history in append order.
func (m *Conversation) Messages() []llm.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	copied := make([]llm.Message, len(m.messages))
	copy(copied, m.messages)
	return copied
}

func (m *Conversation) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

// AppendExchange appends a user message and its reply as one unit.
func (m *Conversation) AppendExchange(user, assistant string) {
	m.append(
		llm.Message{Role: llm.RoleUser, Content: user},
		llm.Message{Role: llm.RoleAssistant, Content: assistant},
	)
}

func (m *Conversation) append(msgs ...llm.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msgs...)
}

// Turn runs one conversational turn. It waits for any in-flight turn on the
// same conversation, hands fn the history so far and, if fn succeeds, appends
// userText and the reply. A failed turn leaves the history untouched.
//
// Turns are serialized only while this Conversation is resident in its
// SessionStore. If max_sessions or session_ttl evicts it mid-turn, the next
// request for the same id gets a new Conversation that does not wait for the
// orphaned turn, whose reply is appended to the evicted history and lost.
func (m *Conversation) Turn(ctx context.Context, userText string, fn func(history []llm.Message) (string, error)) (string, error) {
	select {
	case m.turn <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-m.turn }()

	reply, err := fn(m.Messages())
	if err != nil {
		return "", err
	}

	m.AppendExchange(userText, reply)
	return reply, nil
}

func (m *Conversation) touch(now time.Time) {
	m.mu.Lock()
	m.lastUsed = now
	m.mu.Unlock()
}

func (m *Conversation) idleSince() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastUsed
}
