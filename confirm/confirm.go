package confirm

import (
	"sync"
	"time"
)

const (
	EmojiConfirm = "✅"
	EmojiCancel  = "❌"

	DefaultTimeout = 30 * time.Second
)

type State int

const (
	AwaitingConfirmation State = iota
	Confirmed
	Cancelled
	Expired
)

func (s State) String() string {
	switch s {
	case AwaitingConfirmation:
		return "awaiting confirmation"
	case Confirmed:
		return "confirmed"
	case Cancelled:
		return "cancelled"
	case Expired:
		return "expired"
	}
	return "unknown"
}

// Prompt is a pending yes/no question owned by a single user.
type Prompt struct {
	MessageID string
	UserID    string
	ExpiresAt time.Time

	resolve func(State)
	timer   *time.Timer
}

// Tracker holds open prompts until they are answered or expire. Each prompt resolves exactly once.
type Tracker struct {
	mu      sync.Mutex
	prompts map[string]*Prompt
}

func NewTracker() *Tracker {
	return &Tracker{
		prompts: make(map[string]*Prompt),
	}
}

// Open starts waiting for a reaction on messageID from userID. resolve runs on its own goroutine.
// An older prompt on the same message resolves as Cancelled.
func (t *Tracker) Open(messageID, userID string, ttl time.Duration, resolve func(State)) *Prompt {
	if ttl <= 0 {
		ttl = DefaultTimeout
	}
	p := &Prompt{
		MessageID: messageID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
		resolve:   resolve,
	}

	t.mu.Lock()
	old, replaced := t.prompts[messageID]
	t.prompts[messageID] = p
	p.timer = time.AfterFunc(ttl, func() {
		t.finish(messageID, p, Expired)
	})
	t.mu.Unlock()

	// a prompt replaced on the same message is cancelled. Its own timer can no longer finish it.
	if replaced {
		old.timer.Stop()
		go old.resolve(Cancelled)
	}
	return p
}

// React feeds a reaction to the tracker. It reports whether the reaction resolved a prompt.
func (t *Tracker) React(messageID, userID, emoji string) bool {
	var outcome State
	switch emoji {
	case EmojiConfirm:
		outcome = Confirmed
	case EmojiCancel:
		outcome = Cancelled
	default:
		return false
	}

	t.mu.Lock()
	p, ok := t.prompts[messageID]
	t.mu.Unlock()
	if !ok || p.UserID != userID {
		return false
	}
	return t.finish(messageID, p, outcome)
}

// Pending reports whether messageID still waits for an answer.
func (t *Tracker) Pending(messageID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.prompts[messageID]
	return ok
}

func (t *Tracker) finish(messageID string, p *Prompt, outcome State) bool {
	t.mu.Lock()
	cur, ok := t.prompts[messageID]
	if !ok || cur != p {
		t.mu.Unlock()
		return false
	}
	delete(t.prompts, messageID)
	t.mu.Unlock()

	p.timer.Stop()
	go p.resolve(outcome)
	return true
}
