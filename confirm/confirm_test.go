package confirm

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitOutcome(t *testing.T, ch <-chan State) State {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("prompt never resolved")
	}
	return AwaitingConfirmation
}

func TestTracker_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		user    string
		emoji   string
		handled bool
		want    State
	}{
		{"confirm", "1", EmojiConfirm, true, Confirmed},
		{"cancel", "1", EmojiCancel, true, Cancelled},
		{"other user is ignored", "2", EmojiConfirm, false, Expired},
		{"other emoji is ignored", "1", "👍", false, Expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			ch := make(chan State, 1)
			tr.Open("m", "1", 50*time.Millisecond, func(s State) { ch <- s })
			require.True(t, tr.Pending("m"))

			assert.Equal(t, tt.handled, tr.React("m", tt.user, tt.emoji))
			assert.Equal(t, tt.want, waitOutcome(t, ch))
			assert.False(t, tr.Pending("m"))
		})
	}
}

func TestTracker_ResolvesOnce(t *testing.T) {
	tr := NewTracker()
	var mu sync.Mutex
	var outcomes []State
	done := make(chan struct{}, 10)
	tr.Open("m", "1", 20*time.Millisecond, func(s State) {
		mu.Lock()
		outcomes = append(outcomes, s)
		mu.Unlock()
		done <- struct{}{}
	})

	assert.True(t, tr.React("m", "1", EmojiConfirm))
	assert.False(t, tr.React("m", "1", EmojiCancel))
	<-done
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{Confirmed}, outcomes)
}

func TestTracker_ReopenReplaces(t *testing.T) {
	tr := NewTracker()
	first := make(chan State, 1)
	second := make(chan State, 1)
	tr.Open("m", "1", time.Hour, func(s State) { first <- s })
	tr.Open("m", "2", time.Hour, func(s State) { second <- s })

	assert.False(t, tr.React("m", "1", EmojiConfirm))
	assert.True(t, tr.React("m", "2", EmojiConfirm))
	assert.Equal(t, Confirmed, waitOutcome(t, second))
	assert.Equal(t, Cancelled, waitOutcome(t, first))
}

func TestTracker_ReopenAfterExpiryResolvesOnce(t *testing.T) {
	tr := NewTracker()
	first := make(chan State, 2)
	tr.Open("m", "1", 50*time.Millisecond, func(s State) { first <- s })
	tr.Open("m", "1", time.Hour, func(State) {})

	assert.Equal(t, Cancelled, waitOutcome(t, first))
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, first, "the replaced prompt must not also expire")
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "expired", Expired.String())
	assert.Equal(t, "awaiting confirmation", AwaitingConfirmation.String())
}
