package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestProgressHubDeliversPerUser(t *testing.T) {
	hub := NewProgressHub(zap.NewNop())

	alice, cancelAlice := hub.Subscribe("alice")
	defer cancelAlice()
	bob, cancelBob := hub.Subscribe("bob")
	defer cancelBob()

	hub.Publish("alice", ProgressEvent{Progress: Progress{SessionID: "s1", Received: 1, Total: 2}})

	select {
	case ev := <-alice:
		assert.Equal(t, "s1", ev.SessionID)
	default:
		t.Fatal("alice did not receive the event")
	}

	select {
	case <-bob:
		t.Fatal("bob received alice's event")
	default:
	}
}

func TestProgressHubDropsWhenSubscriberIsSlow(t *testing.T) {
	hub := NewProgressHub(zap.NewNop())
	hub.buffer = 1

	ch, cancel := hub.Subscribe("alice")
	defer cancel()

	hub.Publish("alice", ProgressEvent{Progress: Progress{Received: 1}})
	hub.Publish("alice", ProgressEvent{Progress: Progress{Received: 2}})

	ev := <-ch
	assert.Equal(t, 1, ev.Received)
	select {
	case <-ch:
		t.Fatal("second event should have been dropped")
	default:
	}
}

func TestProgressHubCancelClosesChannel(t *testing.T) {
	hub := NewProgressHub(zap.NewNop())
	ch, cancel := hub.Subscribe("alice")
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	// publishing after cancel must not panic
	hub.Publish("alice", ProgressEvent{})
}
