package websocket

import (
	"encoding/json"
	"testing"
	"time"
)

func receive(t *testing.T, c *Client) Message {
	t.Helper()

	select {
	case data, ok := <-c.Send:
		if !ok {
			t.Fatal("send channel closed")
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestNotifyUserReachesOnlyThatUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	a1 := NewClient(hub, nil, "alice")
	a2 := NewClient(hub, nil, "alice")
	b := NewClient(hub, nil, "bob")
	for _, c := range []*Client{a1, a2, b} {
		if !hub.Join(c) {
			t.Fatal("Join failed on running hub")
		}
	}

	hub.NotifyUser("alice", "session.created", map[string]string{"id": "s1"})

	for _, c := range []*Client{a1, a2} {
		if msg := receive(t, c); msg.Action != "session.created" {
			t.Fatalf("action = %q", msg.Action)
		}
	}

	select {
	case <-b.Send:
		t.Fatal("bob must not receive alice's notification")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLeaveClosesSendChannel(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	c := NewClient(hub, nil, "alice")
	hub.Join(c)
	hub.Leave(c)

	select {
	case _, ok := <-c.Send:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send channel not closed after Leave")
	}
}

func TestJoinAfterStop(t *testing.T) {
	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run()
		close(stopped)
	}()
	hub.Stop()
	<-stopped

	if hub.Join(NewClient(hub, nil, "alice")) {
		t.Fatal("Join should fail once the hub is stopped")
	}
}
