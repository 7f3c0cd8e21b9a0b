package client

import (
	"testing"
	"time"
)

func newTestReconciler(userID uint) (*Reconciler, *time.Time) {
	r := NewReconciler(userID)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	return r, &now
}

func TestReceiveMatchesByClientID(t *testing.T) {
	r, _ := newTestReconciler(1)

	localID, clientID := r.SendLocal("hello")
	r.Receive(IncomingMessage{ID: 10, SenderID: 1, Content: "hello", ClientID: clientID})

	msgs := r.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message after confirmation, got %d", len(msgs))
	}
	if msgs[0].Pending {
		t.Error("confirmed message still marked pending")
	}
	if msgs[0].ID != 10 {
		t.Errorf("expected server id 10, got %d", msgs[0].ID)
	}
	if msgs[0].LocalID == localID {
		t.Error("local id survived confirmation")
	}
}

func TestReceiveFallsBackToContentMatch(t *testing.T) {
	r, now := newTestReconciler(1)
	sentAt := *now

	r.SendLocal("same words")
	// Broadcast carries no correlation id, e.g. sent from another transport.
	r.Receive(IncomingMessage{ID: 11, SenderID: 1, Content: "  same words  ", CreatedAt: sentAt.Add(time.Second)})

	msgs := r.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected the pending entry replaced, got %d messages", len(msgs))
	}
	if msgs[0].Pending || msgs[0].ID != 11 {
		t.Errorf("expected confirmed message 11, got %+v", msgs[0])
	}
}

func TestReceiveContentMatchRespectsWindow(t *testing.T) {
	r, now := newTestReconciler(1)
	sentAt := *now

	r.SendLocal("stale")
	// The server timestamp is what the window is measured against.
	r.Receive(IncomingMessage{ID: 12, SenderID: 1, Content: "stale", CreatedAt: sentAt.Add(ReconcileWindow + time.Second)})

	msgs := r.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected the broadcast appended next to the stale pending entry, got %d messages", len(msgs))
	}
	if !msgs[0].Pending {
		t.Error("stale pending entry was confirmed outside the window")
	}
	if msgs[1].ID != 12 {
		t.Errorf("expected appended server message 12, got %+v", msgs[1])
	}
}

func TestReceiveMatchesDelayedBroadcast(t *testing.T) {
	r, now := newTestReconciler(1)
	sentAt := *now

	r.SendLocal("hello")
	// The broadcast arrives well after the window has passed in wall-clock
	// terms, but the message was created one second after the local send, so
	// it still reconciles in place.
	*now = now.Add(15 * time.Second)
	r.Receive(IncomingMessage{ID: 42, SenderID: 1, Content: "hello", CreatedAt: sentAt.Add(time.Second)})

	msgs := r.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected the pending entry replaced in place, got %d timeline rows", len(msgs))
	}
	if msgs[0].Pending || msgs[0].ID != 42 {
		t.Errorf("expected confirmed message 42, got %+v", msgs[0])
	}
}

func TestReceiveIgnoresOtherSenders(t *testing.T) {
	r, _ := newTestReconciler(1)

	r.SendLocal("coincidence")
	r.Receive(IncomingMessage{ID: 13, SenderID: 2, Content: "coincidence"})

	msgs := r.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected another sender's message appended, got %d messages", len(msgs))
	}
	if !msgs[0].Pending {
		t.Error("pending entry consumed by another sender's message")
	}
	if msgs[1].SenderID != 2 {
		t.Errorf("expected sender 2 appended, got %d", msgs[1].SenderID)
	}
}

func TestReceiveDropsDuplicateServerIDs(t *testing.T) {
	r, _ := newTestReconciler(1)

	r.Receive(IncomingMessage{ID: 14, SenderID: 2, Content: "once"})
	r.Receive(IncomingMessage{ID: 14, SenderID: 2, Content: "once"})

	if got := len(r.Messages()); got != 1 {
		t.Errorf("expected duplicate broadcast dropped, got %d messages", got)
	}
}

func TestReceiveAmbiguousContentTakesFirstPending(t *testing.T) {
	r, _ := newTestReconciler(1)

	r.SendLocal("ping")
	r.SendLocal("ping")
	r.Receive(IncomingMessage{ID: 15, SenderID: 1, Content: "ping"})

	msgs := r.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Pending {
		t.Error("expected the first pending entry confirmed")
	}
	if !msgs[1].Pending {
		t.Error("expected the second pending entry untouched")
	}
	if r.PendingCount() != 1 {
		t.Errorf("expected 1 pending entry left, got %d", r.PendingCount())
	}
}

func TestClientIDMatchBeatsContentMatch(t *testing.T) {
	r, _ := newTestReconciler(1)

	r.SendLocal("twin")
	_, secondClientID := r.SendLocal("twin")

	// The broadcast correlates with the second send even though the first
	// pending entry has identical content.
	r.Receive(IncomingMessage{ID: 16, SenderID: 1, Content: "twin", ClientID: secondClientID})

	msgs := r.Messages()
	if !msgs[0].Pending {
		t.Error("content-matched entry confirmed despite a correlation id pointing elsewhere")
	}
	if msgs[1].Pending || msgs[1].ID != 16 {
		t.Errorf("expected the correlated entry confirmed, got %+v", msgs[1])
	}
}

func TestFailRemovesPendingEntry(t *testing.T) {
	r, _ := newTestReconciler(1)

	localID, _ := r.SendLocal("rejected")
	r.Fail(localID)

	if got := len(r.Messages()); got != 0 {
		t.Errorf("expected timeline empty after Fail, got %d messages", got)
	}

	// Fail on a confirmed entry is a no-op.
	_, clientID := r.SendLocal("accepted")
	r.Receive(IncomingMessage{ID: 17, SenderID: 1, Content: "accepted", ClientID: clientID})
	r.Fail("pending-0-0")
	if got := len(r.Messages()); got != 1 {
		t.Errorf("expected confirmed entry to survive, got %d messages", got)
	}
}
