// Package client implements the consumer-side view of a chat timeline: it
// tracks optimistic pending sends and folds server broadcasts into them so
// a sender never sees their own message twice.
package client

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ReconcileWindow bounds the content-matching fallback. A pending entry
// older than this no longer matches a broadcast by content alone.
const ReconcileWindow = 10 * time.Second

// DisplayMessage is one row of the rendered timeline. Pending rows carry a
// local id only; confirmed rows carry the server id.
type DisplayMessage struct {
	ID        uint      `json:"id,omitempty"`
	LocalID   string    `json:"localId,omitempty"`
	ClientID  string    `json:"clientId,omitempty"`
	SenderID  uint      `json:"senderId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Pending   bool      `json:"pending"`
}

// IncomingMessage is the subset of a new-message broadcast the reconciler
// needs.
type IncomingMessage struct {
	ID        uint
	SenderID  uint
	Content   string
	CreatedAt time.Time
	ClientID  string
}

// Reconciler maintains a single room's timeline for one user. All methods
// are safe for concurrent use.
type Reconciler struct {
	mu       sync.Mutex
	userID   uint
	now      func() time.Time
	seq      int
	messages []DisplayMessage
}

func NewReconciler(userID uint) *Reconciler {
	return &Reconciler{userID: userID, now: time.Now}
}

// SendLocal appends an optimistic pending entry and returns its local id
// together with the correlation id to put on the wire.
func (r *Reconciler) SendLocal(content string) (localID, clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.seq++
	localID = fmt.Sprintf("pending-%d-%d", now.UnixMilli(), r.seq)
	clientID = uuid.NewString()

	r.messages = append(r.messages, DisplayMessage{
		LocalID:   localID,
		ClientID:  clientID,
		SenderID:  r.userID,
		Content:   content,
		CreatedAt: now,
		Pending:   true,
	})
	return localID, clientID
}

// Receive folds a broadcast into the timeline. A correlation-id match
// replaces the pending entry in place. Without one, a pending entry from
// the same sender with equal trimmed content whose local timestamp lies
// within ReconcileWindow of the incoming message's timestamp is replaced
// instead; the first such entry in timeline order wins. Anything else is
// appended, unless the server id is already present.
func (r *Reconciler) Receive(in IncomingMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if in.ClientID != "" {
		for i := range r.messages {
			if r.messages[i].Pending && r.messages[i].ClientID == in.ClientID {
				r.confirm(i, in)
				return
			}
		}
	}

	if in.SenderID == r.userID {
		for i := range r.messages {
			m := &r.messages[i]
			if m.Pending &&
				strings.TrimSpace(m.Content) == strings.TrimSpace(in.Content) &&
				in.CreatedAt.Sub(m.CreatedAt).Abs() <= ReconcileWindow {
				r.confirm(i, in)
				return
			}
		}
	}

	for i := range r.messages {
		if !r.messages[i].Pending && r.messages[i].ID == in.ID {
			return
		}
	}

	r.messages = append(r.messages, DisplayMessage{
		ID:        in.ID,
		SenderID:  in.SenderID,
		Content:   in.Content,
		CreatedAt: in.CreatedAt,
		Pending:   false,
	})
}

func (r *Reconciler) confirm(i int, in IncomingMessage) {
	r.messages[i] = DisplayMessage{
		ID:        in.ID,
		SenderID:  in.SenderID,
		Content:   in.Content,
		CreatedAt: in.CreatedAt,
		Pending:   false,
	}
}

// Fail removes a pending entry whose send was rejected. Confirmed entries
// are never removed this way.
func (r *Reconciler) Fail(localID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.messages {
		if r.messages[i].Pending && r.messages[i].LocalID == localID {
			r.messages = append(r.messages[:i], r.messages[i+1:]...)
			return
		}
	}
}

// Messages returns a copy of the timeline in order.
func (r *Reconciler) Messages() []DisplayMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]DisplayMessage, len(r.messages))
	copy(out, r.messages)
	return out
}

// PendingCount reports how many entries still await confirmation.
func (r *Reconciler) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for i := range r.messages {
		if r.messages[i].Pending {
			n++
		}
	}
	return n
}
