package client

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Gateway event names, mirroring the server side of the wire protocol.
const (
	eventJoinConversation = "join-conversation"
	eventJoinFade         = "join-fade"
	eventSendMessage      = "send-message"
	eventNewMessage       = "new-message"
	eventError            = "error"
)

type gatewayEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type newMessageData struct {
	Message struct {
		ID        uint      `json:"ID"`
		SenderID  uint      `json:"senderID"`
		Content   string    `json:"content"`
		CreatedAt time.Time `json:"CreatedAt"`
	} `json:"message"`
	ClientID string `json:"clientId"`
}

// GatewayClient is a minimal consumer connection: it joins rooms, sends
// messages through the reconciler, and folds new-message broadcasts back
// into it. One GatewayClient drives one Reconciler.
type GatewayClient struct {
	conn       *websocket.Conn
	reconciler *Reconciler

	mu sync.Mutex
	// outstanding tracks sends not yet confirmed, oldest first, so a server
	// error can roll back the most recent one.
	outstanding []pendingSend
}

type pendingSend struct {
	localID  string
	clientID string
}

// DialGateway connects to the server's /ws endpoint with a bearer token.
func DialGateway(url, accessToken string, reconciler *Reconciler) (*GatewayClient, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+accessToken)

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		return nil, err
	}

	c := &GatewayClient{
		conn:       conn,
		reconciler: reconciler,
	}
	go c.readLoop()
	return c, nil
}

func (c *GatewayClient) sendEvent(eventType string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.conn.WriteJSON(gatewayEvent{Type: eventType, Data: raw})
}

func (c *GatewayClient) JoinConversation(id uint) error {
	return c.sendEvent(eventJoinConversation, map[string]uint{"id": id})
}

func (c *GatewayClient) JoinFade(id uint) error {
	return c.sendEvent(eventJoinFade, map[string]uint{"id": id})
}

func (c *GatewayClient) SendToConversation(conversationID uint, content string) (string, error) {
	return c.send(map[string]interface{}{"conversationId": conversationID, "content": content})
}

func (c *GatewayClient) SendToFade(fadeID uint, content string) (string, error) {
	return c.send(map[string]interface{}{"fadeId": fadeID, "content": content})
}

// send records an optimistic entry and puts the message on the wire with
// its correlation id.
func (c *GatewayClient) send(payload map[string]interface{}) (string, error) {
	localID, clientID := c.reconciler.SendLocal(payload["content"].(string))
	payload["clientId"] = clientID

	c.mu.Lock()
	c.outstanding = append(c.outstanding, pendingSend{localID: localID, clientID: clientID})
	c.mu.Unlock()

	if err := c.sendEvent(eventSendMessage, payload); err != nil {
		c.settleByLocal(localID)
		c.reconciler.Fail(localID)
		return "", err
	}
	return localID, nil
}

func (c *GatewayClient) settleByLocal(localID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.outstanding {
		if c.outstanding[i].localID == localID {
			c.outstanding = append(c.outstanding[:i], c.outstanding[i+1:]...)
			return
		}
	}
}

func (c *GatewayClient) settleByClient(clientID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.outstanding {
		if c.outstanding[i].clientID == clientID {
			c.outstanding = append(c.outstanding[:i], c.outstanding[i+1:]...)
			return
		}
	}
}

// settleNewest pops the most recent outstanding send and returns its local
// id.
func (c *GatewayClient) settleNewest() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.outstanding) == 0 {
		return "", false
	}
	last := c.outstanding[len(c.outstanding)-1]
	c.outstanding = c.outstanding[:len(c.outstanding)-1]
	return last.localID, true
}

func (c *GatewayClient) readLoop() {
	for {
		var event gatewayEvent
		if err := c.conn.ReadJSON(&event); err != nil {
			return
		}

		switch event.Type {
		case eventNewMessage:
			var data newMessageData
			if err := json.Unmarshal(event.Data, &data); err != nil {
				continue
			}
			if data.ClientID != "" {
				c.settleByClient(data.ClientID)
			}
			c.reconciler.Receive(IncomingMessage{
				ID:        data.Message.ID,
				SenderID:  data.Message.SenderID,
				Content:   data.Message.Content,
				CreatedAt: data.Message.CreatedAt,
				ClientID:  data.ClientID,
			})

		case eventError:
			// Errors carry no correlation id, so the newest unconfirmed send
			// is assumed to be the one that failed.
			if localID, ok := c.settleNewest(); ok {
				c.reconciler.Fail(localID)
			}
		}
	}
}

func (c *GatewayClient) Close() error {
	return c.conn.Close()
}
