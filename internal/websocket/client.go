package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/zevar-co/zevargo/internal/negotiation"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8 * 1024

	// Idle time before a proactive hesitation nudge fires.
	idleNudgeAfter = 90 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Storefront is served cross-origin from the web frontend
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Inbound event types
const (
	evStartNegotiation = "start_negotiation"
	evSendMessage      = "send_message"
	evUserHesitating   = "user_hesitating"
	evUserLeaving      = "user_leaving"
)

// InboundEvent is one customer-side message on the negotiation channel
type InboundEvent struct {
	Type      string `json:"type"`
	ProductID uint   `json:"productId,omitempty"`
	Text      string `json:"text,omitempty"`
}

// priceBreakdown is the customer-visible slice of the price structure.
// Wholesale cost and floor never appear here.
type priceBreakdown struct {
	MakingCharge    string `json:"making_charge"`
	WastageValue    string `json:"wastage_value"`
	FinalTotalPrice int64  `json:"final_total_price"`
}

// Client owns one connection and its negotiation session. Events are
// processed strictly in order by a single goroutine, so a session never
// has more than one arbitration in flight.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	events chan InboundEvent

	ID      string
	engine  *negotiation.Engine
	session *negotiation.Session

	idleTimer *time.Timer

	evMu     sync.Mutex
	evClosed bool
}

// enqueue pushes an event into the processing queue unless the
// connection is already torn down. The idle timer fires on its own
// goroutine, so the queue close must be guarded.
func (c *Client) enqueue(ev InboundEvent) {
	c.evMu.Lock()
	defer c.evMu.Unlock()
	if c.evClosed {
		return
	}
	select {
	case c.events <- ev:
	default:
		log.Printf("⚠️ Event queue full for %s, dropping %s", c.ID, ev.Type)
	}
}

func (c *Client) closeEvents() {
	c.evMu.Lock()
	defer c.evMu.Unlock()
	if !c.evClosed {
		c.evClosed = true
		close(c.events)
	}
}

// sendJSON queues a JSON message for the write pump
func (c *Client) sendJSON(v interface{}) {
	msg, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}
	select {
	case c.send <- msg:
	default:
		// Buffer full or client dead; writePump teardown handles it
	}
}

func (c *Client) sendSystemMessage(text string) {
	c.sendJSON(map[string]string{"type": "system_message", "text": text})
}

func (c *Client) sendTyping(on bool) {
	c.sendJSON(map[string]interface{}{"type": "ai_typing", "typing": on})
}

// resetIdleTimer (re)arms the hesitation nudge; cancelled on disconnect
// and on every new customer activity so duplicate nudges cannot fire.
// Guarded by evMu: the process pump and the read pump teardown both
// touch the timer.
func (c *Client) resetIdleTimer() {
	c.evMu.Lock()
	defer c.evMu.Unlock()
	if c.idleTimer != nil {
		c.idleTimer.Stop()
	}
	c.idleTimer = time.AfterFunc(idleNudgeAfter, func() {
		c.enqueue(InboundEvent{Type: evUserHesitating})
	})
}

func (c *Client) stopIdleTimer() {
	c.evMu.Lock()
	defer c.evMu.Unlock()
	if c.idleTimer != nil {
		c.idleTimer.Stop()
		c.idleTimer = nil
	}
}

// readPump pumps messages from the websocket connection into the event queue
func (c *Client) readPump() {
	defer func() {
		c.stopIdleTimer()
		c.closeEvents()
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WS error: %v", err)
			}
			break
		}

		var ev InboundEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			continue
		}
		c.enqueue(ev)
	}
}

// processPump handles events strictly in arrival order. Inbound messages
// queue here while an arbitration is pending rather than running
// concurrently against the same session.
func (c *Client) processPump() {
	for ev := range c.events {
		switch ev.Type {
		case evStartNegotiation:
			c.handleStart(ev.ProductID)
		case evSendMessage:
			c.resetIdleTimer()
			c.handleDecision(negotiation.TriggerMessage, ev.Text)
		case evUserHesitating:
			c.handleDecision(negotiation.TriggerHesitate, "")
		case evUserLeaving:
			c.handleDecision(negotiation.TriggerLeaving, "")
		}
	}
}

func (c *Client) handleStart(productID uint) {
	if c.session != nil {
		c.sendSystemMessage("We're already discussing a piece — let's settle this one first.")
		return
	}

	session, opening, err := c.engine.StartSession(productID)
	if err != nil {
		if errors.Is(err, negotiation.ErrDegradedPricing) {
			c.sendSystemMessage("This piece can't be priced right now. Please try again shortly.")
		} else {
			c.sendSystemMessage("Sorry, that piece isn't available for negotiation.")
		}
		return
	}

	c.session = session
	c.resetIdleTimer()
	c.sendSystemMessage(opening)
}

func (c *Client) handleDecision(trigger negotiation.Trigger, text string) {
	if c.session == nil {
		c.sendSystemMessage("Pick a piece first and we can talk prices.")
		return
	}
	if c.session.Closed() {
		// Terminal state: nudges and follow-ups are silently ignored
		return
	}

	// Typing indicator frames the whole round: on before arbitration, off
	// only after the decision (or the apology) went out.
	c.sendTyping(true)
	defer c.sendTyping(false)

	decision, err := c.engine.Handle(context.Background(), c.session, trigger, text)
	if err != nil {
		if !errors.Is(err, negotiation.ErrSessionClosed) {
			log.Printf("❌ Negotiation error on session %s: %v", c.session.ID, err)
			c.sendSystemMessage("Give me a moment and try that again.")
		}
		return
	}

	if decision.Status == negotiation.StatusAccepted {
		c.stopIdleTimer()
	}

	c.sendJSON(map[string]interface{}{
		"type":    "price_update",
		"message": decision.Message,
		"status":  string(decision.Status),
		"breakdown": priceBreakdown{
			MakingCharge:    c.session.MakingCharge.Round(2).String(),
			WastageValue:    c.session.WastageValue.Round(2).String(),
			FinalTotalPrice: decision.ProposedPrice,
		},
	})
}

// writePump pumps messages from the send channel to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeNegotiation upgrades the connection and starts the session pumps
func ServeNegotiation(hub *Hub, engine *negotiation.Engine, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 64),
		events: make(chan InboundEvent, 16),
		ID:     "neg_" + uuid.New().String(),
		engine: engine,
	}
	client.hub.register <- client

	go client.writePump()
	go client.processPump()
	go client.readPump()
}
