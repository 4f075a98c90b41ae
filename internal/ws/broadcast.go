package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/gamedock/backend/internal/logbuf"
)

type client struct {
	conn *websocket.Conn
	send chan []byte
	// topics the client subscribed to; empty means everything.
	topics map[string]bool
}

func newClient(conn *websocket.Conn, topics []string) *client {
	c := &client{
		conn:   conn,
		send:   make(chan []byte, 64),
		topics: make(map[string]bool, len(topics)),
	}
	for _, t := range topics {
		if t != "" {
			c.topics[t] = true
		}
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

func (c *client) wants(topic string) bool {
	return len(c.topics) == 0 || c.topics[topic]
}

// Broadcaster fans messages out to connected WebSocket clients by topic.
// It implements logbuf.Sink, so log pipelines publish straight into it.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*client]bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[*client]bool),
	}
}

func (b *Broadcaster) AddClient(conn *websocket.Conn, topics []string) *client {
	c := newClient(conn, topics)

	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()

	return c
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

// Publish pushes a log chunk to subscribers of its topic.
func (b *Broadcaster) Publish(topic string, chunk logbuf.Chunk) {
	b.Broadcast(topic, WSMessage{
		Type:    MsgLogChunk,
		Topic:   topic,
		Payload: chunk,
	})
}

// Broadcast delivers msg to every client subscribed to topic. A client
// whose send buffer is full is disconnected rather than allowed to stall
// delivery for everyone else.
func (b *Broadcaster) Broadcast(topic string, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		if c.wants(topic) {
			clients = append(clients, c)
		}
	}
	b.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			log.Printf("ws client too slow, disconnecting")
			b.RemoveClient(c)
		}
	}
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
