package server

import (
	"encoding/json"
	"strconv"
	"sync"
)

// Topics are "admin" for every event and "user:<id>" for one user's.
const adminTopic = "admin"

func userTopic(id int64) string { return "user:" + strconv.FormatInt(id, 10) }

// NotificationEvent is the payload published to SSE subscribers.
type NotificationEvent struct {
	Kind            string `json:"kind"`
	UserID          int64  `json:"userId"`
	ParticipationID int64  `json:"participationId"`
	MissionID       int64  `json:"missionId"`
	State           string `json:"state"`
}

// Broker is an in-process pub/sub for SSE events, keyed by topic.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for topic.
func (b *Broker) Subscribe(topic string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[chan []byte]struct{})
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(topic string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[topic], ch)
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of each topic.
func (b *Broker) Publish(event NotificationEvent, topics ...string) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for _, topic := range topics {
		for ch := range b.subs[topic] {
			select {
			case ch <- data:
			default:
				// Drop if subscriber is slow.
			}
		}
	}
	b.mu.RUnlock()
}
