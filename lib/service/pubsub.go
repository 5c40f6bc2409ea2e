package service

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/usdchub/usdchub/ledger"
)

// Pubsub fans invoice lifecycle events out to in-process subscribers
// (webhook poster, rabbitmq publisher). Topics are invoice statuses.
type Pubsub struct {
	mu   sync.RWMutex
	subs map[string]map[string]chan ledger.Invoice
}

func NewPubsub() *Pubsub {
	ps := &Pubsub{}
	ps.subs = make(map[string]map[string]chan ledger.Invoice)
	return ps
}

func (ps *Pubsub) Subscribe(topic string, ch chan ledger.Invoice) (subID string, err error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		ps.subs[topic] = make(map[string]chan ledger.Invoice)
	}
	subID, err = makeSubID()
	if err != nil {
		return "", err
	}
	ps.subs[topic][subID] = ch
	return subID, nil
}

func (ps *Pubsub) Unsubscribe(id string, topic string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		return
	}
	if ps.subs[topic][id] == nil {
		return
	}
	close(ps.subs[topic][id])
	delete(ps.subs[topic], id)
}

func (ps *Pubsub) Publish(topic string, msg ledger.Invoice) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	if ps.subs[topic] == nil {
		return
	}

	for _, ch := range ps.subs[topic] {
		ch <- msg
	}
}

func makeSubID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
