// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package subscriber implements the subscriber registry (spec §4.3,
// C3): per-management-type sets of long-lived client channels
// delivering circuit-lifecycle events, grounded on the lock/started
// shape of the teacher's networking/handler.NotificationForwarder.
package subscriber

import (
	"sync"

	"github.com/luxfi/zap"

	"github.com/latticemesh/circuitadmin/internal/logging"
)

// EventKind tags a circuit-lifecycle event.
type EventKind int

const (
	EventCircuitReady EventKind = iota
	EventCircuitRejected
)

// Event is delivered to every subscriber of a circuit_management_type.
type Event struct {
	Kind      EventKind
	CircuitID string
	Detail    string
}

// outboundBufferSize bounds each subscriber's channel so one slow
// consumer can never stall the admin shared state's broadcast (spec
// §9: "Unbounded subscriber broadcast").
const outboundBufferSize = 32

// Channel is a subscriber's buffered outbound event channel. Registry
// closes it when the subscriber is removed, either by Remove or by a
// Broadcast that finds its buffer full.
type Channel struct {
	id     uint64
	events chan Event
}

// Events returns the channel to read delivered events from.
func (c *Channel) Events() <-chan Event {
	return c.events
}

// Registry is the per-management-type subscriber table (spec §4.3).
type Registry struct {
	mu      sync.Mutex
	nextID  uint64
	byType  map[string][]*Channel
	log     logging.Logger
}

// New creates an empty subscriber registry.
func New(log logging.Logger) *Registry {
	if log == nil {
		log = logging.NoOp()
	}
	return &Registry{
		byType: make(map[string][]*Channel),
		log:    log,
	}
}

// Add registers a new subscriber channel for managementType, returning a
// handle the caller reads events from. Order of delivery within a
// management_type is FIFO in registration order (spec §4.3).
func (r *Registry) Add(managementType string) *Channel {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	ch := &Channel{id: r.nextID, events: make(chan Event, outboundBufferSize)}
	r.byType[managementType] = append(r.byType[managementType], ch)
	return ch
}

// Remove unregisters a subscriber, e.g. when its websocket connection
// closes.
func (r *Registry) Remove(managementType string, ch *Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(managementType, ch)
}

func (r *Registry) removeLocked(managementType string, ch *Channel) {
	subs := r.byType[managementType]
	for i, c := range subs {
		if c.id == ch.id {
			r.byType[managementType] = append(subs[:i], subs[i+1:]...)
			close(c.events)
			return
		}
	}
}

// Broadcast delivers event to every subscriber of managementType, in
// FIFO registration order. A subscriber whose buffer is full is
// dropped-and-disconnected rather than allowed to stall the caller
// (spec §5, §9); the caller never blocks on a slow subscriber.
func (r *Registry) Broadcast(managementType string, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := append([]*Channel(nil), r.byType[managementType]...)
	for _, ch := range subs {
		select {
		case ch.events <- event:
		default:
			r.log.Warn("dropping slow subscriber", zap.String("circuit_management_type", managementType))
			r.removeLocked(managementType, ch)
		}
	}
}

// Count returns the total number of registered subscribers across all
// management types, used for the admin_subscribers gauge.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, subs := range r.byType {
		total += len(subs)
	}
	return total
}
