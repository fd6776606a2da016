// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package subscriber

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBroadcastFIFOWithinManagementType(t *testing.T) {
	reg := New(nil)
	sub := reg.Add("erc-20-like")

	reg.Broadcast("erc-20-like", Event{Kind: EventCircuitReady, CircuitID: "c1"})
	reg.Broadcast("erc-20-like", Event{Kind: EventCircuitReady, CircuitID: "c2"})

	first := <-sub.Events()
	second := <-sub.Events()
	require.Equal(t, "c1", first.CircuitID)
	require.Equal(t, "c2", second.CircuitID)
}

func TestBroadcastOnlyReachesItsManagementType(t *testing.T) {
	reg := New(nil)
	subA := reg.Add("type-a")
	subB := reg.Add("type-b")

	reg.Broadcast("type-a", Event{CircuitID: "only-a"})

	select {
	case ev := <-subA.Events():
		require.Equal(t, "only-a", ev.CircuitID)
	default:
		t.Fatal("expected event for type-a subscriber")
	}

	select {
	case <-subB.Events():
		t.Fatal("type-b subscriber should not receive type-a events")
	default:
	}
}

func TestSlowSubscriberDroppedOnOverflow(t *testing.T) {
	reg := New(nil)
	sub := reg.Add("slow")

	for i := 0; i < outboundBufferSize+5; i++ {
		reg.Broadcast("slow", Event{CircuitID: "c"})
	}

	// The subscriber should have been pruned; its channel is closed.
	require.Equal(t, 0, reg.Count())
	_, open := <-sub.Events()
	_ = open
}

func TestRemovePrunesSubscriber(t *testing.T) {
	reg := New(nil)
	sub := reg.Add("type-a")
	require.Equal(t, 1, reg.Count())

	reg.Remove("type-a", sub)
	require.Equal(t, 0, reg.Count())
}
