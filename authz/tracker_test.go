// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAwaitAuthorizationReadyWhenAllAuthorized(t *testing.T) {
	tr := New()
	tr.OnStateChange("other-node", Authorized)

	ready := tr.AwaitAuthorization("circuit-1", []string{"other-node"})
	require.True(t, ready)
}

func TestAwaitAuthorizationQueuesUntilAuthorized(t *testing.T) {
	tr := New()

	ready := tr.AwaitAuthorization("circuit-1", []string{"other-node"})
	require.False(t, ready)
	require.False(t, tr.IsAuthorized("other-node"))

	released := tr.OnStateChange("other-node", Authorized)
	require.Equal(t, []string{"circuit-1"}, released)
	require.True(t, tr.IsAuthorized("other-node"))
}

func TestAwaitAuthorizationPartialMembersStillBlocks(t *testing.T) {
	tr := New()
	ready := tr.AwaitAuthorization("circuit-1", []string{"node-a", "node-b"})
	require.False(t, ready)

	released := tr.OnStateChange("node-a", Authorized)
	require.Empty(t, released, "proposal must stay queued until every member is authorized")

	released = tr.OnStateChange("node-b", Authorized)
	require.Equal(t, []string{"circuit-1"}, released)
}

func TestOnStateChangeNonAuthorizedReleasesNothing(t *testing.T) {
	tr := New()
	tr.AwaitAuthorization("circuit-1", []string{"other-node"})

	released := tr.OnStateChange("other-node", Connecting)
	require.Empty(t, released)
	require.False(t, tr.IsAuthorized("other-node"))
}

// Releases come back in FIFO registration order, per OnStateChange's
// documented contract: circuit-z registered first must release first
// even though its key sorts after circuit-a's.
func TestOnStateChangeReleasesInFIFORegistrationOrder(t *testing.T) {
	tr := New()
	tr.AwaitAuthorization("circuit-z", []string{"peer"})
	tr.AwaitAuthorization("circuit-a", []string{"peer"})

	released := tr.OnStateChange("peer", Authorized)
	require.Equal(t, []string{"circuit-z", "circuit-a"}, released)
}
