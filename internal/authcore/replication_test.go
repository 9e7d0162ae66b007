// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HiveAuth Contributors

package authcore

import (
	"context"
	"testing"

	"github.com/hiveauth/authcore/internal/hive"
	"github.com/hiveauth/authcore/internal/nexus"
	"github.com/stretchr/testify/require"
)

// TestReplication_TwoReplicasConvergeOnIdenticalSequence builds two Auth
// instances, each with its own storage, registered as two independent
// replicas on the same bus, and drives every mutation through only the
// first. Both must end up with identical user and role tables, proving
// the replicated events alone (and not anything leader-local) determine
// state.
func TestReplication_TwoReplicasConvergeOnIdenticalSequence(t *testing.T) {
	ctx := context.Background()
	bus := nexus.NewMem()

	leader, err := New(ctx, hive.NewMem(), bus)
	require.NoError(t, err)
	follower, err := New(ctx, hive.NewMem(), bus)
	require.NoError(t, err)

	alice, err := leader.AddUser(ctx, "alice")
	require.NoError(t, err)
	_, err = leader.AddRole(ctx, "ops")
	require.NoError(t, err)
	require.NoError(t, leader.Grant(ctx, alice.iden, "ops"))
	require.NoError(t, leader.SetRoleRules(ctx, leader.rolesByName["ops"].iden,
		[]Rule{{Allow: true, Path: []string{"node"}}}, ""))
	require.NoError(t, leader.SetUserName(ctx, alice.iden, "alice2"))

	followerAlice, ok := follower.User(alice.iden)
	require.True(t, ok)
	require.Equal(t, "alice2", followerAlice.name)
	require.True(t, followerAlice.HasRole(ctx, "ops"))

	followerOps, ok := follower.RoleByName("ops")
	require.True(t, ok)
	require.Equal(t, leader.rolesByName["ops"].rules, followerOps.rules)

	// Both replicas' own root users stay untouched by this bus, because
	// boot assertions are never replicated.
	require.True(t, follower.RootUser().IsAdmin())
}

func TestReplication_DelUserAppliesToEveryReplica(t *testing.T) {
	ctx := context.Background()
	bus := nexus.NewMem()
	leader, err := New(ctx, hive.NewMem(), bus)
	require.NoError(t, err)
	follower, err := New(ctx, hive.NewMem(), bus)
	require.NoError(t, err)

	alice, err := leader.AddUser(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, leader.DelUser(ctx, "alice"))

	_, ok := follower.User(alice.iden)
	require.False(t, ok)
}

func TestReplication_AuthGateMembershipIsLocalOnly(t *testing.T) {
	ctx := context.Background()
	bus := nexus.NewMem()
	leader, err := New(ctx, hive.NewMem(), bus)
	require.NoError(t, err)
	follower, err := New(ctx, hive.NewMem(), bus)
	require.NoError(t, err)

	_, err = leader.AddAuthGate(ctx, "view0", "view")
	require.NoError(t, err)

	_, ok := follower.AuthGate("view0")
	require.False(t, ok, "auth gates are never replicated")
}
