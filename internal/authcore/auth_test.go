// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HiveAuth Contributors

package authcore

import (
	"context"
	"testing"

	"github.com/hiveauth/authcore/internal/hive"
	"github.com/hiveauth/authcore/internal/nexus"
	"github.com/hiveauth/authcore/pkg/errutil"
	"github.com/stretchr/testify/require"
)

func newTestAuth(t *testing.T) *Auth {
	t.Helper()
	a, err := New(context.Background(), hive.NewMem(), nexus.NewMem())
	require.NoError(t, err)
	return a
}

func TestNew_BootstrapsAllRoleAndRootUser(t *testing.T) {
	a := newTestAuth(t)

	all, ok := a.RoleByName("all")
	require.True(t, ok)
	require.Equal(t, all, a.AllRole())

	root, ok := a.UserByName("root")
	require.True(t, ok)
	require.Same(t, root, a.RootUser())
	require.True(t, root.IsAdmin())
	require.False(t, root.Locked())
	require.True(t, root.HasRole(context.Background(), "all"))
}

func TestNew_BootAssertionsAreNotReplicated(t *testing.T) {
	ctx := context.Background()
	root := hive.NewMem()
	bus := nexus.NewMem()

	a, err := New(ctx, root, bus)
	require.NoError(t, err)

	// Tamper with root's persisted state directly, bypassing Auth -
	// simulating a stale or hand-edited store.
	rootUser, ok := a.UserByName("root")
	require.True(t, ok)
	dict, err := rootUser.node.Dict(ctx, false)
	require.NoError(t, err)
	require.NoError(t, dict.Set(ctx, "admin", false))
	require.NoError(t, dict.Set(ctx, "locked", true))

	// A fresh Auth over the same root re-asserts admin=true, locked=false
	// unconditionally at boot, without touching the bus.
	a2, err := New(ctx, root, bus)
	require.NoError(t, err)
	root2, ok := a2.UserByName("root")
	require.True(t, ok)
	require.True(t, root2.IsAdmin())
	require.False(t, root2.Locked())
}

func TestAuth_AddUserDupName(t *testing.T) {
	a := newTestAuth(t)
	ctx := context.Background()

	_, err := a.AddUser(ctx, "alice")
	require.NoError(t, err)

	_, err = a.AddUser(ctx, "alice")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeDupUserName)
}

func TestAuth_DelUser_CannotDeleteRoot(t *testing.T) {
	a := newTestAuth(t)
	err := a.DelUser(context.Background(), "root")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeCantDelRootUser)
}

func TestAuth_DelUser_RemovesUserAndRoleMembership(t *testing.T) {
	a := newTestAuth(t)
	ctx := context.Background()

	alice, err := a.AddUser(ctx, "alice")
	require.NoError(t, err)
	_, err = a.AddRole(ctx, "ops")
	require.NoError(t, err)
	require.NoError(t, a.Grant(ctx, alice.iden, "ops"))

	require.NoError(t, a.DelUser(ctx, "alice"))

	_, ok := a.UserByName("alice")
	require.False(t, ok)

	ops, ok := a.RoleByName("ops")
	require.True(t, ok)
	require.Empty(t, ops.users)
}

func TestAuth_DelRole_CannotDeleteAll(t *testing.T) {
	a := newTestAuth(t)
	err := a.DelRole(context.Background(), "all")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeCantDelAllRole)
}

func TestAuth_DelRole_RevokesFromEveryUser(t *testing.T) {
	a := newTestAuth(t)
	ctx := context.Background()

	alice, err := a.AddUser(ctx, "alice")
	require.NoError(t, err)
	_, err = a.AddRole(ctx, "ops")
	require.NoError(t, err)
	require.NoError(t, a.Grant(ctx, alice.iden, "ops"))
	require.True(t, alice.HasRole(ctx, "ops"))

	require.NoError(t, a.DelRole(ctx, "ops"))
	require.False(t, alice.HasRole(ctx, "ops"))
}

func TestAuth_RevokeAllRoleForbidden(t *testing.T) {
	a := newTestAuth(t)
	ctx := context.Background()
	alice, err := a.AddUser(ctx, "alice")
	require.NoError(t, err)

	err = a.Revoke(ctx, alice.iden, "all")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeCantRevokeAllRole)
}

func TestAuth_SetUserName_DupRejected(t *testing.T) {
	a := newTestAuth(t)
	ctx := context.Background()
	alice, err := a.AddUser(ctx, "alice")
	require.NoError(t, err)
	_, err = a.AddUser(ctx, "bob")
	require.NoError(t, err)

	err = a.SetUserName(ctx, alice.iden, "bob")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeDupUserName)
}

// TestAuth_SetUserName_DupCheckedBeforeIdenLookup mirrors the original's
// setUserName, which checks the new name against the name table before
// ever resolving the iden: a nonexistent iden renamed to an already-taken
// name raises DupUserName, not NoSuchUser.
func TestAuth_SetUserName_DupCheckedBeforeIdenLookup(t *testing.T) {
	a := newTestAuth(t)
	ctx := context.Background()
	_, err := a.AddUser(ctx, "bob")
	require.NoError(t, err)

	err = a.SetUserName(ctx, "not-a-real-iden", "bob")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeDupUserName)
}

func TestAuth_SetRoleName_DupCheckedBeforeIdenLookup(t *testing.T) {
	a := newTestAuth(t)
	ctx := context.Background()
	_, err := a.AddRole(ctx, "ops")
	require.NoError(t, err)

	err = a.SetRoleName(ctx, "not-a-real-iden", "ops")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeDupRoleName)
}

func TestAuth_RepairDanglingRoles(t *testing.T) {
	a := newTestAuth(t)
	ctx := context.Background()
	alice, err := a.AddUser(ctx, "alice")
	require.NoError(t, err)

	// Simulate a role that was deleted out from under the user by direct
	// storage surgery rather than through DelRole.
	alice.roles = append(alice.roles, "dangling-role-iden")

	n, err := a.RepairDanglingRoles(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.NotContains(t, alice.roles, "dangling-role-iden")
}
