// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HiveAuth Contributors

package hive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMem_OpenCreatesIntermediateNodes(t *testing.T) {
	ctx := context.Background()
	root := NewMem()

	node, err := root.Open(ctx, "users", "abc123")
	require.NoError(t, err)
	require.Equal(t, "abc123", node.Name())

	again, err := root.Open(ctx, "users", "abc123")
	require.NoError(t, err)
	require.Same(t, node, again)
}

func TestMem_SetAndValue(t *testing.T) {
	ctx := context.Background()
	root := NewMem()
	node, err := root.Open(ctx, "users", "abc123")
	require.NoError(t, err)

	require.Nil(t, node.Value())
	require.NoError(t, node.Set(ctx, "alice"))
	require.Equal(t, "alice", node.Value())
}

func TestMem_Children_SortedByName(t *testing.T) {
	ctx := context.Background()
	root := NewMem()
	users, err := root.Open(ctx, "users")
	require.NoError(t, err)

	_, err = users.Open(ctx, "bbb")
	require.NoError(t, err)
	_, err = users.Open(ctx, "aaa")
	require.NoError(t, err)

	children, err := users.Children(ctx)
	require.NoError(t, err)
	require.Len(t, children, 2)
	require.Equal(t, "aaa", children[0].Name)
	require.Equal(t, "bbb", children[1].Name)
}

func TestMem_Pop(t *testing.T) {
	ctx := context.Background()
	root := NewMem()
	users, err := root.Open(ctx, "users")
	require.NoError(t, err)
	_, err = users.Open(ctx, "abc123")
	require.NoError(t, err)

	child, ok, err := users.Child(ctx, "abc123")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, child.Pop(ctx))

	_, ok, err = users.Child(ctx, "abc123")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMem_PopRoot(t *testing.T) {
	ctx := context.Background()
	root := NewMem()
	require.Error(t, root.Pop(ctx))
}

func TestMem_Dict(t *testing.T) {
	ctx := context.Background()
	root := NewMem()
	node, err := root.Open(ctx, "users", "abc123")
	require.NoError(t, err)

	dict, err := node.Dict(ctx, false)
	require.NoError(t, err)

	_, ok := dict.Get("admin")
	require.False(t, ok)

	require.NoError(t, dict.Set(ctx, "admin", true))
	v, ok := dict.Get("admin")
	require.True(t, ok)
	require.Equal(t, true, v)

	require.NoError(t, dict.Pop(ctx, "admin"))
	_, ok = dict.Get("admin")
	require.False(t, ok)
}

func TestMem_DictPack(t *testing.T) {
	ctx := context.Background()
	root := NewMem()
	node, err := root.Open(ctx, "users", "abc123")
	require.NoError(t, err)
	dict, err := node.Dict(ctx, false)
	require.NoError(t, err)

	require.NoError(t, dict.Set(ctx, "admin", true))
	require.NoError(t, dict.Set(ctx, "locked", false))

	packed := dict.Pack()
	require.Equal(t, map[string]any{"admin": true, "locked": false}, packed)
}
