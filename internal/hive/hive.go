// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HiveAuth Contributors

// Package hive defines the contract authcore uses to persist its tree of
// users, roles, and auth gates. The authorization engine never touches disk
// directly: every mutation is expressed as a Set, Pop, or Dict operation
// against a Node, and it is the Node implementation's job to make that
// durable. This package also ships Mem, an in-memory Node good enough to
// construct and test an Auth without a real store wired up.
package hive

import "context"

// Child names a single child of a Node, as returned by Children.
type Child struct {
	Name string
	Node Node
}

// Node is a single addressable point in the hive tree. Paths are opened
// relative to a node with Open, which creates intermediate nodes on demand,
// mirroring the lazy-node-creation behavior of the store this was modeled
// on: callers never need to pre-create parent directories before writing a
// leaf.
type Node interface {
	// Name returns this node's path segment, or "" for the root.
	Name() string

	// Value returns the node's own scalar value, or nil if unset.
	Value() any

	// Set stores value as the node's scalar value.
	Set(ctx context.Context, value any) error

	// Pop removes this node (and everything beneath it) from its parent.
	// Popping the root is an error.
	Pop(ctx context.Context) error

	// Open returns the node at path below this one, creating any node
	// along the path that does not yet exist.
	Open(ctx context.Context, path ...string) (Node, error)

	// Child looks up an existing child by name without creating it.
	Child(ctx context.Context, name string) (Node, bool, error)

	// Children lists this node's direct children, ordered by name.
	Children(ctx context.Context) ([]Child, error)

	// Dict returns the key/value dictionary attached to this node. When
	// nexs is true the dictionary is expected to be independently
	// replicated from the node's own scalar value (mirroring the
	// nexs=True dictionaries the original store used for free-form
	// per-user data); Mem does not distinguish the two at rest, but the
	// flag is preserved so callers can reason about replication scope.
	Dict(ctx context.Context, nexs bool) (Dict, error)
}

// Dict is a flat key/value store scoped to a single Node.
type Dict interface {
	Get(key string) (any, bool)
	Set(ctx context.Context, key string, value any) error
	Pop(ctx context.Context, key string) error
	// Pack returns a shallow copy of the dictionary's contents, suitable
	// for logging or snapshotting.
	Pack() map[string]any
}
