// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HiveAuth Contributors

// Package nexus defines the replication bus contract authcore pushes its
// mutating events through. Every change that must stay consistent across
// replicas — adding a user, renaming a role, editing a rule list — is
// published as a tagged event rather than applied directly, so that any
// number of followers can apply the identical sequence of events and land
// on identical state. addAuthGate and delAuthGate are the deliberate
// exception: per the authorization engine's contract, gate membership is
// local to a process and is never pushed.
package nexus

import "context"

// Handler applies one published event to local state and returns a result
// (meaningful only to the replica that published it) or an error. An error
// from any handler is fatal to the publish: event application is expected
// to be deterministic, so a follower's handler failing on an event its
// leader already committed indicates a correctness bug, not a retryable
// fault.
type Handler func(ctx context.Context, args []any) (any, error)

// Bus is the minimal publish/subscribe surface authcore needs. A single
// process typically registers one handler per tag; tests simulating
// multiple replicas may register several handlers for the same tag, one
// per simulated replica, to exercise replay determinism.
type Bus interface {
	// Register binds a handler to a tag. Multiple handlers may be
	// registered for the same tag; Push invokes all of them.
	Register(tag string, h Handler)

	// Push publishes an event under tag to every registered handler, in
	// registration order, and returns the first handler's result.
	Push(ctx context.Context, tag string, args ...any) (any, error)
}
