// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HiveAuth Contributors

package nexus

import (
	"context"
	"sync"

	"github.com/samber/oops"
)

// Mem is a synchronous, in-process Bus. Push calls every handler
// registered for a tag inline, in registration order, and returns as soon
// as one fails. It is a reference implementation only — a real deployment
// would durably log the event before fanning it out to followers — but it
// is enough to prove that N independently constructed Auth instances
// sharing a Mem converge to identical state when driven through the same
// sequence of calls.
type Mem struct {
	mu       sync.Mutex
	handlers map[string][]Handler
}

// NewMem returns an empty bus.
func NewMem() *Mem {
	return &Mem{handlers: map[string][]Handler{}}
}

func (b *Mem) Register(tag string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[tag] = append(b.handlers[tag], h)
}

func (b *Mem) Push(ctx context.Context, tag string, args ...any) (any, error) {
	b.mu.Lock()
	hs := append([]Handler(nil), b.handlers[tag]...)
	b.mu.Unlock()

	if len(hs) == 0 {
		return nil, oops.Code("NoSuchImpl").With("tag", tag).Errorf("nexus: no handler registered for tag %q", tag)
	}

	var result any
	for i, h := range hs {
		r, err := h(ctx, args)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			result = r
		}
	}
	return result, nil
}
