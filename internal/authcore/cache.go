// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HiveAuth Contributors

package authcore

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultCacheSize bounds the number of distinct (perm, default, gate)
// decisions cached per user when no WithCacheSize option is supplied.
const defaultCacheSize = 1024

// decisionCache memoizes Allowed results for a single user. The cached
// value is itself a tri-state *bool (nil meaning "no rule matched, fell
// through to the caller's default"), so a cache hit always reproduces
// exactly what a fresh evaluation would have returned.
type decisionCache struct {
	c *lru.Cache[string, *bool]
}

func newDecisionCache(size int) *decisionCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	c, err := lru.New[string, *bool](size)
	if err != nil {
		// Only returns an error for a non-positive size, already guarded above.
		panic(err)
	}
	return &decisionCache{c: c}
}

func (d *decisionCache) get(key string) (*bool, bool) {
	return d.c.Get(key)
}

func (d *decisionCache) put(key string, v *bool) {
	d.c.Add(key, v)
}

func (d *decisionCache) clear() {
	d.c.Purge()
}

// cacheKey builds a stable lookup key for (perm, def, gate). Permission
// segments are joined with a byte unlikely to appear in a permission
// segment itself, so ("foo.bar", "baz") and ("foo", "bar.baz") cannot
// collide.
func cacheKey(perm []string, def *bool, gate string) string {
	var b strings.Builder
	b.WriteString(gate)
	b.WriteByte(0)
	switch {
	case def == nil:
		b.WriteByte('?')
	case *def:
		b.WriteByte('T')
	default:
		b.WriteByte('F')
	}
	b.WriteByte(0)
	b.WriteString(strings.Join(perm, "\x1f"))
	return b.String()
}
