// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HiveAuth Contributors

package authcore

import (
	"context"

	"github.com/hiveauth/authcore/internal/hive"
	"github.com/hiveauth/authcore/pkg/errutil"
)

// User is a single identity: a rule bag (via the embedded ruler), a set of
// held role idens, lock/archive state, an optional password shadow, and a
// bounded decision cache. Every field mutation happens through Auth's
// replicated handlers; User's own exported methods that mutate state are
// thin wrappers delegating back to the owning Auth so callers have a
// single, consistent entry point regardless of whether they reach it via
// auth.Grant(ctx, iden, role) or user.Grant(ctx, role).
type User struct {
	ruler
	node hive.Node
	auth *Auth

	locked   bool
	archived bool
	roles    []string // role idens, in grant order
	passwd   *shadow

	cache *decisionCache
}

// Locked reports whether the user is currently locked out.
func (u *User) Locked() bool { return u.locked }

// Archived reports whether the user has been archived.
func (u *User) Archived() bool { return u.archived }

// RoleIdens returns the idens of every role the user directly holds, in
// grant order. The "all" role is included if granted, as AddUser does for
// every user it creates, root included.
func (u *User) RoleIdens() []string {
	out := make([]string, len(u.roles))
	copy(out, u.roles)
	return out
}

// GetRoles resolves the user's held role idens against the auth's role
// table. A role iden with no corresponding Role - possible after manual
// storage surgery, or a bug elsewhere - is logged and skipped rather than
// treated as fatal, so a single dangling reference cannot block every
// other permission check for the user.
func (u *User) GetRoles(ctx context.Context) []*Role {
	u.auth.mu.Lock()
	defer u.auth.mu.Unlock()
	return u.getRolesLocked(ctx)
}

// getRolesLocked is GetRoles for callers that already hold u.auth.mu, such
// as evaluate.
func (u *User) getRolesLocked(ctx context.Context) []*Role {
	out := make([]*Role, 0, len(u.roles))
	for _, iden := range u.roles {
		role, ok := u.auth.rolesByIden[iden]
		if !ok {
			errutil.LogError(u.auth.logger, "user holds unknown role iden, skipping", errDanglingRoleRef(u.name, iden))
			continue
		}
		out = append(out, role)
	}
	return out
}

// HasRole reports whether the user holds the named role.
func (u *User) HasRole(ctx context.Context, name string) bool {
	for _, r := range u.GetRoles(ctx) {
		if r.name == name {
			return true
		}
	}
	return false
}

// Grant grants the user the named role. It delegates to Auth.Grant.
func (u *User) Grant(ctx context.Context, roleName string) error {
	return u.auth.Grant(ctx, u.iden, roleName)
}

// Revoke revokes the named role from the user. It delegates to
// Auth.Revoke.
func (u *User) Revoke(ctx context.Context, roleName string) error {
	return u.auth.Revoke(ctx, u.iden, roleName)
}

// ClearAuthCache discards every cached decision for the user. Called
// whenever a rule, admin flag, lock state, role grant, or gate overlay
// that could affect this user's decisions changes.
func (u *User) ClearAuthCache() {
	u.cache.clear()
}

// TryPasswd reports whether passwd matches the user's stored password. A
// locked user, or a user with no password set, always fails.
func (u *User) TryPasswd(passwd string) bool {
	if u.locked {
		return false
	}
	if passwd == "" || u.passwd == nil {
		return false
	}
	return u.passwd.check(passwd)
}

// Allowed evaluates whether the user may perform perm, optionally scoped
// to a gate, falling back to def when no rule anywhere in the precedence
// chain matches. A nil def (and no matching rule) yields a nil result:
// "no opinion," left for the caller to resolve however it sees fit.
//
// Precedence, highest first:
//  1. locked          -> deny
//  2. global admin     -> allow
//  3. gate admin overlay -> allow
//  4. gate rule overlay (first matching rule)
//  5. global user rules (first matching rule)
//  6. each held role's gate rule overlay, in grant order
//  7. each held role's global rules, in grant order
//  8. def
func (u *User) Allowed(ctx context.Context, perm []string, def *bool, gate string) *bool {
	key := cacheKey(perm, def, gate)
	if v, ok := u.cache.get(key); ok {
		cacheHitsTotal.Inc()
		recordVerdict(v)
		return v
	}
	cacheMissesTotal.Inc()

	u.auth.mu.Lock()
	v := u.evaluate(ctx, perm, def, gate)
	u.auth.mu.Unlock()
	u.cache.put(key, v)
	recordVerdict(v)
	return v
}

func (u *User) evaluate(ctx context.Context, perm []string, def *bool, gate string) *bool {
	if u.locked {
		return boolPtr(false)
	}
	if u.admin {
		return boolPtr(true)
	}

	if gate != "" {
		if ov := u.gates[gate]; ov != nil {
			if ov.Admin {
				return boolPtr(true)
			}
			if v, ok := matchRules(ov.Rules, perm); ok {
				return boolPtr(v)
			}
		}
	}

	if v, ok := matchRules(u.rules, perm); ok {
		return boolPtr(v)
	}

	roles := u.getRolesLocked(ctx)

	if gate != "" {
		for _, role := range roles {
			if ov := role.gates[gate]; ov != nil {
				if v, ok := matchRules(ov.Rules, perm); ok {
					return boolPtr(v)
				}
			}
		}
	}

	for _, role := range roles {
		if v, ok := matchRules(role.rules, perm); ok {
			return boolPtr(v)
		}
	}

	return def
}

// Confirm is Allowed with an implicit false default, raising AuthDeny
// instead of returning false.
func (u *User) Confirm(ctx context.Context, perm []string, gate string) error {
	deny := false
	v := u.Allowed(ctx, perm, &deny, gate)
	if v == nil || !*v {
		return u.raisePermDeny(perm, gate)
	}
	return nil
}

// raisePermDeny builds the AuthDeny for a failed Confirm. When gate is
// given it is resolved first - the original's raisePermDeny fails loudly
// with NoSuchAuthGate if the gate no longer exists, rather than denying
// silently on a now-meaningless scope - and the gate's iden and type are
// named in the resulting message.
func (u *User) raisePermDeny(perm []string, gate string) error {
	if gate == "" {
		return errAuthDeny(u.name, perm, "", "")
	}
	g, err := u.auth.ReqAuthGate(gate)
	if err != nil {
		return err
	}
	return errAuthDeny(u.name, perm, g.iden, g.typ)
}

func matchRules(rules []Rule, perm []string) (bool, bool) {
	for _, r := range rules {
		if r.Matches(perm) {
			return r.Allow, true
		}
	}
	return false, false
}

func boolPtr(b bool) *bool { return &b }
