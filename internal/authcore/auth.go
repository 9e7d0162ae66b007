// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HiveAuth Contributors

// Package authcore implements an authorization core: users, roles, and
// object-scoped auth gates evaluated through an ordered, prefix-matching
// rule engine, with every mutation replicated deterministically across
// instances via a nexus.Bus and persisted through a hive.Node tree.
package authcore

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hiveauth/authcore/internal/hive"
	"github.com/hiveauth/authcore/internal/nexus"
	"github.com/hiveauth/authcore/pkg/errutil"
)

// Auth is the root coordinator: it owns the user, role, and auth-gate
// tables, registers the handlers that apply replicated mutations, and owns
// the package's single coordination lock, which User's GetRoles and
// Allowed also acquire while reading those tables. Callers are expected to serialize their calls
// into an Auth - it assumes a single cooperative mutator at a time, the
// same assumption a single-threaded event loop gives the engine this was
// modeled on for free, and does not attempt fine-grained locking to claw
// back concurrent-writer safety it was never designed to offer.
type Auth struct {
	root hive.Node
	bus  nexus.Bus

	mu        sync.Mutex
	logger    *slog.Logger
	cacheSize int

	usersByIden map[string]*User
	usersByName map[string]*User
	userOrder   []string

	rolesByIden map[string]*Role
	rolesByName map[string]*Role
	roleOrder   []string

	gates map[string]*AuthGate

	allRole  *Role
	rootUser *User
}

// New constructs an Auth rooted at root, replicated through bus. It loads
// any previously persisted roles, users, and auth gates, then ensures the
// "all" role and "root" user exist (creating them on a first boot) and
// forces root into an unlocked admin state, bypassing replication: those
// two invariants hold locally and immediately regardless of whatever a
// stale or tampered store says.
func New(ctx context.Context, root hive.Node, bus nexus.Bus, opts ...Option) (*Auth, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	a := &Auth{
		root:        root,
		bus:         bus,
		logger:      o.logger,
		cacheSize:   o.cacheSize,
		usersByIden: map[string]*User{},
		usersByName: map[string]*User{},
		rolesByIden: map[string]*Role{},
		rolesByName: map[string]*Role{},
		gates:       map[string]*AuthGate{},
	}
	a.registerHandlers()

	if err := a.loadRoles(ctx); err != nil {
		return nil, err
	}
	if err := a.loadUsers(ctx); err != nil {
		return nil, err
	}
	if err := a.loadAuthGates(ctx); err != nil {
		return nil, err
	}

	if _, ok := a.rolesByName["all"]; !ok {
		if _, err := a.AddRole(ctx, "all"); err != nil {
			return nil, err
		}
	}
	a.allRole = a.rolesByName["all"]

	root_, ok := a.usersByName["root"]
	if !ok {
		u, err := a.AddUser(ctx, "root")
		if err != nil {
			return nil, err
		}
		root_ = u
	}
	a.rootUser = root_

	a.mu.Lock()
	a.rootUser.admin = true
	a.rootUser.locked = false
	a.mu.Unlock()
	if dict, err := a.rootUser.node.Dict(ctx, false); err == nil {
		_ = dict.Set(ctx, "admin", true)
		_ = dict.Set(ctx, "locked", false)
	}

	return a, nil
}

func (a *Auth) loadRoles(ctx context.Context) error {
	rolesNode, err := a.root.Open(ctx, "roles")
	if err != nil {
		return err
	}
	children, err := rolesNode.Children(ctx)
	if err != nil {
		return err
	}
	for _, c := range children {
		role, err := a.loadRoleNode(ctx, c.Node)
		if err != nil {
			return err
		}
		a.rolesByIden[role.iden] = role
		a.rolesByName[role.name] = role
		a.roleOrder = append(a.roleOrder, role.iden)
	}
	return nil
}

func (a *Auth) loadRoleNode(ctx context.Context, node hive.Node) (*Role, error) {
	iden := node.Name()
	name, _ := node.Value().(string)
	role := &Role{ruler: newRuler(iden, name), node: node, auth: a, users: map[string]*User{}}

	dict, err := node.Dict(ctx, false)
	if err != nil {
		return nil, err
	}
	if v, ok := dict.Get("admin"); ok {
		admin, ok := v.(bool)
		if !ok {
			return nil, errInconsistentStorage("role %s admin flag has unexpected shape %T", iden, v)
		}
		role.admin = admin
	}
	if v, ok := dict.Get("rules"); ok {
		rules, err := decodeRulePairs(v)
		if err != nil {
			return nil, err
		}
		role.rules = rules
	}
	return role, nil
}

func (a *Auth) loadUsers(ctx context.Context) error {
	usersNode, err := a.root.Open(ctx, "users")
	if err != nil {
		return err
	}
	children, err := usersNode.Children(ctx)
	if err != nil {
		return err
	}
	for _, c := range children {
		user, err := a.loadUserNode(ctx, c.Node)
		if err != nil {
			return err
		}
		a.usersByIden[user.iden] = user
		a.usersByName[user.name] = user
		a.userOrder = append(a.userOrder, user.iden)
	}
	// Second pass: every role this user holds now exists (or doesn't -
	// either way loadRoles already ran), so wire up the reverse
	// role.users index used for cache-cascade invalidation.
	for _, user := range a.usersByIden {
		for _, iden := range user.roles {
			if role, ok := a.rolesByIden[iden]; ok {
				role.users[user.iden] = user
			} else {
				errutil.LogError(a.logger, "user holds unknown role iden at load time", errDanglingRoleRef(user.name, iden))
			}
		}
	}
	return nil
}

func (a *Auth) loadUserNode(ctx context.Context, node hive.Node) (*User, error) {
	iden := node.Name()
	name, _ := node.Value().(string)
	user := &User{
		ruler: newRuler(iden, name),
		node:  node,
		auth:  a,
		cache: newDecisionCache(a.cacheSize),
	}

	dict, err := node.Dict(ctx, false)
	if err != nil {
		return nil, err
	}
	if v, ok := dict.Get("admin"); ok {
		admin, ok := v.(bool)
		if !ok {
			return nil, errInconsistentStorage("user %s admin flag has unexpected shape %T", iden, v)
		}
		user.admin = admin
	}
	if v, ok := dict.Get("locked"); ok {
		locked, ok := v.(bool)
		if !ok {
			return nil, errInconsistentStorage("user %s locked flag has unexpected shape %T", iden, v)
		}
		user.locked = locked
	}
	if v, ok := dict.Get("archived"); ok {
		archived, ok := v.(bool)
		if !ok {
			return nil, errInconsistentStorage("user %s archived flag has unexpected shape %T", iden, v)
		}
		user.archived = archived
	}
	if v, ok := dict.Get("rules"); ok {
		rules, err := decodeRulePairs(v)
		if err != nil {
			return nil, err
		}
		user.rules = rules
	}
	if v, ok := dict.Get("roles"); ok {
		roles, err := decodeStringPath(v)
		if err != nil {
			return nil, err
		}
		user.roles = roles
	}
	if v, ok := dict.Get("passwd"); ok {
		if s, ok := decodeShadow(v); ok {
			user.passwd = &s
		}
	}
	return user, nil
}

func (a *Auth) loadAuthGates(ctx context.Context) error {
	gatesNode, err := a.root.Open(ctx, "authgates")
	if err != nil {
		return err
	}
	children, err := gatesNode.Children(ctx)
	if err != nil {
		return err
	}
	for _, c := range children {
		g, err := loadAuthGate(ctx, a, c.Node, a.logger)
		if err != nil {
			return err
		}
		a.gates[g.iden] = g
	}
	return nil
}

// User looks up a user by iden.
func (a *Auth) User(iden string) (*User, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.usersByIden[iden]
	return u, ok
}

// UserByName looks up a user by display name.
func (a *Auth) UserByName(name string) (*User, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.usersByName[name]
	return u, ok
}

// ReqUser looks up a user by iden, returning NoSuchUser if absent.
func (a *Auth) ReqUser(iden string) (*User, error) {
	u, ok := a.User(iden)
	if !ok {
		return nil, errNoSuchUser(iden)
	}
	return u, nil
}

// ReqUserByName looks up a user by name, returning NoSuchUser if absent.
func (a *Auth) ReqUserByName(name string) (*User, error) {
	u, ok := a.UserByName(name)
	if !ok {
		return nil, errNoSuchUser(name)
	}
	return u, nil
}

// Role looks up a role by iden.
func (a *Auth) Role(iden string) (*Role, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.rolesByIden[iden]
	return r, ok
}

// RoleByName looks up a role by display name.
func (a *Auth) RoleByName(name string) (*Role, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.rolesByName[name]
	return r, ok
}

// ReqRole looks up a role by iden, returning NoSuchRole if absent.
func (a *Auth) ReqRole(iden string) (*Role, error) {
	r, ok := a.Role(iden)
	if !ok {
		return nil, errNoSuchRole(iden)
	}
	return r, nil
}

// ReqRoleByName looks up a role by name, returning NoSuchRole if absent.
func (a *Auth) ReqRoleByName(name string) (*Role, error) {
	r, ok := a.RoleByName(name)
	if !ok {
		return nil, errNoSuchRole(name)
	}
	return r, nil
}

// Users returns every user: those loaded from storage first, ordered by
// iden, then those created since, in creation order.
func (a *Auth) Users() []*User {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*User, 0, len(a.userOrder))
	for _, iden := range a.userOrder {
		out = append(out, a.usersByIden[iden])
	}
	return out
}

// Roles returns every role: those loaded from storage first, ordered by
// iden, then those created since, in creation order.
func (a *Auth) Roles() []*Role {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Role, 0, len(a.roleOrder))
	for _, iden := range a.roleOrder {
		out = append(out, a.rolesByIden[iden])
	}
	return out
}

// AuthGate looks up an auth gate by iden.
func (a *Auth) AuthGate(iden string) (*AuthGate, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	g, ok := a.gates[iden]
	return g, ok
}

// ReqAuthGate looks up an auth gate by iden, returning NoSuchAuthGate if
// absent.
func (a *Auth) ReqAuthGate(iden string) (*AuthGate, error) {
	g, ok := a.AuthGate(iden)
	if !ok {
		return nil, errNoSuchAuthGate(iden)
	}
	return g, nil
}

// RootUser returns the always-present, always-admin root user.
func (a *Auth) RootUser() *User { return a.rootUser }

// AllRole returns the always-present "all" role every user implicitly
// holds.
func (a *Auth) AllRole() *Role { return a.allRole }

// RepairDanglingRoles scans every user for role idens that no longer
// resolve to a live role - the result of storage edited by hand, or of a
// bug elsewhere having left a role deleted without revoking it everywhere
// first - and drops them, persisting the repaired role list. It returns
// the number of dangling references removed. This is not something the
// engine it was modeled on did automatically: GetRoles already tolerates
// dangling references by skipping and warning, so a dangling reference is
// never fatal to an evaluation, but over time it is worth cleaning up
// explicitly rather than only ever suppressing the symptom.
func (a *Auth) RepairDanglingRoles(ctx context.Context) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	repaired := 0
	for _, u := range a.usersByIden {
		kept := make([]string, 0, len(u.roles))
		changed := false
		for _, iden := range u.roles {
			if _, ok := a.rolesByIden[iden]; ok {
				kept = append(kept, iden)
				continue
			}
			changed = true
			repaired++
			errutil.LogError(a.logger, "repairing dangling role reference", errDanglingRoleRef(u.name, iden))
		}
		if !changed {
			continue
		}
		u.roles = kept
		dict, err := u.node.Dict(ctx, false)
		if err != nil {
			return repaired, err
		}
		if err := dict.Set(ctx, "roles", kept); err != nil {
			return repaired, err
		}
		u.ClearAuthCache()
	}
	return repaired, nil
}
