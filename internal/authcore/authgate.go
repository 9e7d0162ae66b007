// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HiveAuth Contributors

package authcore

import (
	"context"
	"log/slog"

	"github.com/hiveauth/authcore/internal/hive"
	"github.com/hiveauth/authcore/pkg/errutil"
)

// AuthGate scopes a set of user and role overlays to a single object in
// the wider system - a view, a cortex, anything that needs its own
// admin/rule overrides layered on top of the global user and role
// definitions. Unlike every other mutation in this package, AddAuthGate
// and DelAuthGate are never pushed through the replication bus: gate
// membership is local to the process that owns the gated object.
type AuthGate struct {
	iden string
	typ  string
	node hive.Node

	gateUsers map[string]*User
	gateRoles map[string]*Role
}

// Iden returns the gate's hex GUID.
func (g *AuthGate) Iden() string { return g.iden }

// Type returns the gate's caller-defined type tag.
func (g *AuthGate) Type() string { return g.typ }

// loadAuthGate reconstructs an AuthGate from its persisted node, wiring
// each recorded user/role overlay back to the live User/Role it belongs
// to. A reference to a user or role iden that no longer exists is logged
// and skipped rather than treated as fatal, mirroring the tolerant
// reconstruction behavior of the engine this was modeled on: a dangling
// gate overlay should never prevent the rest of the hive from loading.
func loadAuthGate(ctx context.Context, a *Auth, node hive.Node, logger *slog.Logger) (*AuthGate, error) {
	iden := node.Name()
	typ, _ := node.Value().(string)

	g := &AuthGate{
		iden:      iden,
		typ:       typ,
		node:      node,
		gateUsers: map[string]*User{},
		gateRoles: map[string]*Role{},
	}

	usersNode, ok, err := node.Child(ctx, "users")
	if err != nil {
		return nil, err
	}
	if ok {
		children, err := usersNode.Children(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			userIden := c.Name
			user, ok := a.usersByIden[userIden]
			if !ok {
				errutil.LogError(logger, "auth gate references unknown user, skipping", errUnknownGatePrincipal("user", iden, userIden))
				continue
			}
			ov, err := loadGateOverlay(ctx, c.Node)
			if err != nil {
				return nil, err
			}
			user.gates[iden] = ov
			g.gateUsers[userIden] = user
			user.ClearAuthCache()
		}
	}

	rolesNode, ok, err := node.Child(ctx, "roles")
	if err != nil {
		return nil, err
	}
	if ok {
		children, err := rolesNode.Children(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			roleIden := c.Name
			role, ok := a.rolesByIden[roleIden]
			if !ok {
				errutil.LogError(logger, "auth gate references unknown role, skipping", errUnknownGatePrincipal("role", iden, roleIden))
				continue
			}
			ov, err := loadGateOverlay(ctx, c.Node)
			if err != nil {
				return nil, err
			}
			role.gates[iden] = ov
			g.gateRoles[roleIden] = role
		}
	}

	return g, nil
}

func loadGateOverlay(ctx context.Context, node hive.Node) (*GateOverlay, error) {
	dict, err := node.Dict(ctx, false)
	if err != nil {
		return nil, err
	}
	ov := &GateOverlay{}
	if v, ok := dict.Get("admin"); ok {
		admin, ok := v.(bool)
		if !ok {
			return nil, errInconsistentStorage("gate overlay admin flag has unexpected shape %T", v)
		}
		ov.Admin = admin
	}
	if v, ok := dict.Get("rules"); ok {
		rules, err := decodeRulePairs(v)
		if err != nil {
			return nil, err
		}
		ov.Rules = rules
	}
	return ov, nil
}

// genUserOverlayNode returns (creating if necessary) the persisted node
// backing user's overlay on this gate.
func (g *AuthGate) genUserOverlayNode(ctx context.Context, userIden string) (hive.Node, error) {
	return g.node.Open(ctx, "users", userIden)
}

// genRoleOverlayNode returns (creating if necessary) the persisted node
// backing role's overlay on this gate.
func (g *AuthGate) genRoleOverlayNode(ctx context.Context, roleIden string) (hive.Node, error) {
	return g.node.Open(ctx, "roles", roleIden)
}

// delUser removes user's overlay from this gate, both in memory and in
// storage. It is a no-op if the user has no overlay here.
func (g *AuthGate) delUser(ctx context.Context, user *User) error {
	if _, ok := g.gateUsers[user.iden]; !ok {
		return nil
	}
	delete(g.gateUsers, user.iden)
	delete(user.gates, g.iden)
	node, ok, err := g.node.Child(ctx, "users")
	if err != nil || !ok {
		return err
	}
	child, ok, err := node.Child(ctx, user.iden)
	if err != nil || !ok {
		return err
	}
	return child.Pop(ctx)
}

// delRole removes role's overlay from this gate, both in memory and in
// storage. It is a no-op if the role has no overlay here.
func (g *AuthGate) delRole(ctx context.Context, role *Role) error {
	if _, ok := g.gateRoles[role.iden]; !ok {
		return nil
	}
	delete(g.gateRoles, role.iden)
	delete(role.gates, g.iden)
	node, ok, err := g.node.Child(ctx, "roles")
	if err != nil || !ok {
		return err
	}
	child, ok, err := node.Child(ctx, role.iden)
	if err != nil || !ok {
		return err
	}
	return child.Pop(ctx)
}

// delete tears down every overlay this gate holds and removes its
// persisted subtree. Called only from Auth.DelAuthGate, which is itself
// never replicated.
func (g *AuthGate) delete(ctx context.Context) error {
	for _, u := range g.gateUsers {
		delete(u.gates, g.iden)
		u.ClearAuthCache()
	}
	for _, r := range g.gateRoles {
		delete(r.gates, g.iden)
	}
	g.gateUsers = map[string]*User{}
	g.gateRoles = map[string]*Role{}
	return g.node.Pop(ctx)
}
