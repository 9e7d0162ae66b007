// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HiveAuth Contributors

package authcore

import "context"

// Replication tags. Every mutation below except AddAuthGate/DelAuthGate
// is pushed under one of these.
const (
	tagUserAdd  = "user:add"
	tagUserDel  = "user:del"
	tagUserName = "user:name"
	tagUserInfo = "user:info"
	tagRoleAdd  = "role:add"
	tagRoleDel  = "role:del"
	tagRoleName = "role:name"
	tagRoleInfo = "role:info"
)

func (a *Auth) registerHandlers() {
	a.bus.Register(tagUserAdd, a.hndlUserAdd)
	a.bus.Register(tagUserDel, a.hndlUserDel)
	a.bus.Register(tagUserName, a.hndlUserName)
	a.bus.Register(tagUserInfo, a.hndlUserInfo)
	a.bus.Register(tagRoleAdd, a.hndlRoleAdd)
	a.bus.Register(tagRoleDel, a.hndlRoleDel)
	a.bus.Register(tagRoleName, a.hndlRoleName)
	a.bus.Register(tagRoleInfo, a.hndlRoleInfo)
}

// ---- users ----

// AddUser creates a new user named name, grants it the "all" role, and
// returns it. The iden is minted once by the caller and carried through
// the replicated event so every replica assigns the identical iden.
func (a *Auth) AddUser(ctx context.Context, name string) (*User, error) {
	if name == "" {
		return nil, errBadArg("user name must not be empty")
	}
	iden := newIden()
	res, err := a.bus.Push(ctx, tagUserAdd, iden, name)
	if err != nil {
		return nil, err
	}
	user := res.(*User)
	if err := a.Grant(ctx, user.iden, "all"); err != nil {
		return nil, err
	}
	return user, nil
}

func (a *Auth) hndlUserAdd(ctx context.Context, args []any) (any, error) {
	iden, _ := args[0].(string)
	name, _ := args[1].(string)

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.usersByName[name]; ok {
		return nil, errDupUserName(name)
	}
	node, err := a.root.Open(ctx, "users", iden)
	if err != nil {
		return nil, err
	}
	if err := node.Set(ctx, name); err != nil {
		return nil, err
	}
	user := &User{ruler: newRuler(iden, name), node: node, auth: a, cache: newDecisionCache(a.cacheSize)}
	a.usersByIden[iden] = user
	a.usersByName[name] = user
	a.userOrder = append(a.userOrder, iden)
	mutationsTotal.WithLabelValues(tagUserAdd).Inc()
	return user, nil
}

// DelUser removes name's user entirely: every gate overlay it holds, its
// role memberships, and its persisted node. The root user may never be
// deleted.
func (a *Auth) DelUser(ctx context.Context, name string) error {
	_, err := a.bus.Push(ctx, tagUserDel, name)
	return err
}

func (a *Auth) hndlUserDel(ctx context.Context, args []any) (any, error) {
	name, _ := args[0].(string)

	a.mu.Lock()
	defer a.mu.Unlock()

	if name == "root" {
		return nil, errCantDelRootUser()
	}
	user, ok := a.usersByName[name]
	if !ok {
		return nil, errNoSuchUser(name)
	}
	for _, g := range a.gates {
		if err := g.delUser(ctx, user); err != nil {
			return nil, err
		}
	}
	for _, iden := range user.roles {
		if role, ok := a.rolesByIden[iden]; ok {
			delete(role.users, user.iden)
		}
	}
	delete(a.usersByIden, user.iden)
	delete(a.usersByName, user.name)
	a.userOrder = removeStr(a.userOrder, user.iden)
	if err := user.node.Pop(ctx); err != nil {
		return nil, err
	}
	mutationsTotal.WithLabelValues(tagUserDel).Inc()
	return nil, nil
}

// SetUserName renames the user identified by iden.
func (a *Auth) SetUserName(ctx context.Context, iden, name string) error {
	if name == "" {
		return errBadArg("user name must not be empty")
	}
	_, err := a.bus.Push(ctx, tagUserName, iden, name)
	return err
}

func (a *Auth) hndlUserName(ctx context.Context, args []any) (any, error) {
	iden, _ := args[0].(string)
	name, _ := args[1].(string)

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.usersByName[name]; ok {
		return nil, errDupUserName(name)
	}
	user, ok := a.usersByIden[iden]
	if !ok {
		return nil, errNoSuchUser(iden)
	}
	if err := user.node.Set(ctx, name); err != nil {
		return nil, err
	}
	delete(a.usersByName, user.name)
	user.name = name
	a.usersByName[name] = user
	mutationsTotal.WithLabelValues(tagUserName).Inc()
	return nil, nil
}

// SetUserInfo sets a single attribute (admin, locked, archived, rules,
// roles, or passwd) on the user identified by iden, optionally scoped to
// a gate overlay (gate-scoped attributes are limited to admin and rules).
func (a *Auth) SetUserInfo(ctx context.Context, iden, key string, value any, gate string) error {
	_, err := a.bus.Push(ctx, tagUserInfo, iden, key, value, gate)
	return err
}

func (a *Auth) hndlUserInfo(ctx context.Context, args []any) (any, error) {
	iden, _ := args[0].(string)
	key, _ := args[1].(string)
	value := args[2]
	gate, _ := args[3].(string)

	a.mu.Lock()
	defer a.mu.Unlock()

	user, ok := a.usersByIden[iden]
	if !ok {
		return nil, errNoSuchUser(iden)
	}
	if err := a.applyUserInfo(ctx, user, key, value, gate); err != nil {
		return nil, err
	}
	mutationsTotal.WithLabelValues(tagUserInfo).Inc()
	return nil, nil
}

func (a *Auth) applyUserInfo(ctx context.Context, user *User, key string, value any, gate string) error {
	if gate == "" {
		dict, err := user.node.Dict(ctx, false)
		if err != nil {
			return err
		}
		switch key {
		case "admin":
			b, ok := value.(bool)
			if !ok {
				return errBadArg("admin value must be bool, got %T", value)
			}
			if err := dict.Set(ctx, "admin", b); err != nil {
				return err
			}
			user.admin = b
		case "locked":
			b, ok := value.(bool)
			if !ok {
				return errBadArg("locked value must be bool, got %T", value)
			}
			if err := dict.Set(ctx, "locked", b); err != nil {
				return err
			}
			user.locked = b
		case "archived":
			b, ok := value.(bool)
			if !ok {
				return errBadArg("archived value must be bool, got %T", value)
			}
			if err := dict.Set(ctx, "archived", b); err != nil {
				return err
			}
			user.archived = b
			if b {
				user.locked = true
				if err := dict.Set(ctx, "locked", true); err != nil {
					return err
				}
			}
		case "roles":
			roles, err := decodeStringPath(value)
			if err != nil {
				return err
			}
			if err := dict.Set(ctx, "roles", roles); err != nil {
				return err
			}
			a.reconcileRoleMembership(user, user.roles, roles)
			user.roles = roles
		case "rules":
			rules, err := decodeRulePairs(value)
			if err != nil {
				return err
			}
			if err := dict.Set(ctx, "rules", encodeRulePairs(rules)); err != nil {
				return err
			}
			user.rules = rules
		case "passwd":
			s, ok := value.(shadow)
			if !ok {
				return errBadArg("passwd value must be a shadow, got %T", value)
			}
			if err := dict.Set(ctx, "passwd", s.pack()); err != nil {
				return err
			}
			user.passwd = &s
		default:
			return errBadArg("unknown user info key %q", key)
		}
		user.ClearAuthCache()
		return nil
	}

	g, ok := a.gates[gate]
	if !ok {
		return errNoSuchAuthGate(gate)
	}
	node, err := g.genUserOverlayNode(ctx, user.iden)
	if err != nil {
		return err
	}
	dict, err := node.Dict(ctx, false)
	if err != nil {
		return err
	}
	ov := user.gates[gate]
	if ov == nil {
		ov = &GateOverlay{}
		user.gates[gate] = ov
		g.gateUsers[user.iden] = user
	}
	switch key {
	case "admin":
		b, ok := value.(bool)
		if !ok {
			return errBadArg("admin value must be bool, got %T", value)
		}
		if err := dict.Set(ctx, "admin", b); err != nil {
			return err
		}
		ov.Admin = b
	case "rules":
		rules, err := decodeRulePairs(value)
		if err != nil {
			return err
		}
		if err := dict.Set(ctx, "rules", encodeRulePairs(rules)); err != nil {
			return err
		}
		ov.Rules = rules
	default:
		return errBadArg("unknown gate-scoped user info key %q", key)
	}
	user.ClearAuthCache()
	return nil
}

func (a *Auth) reconcileRoleMembership(user *User, oldRoles, newRoles []string) {
	for _, iden := range oldRoles {
		if containsStr(newRoles, iden) {
			continue
		}
		if role, ok := a.rolesByIden[iden]; ok {
			delete(role.users, user.iden)
		}
	}
	for _, iden := range newRoles {
		if containsStr(oldRoles, iden) {
			continue
		}
		if role, ok := a.rolesByIden[iden]; ok {
			role.users[user.iden] = user
		}
	}
}

// Grant grants the user identified by userIden the named role. It is a
// no-op if the user already holds the role.
func (a *Auth) Grant(ctx context.Context, userIden, roleName string) error {
	a.mu.Lock()
	user, ok := a.usersByIden[userIden]
	if !ok {
		a.mu.Unlock()
		return errNoSuchUser(userIden)
	}
	role, ok := a.rolesByName[roleName]
	if !ok {
		a.mu.Unlock()
		return errNoSuchRole(roleName)
	}
	if containsStr(user.roles, role.iden) {
		a.mu.Unlock()
		return nil
	}
	newRoles := append(cloneStrs(user.roles), role.iden)
	a.mu.Unlock()

	return a.SetUserInfo(ctx, userIden, "roles", newRoles, "")
}

// Revoke revokes the named role from the user identified by userIden. The
// "all" role may never be revoked. It is a no-op if the user does not
// hold the role.
func (a *Auth) Revoke(ctx context.Context, userIden, roleName string) error {
	if roleName == "all" {
		return errCantRevokeAllRole()
	}
	a.mu.Lock()
	user, ok := a.usersByIden[userIden]
	if !ok {
		a.mu.Unlock()
		return errNoSuchUser(userIden)
	}
	role, ok := a.rolesByName[roleName]
	if !ok {
		a.mu.Unlock()
		return errNoSuchRole(roleName)
	}
	if !containsStr(user.roles, role.iden) {
		a.mu.Unlock()
		return nil
	}
	newRoles := removeStr(cloneStrs(user.roles), role.iden)
	a.mu.Unlock()

	return a.SetUserInfo(ctx, userIden, "roles", newRoles, "")
}

// SetPasswd sets the user identified by iden's password.
func (a *Auth) SetPasswd(ctx context.Context, iden, passwd string) error {
	if passwd == "" {
		return errBadArg("password must not be empty")
	}
	return a.SetUserInfo(ctx, iden, "passwd", newShadow(passwd), "")
}

// ---- roles ----

// AddRole creates a new role named name and returns it.
func (a *Auth) AddRole(ctx context.Context, name string) (*Role, error) {
	if name == "" {
		return nil, errBadArg("role name must not be empty")
	}
	iden := newIden()
	res, err := a.bus.Push(ctx, tagRoleAdd, iden, name)
	if err != nil {
		return nil, err
	}
	return res.(*Role), nil
}

func (a *Auth) hndlRoleAdd(ctx context.Context, args []any) (any, error) {
	iden, _ := args[0].(string)
	name, _ := args[1].(string)

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.rolesByName[name]; ok {
		return nil, errDupRoleName(name)
	}
	node, err := a.root.Open(ctx, "roles", iden)
	if err != nil {
		return nil, err
	}
	if err := node.Set(ctx, name); err != nil {
		return nil, err
	}
	role := &Role{ruler: newRuler(iden, name), node: node, auth: a, users: map[string]*User{}}
	a.rolesByIden[iden] = role
	a.rolesByName[name] = role
	a.roleOrder = append(a.roleOrder, iden)
	mutationsTotal.WithLabelValues(tagRoleAdd).Inc()
	return role, nil
}

// DelRole deletes the named role: it is revoked from every user holding
// it, removed from every gate overlay, and its persisted node popped. The
// "all" role may never be deleted.
func (a *Auth) DelRole(ctx context.Context, name string) error {
	_, err := a.bus.Push(ctx, tagRoleDel, name)
	return err
}

func (a *Auth) hndlRoleDel(ctx context.Context, args []any) (any, error) {
	name, _ := args[0].(string)

	a.mu.Lock()
	defer a.mu.Unlock()

	if name == "all" {
		return nil, errCantDelAllRole()
	}
	role, ok := a.rolesByName[name]
	if !ok {
		return nil, errNoSuchRole(name)
	}
	for _, g := range a.gates {
		if err := g.delRole(ctx, role); err != nil {
			return nil, err
		}
	}
	for _, u := range role.users {
		u.roles = removeStr(u.roles, role.iden)
		if dict, err := u.node.Dict(ctx, false); err == nil {
			if err := dict.Set(ctx, "roles", u.roles); err != nil {
				return nil, err
			}
		}
		u.ClearAuthCache()
	}
	delete(a.rolesByIden, role.iden)
	delete(a.rolesByName, role.name)
	a.roleOrder = removeStr(a.roleOrder, role.iden)
	if err := role.node.Pop(ctx); err != nil {
		return nil, err
	}
	mutationsTotal.WithLabelValues(tagRoleDel).Inc()
	return nil, nil
}

// SetRoleName renames the role identified by iden.
func (a *Auth) SetRoleName(ctx context.Context, iden, name string) error {
	if name == "" {
		return errBadArg("role name must not be empty")
	}
	_, err := a.bus.Push(ctx, tagRoleName, iden, name)
	return err
}

func (a *Auth) hndlRoleName(ctx context.Context, args []any) (any, error) {
	iden, _ := args[0].(string)
	name, _ := args[1].(string)

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.rolesByName[name]; ok {
		return nil, errDupRoleName(name)
	}
	role, ok := a.rolesByIden[iden]
	if !ok {
		return nil, errNoSuchRole(iden)
	}
	if err := role.node.Set(ctx, name); err != nil {
		return nil, err
	}
	delete(a.rolesByName, role.name)
	role.name = name
	a.rolesByName[name] = role
	mutationsTotal.WithLabelValues(tagRoleName).Inc()
	return nil, nil
}

// SetRoleInfo sets a single attribute (admin or rules) on the role
// identified by iden, optionally scoped to a gate overlay. Setting either
// attribute clears the decision cache of every user currently holding the
// role.
func (a *Auth) SetRoleInfo(ctx context.Context, iden, key string, value any, gate string) error {
	_, err := a.bus.Push(ctx, tagRoleInfo, iden, key, value, gate)
	return err
}

func (a *Auth) hndlRoleInfo(ctx context.Context, args []any) (any, error) {
	iden, _ := args[0].(string)
	key, _ := args[1].(string)
	value := args[2]
	gate, _ := args[3].(string)

	a.mu.Lock()
	defer a.mu.Unlock()

	role, ok := a.rolesByIden[iden]
	if !ok {
		return nil, errNoSuchRole(iden)
	}
	if err := a.applyRoleInfo(ctx, role, key, value, gate); err != nil {
		return nil, err
	}
	mutationsTotal.WithLabelValues(tagRoleInfo).Inc()
	return nil, nil
}

func (a *Auth) applyRoleInfo(ctx context.Context, role *Role, key string, value any, gate string) error {
	if gate == "" {
		dict, err := role.node.Dict(ctx, false)
		if err != nil {
			return err
		}
		switch key {
		case "admin":
			b, ok := value.(bool)
			if !ok {
				return errBadArg("admin value must be bool, got %T", value)
			}
			if err := dict.Set(ctx, "admin", b); err != nil {
				return err
			}
			role.admin = b
		case "rules":
			rules, err := decodeRulePairs(value)
			if err != nil {
				return err
			}
			if err := dict.Set(ctx, "rules", encodeRulePairs(rules)); err != nil {
				return err
			}
			role.rules = rules
		default:
			return errBadArg("unknown role info key %q", key)
		}
		role.clearAuthCache()
		return nil
	}

	g, ok := a.gates[gate]
	if !ok {
		return errNoSuchAuthGate(gate)
	}
	node, err := g.genRoleOverlayNode(ctx, role.iden)
	if err != nil {
		return err
	}
	dict, err := node.Dict(ctx, false)
	if err != nil {
		return err
	}
	ov := role.gates[gate]
	if ov == nil {
		ov = &GateOverlay{}
		role.gates[gate] = ov
		g.gateRoles[role.iden] = role
	}
	switch key {
	case "admin":
		b, ok := value.(bool)
		if !ok {
			return errBadArg("admin value must be bool, got %T", value)
		}
		if err := dict.Set(ctx, "admin", b); err != nil {
			return err
		}
		ov.Admin = b
	case "rules":
		rules, err := decodeRulePairs(value)
		if err != nil {
			return err
		}
		if err := dict.Set(ctx, "rules", encodeRulePairs(rules)); err != nil {
			return err
		}
		ov.Rules = rules
	default:
		return errBadArg("unknown gate-scoped role info key %q", key)
	}
	role.clearAuthCache()
	return nil
}

// ---- auth gates ----

// AddAuthGate creates (or, if it already exists with the same type,
// returns) the auth gate identified by iden. Unlike every mutation above,
// this is never pushed through the replication bus: gate membership is
// local to the process that owns the gated object.
func (a *Auth) AddAuthGate(ctx context.Context, iden, typ string) (*AuthGate, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if g, ok := a.gates[iden]; ok {
		if g.typ != typ {
			return nil, errInconsistentStorage("auth gate %s already exists with type %q, not %q", iden, g.typ, typ)
		}
		return g, nil
	}
	node, err := a.root.Open(ctx, "authgates", iden)
	if err != nil {
		return nil, err
	}
	if err := node.Set(ctx, typ); err != nil {
		return nil, err
	}
	g := &AuthGate{iden: iden, typ: typ, node: node, gateUsers: map[string]*User{}, gateRoles: map[string]*Role{}}
	a.gates[iden] = g
	return g, nil
}

// DelAuthGate deletes the auth gate identified by iden, tearing down every
// overlay it holds. Like AddAuthGate, this is never replicated.
func (a *Auth) DelAuthGate(ctx context.Context, iden string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	g, ok := a.gates[iden]
	if !ok {
		return errNoSuchAuthGate(iden)
	}
	if err := g.delete(ctx); err != nil {
		return err
	}
	delete(a.gates, iden)
	return nil
}
