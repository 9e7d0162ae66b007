// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HiveAuth Contributors

package authcore

import "github.com/hiveauth/authcore/internal/hive"

// Role is a named, reusable bag of rules that users can hold. The "all"
// role is special: every user implicitly holds it and it cannot be
// deleted or revoked.
type Role struct {
	ruler
	node  hive.Node
	auth  *Auth
	users map[string]*User // idens of users currently holding this role, for clearAuthCache cascades
}

// Pack returns a storage-shaped snapshot of the role, suitable for
// logging or for a client to render.
func (r *Role) Pack() map[string]any {
	return map[string]any{
		"iden":  r.iden,
		"name":  r.name,
		"admin": r.admin,
		"rules": encodeRulePairs(r.rules),
	}
}

// clearAuthCache drops the decision cache of every user currently holding
// this role, since a role-level rule or admin change can change what any
// of them are allowed to do.
func (r *Role) clearAuthCache() {
	for _, u := range r.users {
		u.ClearAuthCache()
	}
}
