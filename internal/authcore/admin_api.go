// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HiveAuth Contributors

package authcore

import "context"

// SetUserAdmin grants or revokes blanket admin rights for the user
// identified by iden, optionally scoped to a gate overlay.
func (a *Auth) SetUserAdmin(ctx context.Context, iden string, admin bool, gate string) error {
	return a.SetUserInfo(ctx, iden, "admin", admin, gate)
}

// SetUserLocked locks or unlocks the user identified by iden. A locked
// user is always denied, overriding even admin.
func (a *Auth) SetUserLocked(ctx context.Context, iden string, locked bool) error {
	return a.SetUserInfo(ctx, iden, "locked", locked, "")
}

// SetUserArchived archives or unarchives the user identified by iden.
// Archiving a user also locks it; unarchiving does not automatically
// unlock it.
func (a *Auth) SetUserArchived(ctx context.Context, iden string, archived bool) error {
	return a.SetUserInfo(ctx, iden, "archived", archived, "")
}

// SetRoleAdmin sets or clears the admin flag of the role identified by
// iden, optionally scoped to a gate overlay. The flag is persisted and
// included in Pack; User.Allowed does not consult a role's admin flag.
func (a *Auth) SetRoleAdmin(ctx context.Context, iden string, admin bool, gate string) error {
	return a.SetRoleInfo(ctx, iden, "admin", admin, gate)
}
