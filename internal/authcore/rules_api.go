// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HiveAuth Contributors

package authcore

import "context"

// SetUserRules replaces the user identified by iden's rule list (or, if
// gate is non-empty, its overlay rule list on that gate) wholesale.
func (a *Auth) SetUserRules(ctx context.Context, iden string, rules []Rule, gate string) error {
	return a.SetUserInfo(ctx, iden, "rules", cloneRules(rules), gate)
}

// AddUserRule inserts rule into the user identified by iden's rule list at
// idx (or appends, if idx is negative or past the end).
func (a *Auth) AddUserRule(ctx context.Context, iden string, rule Rule, idx int, gate string) error {
	existing, err := a.userRules(iden, gate)
	if err != nil {
		return err
	}
	return a.SetUserRules(ctx, iden, insertRule(existing, rule, idx), gate)
}

// DelUserRule removes the first rule equal to rule from the user
// identified by iden's rule list.
func (a *Auth) DelUserRule(ctx context.Context, iden string, rule Rule, gate string) error {
	existing, err := a.userRules(iden, gate)
	if err != nil {
		return err
	}
	return a.SetUserRules(ctx, iden, removeRule(existing, rule), gate)
}

func (a *Auth) userRules(iden, gate string) ([]Rule, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	user, ok := a.usersByIden[iden]
	if !ok {
		return nil, errNoSuchUser(iden)
	}
	return user.Rules(gate), nil
}

// SetRoleRules replaces the role identified by iden's rule list (or, if
// gate is non-empty, its overlay rule list on that gate) wholesale.
func (a *Auth) SetRoleRules(ctx context.Context, iden string, rules []Rule, gate string) error {
	return a.SetRoleInfo(ctx, iden, "rules", cloneRules(rules), gate)
}

// AddRoleRule inserts rule into the role identified by iden's rule list at
// idx (or appends, if idx is negative or past the end).
func (a *Auth) AddRoleRule(ctx context.Context, iden string, rule Rule, idx int, gate string) error {
	existing, err := a.roleRules(iden, gate)
	if err != nil {
		return err
	}
	return a.SetRoleRules(ctx, iden, insertRule(existing, rule, idx), gate)
}

// DelRoleRule removes the first rule equal to rule from the role
// identified by iden's rule list.
func (a *Auth) DelRoleRule(ctx context.Context, iden string, rule Rule, gate string) error {
	existing, err := a.roleRules(iden, gate)
	if err != nil {
		return err
	}
	return a.SetRoleRules(ctx, iden, removeRule(existing, rule), gate)
}

func (a *Auth) roleRules(iden, gate string) ([]Rule, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	role, ok := a.rolesByIden[iden]
	if !ok {
		return nil, errNoSuchRole(iden)
	}
	return role.Rules(gate), nil
}
