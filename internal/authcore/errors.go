// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HiveAuth Contributors

package authcore

import "github.com/samber/oops"

// Error codes returned by this package, surfaced via oops.AsOops(err).Code().
const (
	CodeNoSuchUser          = "NoSuchUser"
	CodeNoSuchRole          = "NoSuchRole"
	CodeNoSuchAuthGate      = "NoSuchAuthGate"
	CodeDupUserName         = "DupUserName"
	CodeDupRoleName         = "DupRoleName"
	CodeCantDelRootUser     = "CantDelRootUser"
	CodeCantDelAllRole      = "CantDelAllRole"
	CodeCantRevokeAllRole   = "CantRevokeAllRole"
	CodeInconsistentStorage = "InconsistentStorage"
	CodeAuthDeny            = "AuthDeny"
	CodeBadArg              = "BadArg"
	CodeNoSuchImpl          = "NoSuchImpl"
)

func errNoSuchUser(ref string) error {
	return oops.Code(CodeNoSuchUser).With("iden_or_name", ref).Errorf("no such user: %s", ref)
}

func errNoSuchRole(ref string) error {
	return oops.Code(CodeNoSuchRole).With("iden_or_name", ref).Errorf("no such role: %s", ref)
}

func errNoSuchAuthGate(iden string) error {
	return oops.Code(CodeNoSuchAuthGate).With("iden", iden).Errorf("no such auth gate: %s", iden)
}

func errDupUserName(name string) error {
	return oops.Code(CodeDupUserName).With("name", name).Errorf("a user named %q already exists", name)
}

func errDupRoleName(name string) error {
	return oops.Code(CodeDupRoleName).With("name", name).Errorf("a role named %q already exists", name)
}

func errCantDelRootUser() error {
	return oops.Code(CodeCantDelRootUser).Errorf("the root user may not be deleted")
}

func errCantDelAllRole() error {
	return oops.Code(CodeCantDelAllRole).Errorf("the all role may not be deleted")
}

func errCantRevokeAllRole() error {
	return oops.Code(CodeCantRevokeAllRole).Errorf("the all role may not be revoked")
}

func errInconsistentStorage(format string, args ...any) error {
	return oops.Code(CodeInconsistentStorage).Errorf(format, args...)
}

// errDanglingRoleRef reports a user holding a role iden with no
// corresponding live role - tolerated, never fatal, but worth logging.
func errDanglingRoleRef(userName, roleIden string) error {
	return oops.Code(CodeInconsistentStorage).
		With("user", userName).With("role_iden", roleIden).
		Errorf("user %q holds unknown role iden %q", userName, roleIden)
}

// errUnknownGatePrincipal reports an auth gate overlay referencing a user
// or role iden with no corresponding live principal.
func errUnknownGatePrincipal(kind, gateIden, principalIden string) error {
	return oops.Code(CodeInconsistentStorage).
		With("gate", gateIden).With("kind", kind).With("iden", principalIden).
		Errorf("auth gate %q references unknown %s %q", gateIden, kind, principalIden)
}

// errAuthDeny reports userName's denial of perm. When gateIden is non-empty
// the message and context name the gate too, matching the original's
// raisePermDeny behavior of naming the object a gate-scoped deny happened
// against.
func errAuthDeny(userName string, perm []string, gateIden, gateType string) error {
	b := oops.Code(CodeAuthDeny).With("user", userName).With("perm", perm)
	if gateIden == "" {
		return b.Errorf("user %q must have permission %v", userName, perm)
	}
	return b.With("gate", gateIden).With("gate_type", gateType).
		Errorf("user %q must have permission %v on object %s (%s)", userName, perm, gateIden, gateType)
}

func errBadArg(format string, args ...any) error {
	return oops.Code(CodeBadArg).Errorf(format, args...)
}

func errNoSuchImpl(format string, args ...any) error {
	return oops.Code(CodeNoSuchImpl).Errorf(format, args...)
}
