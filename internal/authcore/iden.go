// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HiveAuth Contributors

package authcore

import (
	"strings"

	"github.com/google/uuid"
)

// newIden mints a fresh random hex GUID for a user, role, or auth gate.
func newIden() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
