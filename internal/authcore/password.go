// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HiveAuth Contributors

package authcore

import "github.com/google/uuid"

// shadow is the persisted password record for a user: a random salt and
// the salted hash of the password the salt was paired with. This
// intentionally reproduces the legacy, non-KDF scheme the engine this was
// modeled on used for its password storage - see DESIGN.md for why a
// stronger KDF is not substituted here.
type shadow struct {
	Salt string
	Hash string
}

// passwdNamespace anchors the deterministic hash below to this package, so
// the same (salt, password) pair never collides with a GUID minted for an
// unrelated purpose elsewhere in the process.
var passwdNamespace = uuid.MustParse("b6f46d1e-6f2a-4f0b-9a2e-1f6e9c9d6a11")

// hashPasswd reproduces the host's GUID function over the tuple (salt,
// passwd): a deterministic, salted, single-round hash. uuid.NewSHA1 is a
// convenient stand-in for that GUID function, since it is itself nothing
// more than a deterministic hash of its inputs formatted as a GUID - from
// the same library newIden uses for random idens, here a name-based SHA-1
// GUID under a fixed namespace instead of a random one.
func hashPasswd(salt, passwd string) string {
	return uuid.NewSHA1(passwdNamespace, []byte(salt+"\x00"+passwd)).String()
}

// newShadow mints a fresh salt and hashes passwd against it.
func newShadow(passwd string) shadow {
	salt := newIden()
	return shadow{Salt: salt, Hash: hashPasswd(salt, passwd)}
}

// check reports whether passwd hashes to the same value under this
// shadow's salt.
func (s shadow) check(passwd string) bool {
	if s.Salt == "" {
		return false
	}
	return hashPasswd(s.Salt, passwd) == s.Hash
}

func (s shadow) pack() map[string]any {
	return map[string]any{"salt": s.Salt, "hash": s.Hash}
}

func decodeShadow(raw any) (shadow, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return shadow{}, false
	}
	salt, _ := m["salt"].(string)
	hash, _ := m["hash"].(string)
	if salt == "" || hash == "" {
		return shadow{}, false
	}
	return shadow{Salt: salt, Hash: hash}, true
}
