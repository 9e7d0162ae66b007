// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HiveAuth Contributors

package authcore

import "strings"

// Rule is a single allow/deny line in a user's or role's rule list. Path is
// a permission prefix: ("node", "add") matches the exact permission
// ("node", "add") as well as any longer permission beginning with it, such
// as ("node", "add", "inet:ipv4"). An empty Path matches every permission
// and is typically used as a role's catch-all.
type Rule struct {
	Allow bool
	Path  []string
}

// Matches reports whether perm is covered by r's prefix.
func (r Rule) Matches(perm []string) bool {
	if len(r.Path) > len(perm) {
		return false
	}
	for i, seg := range r.Path {
		if perm[i] != seg {
			return false
		}
	}
	return true
}

func (r Rule) String() string {
	verb := "allow"
	if !r.Allow {
		verb = "deny"
	}
	return verb + "(" + strings.Join(r.Path, ".") + ")"
}

// cloneRules returns a shallow copy safe to hand to a caller or store
// without aliasing the ruler's backing array.
func cloneRules(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// decodeRulePairs converts the wire/storage representation of a rule list
// - pairs of (allow bool, path []string) - into Rules. It tolerates the
// loosely typed values that come back out of a hive.Dict (e.g. []any
// instead of []string) so that rule lists round-trip through storage
// backends that do not preserve concrete slice types.
func decodeRulePairs(raw any) ([]Rule, error) {
	items, ok := raw.([]any)
	if !ok {
		if asRules, ok := raw.([]Rule); ok {
			return cloneRules(asRules), nil
		}
		return nil, errInconsistentStorage("rule list has unexpected shape %T", raw)
	}
	out := make([]Rule, 0, len(items))
	for _, item := range items {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			return nil, errInconsistentStorage("rule entry has unexpected shape %T", item)
		}
		allow, ok := pair[0].(bool)
		if !ok {
			return nil, errInconsistentStorage("rule allow flag has unexpected shape %T", pair[0])
		}
		path, err := decodeStringPath(pair[1])
		if err != nil {
			return nil, err
		}
		out = append(out, Rule{Allow: allow, Path: path})
	}
	return out, nil
}

func decodeStringPath(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, seg := range v {
			s, ok := seg.(string)
			if !ok {
				return nil, errInconsistentStorage("rule path segment has unexpected shape %T", seg)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, errInconsistentStorage("rule path has unexpected shape %T", raw)
	}
}

func encodeRulePairs(rules []Rule) []any {
	out := make([]any, 0, len(rules))
	for _, r := range rules {
		out = append(out, []any{r.Allow, r.Path})
	}
	return out
}

func rulesEqual(a, b Rule) bool {
	if a.Allow != b.Allow || len(a.Path) != len(b.Path) {
		return false
	}
	for i := range a.Path {
		if a.Path[i] != b.Path[i] {
			return false
		}
	}
	return true
}

// insertRule returns a copy of rules with rule inserted at idx. An idx
// outside [0, len(rules)], including the -1 sentinel, appends.
func insertRule(rules []Rule, rule Rule, idx int) []Rule {
	if idx < 0 || idx > len(rules) {
		idx = len(rules)
	}
	out := make([]Rule, 0, len(rules)+1)
	out = append(out, rules[:idx]...)
	out = append(out, rule)
	out = append(out, rules[idx:]...)
	return out
}

// removeRule returns a copy of rules with the first rule equal to target
// removed. It is a no-op if no rule matches.
func removeRule(rules []Rule, target Rule) []Rule {
	out := make([]Rule, 0, len(rules))
	removed := false
	for _, r := range rules {
		if !removed && rulesEqual(r, target) {
			removed = true
			continue
		}
		out = append(out, r)
	}
	return out
}
