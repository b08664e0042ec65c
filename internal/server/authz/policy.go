// Package authz decides, per request path, whether authentication is
// required. The rule table is built once at startup and read-only afterwards.
package authz

import (
	"fmt"
	"strings"

	"github.com/dkolesnikov/expensio/internal/server/config"
)

// Requirement is the access level a path demands.
type Requirement int

const (
	// RequireAuthenticated paths reject requests without a principal.
	RequireAuthenticated Requirement = iota
	// RequirePublic paths are served with or without a principal.
	RequirePublic
)

// Rule binds a path pattern to a requirement. Supported patterns:
//
//	"/exact/path"   matches that path only
//	"/prefix/**"    matches the subtree under /prefix/
//	"*"             matches everything
type Rule struct {
	Pattern     string
	Requirement Requirement
}

// Policy is an ordered, first-match-wins rule table.
type Policy struct {
	rules []Rule
}

// New builds a Policy from an ordered rule list.
func New(rules []Rule) *Policy {
	return &Policy{rules: rules}
}

// FromConfig converts the configuration rule table into a Policy. Unknown
// access values are a startup error.
func FromConfig(rules []config.AuthRule) (*Policy, error) {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		switch r.Access {
		case config.AccessPublic:
			out = append(out, Rule{Pattern: r.Pattern, Requirement: RequirePublic})
		case config.AccessAuthenticated:
			out = append(out, Rule{Pattern: r.Pattern, Requirement: RequireAuthenticated})
		default:
			return nil, fmt.Errorf("auth rule %q: unknown access %q", r.Pattern, r.Access)
		}
	}
	return New(out), nil
}

// RequirementFor returns the requirement of the first matching rule.
// Paths that match no rule require authentication.
func (p *Policy) RequirementFor(path string) Requirement {
	for _, r := range p.rules {
		if matches(r.Pattern, path) {
			return r.Requirement
		}
	}
	return RequireAuthenticated
}

func matches(pattern, path string) bool {
	if pattern == "*" || pattern == path {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return false
}
