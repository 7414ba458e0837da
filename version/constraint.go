package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

// Constraint is a disjunction of version ranges: "^1.2 || ~2.0", "*",
// ">=1.0 <2.0", "1.2.3" are all valid. A Version matches the constraint iff
// it matches at least one of the disjuncts.
type Constraint struct {
	raw  string
	cons *semver.Constraints
}

// ParseConstraint parses s into a Constraint.
//
// Masterminds/semver's Constraints type already implements the comparator
// set (^, ~, >=, <=, >, <, =, x-ranges, hyphen ranges) and "||" disjunction
// this package needs, so no bespoke range grammar is maintained here.
func ParseConstraint(s string) (Constraint, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		trimmed = "*"
	}
	c, err := semver.NewConstraint(trimmed)
	if err != nil {
		return Constraint{}, phalanxerrors.Wrap(phalanxerrors.CodeInvalidConstraint, "parse constraint "+s, err)
	}
	return Constraint{raw: s, cons: c}, nil
}

// MustParseConstraint is ParseConstraint but panics on error.
func MustParseConstraint(s string) Constraint {
	c, err := ParseConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Matches reports whether v satisfies at least one disjunct of c.
func (c Constraint) Matches(v Version) bool {
	return c.cons.Check(v.sv)
}

// String returns the original constraint text.
func (c Constraint) String() string { return c.raw }

// IsExact reports whether the constraint pins a single exact version
// ("1.2.3" or "=1.2.3"), used by the resolver to order exact goals first.
func (c Constraint) IsExact() bool {
	trimmed := strings.TrimSpace(c.raw)
	trimmed = strings.TrimPrefix(trimmed, "=")
	trimmed = strings.TrimSpace(trimmed)
	if trimmed == "" || strings.ContainsAny(trimmed, "|<>^~*xX ") {
		return false
	}
	_, err := semver.NewVersion(strings.TrimPrefix(trimmed, "v"))
	return err == nil
}

// IsWildcard reports whether the constraint matches every version ("*" or
// empty).
func (c Constraint) IsWildcard() bool {
	trimmed := strings.TrimSpace(c.raw)
	return trimmed == "" || trimmed == "*"
}

// Intersect combines c and other into a constraint that requires both
// (logical AND), used by the resolver to accumulate a goal's constraint set
// as new requirers are discovered.
func Intersect(constraints ...Constraint) (Constraint, error) {
	parts := make([]string, 0, len(constraints))
	for _, c := range constraints {
		if c.raw == "" {
			continue
		}
		parts = append(parts, "("+c.raw+")")
	}
	if len(parts) == 0 {
		return ParseConstraint("*")
	}
	return ParseConstraint(strings.Join(parts, ", "))
}
