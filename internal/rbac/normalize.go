package rbac

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeRoleName folds case and compatibility forms so "ADMIN", "Admin"
// and full-width variants compare equal.
func NormalizeRoleName(name string) string {
	// Casers keep state; one per call keeps this safe for concurrent use.
	return cases.Fold().String(norm.NFKC.String(strings.TrimSpace(name)))
}

// IsAdminRole reports whether name is the reserved admin role.
func IsAdminRole(name string) bool {
	return NormalizeRoleName(name) == AdminRole
}

// NormalizeAlias reduces a role display name to its fallback lookup form:
// folded case with whitespace and separators removed.
func NormalizeAlias(name string) string {
	folded := NormalizeRoleName(name)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsSpace(r) || r == '-' || r == '_' || r == '.' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
