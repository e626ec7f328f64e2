// Package permit decides whether an operator may mutate a block. The
// rule is ownership by company name: operators write only their own
// company's blocks, the admin writes everything, guests read only.
package permit

import "strings"

const (
	// Guest is the identity given to unauthenticated requests.
	Guest = "GUEST"
	// Admin is the reserved operator name with write access to every
	// company's blocks.
	Admin = "ADMIN"
)

// Normalize reduces a name to its comparable form: uppercase with
// every non-alphanumeric rune dropped, so "Galaxy Granites Pvt." and
// "GALAXYGRANITESPVT" compare equal.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - ('a' - 'A'))
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CanWrite reports whether operator may mutate blocks belonging to
// company. The decision uses only its inputs; it never consults
// storage.
func CanWrite(operator, company string) bool {
	op := Normalize(operator)
	switch op {
	case "", Normalize(Guest):
		return false
	case Normalize(Admin):
		return true
	}
	return op == Normalize(company)
}

// Reserved reports whether name collides with one of the fixed
// identities and therefore cannot be used for a staff member.
func Reserved(name string) bool {
	n := Normalize(name)
	return n == Guest || n == Admin
}
