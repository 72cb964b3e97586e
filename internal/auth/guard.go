package auth

import (
	"strings"

	"github.com/pionia-project/pionia/internal/errors"
)

// Guard enforces authentication and permission requirements. It is
// stateless; the caller identity is passed explicitly on every check.
type Guard struct{}

// NewGuard creates a Guard.
func NewGuard() *Guard {
	return &Guard{}
}

// MustAuthenticate fails with Unauthenticated unless an identity is present.
func (g *Guard) MustAuthenticate(identity *Identity, message string) error {
	if identity == nil {
		return errors.Unauthenticated(message)
	}
	return nil
}

// Can fails with Unauthorized unless the identity holds the permission.
// An anonymous caller fails with Unauthenticated first.
func (g *Guard) Can(identity *Identity, permission string) error {
	if identity == nil {
		return errors.Unauthenticated("")
	}
	if !identity.Has(permission) {
		return errors.Unauthorized("Missing required permission %q", permission)
	}
	return nil
}

// CanAll fails with Unauthorized unless the identity's permission set
// is a superset of the required set. All listed permissions must hold.
func (g *Guard) CanAll(identity *Identity, permissions []string) error {
	if len(permissions) == 0 {
		return nil
	}
	if identity == nil {
		return errors.Unauthenticated("")
	}
	var missing []string
	for _, p := range permissions {
		if !identity.Has(p) {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return errors.Unauthorized("Missing required permissions: %s", strings.Join(missing, ", "))
	}
	return nil
}
