// Package auth provides the caller identity model, the authorization
// guard consulted before dispatch, and a default JWT identity provider.
package auth

// Identity describes the authenticated caller of a request. A nil
// *Identity means the request is anonymous.
type Identity struct {
	Subject     string
	Permissions map[string]struct{}
}

// NewIdentity builds an identity from a subject and permission list.
func NewIdentity(subject string, permissions ...string) *Identity {
	id := &Identity{
		Subject:     subject,
		Permissions: make(map[string]struct{}, len(permissions)),
	}
	for _, p := range permissions {
		id.Permissions[p] = struct{}{}
	}
	return id
}

// Has reports whether the identity holds the given permission.
func (id *Identity) Has(permission string) bool {
	if id == nil {
		return false
	}
	_, ok := id.Permissions[permission]
	return ok
}

// PermissionList returns the granted permissions as a slice.
func (id *Identity) PermissionList() []string {
	if id == nil {
		return nil
	}
	perms := make([]string, 0, len(id.Permissions))
	for p := range id.Permissions {
		perms = append(perms, p)
	}
	return perms
}
