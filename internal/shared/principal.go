package shared

import "context"

// Role is the coarse permission class of an authenticated user.
type Role string

const (
	RoleSeller   Role = "seller"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// IsValid reports whether the role is known.
func (r Role) IsValid() bool {
	switch r {
	case RoleSeller, RoleStaff, RoleAdmin, RoleCustomer:
		return true
	default:
		return false
	}
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// IsSeller reports whether listings should be restricted to the caller's products.
func (p *Principal) IsSeller() bool {
	return p != nil && p.Role == RoleSeller
}

// HasRole reports whether the principal holds any of roles.
func (p *Principal) HasRole(roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}

// ActorID returns the principal's user id or "system" when no caller is attached.
func ActorID(ctx context.Context) string {
	if p := PrincipalFromContext(ctx); p != nil && p.UserID != "" {
		return p.UserID
	}
	return "system"
}
