package rbac

import "context"

type authorizationContextKey struct{}

// ContextWithAuthorization stores the resolved context for downstream handlers.
func ContextWithAuthorization(ctx context.Context, ac AuthorizationContext) context.Context {
	return context.WithValue(ctx, authorizationContextKey{}, ac)
}

// AuthorizationFromContext returns the context resolved for this request.
func AuthorizationFromContext(ctx context.Context) (AuthorizationContext, bool) {
	ac, ok := ctx.Value(authorizationContextKey{}).(AuthorizationContext)
	return ac, ok
}
