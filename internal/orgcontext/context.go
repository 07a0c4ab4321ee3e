package orgcontext

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// OrgContextKey is the request context key for the active organization ID.
type OrgContextKey struct{}

// WithOrgID stores the org ID in the context.
func WithOrgID(ctx context.Context, orgID int64) context.Context {
	return context.WithValue(ctx, OrgContextKey{}, orgID)
}

// OrgIDFromContext returns the org ID from context, if set. Only the int64
// WithOrgID stores is accepted.
func OrgIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}

	value, ok := ctx.Value(OrgContextKey{}).(int64)
	if !ok {
		return 0, false
	}
	return snowflake.ID(value), true
}
