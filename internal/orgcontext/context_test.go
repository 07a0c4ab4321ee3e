package orgcontext

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
)

func TestOrgIDRoundTrip(t *testing.T) {
	ctx := WithOrgID(context.Background(), 42)

	got, ok := OrgIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, snowflake.ID(42), got)
}

func TestOrgIDFromContext_Missing(t *testing.T) {
	_, ok := OrgIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = OrgIDFromContext(nil)
	assert.False(t, ok)
}

func TestOrgIDFromContext_RejectsForeignTypes(t *testing.T) {
	// Only WithOrgID writes this key; anything else under it is a bug,
	// not something to coerce.
	ctx := context.WithValue(context.Background(), OrgContextKey{}, "42")
	_, ok := OrgIDFromContext(ctx)
	assert.False(t, ok)
}
