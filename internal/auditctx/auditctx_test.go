package auditctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActorRoundTrip(t *testing.T) {
	ctx := WithActor(context.Background(), Actor{Subject: "ops", IPAddress: "192.0.2.1"})

	actor, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "ops", actor.Subject)
	require.Len(t, Fields(ctx), 3)
}

func TestFromContextWithoutActor(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)
	require.Nil(t, Fields(context.Background()))

	//nolint:staticcheck
	_, ok = FromContext(nil)
	require.False(t, ok)
}

func TestWithActorNilParent(t *testing.T) {
	//nolint:staticcheck
	ctx := WithActor(nil, Actor{Subject: "ops"})
	actor, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "ops", actor.Subject)
}
