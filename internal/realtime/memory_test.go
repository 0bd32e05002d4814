package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receives(t *testing.T, sub Subscription) {
	t.Helper()
	select {
	case <-sub.C():
	case <-time.After(time.Second):
		t.Fatal("expected a notification")
	}
}

func silent(t *testing.T, sub Subscription) {
	t.Helper()
	select {
	case <-sub.C():
		t.Fatal("unexpected notification")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHub_PublishReachesTopicSubscribers(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	defer hub.Close()

	items, err := hub.Subscribe(ctx, ItemsTopic("X7K2QM"))
	require.NoError(t, err)
	defer items.Close()
	other, err := hub.Subscribe(ctx, ItemsTopic("OTHER1"))
	require.NoError(t, err)
	defer other.Close()

	require.NoError(t, hub.Publish(ctx, ItemsTopic("X7K2QM")))

	receives(t, items)
	silent(t, other)
}

func TestHub_CoalescesPendingSignals(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	defer hub.Close()

	sub, err := hub.Subscribe(ctx, FamilyTopic("X7K2QM"))
	require.NoError(t, err)
	defer sub.Close()

	for range 5 {
		require.NoError(t, hub.Publish(ctx, FamilyTopic("X7K2QM")))
	}

	receives(t, sub)
	silent(t, sub)
}

func TestHub_CloseSubscription(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	defer hub.Close()

	sub, err := hub.Subscribe(ctx, ProfileTopic("alice"))
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Subscribers(ProfileTopic("alice")))

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	assert.Equal(t, 0, hub.Subscribers(ProfileTopic("alice")))

	require.NoError(t, hub.Publish(ctx, ProfileTopic("alice")))
	silent(t, sub)
}

func TestHub_Closed(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	require.NoError(t, hub.Close())

	_, err := hub.Subscribe(ctx, ProfileTopic("alice"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, hub.Publish(ctx, ProfileTopic("alice")), ErrClosed)
}
