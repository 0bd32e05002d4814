package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/familysync/internal/auth"
	"github.com/mmynk/familysync/internal/models"
	"github.com/mmynk/familysync/internal/realtime"
)

func TestFollow_RestartsOnIdentityChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := newFixture(t)
	session := auth.NewSession(auth.NewJWTManager("test-secret", time.Hour))

	ch := New(f.store, f.hub).Follow(ctx, session)

	first, err := auth.Bootstrap(ctx, session, "")
	require.NoError(t, err)
	await(t, ch, func(s models.Snapshot) bool { return s.UserID == first.UserID && settled(s) })

	second, err := session.SignInAnonymous(ctx)
	require.NoError(t, err)
	await(t, ch, func(s models.Snapshot) bool { return s.UserID == second.UserID && settled(s) })
	assert.Zero(t, f.hub.Subscribers(realtime.ProfileTopic(first.UserID)))

	session.SignOut()
	assert.Eventually(t, func() bool {
		return f.hub.Subscribers(realtime.ProfileTopic(second.UserID)) == 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	for range ch {
	}
}

func TestFollow_ClosesWithoutSession(t *testing.T) {
	f := newFixture(t)
	session := auth.NewSession(auth.NewJWTManager("test-secret", time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	ch := New(f.store, f.hub).Follow(ctx, session)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "no snapshot expected before sign-in")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestFollow_FirstSignInAfterSignOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := newFixture(t)
	session := auth.NewSession(auth.NewJWTManager("test-secret", time.Hour))
	ch := New(f.store, f.hub).Follow(ctx, session)

	first, err := session.SignInAnonymous(ctx)
	require.NoError(t, err)
	await(t, ch, func(s models.Snapshot) bool { return s.UserID == first.UserID && settled(s) })

	session.SignOut()
	session.SignOut()

	second, err := session.SignInAnonymous(ctx)
	require.NoError(t, err)
	await(t, ch, func(s models.Snapshot) bool { return s.UserID == second.UserID && settled(s) })

	cancel()
	for range ch {
	}
}
