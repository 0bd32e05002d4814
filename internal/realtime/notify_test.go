package realtime

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mmynk/familysync/internal/models"
	"github.com/mmynk/familysync/internal/storage/sqlite"
)

func newNotifyingStore(t *testing.T) (*NotifyingStore, *Hub) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "notify.db"))
	require.NoError(t, err)
	hub := NewHub()
	t.Cleanup(func() {
		hub.Close()
		store.Close()
	})
	return NewNotifyingStore(store, hub), hub
}

func subscribe(t *testing.T, hub *Hub, topic string) Subscription {
	t.Helper()
	sub, err := hub.Subscribe(context.Background(), topic)
	require.NoError(t, err)
	t.Cleanup(func() { sub.Close() })
	return sub
}

func TestNotifyingStore_Membership(t *testing.T) {
	ctx := context.Background()
	store, hub := newNotifyingStore(t)

	aliceProfile := subscribe(t, hub, ProfileTopic("alice"))
	silva := subscribe(t, hub, FamilyTopic("SILVA2"))

	require.NoError(t, store.CreateFamily(ctx, &models.Family{ID: "SILVA2", Name: "Silva"}, "alice"))
	receives(t, aliceProfile)
	receives(t, silva)

	_, err := store.JoinFamily(ctx, "SILVA2", "bob")
	require.NoError(t, err)
	receives(t, silva)
	silent(t, aliceProfile)

	// Bob switching families drops him from Silva, which Silva's watchers see.
	require.NoError(t, store.CreateFamily(ctx, &models.Family{ID: "COSTA3", Name: "Costa"}, "bob"))
	receives(t, silva)

	left, err := store.LeaveFamily(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "SILVA2", left)
	receives(t, aliceProfile)
	receives(t, silva)
}

func TestNotifyingStore_FailedWritesStayQuiet(t *testing.T) {
	ctx := context.Background()
	store, hub := newNotifyingStore(t)
	bob := subscribe(t, hub, ProfileTopic("bob"))

	_, err := store.JoinFamily(ctx, "NOPE22", "bob")
	require.Error(t, err)
	silent(t, bob)
}

func TestNotifyingStore_Items(t *testing.T) {
	ctx := context.Background()
	store, hub := newNotifyingStore(t)
	require.NoError(t, store.CreateFamily(ctx, &models.Family{ID: "SILVA2", Name: "Silva"}, "alice"))
	items := subscribe(t, hub, ItemsTopic("SILVA2"))

	item := &models.Item{Type: models.ItemShopping, Title: "Milk", FamilyID: "SILVA2", CreatedBy: "alice"}
	require.NoError(t, store.CreateItem(ctx, item))
	receives(t, items)

	// Nothing completed yet: the batch is empty and publishes nothing.
	n, err := store.DeleteCompletedItems(ctx, "SILVA2", models.ItemShopping)
	require.NoError(t, err)
	require.Zero(t, n)
	silent(t, items)

	_, err = store.ToggleItem(ctx, "SILVA2", item.ID)
	require.NoError(t, err)
	receives(t, items)

	n, err = store.DeleteCompletedItems(ctx, "SILVA2", models.ItemShopping)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	receives(t, items)
}
