package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/familysync/internal/models"
	"github.com/mmynk/familysync/internal/storage"
)

// tickingClock returns a clock that advances one second per call so
// created_at values are distinct and ordered.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"), WithClock(tickingClock()))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_Families(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateFamily stamps, adds creator and links profile", func(t *testing.T) {
		family := &models.Family{ID: "X7K2QM", Name: "Silva"}
		if err := store.CreateFamily(ctx, family, "alice"); err != nil {
			t.Fatalf("CreateFamily failed: %v", err)
		}
		if family.CreatedAt.IsZero() {
			t.Error("Expected CreatedAt to be set")
		}

		got, err := store.GetFamily(ctx, "X7K2QM")
		if err != nil {
			t.Fatalf("GetFamily failed: %v", err)
		}
		if got.Name != "Silva" {
			t.Errorf("Name mismatch: got %s, want Silva", got.Name)
		}
		if len(got.Members) != 1 || got.Members[0] != "alice" {
			t.Errorf("Members = %v, want [alice]", got.Members)
		}

		profile, err := store.GetProfile(ctx, "alice")
		if err != nil {
			t.Fatalf("GetProfile failed: %v", err)
		}
		if profile.FamilyID != "X7K2QM" {
			t.Errorf("profile FamilyID = %q, want X7K2QM", profile.FamilyID)
		}
	})

	t.Run("CreateFamily with a taken code conflicts and writes nothing", func(t *testing.T) {
		err := store.CreateFamily(ctx, &models.Family{ID: "X7K2QM", Name: "Other"}, "mallory")
		if !errors.Is(err, storage.ErrConflict) {
			t.Fatalf("Expected ErrConflict, got %v", err)
		}
		if _, err := store.GetProfile(ctx, "mallory"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected no profile for mallory, got %v", err)
		}
	})

	t.Run("JoinFamily appends once", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			if _, err := store.JoinFamily(ctx, "X7K2QM", "bob"); err != nil {
				t.Fatalf("JoinFamily failed: %v", err)
			}
		}
		got, err := store.GetFamily(ctx, "X7K2QM")
		if err != nil {
			t.Fatalf("GetFamily failed: %v", err)
		}
		if fmt.Sprint(got.Members) != "[alice bob]" {
			t.Errorf("Members = %v, want [alice bob]", got.Members)
		}
	})

	t.Run("JoinFamily unknown code writes nothing", func(t *testing.T) {
		_, err := store.JoinFamily(ctx, "NOPE00", "carol")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
		if _, err := store.GetProfile(ctx, "carol"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected no profile for carol, got %v", err)
		}
	})

	t.Run("LeaveFamily removes membership and clears profile", func(t *testing.T) {
		left, err := store.LeaveFamily(ctx, "bob")
		if err != nil {
			t.Fatalf("LeaveFamily failed: %v", err)
		}
		if left != "X7K2QM" {
			t.Errorf("left = %q, want X7K2QM", left)
		}

		profile, err := store.GetProfile(ctx, "bob")
		if err != nil {
			t.Fatalf("GetProfile failed: %v", err)
		}
		if profile.HasFamily() {
			t.Errorf("Expected cleared profile, got %q", profile.FamilyID)
		}

		got, _ := store.GetFamily(ctx, "X7K2QM")
		if got.HasMember("bob") {
			t.Errorf("bob still in members: %v", got.Members)
		}

		again, err := store.LeaveFamily(ctx, "bob")
		if err != nil || again != "" {
			t.Errorf("second LeaveFamily = (%q, %v), want (\"\", nil)", again, err)
		}
	})

	t.Run("joining another family drops the previous membership", func(t *testing.T) {
		if err := store.CreateFamily(ctx, &models.Family{ID: "QWERTY", Name: "Costa"}, "dave"); err != nil {
			t.Fatalf("CreateFamily failed: %v", err)
		}
		if _, err := store.JoinFamily(ctx, "X7K2QM", "dave"); err != nil {
			t.Fatalf("JoinFamily failed: %v", err)
		}
		costa, _ := store.GetFamily(ctx, "QWERTY")
		if costa.HasMember("dave") {
			t.Errorf("dave still in previous family: %v", costa.Members)
		}
	})
}

func TestSQLiteStore_ConcurrentJoins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateFamily(ctx, &models.Family{ID: "ABCDEF", Name: "Lima"}, "owner"); err != nil {
		t.Fatalf("CreateFamily failed: %v", err)
	}

	const joiners = 8
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < joiners; i++ {
		user := fmt.Sprintf("user-%d", i)
		g.Go(func() error {
			_, err := store.JoinFamily(gctx, "ABCDEF", user)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent JoinFamily failed: %v", err)
	}

	family, err := store.GetFamily(ctx, "ABCDEF")
	if err != nil {
		t.Fatalf("GetFamily failed: %v", err)
	}
	if len(family.Members) != joiners+1 {
		t.Fatalf("Members = %d, want %d: %v", len(family.Members), joiners+1, family.Members)
	}
	seen := make(map[string]bool)
	for _, m := range family.Members {
		if seen[m] {
			t.Errorf("duplicate member %s", m)
		}
		seen[m] = true
	}
}

func TestSQLiteStore_Items(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateFamily(ctx, &models.Family{ID: "FAM001", Name: "Silva"}, "alice"); err != nil {
		t.Fatalf("CreateFamily failed: %v", err)
	}
	if err := store.CreateFamily(ctx, &models.Family{ID: "FAM002", Name: "Souza"}, "zoe"); err != nil {
		t.Fatalf("CreateFamily failed: %v", err)
	}

	add := func(familyID string, typ models.ItemType, title string) *models.Item {
		t.Helper()
		item := &models.Item{FamilyID: familyID, Type: typ, Title: title, CreatedBy: "alice"}
		if err := store.CreateItem(ctx, item); err != nil {
			t.Fatalf("CreateItem(%s) failed: %v", title, err)
		}
		return item
	}

	t.Run("CreateItem generates ID and timestamp", func(t *testing.T) {
		item := add("FAM001", models.ItemEvent, "Dentist")
		if item.ID == "" {
			t.Error("Expected item ID to be generated")
		}
		if item.CreatedAt == nil {
			t.Error("Expected CreatedAt to be set")
		}
		if item.Completed {
			t.Error("Expected new item to be pending")
		}
	})

	t.Run("CreateItem for unknown family fails", func(t *testing.T) {
		err := store.CreateItem(ctx, &models.Item{FamilyID: "GHOST1", Type: models.ItemRoutine, Title: "x", CreatedBy: "alice"})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("optional fields round trip", func(t *testing.T) {
		item := &models.Item{
			FamilyID: "FAM001", Type: models.ItemEducation, Title: "Science fair",
			Details: "Bring poster", Date: "2025-04-10", CreatedBy: "alice",
		}
		if err := store.CreateItem(ctx, item); err != nil {
			t.Fatalf("CreateItem failed: %v", err)
		}
		got, err := store.GetItem(ctx, "FAM001", item.ID)
		if err != nil {
			t.Fatalf("GetItem failed: %v", err)
		}
		if got.Details != "Bring poster" || got.Date != "2025-04-10" {
			t.Errorf("optional fields mismatch: %+v", got)
		}
	})

	t.Run("ToggleItem flips and flips back", func(t *testing.T) {
		item := add("FAM001", models.ItemShopping, "Milk")

		toggled, err := store.ToggleItem(ctx, "FAM001", item.ID)
		if err != nil {
			t.Fatalf("ToggleItem failed: %v", err)
		}
		if !toggled.Completed {
			t.Error("Expected completed after one toggle")
		}

		toggled, err = store.ToggleItem(ctx, "FAM001", item.ID)
		if err != nil {
			t.Fatalf("ToggleItem failed: %v", err)
		}
		if toggled.Completed {
			t.Error("Expected pending after two toggles")
		}
	})

	t.Run("item operations are scoped to the family", func(t *testing.T) {
		item := add("FAM001", models.ItemRoutine, "Feed the cat")

		if _, err := store.ToggleItem(ctx, "FAM002", item.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("ToggleItem across families: expected ErrNotFound, got %v", err)
		}
		if err := store.DeleteItem(ctx, "FAM002", item.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("DeleteItem across families: expected ErrNotFound, got %v", err)
		}
		if err := store.DeleteItem(ctx, "FAM001", item.ID); err != nil {
			t.Errorf("DeleteItem failed: %v", err)
		}
		if _, err := store.GetItem(ctx, "FAM001", item.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected deleted item to be gone, got %v", err)
		}
	})

	t.Run("ListItemsByFamily returns only that family newest first", func(t *testing.T) {
		add("FAM002", models.ItemShopping, "Other family bread")

		items, err := store.ListItemsByFamily(ctx, "FAM001")
		if err != nil {
			t.Fatalf("ListItemsByFamily failed: %v", err)
		}
		for i, it := range items {
			if it.FamilyID != "FAM001" {
				t.Errorf("item %s belongs to %s", it.Title, it.FamilyID)
			}
			if i > 0 && it.CreatedAt.After(*items[i-1].CreatedAt) {
				t.Errorf("items not newest first at %d: %v after %v", i, it.CreatedAt, items[i-1].CreatedAt)
			}
		}
	})
}

func TestSQLiteStore_DeleteCompletedItems(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"FAM001", "FAM002"} {
		if err := store.CreateFamily(ctx, &models.Family{ID: id, Name: id}, "owner-"+id); err != nil {
			t.Fatalf("CreateFamily failed: %v", err)
		}
	}

	type seed struct {
		family    string
		typ       models.ItemType
		title     string
		completed bool
	}
	seeds := []seed{
		{"FAM001", models.ItemShopping, "Milk", true},
		{"FAM001", models.ItemShopping, "Eggs", true},
		{"FAM001", models.ItemShopping, "Bread", false},
		{"FAM001", models.ItemRoutine, "Dishes", true},
		{"FAM002", models.ItemShopping, "Rice", true},
	}
	for _, sd := range seeds {
		item := &models.Item{FamilyID: sd.family, Type: sd.typ, Title: sd.title, CreatedBy: "owner"}
		if err := store.CreateItem(ctx, item); err != nil {
			t.Fatalf("CreateItem failed: %v", err)
		}
		if sd.completed {
			if _, err := store.ToggleItem(ctx, sd.family, item.ID); err != nil {
				t.Fatalf("ToggleItem failed: %v", err)
			}
		}
	}

	removed, err := store.DeleteCompletedItems(ctx, "FAM001", models.ItemShopping)
	if err != nil {
		t.Fatalf("DeleteCompletedItems failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	remaining, _ := store.ListItemsByFamily(ctx, "FAM001")
	titles := make(map[string]bool)
	for _, it := range remaining {
		titles[it.Title] = true
	}
	if titles["Milk"] || titles["Eggs"] {
		t.Errorf("completed shopping items survived: %v", titles)
	}
	if !titles["Bread"] || !titles["Dishes"] {
		t.Errorf("unrelated items removed: %v", titles)
	}

	other, _ := store.ListItemsByFamily(ctx, "FAM002")
	if len(other) != 1 {
		t.Errorf("other family's items changed: %d left", len(other))
	}

	none, err := store.DeleteCompletedItems(ctx, "FAM001", models.ItemShopping)
	if err != nil || none != 0 {
		t.Errorf("second DeleteCompletedItems = (%d, %v), want (0, nil)", none, err)
	}
}
