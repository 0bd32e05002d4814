package views

import (
	"testing"
	"time"

	"github.com/mmynk/familysync/internal/models"
)

func at(sec int64) *time.Time {
	t := time.Unix(sec, 0)
	return &t
}

func ids(items []models.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSortNewestFirst(t *testing.T) {
	tests := []struct {
		name  string
		items []models.Item
		want  []string
	}{
		{
			name: "descending by created at",
			items: []models.Item{
				{ID: "a", CreatedAt: at(10)},
				{ID: "b", CreatedAt: at(30)},
				{ID: "c", CreatedAt: at(20)},
			},
			want: []string{"b", "c", "a"},
		},
		{
			name: "unstamped items sort as oldest",
			items: []models.Item{
				{ID: "pending"},
				{ID: "old", CreatedAt: at(1)},
				{ID: "new", CreatedAt: at(2)},
			},
			want: []string{"new", "old", "pending"},
		},
		{
			name: "ties keep store order",
			items: []models.Item{
				{ID: "x", CreatedAt: at(5)},
				{ID: "y", CreatedAt: at(5)},
				{ID: "p1"},
				{ID: "p2"},
			},
			want: []string{"x", "y", "p1", "p2"},
		},
		{
			name:  "empty list",
			items: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SortNewestFirst(tt.items)
			if got := ids(tt.items); !equal(got, tt.want) {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestForTab(t *testing.T) {
	var items []models.Item
	for i, typ := range []models.ItemType{
		models.ItemShopping, models.ItemRoutine, models.ItemEvent,
		models.ItemShopping, models.ItemEducation, models.ItemRoutine, models.ItemEvent,
	} {
		items = append(items, models.Item{ID: string(rune('a' + i)), Type: typ})
	}

	if got := ForTab(items, TabDashboard); len(got) != RecentLimit {
		t.Errorf("dashboard: got %d items, want %d", len(got), RecentLimit)
	}
	if got := ids(ForTab(items, TabCalendar)); !equal(got, []string{"c", "g"}) {
		t.Errorf("calendar tab should list events, got %v", got)
	}
	if got := ids(ForTab(items, TabShopping)); !equal(got, []string{"a", "d"}) {
		t.Errorf("shopping tab: got %v", got)
	}
}

func TestTabDefaultItemType(t *testing.T) {
	tests := map[Tab]models.ItemType{
		TabDashboard: models.ItemRoutine,
		TabRoutine:   models.ItemRoutine,
		TabShopping:  models.ItemShopping,
		TabEducation: models.ItemEducation,
		TabCalendar:  models.ItemEvent,
	}
	for tab, want := range tests {
		if got := tab.DefaultItemType(); got != want {
			t.Errorf("%s: got %s, want %s", tab, got, want)
		}
	}
}

func TestBuildDashboard(t *testing.T) {
	items := []models.Item{
		{ID: "1", Type: models.ItemShopping},
		{ID: "2", Type: models.ItemShopping, Completed: true},
		{ID: "3", Type: models.ItemRoutine},
		{ID: "4", Type: models.ItemRoutine, Completed: true},
		{ID: "5", Type: models.ItemRoutine},
	}

	d := BuildDashboard(items)
	if d.PendingShopping != 1 {
		t.Errorf("PendingShopping = %d, want 1", d.PendingShopping)
	}
	if d.PendingRoutine != 2 {
		t.Errorf("PendingRoutine = %d, want 2", d.PendingRoutine)
	}
	if !d.CanClearCart {
		t.Error("expected CanClearCart with a completed shopping item")
	}
	if len(d.Recent) != 5 {
		t.Errorf("Recent = %d items, want 5", len(d.Recent))
	}

	empty := BuildDashboard(nil)
	if empty.CanClearCart || empty.PendingShopping != 0 || len(empty.Recent) != 0 {
		t.Errorf("unexpected dashboard for no items: %+v", empty)
	}
}
