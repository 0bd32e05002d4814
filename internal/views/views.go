// Package views derives the list views a household client renders from the
// ordered item list of a snapshot.
package views

import (
	"sort"

	"github.com/mmynk/familysync/internal/models"
)

// RecentLimit is how many items the dashboard lists.
const RecentLimit = 5

// Tab is a navigation tab of the household client.
type Tab string

const (
	TabDashboard Tab = "dashboard"
	TabRoutine   Tab = "routine"
	TabShopping  Tab = "shopping"
	TabEducation Tab = "education"
	TabCalendar  Tab = "calendar"
)

// ItemType returns the item type listed on the tab. The dashboard has none.
func (t Tab) ItemType() (models.ItemType, bool) {
	switch t {
	case TabRoutine:
		return models.ItemRoutine, true
	case TabShopping:
		return models.ItemShopping, true
	case TabEducation:
		return models.ItemEducation, true
	case TabCalendar:
		return models.ItemEvent, true
	}
	return "", false
}

// DefaultItemType is the type preselected when adding an item from the tab.
func (t Tab) DefaultItemType() models.ItemType {
	if it, ok := t.ItemType(); ok {
		return it
	}
	return models.ItemRoutine
}

// SortNewestFirst orders items by CreatedAt descending. Items that have not
// been stamped yet sort last. Ties keep their relative order.
func SortNewestFirst(items []models.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].CreatedAt, items[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.After(*b)
	})
}

// FilterByType returns the items of type t, preserving order.
func FilterByType(items []models.Item, t models.ItemType) []models.Item {
	var out []models.Item
	for _, it := range items {
		if it.Type == t {
			out = append(out, it)
		}
	}
	return out
}

// Recent returns at most n items from the head of the list.
func Recent(items []models.Item, n int) []models.Item {
	if n < 0 {
		n = 0
	}
	if len(items) < n {
		n = len(items)
	}
	return items[:n]
}

// ForTab returns what the tab lists: the most recent items on the dashboard,
// the items of the tab's type elsewhere.
func ForTab(items []models.Item, tab Tab) []models.Item {
	it, ok := tab.ItemType()
	if !ok {
		return Recent(items, RecentLimit)
	}
	return FilterByType(items, it)
}

// PendingCount counts items of type t that are not completed.
func PendingCount(items []models.Item, t models.ItemType) int {
	n := 0
	for _, it := range items {
		if it.Type == t && !it.Completed {
			n++
		}
	}
	return n
}

// HasCompleted reports whether any item of type t is completed. The shopping
// tab only offers to clear the cart when this is true.
func HasCompleted(items []models.Item, t models.ItemType) bool {
	for _, it := range items {
		if it.Type == t && it.Completed {
			return true
		}
	}
	return false
}

// Dashboard summarizes a family's items for the home tab.
type Dashboard struct {
	PendingShopping int           `json:"pendingShopping"`
	PendingRoutine  int           `json:"pendingRoutine"`
	CanClearCart    bool          `json:"canClearCart"`
	Recent          []models.Item `json:"recent"`
}

// BuildDashboard computes the dashboard from items ordered newest first.
func BuildDashboard(items []models.Item) Dashboard {
	return Dashboard{
		PendingShopping: PendingCount(items, models.ItemShopping),
		PendingRoutine:  PendingCount(items, models.ItemRoutine),
		CanClearCart:    HasCompleted(items, models.ItemShopping),
		Recent:          Recent(items, RecentLimit),
	}
}
