package models

import (
	"fmt"
	"time"
)

// ItemType classifies a family item.
type ItemType string

const (
	ItemRoutine   ItemType = "routine"
	ItemShopping  ItemType = "shopping"
	ItemEducation ItemType = "education"
	ItemEvent     ItemType = "event"
)

// ItemTypes lists every valid item type in display order.
var ItemTypes = []ItemType{ItemRoutine, ItemShopping, ItemEducation, ItemEvent}

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	switch t {
	case ItemRoutine, ItemShopping, ItemEducation, ItemEvent:
		return true
	}
	return false
}

// ParseItemType converts s into an ItemType.
func ParseItemType(s string) (ItemType, error) {
	t := ItemType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown item type %q", s)
	}
	return t, nil
}

// DateLayout is the calendar date format used for Item.Date.
const DateLayout = "2006-01-02"

// Item is one routine, shopping, education, or event entry of a family.
type Item struct {
	// ID is the unique identifier for the item (UUID format).
	ID string `json:"id"`

	Type  ItemType `json:"type"`
	Title string   `json:"title"`

	// Details is optional free text.
	Details string `json:"details,omitempty"`

	// Date is an optional calendar date in DateLayout. The UI asks for it on
	// education and event items, the data layer does not require it.
	Date string `json:"date,omitempty"`

	Completed bool `json:"completed"`

	// FamilyID is the code of the family that owns the item.
	FamilyID string `json:"familyId"`

	// CreatedAt is stamped by the store. Nil until the store has stamped it.
	CreatedAt *time.Time `json:"createdAt,omitempty"`

	// CreatedBy is the user ID of the member who added the item.
	CreatedBy string `json:"createdBy"`
}
