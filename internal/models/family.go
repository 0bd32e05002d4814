package models

import "time"

// Family represents a household group that members join with a shared code.
type Family struct {
	// ID is the short human-shareable join code (e.g., "X7K2QM").
	ID string `json:"id"`

	// Name is the display name of the family (e.g., "Silva").
	Name string `json:"name"`

	// Members is the list of user IDs in join order. Never contains duplicates.
	Members []string `json:"members"`

	// CreatedAt is assigned by the store when the family is created.
	CreatedAt time.Time `json:"createdAt"`
}

// HasMember reports whether userID belongs to the family.
func (f *Family) HasMember(userID string) bool {
	for _, m := range f.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// MemberCount is the number shown next to the family name. A family is never
// displayed with fewer than one member.
func (f *Family) MemberCount() int {
	if len(f.Members) == 0 {
		return 1
	}
	return len(f.Members)
}
