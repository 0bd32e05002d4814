package models

// Profile holds per-user state. It is created on the first create or join and
// is never deleted; leaving a family clears FamilyID.
type Profile struct {
	// UserID is the identity provider's user identifier.
	UserID string `json:"userId"`

	// FamilyID is the code of the family the user is linked to, empty when none.
	FamilyID string `json:"familyId,omitempty"`
}

// HasFamily reports whether the profile is linked to a family.
func (p *Profile) HasFamily() bool {
	return p != nil && p.FamilyID != ""
}
