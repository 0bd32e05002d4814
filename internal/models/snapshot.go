package models

// SyncStatus describes the health of a live subscription chain.
type SyncStatus string

const (
	SyncLoading     SyncStatus = "loading"
	SyncLive        SyncStatus = "live"
	SyncUnavailable SyncStatus = "unavailable"
)

// Snapshot is the read model published by the sync layer.
//
// Items are only ever populated together with the Family they belong to.
// Loading stays true until the first item load of the active family finishes,
// or until the profile turns out to have no family.
type Snapshot struct {
	UserID  string     `json:"userId"`
	Family  *Family    `json:"family,omitempty"`
	Items   []Item     `json:"items"`
	Loading bool       `json:"loading"`
	Status  SyncStatus `json:"status"`

	// Err is the last read error when Status is SyncUnavailable.
	Err error `json:"-"`
}
