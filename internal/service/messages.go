package service

import (
	"github.com/mmynk/familysync/internal/models"
	"github.com/mmynk/familysync/internal/views"
)

// Procedure names of the familysync.v1 API.
const (
	SignInProcedure         = "/familysync.v1.AuthService/SignIn"
	CreateFamilyProcedure   = "/familysync.v1.FamilyService/CreateFamily"
	JoinFamilyProcedure     = "/familysync.v1.FamilyService/JoinFamily"
	LeaveFamilyProcedure    = "/familysync.v1.FamilyService/LeaveFamily"
	AddItemProcedure        = "/familysync.v1.ItemService/AddItem"
	ToggleItemProcedure     = "/familysync.v1.ItemService/ToggleItem"
	DeleteItemProcedure     = "/familysync.v1.ItemService/DeleteItem"
	ClearCompletedProcedure = "/familysync.v1.ItemService/ClearCompleted"
	WatchProcedure          = "/familysync.v1.SyncService/Watch"
)

type SignInRequest struct {
	// Token resumes an earlier identity. Empty signs in anonymously.
	Token string `json:"token,omitempty"`
}

type SignInResponse struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

type CreateFamilyRequest struct {
	Name string `json:"name"`
}

type JoinFamilyRequest struct {
	Code string `json:"code"`
}

type FamilyResponse struct {
	Family *models.Family `json:"family"`
}

type LeaveFamilyRequest struct{}

type LeaveFamilyResponse struct {
	// FamilyID is the family that was left, empty when there was none.
	FamilyID string `json:"familyId,omitempty"`
}

type AddItemRequest struct {
	Type    models.ItemType `json:"type"`
	Title   string          `json:"title"`
	Details string          `json:"details,omitempty"`
	Date    string          `json:"date,omitempty"`
}

type ItemRequest struct {
	ItemID string `json:"itemId"`
}

type ItemResponse struct {
	Item *models.Item `json:"item"`
}

type DeleteItemResponse struct{}

type ClearCompletedRequest struct {
	Type models.ItemType `json:"type"`
}

type ClearCompletedResponse struct {
	Removed int `json:"removed"`
}

type WatchRequest struct{}

// Snapshot is one state of a watched session as sent to clients.
type Snapshot struct {
	UserID      string            `json:"userId"`
	Family      *models.Family    `json:"family,omitempty"`
	MemberCount int               `json:"memberCount,omitempty"`
	Items       []models.Item     `json:"items"`
	Dashboard   views.Dashboard   `json:"dashboard"`
	Loading     bool              `json:"loading"`
	Status      models.SyncStatus `json:"status"`
	Error       string            `json:"error,omitempty"`
}

// NewSnapshot converts a sync snapshot into its wire shape, carrying the read
// error text when the session is unavailable.
func NewSnapshot(s models.Snapshot) *Snapshot {
	out := &Snapshot{
		UserID:    s.UserID,
		Family:    s.Family,
		Items:     s.Items,
		Dashboard: views.BuildDashboard(s.Items),
		Loading:   s.Loading,
		Status:    s.Status,
	}
	if s.Family != nil {
		out.MemberCount = s.Family.MemberCount()
	}
	if s.Err != nil {
		out.Error = s.Err.Error()
	}
	return out
}
