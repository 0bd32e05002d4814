package service

import (
	"context"

	"connectrpc.com/connect"

	"github.com/mmynk/familysync/internal/family"
	"github.com/mmynk/familysync/internal/middleware"
)

// ItemService implements the Connect ItemService.
type ItemService struct {
	families *family.Service
}

// NewItemService creates an ItemService over the family operations.
func NewItemService(families *family.Service) *ItemService {
	return &ItemService{families: families}
}

// AddItem creates an item in the caller's active family.
func (s *ItemService) AddItem(ctx context.Context, req *connect.Request[AddItemRequest]) (*connect.Response[ItemResponse], error) {
	item, err := s.families.AddItem(ctx, middleware.GetUserID(ctx), family.NewItem{
		Type:    req.Msg.Type,
		Title:   req.Msg.Title,
		Details: req.Msg.Details,
		Date:    req.Msg.Date,
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&ItemResponse{Item: item}), nil
}

// ToggleItem flips the completed flag of an item.
func (s *ItemService) ToggleItem(ctx context.Context, req *connect.Request[ItemRequest]) (*connect.Response[ItemResponse], error) {
	item, err := s.families.ToggleItem(ctx, middleware.GetUserID(ctx), req.Msg.ItemID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&ItemResponse{Item: item}), nil
}

// DeleteItem removes an item.
func (s *ItemService) DeleteItem(ctx context.Context, req *connect.Request[ItemRequest]) (*connect.Response[DeleteItemResponse], error) {
	if err := s.families.DeleteItem(ctx, middleware.GetUserID(ctx), req.Msg.ItemID); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&DeleteItemResponse{}), nil
}

// ClearCompleted removes every completed item of a type.
func (s *ItemService) ClearCompleted(ctx context.Context, req *connect.Request[ClearCompletedRequest]) (*connect.Response[ClearCompletedResponse], error) {
	n, err := s.families.ClearCompleted(ctx, middleware.GetUserID(ctx), req.Msg.Type)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&ClearCompletedResponse{Removed: n}), nil
}
