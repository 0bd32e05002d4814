package service

import (
	"context"

	"connectrpc.com/connect"

	"github.com/mmynk/familysync/internal/family"
	"github.com/mmynk/familysync/internal/middleware"
)

// FamilyService implements the Connect FamilyService.
type FamilyService struct {
	families *family.Service
}

// NewFamilyService creates a FamilyService over the family operations.
func NewFamilyService(families *family.Service) *FamilyService {
	return &FamilyService{families: families}
}

// CreateFamily creates a family with the caller as its only member.
func (s *FamilyService) CreateFamily(ctx context.Context, req *connect.Request[CreateFamilyRequest]) (*connect.Response[FamilyResponse], error) {
	f, err := s.families.CreateFamily(ctx, middleware.GetUserID(ctx), req.Msg.Name)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&FamilyResponse{Family: f}), nil
}

// JoinFamily adds the caller to the family with the given code.
func (s *FamilyService) JoinFamily(ctx context.Context, req *connect.Request[JoinFamilyRequest]) (*connect.Response[FamilyResponse], error) {
	f, err := s.families.JoinFamily(ctx, middleware.GetUserID(ctx), req.Msg.Code)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&FamilyResponse{Family: f}), nil
}

// LeaveFamily removes the caller from its active family.
func (s *FamilyService) LeaveFamily(ctx context.Context, _ *connect.Request[LeaveFamilyRequest]) (*connect.Response[LeaveFamilyResponse], error) {
	left, err := s.families.LeaveFamily(ctx, middleware.GetUserID(ctx))
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&LeaveFamilyResponse{FamilyID: left}), nil
}
