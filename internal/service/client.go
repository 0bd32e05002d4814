package service

import (
	"context"

	"connectrpc.com/connect"

	"github.com/mmynk/familysync/internal/middleware"
	"github.com/mmynk/familysync/internal/models"
)

// Client calls the familysync.v1 API.
type Client struct {
	signIn         *connect.Client[SignInRequest, SignInResponse]
	createFamily   *connect.Client[CreateFamilyRequest, FamilyResponse]
	joinFamily     *connect.Client[JoinFamilyRequest, FamilyResponse]
	leaveFamily    *connect.Client[LeaveFamilyRequest, LeaveFamilyResponse]
	addItem        *connect.Client[AddItemRequest, ItemResponse]
	toggleItem     *connect.Client[ItemRequest, ItemResponse]
	deleteItem     *connect.Client[ItemRequest, DeleteItemResponse]
	clearCompleted *connect.Client[ClearCompletedRequest, ClearCompletedResponse]
	watch          *connect.Client[WatchRequest, Snapshot]
}

// NewClient creates a client for the server at baseURL. token is sent as a
// Bearer token on every call; it may be empty before SignIn.
func NewClient(httpClient connect.HTTPClient, baseURL, token string, opts ...connect.ClientOption) *Client {
	opts = append([]connect.ClientOption{
		WithJSON(),
		connect.WithInterceptors(middleware.BearerToken(token)),
	}, opts...)
	return &Client{
		signIn:         connect.NewClient[SignInRequest, SignInResponse](httpClient, baseURL+SignInProcedure, opts...),
		createFamily:   connect.NewClient[CreateFamilyRequest, FamilyResponse](httpClient, baseURL+CreateFamilyProcedure, opts...),
		joinFamily:     connect.NewClient[JoinFamilyRequest, FamilyResponse](httpClient, baseURL+JoinFamilyProcedure, opts...),
		leaveFamily:    connect.NewClient[LeaveFamilyRequest, LeaveFamilyResponse](httpClient, baseURL+LeaveFamilyProcedure, opts...),
		addItem:        connect.NewClient[AddItemRequest, ItemResponse](httpClient, baseURL+AddItemProcedure, opts...),
		toggleItem:     connect.NewClient[ItemRequest, ItemResponse](httpClient, baseURL+ToggleItemProcedure, opts...),
		deleteItem:     connect.NewClient[ItemRequest, DeleteItemResponse](httpClient, baseURL+DeleteItemProcedure, opts...),
		clearCompleted: connect.NewClient[ClearCompletedRequest, ClearCompletedResponse](httpClient, baseURL+ClearCompletedProcedure, opts...),
		watch:          connect.NewClient[WatchRequest, Snapshot](httpClient, baseURL+WatchProcedure, opts...),
	}
}

func (c *Client) SignIn(ctx context.Context, token string) (*SignInResponse, error) {
	resp, err := c.signIn.CallUnary(ctx, connect.NewRequest(&SignInRequest{Token: token}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) CreateFamily(ctx context.Context, name string) (*models.Family, error) {
	resp, err := c.createFamily.CallUnary(ctx, connect.NewRequest(&CreateFamilyRequest{Name: name}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Family, nil
}

func (c *Client) JoinFamily(ctx context.Context, code string) (*models.Family, error) {
	resp, err := c.joinFamily.CallUnary(ctx, connect.NewRequest(&JoinFamilyRequest{Code: code}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Family, nil
}

func (c *Client) LeaveFamily(ctx context.Context) (string, error) {
	resp, err := c.leaveFamily.CallUnary(ctx, connect.NewRequest(&LeaveFamilyRequest{}))
	if err != nil {
		return "", err
	}
	return resp.Msg.FamilyID, nil
}

func (c *Client) AddItem(ctx context.Context, req *AddItemRequest) (*models.Item, error) {
	resp, err := c.addItem.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Item, nil
}

func (c *Client) ToggleItem(ctx context.Context, itemID string) (*models.Item, error) {
	resp, err := c.toggleItem.CallUnary(ctx, connect.NewRequest(&ItemRequest{ItemID: itemID}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Item, nil
}

func (c *Client) DeleteItem(ctx context.Context, itemID string) error {
	_, err := c.deleteItem.CallUnary(ctx, connect.NewRequest(&ItemRequest{ItemID: itemID}))
	return err
}

func (c *Client) ClearCompleted(ctx context.Context, itemType models.ItemType) (int, error) {
	resp, err := c.clearCompleted.CallUnary(ctx, connect.NewRequest(&ClearCompletedRequest{Type: itemType}))
	if err != nil {
		return 0, err
	}
	return resp.Msg.Removed, nil
}

// Watch opens the snapshot stream. Close the stream to stop watching.
func (c *Client) Watch(ctx context.Context) (*connect.ServerStreamForClient[Snapshot], error) {
	return c.watch.CallServerStream(ctx, connect.NewRequest(&WatchRequest{}))
}
