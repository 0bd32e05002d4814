package service

import (
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/familysync/internal/auth"
	"github.com/mmynk/familysync/internal/middleware"
)

// Services bundles the handlers served under the familysync.v1 API.
type Services struct {
	Auth   *AuthService
	Family *FamilyService
	Item   *ItemService
	Sync   *SyncService
}

// Register mounts every procedure on mux. All procedures except SignIn
// require a Bearer token issued by jwtManager.
func Register(mux *http.ServeMux, svc Services, jwtManager *auth.JWTManager, opts ...connect.HandlerOption) {
	public := append([]connect.HandlerOption{
		WithJSON(),
		connect.WithInterceptors(middleware.LoggingInterceptor{}),
	}, opts...)
	private := append([]connect.HandlerOption{
		WithJSON(),
		connect.WithInterceptors(middleware.RequireAuth(jwtManager), middleware.LoggingInterceptor{}),
	}, opts...)

	mux.Handle(SignInProcedure, connect.NewUnaryHandler(SignInProcedure, svc.Auth.SignIn, public...))

	mux.Handle(CreateFamilyProcedure, connect.NewUnaryHandler(CreateFamilyProcedure, svc.Family.CreateFamily, private...))
	mux.Handle(JoinFamilyProcedure, connect.NewUnaryHandler(JoinFamilyProcedure, svc.Family.JoinFamily, private...))
	mux.Handle(LeaveFamilyProcedure, connect.NewUnaryHandler(LeaveFamilyProcedure, svc.Family.LeaveFamily, private...))

	mux.Handle(AddItemProcedure, connect.NewUnaryHandler(AddItemProcedure, svc.Item.AddItem, private...))
	mux.Handle(ToggleItemProcedure, connect.NewUnaryHandler(ToggleItemProcedure, svc.Item.ToggleItem, private...))
	mux.Handle(DeleteItemProcedure, connect.NewUnaryHandler(DeleteItemProcedure, svc.Item.DeleteItem, private...))
	mux.Handle(ClearCompletedProcedure, connect.NewUnaryHandler(ClearCompletedProcedure, svc.Item.ClearCompleted, private...))

	mux.Handle(WatchProcedure, connect.NewServerStreamHandler(WatchProcedure, svc.Sync.Watch, private...))
}
