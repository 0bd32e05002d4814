package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/familysync/internal/auth"
)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	jwtManager *auth.JWTManager
}

// NewAuthService creates a new authentication service.
func NewAuthService(jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{jwtManager: jwtManager}
}

// SignIn resumes the identity of a previously issued token, or creates a new
// anonymous identity when no token is given.
func (s *AuthService) SignIn(ctx context.Context, req *connect.Request[SignInRequest]) (*connect.Response[SignInResponse], error) {
	id, err := auth.Bootstrap(ctx, auth.NewSession(s.jwtManager), req.Msg.Token)
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("SignIn successful", "user_id", id.UserID, "resumed", req.Msg.Token != "")
	return connect.NewResponse(&SignInResponse{UserID: id.UserID, Token: id.Token}), nil
}
