package service

import (
	"context"

	"github.com/prperemyshlev/page-manager/internal/apisession"
	"github.com/prperemyshlev/page-manager/internal/domain"
	"github.com/prperemyshlev/page-manager/internal/dto"
)

// AuthService defines methods for authentication operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*Session, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*Session, error)
	Logout(ctx context.Context, claims *domain.SessionClaims) error
	ValidateSession(ctx context.Context, token string) (*domain.SessionClaims, error)
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// AccountService manages the connected Facebook accounts of a user
type AccountService interface {
	List(ctx context.Context, userID string) ([]*domain.FacebookAccount, error)
	Get(ctx context.Context, id, userID string) (*domain.FacebookAccount, error)
	Add(ctx context.Context, userID string, req *dto.AddAccountRequest) (*domain.FacebookAccount, *domain.PageInfo, error)
	Update(ctx context.Context, id, userID string, req *dto.UpdateAccountRequest) (*domain.FacebookAccount, error)
	Delete(ctx context.Context, id, userID, confirmName string) error
	TestConnection(ctx context.Context, id, userID string) (*domain.PageInfo, error)
}

// PageGateway is the part of the API session manager the account service uses
type PageGateway interface {
	ValidateToken(ctx context.Context, accessToken, pageID string) (*domain.PageInfo, error)
	ResolveClient(ctx context.Context, accountID, userID string) (apisession.GraphAPI, *domain.FacebookAccount, error)
	GetPageInfo(ctx context.Context, client apisession.GraphAPI, pageID string) (*domain.PageInfo, error)
	ForgetToken(accessToken string)
}

// Session is the result of a successful login or registration
type Session struct {
	Token   string
	Claims  *domain.SessionClaims
	User    *domain.User
	Context *domain.SessionContext
}
