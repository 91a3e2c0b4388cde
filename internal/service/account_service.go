package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prperemyshlev/page-manager/internal/apisession"
	"github.com/prperemyshlev/page-manager/internal/domain"
	"github.com/prperemyshlev/page-manager/internal/dto"
	"github.com/prperemyshlev/page-manager/internal/repository"
	"go.uber.org/zap"
)

const expiryLayout = "2006-01-02"

type accountService struct {
	repo   repository.AccountRepository
	pages  PageGateway
	logger *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(repo repository.AccountRepository, pages PageGateway, logger *zap.Logger) AccountService {
	return &accountService{
		repo:   repo,
		pages:  pages,
		logger: logger.Named("accounts"),
	}
}

func (s *accountService) List(ctx context.Context, userID string) ([]*domain.FacebookAccount, error) {
	accounts, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func (s *accountService) Get(ctx context.Context, id, userID string) (*domain.FacebookAccount, error) {
	account, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, mapAccountErr(err)
	}
	return account, nil
}

// Add validates the token against the page before storing the account
func (s *accountService) Add(ctx context.Context, userID string, req *dto.AddAccountRequest) (*domain.FacebookAccount, *domain.PageInfo, error) {
	name := strings.TrimSpace(req.AccountName)
	pageID := strings.TrimSpace(req.PageID)
	token := strings.TrimSpace(req.AccessToken)

	if name == "" || pageID == "" || token == "" {
		return nil, nil, invalid("Please fill in all required fields")
	}

	expiresAt, err := parseExpiry(req.ExpiresAt)
	if err != nil {
		return nil, nil, err
	}

	page, err := s.pages.ValidateToken(ctx, token, pageID)
	if err != nil {
		return nil, nil, err
	}

	account := &domain.FacebookAccount{
		UserID:      userID,
		AccountName: name,
		PageID:      pageID,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}

	if err := s.repo.Create(ctx, account); err != nil {
		return nil, nil, mapAccountErr(err)
	}

	s.logger.Info("account connected",
		zap.String("user_id", userID),
		zap.String("account_id", account.ID),
		zap.String("page_id", pageID),
	)

	return account, page, nil
}

// Update changes the provided fields; blank fields keep their stored value
func (s *accountService) Update(ctx context.Context, id, userID string, req *dto.UpdateAccountRequest) (*domain.FacebookAccount, error) {
	var update domain.AccountUpdate

	if name := strings.TrimSpace(req.AccountName); name != "" {
		update.AccountName = &name
	}
	if token := strings.TrimSpace(req.AccessToken); token != "" {
		update.AccessToken = &token
	}

	expiresAt, err := parseExpiry(req.ExpiresAt)
	if err != nil {
		return nil, err
	}
	update.ExpiresAt = expiresAt

	var previousToken string
	if update.AccessToken != nil {
		current, err := s.repo.GetByID(ctx, id, userID)
		if err != nil {
			return nil, mapAccountErr(err)
		}
		previousToken = current.AccessToken
	}

	account, err := s.repo.Update(ctx, id, userID, update)
	if err != nil {
		return nil, mapAccountErr(err)
	}

	if previousToken != "" && previousToken != account.AccessToken {
		s.pages.ForgetToken(previousToken)
	}
	return account, nil
}

// Delete removes an account once the user retyped its name
func (s *accountService) Delete(ctx context.Context, id, userID, confirmName string) error {
	account, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return mapAccountErr(err)
	}

	if strings.TrimSpace(confirmName) != account.AccountName {
		return invalid("Please type the account name exactly to confirm deletion")
	}

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return mapAccountErr(err)
	}
	s.pages.ForgetToken(account.AccessToken)

	s.logger.Info("account deleted", zap.String("user_id", userID), zap.String("account_id", id))
	return nil
}

// TestConnection reads the page name and fan count with the stored token
func (s *accountService) TestConnection(ctx context.Context, id, userID string) (*domain.PageInfo, error) {
	client, account, err := s.pages.ResolveClient(ctx, id, userID)
	if err != nil {
		if errors.Is(err, apisession.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return s.pages.GetPageInfo(ctx, client, account.PageID)
}

func parseExpiry(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(expiryLayout, v)
	if err != nil {
		return nil, invalid("Expiry date must be in YYYY-MM-DD format")
	}
	return &t, nil
}

func mapAccountErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrAccountNotFound
	case errors.Is(err, repository.ErrDuplicateAccount):
		return ErrAccountExists
	default:
		return err
	}
}
