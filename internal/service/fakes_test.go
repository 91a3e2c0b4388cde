package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prperemyshlev/page-manager/internal/apisession"
	"github.com/prperemyshlev/page-manager/internal/domain"
	"github.com/prperemyshlev/page-manager/internal/repository"
	"github.com/prperemyshlev/page-manager/pkg/database"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*database.Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return &database.Redis{Client: client}, mr
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]*domain.User{}}
}

func (m *memUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repository.ErrDuplicateUser
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

type memAccounts struct {
	mu       sync.Mutex
	accounts map[string]*domain.FacebookAccount
	creates  int
}

func newMemAccounts() *memAccounts {
	return &memAccounts{accounts: map[string]*domain.FacebookAccount{}}
}

func (m *memAccounts) ListByUser(_ context.Context, userID string) ([]*domain.FacebookAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.FacebookAccount
	for _, a := range m.accounts {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memAccounts) GetByID(_ context.Context, id, userID string) (*domain.FacebookAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok || a.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) Create(_ context.Context, account *domain.FacebookAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.creates++
	for _, a := range m.accounts {
		if a.UserID == account.UserID && a.PageID == account.PageID {
			return repository.ErrDuplicateAccount
		}
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	cp := *account
	m.accounts[account.ID] = &cp
	return nil
}

func (m *memAccounts) Update(_ context.Context, id, userID string, update domain.AccountUpdate) (*domain.FacebookAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok || a.UserID != userID {
		return nil, repository.ErrNotFound
	}
	if update.AccountName != nil {
		a.AccountName = *update.AccountName
	}
	if update.AccessToken != nil {
		a.AccessToken = *update.AccessToken
	}
	if update.ExpiresAt != nil {
		a.ExpiresAt = update.ExpiresAt
	}
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (m *memAccounts) Delete(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok || a.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.accounts, id)
	return nil
}

// stubPages answers token validation from a fixed table of token/page pairs.
type stubPages struct {
	accounts  *memAccounts
	valid     map[string]string
	err       error
	forgotten []string
}

func (s *stubPages) ValidateToken(_ context.Context, accessToken, pageID string) (*domain.PageInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.valid[accessToken] != pageID {
		return nil, &ValidationError{msg: "invalid token"}
	}
	return &domain.PageInfo{ID: pageID, Name: "Page " + pageID}, nil
}

func (s *stubPages) ResolveClient(ctx context.Context, accountID, userID string) (apisession.GraphAPI, *domain.FacebookAccount, error) {
	account, err := s.accounts.GetByID(ctx, accountID, userID)
	if err != nil {
		return nil, nil, apisession.ErrAccountNotFound
	}
	return nil, account, nil
}

func (s *stubPages) ForgetToken(accessToken string) {
	s.forgotten = append(s.forgotten, accessToken)
}

func (s *stubPages) GetPageInfo(_ context.Context, _ apisession.GraphAPI, pageID string) (*domain.PageInfo, error) {
	return &domain.PageInfo{ID: pageID, Name: "Page " + pageID, FanCount: 7}, nil
}
