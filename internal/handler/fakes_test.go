package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/page-manager/internal/apisession"
	"github.com/prperemyshlev/page-manager/internal/domain"
	"github.com/prperemyshlev/page-manager/internal/dto"
	"github.com/prperemyshlev/page-manager/internal/service"
	"github.com/prperemyshlev/page-manager/pkg/database"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	cookieName   = "fbpm_session"
	aliceToken   = "tok-alice"
	aliceID      = "u-alice"
	authLimit    = 3
	alicePass    = "password123"
	bakeryPageID = "111"
)

type fakeAuth struct {
	mu        sync.Mutex
	tokens    map[string]*domain.SessionClaims
	users     map[string]*domain.User
	loggedOut []string
	changed   bool
}

func newFakeAuth() *fakeAuth {
	f := &fakeAuth{
		tokens: map[string]*domain.SessionClaims{},
		users: map[string]*domain.User{
			aliceID: {ID: aliceID, Username: "alice", Email: "alice@example.com", CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		},
	}
	f.tokens[aliceToken] = &domain.SessionClaims{
		SessionID: "sess-alice",
		UserID:    aliceID,
		Username:  "alice",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	return f
}

func (f *fakeAuth) Register(_ context.Context, req *dto.RegisterRequest) (*service.Session, error) {
	if req.Username == "alice" {
		return nil, service.ErrUserExists
	}
	return nil, fmt.Errorf("unexpected registration of %s", req.Username)
}

func (f *fakeAuth) Login(_ context.Context, req *dto.LoginRequest) (*service.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if req.Username != "alice" || req.Password != alicePass {
		return nil, service.ErrInvalidCredentials
	}
	claims := f.tokens[aliceToken]
	return &service.Session{Token: aliceToken, Claims: claims, User: f.users[aliceID]}, nil
}

func (f *fakeAuth) Logout(_ context.Context, claims *domain.SessionClaims) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.loggedOut = append(f.loggedOut, claims.SessionID)
	for token, c := range f.tokens {
		if c.SessionID == claims.SessionID {
			delete(f.tokens, token)
		}
	}
	return nil
}

func (f *fakeAuth) ValidateSession(_ context.Context, token string) (*domain.SessionClaims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	claims, ok := f.tokens[token]
	if !ok {
		return nil, service.ErrSessionInvalid
	}
	return claims, nil
}

func (f *fakeAuth) ChangePassword(_ context.Context, _ string, req *dto.ChangePasswordRequest) error {
	if req.CurrentPassword != alicePass {
		return &service.ValidationError{}
	}
	f.changed = true
	return nil
}

func (f *fakeAuth) GetUser(_ context.Context, userID string) (*domain.User, error) {
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %s not found", userID)
}

type fakeAccounts struct {
	mu       sync.Mutex
	accounts []*domain.FacebookAccount
}

func (f *fakeAccounts) add(a *domain.FacebookAccount) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts = append(f.accounts, a)
}

func (f *fakeAccounts) List(_ context.Context, userID string) ([]*domain.FacebookAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*domain.FacebookAccount
	for _, a := range f.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAccounts) Get(ctx context.Context, id, userID string) (*domain.FacebookAccount, error) {
	accounts, _ := f.List(ctx, userID)
	for _, a := range accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, service.ErrAccountNotFound
}

func (f *fakeAccounts) Add(_ context.Context, userID string, req *dto.AddAccountRequest) (*domain.FacebookAccount, *domain.PageInfo, error) {
	a := &domain.FacebookAccount{
		ID:          "acc-" + req.PageID,
		UserID:      userID,
		AccountName: req.AccountName,
		PageID:      req.PageID,
		AccessToken: req.AccessToken,
	}
	f.add(a)
	return a, &domain.PageInfo{ID: req.PageID, Name: req.AccountName + " Page"}, nil
}

func (f *fakeAccounts) Update(ctx context.Context, id, userID string, req *dto.UpdateAccountRequest) (*domain.FacebookAccount, error) {
	a, err := f.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if req.AccountName != "" {
		a.AccountName = req.AccountName
	}
	return a, nil
}

func (f *fakeAccounts) Delete(ctx context.Context, id, userID, confirmName string) error {
	a, err := f.Get(ctx, id, userID)
	if err != nil {
		return err
	}
	if confirmName != a.AccountName {
		return &service.ValidationError{}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.accounts {
		if existing.ID == id {
			f.accounts = append(f.accounts[:i], f.accounts[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeAccounts) TestConnection(ctx context.Context, id, userID string) (*domain.PageInfo, error) {
	a, err := f.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return &domain.PageInfo{ID: a.PageID, Name: a.AccountName, FanCount: 42}, nil
}

// fakeOps is an in-memory page. The Graph client it hands out is nil; its
// operations never use one.
type fakeOps struct {
	mu          sync.Mutex
	accounts    *fakeAccounts
	posts       []domain.Post
	comments    map[string][]domain.Comment
	insights    domain.Insights
	insightsErr error
	created     []string
	edited      map[string]string
	deleted     []string
	replies     map[string][]string
}

func newFakeOps(accounts *fakeAccounts) *fakeOps {
	return &fakeOps{
		accounts: accounts,
		comments: map[string][]domain.Comment{},
		edited:   map[string]string{},
		replies:  map[string][]string{},
	}
}

func (f *fakeOps) ResolveClient(ctx context.Context, accountID, userID string) (apisession.GraphAPI, *domain.FacebookAccount, error) {
	a, err := f.accounts.Get(ctx, accountID, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("account %s: %w", accountID, apisession.ErrAccountNotFound)
	}
	return nil, a, nil
}

func (f *fakeOps) ListPosts(_ context.Context, _ apisession.GraphAPI, _ string, limit int) ([]domain.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if limit < len(f.posts) {
		return f.posts[:limit], nil
	}
	return f.posts, nil
}

func (f *fakeOps) GetPost(_ context.Context, _ apisession.GraphAPI, postID string) (*domain.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range f.posts {
		if p.ID == postID {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("post %s not found", postID)
}

func (f *fakeOps) CreatePost(_ context.Context, _ apisession.GraphAPI, _, message, _ string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", apisession.ErrEmptyMessage
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, message)
	return "p-new", nil
}

func (f *fakeOps) EditPost(_ context.Context, _ apisession.GraphAPI, postID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edited[postID] = message
	return nil
}

func (f *fakeOps) DeletePost(_ context.Context, _ apisession.GraphAPI, postID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, postID)
	return nil
}

func (f *fakeOps) ListComments(_ context.Context, _ apisession.GraphAPI, objectID string, _ int) ([]domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.comments[objectID], nil
}

func (f *fakeOps) GetComment(_ context.Context, _ apisession.GraphAPI, commentID string) (*domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, list := range f.comments {
		for _, c := range list {
			if c.ID == commentID {
				return &c, nil
			}
		}
	}
	return nil, fmt.Errorf("comment %s not found", commentID)
}

func (f *fakeOps) ReplyToComment(_ context.Context, _ apisession.GraphAPI, objectID, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", apisession.ErrEmptyMessage
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[objectID] = append(f.replies[objectID], message)
	return objectID + "_r", nil
}

func (f *fakeOps) EditComment(_ context.Context, _ apisession.GraphAPI, commentID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edited[commentID] = message
	return nil
}

func (f *fakeOps) DeleteComment(_ context.Context, _ apisession.GraphAPI, commentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, commentID)
	return nil
}

func (f *fakeOps) GetPageInsights(_ context.Context, _ apisession.GraphAPI, _, _ string, _ int) (domain.Insights, error) {
	if f.insightsErr != nil {
		return nil, f.insightsErr
	}
	return f.insights, nil
}

type testEnv struct {
	router   *gin.Engine
	auth     *fakeAuth
	accounts *fakeAccounts
	ops      *fakeOps
	sessions *service.SessionStore
	mr       *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	rdb := &database.Redis{Client: client}

	renderer, err := NewRenderer()
	require.NoError(t, err)

	env := &testEnv{
		auth:     newFakeAuth(),
		accounts: &fakeAccounts{},
		sessions: service.NewSessionStore(rdb),
		mr:       mr,
	}
	env.ops = newFakeOps(env.accounts)

	logger := zap.NewNop()
	cookie := Cookie{Name: cookieName}
	pages := NewPages(env.accounts, service.NewPreferencesStore(rdb), logger)

	router := gin.New()
	router.HTMLRender = renderer

	Routes{
		Auth:          NewAuthHandler(env.auth, cookie, logger),
		Accounts:      NewAccountHandler(pages),
		Content:       NewContentHandler(pages, env.ops),
		Settings:      NewSettingsHandler(pages, env.auth, cookie),
		API:           NewAPIHandler(env.accounts, env.ops, logger),
		Session:       NewSessionAuth(env.auth, env.sessions, cookie, logger),
		AuthRateLimit: RateLimitMiddleware(service.NewRateLimiter(rdb), authLimit, time.Minute, IPBasedKey, logger),
		CORS:          CORSMiddleware([]string{"http://localhost:3000"}, []string{"GET", "OPTIONS"}, []string{"Content-Type"}),
	}.Register(router)

	env.router = router
	return env
}

func (e *testEnv) addBakery() *domain.FacebookAccount {
	a := &domain.FacebookAccount{ID: "acc-bakery", UserID: aliceID, AccountName: "Bakery", PageID: bakeryPageID, AccessToken: "tok-1"}
	e.accounts.add(a)
	return a
}

// do sends a request, with form as the url-encoded body when not nil.
func (e *testEnv) do(method, target string, form url.Values, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// get is a GET with the session cookie.
func (e *testEnv) get(target string) *httptest.ResponseRecorder {
	return e.do(http.MethodGet, target, nil, aliceToken)
}

// post is a form POST with the session cookie.
func (e *testEnv) post(target string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return e.do(http.MethodPost, target, form, aliceToken)
}

func httptestRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

func serve(env *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}
