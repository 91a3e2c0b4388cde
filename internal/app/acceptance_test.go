//go:build integration

package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/page-manager/internal/config"
	"github.com/prperemyshlev/page-manager/internal/dto"
	"github.com/prperemyshlev/page-manager/pkg/database"
	"github.com/prperemyshlev/page-manager/pkg/observability"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

const (
	testSecret = "test-secret-key-that-is-at-least-32-characters-long"
	pageToken  = "good-page-token"
)

type AcceptanceSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	pg        *database.Postgres
	mr        *miniredis.Miniredis
	graph     *httptest.Server
	server    *httptest.Server
	client    *http.Client
}

func TestAcceptanceSuite(t *testing.T) {
	suite.Run(t, new(AcceptanceSuite))
}

func (s *AcceptanceSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("page_manager"),
		postgres.WithUsername("page_manager"),
		postgres.WithPassword("page_manager"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.pg, err = database.NewPostgres(ctx, dsn)
	s.Require().NoError(err)
	s.Require().NoError(Migrate(ctx, s.pg, true))

	s.mr = miniredis.RunT(s.T())
	s.graph = httptest.NewServer(http.HandlerFunc(fakeGraphAPI))

	cfg := &config.Config{
		JWT:     config.JWTConfig{Secret: testSecret, SessionExpiry: config.Duration{Duration: time.Hour}},
		Session: config.SessionConfig{CookieName: "fbpm_session"},
		Graph: config.GraphConfig{
			BaseURL:   s.graph.URL,
			ClientTTL: config.Duration{Duration: time.Hour},
			Timeout:   config.Duration{Duration: 5 * time.Second},
		},
		Security: config.SecurityConfig{
			BCryptCost:        4,
			RateLimitRequests: 100,
			RateLimitWindow:   config.Duration{Duration: time.Minute},
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Env:  "test",
	}

	gin.SetMode(gin.TestMode)
	meterProvider, metricsHandler, err := observability.InitTelemetry("page_manager_test")
	s.Require().NoError(err)

	infra := &testInfrastructure{
		postgres:       s.pg,
		redis:          &database.Redis{Client: redis.NewClient(&redis.Options{Addr: s.mr.Addr()})},
		logger:         zap.NewNop(),
		metricsHandler: metricsHandler,
		meterProvider:  meterProvider,
	}

	application, err := NewApp(infra, cfg)
	s.Require().NoError(err)
	s.server = httptest.NewServer(application.Router())
}

func (s *AcceptanceSuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.graph != nil {
		s.graph.Close()
	}
	if s.pg != nil {
		_ = s.pg.Close()
	}
	if s.container != nil {
		_ = testcontainers.TerminateContainer(s.container)
	}
}

func (s *AcceptanceSuite) SetupTest() {
	_, err := s.pg.DB.Exec(`TRUNCATE facebook_accounts, users CASCADE`)
	s.Require().NoError(err)
	s.mr.FlushAll()

	jar, err := cookiejar.New(nil)
	s.Require().NoError(err)
	s.client = &http.Client{Jar: jar}
}

func (s *AcceptanceSuite) postForm(path string, form url.Values) (*http.Response, string) {
	resp, err := s.client.PostForm(s.server.URL+path, form)
	s.Require().NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, string(body)
}

func (s *AcceptanceSuite) get(path string) (*http.Response, string) {
	resp, err := s.client.Get(s.server.URL + path)
	s.Require().NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, string(body)
}

func (s *AcceptanceSuite) register(username string) {
	resp, _ := s.postForm("/register", url.Values{
		"username":         {username},
		"email":            {username + "@example.com"},
		"password":         {"password123"},
		"confirm_password": {"password123"},
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	// a new user has no accounts, so the dashboard forwards to /accounts
	s.Require().Equal("/accounts", resp.Request.URL.Path)
}

func (s *AcceptanceSuite) TestRegisterAddAccountAndBrowsePosts() {
	s.register("alice")

	resp, body := s.postForm("/accounts", url.Values{
		"account_name": {"Bakery"},
		"page_id":      {"111"},
		"access_token": {pageToken},
	})
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(body, "Connected to page: Bakery")

	resp, body = s.get("/posts")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(body, "Fresh bread")

	resp, body = s.get("/api/v1/accounts")
	s.Equal(http.StatusOK, resp.StatusCode)
	var accounts dto.ListResponse[dto.AccountResponse]
	s.Require().NoError(json.Unmarshal([]byte(body), &accounts))
	s.Require().Equal(1, accounts.Count)
	s.Equal("Active", accounts.Data[0].TokenStatus)

	resp, body = s.get("/api/v1/accounts/" + accounts.Data[0].ID + "/posts")
	s.Equal(http.StatusOK, resp.StatusCode)
	var posts dto.ListResponse[dto.PostResponse]
	s.Require().NoError(json.Unmarshal([]byte(body), &posts))
	s.Require().Equal(1, posts.Count)
	s.Equal(8, posts.Data[0].Engagement)
}

func (s *AcceptanceSuite) TestAddAccountWithBadTokenIsRejected() {
	s.register("bob")

	_, body := s.postForm("/accounts", url.Values{
		"account_name": {"Bakery"},
		"page_id":      {"111"},
		"access_token": {"expired-token"},
	})
	s.Contains(body, "Failed to add account")

	var count int
	s.Require().NoError(s.pg.DB.QueryRow(`SELECT COUNT(*) FROM facebook_accounts`).Scan(&count))
	s.Zero(count)
}

func (s *AcceptanceSuite) TestAccountsAreIsolatedBetweenUsers() {
	s.register("carol")
	s.postForm("/accounts", url.Values{"account_name": {"Bakery"}, "page_id": {"111"}, "access_token": {pageToken}})

	var accountID string
	s.Require().NoError(s.pg.DB.QueryRow(`SELECT id FROM facebook_accounts`).Scan(&accountID))

	s.postForm("/logout", nil)
	s.register("dave")

	resp, _ := s.get("/api/v1/accounts/" + accountID + "/posts")
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *AcceptanceSuite) TestLogoutRevokesSession() {
	s.register("erin")

	resp, body := s.postForm("/logout", nil)
	s.Equal("/login", resp.Request.URL.Path)
	s.Contains(body, "You have been logged out.")

	resp, _ = s.get("/api/v1/accounts")
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *AcceptanceSuite) TestHealth() {
	resp, body := s.get("/health")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(body, `"status":"pass"`)
}

// fakeGraphAPI serves page 111 to pageToken and rejects every other token
// with an OAuth error.
func fakeGraphAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	token := r.URL.Query().Get("access_token")
	if token != pageToken {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"Error validating access token","type":"OAuthException","code":190}}`)
		return
	}

	switch strings.TrimPrefix(r.URL.Path, "/") {
	case "111":
		_, _ = io.WriteString(w, `{"id":"111","name":"Bakery","fan_count":10}`)
	case "111/posts":
		_, _ = io.WriteString(w, `{"data":[{"id":"111_1","message":"Fresh bread","created_time":"2024-05-01T10:00:00+0000",`+
			`"shares":{"count":2},"reactions":{"summary":{"total_count":5}},"comments":{"summary":{"total_count":1}}}]}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"message":"Unknown path","type":"GraphMethodException","code":100}}`)
	}
}

type testInfrastructure struct {
	postgres       *database.Postgres
	redis          *database.Redis
	logger         *zap.Logger
	metricsHandler http.Handler
	meterProvider  *metric.MeterProvider
}

func (i *testInfrastructure) Postgres() *database.Postgres         { return i.postgres }
func (i *testInfrastructure) Redis() *database.Redis               { return i.redis }
func (i *testInfrastructure) Logger() *zap.Logger                  { return i.logger }
func (i *testInfrastructure) MetricsHandler() http.Handler         { return i.metricsHandler }
func (i *testInfrastructure) MeterProvider() *metric.MeterProvider { return i.meterProvider }

func (i *testInfrastructure) Shutdown(ctx context.Context) error {
	return observability.Shutdown(ctx, i.meterProvider, i.logger)
}
