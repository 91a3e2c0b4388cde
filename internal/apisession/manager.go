// Package apisession maps an application user's connected Facebook accounts
// to Graph API clients and exposes typed page operations on top of them.
package apisession

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/prperemyshlev/page-manager/internal/cache"
	"github.com/prperemyshlev/page-manager/internal/domain"
	"github.com/prperemyshlev/page-manager/internal/graph"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// ErrAccountNotFound is returned when the account does not exist or belongs
// to another user.
var ErrAccountNotFound = errors.New("facebook account not found")

// ErrEmptyMessage is returned by writes that require a message.
var ErrEmptyMessage = errors.New("message is required")

// GraphAPI is the subset of the Graph client used by the manager.
type GraphAPI interface {
	GetConnections(ctx context.Context, id, connection string, params url.Values) (*graph.Page, error)
	GetNext(ctx context.Context, next string) (*graph.Page, error)
	GetObject(ctx context.Context, id string, params url.Values, out any) error
	Post(ctx context.Context, path string, form url.Values, out any) error
	Delete(ctx context.Context, id string) error
}

// AccountLister returns the accounts owned by a user.
type AccountLister interface {
	ListByUser(ctx context.Context, userID string) ([]*domain.FacebookAccount, error)
}

// ClientFactory builds a Graph client for an access token.
type ClientFactory func(accessToken string) (GraphAPI, error)

// NewGraphClientFactory returns a factory producing graph.Client values that
// share httpClient.
func NewGraphClientFactory(baseURL string, httpClient *http.Client) ClientFactory {
	return func(accessToken string) (GraphAPI, error) {
		if accessToken == "" {
			return nil, errors.New("access token is empty")
		}
		return graph.NewClient(baseURL, accessToken, httpClient), nil
	}
}

// Option configures a Manager.
type Option func(*managerOptions)

type managerOptions struct {
	now   func() time.Time
	meter metric.Meter
}

// WithClock sets the time source used for client cache expiry.
func WithClock(now func() time.Time) Option {
	return func(o *managerOptions) { o.now = now }
}

// WithMeter sets the meter used for cache and call counters.
func WithMeter(m metric.Meter) Option {
	return func(o *managerOptions) { o.meter = m }
}

// Manager resolves accounts to cached Graph clients and runs page operations.
type Manager struct {
	accounts  AccountLister
	newClient ClientFactory
	clients   *cache.TTL[string, GraphAPI]
	logger    *zap.Logger

	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
	graphCalls  metric.Int64Counter
}

// NewManager creates a manager caching one client per access token for ttl.
func NewManager(accounts AccountLister, factory ClientFactory, ttl time.Duration, logger *zap.Logger, opts ...Option) *Manager {
	o := managerOptions{
		now:   time.Now,
		meter: otel.Meter("github.com/prperemyshlev/page-manager/internal/apisession"),
	}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Manager{
		accounts:  accounts,
		newClient: factory,
		clients:   cache.NewTTL[string, GraphAPI](ttl, cache.WithClock(o.now)),
		logger:    logger.Named("apisession"),
	}
	m.initMetrics(o.meter)

	return m
}

func (m *Manager) initMetrics(meter metric.Meter) {
	var err error

	m.cacheHits, err = meter.Int64Counter("graph_client_cache_hits_total",
		metric.WithDescription("Graph client lookups served from the cache"))
	if err != nil {
		m.logger.Warn("failed to create counter", zap.Error(err))
		m.cacheHits = noop.Int64Counter{}
	}

	m.cacheMisses, err = meter.Int64Counter("graph_client_cache_misses_total",
		metric.WithDescription("Graph clients created because none was cached"))
	if err != nil {
		m.logger.Warn("failed to create counter", zap.Error(err))
		m.cacheMisses = noop.Int64Counter{}
	}

	m.graphCalls, err = meter.Int64Counter("graph_operations_total",
		metric.WithDescription("Graph API operations by name and outcome"))
	if err != nil {
		m.logger.Warn("failed to create counter", zap.Error(err))
		m.graphCalls = noop.Int64Counter{}
	}
}

// ResolveClient returns the Graph client for accountID when it is owned by
// userID. Accounts that do not exist or belong to someone else yield
// ErrAccountNotFound.
func (m *Manager) ResolveClient(ctx context.Context, accountID, userID string) (GraphAPI, *domain.FacebookAccount, error) {
	accounts, err := m.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	for _, account := range accounts {
		if account.ID != accountID {
			continue
		}

		client, err := m.ClientForToken(ctx, account.AccessToken)
		if err != nil {
			return nil, nil, err
		}
		return client, account, nil
	}

	return nil, nil, fmt.Errorf("account %s: %w", accountID, ErrAccountNotFound)
}

// ClientForToken returns the cached client for accessToken, creating one on
// a miss. Accounts sharing a token share a client.
func (m *Manager) ClientForToken(ctx context.Context, accessToken string) (GraphAPI, error) {
	client, hit, err := m.clients.GetOrCreate(accessToken, func() (GraphAPI, error) {
		return m.newClient(accessToken)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create graph client: %w", err)
	}

	if hit {
		m.cacheHits.Add(ctx, 1)
		return client, nil
	}

	m.cacheMisses.Add(ctx, 1)
	if n := m.clients.DeleteExpired(); n > 0 {
		m.logger.Debug("evicted expired graph clients", zap.Int("count", n))
	}
	m.logger.Debug("created graph client", zap.Int("cached", m.clients.Len()))

	return client, nil
}

// ForgetToken drops the cached client for accessToken. Accounts still using
// the token get a fresh client on their next call.
func (m *Manager) ForgetToken(accessToken string) {
	m.clients.Delete(accessToken)
}

// ValidateToken checks that accessToken can read pageID and returns the
// page name.
func (m *Manager) ValidateToken(ctx context.Context, accessToken, pageID string) (*domain.PageInfo, error) {
	client, err := m.ClientForToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	var page domain.PageInfo
	err = client.GetObject(ctx, pageID, url.Values{"fields": {"name"}}, &page)
	m.record(ctx, "validate_token", err)
	if err != nil {
		return nil, fmt.Errorf("failed to validate access token: %w", err)
	}
	return &page, nil
}

// GetPageInfo reads the page name and fan count.
func (m *Manager) GetPageInfo(ctx context.Context, client GraphAPI, pageID string) (*domain.PageInfo, error) {
	var page domain.PageInfo
	err := client.GetObject(ctx, pageID, url.Values{"fields": {"name,fan_count"}}, &page)
	m.record(ctx, "get_page_info", err)
	if err != nil {
		return nil, fmt.Errorf("failed to get page info: %w", err)
	}
	return &page, nil
}

// record counts an operation outcome and logs remote failures once.
func (m *Manager) record(ctx context.Context, op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"

		fields := []zap.Field{zap.String("operation", op), zap.Error(err)}
		if gerr, ok := graph.AsError(err); ok {
			fields = append(fields,
				zap.Int("graph_code", gerr.Code),
				zap.Bool("token_expired", gerr.IsTokenExpired()),
				zap.String("fbtrace_id", gerr.TraceID),
			)
		}
		m.logger.Warn("graph operation failed", fields...)
	}

	m.graphCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	))
}
