package service

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

var errStoreDown = errors.New("store unavailable")

// MockStore wraps a MemoryStore and fails selected operations.
type MockStore struct {
	*store.MemoryStore
	GetErr    error
	SetErr    error
	RemoveErr error
	// FailSetKey and FailRemoveKey limit SetErr and RemoveErr to one key
	// when not empty.
	FailSetKey    string
	FailRemoveKey string
	SetCalls      int
}

func newMockStore() *MockStore {
	return &MockStore{MemoryStore: store.NewMemoryStore()}
}

func (m *MockStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	return m.MemoryStore.Get(ctx, key)
}

func (m *MockStore) Set(ctx context.Context, key string, value []byte) error {
	m.SetCalls++
	if m.SetErr != nil && (m.FailSetKey == "" || m.FailSetKey == key) {
		return m.SetErr
	}
	return m.MemoryStore.Set(ctx, key, value)
}

func (m *MockStore) Remove(ctx context.Context, key string) error {
	if m.RemoveErr != nil && (m.FailRemoveKey == "" || m.FailRemoveKey == key) {
		return m.RemoveErr
	}
	return m.MemoryStore.Remove(ctx, key)
}

// MockSubmitter records every order it receives.
type MockSubmitter struct {
	mu          sync.Mutex
	Err         error
	Calls       int
	Order       domain.Order
	Credential  string
	Idempotency []string
	// Release, when set, blocks SubmitOrder until closed. Entered is
	// closed once the first call arrives.
	Release chan struct{}
	Entered chan struct{}
}

func (m *MockSubmitter) SubmitOrder(_ context.Context, credential, idempotencyKey string, order domain.Order) error {
	m.mu.Lock()
	m.Calls++
	m.Order = order
	m.Credential = credential
	m.Idempotency = append(m.Idempotency, idempotencyKey)
	release, entered := m.Release, m.Entered
	m.mu.Unlock()

	if entered != nil {
		close(entered)
	}
	if release != nil {
		<-release
	}
	return m.Err
}

// MockPublisher captures published checkout events.
type MockPublisher struct {
	mu     sync.Mutex
	Err    error
	Events []domain.CheckoutEvent
}

func (m *MockPublisher) PublishCheckout(_ context.Context, event domain.CheckoutEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return m.Err
}

func nullLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

var testKeys = store.NewKeys("qaligo")

func product(id int64, name, price string) domain.Product {
	return domain.Product{
		ID:    id,
		Name:  name,
		Price: decimal.RequireFromString(price),
	}
}
