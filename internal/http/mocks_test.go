package http

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/store"
	"github.com/shopspring/decimal"
)

// MockStore fails Remove with RemoveErr, for one key when FailRemoveKey is set.
type MockStore struct {
	*store.MemoryStore
	RemoveErr     error
	FailRemoveKey string
}

func (m *MockStore) Remove(ctx context.Context, key string) error {
	if m.RemoveErr != nil && (m.FailRemoveKey == "" || m.FailRemoveKey == key) {
		return m.RemoveErr
	}
	return m.MemoryStore.Remove(ctx, key)
}

// MockBackend implements app.Backend for testing
type MockBackend struct {
	mu          sync.Mutex
	Products    []domain.Product
	ProductsErr error
	LoginResult backend.LoginResult
	LoginErr    error
	Orders      []domain.OrderSummary
	OrdersErr   error
	SubmitErr   error
	Submitted   int
}

func (m *MockBackend) ListProducts(_ context.Context) ([]domain.Product, error) {
	return m.Products, m.ProductsErr
}

func (m *MockBackend) Login(_ context.Context, _, _ string) (backend.LoginResult, error) {
	return m.LoginResult, m.LoginErr
}

func (m *MockBackend) ListOrders(_ context.Context, _ string, _ json.RawMessage) ([]domain.OrderSummary, error) {
	return m.Orders, m.OrdersErr
}

func (m *MockBackend) SubmitOrder(_ context.Context, _, _ string, _ domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Submitted++
	return m.SubmitErr
}

func newMockBackend() *MockBackend {
	return &MockBackend{
		Products: []domain.Product{
			{ID: 1, Name: "Bowl", Price: decimal.RequireFromString("12.50"), Category: "bowls"},
			{ID: 2, Name: "Green tea", Price: decimal.RequireFromString("3.20"), Category: "drinks"},
		},
		LoginResult: backend.LoginResult{
			User:  domain.UserRecord(`{"id":7,"name":"Alice"}`),
			Token: "tok-1",
		},
	}
}
