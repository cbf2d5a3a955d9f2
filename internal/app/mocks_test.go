package app

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// MockBackend implements Backend for testing
type MockBackend struct {
	mu          sync.Mutex
	Products    []domain.Product
	ProductsErr error
	LoginResult backend.LoginResult
	LoginErr    error
	Orders      []domain.OrderSummary
	OrdersErr   error
	SubmitErr   error
	Submitted   []domain.Order
	OrdersUser  json.RawMessage
}

func (m *MockBackend) ListProducts(_ context.Context) ([]domain.Product, error) {
	return m.Products, m.ProductsErr
}

func (m *MockBackend) Login(_ context.Context, _, _ string) (backend.LoginResult, error) {
	return m.LoginResult, m.LoginErr
}

func (m *MockBackend) ListOrders(_ context.Context, _ string, userID json.RawMessage) ([]domain.OrderSummary, error) {
	m.OrdersUser = userID
	return m.Orders, m.OrdersErr
}

func (m *MockBackend) SubmitOrder(_ context.Context, _, _ string, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Submitted = append(m.Submitted, order)
	return m.SubmitErr
}

var testCatalog = []domain.Product{
	{ID: 1, Name: "Bowl", Description: "Poke bowl", Price: decimal.RequireFromString("12.50"), Category: "bowls"},
	{ID: 2, Name: "Green tea", Description: "Hot", Price: decimal.RequireFromString("3.20"), Category: "drinks"},
	{ID: 3, Name: "Mochi", Price: decimal.RequireFromString("4.00")},
}
