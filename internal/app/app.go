package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/fjod/go_cart/storefront/internal/store"
	"github.com/sirupsen/logrus"
)

var ErrUnknownProduct = errors.New("product not found in catalog")

// Backend is what the storefront needs from the remote API.
type Backend interface {
	service.OrderSubmitter
	ListProducts(ctx context.Context) ([]domain.Product, error)
	Login(ctx context.Context, email, password string) (backend.LoginResult, error)
	ListOrders(ctx context.Context, credential string, userID json.RawMessage) ([]domain.OrderSummary, error)
}

// App is one storefront instance over one profile store: the state a
// browser tab holds between page loads.
type App struct {
	Cart     *service.CartModel
	Session  *service.SessionModel
	Checkout *service.CheckoutWorkflow

	store       store.Store
	backend     Backend
	log         logrus.FieldLogger
	unsubscribe []func()
}

// New wires the models over st. Nothing is read until Load.
func New(st store.Store, keys store.Keys, be Backend, events service.EventPublisher, log logrus.FieldLogger) *App {
	cart := service.NewCartModel(st, keys.Cart, log)
	session := service.NewSessionModel(st, keys, log)
	a := &App{
		Cart:     cart,
		Session:  session,
		Checkout: service.NewCheckoutWorkflow(cart, session, be, events, log),
		store:    st,
		backend:  be,
		log:      log,
	}
	a.unsubscribe = append(a.unsubscribe, cart.Subscribe(func(c domain.Cart) {
		log.WithField("cart_count", c.TotalQuantity()).Debug("cart badge updated")
	}))
	return a
}

// Load re-hydrates every model from the store, like a page load.
func (a *App) Load(ctx context.Context) {
	a.Cart.Reload(ctx)
	a.Session.Reload(ctx)
}

// Navbar is the state shown on every page header.
type Navbar struct {
	Authenticated bool   `json:"authenticated"`
	DisplayName   string `json:"display_name,omitempty"`
	CartCount     int    `json:"cart_count"`
}

func (a *App) Navbar() Navbar {
	s := a.Session.Session()
	return Navbar{
		Authenticated: s.IsAuthenticated(),
		DisplayName:   s.User.DisplayName(),
		CartCount:     a.Cart.TotalQuantity(),
	}
}

// Menu is the catalog page: products after filtering plus the category pills.
type Menu struct {
	Categories []string         `json:"categories"`
	Products   []domain.Product `json:"products"`
}

func (a *App) Menu(ctx context.Context, category, query string) (Menu, error) {
	products, err := a.backend.ListProducts(ctx)
	if err != nil {
		return Menu{}, err
	}
	return Menu{
		Categories: domain.Categories(products),
		Products:   domain.FilterProducts(products, category, query),
	}, nil
}

// AddProduct resolves productID against the live catalog and adds it to the cart.
func (a *App) AddProduct(ctx context.Context, productID int64) (domain.Cart, error) {
	products, err := a.backend.ListProducts(ctx)
	if err != nil {
		return a.Cart.Cart(), err
	}
	p, ok := domain.FindProduct(products, productID)
	if !ok {
		return a.Cart.Cart(), fmt.Errorf("%w: %d", ErrUnknownProduct, productID)
	}
	return a.Cart.AddItem(ctx, p)
}

// Login authenticates against the backend and stores the session.
func (a *App) Login(ctx context.Context, email, password string) (domain.Session, error) {
	res, err := a.backend.Login(ctx, email, password)
	if err != nil {
		logger.FromContext(ctx, a.log).WithError(err).Info("login rejected")
		return a.Session.Session(), err
	}
	return a.Session.SignIn(ctx, res.User, res.Token)
}

func (a *App) Logout(ctx context.Context) error {
	return a.Session.SignOut(ctx)
}

// Orders returns the signed-in user's order history.
func (a *App) Orders(ctx context.Context) ([]domain.OrderSummary, error) {
	s := a.Session.Session()
	if !s.IsAuthenticated() {
		return nil, service.ErrAuthRequired
	}
	userID := s.User.ID()
	if userID == nil {
		return nil, fmt.Errorf("%w: user record has no id", service.ErrAuthRequired)
	}
	return a.backend.ListOrders(ctx, s.Credential, userID)
}

// Close drops subscriptions and closes the store.
func (a *App) Close() error {
	for _, fn := range a.unsubscribe {
		fn()
	}
	a.unsubscribe = nil
	return a.store.Close()
}
