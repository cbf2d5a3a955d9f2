package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const maxBodySize = 4 << 20 // 4MB

var ErrUnavailable = errors.New("backend unavailable")

// StatusError is returned for every non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Body)
}

// StatusCode extracts the HTTP status from err, or 0 if err is not a StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

type Options struct {
	BaseURL          string
	Timeout          time.Duration
	MaxFailures      uint32
	OpenTimeout      time.Duration
	HalfOpenRequests uint32
	// Transport is wrapped with otelhttp; nil means http.DefaultTransport.
	Transport http.RoundTripper
}

// Client talks to the storefront backend over its REST API.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[*reply]
	products singleflight.Group
	log      logrus.FieldLogger
}

type reply struct {
	status int
	body   []byte
}

func New(opts Options, log logrus.FieldLogger) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", opts.BaseURL)
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	maxFailures := opts.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	c := &Client{
		baseURL: base,
		http: &http.Client{
			Transport: otelhttp.NewTransport(transport),
			Timeout:   opts.Timeout,
		},
		log: log,
	}
	c.breaker = gobreaker.NewCircuitBreaker[*reply](gobreaker.Settings{
		Name:        "storefront-backend",
		MaxRequests: opts.HalfOpenRequests,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
	return c, nil
}

// ListProducts fetches the catalog. Concurrent callers share one request.
//
// The shared fetch is detached from any one caller's context and bounded by
// the client timeout. A caller whose context ends stops waiting, the others
// still get the result.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	shared := context.WithoutCancel(ctx)
	ch := c.products.DoChan("products", func() (interface{}, error) {
		var products []domain.Product
		if err := c.do(shared, http.MethodGet, c.endpoint("api", "products"), "", nil, nil, &products); err != nil {
			return nil, err
		}
		return products, nil
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list products: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("list products: %w", res.Err)
		}
		return slices.Clone(res.Val.([]domain.Product)), nil
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the body of a successful login.
type LoginResult struct {
	User  domain.UserRecord `json:"user"`
	Token string            `json:"token"`
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var res LoginResult
	body := loginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, c.endpoint("api", "auth", "login"), "", nil, body, &res); err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}
	if len(res.User) == 0 || res.Token == "" {
		return LoginResult{}, fmt.Errorf("login: response lacks user or token")
	}
	return res, nil
}

// SubmitOrder posts the order. Any 2xx is a confirmation; the body is
// discarded.
func (c *Client) SubmitOrder(ctx context.Context, credential, idempotencyKey string, order domain.Order) error {
	header := http.Header{}
	if idempotencyKey != "" {
		header.Set("Idempotency-Key", idempotencyKey)
	}
	if err := c.do(ctx, http.MethodPost, c.endpoint("api", "orders"), credential, header, order, nil); err != nil {
		return fmt.Errorf("submit order: %w", err)
	}
	return nil
}

// ListOrders returns the order history of userID.
func (c *Client) ListOrders(ctx context.Context, credential string, userID json.RawMessage) ([]domain.OrderSummary, error) {
	id, err := pathID(userID)
	if err != nil {
		return nil, err
	}
	var orders []domain.OrderSummary
	if err := c.do(ctx, http.MethodGet, c.endpoint("api", "orders", id), credential, nil, nil, &orders); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// pathID renders a JSON id (number or string) as a path segment.
func pathID(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if _, err := strconv.ParseFloat(n.String(), 64); err == nil {
			return n.String(), nil
		}
	}
	return "", fmt.Errorf("user id %q is not usable in a path", string(raw))
}

func (c *Client) endpoint(segments ...string) string {
	return c.baseURL.JoinPath(segments...).String()
}

func (c *Client) do(
	ctx context.Context,
	method, endpoint, credential string,
	header http.Header,
	in, out interface{},
) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	rep, err := c.breaker.Execute(func() (*reply, error) {
		return c.roundTrip(ctx, method, endpoint, credential, header, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err != nil {
		return err
	}

	if rep.status < 200 || rep.status > 299 {
		logger.FromContext(ctx, c.log).WithFields(logrus.Fields{
			"method": method,
			"url":    endpoint,
			"status": rep.status,
		}).Warn("backend rejected request")
		return &StatusError{StatusCode: rep.status, Body: string(bytes.TrimSpace(rep.body))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rep.body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// roundTrip performs one request. Transport errors and 5xx responses are
// returned as errors so the breaker counts them; 4xx are handed back as
// replies.
func (c *Client) roundTrip(
	ctx context.Context,
	method, endpoint, credential string,
	header http.Header,
	payload []byte,
) (*reply, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	return &reply{status: resp.StatusCode, body: data}, nil
}
