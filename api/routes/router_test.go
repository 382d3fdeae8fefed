package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/posfront/api/middleware"
	"github.com/angelmondragon/posfront/internal/cart"
	"github.com/angelmondragon/posfront/internal/catalog"
	checkoutsvc "github.com/angelmondragon/posfront/internal/checkout"
	"github.com/angelmondragon/posfront/internal/currencies"
	"github.com/angelmondragon/posfront/internal/pos"
	"github.com/angelmondragon/posfront/internal/selection"
	"github.com/angelmondragon/posfront/internal/session"
	"github.com/angelmondragon/posfront/internal/variants"
	pkgAuth "github.com/angelmondragon/posfront/pkg/auth"
	"github.com/angelmondragon/posfront/pkg/config"
	"github.com/angelmondragon/posfront/pkg/db"
	"github.com/angelmondragon/posfront/pkg/db/models"
	"github.com/angelmondragon/posfront/pkg/enums"
	"github.com/angelmondragon/posfront/pkg/metrics"
	"github.com/angelmondragon/posfront/pkg/sequence"
	"github.com/angelmondragon/posfront/pkg/upstream"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type fakeRedis struct {
	mu     sync.Mutex
	data   map[string]string
	counts map[string]int64
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, counts: map[string]int64{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = fmt.Sprint(value)
	return true, nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeRedis) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (f *fakeRedis) RateLimitKey(parts ...string) string {
	return "rl:" + strings.Join(parts, ":")
}

func (f *fakeRedis) IncrWindow(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeRedis) Ping(context.Context) error {
	return nil
}

// retailAPI serves the handful of retail endpoints a register session touches.
type retailAPI struct {
	sales    atomic.Int32
	lastSale checkoutsvc.SaleRequest
}

func (a *retailAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
	variant := `{"id":"v1","productId":"p1","name":"M","isDefault":true,"isActive":true,"activeStock":{"quantity":5,"costPrice":6,"sellPrice":10}}`

	mux.HandleFunc("GET /api/companies/co-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"id":"co-1","name":"Acme","currencyId":"USD"}`)
	})
	mux.HandleFunc("GET /api/currencies/USD", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"id":"USD","name":"US Dollar","symbol":"$","decimals":2,"rounding":0.01}`)
	})
	mux.HandleFunc("GET /api/companies/co-1/products", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"id":"p1","companyId":"co-1","name":"Tee","isActive":true}]`)
	})
	mux.HandleFunc("GET /api/companies/co-1/products/p1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"id":"p1","companyId":"co-1","name":"Tee","isActive":true}`)
	})
	mux.HandleFunc("GET /api/companies/co-1/products/p1/variants", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, "["+variant+"]")
	})
	mux.HandleFunc("GET /api/companies/co-1/products/p1/variants/v1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, variant)
	})
	mux.HandleFunc("POST /api/sales", func(w http.ResponseWriter, r *http.Request) {
		a.sales.Add(1)
		if err := json.NewDecoder(r.Body).Decode(&a.lastSale); err != nil {
			t.Errorf("decode sale: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, `{"id":"s-1","number":"0001","amount":18}`)
	})
	return mux
}

type testServer struct {
	handler http.Handler
	api     *retailAPI
	cfg     *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	api := &retailAPI{}
	upstreamSrv := httptest.NewServer(api.handler(t))
	t.Cleanup(upstreamSrv.Close)

	cfg := &config.Config{
		App: config.AppConfig{Env: "dev"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "posfront", ExpirationMinutes: 60},
		HTTP: config.HTTPConfig{
			CORSOrigins:              []string{"http://localhost:3000"},
			CheckoutRateWindow:       time.Minute,
			CheckoutRateIPLimit:      100,
			CheckoutRateSessionLimit: 100,
		},
	}

	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.CartSession{}, &models.CartLineItem{}, &models.CheckoutAttempt{}))

	registry := prometheus.NewRegistry()
	apiClient, err := upstream.NewClient(upstreamSrv.URL+"/api", upstream.WithObserver(metrics.NewUpstreamMetrics(registry)))
	require.NoError(t, err)

	catalogClient, err := catalog.NewClient(apiClient)
	require.NoError(t, err)
	variantClient, err := variants.NewClient(apiClient)
	require.NoError(t, err)
	currencyClient, err := currencies.NewClient(apiClient)
	require.NoError(t, err)
	saleClient, err := checkoutsvc.NewSaleClient(apiClient)
	require.NoError(t, err)

	cartStore, err := cart.NewStore(cart.NewRepository(conn), db.NewFromConn(conn))
	require.NoError(t, err)
	sessions, err := session.NewService(cartStore, selection.NewMemoryStore(), nil)
	require.NoError(t, err)
	currencySvc, err := currencies.NewService(currencyClient, nil, 0, nil)
	require.NoError(t, err)
	variantSvc, err := variants.NewService(variantClient, sequence.NewMemory(), nil)
	require.NoError(t, err)
	catalogSvc, err := catalog.NewService(catalogClient, variantSvc, sessions, currencySvc, nil)
	require.NoError(t, err)
	posSvc, err := pos.NewService(sessions, variantSvc, catalogClient, catalogSvc)
	require.NoError(t, err)
	checkoutSvc, err := checkoutsvc.NewService(sessions, saleClient, checkoutsvc.NewRepository(conn), catalogSvc, metrics.NewCheckoutMetrics(registry), nil)
	require.NoError(t, err)

	handler := NewRouter(cfg, nil, stubPinger{}, newFakeRedis(), registry, catalogSvc, currencySvc, posSvc, checkoutSvc)
	return &testServer{handler: handler, api: api, cfg: cfg}
}

func (s *testServer) token(t *testing.T, role enums.MemberRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(s.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:    "user-1",
		CompanyID: "co-1",
		Role:      role,
		JTI:       "jti-1",
	})
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, token, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type envelope[T any] struct {
	Data  T `json:"data"`
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var out envelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, http.StatusOK, srv.do(t, "", http.MethodGet, "/health/live", "", nil).Code)
	assert.Equal(t, http.StatusOK, srv.do(t, "", http.MethodGet, "/health/ready", "", nil).Code)
	assert.Equal(t, http.StatusOK, srv.do(t, "", http.MethodGet, "/metrics", "", nil).Code)
}

func TestAPIRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, "", http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductCardsFormattedInCompanyCurrency(t *testing.T) {
	srv := newTestServer(t)
	token := srv.token(t, enums.MemberRoleCashier)

	rec := srv.do(t, token, http.MethodGet, "/api/v1/companies/co-1/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cards := decode[[]catalog.ProductCard](t, rec).Data
	require.Len(t, cards, 1)
	assert.Equal(t, 1, cards[0].VariantCount)
	assert.Equal(t, "$ 10.00", cards[0].Formatted.SellPrice)

	rec = srv.do(t, token, http.MethodGet, "/api/v1/products/p1/display", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	display := decode[catalog.ProductDisplay](t, rec).Data
	require.NotNil(t, display.DefaultVariantID)
	assert.Equal(t, "v1", *display.DefaultVariantID)
}

func TestCashierCannotMutateVariants(t *testing.T) {
	srv := newTestServer(t)
	token := srv.token(t, enums.MemberRoleCashier)

	rec := srv.do(t, token, http.MethodPost, "/api/v1/products/p1/variants", `{"name":"XL"}`, map[string]string{"Idempotency-Key": "v-1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRegisterSaleFlow(t *testing.T) {
	srv := newTestServer(t)
	token := srv.token(t, enums.MemberRoleCashier)

	rec := srv.do(t, token, http.MethodPost, "/api/v1/cart/items", `{"productId":"p1","variantId":"v1","quantity":2}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view := decode[pos.CartView](t, rec).Data
	require.Len(t, view.Items, 1)
	itemID := view.Items[0].ID

	rec = srv.do(t, token, http.MethodPatch, "/api/v1/cart/items/"+itemID, `{"discountPercent":10}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view = decode[pos.CartView](t, rec).Data
	assert.Equal(t, cart.Totals{Subtotal: 20, DiscountAmount: 2, FinalAmount: 18}, view.Totals)
	assert.False(t, view.CanCheckout)

	// No customer yet: rejected before any network call.
	rec = srv.do(t, token, http.MethodPost, "/api/v1/checkout", "", map[string]string{"Idempotency-Key": "k0"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "NO_CUSTOMER_SELECTED", decode[any](t, rec).Error.Code)
	assert.Equal(t, int32(0), srv.api.sales.Load())

	rec = srv.do(t, token, http.MethodPut, "/api/v1/cart/customer", `{"customerId":"cust-1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = srv.do(t, token, http.MethodPost, "/api/v1/checkout", "", map[string]string{"Idempotency-Key": "k1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	result := decode[checkoutsvc.Result](t, rec).Data
	assert.Equal(t, "s-1", result.Sale.ID)
	assert.Equal(t, "$ 18.00", result.FormattedAmount)
	assert.Equal(t, float64(18), srv.api.lastSale.Amount)
	assert.Equal(t, "cust-1", srv.api.lastSale.CustomerID)

	// Same key replays the stored response without resubmitting.
	replay := srv.do(t, token, http.MethodPost, "/api/v1/checkout", "", map[string]string{"Idempotency-Key": "k1"})
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, rec.Body.String(), replay.Body.String())
	assert.Equal(t, int32(1), srv.api.sales.Load())

	rec = srv.do(t, token, http.MethodGet, "/api/v1/cart", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[pos.CartView](t, rec).Data
	assert.Empty(t, view.Items)
	assert.Nil(t, view.CustomerID)

	rec = srv.do(t, token, http.MethodGet, "/api/v1/checkout/attempts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	attempts := decode[[]map[string]any](t, rec).Data
	require.Len(t, attempts, 1)
	assert.Equal(t, "succeeded", attempts[0]["status"])
}

func TestSessionsAreIsolatedByHeader(t *testing.T) {
	srv := newTestServer(t)
	token := srv.token(t, enums.MemberRoleCashier)

	rec := srv.do(t, token, http.MethodPost, "/api/v1/cart/items", `{"productId":"p1","variantId":"v1","quantity":1}`,
		map[string]string{middleware.SessionHeader: "register-a"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = srv.do(t, token, http.MethodGet, "/api/v1/cart", "", map[string]string{middleware.SessionHeader: "register-b"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[pos.CartView](t, rec).Data.Items)
}
